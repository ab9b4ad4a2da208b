package backend

import (
	"context"
	"fmt"
	"io"

	"chatgw/internal/model"
)

// Package backend contains clients for the external HTTP endpoints the
// gateway consumes: the document listing endpoint, the presigned-upload
// endpoint, and the chat endpoint. All endpoints are configured via URLs;
// their implementations (object store, inference service) are out of scope.

// PresignGrant is a backend-issued, time-limited credential permitting a
// direct client-to-storage write. Fields must be submitted together with
// the file as a multipart form to URL. The object key assigned by the
// backend is carried in Fields["key"].
type PresignGrant struct {
	URL    string            `json:"url"`
	Fields map[string]string `json:"fields"`
}

// Key returns the storage key assigned by the presign backend.
func (g *PresignGrant) Key() string {
	return g.Fields["key"]
}

// AskRequest is the payload sent to the chat endpoint: the full message
// history of the conversation (including the question restated as the last
// user message), the associated document ids, and the raw question.
type AskRequest struct {
	ChatID      string          `json:"chatId"`
	History     []model.Message `json:"history"`
	DocumentIDs []string        `json:"documentIds"`
	Question    string          `json:"question"`
}

// DocumentBackend talks to the remote document store.
type DocumentBackend interface {
	// List fetches the authoritative document listing.
	List(ctx context.Context) ([]model.Document, error)

	// Presign requests a scoped write credential for (filename, contentType).
	Presign(ctx context.Context, filename, contentType string) (*PresignGrant, error)

	// Upload performs the authorized write: grant fields plus the file
	// payload submitted as a multipart form to the grant URL.
	Upload(ctx context.Context, grant *PresignGrant, filename, contentType string, r io.Reader) error
}

// ChatBackend talks to the model-backed chat endpoint.
type ChatBackend interface {
	// Ask posts the assembled request and returns the answer text.
	Ask(ctx context.Context, req AskRequest) (string, error)
}

// ListError reports a non-success status from the listing endpoint.
type ListError struct {
	Status int
}

func (e *ListError) Error() string {
	return fmt.Sprintf("list documents failed (%d)", e.Status)
}

// PresignError reports a non-success status or a malformed response body
// from the presign endpoint.
type PresignError struct {
	Status int
	Reason string
}

func (e *PresignError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("presign failed (%d): %s", e.Status, e.Reason)
	}
	return fmt.Sprintf("presign failed (%d)", e.Status)
}

// UploadError reports a non-success status from the storage write.
type UploadError struct {
	Status int
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("storage upload failed (%d)", e.Status)
}

// ChatError reports a non-success status from the chat endpoint.
type ChatError struct {
	Status int
}

func (e *ChatError) Error() string {
	return fmt.Sprintf("chat endpoint error (%d)", e.Status)
}
