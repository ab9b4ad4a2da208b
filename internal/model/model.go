package model

import "time"

// LanguageUndetermined is the placeholder language assigned to a freshly
// uploaded document. An out-of-band tagging process sets the real value in
// the remote store; the client only observes it on the next listing refresh.
const LanguageUndetermined = "und"

// User is the authenticated identity. It lives in memory and in the
// persisted cache only; there is no server-side account record.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Document is remote object metadata as seen by the gateway.
// ID is the remote storage key. Pending marks an optimistic placeholder
// inserted after an upload that the authoritative listing has not
// confirmed yet.
type Document struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	Type       string    `json:"type"`
	UploadDate time.Time `json:"uploadDate"`
	Language   string    `json:"language"`
	Content    string    `json:"content,omitempty"`
	Pending    bool      `json:"pending,omitempty"`
}

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is a single chat turn. Messages are append-only: once created
// they are never mutated or reordered.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Chat is one conversation. Every chat is born with a seed system message,
// so Messages is never empty. DocumentIDs may reference documents that no
// longer exist in the directory; dangling ids are filtered at read time,
// not repaired.
type Chat struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Messages    []Message `json:"messages"`
	DocumentIDs []string  `json:"documentIds"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
