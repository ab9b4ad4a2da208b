package storage

import (
	"context"
	"time"
)

// Package storage contains the object store abstraction used by the local
// stub backend. Implementations rely on streaming I/O only; no local disk.

// ObjectInfo describes an object in the document bucket. Once the tagger has
// run, the language tag arrives in Metadata under "X-Amz-Meta-Language", the
// prefixed form bucket listings return for user metadata.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// PostGrant is a time-limited permission to upload one object via a
// browser-style multipart POST. Fields must be sent before the file part.
type PostGrant struct {
	URL    string
	Fields map[string]string
}

// Storage is an S3-compatible object store client for the document bucket.
type Storage interface {
	// List enumerates every object in the bucket with its metadata.
	List(ctx context.Context) ([]ObjectInfo, error)
	// PresignPost issues a grant for uploading the given key via multipart POST.
	PresignPost(ctx context.Context, key, contentType string, expiry time.Duration) (*PostGrant, error)
}
