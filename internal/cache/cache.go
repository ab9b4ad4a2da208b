package cache

import (
	"context"
	"errors"
)

// Package cache contains the persisted-cache port shared by all stores.
// Implementations live in subpackages (e.g., sqlite) inside this directory.

// Record keys used by the stores. The cache is shared but partitioned:
// each store owns exactly one key and never touches the others.
const (
	KeySession   = "session"
	KeyDocuments = "documents"
	KeyChats     = "chats"
)

// ErrNoRecord is returned by Get when no record exists under the key.
// A missing record is expected degraded state, never a failure.
var ErrNoRecord = errors.New("cache: no record")

// Cache is a keyed record store holding serialized store state.
// Payloads are opaque to the cache; serialization is the callers' concern.
type Cache interface {
	// Get returns the payload stored under key, or ErrNoRecord.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores the payload under key, replacing any previous record.
	Put(ctx context.Context, key string, data []byte) error

	// Delete removes the record under key. It returns nil if the record
	// was deleted or did not exist.
	Delete(ctx context.Context, key string) error
}
