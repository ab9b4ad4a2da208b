package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"chatgw/internal/backend"
	"chatgw/internal/cache"
	"chatgw/internal/model"
)

var (
	ErrIDRequired = errors.New("id is required")
	ErrReaderNil  = errors.New("reader is nil")
)

// DocumentDirectory owns the authoritative local view of document metadata.
// The remote listing is the source of truth; the directory synchronizes
// from it wholesale, inserts optimistic placeholders on upload, and answers
// lookups. Removal is local-only by product decision: the remote object is
// never deleted, so the local view and the remote store may diverge until
// the next refresh.
type DocumentDirectory interface {
	// Refresh replaces the local collection with the remote listing.
	// On failure the previous collection is retained. Pending placeholders
	// the listing does not yet contain survive the replacement.
	Refresh(ctx context.Context) error

	// Upload runs the two-phase presigned write and, on success, inserts a
	// pending placeholder document with the grant's key as id and the
	// undetermined-language sentinel. The finalized record only appears
	// after a later Refresh; there is no push signal for tag completion.
	Upload(ctx context.Context, filename, contentType string, size int64, r io.Reader) (*model.Document, error)

	// Remove deletes the document from the local view only.
	Remove(ctx context.Context, id string) error

	// Lookup is a pure local read.
	Lookup(id string) (*model.Document, bool)

	// All returns the local collection in its current order.
	All() []model.Document
}

type documentDirectory struct {
	cache   cache.Cache
	backend backend.DocumentBackend

	mu   sync.RWMutex
	docs []model.Document
}

// NewDocumentDirectory constructs the directory and hydrates the offline
// view from the persisted cache. A corrupt record is purged, not surfaced.
func NewDocumentDirectory(ctx context.Context, c cache.Cache, b backend.DocumentBackend) DocumentDirectory {
	d := &documentDirectory{cache: c, backend: b}

	data, err := c.Get(ctx, cache.KeyDocuments)
	if err != nil {
		return d
	}
	var docs []model.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		_ = c.Delete(ctx, cache.KeyDocuments)
		return d
	}
	d.docs = docs
	return d
}

func (d *documentDirectory) Refresh(ctx context.Context) error {
	listed, err := d.backend.List(ctx)
	if err != nil {
		// Keep the previous collection; a failed refresh is never destructive.
		return err
	}

	d.mu.Lock()
	confirmed := make(map[string]struct{}, len(listed))
	for _, doc := range listed {
		confirmed[doc.ID] = struct{}{}
	}
	merged := listed
	// Re-append optimistic placeholders the authoritative listing has not
	// caught up with yet. Once the listing carries the id, the remote
	// record wins and the pending flag disappears with the placeholder.
	for _, doc := range d.docs {
		if !doc.Pending {
			continue
		}
		if _, ok := confirmed[doc.ID]; !ok {
			merged = append(merged, doc)
		}
	}
	d.docs = merged
	data, err := json.Marshal(d.docs)
	d.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encode documents: %w", err)
	}
	return d.cache.Put(ctx, cache.KeyDocuments, data)
}

func (d *documentDirectory) Upload(ctx context.Context, filename, contentType string, size int64, r io.Reader) (*model.Document, error) {
	if r == nil {
		return nil, ErrReaderNil
	}
	if filename == "" {
		return nil, fmt.Errorf("%w: filename", ErrValidation)
	}

	grant, err := d.backend.Presign(ctx, filename, contentType)
	if err != nil {
		return nil, err
	}
	if err := d.backend.Upload(ctx, grant, filename, contentType, r); err != nil {
		return nil, err
	}

	// Optimistic insertion: the write succeeded, but the authoritative
	// listing has not confirmed the object yet and the language tagger has
	// not run. Callers observe the finalized record on a later Refresh.
	doc := model.Document{
		ID:         grant.Key(),
		Name:       filename,
		Size:       size,
		Type:       contentType,
		UploadDate: time.Now().UTC(),
		Language:   model.LanguageUndetermined,
		Pending:    true,
	}

	d.mu.Lock()
	d.docs = append(d.docs, doc)
	data, err := json.Marshal(d.docs)
	d.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("encode documents: %w", err)
	}
	if err := d.cache.Put(ctx, cache.KeyDocuments, data); err != nil {
		return nil, fmt.Errorf("persist documents: %w", err)
	}
	return &doc, nil
}

// Remove drops the document from the local collection only. It never calls
// the remote store: the object survives there and reappears on the next
// Refresh. This asymmetry with Upload is intentional.
func (d *documentDirectory) Remove(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}

	d.mu.Lock()
	kept := d.docs[:0]
	for _, doc := range d.docs {
		if doc.ID != id {
			kept = append(kept, doc)
		}
	}
	d.docs = kept
	data, err := json.Marshal(d.docs)
	d.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encode documents: %w", err)
	}
	return d.cache.Put(ctx, cache.KeyDocuments, data)
}

func (d *documentDirectory) Lookup(id string) (*model.Document, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for i := range d.docs {
		if d.docs[i].ID == id {
			doc := d.docs[i]
			return &doc, true
		}
	}
	return nil, false
}

func (d *documentDirectory) All() []model.Document {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]model.Document, len(d.docs))
	copy(out, d.docs)
	return out
}
