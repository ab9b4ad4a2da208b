package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"chatgw/internal/cache"
)

// RecordCache is a SQLite implementation of cache.Cache.
// It uses database/sql with parameterized queries and contains no business logic.
type RecordCache struct {
	db *sql.DB
}

// NewRecordCache creates a new SQLite-backed record cache.
func NewRecordCache(db *sql.DB) *RecordCache {
	return &RecordCache{db: db}
}

var _ cache.Cache = (*RecordCache)(nil)

// Get returns the payload stored under key, or cache.ErrNoRecord.
func (c *RecordCache) Get(ctx context.Context, key string) ([]byte, error) {
	const q = `
		SELECT data
		FROM cache_records
		WHERE key = ?
	`
	var data []byte
	if err := c.db.QueryRowContext(ctx, q, key).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, cache.ErrNoRecord
		}
		return nil, err
	}
	return data, nil
}

// Put stores the payload under key, replacing any previous record.
func (c *RecordCache) Put(ctx context.Context, key string, data []byte) error {
	const q = `
		INSERT INTO cache_records (key, data, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`
	_, err := c.db.ExecContext(ctx, q, key, data, time.Now().UTC())
	return err
}

// Delete removes the record under key. It does not return an error if the record does not exist.
func (c *RecordCache) Delete(ctx context.Context, key string) error {
	const q = `DELETE FROM cache_records WHERE key = ?`
	res, err := c.db.ExecContext(ctx, q, key)
	if err != nil {
		return err
	}
	// Ignore rows affected; deleting an absent record is not an error.
	_, _ = res.RowsAffected()
	return nil
}
