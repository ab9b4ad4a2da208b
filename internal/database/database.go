package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/XSAM/otelsql"
	_ "github.com/mattn/go-sqlite3"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"chatgw/internal/config"
)

var sqlOpen = sql.Open

// BuildSQLiteDSN constructs a DSN for the local cache database.
// Example: file:chatgw.db?_busy_timeout=5000&_journal_mode=WAL
func BuildSQLiteDSN(c config.CacheConfig) (string, error) {
	if c.Path == "" {
		return "", fmt.Errorf("invalid cache config: path is required")
	}

	q := url.Values{}
	q.Set("_busy_timeout", "5000")
	q.Set("_journal_mode", "WAL")

	return "file:" + c.Path + "?" + q.Encode(), nil
}

// NewSQLite opens a database/sql connection using the sqlite3 driver and applies pooling settings.
func NewSQLite(c config.CacheConfig) (*sql.DB, error) {
	dsn, err := BuildSQLiteDSN(c)
	if err != nil {
		return nil, err
	}

	// Register the otelsql driver wrapper
	driverName, err := otelsql.Register("sqlite3",
		otelsql.WithAttributes(semconv.DBSystemSqlite),
		otelsql.WithSQLCommenter(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register otelsql: %w", err)
	}

	db, err := sqlOpen(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}

	// Apply connection pool settings if provided
	if c.MaxOpenConns > 0 {
		db.SetMaxOpenConns(c.MaxOpenConns)
	}
	if c.MaxIdleConns > 0 {
		db.SetMaxIdleConns(c.MaxIdleConns)
	}
	if c.ConnMaxLifetimeSec > 0 {
		db.SetConnMaxLifetime(time.Duration(c.ConnMaxLifetimeSec) * time.Second)
	}

	// Verify connectivity with a short timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	return db, nil
}
