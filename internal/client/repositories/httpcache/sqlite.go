// Package httpcache stores serialized HTTP responses in the http_cache table.
// SQLiteCache satisfies github.com/gregjones/httpcache.Cache so the transport
// pipeline can answer repeated and offline GETs from disk.
package httpcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/weelo-captain/internal/dbx"
	"github.com/dmitrijs2005/weelo-captain/internal/logging"
)

const opTimeout = 2 * time.Second

type SQLiteCache struct {
	db  dbx.DBTX
	log logging.Logger
	now func() time.Time
}

func NewSQLiteCache(db dbx.DBTX, log logging.Logger) *SQLiteCache {
	if log == nil {
		log = logging.Nop()
	}
	return &SQLiteCache{db: db, log: log, now: time.Now}
}

// Get returns the cached response for key. Storage errors count as a miss.
func (c *SQLiteCache) Get(key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var value []byte
	err := c.db.QueryRowContext(ctx, `SELECT value FROM http_cache WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		c.log.Warn(ctx, "http cache read failed", "key", key, "error", err)
		return nil, false
	}
	return value, true
}

func (c *SQLiteCache) Set(key string, value []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO http_cache (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, c.now().Unix())
	if err != nil {
		c.log.Warn(ctx, "http cache write failed", "key", key, "error", err)
	}
}

func (c *SQLiteCache) Delete(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if _, err := c.db.ExecContext(ctx, `DELETE FROM http_cache WHERE key = ?`, key); err != nil {
		c.log.Warn(ctx, "http cache delete failed", "key", key, "error", err)
	}
}

// Clear removes every cached response (logout).
func (c *SQLiteCache) Clear(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM http_cache`); err != nil {
		return fmt.Errorf("failed to clear http_cache: %w", err)
	}
	return nil
}

// Prune drops entries written before cutoff.
func (c *SQLiteCache) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM http_cache WHERE updated_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune http_cache: %w", err)
	}
	return res.RowsAffected()
}
