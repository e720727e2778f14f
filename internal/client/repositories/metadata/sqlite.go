package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dmitrijs2005/weelo-captain/internal/dbx"
)

// SQLiteStore keeps the pairs in the secure_kv table.
type SQLiteStore struct {
	db dbx.DBTX
}

var _ Store = (*SQLiteStore)(nil)

func NewSQLiteStore(db dbx.DBTX) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM secure_kv WHERE key = ?`, key).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("secure_kv get %q: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) GetMany(ctx context.Context, keys ...string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	in, args := inClause(keys)
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM secure_kv WHERE key IN (`+in+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("secure_kv get %v: %w", keys, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key   string
			value []byte
		)
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("secure_kv scan: %w", err)
		}
		out[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("secure_kv rows: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, upsert, key, value); err != nil {
		return fmt.Errorf("secure_kv set %q: %w", key, err)
	}
	return nil
}

const upsert = `INSERT INTO secure_kv (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value`

// Replace is meant to run inside dbx.WithTx so readers never see half a
// session.
func (s *SQLiteStore) Replace(ctx context.Context, values map[string][]byte) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var gone []string
	for _, k := range keys {
		if values[k] == nil {
			gone = append(gone, k)
			continue
		}
		if err := s.Set(ctx, k, values[k]); err != nil {
			return err
		}
	}
	return s.Delete(ctx, gone...)
}

func (s *SQLiteStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	in, args := inClause(keys)
	if _, err := s.db.ExecContext(ctx, `DELETE FROM secure_kv WHERE key IN (`+in+`)`, args...); err != nil {
		return fmt.Errorf("secure_kv delete %v: %w", keys, err)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM secure_kv`); err != nil {
		return fmt.Errorf("secure_kv clear: %w", err)
	}
	return nil
}

func inClause(keys []string) (string, []any) {
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	return strings.TrimSuffix(strings.Repeat("?,", len(keys)), ","), args
}
