// Package metadata is the local key/value store backing the secure token
// store. Values are opaque bytes; callers encrypt before writing.
package metadata

import "context"

type Store interface {
	// Get returns (nil, nil) when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	// GetMany returns the keys that exist; absent keys are left out.
	GetMany(ctx context.Context, keys ...string) (map[string][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Replace writes values and deletes the keys mapped to nil, in one
	// statement each.
	Replace(ctx context.Context, values map[string][]byte) error
	Delete(ctx context.Context, keys ...string) error
	Clear(ctx context.Context) error
}
