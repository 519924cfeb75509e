// Package securestore provides the device-side key-value store that holds
// session data. Values are opaque strings addressed by string keys.
//
// Backends: SQLiteStore (default, goose-migrated file), RedisStore (shared
// dev environments), MemoryStore (tests and ephemeral runs). EncryptedStore
// wraps any of them with AES-GCM so nothing is kept in clear text at rest.
//
// Backends that can apply several writes atomically implement Batcher.
package securestore

import (
	"context"
	"errors"
)

var (
	// ErrBatchUnsupported is returned by Batch when the underlying backend
	// cannot apply writes atomically.
	ErrBatchUnsupported = errors.New("batch not supported by backend")
	// ErrUnknownBackend is returned by Open for an unrecognised backend name.
	ErrUnknownBackend = errors.New("unknown secure store backend")
)

// Store is the secure key-value contract: get/set/delete of string values.
//
// Get returns ok=false and a nil error when the key does not exist.
// Delete of a missing key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Batcher runs fn against a Store view whose writes are applied all together
// when fn returns nil, and discarded otherwise.
type Batcher interface {
	Batch(ctx context.Context, fn func(ctx context.Context, s Store) error) error
}

// Batch runs fn atomically when s supports it. Otherwise it returns
// ErrBatchUnsupported without calling fn.
func Batch(ctx context.Context, s Store, fn func(ctx context.Context, s Store) error) error {
	b, ok := s.(Batcher)
	if !ok {
		return ErrBatchUnsupported
	}
	return b.Batch(ctx, fn)
}
