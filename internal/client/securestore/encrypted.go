package securestore

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/ccelrecreo/recreo/internal/cryptox"
)

// EncryptedStore seals every value with AES-256-GCM before handing it to the
// inner store. Keys are stored in clear so lookups keep working.
type EncryptedStore struct {
	inner Store
	key   []byte
}

// NewEncryptedStore wraps inner. key must be cryptox.KeySize bytes.
func NewEncryptedStore(inner Store, key []byte) (*EncryptedStore, error) {
	if len(key) != cryptox.KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", cryptox.KeySize, len(key))
	}
	return &EncryptedStore{inner: inner, key: key}, nil
}

func (e *EncryptedStore) Get(ctx context.Context, key string) (string, bool, error) {
	encoded, ok, err := e.inner.Get(ctx, key)
	if err != nil || !ok {
		return "", ok, err
	}

	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", false, fmt.Errorf("decode %s: %w", key, err)
	}
	plain, err := cryptox.Open(sealed, e.key)
	if err != nil {
		return "", false, fmt.Errorf("decrypt %s: %w", key, err)
	}
	return string(plain), true, nil
}

func (e *EncryptedStore) Set(ctx context.Context, key, value string) error {
	sealed, err := cryptox.Seal([]byte(value), e.key)
	if err != nil {
		return fmt.Errorf("encrypt %s: %w", key, err)
	}
	return e.inner.Set(ctx, key, base64.StdEncoding.EncodeToString(sealed))
}

func (e *EncryptedStore) Delete(ctx context.Context, key string) error {
	return e.inner.Delete(ctx, key)
}

// Batch delegates to the inner store when it supports batches.
func (e *EncryptedStore) Batch(ctx context.Context, fn func(ctx context.Context, s Store) error) error {
	return Batch(ctx, e.inner, func(ctx context.Context, s Store) error {
		return fn(ctx, &EncryptedStore{inner: s, key: e.key})
	})
}
