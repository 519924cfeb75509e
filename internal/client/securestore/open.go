package securestore

import (
	"context"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"
)

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Options selects and configures a backend.
type Options struct {
	Backend   string
	DSN       string
	RedisAddr string
	// Key enables at-rest encryption when non-empty.
	Key []byte
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the configured store. The returned Closer releases backend
// resources and is never nil on success.
func Open(ctx context.Context, opts Options) (Store, io.Closer, error) {
	var (
		store  Store
		closer io.Closer
	)

	switch opts.Backend {
	case BackendSQLite, "":
		s, err := OpenSQLite(ctx, opts.DSN)
		if err != nil {
			return nil, nil, err
		}
		store, closer = s, s
	case BackendRedis:
		rdb := redis.NewClient(&redis.Options{Addr: opts.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("redis %s: %w", opts.RedisAddr, err)
		}
		s := NewRedisStore(rdb, DefaultRedisPrefix)
		store, closer = s, s
	case BackendMemory:
		store, closer = NewMemoryStore(), nopCloser{}
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}

	if len(opts.Key) == 0 {
		return store, closer, nil
	}
	enc, err := NewEncryptedStore(store, opts.Key)
	if err != nil {
		_ = closer.Close()
		return nil, nil, err
	}
	return enc, closer, nil
}
