// Package cache provides a small key/value cache abstraction with redis and
// in-memory backends, and a generic lookaside reader built on top of it.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// Cache stores opaque byte snapshots under string keys.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
