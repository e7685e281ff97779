package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/userembed/internal/logging"
)

// DefaultTTL is applied when a Lookaside is built with ttl <= 0.
const DefaultTTL = 60 * time.Second

// Loader reads the authoritative value from the store. Returning (nil, nil)
// or an error means nothing is written to the cache.
type Loader[T any] func(ctx context.Context) (*T, error)

// Lookaside reads entities through a Cache, falling back to the store on a
// miss and writing the loaded snapshot back.
//
// There is no invalidation hook: a write to the store becomes visible through
// GetByID only after the cached snapshot expires (at most ttl).
//
// Cache failures never fail a read; they are logged and the store is used.
type Lookaside[T any] struct {
	cache     Cache
	namespace string
	ttl       time.Duration
	log       logging.Logger
}

func NewLookaside[T any](c Cache, namespace string, ttl time.Duration, log logging.Logger) *Lookaside[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = logging.Nop{}
	}
	return &Lookaside[T]{
		cache:     c,
		namespace: namespace,
		ttl:       ttl,
		log:       log.With("module", "cache", "namespace", namespace),
	}
}

// Key returns the cache key used for id.
func (l *Lookaside[T]) Key(id int64) string {
	return fmt.Sprintf("%s:id:%d", l.namespace, id)
}

func (l *Lookaside[T]) GetByID(ctx context.Context, id int64, load Loader[T]) (*T, error) {
	key := l.Key(id)

	b, err := l.cache.Get(ctx, key)
	switch {
	case err == nil:
		var v T
		decErr := json.Unmarshal(b, &v)
		if decErr == nil {
			l.log.Debug(ctx, "cache hit", "key", key)
			return &v, nil
		}
		l.log.Warn(ctx, "cache snapshot undecodable", "key", key, "error", decErr)
	case errors.Is(err, ErrCacheMiss):
		l.log.Debug(ctx, "cache miss", "key", key)
	default:
		l.log.Warn(ctx, "cache get failed", "key", key, "error", err)
	}

	v, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}

	if b, err := json.Marshal(v); err != nil {
		l.log.Warn(ctx, "cache snapshot encode failed", "key", key, "error", err)
	} else if err := l.cache.Set(ctx, key, b, l.ttl); err != nil {
		l.log.Warn(ctx, "cache set failed", "key", key, "error", err)
	}

	return v, nil
}
