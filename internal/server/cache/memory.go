package cache

import (
	"context"
	"sync"
	"time"
)

type memoryItem struct {
	value   []byte
	expires time.Time
}

// MemoryCache is a process-local Cache with per-key expiry. Expired keys are
// dropped lazily on read.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	now   func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]memoryItem), now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()

	if !ok {
		return nil, ErrCacheMiss
	}
	if !it.expires.IsZero() && !c.now().Before(it.expires) {
		c.mu.Lock()
		if cur, ok := c.items[key]; ok && cur.expires.Equal(it.expires) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return nil, ErrCacheMiss
	}

	out := make([]byte, len(it.value))
	copy(out, it.value)
	return out, nil
}

// Set stores value under key; ttl <= 0 means no expiry.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	it := memoryItem{value: make([]byte, len(value))}
	copy(it.value, value)
	if ttl > 0 {
		it.expires = c.now().Add(ttl)
	}

	c.mu.Lock()
	c.items[key] = it
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	for _, k := range keys {
		delete(c.items, k)
	}
	c.mu.Unlock()
	return nil
}
