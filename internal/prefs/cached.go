package prefs

import (
	"context"
	"sync"
	"time"

	"fintrack/internal/cache"
)

type cachedValue struct {
	value string
	ok    bool
}

// CachedStore is a read-through cache in front of a slower Store. Writes go
// to the backing store first and then drop the touched keys, so a failed
// Apply never leaves the cache ahead of storage. A read that overlapped an
// Apply does not fill the cache.
type CachedStore struct {
	next Store
	lru  *cache.LRUCache[cachedValue]

	mu  sync.Mutex
	gen uint64 // bumped by every Apply
}

// NewCachedStore wraps next with an LRU of the given size and TTL.
func NewCachedStore(next Store, size int, ttl time.Duration) *CachedStore {
	return &CachedStore{next: next, lru: cache.NewLRUCache[cachedValue](size, ttl)}
}

// Cleaner exposes the cache for periodic expiry by a cache.Manager.
func (c *CachedStore) Cleaner() cache.Cleaner {
	return c.lru
}

func (c *CachedStore) Get(ctx context.Context, key string) (string, bool, error) {
	if v, hit := c.lru.Get(key); hit {
		return v.value, v.ok, nil
	}
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	value, ok, err := c.next.Get(ctx, key)
	if err != nil {
		return "", false, err
	}

	c.mu.Lock()
	if c.gen == gen {
		c.lru.Set(key, cachedValue{value: value, ok: ok})
	}
	c.mu.Unlock()
	return value, ok, nil
}

func (c *CachedStore) Apply(ctx context.Context, edits ...Edit) error {
	err := c.next.Apply(ctx, edits...)

	c.mu.Lock()
	c.gen++
	for _, e := range edits {
		c.lru.Delete(e.Key)
	}
	c.mu.Unlock()
	return err
}
