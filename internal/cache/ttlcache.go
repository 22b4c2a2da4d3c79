// Package cache implements the bounded TTL caches (reference data,
// partner/unit status, dedup) on top of hashicorp/golang-lru's expirable LRU.
package cache

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// Stats reports the current size and cumulative hit/miss counts for a cache,
// exposed for monitoring.
type Stats struct {
	Size    int
	Hits    int64
	Misses  int64
	HitRate float64
}

// TTLCache is a bounded, per-entry-TTL, concurrency-safe string-keyed cache.
// Reads are safe from many goroutines; writes are serialized by the
// underlying LRU's own lock. Hit/miss counters are tracked separately so
// Stats() can report a hit rate the same way the original Caffeine caches did.
type TTLCache[V any] struct {
	name string
	lru  *lru.LRU[string, V]

	mu     sync.Mutex
	hits   int64
	misses int64
}

// New creates a TTLCache bounded to maxSize entries, each expiring ttl after
// insertion.
func New[V any](name string, maxSize int, ttl time.Duration) *TTLCache[V] {
	return &TTLCache[V]{
		name: name,
		lru:  lru.NewLRU[string, V](maxSize, nil, ttl),
	}
}

// Get returns the cached value and whether it was present (and unexpired).
func (c *TTLCache[V]) Get(key string) (V, bool) {
	v, ok := c.lru.Get(key)
	c.mu.Lock()
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	c.mu.Unlock()
	return v, ok
}

// Put inserts or overwrites a value, resetting its TTL.
func (c *TTLCache[V]) Put(key string, value V) {
	c.lru.Add(key, value)
}

// Invalidate removes a single key.
func (c *TTLCache[V]) Invalidate(key string) {
	c.lru.Remove(key)
}

// InvalidateAll empties the cache.
func (c *TTLCache[V]) InvalidateAll() {
	c.lru.Purge()
}

// Name returns the cache's identity, used to label metrics.
func (c *TTLCache[V]) Name() string { return c.name }

// Stats reports current size and cumulative hit/miss counters.
func (c *TTLCache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := c.hits + c.misses
	rate := 0.0
	if total > 0 {
		rate = float64(c.hits) / float64(total)
	}
	return Stats{
		Size:    c.lru.Len(),
		Hits:    c.hits,
		Misses:  c.misses,
		HitRate: rate,
	}
}
