package cache

import (
	"sync"
	"time"

	"github.com/kafkaorders/pipeline/internal/domain"
)

// DedupService performs an atomic put-if-absent over the dedup key
// (tradingPartnerName + "::" + businessUnitName), preventing concurrent or
// redelivered events for the same scope from processing twice within the
// cache's TTL.
type DedupService struct {
	cache *TTLCache[time.Time]
	mu    sync.Mutex
}

// NewDedupService builds the dedup cache with the given bound and TTL.
func NewDedupService(maxSize int, ttl time.Duration) *DedupService {
	return &DedupService{cache: New[time.Time]("dedup", maxSize, ttl)}
}

// TryAcquire returns true iff the event's dedup key was absent, claiming it
// for the remainder of the TTL. Concurrent callers racing on the same key
// see exactly one true.
func (d *DedupService) TryAcquire(e domain.Event) bool {
	key := e.DedupKey()

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.cache.Get(key); exists {
		return false
	}
	d.cache.Put(key, time.Now())
	return true
}

// Stats exposes the underlying cache's hit/miss/size counters.
func (d *DedupService) Stats() Stats {
	return d.cache.Stats()
}
