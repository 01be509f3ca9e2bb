package rates

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// DefaultCacheCapacity bounds the in-process rate cache.
const DefaultCacheCapacity = 500

// MemoryCache is a TTL-bound, LRU-evicted cache in front of another source.
// It is safe for concurrent pipeline runs; a duplicate fetch under
// contention is tolerable, so no per-key locking is held across fetches.
type MemoryCache struct {
	source   Source
	capacity int
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List
}

type cacheEntry struct {
	key  string
	rate Rate
}

// NewMemoryCache wraps source with a bounded cache. A capacity below one
// falls back to the default.
func NewMemoryCache(source Source, capacity int) *MemoryCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &MemoryCache{
		source:   source,
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Rate returns a fresh cached quote or fetches through to the underlying
// source, storing the result.
func (c *MemoryCache) Rate(ctx context.Context, base, quote string) (Rate, error) {
	key := PairKey(base, quote)
	now := c.clock()

	c.mu.Lock()
	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*cacheEntry)
		if !entry.rate.Expired(now) {
			c.order.MoveToFront(elem)
			c.mu.Unlock()
			recordCacheLookup("memory", "hit")
			return entry.rate, nil
		}
		c.order.Remove(elem)
		delete(c.entries, key)
	}
	c.mu.Unlock()
	recordCacheLookup("memory", "miss")

	rate, err := c.source.Rate(ctx, base, quote)
	if err != nil {
		return Rate{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[key]; ok {
		// Concurrent fetch won the race; keep the newer quote.
		elem.Value.(*cacheEntry).rate = rate
		c.order.MoveToFront(elem)
		return rate, nil
	}
	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, rate: rate})
	for len(c.entries) > c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
	return rate, nil
}

// Len reports the number of cached pairs.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *MemoryCache) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}
