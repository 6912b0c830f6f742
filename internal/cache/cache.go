package cache

import (
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache is a bounded in-memory cache with TTL, backed by an expirable LRU
type Cache[V any] struct {
	lru    *expirable.LRU[string, V]
	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a cache holding at most size items for ttl each
func New[V any](size int, ttl time.Duration) *Cache[V] {
	if size <= 0 {
		size = 128
	}
	return &Cache[V]{
		lru: expirable.NewLRU[string, V](size, nil, ttl),
	}
}

// Get retrieves a value from the cache
func (c *Cache[V]) Get(key string) (V, bool) {
	value, ok := c.lru.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return value, ok
}

// Set stores a value, evicting the least recently used item when full
func (c *Cache[V]) Set(key string, value V) {
	c.lru.Add(key, value)
}

// Delete removes a value from the cache
func (c *Cache[V]) Delete(key string) {
	c.lru.Remove(key)
}

// Clear removes all values from the cache
func (c *Cache[V]) Clear() {
	c.lru.Purge()
}

// InvalidatePrefix removes all keys with the given prefix
func (c *Cache[V]) InvalidatePrefix(prefix string) int {
	removed := 0
	for _, key := range c.lru.Keys() {
		if strings.HasPrefix(key, prefix) && c.lru.Remove(key) {
			removed++
		}
	}
	return removed
}

// Size returns the number of live items
func (c *Cache[V]) Size() int {
	return c.lru.Len()
}

// Stats contains cache statistics
type Stats struct {
	ItemCount int   `json:"item_count"`
	HitCount  int64 `json:"hit_count"`
	MissCount int64 `json:"miss_count"`
}

// Stats returns cache statistics
func (c *Cache[V]) Stats() Stats {
	return Stats{
		ItemCount: c.lru.Len(),
		HitCount:  c.hits.Load(),
		MissCount: c.misses.Load(),
	}
}
