// Package memo provides the memoization table used by every query in
// the incremental database. Each query family owns one Cache keyed by
// file id (or module name) and stores the query's last computed result.
package memo

import (
	"sync"
)

// Statistics is a point-in-time snapshot of cache behavior. Hit and
// miss counters are only collected in diagnostic builds (build tag
// "diagnostics"); release builds report zeros.
type Statistics struct {
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Entries int    `json:"entries"`
}

// Cache is a thread-safe memo table. Concurrent readers do not block
// each other.
//
// GetOrCompute runs the compute function outside the cache lock, so two
// goroutines missing on the same key at the same time may both compute;
// the first result to be stored wins and the other is discarded. Query
// results are deterministic for a given revision, so redundant work is
// wasted effort, never an inconsistency.
type Cache[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V
	stats cacheStats
}

// NewCache creates an empty cache
func NewCache[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{
		items: make(map[K]V),
	}
}

// TryGet returns the cached value for key without computing anything
func (c *Cache[K, V]) TryGet(key K) (V, bool) {
	c.mu.RLock()
	value, ok := c.items[key]
	c.mu.RUnlock()

	if ok {
		c.stats.hit()
	} else {
		c.stats.miss()
	}
	return value, ok
}

// GetOrCompute returns the cached value for key, running compute and
// storing its result on a miss. If another goroutine stored a value for
// key while compute was running, that value is returned instead.
func (c *Cache[K, V]) GetOrCompute(key K, compute func() V) V {
	c.mu.RLock()
	value, ok := c.items[key]
	c.mu.RUnlock()
	if ok {
		c.stats.hit()
		return value
	}
	c.stats.miss()

	computed := compute()

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.items[key]; ok {
		return existing
	}
	c.items[key] = computed
	return computed
}

// Set stores value for key, overwriting any previous entry
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	c.items[key] = value
	c.mu.Unlock()
}

// Remove deletes the entry for key and reports whether one existed
func (c *Cache[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[key]; !ok {
		return false
	}
	delete(c.items, key)
	return true
}

// Clear removes all entries. Hit and miss counters are not reset.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	c.items = make(map[K]V)
	c.mu.Unlock()
}

// ForEach calls fn for every cached entry until fn returns false. The
// iteration order is unspecified and fn must not call back into the
// cache.
func (c *Cache[K, V]) ForEach(fn func(K, V) bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for k, v := range c.items {
		if !fn(k, v) {
			return
		}
	}
}

// Len returns the number of cached entries
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Statistics returns a snapshot of cache counters. The second return
// value reports whether counters are being collected in this build.
func (c *Cache[K, V]) Statistics() (Statistics, bool) {
	stats, collected := c.stats.snapshot()
	stats.Entries = c.Len()
	return stats, collected
}
