// Package executor implements the Tool Executor (spec §4.9): cached,
// deduplicated, retried tool calls. Execute/ExecuteParallel's shape —
// group steps, run a semaphore-style parallel batch or a sequential
// loop, collect per-step results — follows the teacher's
// orchestration.PlanExecutor.Execute (pkg/orchestration/executor.go);
// the cache-then-in-flight-dedup-then-retry ordering is this package's
// own rendering of spec §4.9's algorithm, since the teacher has no
// caching layer of its own to ground on.
package executor

import (
	"sync"
	"time"
)

// Cache is the interface the executor's cache layer must satisfy,
// implemented by both the default in-memory cache and the optional
// Redis-backed one so either can be swapped in without touching the
// retry/dedup logic.
type Cache interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{}, ttl time.Duration)
	Cleanup() int
}

type cacheEntry struct {
	value     interface{}
	expiresAt time.Time
}

// InMemoryCache is the default Cache: an RWMutex-guarded map with
// expiry-on-read and an explicit Cleanup sweep.
type InMemoryCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// NewInMemoryCache builds an empty InMemoryCache.
func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{entries: make(map[string]cacheEntry)}
}

// Get returns the cached value for key if present and unexpired.
func (c *InMemoryCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

// Set stores value under key with the given TTL.
func (c *InMemoryCache) Set(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value, expiresAt: time.Now().Add(ttl)}
}

// Cleanup removes every expired entry and returns how many were
// removed (spec §4.9's cleanupCache).
func (c *InMemoryCache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}
