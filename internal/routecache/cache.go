// Package routecache memoizes routing decisions for a bounded time.
//
// Entries are keyed by (worker, target) and indexed by target id so that a
// target mutation drops exactly the entries that reference it. Ids that are
// prefixes of one another ("bloom_1", "bloom_10") never collide.
//
// # Thread Safety
//
// Cache is safe for concurrent use. Reads that find an expired entry take the
// write lock to evict it.
package routecache

import (
	"sync"
	"time"

	"github.com/dawnworks/tracer/internal/logging"
	"github.com/dawnworks/tracer/internal/tracer"
)

// Default settings.
const (
	DefaultTTL              = 5 * time.Minute
	DefaultCleanupThreshold = 100
)

// Key identifies a cached routing decision.
type Key struct {
	Worker   tracer.WorkerType
	TargetID string
}

type entry struct {
	route    *tracer.Route
	cachedAt time.Time
}

// Cache is a TTL memo store for routes.
type Cache struct {
	mu        sync.RWMutex
	entries   map[Key]entry
	byTarget  map[string]map[Key]struct{} // targetID -> keys referencing it
	gens      map[string]uint64           // targetID -> invalidation count
	ttl       time.Duration
	threshold int
	now       func() time.Time
	logger    *logging.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets the entry lifetime. Values above DefaultTTL are capped.
func WithTTL(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.ttl = min(d, DefaultTTL)
		}
	}
}

// WithCleanupThreshold sets the size above which Put purges expired entries.
func WithCleanupThreshold(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.threshold = n
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates an empty Cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:   make(map[Key]entry),
		byTarget:  make(map[string]map[Key]struct{}),
		gens:      make(map[string]uint64),
		ttl:       DefaultTTL,
		threshold: DefaultCleanupThreshold,
		now:       time.Now,
		logger:    logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the configured entry lifetime.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns a copy of the cached route for key. An expired entry is evicted
// and reported as a miss.
func (c *Cache) Get(key Key) (*tracer.Route, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	now := c.now()
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if now.Sub(e.cachedAt) < c.ttl {
		return e.route.Clone(), true
	}

	c.mu.Lock()
	// Re-check: a concurrent Put may have refreshed the entry.
	if cur, ok := c.entries[key]; ok && c.now().Sub(cur.cachedAt) >= c.ttl {
		c.deleteLocked(key)
	}
	c.mu.Unlock()
	return nil, false
}

// Generation returns the invalidation count of targetID. A caller that reads
// the target after taking the generation can store its result with
// PutIfGeneration and be sure it is not based on a replaced target.
func (c *Cache) Generation(targetID string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gens[targetID]
}

// Put stores a copy of route under key.
func (c *Cache) Put(key Key, route *tracer.Route) {
	if route == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.putLocked(key, route)
}

// PutIfGeneration stores route only if the target has not been invalidated
// since gen was taken. It reports whether the route was stored.
func (c *Cache) PutIfGeneration(key Key, route *tracer.Route, gen uint64) bool {
	if route == nil {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gens[key.TargetID] != gen {
		return false
	}
	c.putLocked(key, route)
	return true
}

func (c *Cache) putLocked(key Key, route *tracer.Route) {
	c.entries[key] = entry{route: route.Clone(), cachedAt: c.now()}
	keys, ok := c.byTarget[key.TargetID]
	if !ok {
		keys = make(map[Key]struct{})
		c.byTarget[key.TargetID] = keys
	}
	keys[key] = struct{}{}

	if len(c.entries) > c.threshold {
		if n := c.purgeLocked(); n > 0 {
			c.logger.Debug("purged expired routes", "count", n, "remaining", len(c.entries))
		}
	}
}

// Invalidate drops every entry referencing targetID and returns how many were
// removed. It also advances the target's generation.
func (c *Cache) Invalidate(targetID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gens[targetID]++
	keys := c.byTarget[targetID]
	for key := range keys {
		delete(c.entries, key)
	}
	delete(c.byTarget, targetID)
	return len(keys)
}

// Purge removes all expired entries and returns how many were removed.
func (c *Cache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.purgeLocked()
}

func (c *Cache) purgeLocked() int {
	now := c.now()
	removed := 0
	for key, e := range c.entries {
		if now.Sub(e.cachedAt) >= c.ttl {
			c.deleteLocked(key)
			removed++
		}
	}
	return removed
}

func (c *Cache) deleteLocked(key Key) {
	delete(c.entries, key)
	if keys, ok := c.byTarget[key.TargetID]; ok {
		delete(keys, key)
		if len(keys) == 0 {
			delete(c.byTarget, key.TargetID)
		}
	}
}

// Len returns the number of stored entries, including expired ones not yet evicted.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[Key]entry)
	c.byTarget = make(map[string]map[Key]struct{})
}
