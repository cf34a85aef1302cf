package authstate

import (
	"context"
	"sync"
	"time"
)

// TTLCache is a small time-bounded map: entries older than the TTL are
// treated as absent and only removed by overwrite or explicit delete.
// Safe for concurrent use.
type TTLCache[V any] struct {
	mu      sync.RWMutex
	entries map[string]ttlEntry[V]
	ttl     time.Duration
	now     func() time.Time
}

type ttlEntry[V any] struct {
	value    V
	storedAt time.Time
}

// TTLCacheOption customizes cache construction.
type TTLCacheOption[V any] func(*TTLCache[V])

// WithCacheClock injects a custom clock (useful for tests).
func WithCacheClock[V any](clock func() time.Time) TTLCacheOption[V] {
	return func(c *TTLCache[V]) {
		if clock != nil {
			c.now = clock
		}
	}
}

// NewTTLCache returns a cache whose entries expire after ttl.
func NewTTLCache[V any](ttl time.Duration, opts ...TTLCacheOption[V]) *TTLCache[V] {
	if ttl <= 0 {
		ttl = DefaultProfileCacheTTL
	}

	cache := &TTLCache[V]{
		entries: make(map[string]ttlEntry[V]),
		ttl:     ttl,
		now:     time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(cache)
		}
	}

	return cache
}

// Get returns the value for key if a non-expired entry exists.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	var zero V
	if !exists {
		return zero, false
	}

	if c.now().Sub(entry.storedAt) >= c.ttl {
		return zero, false
	}

	return entry.value, true
}

// Set stores the value, overwriting any prior entry and resetting its
// timestamp.
func (c *TTLCache[V]) Set(key string, value V) {
	c.mu.Lock()
	c.entries[key] = ttlEntry[V]{value: value, storedAt: c.now()}
	c.mu.Unlock()
}

// Delete removes the entry for key.
func (c *TTLCache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len counts entries including expired ones awaiting overwrite.
func (c *TTLCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// MemoryProfileCache is the in-process ProfileCache used by default.
type MemoryProfileCache struct {
	cache *TTLCache[*Profile]
}

var _ ProfileCache = (*MemoryProfileCache)(nil)

// NewMemoryProfileCache returns a ProfileCache backed by a TTLCache.
func NewMemoryProfileCache(ttl time.Duration, opts ...TTLCacheOption[*Profile]) *MemoryProfileCache {
	return &MemoryProfileCache{cache: NewTTLCache[*Profile](ttl, opts...)}
}

func (m *MemoryProfileCache) Get(_ context.Context, key string) (*Profile, bool, error) {
	profile, ok := m.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	return profile.Clone(), true, nil
}

func (m *MemoryProfileCache) Set(_ context.Context, key string, profile *Profile) error {
	m.cache.Set(key, profile.Clone())
	return nil
}

func (m *MemoryProfileCache) Delete(_ context.Context, key string) error {
	m.cache.Delete(key)
	return nil
}
