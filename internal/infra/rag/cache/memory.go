package cache

import (
	"context"
	"sync"
	"time"

	"github.com/ragforge/ragcore/internal/domain/rag"
)

type entry struct {
	value     string
	expiresAt time.Time
}

// MemoryCache is an in-process rag.Cache used for local dev and tests.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemoryCache constructs a MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]entry), now: time.Now}
}

// Get fetches value for key, treating an expired entry as a miss.
func (c *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return "", false, nil
	}
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		delete(c.entries, key)
		return "", false, nil
	}
	return e.value, true, nil
}

// Set writes value for key with the given TTL (zero means no expiry).
func (c *MemoryCache) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.now().Add(ttl)
	}
	c.entries[key] = entry{value: value, expiresAt: expiresAt}
	return nil
}

var _ rag.Cache = (*MemoryCache)(nil)
