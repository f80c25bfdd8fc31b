// Package cache adapts the rag.Cache port: a Valkey-backed implementation
// generalizing the queue client's connection idiom to plain GET/SET/EXPIRE
// calls, and an in-memory fallback for local dev and tests.
package cache

import (
	"context"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/ragforge/ragcore/internal/domain/rag"
)

// ValkeyCache is a rag.Cache backed by a Valkey connection.
type ValkeyCache struct {
	client valkey.Client
	prefix string
}

// NewValkeyCache constructs a Valkey-backed cache. Keys are namespaced under
// prefix to share a Valkey instance with the job queue.
func NewValkeyCache(client valkey.Client, prefix string) *ValkeyCache {
	if prefix == "" {
		prefix = "rag:cache:"
	}
	return &ValkeyCache{client: client, prefix: prefix}
}

// Get fetches value for key.
func (c *ValkeyCache) Get(ctx context.Context, key string) (string, bool, error) {
	resp := c.client.Do(ctx, c.client.B().Get().Key(c.prefix+key).Build())
	value, err := resp.ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

// Set writes value for key with the given TTL (zero means no expiry).
func (c *ValkeyCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	builder := c.client.B().Set().Key(c.prefix + key).Value(value)
	var cmd valkey.Completed
	if ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return c.client.Do(ctx, cmd).Error()
}

var _ rag.Cache = (*ValkeyCache)(nil)
