package cache

import (
	"context"
	"time"

	"github.com/maypok86/otter"
)

// Compile-time check to verify that MemoryCache implements Service.
var _ Service = (*MemoryCache)(nil)

// MemoryCache is the in-process payload cache used when Redis is not
// configured (dev, tests, single-instance deployments). Backed by otter's
// contention-free S3-FIFO cache.
type MemoryCache struct {
	store otter.Cache[string, []byte]
}

// NewMemoryCache initializes the in-memory cache with strict limits.
// capacity caps the number of entries (hard cap to prevent OOM); ttl
// bounds staleness the same way the Redis entry TTL does.
func NewMemoryCache(capacity int, ttl time.Duration) (*MemoryCache, error) {
	store, err := otter.MustBuilder[string, []byte](capacity).
		WithTTL(ttl).
		Build()
	if err != nil {
		return nil, err
	}

	return &MemoryCache{store: store}, nil
}

// SetPayload stores the payload.
func (c *MemoryCache) SetPayload(_ context.Context, ruleName string, payload []byte) error {
	c.store.Set(ruleName, payload)
	return nil
}

// GetPayload fetches the payload; absence is a miss, not an error.
func (c *MemoryCache) GetPayload(_ context.Context, ruleName string) ([]byte, bool, error) {
	payload, ok := c.store.Get(ruleName)
	return payload, ok, nil
}

// Invalidate drops the entry.
func (c *MemoryCache) Invalidate(_ context.Context, ruleName string) error {
	c.store.Delete(ruleName)
	return nil
}

// HealthCheck always succeeds for the in-process cache.
func (c *MemoryCache) HealthCheck(context.Context) error {
	return nil
}

// Close shuts down the cache and its background cleanup goroutines.
func (c *MemoryCache) Close() error {
	c.store.Close()
	return nil
}
