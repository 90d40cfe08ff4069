package cache

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/garyfan1/timegate/internal/config"
)

// Compile-time check to verify that RedisCache implements Service.
var _ Service = (*RedisCache)(nil)

// RedisCache implements Service using the go-redis library.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache initializes a Redis-backed payload cache from configuration.
// It fails fast: connectivity is verified before the service starts taking
// traffic.
func NewRedisCache(ctx context.Context, cfg *config.RedisConfig) (*RedisCache, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}

	opts := &redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
		// Timeouts prevent cascading failures
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		// Connection pool settings
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		PoolTimeout:  cfg.PoolTimeout,
	}

	if cfg.TLSEnabled {
		opts.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}

	client := redis.NewClient(opts)

	initCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(initCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{client: client, ttl: cfg.EntryTTL}, nil
}

func key(ruleName string) string {
	return fmt.Sprintf("%s:%s", KeyPrefix, ruleName)
}

// SetPayload stores the payload with the configured TTL. The TTL is only a
// safety net; entries are invalidated explicitly on cancellation.
func (c *RedisCache) SetPayload(ctx context.Context, ruleName string, payload []byte) error {
	if err := c.client.Set(ctx, key(ruleName), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache payload for %q: %w", ruleName, err)
	}
	return nil
}

// GetPayload fetches the payload; a missing key is a miss, not an error.
func (c *RedisCache) GetPayload(ctx context.Context, ruleName string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key(ruleName)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cached payload for %q: %w", ruleName, err)
	}
	return val, true, nil
}

// Invalidate drops the entry.
func (c *RedisCache) Invalidate(ctx context.Context, ruleName string) error {
	if err := c.client.Del(ctx, key(ruleName)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate payload for %q: %w", ruleName, err)
	}
	return nil
}

// HealthCheck verifies the connection to the Redis server.
func (c *RedisCache) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
