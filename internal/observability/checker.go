// Package observability hosts the admin server (health probes + metrics)
// and the prometheus metric definitions shared by the binaries.
package observability

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/garyfan1/timegate/internal/cache"
)

// Checker verifies one dependency for the readiness probe.
type Checker interface {
	// Name identifies the dependency in probe responses.
	Name() string

	// Check returns nil when the dependency is usable.
	Check(ctx context.Context) error
}

// PostgresChecker reports database connectivity.
type PostgresChecker struct {
	Pool *pgxpool.Pool
}

func (c *PostgresChecker) Name() string { return "postgres" }

func (c *PostgresChecker) Check(ctx context.Context) error {
	return c.Pool.Ping(ctx)
}

// CacheChecker reports payload cache connectivity.
type CacheChecker struct {
	Cache cache.Service
}

func (c *CacheChecker) Name() string { return "cache" }

func (c *CacheChecker) Check(ctx context.Context) error {
	return c.Cache.HealthCheck(ctx)
}
