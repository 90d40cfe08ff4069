package config

import (
	"fmt"
	"time"
)

// RedisConfig contains settings for the payload cache.
// The cache is optional: when not configured, the service falls back to the
// in-memory cache and reads through to the substrate.
type RedisConfig struct {
	Host     string `envconfig:"HOST"`
	Port     string `envconfig:"PORT" default:"6379"`
	Password string `envconfig:"PASSWORD"`
	DB       int    `envconfig:"DB" default:"0" validate:"min=0,max=15"`

	TLSEnabled bool `envconfig:"TLS_ENABLED" default:"false"`

	// Timeouts
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"3s"`

	// Connection Pool
	PoolSize     int           `envconfig:"POOL_SIZE" default:"10" validate:"min=1"`
	MinIdleConns int           `envconfig:"MIN_IDLE_CONNS" default:"2" validate:"min=0"`
	PoolTimeout  time.Duration `envconfig:"POOL_TIMEOUT" default:"4s"`

	// Payload entries expire on their own as a safety net; the scheduler
	// invalidates explicitly on cancellation.
	EntryTTL time.Duration `envconfig:"ENTRY_TTL" default:"24h"`
}

// Address returns the host:port pair for the redis client.
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Validate checks if the redis configuration is valid.
func (c *RedisConfig) Validate(stage string) error {
	// Not configured at all is fine; the in-memory cache takes over.
	if !c.IsConfigured() {
		return nil
	}

	if err := validateHost(c.Host, "redis"); err != nil {
		return err
	}

	if err := validatePort(c.Port, "redis"); err != nil {
		return err
	}

	if stage == StageProduction {
		if c.Password == "" {
			return fmt.Errorf("redis password is required in production stage")
		}
		if !c.TLSEnabled {
			return fmt.Errorf("redis TLS must be enabled in production stage")
		}
	}

	return nil
}

// IsConfigured returns true if redis has enough configuration to connect.
func (c *RedisConfig) IsConfigured() bool {
	return c.Host != ""
}
