// Package cache provides the payload read cache. After a rule is scheduled
// its stored payload is written here, so event lookups can usually skip the
// substrate round-trip. The substrate remains the source of truth: a miss
// falls back to it, and cache failures are never fatal.
package cache

import "context"

// KeyPrefix is the namespace used for payload keys in Redis.
// Example: "payload:202601010930ABC123"
const KeyPrefix = "payload"

// Service defines the interface for payload cache operations.
// This interface allows for dependency injection and mocking in tests.
type Service interface {
	// SetPayload stores the rule's target input verbatim.
	SetPayload(ctx context.Context, ruleName string, payload []byte) error

	// GetPayload returns the stored payload and whether it was present.
	GetPayload(ctx context.Context, ruleName string) ([]byte, bool, error)

	// Invalidate drops the entry after a cancellation.
	Invalidate(ctx context.Context, ruleName string) error

	// HealthCheck verifies the backing store is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases the backing store.
	Close() error
}
