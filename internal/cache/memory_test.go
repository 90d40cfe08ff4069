package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyfan1/timegate/internal/cache"
)

func newMemory(t *testing.T) cache.Service {
	t.Helper()

	c, err := cache.NewMemoryCache(64, time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestMemoryCachePayloadRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newMemory(t)

	payload := []byte(`{"target_info":{"callback":"https://example.com"},"data":{}}`)
	require.NoError(t, c.SetPayload(ctx, "202601010930ABC123", payload))

	got, ok, err := c.GetPayload(ctx, "202601010930ABC123")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, payload, got)
}

func TestMemoryCacheMiss(t *testing.T) {
	ctx := context.Background()
	c := newMemory(t)

	_, ok, err := c.GetPayload(ctx, "202601010930MISSIN")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCacheInvalidate(t *testing.T) {
	ctx := context.Background()
	c := newMemory(t)

	require.NoError(t, c.SetPayload(ctx, "202601010930ABC123", []byte("{}")))
	require.NoError(t, c.Invalidate(ctx, "202601010930ABC123"))

	_, ok, err := c.GetPayload(ctx, "202601010930ABC123")
	require.NoError(t, err)
	assert.False(t, ok)

	// Invalidating an absent entry is a no-op.
	assert.NoError(t, c.Invalidate(ctx, "202601010930ABC123"))
}

func TestMemoryCacheOverwrite(t *testing.T) {
	ctx := context.Background()
	c := newMemory(t)

	require.NoError(t, c.SetPayload(ctx, "202601010930ABC123", []byte("old")))
	require.NoError(t, c.SetPayload(ctx, "202601010930ABC123", []byte("new")))

	got, ok, err := c.GetPayload(ctx, "202601010930ABC123")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("new"), got)
}

func TestMemoryCacheHealthCheck(t *testing.T) {
	c := newMemory(t)
	assert.NoError(t, c.HealthCheck(context.Background()))
}
