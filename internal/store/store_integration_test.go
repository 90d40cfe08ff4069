//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyfan1/timegate/internal/store"
	"github.com/garyfan1/timegate/internal/testsupport"
)

const testStage = "dev"

// setupPostgres spins up the container once per test and applies the
// stage-suffixed schema.
func setupPostgres(t *testing.T) *testsupport.PostgresContainer {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg, err := testsupport.StartPostgresContainer(ctx, testStage)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pg.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})
	return pg
}

func TestPostgresAccounts(t *testing.T) {
	pg := setupPostgres(t)
	repo := store.NewPostgresAccounts(pg.DB, testStage)
	ctx := context.Background()

	t.Run("Should create and fetch an account", func(t *testing.T) {
		err := repo.CreateAccount(ctx, &store.Account{ID: "tenant-a", WriteKeyHash: "hash-a"})
		require.NoError(t, err)

		got, err := repo.GetAccount(ctx, "tenant-a")
		require.NoError(t, err)
		assert.Equal(t, "tenant-a", got.ID)
		assert.Equal(t, "hash-a", got.WriteKeyHash)
		assert.False(t, got.CreatedAt.IsZero())
	})

	t.Run("Should reject a duplicate account id", func(t *testing.T) {
		err := repo.CreateAccount(ctx, &store.Account{ID: "tenant-a", WriteKeyHash: "hash-b"})
		require.ErrorIs(t, err, store.ErrAccountExists)

		// The losing registration must not overwrite the stored hash.
		got, err := repo.GetAccount(ctx, "tenant-a")
		require.NoError(t, err)
		assert.Equal(t, "hash-a", got.WriteKeyHash)
	})

	t.Run("Should report an unknown account", func(t *testing.T) {
		_, err := repo.GetAccount(ctx, "tenant-x")
		assert.ErrorIs(t, err, store.ErrAccountNotFound)
	})
}

func TestPostgresOwnerships(t *testing.T) {
	pg := setupPostgres(t)
	repo := store.NewPostgresOwnerships(pg.DB, testStage)
	ctx := context.Background()

	t.Run("Should record and verify ownership", func(t *testing.T) {
		require.NoError(t, repo.Record(ctx, "tenant-a", "202601010930AAAAAA"))
		assert.NoError(t, repo.Owns(ctx, "tenant-a", "202601010930AAAAAA"))
	})

	t.Run("Should be idempotent on duplicate records", func(t *testing.T) {
		assert.NoError(t, repo.Record(ctx, "tenant-a", "202601010930AAAAAA"))
	})

	t.Run("Should not leak ownership across accounts", func(t *testing.T) {
		err := repo.Owns(ctx, "tenant-b", "202601010930AAAAAA")
		assert.ErrorIs(t, err, store.ErrNotOwned)
	})

	t.Run("Should report an unknown rule", func(t *testing.T) {
		err := repo.Owns(ctx, "tenant-a", "202601010930ZZZZZZ")
		assert.ErrorIs(t, err, store.ErrNotOwned)
	})

	t.Run("Should list only the account's rules in order", func(t *testing.T) {
		require.NoError(t, repo.Record(ctx, "tenant-a", "202601020930BBBBBB"))
		require.NoError(t, repo.Record(ctx, "tenant-b", "202601010930CCCCCC"))

		events, err := repo.ListByAccount(ctx, "tenant-a")
		require.NoError(t, err)
		assert.Equal(t, []string{"202601010930AAAAAA", "202601020930BBBBBB"}, events)
	})

	t.Run("Should delete an ownership record", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, "tenant-a", "202601010930AAAAAA"))
		assert.ErrorIs(t, repo.Owns(ctx, "tenant-a", "202601010930AAAAAA"), store.ErrNotOwned)
	})

	t.Run("Should tolerate deleting an absent record", func(t *testing.T) {
		assert.NoError(t, repo.Delete(ctx, "tenant-a", "202601010930AAAAAA"))
	})

	t.Run("Should return an empty list for a fresh account", func(t *testing.T) {
		events, err := repo.ListByAccount(ctx, "tenant-z")
		require.NoError(t, err)
		assert.Empty(t, events)
	})
}
