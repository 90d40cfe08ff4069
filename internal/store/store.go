// Package store provides the data access layer for the two durable tables:
// accounts and the ownership index that maps accounts to the rules they
// created. It handles all direct interactions with PostgreSQL using pgx.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Typed errors returned by the repositories.
var (
	// ErrAccountExists reports a registration against a taken account id.
	ErrAccountExists = errors.New("account id taken")

	// ErrAccountNotFound reports a lookup for an unknown account.
	ErrAccountNotFound = errors.New("account not found")

	// ErrNotOwned reports a missing ownership record. The caller cannot
	// tell an unowned rule from a nonexistent one, on purpose.
	ErrNotOwned = errors.New("ownership record not found")
)

// uniqueViolation is the PostgreSQL error code for duplicate keys.
const uniqueViolation = "23505"

// tableNames derives the stage-suffixed table names, so multiple stages can
// share one database instance (dev and staging commonly do).
func tableNames(stage string) (accounts, ownerships string) {
	return "accounts_" + stage, "account_events_" + stage
}

// EnsureSchema provisions the durable tables for the given stage if they do
// not exist yet. It runs once at boot, mirroring the on-demand table
// creation the service has always done.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool, stage string) error {
	accounts, ownerships := tableNames(stage)

	ddl := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				account_id     TEXT PRIMARY KEY,
				write_key_hash TEXT NOT NULL,
				created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
			)`, accounts),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				account_id TEXT NOT NULL,
				event_id   TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				PRIMARY KEY (account_id, event_id)
			)`, ownerships),
	}

	for _, stmt := range ddl {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to provision schema: %w", err)
		}
	}
	return nil
}
