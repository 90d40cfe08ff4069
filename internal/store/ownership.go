package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/garyfan1/timegate/internal/validation"
)

// Compile-time check to verify that PostgresOwnerships implements OwnershipRepository.
var _ OwnershipRepository = (*PostgresOwnerships)(nil)

// OwnershipRepository is the durable account-to-rule index. It is the sole
// source of truth for "does this account own this rule": the substrate has
// no notion of per-account ownership, so every read and cancel is gated
// through this index.
type OwnershipRepository interface {
	// Record marks the rule as owned by the account. Recording the same
	// pair twice is a no-op.
	Record(ctx context.Context, accountID, eventID string) error

	// Owns reports whether the account owns the rule. A missing record
	// yields ErrNotOwned.
	Owns(ctx context.Context, accountID, eventID string) error

	// Delete removes the ownership record after a cancellation.
	Delete(ctx context.Context, accountID, eventID string) error

	// ListByAccount enumerates the rule identifiers owned by the account,
	// ordered by identifier (which sorts by trigger time).
	ListByAccount(ctx context.Context, accountID string) ([]string, error)
}

// PostgresOwnerships is the OwnershipRepository implementation backed by
// PostgreSQL.
type PostgresOwnerships struct {
	db    *pgxpool.Pool
	table string
}

// NewPostgresOwnerships creates a new repository instance for the given stage.
func NewPostgresOwnerships(db *pgxpool.Pool, stage string) *PostgresOwnerships {
	validation.AssertNotNil(db, "database pool")
	_, ownerships := tableNames(stage)
	return &PostgresOwnerships{db: db, table: ownerships}
}

// Record inserts the ownership pair.
func (s *PostgresOwnerships) Record(ctx context.Context, accountID, eventID string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (account_id, event_id)
		VALUES ($1, $2)
	`, s.table)

	if _, err := s.db.Exec(ctx, query, accountID, eventID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			// Re-recording the same pair is harmless.
			return nil
		}
		return fmt.Errorf("failed to record ownership: %w", err)
	}
	return nil
}

// Owns checks for the ownership pair.
func (s *PostgresOwnerships) Owns(ctx context.Context, accountID, eventID string) error {
	query := fmt.Sprintf(`
		SELECT EXISTS (SELECT 1 FROM %s WHERE account_id = $1 AND event_id = $2)
	`, s.table)

	var exists bool
	if err := s.db.QueryRow(ctx, query, accountID, eventID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check ownership: %w", err)
	}
	if !exists {
		return ErrNotOwned
	}
	return nil
}

// Delete removes the ownership pair. Deleting a missing pair is not an
// error: cleanup must stay idempotent.
func (s *PostgresOwnerships) Delete(ctx context.Context, accountID, eventID string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s WHERE account_id = $1 AND event_id = $2
	`, s.table)

	if _, err := s.db.Exec(ctx, query, accountID, eventID); err != nil {
		return fmt.Errorf("failed to delete ownership: %w", err)
	}
	return nil
}

// ListByAccount enumerates the rules owned by one account.
func (s *PostgresOwnerships) ListByAccount(ctx context.Context, accountID string) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT event_id FROM %s WHERE account_id = $1 ORDER BY event_id
	`, s.table)

	rows, err := s.db.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ownerships: %w", err)
	}
	defer rows.Close()

	var events []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan ownership row: %w", err)
		}
		events = append(events, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return events, nil
}
