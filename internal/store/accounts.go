package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/garyfan1/timegate/internal/validation"
)

// Compile-time check to verify that PostgresAccounts implements AccountRepository.
var _ AccountRepository = (*PostgresAccounts)(nil)

// Account is a registered tenant. The write key is only ever persisted as a
// salted bcrypt hash; the plaintext is returned once, at registration.
type Account struct {
	ID           string    `db:"account_id"`
	WriteKeyHash string    `db:"write_key_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

// AccountRepository defines the interface for account persistence.
// Using an interface allows for dependency injection and mocking in tests.
type AccountRepository interface {
	// CreateAccount inserts a new account. Returns ErrAccountExists if the
	// id is taken; the stored hash is never overwritten.
	CreateAccount(ctx context.Context, a *Account) error

	// GetAccount fetches an account by id. Returns ErrAccountNotFound for
	// unknown ids.
	GetAccount(ctx context.Context, id string) (*Account, error)
}

// PostgresAccounts is the AccountRepository implementation backed by
// PostgreSQL. Table names carry the stage suffix.
type PostgresAccounts struct {
	db    *pgxpool.Pool
	table string
}

// NewPostgresAccounts creates a new repository instance for the given stage.
func NewPostgresAccounts(db *pgxpool.Pool, stage string) *PostgresAccounts {
	validation.AssertNotNil(db, "database pool")
	accounts, _ := tableNames(stage)
	return &PostgresAccounts{db: db, table: accounts}
}

// CreateAccount inserts a new account row.
func (s *PostgresAccounts) CreateAccount(ctx context.Context, a *Account) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (account_id, write_key_hash)
		VALUES ($1, $2)
		RETURNING created_at
	`, s.table)

	err := s.db.QueryRow(ctx, query, a.ID, a.WriteKeyHash).Scan(&a.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrAccountExists
		}
		return fmt.Errorf("failed to insert account: %w", err)
	}

	return nil
}

// GetAccount fetches an account row by id.
func (s *PostgresAccounts) GetAccount(ctx context.Context, id string) (*Account, error) {
	query := fmt.Sprintf(`
		SELECT account_id, write_key_hash, created_at
		FROM %s
		WHERE account_id = $1
	`, s.table)

	var a Account
	err := s.db.QueryRow(ctx, query, id).Scan(&a.ID, &a.WriteKeyHash, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to fetch account: %w", err)
	}

	return &a, nil
}
