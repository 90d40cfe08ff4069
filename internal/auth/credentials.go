package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/garyfan1/timegate/internal/ident"
)

// ErrBadCredentials reports a write key that does not match the stored hash.
var ErrBadCredentials = errors.New("write key mismatch")

// NewWriteKey generates the caller secret handed out once at registration.
func NewWriteKey() (string, error) {
	return ident.Generate(ident.WriteKeyLength)
}

// HashWriteKey produces the salted bcrypt hash persisted on the account.
func HashWriteKey(key string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash write key: %w", err)
	}
	return string(hash), nil
}

// CheckWriteKey compares a submitted write key against the stored hash.
// bcrypt's comparison is constant-time.
func CheckWriteKey(key, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)); err != nil {
		return ErrBadCredentials
	}
	return nil
}
