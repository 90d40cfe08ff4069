// Package auth implements the access control layer: bearer token issuance
// and verification, plus write-key hashing for login.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verification failure modes. Every protected endpoint maps each of these
// to a distinct rejected-request response.
var (
	// ErrMissingToken reports an absent token header.
	ErrMissingToken = errors.New("token not provided")

	// ErrTokenExpired reports a token past its expiry claim.
	ErrTokenExpired = errors.New("token expired")

	// ErrBadSignature reports a token whose signature does not validate
	// against the server secret.
	ErrBadSignature = errors.New("invalid token signature")

	// ErrMalformedToken reports any other decode failure.
	ErrMalformedToken = errors.New("malformed token")
)

// accountClaims is the signed, time-boxed claim issued at login.
type accountClaims struct {
	Account string `json:"account"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256-signed bearer tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// TokenOption configures a Tokens instance.
type TokenOption func(*Tokens)

// WithClock overrides the wall clock. Tests use it to simulate expiry
// without sleeping.
func WithClock(now func() time.Time) TokenOption {
	return func(t *Tokens) { t.now = now }
}

// NewTokens creates a token service signing with the given secret. Tokens
// expire ttlMinutes after issuance.
func NewTokens(secret string, ttlMinutes int, opts ...TokenOption) *Tokens {
	if secret == "" {
		panic("auth: signing secret cannot be empty")
	}

	t := &Tokens{
		secret: []byte(secret),
		ttl:    time.Duration(ttlMinutes) * time.Minute,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Issue signs a new token for the account.
func (t *Tokens) Issue(accountID string) (string, error) {
	claims := accountClaims{
		Account: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(t.now().Add(t.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify validates the token and resolves the calling account identity.
// Failures map onto exactly one of the package's sentinel errors, so the
// caller inspects the result once instead of branching per decode step.
func (t *Tokens) Verify(token string) (string, error) {
	if token == "" {
		return "", ErrMissingToken
	}

	claims := &accountClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return "", ErrBadSignature
		default:
			return "", ErrMalformedToken
		}
	}

	if claims.Account == "" {
		return "", ErrMalformedToken
	}
	return claims.Account, nil
}
