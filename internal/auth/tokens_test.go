package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyfan1/timegate/internal/auth"
)

const testSecret = "unit-test-signing-secret"

func TestIssueAndVerify(t *testing.T) {
	tokens := auth.NewTokens(testSecret, 60)

	signed, err := tokens.Issue("tenant-a")
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	accountID, err := tokens.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "tenant-a", accountID)
}

func TestVerifyExpiredToken(t *testing.T) {
	issuedAt := time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)
	clock := issuedAt

	// The injected clock simulates expiry without sleeping.
	tokens := auth.NewTokens(testSecret, 1, auth.WithClock(func() time.Time { return clock }))

	signed, err := tokens.Issue("tenant-a")
	require.NoError(t, err)

	t.Run("Should verify within the ttl", func(t *testing.T) {
		clock = issuedAt.Add(30 * time.Second)
		_, err := tokens.Verify(signed)
		assert.NoError(t, err)
	})

	t.Run("Should reject after the ttl", func(t *testing.T) {
		clock = issuedAt.Add(2 * time.Minute)
		_, err := tokens.Verify(signed)
		assert.ErrorIs(t, err, auth.ErrTokenExpired)
	})
}

func TestVerifyFailureModes(t *testing.T) {
	tokens := auth.NewTokens(testSecret, 60)

	signed, err := tokens.Issue("tenant-a")
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{
			name:    "Should reject an empty token",
			token:   "",
			wantErr: auth.ErrMissingToken,
		},
		{
			name:    "Should reject garbage",
			token:   "not.a.token",
			wantErr: auth.ErrMalformedToken,
		},
		{
			name:    "Should reject a tampered signature",
			token:   signed[:len(signed)-2] + "xx",
			wantErr: auth.ErrBadSignature,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tokens.Verify(tt.token)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("Should reject a token signed with another secret", func(t *testing.T) {
		other := auth.NewTokens("some-other-secret", 60)
		foreign, err := other.Issue("tenant-a")
		require.NoError(t, err)

		_, err = tokens.Verify(foreign)
		assert.ErrorIs(t, err, auth.ErrBadSignature)
	})
}

func TestNewTokensRequiresSecret(t *testing.T) {
	assert.Panics(t, func() { auth.NewTokens("", 60) })
}
