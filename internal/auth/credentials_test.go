package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/garyfan1/timegate/internal/auth"
	"github.com/garyfan1/timegate/internal/ident"
)

func TestNewWriteKey(t *testing.T) {
	key, err := auth.NewWriteKey()
	require.NoError(t, err)

	assert.Len(t, key, ident.WriteKeyLength)
	for _, c := range key {
		assert.Contains(t, ident.Alphabet, string(c))
	}
}

func TestWriteKeyHashing(t *testing.T) {
	key, err := auth.NewWriteKey()
	require.NoError(t, err)

	hash, err := auth.HashWriteKey(key, bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEqual(t, key, hash)

	t.Run("Should accept the original key", func(t *testing.T) {
		assert.NoError(t, auth.CheckWriteKey(key, hash))
	})

	t.Run("Should reject a different key", func(t *testing.T) {
		err := auth.CheckWriteKey("AAAAAAAAAAAAAAAA", hash)
		assert.ErrorIs(t, err, auth.ErrBadCredentials)
	})

	t.Run("Should salt each hash independently", func(t *testing.T) {
		other, err := auth.HashWriteKey(key, bcrypt.MinCost)
		require.NoError(t, err)
		assert.NotEqual(t, hash, other)
		assert.NoError(t, auth.CheckWriteKey(key, other))
	})
}
