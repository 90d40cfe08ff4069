package ident_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyfan1/timegate/internal/ident"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		wantErr bool
	}{
		{name: "Should generate a rule suffix", length: ident.SuffixLength},
		{name: "Should generate a write key", length: ident.WriteKeyLength},
		{name: "Should generate a single character", length: 1},
		{name: "Should reject zero length", length: 0, wantErr: true},
		{name: "Should reject negative length", length: -3, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ident.Generate(tt.length)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Len(t, got, tt.length)
			for _, c := range got {
				assert.Contains(t, ident.Alphabet, string(c))
			}
		})
	}
}

func TestGenerateDrawsFromAlphabetOnly(t *testing.T) {
	// A large draw exercises the rejection-sampling refill path.
	got, err := ident.Generate(4096)
	require.NoError(t, err)
	require.Len(t, got, 4096)

	for i, c := range got {
		require.True(t, strings.ContainsRune(ident.Alphabet, c),
			"character %q at index %d outside alphabet", c, i)
	}
}

func TestGenerateDoesNotRepeat(t *testing.T) {
	// Distinctness over many draws; a collision here would point at a
	// broken randomness source rather than bad luck.
	const draws = 10_000

	seen := make(map[string]bool, draws)
	for i := 0; i < draws; i++ {
		got, err := ident.Generate(ident.WriteKeyLength)
		require.NoError(t, err)
		require.False(t, seen[got], "duplicate identifier %q after %d draws", got, i)
		seen[got] = true
	}
}
