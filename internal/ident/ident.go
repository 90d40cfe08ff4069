// Package ident generates short random identifiers used for rule-name
// suffixes and server-generated write keys.
package ident

import (
	"crypto/rand"
	"fmt"
)

// Alphabet is the character set identifiers are drawn from. Uppercase plus
// digits keeps identifiers safe inside rule names and URL path segments.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const (
	// SuffixLength is the random tail appended to the trigger stamp when a
	// rule name is derived. The suffix alone is not globally unique; the
	// full-minute stamp prefix narrows the collision window to requests in
	// the same minute, where 36^6 combinations make a clash negligible.
	SuffixLength = 6

	// WriteKeyLength is the length of server-generated account secrets.
	WriteKeyLength = 16
)

// Generate returns a string of n characters drawn uniformly (with
// replacement) from Alphabet using crypto/rand.
func Generate(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("ident: length must be positive, got %d", n)
	}

	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("ident: failed to read random bytes: %w", err)
	}

	// len(Alphabet) == 36 does not divide 256 evenly, which would skew a
	// plain modulo mapping. Rejection sampling keeps the draw uniform.
	const limit = 252 // largest multiple of 36 below 256
	out := make([]byte, 0, n)
	for len(out) < n {
		for _, b := range buf {
			if len(out) == n {
				break
			}
			if b >= limit {
				continue
			}
			out = append(out, Alphabet[int(b)%len(Alphabet)])
		}
		if len(out) < n {
			if _, err := rand.Read(buf); err != nil {
				return "", fmt.Errorf("ident: failed to read random bytes: %w", err)
			}
		}
	}

	return string(out), nil
}
