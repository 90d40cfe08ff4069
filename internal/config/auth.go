package config

import "fmt"

// AuthConfig contains token signing and credential hashing settings.
type AuthConfig struct {
	// JWTSecret signs and verifies bearer tokens (HS256).
	JWTSecret string `envconfig:"JWT_SECRET"`

	// TokenTTLMinutes is the lifetime of an issued token.
	TokenTTLMinutes int `envconfig:"TOKEN_TTL_MINUTES" default:"60" validate:"min=1"`

	// BcryptCost controls the write-key hashing work factor.
	BcryptCost int `envconfig:"BCRYPT_COST" default:"8" validate:"min=4,max=31"`
}

// Validate checks the auth configuration.
func (c *AuthConfig) Validate(stage string) error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if stage == StageProduction && len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters in production stage")
	}

	return nil
}
