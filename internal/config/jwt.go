package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// DefaultJWTExpirationHours is used when JWT_EXPIRATION_HOURS is unset.
const DefaultJWTExpirationHours = 24

// ErrJWTSecretMissing means bearer tokens cannot be verified. The server
// treats it as "authentication disabled"; the token command treats it as fatal.
var ErrJWTSecretMissing = errors.New("JWT_SECRET is required but not set")

// JWTConfig holds configuration for JWT token generation and validation.
type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

// NewJWTConfig creates a new JWT configuration from environment variables.
// It reads JWT_SECRET (required) and JWT_EXPIRATION_HOURS (default: 24).
func NewJWTConfig() (*JWTConfig, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, &Error{Message: "cannot verify bearer tokens", Cause: ErrJWTSecretMissing}
	}

	expirationHours := DefaultJWTExpirationHours
	if raw := os.Getenv("JWT_EXPIRATION_HOURS"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil {
			return nil, &Error{Message: "invalid JWT_EXPIRATION_HOURS", Cause: err}
		}
		expirationHours = hours
	}

	cfg := &JWTConfig{
		Secret:          secret,
		ExpirationHours: expirationHours,
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *JWTConfig) normalize() error {
	if c.ExpirationHours < 1 {
		return &Error{Message: fmt.Sprintf("JWT_EXPIRATION_HOURS must be at least 1 hour, got: %d", c.ExpirationHours)}
	}
	return nil
}
