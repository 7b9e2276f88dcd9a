package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/alanahq/alana-server/internal/auth/password"
)

// Config configures the authentication subsystem.
type Config struct {
	// Secret is the HMAC key for locally issued access tokens (required).
	Secret string `mapstructure:"secret"`

	// Algorithm is the local token signing algorithm (default: HS256).
	Algorithm string `mapstructure:"algorithm"`

	// AccessTokenTTL is the lifetime of local access tokens (default: 30m).
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`

	// OIDCIssuer is the identity provider's issuer URL. Empty disables the
	// OIDC path entirely.
	OIDCIssuer string `mapstructure:"oidc_issuer"`

	// OIDCClientID is the expected audience of provider tokens. When empty
	// the audience claim is not checked, a deliberate leniency for providers
	// that omit audience scoping.
	OIDCClientID string `mapstructure:"oidc_client_id"`

	// RequireEmailVerified rejects SSO identities whose email the provider
	// has not verified.
	RequireEmailVerified bool `mapstructure:"require_email_verified"`

	// RequireMFA rejects SSO identities authenticated without a second factor.
	RequireMFA bool `mapstructure:"require_mfa"`

	// Password configures the password hasher.
	Password password.Config `mapstructure:"password"`
}

// ApplyDefaults sets defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Algorithm == "" {
		c.Algorithm = "HS256"
	}
	if c.AccessTokenTTL == 0 {
		c.AccessTokenTTL = 30 * time.Minute
	}
	c.Password.ApplyDefaults()
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Secret == "" {
		return errors.New("auth.secret is required")
	}
	switch c.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("auth.algorithm must be one of HS256/HS384/HS512 (got: %s)", c.Algorithm)
	}
	if c.AccessTokenTTL < time.Minute {
		return fmt.Errorf("auth.access_token_ttl must be at least 1m (got: %s)", c.AccessTokenTTL)
	}
	return c.Password.Validate()
}
