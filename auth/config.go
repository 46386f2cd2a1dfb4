package auth

import (
	"errors"
	"time"
)

// MinSecretLength guards against trivially guessable HMAC keys.
const MinSecretLength = 16

// Config configures API bearer tokens. Authentication is off when Secret
// is empty.
type Config struct {
	// Secret is the HS256 signing key.
	Secret string `yaml:"jwt_secret" mapstructure:"jwt_secret"`
	// Issuer is the "iss" claim written and required on tokens.
	Issuer string `yaml:"issuer" mapstructure:"issuer"`
	// TokenTTL is the lifetime of issued tokens.
	TokenTTL time.Duration `yaml:"token_ttl" mapstructure:"token_ttl"`
}

// Enabled reports whether requests must carry a token.
func (c *Config) Enabled() bool { return c.Secret != "" }

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Issuer == "" {
		c.Issuer = "podscribe"
	}
	if c.TokenTTL == 0 {
		c.TokenTTL = 24 * time.Hour
	}
}

// Validate checks the secret when authentication is enabled.
func (c *Config) Validate() error {
	if !c.Enabled() {
		return nil
	}
	if len(c.Secret) < MinSecretLength {
		return errors.New("auth: jwt_secret must be at least 16 characters")
	}
	if c.TokenTTL < 0 {
		return errors.New("auth: token_ttl must be positive")
	}
	return nil
}
