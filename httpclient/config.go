package httpclient

import (
	"errors"
	"time"

	"github.com/kbukum/podscribe/resilience"
)

// Config is shared by the episode downloader, the self-hosted backend and
// the insights model client.
// Auth, Retry and CircuitBreaker are wired in code, never from YAML.
type Config struct {
	BaseURL string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// MaxResponseBytes bounds buffered bodies; episode audio can be large.
	MaxResponseBytes int64             `yaml:"max_response_bytes" mapstructure:"max_response_bytes"`
	TLS              *TLSConfig        `yaml:"tls" mapstructure:"tls"`
	Headers          map[string]string `yaml:"headers" mapstructure:"headers"`

	Auth           *AuthConfig                      `yaml:"-" mapstructure:"-"`
	Retry          *resilience.RetryConfig          `yaml:"-" mapstructure:"-"`
	CircuitBreaker *resilience.CircuitBreakerConfig `yaml:"-" mapstructure:"-"`
}

func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxResponseBytes <= 0 {
		c.MaxResponseBytes = 1 << 30
	}
}

func (c *Config) Validate() error {
	switch {
	case c.Timeout <= 0:
		return errors.New("httpclient: timeout must be positive")
	case c.MaxResponseBytes <= 0:
		return errors.New("httpclient: max_response_bytes must be positive")
	case c.TLS != nil:
		return c.TLS.Validate()
	}
	return nil
}

// DefaultRetryConfig retries only failures IsRetryable accepts.
func DefaultRetryConfig() *resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.RetryIf = IsRetryable
	return &cfg
}

func DefaultCircuitBreakerConfig(name string) *resilience.CircuitBreakerConfig {
	cfg := resilience.DefaultCircuitBreakerConfig(name)
	return &cfg
}
