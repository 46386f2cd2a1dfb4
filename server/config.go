package server

import (
	"cmp"
	"fmt"

	"github.com/kbukum/podscribe/auth"
	"github.com/kbukum/podscribe/server/middleware"
)

// Config holds HTTP server configuration.
type Config struct {
	Enabled     bool   `yaml:"enabled" mapstructure:"enabled"`
	Host        string `yaml:"host" mapstructure:"host"`
	Port        int    `yaml:"port" mapstructure:"port" validate:"gte=0,lte=65535"`
	ReadTimeout int    `yaml:"read_timeout" mapstructure:"read_timeout"` // seconds
	// WriteTimeout applies to ordinary responses; the event stream clears
	// its own deadline. 0 disables it.
	WriteTimeout int                   `yaml:"write_timeout" mapstructure:"write_timeout"` // seconds
	IdleTimeout  int                   `yaml:"idle_timeout" mapstructure:"idle_timeout"`   // seconds
	MaxBodySize  string                `yaml:"max_body_size" mapstructure:"max_body_size"` // e.g. "1MB"
	CORS         middleware.CORSConfig `yaml:"cors" mapstructure:"cors"`
	Auth         auth.Config           `yaml:"auth" mapstructure:"auth"`
}

// ApplyDefaults fills unset fields. The listener binds loopback unless told
// otherwise.
func (c *Config) ApplyDefaults() {
	c.Host = cmp.Or(c.Host, "127.0.0.1")
	c.Port = cmp.Or(c.Port, 8080)
	c.ReadTimeout = cmp.Or(c.ReadTimeout, 15)
	c.WriteTimeout = cmp.Or(c.WriteTimeout, 30)
	c.IdleTimeout = cmp.Or(c.IdleTimeout, 120)
	c.MaxBodySize = cmp.Or(c.MaxBodySize, "1MB")

	cors := &c.CORS
	if len(cors.AllowedOrigins) == 0 {
		cors.AllowedOrigins = []string{"*"}
	}
	if len(cors.AllowedMethods) == 0 {
		cors.AllowedMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	}
	if len(cors.AllowedHeaders) == 0 {
		cors.AllowedHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderRequestID}
	}
	c.Auth.ApplyDefaults()
}

func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("server.port %d out of range 0-65535", c.Port)
	}
	for name, secs := range map[string]int{
		"read_timeout":  c.ReadTimeout,
		"write_timeout": c.WriteTimeout,
		"idle_timeout":  c.IdleTimeout,
	} {
		if secs < 0 {
			return fmt.Errorf("server.%s must be non-negative (got: %d)", name, secs)
		}
	}
	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("server.auth: %w", err)
	}
	return nil
}
