package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kbukum/podscribe/logger"
	"github.com/kbukum/podscribe/util"
)

// Environments accepted in ServiceConfig.Environment.
var Environments = []string{"development", "staging", "production"}

// ServiceConfig is embedded, squashed, by every process config:
//
//	type Config struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Transcription transcription.Config `yaml:"transcription" mapstructure:"transcription"`
//	}
type ServiceConfig struct {
	Name        string        `yaml:"name" mapstructure:"name"`
	Environment string        `yaml:"environment" mapstructure:"environment"`
	Version     string        `yaml:"version" mapstructure:"version"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`
}

func (c *ServiceConfig) GetServiceConfig() *ServiceConfig { return c }

// ApplyDefaults must run before the embedding config applies its own.
// Production logs JSON unless a format is set.
func (c *ServiceConfig) ApplyDefaults() {
	c.Name = util.Coalesce(c.Name, "podscribe")
	c.Environment = util.Coalesce(strings.ToLower(strings.TrimSpace(c.Environment)), "development")
	c.Logging.ServiceName = util.Coalesce(c.Logging.ServiceName, c.Name)
	if c.IsProduction() && c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	c.Logging.ApplyDefaults()
}

func (c *ServiceConfig) IsProduction() bool { return c.Environment == "production" }

func (c *ServiceConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("config.name is required")
	}
	if !slices.Contains(Environments, c.Environment) {
		return fmt.Errorf("config.environment must be one of %v (got: %s)", Environments, c.Environment)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}
