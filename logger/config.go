package logger

import (
	"fmt"
	"slices"
)

var (
	levels  = []string{"trace", "debug", "info", "warn", "error"}
	formats = []string{"console", "pretty", "json"}
	outputs = []string{"stderr", "stdout"}
)

// Config controls the process logger. Output defaults to stderr so a
// transcript printed on stdout stays clean.
type Config struct {
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`
	Level       string `yaml:"level" mapstructure:"level"`
	Format      string `yaml:"format" mapstructure:"format"`
	Output      string `yaml:"output" mapstructure:"output"`
	NoColor     bool   `yaml:"no_color" mapstructure:"no_color"`
	Timestamp   bool   `yaml:"timestamp" mapstructure:"timestamp"`
	Caller      bool   `yaml:"caller" mapstructure:"caller"`
}

func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = formats[0]
	}
	if c.Output == "" {
		c.Output = outputs[0]
	}
	c.Timestamp = true
}

func (c *Config) Validate() error {
	for _, f := range []struct {
		name, value string
		allowed     []string
	}{
		{"level", c.Level, levels},
		{"format", c.Format, formats},
		{"output", c.Output, outputs},
	} {
		if !slices.Contains(f.allowed, f.value) {
			return fmt.Errorf("logging.%s must be one of %v (got: %s)", f.name, f.allowed, f.value)
		}
	}
	return nil
}
