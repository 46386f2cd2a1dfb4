package database

import (
	"fmt"
	"strings"
	"time"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Config holds SQLite connection configuration.
type Config struct {
	// Enabled controls whether the database component is active.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Path is the database file, or ":memory:".
	Path string `yaml:"path" mapstructure:"path"`

	// MaxOpenConns sets the maximum number of open connections. SQLite
	// serializes writers, so the default is 1.
	MaxOpenConns int `yaml:"max_open_conns" mapstructure:"max_open_conns"`

	// ConnMaxLifetime is the maximum time a connection may be reused (e.g. "1h").
	ConnMaxLifetime string `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`

	// BusyTimeout is how long a writer waits on a locked database (e.g. "5s").
	BusyTimeout string `yaml:"busy_timeout" mapstructure:"busy_timeout"`

	// MaxRetries is the number of connection attempts before giving up.
	MaxRetries int `yaml:"max_retries" mapstructure:"max_retries"`

	// SlowQueryThreshold is the duration above which queries are logged as slow.
	SlowQueryThreshold string `yaml:"slow_query_threshold" mapstructure:"slow_query_threshold"`

	// LogLevel is the GORM log level: silent, error, warn or info.
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if strings.TrimSpace(c.Path) == "" {
		c.Path = "podscribe.db"
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 1
	}
	if c.ConnMaxLifetime == "" {
		c.ConnMaxLifetime = "1h"
	}
	if c.BusyTimeout == "" {
		c.BusyTimeout = "5s"
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.SlowQueryThreshold == "" {
		c.SlowQueryThreshold = "200ms"
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
}

// Validate checks that required fields are present and parseable.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if c.MaxOpenConns <= 0 {
		return fmt.Errorf("max_open_conns must be > 0")
	}
	if _, err := time.ParseDuration(c.ConnMaxLifetime); err != nil {
		return fmt.Errorf("invalid conn_max_lifetime %q: %w", c.ConnMaxLifetime, err)
	}
	if _, err := time.ParseDuration(c.BusyTimeout); err != nil {
		return fmt.Errorf("invalid busy_timeout %q: %w", c.BusyTimeout, err)
	}
	if _, err := time.ParseDuration(c.SlowQueryThreshold); err != nil {
		return fmt.Errorf("invalid slow_query_threshold %q: %w", c.SlowQueryThreshold, err)
	}
	if c.MaxRetries <= 0 {
		return fmt.Errorf("max_retries must be > 0")
	}
	return nil
}

// DSN builds the go-sqlite3 connection string.
func (c *Config) DSN() string {
	busy, _ := time.ParseDuration(c.BusyTimeout)
	params := fmt.Sprintf("_busy_timeout=%d&_foreign_keys=on", busy.Milliseconds())
	if c.Path == MemoryPath {
		return "file::memory:?" + params
	}
	return fmt.Sprintf("file:%s?%s&_journal_mode=WAL", c.Path, params)
}
