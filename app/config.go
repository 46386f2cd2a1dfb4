package app

import (
	"fmt"
	"time"

	"github.com/kbukum/podscribe/audio"
	"github.com/kbukum/podscribe/config"
	"github.com/kbukum/podscribe/database"
	"github.com/kbukum/podscribe/episode"
	"github.com/kbukum/podscribe/insights"
	"github.com/kbukum/podscribe/observability"
	"github.com/kbukum/podscribe/orchestrator"
	"github.com/kbukum/podscribe/resilience"
	"github.com/kbukum/podscribe/server"
	"github.com/kbukum/podscribe/storage"
	"github.com/kbukum/podscribe/templating"
	"github.com/kbukum/podscribe/transcription"
	"github.com/kbukum/podscribe/transcription/localmodel"
	"github.com/kbukum/podscribe/transcription/openai"
	"github.com/kbukum/podscribe/transcription/whisperserver"
	"github.com/kbukum/podscribe/util"
	"github.com/kbukum/podscribe/validation"
)

// ServiceName is the config and env namespace of the process.
const ServiceName = "podscribe"

// Config is the full podscribe configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Transcription TranscriptionConfig    `yaml:"transcription" mapstructure:"transcription"`
	Transcript    templating.Config      `yaml:"transcript" mapstructure:"transcript"`
	Storage       storage.Config         `yaml:"storage" mapstructure:"storage"`
	History       database.Config        `yaml:"history" mapstructure:"history"`
	Server        server.Config          `yaml:"server" mapstructure:"server"`
	Download      episode.DownloadConfig `yaml:"download" mapstructure:"download"`
	Insights      insights.Config        `yaml:"insights" mapstructure:"insights"`
	Telemetry     observability.Config   `yaml:"telemetry" mapstructure:"telemetry"`
}

// TranscriptionConfig selects the backend and tunes the chunked path.
type TranscriptionConfig struct {
	Backend        string        `yaml:"backend" mapstructure:"backend" validate:"omitempty,oneof=remote_api self_hosted local_model"`
	MaxChunkSizeMB int           `yaml:"max_chunk_size_mb" mapstructure:"max_chunk_size_mb" validate:"gte=0,lte=25"`
	MaxRetries     int           `yaml:"max_retries" mapstructure:"max_retries" validate:"gte=0,lte=10"`
	RetryBackoff   time.Duration `yaml:"retry_backoff" mapstructure:"retry_backoff" validate:"gte=0"`
	RetryStrategy  string        `yaml:"retry_strategy" mapstructure:"retry_strategy" validate:"omitempty,oneof=linear exponential"`
	// MaxConcurrentChunks caps in-flight uploads; 0 means unbounded.
	MaxConcurrentChunks *int `yaml:"max_concurrent_chunks" mapstructure:"max_concurrent_chunks"`

	Remote openai.Config        `yaml:"remote" mapstructure:"remote"`
	Server whisperserver.Config `yaml:"server" mapstructure:"server"`
	Local  localmodel.Config    `yaml:"local" mapstructure:"local"`
}

// ApplyDefaults fills in zero-value fields across every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = ServiceName
	}
	c.ServiceConfig.ApplyDefaults()

	t := &c.Transcription
	if t.Backend == "" {
		t.Backend = string(transcription.KindRemoteAPI)
	}
	if t.MaxChunkSizeMB == 0 {
		t.MaxChunkSizeMB = audio.DefaultMaxChunkBytes / (1 << 20)
	}
	if t.MaxRetries == 0 {
		t.MaxRetries = 3
	}
	if t.RetryBackoff == 0 {
		t.RetryBackoff = time.Second
	}
	if t.MaxConcurrentChunks == nil {
		t.MaxConcurrentChunks = util.Ptr(4)
	}
	t.Remote.ApplyDefaults()
	t.Server.ApplyDefaults()
	t.Local.ApplyDefaults()

	c.Transcript.ApplyDefaults()
	c.Storage.ApplyDefaults()
	c.History.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Download.ApplyDefaults()
	c.Insights.ApplyDefaults()
	c.Telemetry.ApplyDefaults()
}

// Validate checks struct tags first, then each section's own rules.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(c); err != nil {
		return err
	}
	if util.Deref(c.Transcription.MaxConcurrentChunks) < 0 {
		return fmt.Errorf("transcription.max_concurrent_chunks must be non-negative")
	}
	sections := []struct {
		name string
		v    interface{ Validate() error }
	}{
		{"storage", &c.Storage},
		{"history", &c.History},
		{"server", &c.Server},
		{"insights", &c.Insights},
		{"telemetry", &c.Telemetry},
	}
	for _, s := range sections {
		if err := s.v.Validate(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

// Kind returns the configured backend kind.
func (c *Config) Kind() transcription.Kind {
	k, err := transcription.ParseKind(c.Transcription.Backend)
	if err != nil {
		return transcription.KindRemoteAPI
	}
	return k
}

// OrchestratorConfig derives the pipeline settings.
func (c *Config) OrchestratorConfig() orchestrator.Config {
	oc := orchestrator.DefaultConfig()
	oc.Backend = c.Kind()
	oc.MaxChunkBytes = c.Transcription.MaxChunkSizeMB << 20
	oc.MaxConcurrentChunks = util.Deref(c.Transcription.MaxConcurrentChunks)
	oc.Retry.MaxAttempts = c.Transcription.MaxRetries
	oc.Retry.BackoffBase = c.Transcription.RetryBackoff
	oc.Retry.Strategy = resilience.ParseBackoffStrategy(c.Transcription.RetryStrategy)
	return oc
}

// Load reads configuration from config.yml, .env and the environment.
// configFile overrides the search when non-empty.
func Load(configFile string) (*Config, error) {
	var opts []config.LoaderOption
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}
	cfg := &Config{}
	if err := config.LoadConfig(ServiceName, cfg, opts...); err != nil {
		return nil, err
	}
	return cfg, nil
}
