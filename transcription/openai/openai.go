// Package openai implements the remote API transcription backend on top of
// the OpenAI audio transcription endpoint (or any compatible server).
package openai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/kbukum/podscribe/audio"
	"github.com/kbukum/podscribe/httpclient"
	"github.com/kbukum/podscribe/logger"
	"github.com/kbukum/podscribe/resilience"
	"github.com/kbukum/podscribe/transcription"
)

const (
	// ProviderName is the registered name for the remote API backend.
	ProviderName = "openai"

	defaultTimeout = 5 * time.Minute
)

// Config holds configuration for the remote API backend.
type Config struct {
	APIKey   string        `yaml:"api_key" mapstructure:"api_key"`
	BaseURL  string        `yaml:"base_url" mapstructure:"base_url"`
	Model    string        `yaml:"model" mapstructure:"model"`
	Language string        `yaml:"language" mapstructure:"language"`
	Prompt   string        `yaml:"prompt" mapstructure:"prompt"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// RequestsPerSecond throttles chunk uploads. Zero disables throttling.
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Model == "" {
		c.Model = goopenai.Whisper1
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// Provider implements transcription.Backend with one upload per unit.
type Provider struct {
	cfg     Config
	client  *goopenai.Client
	limiter *resilience.RateLimiter
}

// NewProvider creates a remote API backend. An empty API key yields a
// provider that reports itself unavailable.
func NewProvider(cfg Config) *Provider {
	cfg.ApplyDefaults()

	oc := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	p := &Provider{cfg: cfg, client: goopenai.NewClientWithConfig(oc)}
	if cfg.RequestsPerSecond > 0 {
		log := logger.Get(ProviderName)
		p.limiter = resilience.NewRateLimiter(resilience.RateLimiterConfig{
			Name: ProviderName,
			Rate: cfg.RequestsPerSecond,
			OnLimit: func(name string, delay time.Duration) {
				log.Debug("throttling upload", logger.Fields("limiter", name, "delay_ms", delay.Milliseconds()))
			},
		})
	}
	return p
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// Kind returns transcription.KindRemoteAPI.
func (p *Provider) Kind() transcription.Kind { return transcription.KindRemoteAPI }

// IsAvailable reports whether an API key is configured.
func (p *Provider) IsAvailable(ctx context.Context) bool { return p.cfg.APIKey != "" }

// TranscribeUnit uploads one unit as a multipart file.
func (p *Provider) TranscribeUnit(ctx context.Context, unit audio.Unit) (string, error) {
	if p.cfg.APIKey == "" {
		return "", fmt.Errorf("openai: API key not configured")
	}
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	resp, err := p.client.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    p.cfg.Model,
		FilePath: unit.FileName,
		Reader:   bytes.NewReader(unit.Data),
		Language: p.cfg.Language,
		Prompt:   p.cfg.Prompt,
		Format:   goopenai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", classify(err)
	}
	return resp.Text, nil
}

// TranscribeWhole uploads the buffer as a single unit. Buffers above the
// API's size limit are rejected by the server; the orchestrator chunks
// remote runs.
func (p *Provider) TranscribeWhole(ctx context.Context, buf *audio.Buffer) (string, error) {
	return p.TranscribeUnit(ctx, audio.WholeUnit(buf, "audio"))
}

// classify maps API failures onto httpclient errors so callers can apply
// the same retry predicate to every backend.
func classify(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		if ce := httpclient.ClassifyStatusCode(apiErr.HTTPStatusCode, []byte(apiErr.Message)); ce != nil {
			ce.Err = err
			return ce
		}
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		if ce := httpclient.ClassifyStatusCode(reqErr.HTTPStatusCode, nil); ce != nil {
			ce.Err = err
			return ce
		}
	}
	return fmt.Errorf("openai: transcription: %w", err)
}
