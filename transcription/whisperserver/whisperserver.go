// Package whisperserver implements the self-hosted transcription backend: a
// whisper HTTP server that accepts the whole episode as base64 JSON.
package whisperserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kbukum/podscribe/audio"
	"github.com/kbukum/podscribe/httpclient"
	"github.com/kbukum/podscribe/logger"
	"github.com/kbukum/podscribe/transcription"
)

const (
	// ProviderName is the registered name for the self-hosted backend.
	ProviderName = "whisper-server"

	defaultModel   = "tiny"
	defaultTimeout = 30 * time.Minute

	// NoTranscription replaces an empty server response.
	NoTranscription = "[No transcription returned]"
)

// Config holds configuration for the self-hosted server backend.
type Config struct {
	URL    string `yaml:"url" mapstructure:"url"`
	Model  string `yaml:"model" mapstructure:"model"`
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
	// APIKeyHeader sends APIKey in this header instead of as a bearer token.
	APIKeyHeader string        `yaml:"api_key_header" mapstructure:"api_key_header"`
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// CircuitBreaker enables a breaker around the server. Off by default.
	CircuitBreaker bool `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`
	// TLS is for servers behind a private CA or requiring client certificates.
	TLS httpclient.TLSConfig `yaml:"tls" mapstructure:"tls"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	c.URL = strings.TrimRight(strings.TrimSpace(c.URL), "/")
}

// Provider implements transcription.Backend against a self-hosted server.
type Provider struct {
	cfg    Config
	client *httpclient.Client
	log    *logger.Logger
}

// NewProvider creates a self-hosted backend. An empty URL yields a provider
// that reports itself unavailable.
func NewProvider(cfg Config) (*Provider, error) {
	cfg.ApplyDefaults()

	hc := httpclient.Config{
		BaseURL: cfg.URL,
		Timeout: cfg.Timeout,
	}
	switch {
	case cfg.APIKey != "" && cfg.APIKeyHeader != "":
		hc.Auth = httpclient.APIKeyAuth(cfg.APIKey, cfg.APIKeyHeader)
	case cfg.APIKey != "":
		hc.Auth = httpclient.BearerAuth(cfg.APIKey)
	}
	if cfg.TLS.IsEnabled() {
		hc.TLS = &cfg.TLS
	}
	if cfg.CircuitBreaker {
		hc.CircuitBreaker = httpclient.DefaultCircuitBreakerConfig(ProviderName)
	}
	client, err := httpclient.New(hc)
	if err != nil {
		return nil, fmt.Errorf("whisperserver: %w", err)
	}
	return &Provider{cfg: cfg, client: client, log: logger.Get("whisperserver")}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// Kind returns transcription.KindSelfHosted.
func (p *Provider) Kind() transcription.Kind { return transcription.KindSelfHosted }

// IsAvailable reports whether a server URL is configured.
func (p *Provider) IsAvailable(ctx context.Context) bool { return p.cfg.URL != "" }

// TranscribeWhole sends the complete buffer in one request.
func (p *Provider) TranscribeWhole(ctx context.Context, buf *audio.Buffer) (string, error) {
	return p.transcribe(ctx, buf.Data, buf.Extension)
}

// TranscribeUnit sends a single unit. The server has no chunk size limit, so
// this is only used when a caller chunks anyway.
func (p *Provider) TranscribeUnit(ctx context.Context, unit audio.Unit) (string, error) {
	return p.transcribe(ctx, unit.Data, unit.Extension)
}

func (p *Provider) transcribe(ctx context.Context, data []byte, ext string) (string, error) {
	if p.cfg.URL == "" {
		return "", fmt.Errorf("whisperserver: server URL not configured")
	}

	start := time.Now()
	resp, err := p.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/transcribe",
		Body: transcribeRequest{
			Audio:       base64.StdEncoding.EncodeToString(data),
			Model:       p.cfg.Model,
			AudioFormat: ext,
		},
	})
	if err != nil {
		if resp != nil {
			return "", fmt.Errorf("whisperserver: server returned status %d: %w", resp.StatusCode, err)
		}
		return "", fmt.Errorf("whisperserver: request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("whisperserver: server returned status %d", resp.StatusCode)
	}

	var result transcribeResponse
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return "", fmt.Errorf("whisperserver: decode response: %w", err)
	}

	fields := logger.DurationFields("transcribe", time.Since(start))
	fields["bytes"] = len(data)
	p.log.Debug("server transcription finished", fields)

	if strings.TrimSpace(result.Text) == "" {
		return NoTranscription, nil
	}
	return result.Text, nil
}

type transcribeRequest struct {
	Audio       string `json:"audio"`
	Model       string `json:"model"`
	AudioFormat string `json:"audio_format"`
}

type transcribeResponse struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}
