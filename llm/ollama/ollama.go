// Package ollama implements llm.Provider against an Ollama server's
// non-streaming generate endpoint.
package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kbukum/podscribe/httpclient"
	"github.com/kbukum/podscribe/llm"
)

const (
	// ProviderName is the registered name for the Ollama provider.
	ProviderName = "ollama"

	DefaultURL     = "http://localhost:11434"
	DefaultModel   = "llama3"
	defaultTimeout = 2 * time.Minute
)

type Config struct {
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// Provider implements llm.Provider using Ollama's HTTP API.
type Provider struct {
	cfg    Config
	client *httpclient.Client
}

var _ llm.Provider = (*Provider)(nil)

func NewProvider(cfg Config) (*Provider, error) {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	client, err := httpclient.New(httpclient.Config{
		BaseURL:          cfg.BaseURL,
		Timeout:          cfg.Timeout,
		MaxResponseBytes: 16 << 20,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}
	return &Provider{cfg: cfg, client: client}, nil
}

func (p *Provider) Name() string { return ProviderName }

// IsAvailable checks that the server answers its model listing.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	resp, err := p.client.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: "/api/tags"})
	return err == nil && resp.StatusCode == http.StatusOK
}

// Complete posts the flattened request to /api/generate and waits for the
// whole response.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	system, prompt := llm.Flatten(req)
	body := generateRequest{
		Model:  p.cfg.Model,
		Prompt: prompt,
		System: system,
		Stream: false,
	}
	if req.Model != "" {
		body.Model = req.Model
	}
	temp := p.cfg.Temperature
	if req.Temperature != 0 {
		temp = req.Temperature
	}
	if temp != 0 || req.MaxTokens > 0 {
		body.Options = &generateOptions{Temperature: temp, NumPredict: req.MaxTokens}
	}

	resp, err := p.client.Do(ctx, httpclient.Request{Method: http.MethodPost, Path: "/api/generate", Body: body})
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("ollama: API returned status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("ollama: %w", err)
	}

	var out generateResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("ollama: decode response: %w", err)
	}
	return &llm.CompletionResponse{
		Content: out.Response,
		Model:   out.Model,
		Usage: llm.Usage{
			PromptTokens:     out.PromptEvalCount,
			CompletionTokens: out.EvalCount,
			TotalTokens:      out.PromptEvalCount + out.EvalCount,
		},
	}, nil
}

type generateRequest struct {
	Model   string           `json:"model"`
	Prompt  string           `json:"prompt"`
	System  string           `json:"system,omitempty"`
	Stream  bool             `json:"stream"`
	Options *generateOptions `json:"options,omitempty"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type generateResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count,omitempty"`
	EvalCount       int    `json:"eval_count,omitempty"`
}
