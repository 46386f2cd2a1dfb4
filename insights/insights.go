// Package insights asks a language model for key points and a summary of a
// finished transcript. Failures are rendered into the text rather than
// failing the run.
package insights

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/kbukum/podscribe/llm"
	"github.com/kbukum/podscribe/llm/ollama"
	"github.com/kbukum/podscribe/logger"
)

// Placeholder marks where the transcript goes in the prompt template.
const Placeholder = "{transcription}"

// DefaultPromptTemplate asks for key points, insights and a brief summary.
const DefaultPromptTemplate = "You are an assistant that provides insights about podcast segments. " +
	"Analyze the following podcast transcript and provide key points, insights, and a brief summary:\n\n" +
	Placeholder

// Texts rendered instead of insights.
const (
	DisabledText = "Ollama integration is disabled. Enable it in settings."
	EmptyText    = "No insights generated"
	errorPrefix  = "Error generating insights: "
)

type Config struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	URL            string        `yaml:"url" mapstructure:"url"`
	Model          string        `yaml:"model" mapstructure:"model"`
	PromptTemplate string        `yaml:"prompt_template" mapstructure:"prompt_template"`
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

func (c *Config) ApplyDefaults() {
	if c.URL == "" {
		c.URL = ollama.DefaultURL
	}
	if c.Model == "" {
		c.Model = ollama.DefaultModel
	}
	if strings.TrimSpace(c.PromptTemplate) == "" {
		c.PromptTemplate = DefaultPromptTemplate
	}
	if c.Timeout <= 0 {
		c.Timeout = 2 * time.Minute
	}
}

func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if u, err := url.Parse(c.URL); err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("insights.url must be an absolute URL")
	}
	if !strings.Contains(c.PromptTemplate, Placeholder) {
		return errors.New("insights.prompt_template must contain " + Placeholder)
	}
	return nil
}

// Generator turns transcripts into insight text.
type Generator struct {
	cfg   Config
	model llm.Provider
	log   *logger.Logger
}

// New builds a Generator backed by an Ollama server. A disabled config
// yields a Generator that only returns DisabledText.
func New(cfg Config) (*Generator, error) {
	cfg.ApplyDefaults()
	if !cfg.Enabled {
		return NewWithProvider(cfg, nil), nil
	}
	p, err := ollama.NewProvider(ollama.Config{BaseURL: cfg.URL, Model: cfg.Model, Timeout: cfg.Timeout})
	if err != nil {
		return nil, err
	}
	return NewWithProvider(cfg, p), nil
}

// NewWithProvider builds a Generator on any llm.Provider.
func NewWithProvider(cfg Config, p llm.Provider) *Generator {
	cfg.ApplyDefaults()
	return &Generator{cfg: cfg, model: p, log: logger.Get("insights")}
}

func (g *Generator) Enabled() bool { return g.cfg.Enabled && g.model != nil }

// Prompt substitutes the first placeholder in the template with transcript.
func (g *Generator) Prompt(transcript string) string {
	return strings.Replace(g.cfg.PromptTemplate, Placeholder, transcript, 1)
}

// Insights returns the model's answer for transcript. Errors come back as
// "Error generating insights: ..." text.
func (g *Generator) Insights(ctx context.Context, transcript string) string {
	if !g.Enabled() {
		return DisabledText
	}
	start := time.Now()
	text, err := llm.Complete(ctx, g.model, "", g.Prompt(transcript))
	if err != nil {
		g.log.Warn("insights failed", logger.ErrorFields("insights", err))
		return errorPrefix + err.Error()
	}
	g.log.Debug("insights generated", logger.DurationFields("insights", time.Since(start)))
	if strings.TrimSpace(text) == "" {
		return EmptyText
	}
	return text
}
