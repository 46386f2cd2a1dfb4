// Package localmodel implements the offline transcription backend. Audio is
// decoded to 16 kHz mono PCM and fed to a Recognizer in fixed-size windows;
// finalized segments are accumulated until the final flush.
package localmodel

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/kbukum/podscribe/audio"
	"github.com/kbukum/podscribe/logger"
	"github.com/kbukum/podscribe/transcription"
)

const (
	// ProviderName is the registered name for the local model backend.
	ProviderName = "local-model"

	// NoSpeech is returned when the recognizer produced no text.
	NoSpeech = "No speech detected"

	// DefaultSampleRate is the rate the recognizer expects.
	DefaultSampleRate = 16000
	// DefaultWindowSamples is the size of each window fed to the recognizer.
	DefaultWindowSamples = 4096
)

var errClosed = stderrors.New("model handle closed")

// Config holds configuration for the local model backend.
type Config struct {
	ModelPath     string `yaml:"model_path" mapstructure:"model_path"`
	WindowSamples int    `yaml:"window_samples" mapstructure:"window_samples"`
	SampleRate    int    `yaml:"sample_rate" mapstructure:"sample_rate"`
	// UnloadWhenIdle frees the model after each run instead of keeping it
	// resident for the process lifetime.
	UnloadWhenIdle bool `yaml:"unload_when_idle" mapstructure:"unload_when_idle"`

	Engine EngineConfig `yaml:"engine" mapstructure:"engine"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.WindowSamples <= 0 {
		c.WindowSamples = DefaultWindowSamples
	}
	if c.SampleRate <= 0 {
		c.SampleRate = DefaultSampleRate
	}
	c.Engine.ApplyDefaults()
}

// Provider implements transcription.Backend on top of a shared Handle.
type Provider struct {
	cfg     Config
	handle  *Handle
	decoder Decoder
	log     *logger.Logger
}

// NewProvider creates a local model backend. handle is shared with the
// component registry so the model is freed at shutdown.
func NewProvider(cfg Config, handle *Handle, decoder Decoder) *Provider {
	cfg.ApplyDefaults()
	if decoder == nil {
		decoder = WAVDecoder{}
	}
	return &Provider{cfg: cfg, handle: handle, decoder: decoder, log: logger.Get("localmodel")}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// Kind returns transcription.KindLocalModel.
func (p *Provider) Kind() transcription.Kind { return transcription.KindLocalModel }

// IsAvailable reports whether a model is configured.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	return p.cfg.ModelPath != "" && p.handle != nil
}

// Handle returns the shared model handle.
func (p *Provider) Handle() *Handle { return p.handle }

// TranscribeUnit transcribes a unit as if it were a whole buffer.
func (p *Provider) TranscribeUnit(ctx context.Context, unit audio.Unit) (string, error) {
	return p.TranscribeWhole(ctx, audio.NewBuffer(unit.Data, unit.Extension))
}

// TranscribeWhole decodes buf and streams it through a recognizer.
func (p *Provider) TranscribeWhole(ctx context.Context, buf *audio.Buffer) (string, error) {
	if !p.IsAvailable(ctx) {
		return "", fmt.Errorf("localmodel: no model configured")
	}

	pcm, err := p.decoder.Decode(ctx, buf, p.cfg.SampleRate)
	if err != nil {
		return "", fmt.Errorf("localmodel: decode audio: %w", err)
	}

	model, err := p.handle.Acquire(ctx)
	if err != nil {
		return "", err
	}
	defer p.handle.Release()

	rec, err := model.NewRecognizer(pcm.SampleRate)
	if err != nil {
		return "", fmt.Errorf("localmodel: create recognizer: %w", err)
	}

	var parts []string
	for start := 0; start < len(pcm.Samples); start += p.cfg.WindowSamples {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		end := min(start+p.cfg.WindowSamples, len(pcm.Samples))
		done, err := rec.AcceptWaveform(ctx, pcm.Samples[start:end])
		if err != nil {
			return "", fmt.Errorf("localmodel: recognize: %w", err)
		}
		if done {
			parts = appendText(parts, rec.Result())
		}
	}

	final, err := rec.FinalResult(ctx)
	if err != nil {
		return "", fmt.Errorf("localmodel: final result: %w", err)
	}
	parts = appendText(parts, final)

	text := strings.TrimSpace(strings.Join(parts, " "))
	if text == "" {
		return NoSpeech, nil
	}
	p.log.Debug("local transcription finished", logger.Fields("seconds", pcm.Duration(), "segments", len(parts)))
	return text, nil
}

func appendText(parts []string, s string) []string {
	if s = strings.TrimSpace(s); s != "" {
		return append(parts, s)
	}
	return parts
}
