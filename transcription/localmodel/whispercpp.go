package localmodel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kbukum/podscribe/audio"
	"github.com/kbukum/podscribe/process"
)

const (
	defaultEngineBinary   = "whisper-cli"
	defaultSegmentSeconds = 30
)

// EngineConfig configures the whisper.cpp engine.
type EngineConfig struct {
	Binary         string        `yaml:"binary" mapstructure:"binary"`
	Language       string        `yaml:"language" mapstructure:"language"`
	Threads        int           `yaml:"threads" mapstructure:"threads"`
	SegmentSeconds int           `yaml:"segment_seconds" mapstructure:"segment_seconds"`
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// FFmpeg enables non-WAV input through the named binary. Empty disables it.
	FFmpeg string `yaml:"ffmpeg" mapstructure:"ffmpeg"`
}

// ApplyDefaults fills in zero-value fields.
func (c *EngineConfig) ApplyDefaults() {
	if c.Binary == "" {
		c.Binary = defaultEngineBinary
	}
	if c.SegmentSeconds <= 0 {
		c.SegmentSeconds = defaultSegmentSeconds
	}
}

// WhisperCPP returns a Loader for a whisper.cpp model driven through its
// command-line binary. Loading verifies the binary and the model file.
func WhisperCPP(modelPath string, cfg EngineConfig, runner *process.Runner) Loader {
	cfg.ApplyDefaults()
	if runner == nil {
		runner = process.NewRunner(process.RunnerConfig{Name: cfg.Binary, Timeout: cfg.Timeout})
	}
	return func(ctx context.Context) (Model, error) {
		bin, err := process.LookPath(cfg.Binary)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(modelPath)
		if err != nil {
			return nil, fmt.Errorf("model file: %w", err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("model file: %s is a directory", modelPath)
		}
		return &whisperCPP{bin: bin, model: modelPath, cfg: cfg, runner: runner}, nil
	}
}

type whisperCPP struct {
	bin    string
	model  string
	cfg    EngineConfig
	runner *process.Runner
}

func (w *whisperCPP) NewRecognizer(sampleRate int) (Recognizer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	return &cppRecognizer{engine: w, rate: sampleRate, segment: w.cfg.SegmentSeconds * sampleRate}, nil
}

func (w *whisperCPP) Close() error { return nil }

func (w *whisperCPP) transcribe(ctx context.Context, rate int, samples []int16) (string, error) {
	f, err := os.CreateTemp("", "podscribe-segment-*.wav")
	if err != nil {
		return "", fmt.Errorf("create segment file: %w", err)
	}
	name := f.Name()
	defer os.Remove(name)

	if err := audio.EncodeWAV(f, rate, samples); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	args := []string{"-m", w.model, "-f", filepath.Clean(name), "-nt", "-np"}
	if w.cfg.Language != "" {
		args = append(args, "-l", w.cfg.Language)
	}
	if w.cfg.Threads > 0 {
		args = append(args, "-t", strconv.Itoa(w.cfg.Threads))
	}

	res, err := w.runner.Run(ctx, process.Command{Binary: w.bin, Args: args})
	if err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(string(res.Stdout)), " "), nil
}

// cppRecognizer buffers windows and transcribes a segment whenever the
// buffer reaches the configured segment length.
type cppRecognizer struct {
	engine  *whisperCPP
	rate    int
	segment int
	pending []int16
	last    string
}

func (r *cppRecognizer) AcceptWaveform(ctx context.Context, samples []int16) (bool, error) {
	r.pending = append(r.pending, samples...)
	if len(r.pending) < r.segment {
		return false, nil
	}
	text, err := r.engine.transcribe(ctx, r.rate, r.pending)
	if err != nil {
		return false, err
	}
	r.pending = r.pending[:0]
	r.last = text
	return true, nil
}

func (r *cppRecognizer) Result() string { return r.last }

func (r *cppRecognizer) FinalResult(ctx context.Context) (string, error) {
	if len(r.pending) == 0 {
		return "", nil
	}
	text, err := r.engine.transcribe(ctx, r.rate, r.pending)
	r.pending = nil
	return text, err
}
