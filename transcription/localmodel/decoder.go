package localmodel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kbukum/podscribe/audio"
	"github.com/kbukum/podscribe/process"
)

// Decoder turns an acquired buffer into mono PCM at the requested rate.
type Decoder interface {
	Decode(ctx context.Context, buf *audio.Buffer, sampleRate int) (*audio.PCM, error)
}

// WAVDecoder accepts only WAV input already at the target rate.
type WAVDecoder struct{}

// Decode implements Decoder.
func (WAVDecoder) Decode(ctx context.Context, buf *audio.Buffer, sampleRate int) (*audio.PCM, error) {
	pcm, err := audio.DecodeWAV(buf.Data)
	if err != nil {
		return nil, fmt.Errorf("%s input: %w", buf.Extension, err)
	}
	if pcm.SampleRate != sampleRate {
		return nil, fmt.Errorf("sample rate %d Hz, need %d Hz", pcm.SampleRate, sampleRate)
	}
	return pcm, nil
}

// FFmpegDecoder converts any input ffmpeg understands. WAV input already at
// the target rate is decoded directly without spawning ffmpeg.
type FFmpegDecoder struct {
	Binary string
	Runner *process.Runner
}

// NewFFmpegDecoder creates a decoder driving binary through runner.
func NewFFmpegDecoder(binary string, runner *process.Runner) *FFmpegDecoder {
	if runner == nil {
		runner = process.NewRunner(process.RunnerConfig{Name: "ffmpeg"})
	}
	return &FFmpegDecoder{Binary: binary, Runner: runner}
}

// Decode implements Decoder.
func (d *FFmpegDecoder) Decode(ctx context.Context, buf *audio.Buffer, sampleRate int) (*audio.PCM, error) {
	if pcm, err := (WAVDecoder{}).Decode(ctx, buf, sampleRate); err == nil {
		return pcm, nil
	}

	dir, err := os.MkdirTemp("", "podscribe-ffmpeg-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "input."+buf.Extension)
	out := filepath.Join(dir, "output.wav")
	if err := os.WriteFile(in, buf.Data, 0o600); err != nil {
		return nil, fmt.Errorf("write temp input: %w", err)
	}

	if _, err := d.Runner.Run(ctx, process.Command{
		Binary: d.Binary,
		Args:   []string{"-y", "-i", in, "-ac", "1", "-ar", fmt.Sprint(sampleRate), "-f", "wav", out},
	}); err != nil {
		return nil, fmt.Errorf("ffmpeg convert: %w", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("read converted audio: %w", err)
	}
	return audio.DecodeWAV(data)
}
