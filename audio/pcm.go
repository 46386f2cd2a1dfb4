package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrNotWAV is returned when PCM decoding is attempted on a non-RIFF/WAVE payload.
var ErrNotWAV = errors.New("audio: not a valid WAV file")

// PCM is mono signed 16-bit audio.
type PCM struct {
	SampleRate int
	Samples    []int16
}

// Duration returns the length of the audio in seconds.
func (p *PCM) Duration() float64 {
	if p.SampleRate == 0 {
		return 0
	}
	return float64(len(p.Samples)) / float64(p.SampleRate)
}

// DecodeWAV decodes a WAV payload into mono 16-bit PCM. Multi-channel input
// is averaged down; other bit depths are rescaled.
func DecodeWAV(data []byte) (*PCM, error) {
	d := wav.NewDecoder(bytes.NewReader(data))
	if !d.IsValidFile() {
		return nil, ErrNotWAV
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}

	channels := buf.Format.NumChannels
	if channels <= 0 {
		channels = 1
	}
	shift := int(d.BitDepth) - 16

	frames := len(buf.Data) / channels
	samples := make([]int16, frames)
	for f := 0; f < frames; f++ {
		var sum int
		for c := 0; c < channels; c++ {
			sum += buf.Data[f*channels+c]
		}
		samples[f] = rescale(sum/channels, shift)
	}
	return &PCM{SampleRate: buf.Format.SampleRate, Samples: samples}, nil
}

func rescale(v, shift int) int16 {
	switch {
	case shift > 0:
		v >>= shift
	case shift < 0:
		// 8-bit WAV is unsigned
		if shift == -8 {
			v -= 128
		}
		v <<= -shift
	}
	if v > 32767 {
		v = 32767
	}
	if v < -32768 {
		v = -32768
	}
	return int16(v)
}

// EncodeWAV writes samples as a mono 16-bit PCM WAV file.
func EncodeWAV(w io.WriteSeeker, sampleRate int, samples []int16) error {
	enc := wav.NewEncoder(w, sampleRate, 16, 1, 1)
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}
	ib := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(ib); err != nil {
		return fmt.Errorf("encoder write buffer: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoder close: %w", err)
	}
	return nil
}
