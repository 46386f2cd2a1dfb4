package transcription

import (
	"context"

	"github.com/kbukum/podscribe/audio"
	"github.com/kbukum/podscribe/provider"
)

// Backend is the uniform contract every transcription variant implements.
//
// IsAvailable reports whether the backend's configuration prerequisites
// (API key, server URL, model path) are present. It does not contact the
// network.
type Backend interface {
	provider.Provider

	// Kind returns the variant this backend implements.
	Kind() Kind
	// TranscribeUnit transcribes one chunk of a larger buffer.
	TranscribeUnit(ctx context.Context, unit audio.Unit) (string, error)
	// TranscribeWhole transcribes a complete buffer in one call.
	TranscribeWhole(ctx context.Context, buf *audio.Buffer) (string, error)
}
