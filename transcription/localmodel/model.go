package localmodel

import "context"

// Model is a loaded speech model. It is shared by every run in the process
// and freed with Close.
type Model interface {
	NewRecognizer(sampleRate int) (Recognizer, error)
	Close() error
}

// Recognizer consumes PCM windows for one transcription.
type Recognizer interface {
	// AcceptWaveform feeds the next window. It reports true when a segment
	// has been finalized and can be read with Result.
	AcceptWaveform(ctx context.Context, samples []int16) (bool, error)
	// Result returns the text of the most recently finalized segment.
	Result() string
	// FinalResult flushes buffered audio and returns its text.
	FinalResult(ctx context.Context) (string, error)
}

// Loader loads a Model. It is called at most once per Handle lifetime
// unless the previous load failed or the handle was closed.
type Loader func(ctx context.Context) (Model, error)
