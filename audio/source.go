package audio

import "context"

// Source acquires the audio for one run. Fetch may block on I/O.
type Source interface {
	Fetch(ctx context.Context) (*Buffer, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (*Buffer, error)

// Fetch calls f.
func (f SourceFunc) Fetch(ctx context.Context) (*Buffer, error) { return f(ctx) }

// Static returns a Source that always yields buf.
func Static(buf *Buffer) Source {
	return SourceFunc(func(context.Context) (*Buffer, error) { return buf, nil })
}
