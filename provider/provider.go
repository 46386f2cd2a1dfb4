package provider

import "context"

// Provider is implemented by every swappable backend.
type Provider interface {
	Name() string
	// IsAvailable reports whether the backend is configured and usable
	// right now, e.g. an API key is set or a server URL is reachable.
	IsAvailable(ctx context.Context) bool
}

// Closeable providers hold resources, such as a loaded model, released by
// Registry.Close.
type Closeable interface {
	Close(ctx context.Context) error
}
