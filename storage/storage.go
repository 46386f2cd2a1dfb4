package storage

import (
	"context"
	"errors"
	"io"
)

// ErrExists is returned by Upload when a document is already at the path.
var ErrExists = errors.New("document already exists")

// Storage is a document store addressed by slash-separated relative paths.
// Paths are clamped below the store root; "../" never escapes it.
type Storage interface {
	Exists(ctx context.Context, path string) (bool, error)
	// Upload creates the document at path and never replaces one, failing
	// with ErrExists instead. Readers never see a partial write.
	Upload(ctx context.Context, path string, r io.Reader) error
}
