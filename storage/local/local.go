// Package local stores documents in a directory tree such as a notes vault.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kbukum/podscribe/logger"
	"github.com/kbukum/podscribe/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderLocal, func(cfg storage.Config, _ *logger.Logger) (storage.Storage, error) {
		return NewStorage(cfg.BasePath)
	})
}

const (
	dirMode  = 0o750
	fileMode = 0o644
)

// Storage is rooted at an absolute directory created on demand.
type Storage struct {
	root string
}

var _ storage.Storage = (*Storage)(nil)

func NewStorage(root string) (*Storage, error) {
	if rest, ok := strings.CutPrefix(root, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			root = filepath.Join(home, rest)
		}
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("local storage: %w", err)
	}
	if err := os.MkdirAll(abs, dirMode); err != nil {
		return nil, fmt.Errorf("local storage: %w", err)
	}
	return &Storage{root: abs}, nil
}

func (s *Storage) Root() string { return s.root }

// abs maps a document path below the root.
func (s *Storage) abs(p string) string {
	return filepath.Join(s.root, filepath.Clean(string(filepath.Separator)+filepath.FromSlash(p)))
}

func (s *Storage) Exists(_ context.Context, p string) (bool, error) {
	info, err := os.Stat(s.abs(p))
	switch {
	case err == nil:
		return info.Mode().IsRegular(), nil
	case os.IsNotExist(err):
		return false, nil
	}
	return false, fmt.Errorf("local storage: %w", err)
}

// Upload writes to a sibling temp file and links it at p, so an existing
// document is never replaced.
func (s *Storage) Upload(_ context.Context, p string, r io.Reader) error {
	dst := s.abs(p)
	if err := os.MkdirAll(filepath.Dir(dst), dirMode); err != nil {
		return fmt.Errorf("local storage: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".podscribe-*")
	if err != nil {
		return fmt.Errorf("local storage: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("local storage: write %s: %w", p, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("local storage: %w", err)
	}
	if err := os.Chmod(tmp.Name(), fileMode); err != nil {
		return fmt.Errorf("local storage: %w", err)
	}
	return publish(tmp.Name(), dst, p)
}

// publish moves tmp to dst unless dst exists. Filesystems without hard
// links fall back to a stat check before the rename.
func publish(tmp, dst, p string) error {
	err := os.Link(tmp, dst)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrExist):
		return fmt.Errorf("local storage: %s: %w", p, storage.ErrExists)
	}
	if _, statErr := os.Lstat(dst); statErr == nil {
		return fmt.Errorf("local storage: %s: %w", p, storage.ErrExists)
	}
	if err := os.Rename(tmp, dst); err != nil {
		return fmt.Errorf("local storage: %w", err)
	}
	return nil
}
