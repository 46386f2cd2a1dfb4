package local

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/kbukum/podscribe/logger"
	"github.com/kbukum/podscribe/storage"
)

func newStore(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(filepath.Join(t.TempDir(), "vault"))
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	return s
}

func TestUploadThenExists(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	const doc = "transcripts/Hard Fork/Episode 12.md"

	if ok, err := s.Exists(ctx, doc); err != nil || ok {
		t.Fatalf("expected missing document, got ok=%v err=%v", ok, err)
	}
	if err := s.Upload(ctx, doc, strings.NewReader("# Episode 12")); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if err := s.Upload(ctx, doc, strings.NewReader("late writer")); !errors.Is(err, storage.ErrExists) {
		t.Fatalf("expected ErrExists on second upload, got %v", err)
	}
	if ok, err := s.Exists(ctx, doc); err != nil || !ok {
		t.Fatalf("expected document, got ok=%v err=%v", ok, err)
	}

	data, err := os.ReadFile(filepath.Join(s.Root(), filepath.FromSlash(doc)))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "# Episode 12" {
		t.Errorf("expected the first document kept, got %q", data)
	}
	entries, _ := os.ReadDir(filepath.Dir(filepath.Join(s.Root(), filepath.FromSlash(doc))))
	if len(entries) != 1 {
		t.Errorf("expected no temp files left, got %d entries", len(entries))
	}
}

func TestExists_DirectoryIsNotADocument(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	if err := s.Upload(ctx, "transcripts/Show/a.md", strings.NewReader("a")); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if ok, _ := s.Exists(ctx, "transcripts/Show"); ok {
		t.Error("expected a directory not to count as a document")
	}
}

func TestUpload_ClampsToRoot(t *testing.T) {
	s := newStore(t)
	if err := s.Upload(context.Background(), "../../escape.md", strings.NewReader("x")); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.Root(), "escape.md")); err != nil {
		t.Errorf("expected file under root: %v", err)
	}
}

func TestUpload_FailedWriteLeavesNothing(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	err := s.Upload(ctx, "broken.md", iotest.ErrReader(os.ErrClosed))
	if err == nil {
		t.Fatal("expected write error")
	}
	entries, _ := os.ReadDir(s.Root())
	if len(entries) != 0 {
		t.Errorf("expected empty root, got %d entries", len(entries))
	}
}

func TestNewStorage_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	s, err := NewStorage("~/Notes")
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	if s.Root() != filepath.Join(home, "Notes") {
		t.Errorf("expected %s, got %s", filepath.Join(home, "Notes"), s.Root())
	}
}

func TestFactoryRegistered(t *testing.T) {
	st, err := storage.New(storage.Config{Provider: storage.ProviderLocal, BasePath: t.TempDir()}, logger.Nop())
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	if _, ok := st.(*Storage); !ok {
		t.Errorf("expected *local.Storage, got %T", st)
	}
}
