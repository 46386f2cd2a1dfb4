package episode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestMerge(t *testing.T) {
	primary := Episode{Title: "  ", Podcast: "Show"}
	fallback := Episode{
		Title:   "From tags",
		Podcast: "Other",
		Date:    time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		URL:     "https://example.com",
	}
	got := primary.Merge(fallback)
	if got.Title != "From tags" {
		t.Errorf("expected fallback title, got %q", got.Title)
	}
	if got.Podcast != "Show" {
		t.Errorf("expected primary podcast kept, got %q", got.Podcast)
	}
	if got.Date.Year() != 2023 || got.URL != "https://example.com" {
		t.Errorf("expected date and url filled, got %+v", got)
	}
}

func TestBaseName(t *testing.T) {
	if got := (Episode{Title: "Ep. 1: Intro"}).BaseName(); got != "Ep 1 Intro" {
		t.Errorf("expected sanitized base name, got %q", got)
	}
	if got := (Episode{}).BaseName(); got != "episode" {
		t.Errorf("expected fallback base name, got %q", got)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		ok   bool
		year int
	}{
		{"2024-03-05", true, 2024},
		{"Tue, 05 Mar 2024 10:00:00 +0000", true, 2024},
		{"2024-03-05T10:00:00Z", true, 2024},
		{"yesterday", false, 0},
	}
	for _, tc := range tests {
		got, ok := ParseDate(tc.in)
		if ok != tc.ok {
			t.Errorf("ParseDate(%q) ok=%v, want %v", tc.in, ok, tc.ok)
			continue
		}
		if ok && got.Year() != tc.year {
			t.Errorf("ParseDate(%q) year=%d, want %d", tc.in, got.Year(), tc.year)
		}
	}
}

func TestDownloadUsesContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); !strings.HasPrefix(ua, "podscribe/") {
			t.Errorf("expected default user agent, got %q", ua)
		}
		w.Header().Set("Content-Type", "audio/x-m4a")
		_, _ = w.Write([]byte("audio-bytes"))
	}))
	defer srv.Close()

	d, err := NewDownloader(DownloadConfig{})
	if err != nil {
		t.Fatalf("NewDownloader: %v", err)
	}
	buf, err := d.Source(srv.URL + "/feed/episode.mp3?token=1").Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(buf.Data) != "audio-bytes" {
		t.Errorf("unexpected body %q", buf.Data)
	}
	if buf.Extension != "m4a" || buf.MIMEType != "audio/mp4" {
		t.Errorf("expected m4a from content type, got %s %s", buf.Extension, buf.MIMEType)
	}
}

func TestDownloadFallsBackToURLExtension(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte("x"))
	}))
	defer srv.Close()

	d, _ := NewDownloader(DownloadConfig{})
	buf, err := d.Download(context.Background(), srv.URL+"/episode.ogg?x=1")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if buf.Extension != "ogg" {
		t.Errorf("expected ogg, got %s", buf.Extension)
	}
}

func TestDownloadNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	d, _ := NewDownloader(DownloadConfig{Retries: 1})
	if _, err := d.Download(context.Background(), srv.URL+"/missing.mp3"); err == nil {
		t.Error("expected error for 404")
	}
}

func TestFileSourceAndFromFileUntagged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "My Episode.wav")
	if err := os.WriteFile(path, []byte("not really audio"), 0o600); err != nil {
		t.Fatal(err)
	}

	buf, err := FileSource(path).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if buf.Extension != "wav" {
		t.Errorf("expected wav, got %s", buf.Extension)
	}

	ep, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile: %v", err)
	}
	if ep.Title != "My Episode" {
		t.Errorf("expected title from file name, got %q", ep.Title)
	}
}
