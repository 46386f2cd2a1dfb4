package whisperserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kbukum/podscribe/audio"
)

func TestTranscribeWholeSendsBase64JSON(t *testing.T) {
	var got transcribeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/transcribe" {
			t.Errorf("expected POST /transcribe, got %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected application/json, got %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "hello from the server"})
	}))
	defer srv.Close()

	p, err := NewProvider(Config{URL: srv.URL + "/"})
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	text, err := p.TranscribeWhole(context.Background(), audio.NewBuffer([]byte("RIFFdata"), "wav"))
	if err != nil {
		t.Fatalf("TranscribeWhole: %v", err)
	}
	if text != "hello from the server" {
		t.Errorf("expected server text, got %q", text)
	}
	if got.Model != "tiny" {
		t.Errorf("expected default model tiny, got %q", got.Model)
	}
	if got.AudioFormat != "wav" {
		t.Errorf("expected audio_format wav, got %q", got.AudioFormat)
	}
	decoded, _ := base64.StdEncoding.DecodeString(got.Audio)
	if string(decoded) != "RIFFdata" {
		t.Errorf("expected base64 audio payload, got %q", decoded)
	}
}

func TestTranscribeEmptyText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"text":"   "}`))
	}))
	defer srv.Close()

	p, _ := NewProvider(Config{URL: srv.URL})
	text, err := p.TranscribeWhole(context.Background(), audio.NewBuffer([]byte("x"), "mp3"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != NoTranscription {
		t.Errorf("expected %q, got %q", NoTranscription, text)
	}
}

func TestTranscribeNonOKStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"server error", http.StatusInternalServerError},
		{"bad request", http.StatusBadRequest},
		{"accepted but not ok", http.StatusAccepted},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(`{"text":"ignored"}`))
			}))
			defer srv.Close()

			p, _ := NewProvider(Config{URL: srv.URL})
			_, err := p.TranscribeWhole(context.Background(), audio.NewBuffer([]byte("x"), "mp3"))
			if err == nil {
				t.Fatal("expected error for non-200 status")
			}
			if !strings.Contains(err.Error(), "server returned status") {
				t.Errorf("expected status in error, got %v", err)
			}
		})
	}
}

func TestIsAvailable(t *testing.T) {
	unset, _ := NewProvider(Config{})
	if unset.IsAvailable(context.Background()) {
		t.Error("expected provider without URL to be unavailable")
	}
	set, _ := NewProvider(Config{URL: "http://localhost:9000"})
	if !set.IsAvailable(context.Background()) {
		t.Error("expected provider with URL to be available")
	}
	if _, err := unset.TranscribeWhole(context.Background(), audio.NewBuffer([]byte("x"), "mp3")); err == nil {
		t.Error("expected error when transcribing without URL")
	}
}

func TestAPIKeyHeaders(t *testing.T) {
	tests := []struct {
		name   string
		header string
		check  string
		want   string
	}{
		{"bearer by default", "", "Authorization", "Bearer secret"},
		{"custom header", "X-Api-Key", "X-Api-Key", "secret"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get(tc.check); got != tc.want {
					t.Errorf("expected %s %q, got %q", tc.check, tc.want, got)
				}
				_, _ = w.Write([]byte(`{"text":"ok"}`))
			}))
			defer srv.Close()

			p, _ := NewProvider(Config{URL: srv.URL, APIKey: "secret", APIKeyHeader: tc.header})
			if _, err := p.TranscribeUnit(context.Background(), audio.Unit{Chunk: audio.Chunk{Data: []byte("x")}, Extension: "mp3"}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
