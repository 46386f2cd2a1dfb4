package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/podscribe/resilience"
)

func newTestClient(t *testing.T, h http.HandlerFunc, cfg Config) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg.BaseURL = srv.URL
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return c
}

func TestClient_Do_DownloadAudio(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/feeds/ep1.mp3" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("User-Agent"); got != "podscribe-test" {
			t.Errorf("expected default user agent, got %q", got)
		}
		if got := r.URL.Query().Get("token"); got != "abc" {
			t.Errorf("expected query token, got %q", got)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3..."))
	}, Config{Headers: map[string]string{"User-Agent": "podscribe-test"}})

	resp, err := c.Do(context.Background(), Request{
		Method: http.MethodGet,
		Path:   "/feeds/ep1.mp3",
		Query:  map[string]string{"token": "abc"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.IsSuccess() || string(resp.Body) != "ID3..." {
		t.Errorf("unexpected response %d %q", resp.StatusCode, resp.Body)
	}
	if resp.Header("Content-Type") != "audio/mpeg" {
		t.Errorf("expected audio/mpeg, got %q", resp.Header("Content-Type"))
	}
}

func TestClient_Do_JSONBodyAndAuth(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("expected application/json, got %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer per-request" {
			t.Errorf("expected per-request bearer, got %q", got)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body["model"] != "tiny" {
			t.Errorf("unexpected body %v (%v)", body, err)
		}
		_, _ = w.Write([]byte(`{"text":"hello"}`))
	}, Config{Auth: BearerAuth("client-default")})

	_, err := c.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/transcribe",
		Body:   map[string]string{"model": "tiny"},
		Auth:   BearerAuth("per-request"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_Do_BodyContentTypes(t *testing.T) {
	tests := []struct {
		name string
		body any
		want string
	}{
		{"string", "hello", "text/plain"},
		{"bytes", []byte("raw"), ""},
		{"reader", strings.NewReader("raw"), ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Content-Type"); got != tc.want {
					t.Errorf("expected %q, got %q", tc.want, got)
				}
			}, Config{})
			if _, err := c.Do(context.Background(), Request{Method: http.MethodPost, Path: "/", Body: tc.body}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestClient_Do_StatusIsClassified(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("gone"))
	}, Config{})

	resp, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/missing.mp3"})
	if !Is(err, ErrCodeNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
	if resp == nil || string(resp.Body) != "gone" {
		t.Error("expected the response to be returned alongside the error")
	}
}

func TestClient_Do_FullURLIgnoresBaseURL(t *testing.T) {
	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer other.Close()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("base URL should not be used")
	}, Config{})
	resp, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: other.URL + "/ep.mp3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204, got %d", resp.StatusCode)
	}
}

func TestClient_Do_ContextCanceled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}, Config{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/"})
	if !Is(err, ErrCodeTimeout) {
		t.Errorf("expected timeout, got %v", err)
	}
}

func TestClient_Do_RetriesTransientFailures(t *testing.T) {
	var attempts int32
	retry := DefaultRetryConfig()
	retry.MaxAttempts = 3
	retry.InitialBackoff = time.Millisecond

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}, Config{Retry: retry})

	if _, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestClient_Do_CircuitBreakerOpens(t *testing.T) {
	var hits int32
	cb := resilience.DefaultCircuitBreakerConfig("whisper-server")
	cb.MaxFailures = 2

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}, Config{CircuitBreaker: &cb})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, _ = c.Do(ctx, Request{Method: http.MethodGet, Path: "/"})
	}
	_, err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/"})
	if err != resilience.ErrCircuitOpen {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Errorf("expected the open breaker to short-circuit, server saw %d requests", got)
	}
}

func TestClient_Do_MaxResponseBytes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 64)))
	}, Config{MaxResponseBytes: 16})

	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/episode.mp3"})
	if !Is(err, ErrCodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if IsRetryable(err) {
		t.Error("oversized body should not be retryable")
	}
}
