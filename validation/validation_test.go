package validation

import (
	"strings"
	"testing"

	"github.com/kbukum/podscribe/errors"
)

type serverSection struct {
	URL     string `mapstructure:"url" validate:"omitempty,http_url"`
	Timeout string `mapstructure:"timeout" validate:"duration"`
}

type sample struct {
	Backend  string        `json:"backend" validate:"oneof=remote_api self_hosted local_model"`
	Retries  int           `json:"max_retries" validate:"gte=1"`
	Title    string        `json:"title" validate:"required"`
	Server   serverSection `json:"server"`
	Internal string        `validate:"omitempty,min=3"`
}

func TestValidate(t *testing.T) {
	valid := sample{
		Backend: "self_hosted",
		Retries: 3,
		Title:   "Ep",
		Server:  serverSection{URL: "http://localhost:9000", Timeout: "30s"},
	}
	if err := Validate(valid); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(s *sample)
		field   string
		message string
	}{
		{"bad backend", func(s *sample) { s.Backend = "pigeon" }, "backend", "must be one of: remote_api self_hosted local_model"},
		{"retries", func(s *sample) { s.Retries = 0 }, "max_retries", "must be at least 1"},
		{"title", func(s *sample) { s.Title = "" }, "title", "is required"},
		{"server url", func(s *sample) { s.Server.URL = "ftp://host" }, "server.url", "must be a valid URL"},
		{"timeout", func(s *sample) { s.Server.Timeout = "soon" }, "server.timeout", "must be a duration such as 1s or 500ms"},
		{"snake case fallback", func(s *sample) { s.Internal = "ab" }, "internal", "must be at least 3 characters"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := valid
			tc.mutate(&s)
			err := Validate(s)
			appErr, ok := errors.AsAppError(err)
			if !ok {
				t.Fatalf("expected AppError, got %v", err)
			}
			if appErr.Code != errors.ErrCodeInvalidInput {
				t.Errorf("expected INVALID_INPUT, got %s", appErr.Code)
			}
			want := tc.field + ": " + tc.message
			if !strings.Contains(appErr.Message, want) {
				t.Errorf("expected message to contain %q, got %q", want, appErr.Message)
			}
			fields, _ := appErr.Details["fields"].([]FieldError)
			if len(fields) != 1 || fields[0].Field != tc.field {
				t.Errorf("unexpected field details %+v", appErr.Details)
			}
		})
	}
}

func TestValidator(t *testing.T) {
	if err := New().Required("title", "Ep").OneOf("backend", "", []string{"a"}).Err(); err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	v := New().
		Required("title", "   ").
		OneOf("backend", "x", []string{"a", "b"}).
		Custom(false, "date", "must be YYYY-MM-DD")
	if len(v.Errors()) != 3 {
		t.Fatalf("expected 3 errors, got %v", v.Errors())
	}
	err := v.Err()
	if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
	if !strings.Contains(err.Error(), "backend: must be one of: a, b") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestValidatorExactlyOne(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		url     string
		wantErr bool
	}{
		{"file only", "a.mp3", "", false},
		{"url only", "", "https://x/a.mp3", false},
		{"neither", "", "", true},
		{"both", "a.mp3", "https://x/a.mp3", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := New().ExactlyOne(map[string]string{"file": tc.file, "url": tc.url})
			if v.HasErrors() != tc.wantErr {
				t.Fatalf("expected error=%v, got %v", tc.wantErr, v.Errors())
			}
			if tc.wantErr && v.Errors()[0].Field != "file|url" {
				t.Errorf("expected sorted field names, got %q", v.Errors()[0].Field)
			}
		})
	}
}
