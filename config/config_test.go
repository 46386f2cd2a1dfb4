package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/podscribe/logger"
)

func TestServiceConfigApplyDefaults(t *testing.T) {
	tests := []struct {
		name       string
		in         ServiceConfig
		wantEnv    string
		wantFormat string
	}{
		{"empty", ServiceConfig{}, "development", "console"},
		{"production logs json", ServiceConfig{Environment: " Production "}, "production", "json"},
		{"explicit format wins", ServiceConfig{Environment: "production", Logging: logger.Config{Format: "pretty"}}, "production", "pretty"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := tc.in
			cfg.ApplyDefaults()
			if cfg.Name != "podscribe" {
				t.Errorf("expected name podscribe, got %q", cfg.Name)
			}
			if cfg.Environment != tc.wantEnv {
				t.Errorf("expected environment %q, got %q", tc.wantEnv, cfg.Environment)
			}
			if cfg.Logging.Format != tc.wantFormat {
				t.Errorf("expected format %q, got %q", tc.wantFormat, cfg.Logging.Format)
			}
			if cfg.Logging.ServiceName != "podscribe" {
				t.Errorf("expected logging service name to follow name, got %q", cfg.Logging.ServiceName)
			}
		})
	}
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		wantErr string
	}{
		{"valid development", "development", ""},
		{"valid production", "production", ""},
		{"invalid environment", "moon", "config.environment must be one of"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := ServiceConfig{Name: "svc", Environment: tc.env}
			cfg.Logging.ApplyDefaults()
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

type testConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Transcription struct {
		Backend      string        `mapstructure:"backend"`
		RetryBackoff time.Duration `mapstructure:"retry_backoff"`
		Remote       struct {
			APIKey string `mapstructure:"api_key"`
		} `mapstructure:"remote"`
	} `mapstructure:"transcription"`
}

func TestLoadConfigWithYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	yamlContent := `
name: podscribe
environment: staging
transcription:
  backend: self_hosted
  retry_backoff: 2s
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	var cfg testConfig
	if err := LoadConfig("podscribe", &cfg, WithConfigFile(configPath)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Environment != "staging" {
		t.Errorf("expected environment 'staging', got %q", cfg.Environment)
	}
	if cfg.Transcription.Backend != "self_hosted" {
		t.Errorf("expected backend self_hosted, got %q", cfg.Transcription.Backend)
	}
	if cfg.Transcription.RetryBackoff != 2*time.Second {
		t.Errorf("expected 2s backoff, got %v", cfg.Transcription.RetryBackoff)
	}
}

func TestLoadConfigEnvOverridesNestedKey(t *testing.T) {
	t.Setenv("TRANSCRIPTION_REMOTE_API_KEY", "sk-env")
	t.Setenv("TRANSCRIPTION_BACKEND", "remote_api")

	var cfg testConfig
	err := LoadConfig("podscribe", &cfg, WithFileSystem(&mockFS{files: map[string]bool{}}))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Transcription.Remote.APIKey != "sk-env" {
		t.Errorf("expected api key from env, got %q", cfg.Transcription.Remote.APIKey)
	}
	if cfg.Transcription.Backend != "remote_api" {
		t.Errorf("expected backend from env, got %q", cfg.Transcription.Backend)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	var cfg testConfig
	err := LoadConfig("podscribe", &cfg, WithConfigFile("/nonexistent/path.yml"))
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found error for explicit path, got %v", err)
	}
}

func TestLoadConfigNoFileFound(t *testing.T) {
	var cfg testConfig
	if err := LoadConfig("podscribe", &cfg, WithFileSystem(&mockFS{})); err != nil {
		t.Fatalf("expected defaults-only load to succeed, got %v", err)
	}
}

func TestLoadConfigPrefixedEnvWins(t *testing.T) {
	t.Setenv("TRANSCRIPTION_BACKEND", "remote_api")
	t.Setenv("PODSCRIBE_TRANSCRIPTION_BACKEND", "local_model")

	var cfg testConfig
	if err := LoadConfig("podscribe", &cfg, WithFileSystem(&mockFS{})); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Transcription.Backend != "local_model" {
		t.Errorf("expected prefixed variable to win, got %q", cfg.Transcription.Backend)
	}
}

func TestLoadConfigMalformedFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(configPath, []byte("transcription: [unclosed"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	var cfg testConfig
	if err := LoadConfig("podscribe", &cfg, WithConfigFile(configPath)); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestSearchPaths(t *testing.T) {
	paths := SearchPaths("podscribe")
	if paths[0] != "./podscribe.yml" {
		t.Errorf("expected ./podscribe.yml first, got %v", paths)
	}
	fs := &mockFS{files: map[string]bool{"./config/config.yml": true, "./config.yml": true}}
	if got := firstExisting(fs, paths); got != "./config.yml" {
		t.Errorf("expected ./config.yml to win over ./config/config.yml, got %q", got)
	}
}

func TestKeys(t *testing.T) {
	keys := Keys(&testConfig{})
	want := map[string]bool{
		"name":                         true,
		"logging.level":                true,
		"transcription.backend":        true,
		"transcription.retry_backoff":  true,
		"transcription.remote.api_key": true,
	}
	got := map[string]bool{}
	for _, k := range keys {
		got[k] = true
	}
	for k := range want {
		if !got[k] {
			t.Errorf("expected key %q in %v", k, keys)
		}
	}
	if got["serviceconfig.name"] || got["transcription.remote"] {
		t.Errorf("expected squashed and nested structs to be flattened, got %v", keys)
	}
	if Keys("not a struct") != nil {
		t.Error("expected no keys for non-struct")
	}
}

func TestEnvName(t *testing.T) {
	if got := EnvName("transcription.remote.api_key"); got != "TRANSCRIPTION_REMOTE_API_KEY" {
		t.Errorf("unexpected env name %q", got)
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool   { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }
