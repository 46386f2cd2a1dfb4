package database

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	"github.com/kbukum/podscribe/component"
	apperrors "github.com/kbukum/podscribe/errors"
	"github.com/kbukum/podscribe/logger"
)

type widget struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"uniqueIndex"`
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Path != "podscribe.db" {
		t.Errorf("expected default path, got %q", cfg.Path)
	}
	if cfg.MaxOpenConns != 1 {
		t.Errorf("expected 1 open conn, got %d", cfg.MaxOpenConns)
	}
	if cfg.BusyTimeout != "5s" || cfg.LogLevel != "warn" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"disabled skips checks", func(c *Config) { c.Enabled = false; c.BusyTimeout = "soon" }, false},
		{"bad busy timeout", func(c *Config) { c.BusyTimeout = "soon" }, true},
		{"bad lifetime", func(c *Config) { c.ConnMaxLifetime = "forever" }, true},
		{"bad slow threshold", func(c *Config) { c.SlowQueryThreshold = "x" }, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Config{Enabled: true}
			cfg.ApplyDefaults()
			tc.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tc.wantErr {
				t.Errorf("expected error=%v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestConfigDSN(t *testing.T) {
	cfg := Config{Path: MemoryPath}
	cfg.ApplyDefaults()
	if dsn := cfg.DSN(); dsn != "file::memory:?_busy_timeout=5000&_foreign_keys=on" {
		t.Errorf("unexpected memory DSN %q", dsn)
	}
	cfg.Path = "/tmp/h.db"
	if dsn := cfg.DSN(); !strings.HasPrefix(dsn, "file:/tmp/h.db?") || !strings.Contains(dsn, "_journal_mode=WAL") {
		t.Errorf("unexpected file DSN %q", dsn)
	}
}

func TestOpenMigrateAndClose(t *testing.T) {
	ctx := context.Background()
	cfg := Config{Path: filepath.Join(t.TempDir(), "test.db")}
	db, err := Open(ctx, cfg, logger.Nop())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if err := db.AutoMigrate(&widget{}); err != nil {
		t.Fatalf("AutoMigrate failed: %v", err)
	}
	if err := db.WithContext(ctx).Create(&widget{Name: "b"}).Error; err != nil {
		t.Fatalf("create failed: %v", err)
	}
	dupErr := db.WithContext(ctx).Create(&widget{Name: "b"}).Error
	if !IsConstraintError(dupErr) {
		t.Errorf("expected constraint error, got %v", dupErr)
	}

	if err := db.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
	if err := db.Ping(ctx); err == nil {
		t.Error("expected ping to fail after Close")
	}
}

func TestOpen_GivesUpAfterRetries(t *testing.T) {
	cfg := Config{Path: filepath.Join(t.TempDir(), "missing-dir", "h.db"), MaxRetries: 1}
	if _, err := Open(context.Background(), cfg, logger.Nop()); err == nil {
		t.Fatal("expected error for a database in a missing directory")
	}
}

func TestFromDatabase(t *testing.T) {
	if FromDatabase(nil, "run") != nil {
		t.Error("expected nil for nil error")
	}
	if appErr := FromDatabase(gorm.ErrRecordNotFound, "run"); appErr.Code != apperrors.ErrCodeNotFound {
		t.Errorf("expected NOT_FOUND, got %s", appErr.Code)
	}
	busy := sqlite3.Error{Code: sqlite3.ErrBusy}
	if appErr := FromDatabase(busy, "run"); appErr.Code != apperrors.ErrCodeDatabaseError || !appErr.Retryable {
		t.Errorf("expected retryable DATABASE_ERROR, got %+v", appErr)
	}
	if appErr := FromDatabase(errors.New("disk I/O error"), "run"); appErr.Code != apperrors.ErrCodeDatabaseError {
		t.Errorf("expected DATABASE_ERROR, got %s", appErr.Code)
	}
}

func TestComponentLifecycle(t *testing.T) {
	ctx := context.Background()

	disabled := NewComponent(Config{}, logger.Nop())
	if err := disabled.Start(ctx); err != nil {
		t.Fatalf("disabled Start failed: %v", err)
	}
	if disabled.DB() != nil {
		t.Error("disabled component should not open a database")
	}
	if h := disabled.Health(ctx); h.Status != component.StatusHealthy || h.Message != "disabled" {
		t.Errorf("unexpected disabled health %+v", h)
	}

	c := NewComponent(Config{Enabled: true, Path: MemoryPath}, logger.Nop())
	if h := c.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy before start, got %s", h.Status)
	}
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := c.DB().AutoMigrate(&widget{}); err != nil {
		t.Fatalf("AutoMigrate failed: %v", err)
	}
	if !c.DB().GormDB.Migrator().HasTable(&widget{}) {
		t.Error("expected widget table to be migrated")
	}
	if h := c.Health(ctx); h.Status != component.StatusHealthy {
		t.Errorf("expected healthy, got %+v", h)
	}
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if h := c.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy after stop, got %s", h.Status)
	}
}
