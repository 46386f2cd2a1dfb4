package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kbukum/podscribe/logger"
	"github.com/kbukum/podscribe/resilience"
)

// DB is an open SQLite database.
type DB struct {
	GormDB *gorm.DB

	log    *logger.Logger
	mu     sync.Mutex
	closed bool
}

// Open opens the database at cfg.Path and verifies it with a ping. Failures
// are retried MaxRetries times with a linear one-second backoff, which
// covers a database file briefly locked by another podscribe process.
func Open(ctx context.Context, cfg Config, log *logger.Logger) (*DB, error) {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Get("database")
	}
	slow, _ := time.ParseDuration(cfg.SlowQueryThreshold)
	gormCfg := &gorm.Config{Logger: newGormLogger(log, slow, parseLogLevel(cfg.LogLevel))}

	retry := resilience.RetryConfig{
		MaxAttempts:    cfg.MaxRetries,
		InitialBackoff: time.Second,
		MaxBackoff:     5 * time.Second,
		Strategy:       resilience.BackoffLinear,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			log.Warn("database open failed, retrying", logger.Fields(
				"attempt", attempt,
				logger.FieldError, err.Error(),
				"backoff", backoff.String(),
			))
		},
	}
	gdb, err := resilience.Retry(ctx, retry, func() (*gorm.DB, error) {
		return connect(ctx, cfg, gormCfg)
	})
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.Path, err)
	}
	log.Info("database opened", logger.Fields(logger.FieldPath, cfg.Path))
	return &DB{GormDB: gdb, log: log}, nil
}

func connect(ctx context.Context, cfg Config, gormCfg *gorm.Config) (*gorm.DB, error) {
	gdb, err := gorm.Open(sqlite.Open(cfg.DSN()), gormCfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxOpenConns)
	// An in-memory database disappears with its last connection.
	if cfg.Path != MemoryPath {
		if lifetime, err := time.ParseDuration(cfg.ConnMaxLifetime); err == nil {
			sqlDB.SetConnMaxLifetime(lifetime)
		}
	}
	return gdb, nil
}

// Close is idempotent.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	sqlDB, err := d.GormDB.DB()
	if err != nil {
		return err
	}
	d.closed = true
	return sqlDB.Close()
}

// Ping fails once the database is closed.
func (d *DB) Ping(ctx context.Context) error {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return fmt.Errorf("database is closed")
	}
	sqlDB, err := d.GormDB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// WithContext returns a GORM session bound to ctx.
func (d *DB) WithContext(ctx context.Context) *gorm.DB {
	return d.GormDB.WithContext(ctx)
}

// AutoMigrate creates or alters the tables for models.
func (d *DB) AutoMigrate(models ...any) error {
	if err := d.GormDB.AutoMigrate(models...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
