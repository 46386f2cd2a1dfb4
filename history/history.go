package history

import (
	"context"
	"fmt"
	"time"

	"github.com/kbukum/podscribe/database"
	"github.com/kbukum/podscribe/logger"
	"github.com/kbukum/podscribe/orchestrator"
)

// DefaultLimit is the number of runs returned by Recent when no limit is given.
const DefaultLimit = 20

// Run is one settled transcription as stored in the history table.
type Run struct {
	RunID        string    `gorm:"primaryKey;size:36" json:"run_id"`
	Title        string    `json:"title"`
	Podcast      string    `gorm:"index" json:"podcast"`
	Path         string    `gorm:"index" json:"path"`
	Backend      string    `json:"backend,omitempty"`
	FellBack     bool      `json:"fell_back,omitempty"`
	Fingerprint  string    `gorm:"index;size:64" json:"fingerprint,omitempty"`
	Chunks       int       `json:"chunks"`
	FailedChunks int       `json:"failed_chunks"`
	Outcome      string    `gorm:"size:16" json:"outcome"`
	Error        string    `json:"error,omitempty"`
	StartedAt    time.Time `gorm:"index" json:"started_at"`
	ElapsedMs    int64     `json:"elapsed_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName pins the table name.
func (Run) TableName() string { return "transcription_runs" }

// Succeeded reports whether the run saved a document.
func (r Run) Succeeded() bool { return r.Outcome == orchestrator.OutcomeDone }

// Store persists runs in SQLite. It implements orchestrator.Recorder.
type Store struct {
	db  *database.DB
	log *logger.Logger
}

var _ orchestrator.Recorder = (*Store)(nil)

// NewStore creates a Store on an open database. The Run table must already
// be migrated; see Migrate.
func NewStore(db *database.DB) *Store {
	return &Store{db: db, log: logger.Get("history")}
}

// Migrate creates or updates the history table.
func Migrate(db *database.DB) error {
	return db.AutoMigrate(&Run{})
}

// Record stores rec. Recording the same run id twice replaces the row.
func (s *Store) Record(ctx context.Context, rec orchestrator.Record) error {
	row := Run{
		RunID:        rec.RunID,
		Title:        rec.Episode.Title,
		Podcast:      rec.Episode.Podcast,
		Path:         rec.Path,
		Backend:      rec.Backend,
		FellBack:     rec.FellBack,
		Fingerprint:  rec.Fingerprint,
		Chunks:       rec.Chunks,
		FailedChunks: rec.FailedChunks,
		Outcome:      rec.Outcome,
		Error:        rec.Error,
		StartedAt:    rec.StartedAt.UTC(),
		ElapsedMs:    rec.Elapsed.Milliseconds(),
	}
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return database.FromDatabase(err, "transcription run")
	}
	s.log.Debug("run recorded", logger.Fields("run_id", rec.RunID, "outcome", rec.Outcome))
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	var runs []Run
	err := s.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, database.FromDatabase(err, "transcription run")
	}
	return runs, nil
}

// Get returns the run with the given id.
func (s *Store) Get(ctx context.Context, runID string) (*Run, error) {
	var run Run
	if err := s.db.WithContext(ctx).First(&run, "run_id = ?", runID).Error; err != nil {
		return nil, database.FromDatabase(err, "transcription run")
	}
	return &run, nil
}

// ByFingerprint returns every run of the same audio, newest first.
func (s *Store) ByFingerprint(ctx context.Context, fingerprint string) ([]Run, error) {
	if fingerprint == "" {
		return nil, fmt.Errorf("history: fingerprint is required")
	}
	var runs []Run
	err := s.db.WithContext(ctx).
		Where("fingerprint = ?", fingerprint).
		Order("started_at DESC").
		Find(&runs).Error
	if err != nil {
		return nil, database.FromDatabase(err, "transcription run")
	}
	return runs, nil
}
