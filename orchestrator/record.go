package orchestrator

import (
	"context"
	"time"

	"github.com/kbukum/podscribe/episode"
)

// Run outcomes stored in history.
const (
	OutcomeDone   = "done"
	OutcomeFailed = "failed"
)

// Record summarizes a settled run for history.
type Record struct {
	RunID        string          `json:"run_id"`
	Episode      episode.Episode `json:"episode"`
	Path         string          `json:"path"`
	Backend      string          `json:"backend,omitempty"`
	FellBack     bool            `json:"fell_back,omitempty"`
	Fingerprint  string          `json:"fingerprint,omitempty"`
	Chunks       int             `json:"chunks"`
	FailedChunks int             `json:"failed_chunks"`
	Outcome      string          `json:"outcome"`
	Error        string          `json:"error,omitempty"`
	StartedAt    time.Time       `json:"started_at"`
	Elapsed      time.Duration   `json:"elapsed"`
}

// Recorder persists settled runs.
type Recorder interface {
	Record(ctx context.Context, rec Record) error
}
