package orchestrator

import (
	"fmt"
	"time"
)

// Phase is a step of the run state machine:
// Idle → Preparing → Downloading → Transcribing → Saving → Done, with
// Errored reachable from any non-idle phase.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhasePreparing    Phase = "preparing"
	PhaseDownloading  Phase = "downloading"
	PhaseTranscribing Phase = "transcribing"
	PhaseSaving       Phase = "saving"
	PhaseDone         Phase = "done"
	PhaseErrored      Phase = "errored"
)

// Terminal reports whether the phase ends a run.
func (p Phase) Terminal() bool { return p == PhaseDone || p == PhaseErrored }

// State is a snapshot of the orchestrator. While idle, Last holds the final
// state of the previous run, if any.
type State struct {
	RunID           string     `json:"run_id,omitempty"`
	Phase           Phase      `json:"phase"`
	Title           string     `json:"title,omitempty"`
	Podcast         string     `json:"podcast,omitempty"`
	Path            string     `json:"path,omitempty"`
	Backend         string     `json:"backend,omitempty"`
	Message         string     `json:"message,omitempty"`
	ChunksCompleted int        `json:"chunks_completed,omitempty"`
	ChunksTotal     int        `json:"chunks_total,omitempty"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	Elapsed         string     `json:"elapsed,omitempty"`
	Last            *State     `json:"last,omitempty"`
}

// FormatElapsed renders d as HH:MM:SS, truncated to whole seconds.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	s := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s/60)%60, s%60)
}
