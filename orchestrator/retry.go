package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/kbukum/podscribe/errors"
	"github.com/kbukum/podscribe/resilience"
)

// RetryPolicy bounds how often a chunk is retried and how long to wait
// between attempts.
type RetryPolicy struct {
	MaxAttempts int
	BackoffBase time.Duration
	Strategy    resilience.BackoffStrategy
}

// DefaultRetryPolicy makes 3 attempts waiting 1s then 2s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BackoffBase: time.Second,
		Strategy:    resilience.BackoffLinear,
	}
}

func (p *RetryPolicy) applyDefaults() {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.BackoffBase <= 0 {
		p.BackoffBase = time.Second
	}
}

// ChunkResult is the settled outcome of one dispatched unit. Text holds the
// transcript fragment, or a placeholder when Err is set.
type ChunkResult struct {
	Index    int    `json:"index"`
	Text     string `json:"text"`
	Attempts int    `json:"attempts"`
	Err      error  `json:"-"`
}

// Failed reports whether the chunk exhausted its retries.
func (r ChunkResult) Failed() bool { return r.Err != nil }

// Placeholder is the fragment substituted for a chunk that could not be
// transcribed.
func Placeholder(index int) string {
	return fmt.Sprintf("[Error transcribing chunk %d]", index)
}

// ChunkTask performs one transcription attempt.
type ChunkTask func(ctx context.Context) (string, error)

// RetryExecutor runs chunk tasks with bounded retries. Exhausted chunks are
// converted to placeholders and never returned as errors.
type RetryExecutor struct {
	Policy RetryPolicy
	// OnAttempt is called after every attempt with the 1-based attempt number.
	OnAttempt func(index, attempt int, err error)
}

// Execute runs task for chunk index until it succeeds or the policy is
// exhausted. Backoff waits end early when ctx is cancelled.
func (e *RetryExecutor) Execute(ctx context.Context, index int, task ChunkTask) ChunkResult {
	policy := e.Policy
	policy.applyDefaults()

	attempts := 0
	cfg := resilience.RetryConfig{
		MaxAttempts:    policy.MaxAttempts,
		InitialBackoff: policy.BackoffBase,
		MaxBackoff:     policy.BackoffBase * time.Duration(policy.MaxAttempts),
		Strategy:       policy.Strategy,
		BackoffFactor:  2,
		// Backend timeouts wrap context.DeadlineExceeded too; only the run
		// ending stops the retries.
		RetryIf: func(error) bool { return ctx.Err() == nil },
		OnAttempt: func(attempt int, err error) {
			attempts = attempt
			if e.OnAttempt != nil {
				e.OnAttempt(index, attempt, err)
			}
		},
	}

	text, err := resilience.Retry(ctx, cfg, func() (string, error) {
		return task(ctx)
	})
	if err != nil {
		return ChunkResult{
			Index:    index,
			Text:     Placeholder(index),
			Attempts: attempts,
			Err:      errors.ChunkFailed(index, attempts, err),
		}
	}
	return ChunkResult{Index: index, Text: text, Attempts: attempts}
}
