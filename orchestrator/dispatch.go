package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/podscribe/audio"
	"github.com/kbukum/podscribe/errors"
	"github.com/kbukum/podscribe/logger"
	"github.com/kbukum/podscribe/observability"
	"github.com/kbukum/podscribe/resilience"
	"github.com/kbukum/podscribe/transcription"
)

// transcribeChunks splits buf, dispatches every unit concurrently under the
// configured cap and returns one result per chunk in index order.
func (o *Orchestrator) transcribeChunks(
	ctx context.Context,
	run *observability.RunTrace,
	backend transcription.Backend,
	buf *audio.Buffer,
	base string,
	notice *timerNotice,
) []ChunkResult {
	units := audio.Units(audio.Split(buf, o.cfg.MaxChunkBytes), base, buf)
	total := len(units)
	results := make([]ChunkResult, total)
	kind := backend.Kind()

	var progressMu sync.Mutex
	completed := 0
	progress := func(delta int) {
		progressMu.Lock()
		defer progressMu.Unlock()
		completed += delta
		o.updateState(func(s *State) {
			s.ChunksCompleted = completed
			s.ChunksTotal = total
		})
		notice.Update(Event{
			Phase:     PhaseTranscribing,
			Message:   chunkProgressMessage(kind, completed, total),
			Completed: completed,
			Total:     total,
		})
	}
	progress(0)

	exec := &RetryExecutor{
		Policy: o.cfg.Retry,
		OnAttempt: func(index, attempt int, err error) {
			run.ChunkAttempt(ctx, err)
			if err != nil {
				o.log.Warn("chunk attempt failed", logger.MergeWithError(logger.Fields(
					"run_id", run.RunID,
					"chunk", index,
					"attempt", attempt,
				), err))
			}
		},
	}

	var bulkhead *resilience.Bulkhead
	if o.cfg.MaxConcurrentChunks > 0 {
		bulkhead = resilience.NewBulkhead(resilience.BulkheadConfig{
			Name:          "chunks",
			MaxConcurrent: o.cfg.MaxConcurrentChunks,
			MaxWait:       resilience.WaitUntilDone,
		})
	}

	var wg sync.WaitGroup
	for i, unit := range units {
		wg.Add(1)
		go func(i int, unit audio.Unit) {
			defer wg.Done()

			task := func(ctx context.Context) (string, error) {
				cctx, span := run.StartChunk(ctx, unit.Index)
				defer span.End()
				text, err := backend.TranscribeUnit(cctx, unit)
				if err != nil {
					observability.SetSpanError(cctx, err)
				}
				return text, err
			}

			var res ChunkResult
			if bulkhead == nil {
				res = exec.Execute(ctx, unit.Index, task)
			} else if err := bulkhead.Execute(ctx, func() error {
				res = exec.Execute(ctx, unit.Index, task)
				return nil
			}); err != nil {
				// Cancelled while queued for a slot.
				res = ChunkResult{
					Index: unit.Index,
					Text:  Placeholder(unit.Index),
					Err:   errors.ChunkFailed(unit.Index, 0, err),
				}
			}

			if res.Failed() {
				run.ChunkFailed(ctx)
				o.log.Error("chunk failed", logger.MergeWithError(logger.Fields(
					"run_id", run.RunID,
					"chunk", unit.Index,
					"attempts", res.Attempts,
				), res.Err))
			}
			results[i] = res
			progress(1)
		}(i, unit)
	}
	wg.Wait()

	return results
}

func chunkProgressMessage(kind transcription.Kind, completed, total int) string {
	pct := 0.0
	if total > 0 {
		pct = float64(completed) / float64(total) * 100
	}
	return fmt.Sprintf("Transcribing with %s... %d/%d chunks completed (%.1f%%)",
		kind.DisplayName(), completed, total, pct)
}
