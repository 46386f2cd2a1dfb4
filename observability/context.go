package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// RunTrace ties one transcription run to its span and metrics. A nil
// *RunTrace is a no-op.
type RunTrace struct {
	RunID   string
	Backend string

	began   time.Time
	metrics *Metrics
	span    trace.Span
}

type runTraceKey struct{}

// StartRun opens the run span and counts the run as active. m may be nil.
func StartRun(ctx context.Context, runID, backend string, m *Metrics) (context.Context, *RunTrace) {
	ctx, span := StartSpan(ctx, SpanRun, trace.WithAttributes(
		attribute.String(AttrOperationName, "transcribe"),
		attribute.String(AttrRunID, runID),
		attribute.String(AttrBackend, backend),
	))
	rt := &RunTrace{RunID: runID, Backend: backend, began: time.Now(), metrics: m, span: span}
	if m != nil {
		m.RecordRunStart(ctx)
	}
	return context.WithValue(ctx, runTraceKey{}, rt), rt
}

// RunFromContext returns the run started on ctx, or nil.
func RunFromContext(ctx context.Context) *RunTrace {
	rt, _ := ctx.Value(runTraceKey{}).(*RunTrace)
	return rt
}

// StartChunk opens a child span for one chunk upload.
func (r *RunTrace) StartChunk(ctx context.Context, index int) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanChunk, trace.WithAttributes(attribute.Int(AttrChunkIndex, index)))
}

func (r *RunTrace) ChunkAttempt(ctx context.Context, err error) {
	if r != nil && r.metrics != nil {
		r.metrics.RecordChunkAttempt(ctx, r.Backend, err)
	}
}

// ChunkFailed counts a chunk whose retries ran out.
func (r *RunTrace) ChunkFailed(ctx context.Context) {
	if r != nil && r.metrics != nil {
		r.metrics.RecordChunkFailure(ctx, r.Backend)
	}
}

// End closes the run span with outcome ("done", "failed" or "cancelled").
func (r *RunTrace) End(ctx context.Context, outcome string, err error) {
	if r == nil {
		return
	}
	took := time.Since(r.began)
	if err != nil {
		r.span.RecordError(err)
		r.span.SetStatus(codes.Error, err.Error())
		r.span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
	}
	r.span.SetAttributes(attribute.String(AttrOutcome, outcome), attribute.Int64(AttrDurationMs, took.Milliseconds()))
	r.span.End()
	if r.metrics != nil {
		r.metrics.RecordRunEnd(ctx, r.Backend, outcome, took)
	}
}
