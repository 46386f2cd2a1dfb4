package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// MeterName is the instrumentation scope used for podscribe metrics.
const MeterName = "github.com/kbukum/podscribe"

func newMeterProvider(ctx context.Context, cfg Config, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("metric exporter: %w", err)
	}
	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.Interval))
	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader), sdkmetric.WithResource(res)), nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the instruments recorded by the transcription pipeline and
// the HTTP server.
type Metrics struct {
	runTotal        metric.Int64Counter
	runDuration     metric.Float64Histogram
	runActive       metric.Int64UpDownCounter
	chunkAttempts   metric.Int64Counter
	chunkFailures   metric.Int64Counter
	requestTotal    metric.Int64Counter
	requestDuration metric.Float64Histogram
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	runTotal, err := meter.Int64Counter("podscribe.runs",
		metric.WithDescription("Transcription runs by backend and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating podscribe.runs counter: %w", err)
	}

	runDuration, err := meter.Float64Histogram("podscribe.run.duration",
		metric.WithDescription("Duration of transcription runs in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating podscribe.run.duration histogram: %w", err)
	}

	runActive, err := meter.Int64UpDownCounter("podscribe.runs.active",
		metric.WithDescription("Number of transcription runs in flight"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating podscribe.runs.active gauge: %w", err)
	}

	chunkAttempts, err := meter.Int64Counter("podscribe.chunk.attempts",
		metric.WithDescription("Chunk transcription attempts by backend and status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating podscribe.chunk.attempts counter: %w", err)
	}

	chunkFailures, err := meter.Int64Counter("podscribe.chunk.failures",
		metric.WithDescription("Chunks that exhausted their retry budget"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating podscribe.chunk.failures counter: %w", err)
	}

	requestTotal, err := meter.Int64Counter("http.server.requests",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http.server.requests counter: %w", err)
	}

	requestDuration, err := meter.Float64Histogram("http.server.duration",
		metric.WithDescription("Duration of HTTP requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http.server.duration histogram: %w", err)
	}

	return &Metrics{
		runTotal:        runTotal,
		runDuration:     runDuration,
		runActive:       runActive,
		chunkAttempts:   chunkAttempts,
		chunkFailures:   chunkFailures,
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
	}, nil
}

// RecordRunStart increments the in-flight run count.
func (m *Metrics) RecordRunStart(ctx context.Context) {
	m.runActive.Add(ctx, 1)
}

// RecordRunEnd decrements in-flight runs and records the settled run.
func (m *Metrics) RecordRunEnd(ctx context.Context, backend, outcome string, duration time.Duration) {
	m.runActive.Add(ctx, -1)
	m.runTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrBackend, backend),
		attribute.String(AttrOutcome, outcome),
	))
	m.runDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(AttrBackend, backend),
	))
}

// RecordChunkAttempt records one backend call for a chunk.
func (m *Metrics) RecordChunkAttempt(ctx context.Context, backend string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.chunkAttempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrBackend, backend),
		attribute.String(AttrStatus, status),
	))
}

// RecordChunkFailure records a chunk that was replaced by a placeholder.
func (m *Metrics) RecordChunkFailure(ctx context.Context, backend string) {
	m.chunkFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrBackend, backend),
	))
}

// RecordRequest records a completed HTTP request.
func (m *Metrics) RecordRequest(ctx context.Context, method, route string, status int, duration time.Duration) {
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int(AttrStatus, status),
	))
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
	))
}
