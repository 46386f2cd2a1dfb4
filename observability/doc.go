// Package observability wires OpenTelemetry tracing and metrics for
// transcription runs and the HTTP API.
//
//	shutdown, err := observability.Setup(ctx, cfg.Telemetry, "podscribe", version.Version, cfg.Environment)
//	defer shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter(observability.MeterName))
//	ctx, run := observability.StartRun(ctx, runID, "remote_api", metrics)
//	defer run.End(ctx, "done", nil)
//
// Health reports from the component registry are aggregated with
// NewHealthReport.
package observability
