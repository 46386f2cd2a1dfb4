package app

import (
	"context"

	"github.com/kbukum/podscribe/component"
	"github.com/kbukum/podscribe/observability"
)

// telemetryComponent installs the OTLP providers on start and flushes them
// on stop. It registers first so it stops last.
type telemetryComponent struct {
	cfg      *Config
	version  string
	shutdown observability.ShutdownFunc
}

func newTelemetryComponent(cfg *Config, version string) *telemetryComponent {
	return &telemetryComponent{cfg: cfg, version: version}
}

func (t *telemetryComponent) Name() string { return "telemetry" }

func (t *telemetryComponent) Start(ctx context.Context) error {
	shutdown, err := observability.Setup(ctx, t.cfg.Telemetry, t.cfg.Name, t.version, t.cfg.Environment)
	if err != nil {
		return err
	}
	t.shutdown = shutdown
	return nil
}

func (t *telemetryComponent) Stop(ctx context.Context) error {
	if t.shutdown == nil {
		return nil
	}
	return t.shutdown(ctx)
}

func (t *telemetryComponent) Health(_ context.Context) component.Health {
	msg := "disabled"
	if t.cfg.Telemetry.Enabled {
		msg = "exporting to " + t.cfg.Telemetry.Endpoint
	}
	return component.Health{Name: t.Name(), Status: component.StatusHealthy, Message: msg}
}
