package component

import "context"

// HealthStatus is the coarse state reported by a component.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component is a long-lived service owned by the application: telemetry,
// artifact storage, the history database and the HTTP server.
type Component interface {
	Name() string
	Start(ctx context.Context) error
	// Stop releases resources. ctx carries the per-component stop timeout.
	Stop(ctx context.Context) error
	Health(ctx context.Context) Health
}
