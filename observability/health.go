package observability

import (
	"net/http"

	"github.com/kbukum/podscribe/component"
)

// Health report statuses, ordered by severity.
const (
	StatusUp       = "up"
	StatusDegraded = "degraded"
	StatusDown     = "down"
)

var severity = map[string]int{StatusUp: 0, StatusDegraded: 1, StatusDown: 2}

// HealthReport is the GET /health body. Status is the worst component status.
type HealthReport struct {
	Service    string            `json:"service"`
	Version    string            `json:"version,omitempty"`
	Status     string            `json:"status"`
	Components []ComponentHealth `json:"components,omitempty"`
}

type ComponentHealth struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func NewHealthReport(service, version string, components []component.Health) HealthReport {
	r := HealthReport{Service: service, Version: version, Status: StatusUp}
	for _, h := range components {
		ch := ComponentHealth{Name: h.Name, Status: reportStatus(h.Status), Message: h.Message}
		if severity[ch.Status] > severity[r.Status] {
			r.Status = ch.Status
		}
		r.Components = append(r.Components, ch)
	}
	return r
}

// HTTPStatus is 503 only when something is down; degraded still serves.
func (r HealthReport) HTTPStatus() int {
	if r.Status == StatusDown {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

func reportStatus(s component.HealthStatus) string {
	switch s {
	case component.StatusHealthy:
		return StatusUp
	case component.StatusDegraded:
		return StatusDegraded
	}
	return StatusDown
}
