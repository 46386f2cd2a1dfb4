package bootstrap

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kbukum/podscribe/component"
)

// Summary is the startup report: backends and stores, HTTP routes, and
// live component health.
type Summary struct {
	name    string
	version string
	took    time.Duration
	infra   []string
	routes  []string
}

func NewSummary(name, version string) *Summary {
	return &Summary{name: name, version: version}
}

func (s *Summary) SetStartupDuration(d time.Duration) { s.took = d }

// TrackInfrastructure records a dependency; kind is e.g. "transcription",
// "sqlite" or a storage provider.
func (s *Summary) TrackInfrastructure(name, kind, detail string, ok bool) {
	s.infra = append(s.infra, fmt.Sprintf("%s %s [%s]: %s", mark(ok), name, kind, detail))
}

func (s *Summary) TrackRoute(method, path string) {
	s.routes = append(s.routes, fmt.Sprintf("%-7s %s", method, path))
}

// Write renders the report. registry may be nil.
func (s *Summary) Write(ctx context.Context, w io.Writer, registry *component.Registry) {
	fmt.Fprintf(w, "\n🚀 %s %s started in %.2fs\n", s.name, s.version, s.took.Seconds())
	section(w, "📊 Infrastructure", s.infra)
	if len(s.routes) > 0 {
		section(w, fmt.Sprintf("🌐 Routes (%d)", len(s.routes)), s.routes)
	}
	if registry != nil {
		var lines []string
		for _, h := range registry.HealthAll(ctx) {
			line := fmt.Sprintf("%s %s: %s", healthMark(h.Status), h.Name, strings.ToLower(string(h.Status)))
			if h.Message != "" {
				line += " - " + h.Message
			}
			lines = append(lines, line)
		}
		section(w, "🏥 Health", lines)
	}
	fmt.Fprintln(w)
}

func section(w io.Writer, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n", title)
	for i, l := range lines {
		fmt.Fprintf(w, "   %s %s\n", treePrefix(i, len(lines)), l)
	}
}

func treePrefix(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func mark(ok bool) string {
	if ok {
		return "✅"
	}
	return "❌"
}

func healthMark(status component.HealthStatus) string {
	switch status {
	case component.StatusHealthy:
		return "✅"
	case component.StatusDegraded:
		return "⚠️"
	case component.StatusUnhealthy:
		return "❌"
	}
	return "❓"
}
