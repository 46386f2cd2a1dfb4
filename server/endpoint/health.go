package endpoint

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/podscribe/component"
	"github.com/kbukum/podscribe/observability"
	"github.com/kbukum/podscribe/version"
)

// HealthChecker lists component health, e.g. component.Registry.HealthAll.
type HealthChecker func(ctx context.Context) []component.Health

// Health answers 503 when any component is down.
func Health(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		var components []component.Health
		if checker != nil {
			components = checker(c.Request.Context())
		}
		report := observability.NewHealthReport(serviceName, version.Get().Short(), components)
		c.JSON(report.HTTPStatus(), report)
	}
}
