package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/podscribe/logger"
)

// RequestRecorder receives one observation per completed request.
// observability.Metrics implements it.
type RequestRecorder interface {
	RecordRequest(ctx context.Context, method, route string, status int, d time.Duration)
}

// RequestLogger logs every request with method, route, status and duration
// and forwards it to rec when non-nil. Health check paths are not logged.
func RequestLogger(log *logger.Logger, rec RequestRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		if rec != nil {
			rec.RecordRequest(c.Request.Context(), c.Request.Method, route, status, duration)
		}
		if isHealthCheck(c.Request.URL.Path) {
			return
		}

		fields := logger.Fields(
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"route", route,
			"status", status,
			logger.FieldDuration, duration.Milliseconds(),
			"client", c.ClientIP(),
		)
		if id, ok := c.Get("request_id"); ok {
			fields["request_id"] = id
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		switch {
		case status >= 500:
			log.Error("request completed", fields)
		case status >= 400:
			log.Warn("request completed", fields)
		default:
			log.Debug("request completed", fields)
		}
	}
}

func isHealthCheck(path string) bool {
	switch path {
	case "/health", "/alive", "/version":
		return true
	}
	return false
}
