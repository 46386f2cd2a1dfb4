package bootstrap

import (
	"io"
	"os"
	"time"

	"github.com/kbukum/podscribe/logger"
)

// Option customizes NewApp.
type Option func(*settings)

type settings struct {
	logger  *logger.Logger
	grace   time.Duration
	summary io.Writer
}

func defaultSettings() settings {
	return settings{grace: 15 * time.Second, summary: os.Stderr}
}

// WithLogger replaces the logger built from the config's logging section.
func WithLogger(l *logger.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithGracefulTimeout bounds the shutdown phase.
func WithGracefulTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.grace = d
		}
	}
}

func WithSummaryWriter(w io.Writer) Option {
	return func(s *settings) { s.summary = w }
}

// WithoutSummary is used by one-shot commands whose stdout is the result.
func WithoutSummary() Option {
	return func(s *settings) { s.summary = nil }
}
