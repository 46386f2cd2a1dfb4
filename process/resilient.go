package process

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	goerrors "github.com/kbukum/podscribe/errors"
	"github.com/kbukum/podscribe/logger"
	"github.com/kbukum/podscribe/resilience"
)

// RunnerConfig configures a Runner.
type RunnerConfig struct {
	// Name identifies the tool in errors and breaker state.
	Name string `yaml:"name" mapstructure:"name"`
	// Timeout bounds each invocation. Zero means no timeout.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// GracePeriod is the default SIGTERM→SIGKILL delay.
	GracePeriod time.Duration `yaml:"grace_period" mapstructure:"grace_period"`
	// MaxConcurrent caps simultaneous invocations. Zero means unbounded.
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	// CircuitBreaker trips after repeated crashes. Nil disables it.
	CircuitBreaker *resilience.CircuitBreakerConfig `yaml:"-" mapstructure:"-"`
}

// Runner wraps subprocess execution with persistent resilience state.
// The circuit breaker state persists across calls, so repeated crashes of
// the same tool trip the breaker.
type Runner struct {
	cfg      RunnerConfig
	cb       *resilience.CircuitBreaker
	bulkhead *resilience.Bulkhead
}

// NewRunner creates a Runner. An empty config runs commands directly.
func NewRunner(cfg RunnerConfig) *Runner {
	r := &Runner{cfg: cfg}
	if cfg.CircuitBreaker != nil {
		r.cb = resilience.NewCircuitBreaker(*cfg.CircuitBreaker)
	}
	if cfg.MaxConcurrent > 0 {
		r.bulkhead = resilience.NewBulkhead(resilience.BulkheadConfig{
			Name:          cfg.Name,
			MaxConcurrent: cfg.MaxConcurrent,
			MaxWait:       resilience.WaitUntilDone,
		})
	}
	return r
}

// Run executes cmd through the runner's resilience chain. Failures are
// reported as EXTERNAL_SERVICE_ERROR app errors naming the tool.
func (r *Runner) Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.GracePeriod == 0 {
		cmd.GracePeriod = r.cfg.GracePeriod
	}
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	run := func(ctx context.Context) (*Result, error) { return Run(ctx, cmd) }
	if r.cb != nil {
		inner := run
		run = func(ctx context.Context) (*Result, error) { return resilience.Guard(ctx, r.cb, inner) }
	}

	var (
		result *Result
		err    error
	)
	if r.bulkhead != nil {
		result, err = resilience.ExecuteWithResult(r.bulkhead, ctx, func() (*Result, error) { return run(ctx) })
	} else {
		result, err = run(ctx)
	}
	if err != nil {
		return result, goerrors.ExternalServiceError(r.name(cmd), err)
	}
	logger.Get("process").Debug("command finished", logger.Fields(
		"cmd", cmd.String(),
		"duration_ms", result.Duration.Milliseconds(),
	))
	return result, nil
}

func (r *Runner) name(cmd Command) string {
	if r.cfg.Name != "" {
		return r.cfg.Name
	}
	return cmd.Binary
}

// LookPath resolves binary on PATH, returning a descriptive error when the
// tool is not installed.
func LookPath(binary string) (string, error) {
	path, err := exec.LookPath(binary)
	if err != nil {
		return "", fmt.Errorf("process: %s not found: %w", binary, err)
	}
	return path, nil
}
