package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// BackoffStrategy selects how the delay grows between attempts.
type BackoffStrategy int

const (
	// BackoffExponential waits InitialBackoff * BackoffFactor^(attempt-1).
	BackoffExponential BackoffStrategy = iota
	// BackoffLinear waits InitialBackoff * attempt: 1s, 2s, 3s for a 1s base.
	BackoffLinear
)

func (s BackoffStrategy) String() string {
	if s == BackoffLinear {
		return "linear"
	}
	return "exponential"
}

// ParseBackoffStrategy maps a config value to a strategy. Anything but
// "exponential" is linear, the chunk retry default.
func ParseBackoffStrategy(s string) BackoffStrategy {
	if s == "exponential" {
		return BackoffExponential
	}
	return BackoffLinear
}

// RetryConfig configures Retry. Zero fields take the defaults of
// DefaultRetryConfig, except Jitter and Strategy.
type RetryConfig struct {
	// MaxAttempts counts the first call.
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Strategy       BackoffStrategy
	// BackoffFactor is the exponential growth rate.
	BackoffFactor float64
	// Jitter spreads each delay by up to this fraction in either direction.
	Jitter float64
	// RetryIf decides whether an error is worth another attempt.
	RetryIf func(error) bool
	// OnRetry runs before each wait.
	OnRetry func(attempt int, err error, backoff time.Duration)
	// OnAttempt runs after every attempt, including the successful one.
	OnAttempt func(attempt int, err error)
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		BackoffFactor:  2,
		Jitter:         0.1,
		RetryIf:        DefaultRetryIf,
	}
}

// DefaultRetryIf retries everything except context cancellation and expiry.
func DefaultRetryIf(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (c RetryConfig) withDefaults() RetryConfig {
	d := DefaultRetryConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = d.InitialBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = time.Minute
	}
	if c.BackoffFactor <= 0 {
		c.BackoffFactor = d.BackoffFactor
	}
	if c.RetryIf == nil {
		c.RetryIf = d.RetryIf
	}
	return c
}

// Delay is the wait after failed attempt n (1-based), capped at MaxBackoff.
func (c RetryConfig) Delay(n int) time.Duration {
	base := float64(c.InitialBackoff)
	var d float64
	if c.Strategy == BackoffLinear {
		d = base * float64(n)
	} else {
		d = base * math.Pow(c.BackoffFactor, float64(n-1))
	}
	if c.Jitter > 0 {
		d += d * c.Jitter * (2*rand.Float64() - 1)
	}
	if c.MaxBackoff > 0 {
		d = math.Min(d, float64(c.MaxBackoff))
	}
	if d < 0 {
		d = base
	}
	return time.Duration(d)
}

// Retry calls fn until it succeeds, RetryIf rejects its error, the attempts
// run out, or ctx ends. On failure the last error from fn is returned,
// joined with ctx.Err() when the context stopped the loop.
func Retry[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	cfg = cfg.withDefaults()
	var (
		zero    T
		lastErr error
	)
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, errors.Join(lastErr, err)
		}
		result, err := fn()
		if cfg.OnAttempt != nil {
			cfg.OnAttempt(attempt, err)
		}
		if err == nil {
			return result, nil
		}
		lastErr = err
		if attempt >= cfg.MaxAttempts || !cfg.RetryIf(err) {
			return zero, lastErr
		}

		wait := cfg.Delay(attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, wait)
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, errors.Join(lastErr, ctx.Err())
		case <-timer.C:
		}
	}
}
