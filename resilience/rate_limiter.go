package resilience

import (
	"context"
	"sync"
	"time"
)

// RateLimiterConfig configures a token bucket.
type RateLimiterConfig struct {
	Name string
	// Rate is the sustained number of calls per second.
	Rate float64
	// Burst is the bucket size. Defaults to Rate rounded down, at least 1.
	Burst int
	// OnLimit is called when Wait has to block, with the delay it will wait.
	OnLimit func(name string, delay time.Duration)
}

// RateLimiter is a token bucket that makes callers queue rather than fail.
type RateLimiter struct {
	config RateLimiterConfig

	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

// NewRateLimiter creates a full bucket.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.Rate <= 0 {
		config.Rate = 1
	}
	if config.Burst <= 0 {
		config.Burst = max(1, int(config.Rate))
	}
	return &RateLimiter{
		config:     config,
		tokens:     float64(config.Burst),
		lastRefill: time.Now(),
	}
}

// Wait takes a token, sleeping until one is available or ctx ends. A
// cancelled wait does not return its reserved token.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	delay := rl.reserve()
	if delay <= 0 {
		return nil
	}
	if rl.config.OnLimit != nil {
		rl.config.OnLimit(rl.config.Name, delay)
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// reserve takes one token, possibly driving the bucket negative, and
// returns how long the caller must wait for it.
func (rl *RateLimiter) reserve() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.tokens = min(float64(rl.config.Burst), rl.tokens+now.Sub(rl.lastRefill).Seconds()*rl.config.Rate)
	rl.lastRefill = now

	rl.tokens--
	if rl.tokens >= 0 {
		return 0
	}
	return time.Duration(-rl.tokens / rl.config.Rate * float64(time.Second))
}
