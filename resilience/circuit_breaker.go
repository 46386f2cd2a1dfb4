package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State is the position of a CircuitBreaker.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// ErrCircuitOpen is returned without calling through while the breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitBreakerConfig struct {
	// Name is passed to OnStateChange.
	Name string
	// MaxFailures consecutive failures open the breaker.
	MaxFailures int
	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration
	// HalfOpenMaxCalls trials run concurrently, and as many successes close
	// the breaker again.
	HalfOpenMaxCalls int
	// OnStateChange runs after each transition, outside the breaker's lock.
	OnStateChange func(name string, from, to State)
}

func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxFailures:      5,
		Timeout:          30 * time.Second,
		HalfOpenMaxCalls: 1,
	}
}

// CircuitBreaker fails fast while a transcription backend keeps erroring.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig

	mu        sync.Mutex
	state     State
	failures  int // consecutive, while closed
	openedAt  time.Time
	trials    int // in flight, while half-open
	succeeded int // trials that passed, while half-open
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	d := DefaultCircuitBreakerConfig(cfg.Name)
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = d.MaxFailures
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = d.Timeout
	}
	if cfg.HalfOpenMaxCalls <= 0 {
		cfg.HalfOpenMaxCalls = d.HalfOpenMaxCalls
	}
	return &CircuitBreaker{cfg: cfg}
}

func (cb *CircuitBreaker) Name() string { return cb.cfg.Name }

// State reports the current state, moving an expired open breaker to
// half-open.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	s, change := cb.refresh()
	cb.mu.Unlock()
	cb.notify(change)
	return s
}

// ExecuteContext runs fn unless the breaker is open. An error returned
// after ctx ended is the caller's doing and does not count as a failure.
func (cb *CircuitBreaker) ExecuteContext(ctx context.Context, fn func(context.Context) error) error {
	trial, err := cb.admit()
	if err != nil {
		return err
	}
	err = fn(ctx)
	cb.settle(trial, err, err != nil && ctx.Err() != nil)
	return err
}

// Guard runs fn through cb and returns its value.
func Guard[T any](ctx context.Context, cb *CircuitBreaker, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := cb.ExecuteContext(ctx, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}

type transition struct {
	from, to State
	changed  bool
}

func (cb *CircuitBreaker) admit() (trial bool, err error) {
	cb.mu.Lock()
	s, change := cb.refresh()
	switch {
	case s == StateClosed:
	case s == StateHalfOpen && cb.trials < cb.cfg.HalfOpenMaxCalls:
		cb.trials++
		trial = true
	default:
		err = ErrCircuitOpen
	}
	cb.mu.Unlock()
	cb.notify(change)
	return trial, err
}

func (cb *CircuitBreaker) settle(trial bool, err error, canceled bool) {
	cb.mu.Lock()
	var change transition
	if trial && cb.state == StateHalfOpen {
		cb.trials--
	}
	switch {
	case canceled:
	case err == nil && cb.state == StateHalfOpen:
		cb.succeeded++
		if cb.succeeded >= cb.cfg.HalfOpenMaxCalls {
			change = cb.moveTo(StateClosed)
		}
	case err == nil:
		cb.failures = 0
	case cb.state == StateHalfOpen:
		change = cb.moveTo(StateOpen)
	case cb.state == StateClosed:
		cb.failures++
		if cb.failures >= cb.cfg.MaxFailures {
			change = cb.moveTo(StateOpen)
		}
	}
	cb.mu.Unlock()
	cb.notify(change)
}

// refresh must be called with mu held.
func (cb *CircuitBreaker) refresh() (State, transition) {
	if cb.state == StateOpen && time.Since(cb.openedAt) >= cb.cfg.Timeout {
		return StateHalfOpen, cb.moveTo(StateHalfOpen)
	}
	return cb.state, transition{}
}

// moveTo must be called with mu held.
func (cb *CircuitBreaker) moveTo(to State) transition {
	from := cb.state
	cb.state = to
	cb.failures, cb.trials, cb.succeeded = 0, 0, 0
	if to == StateOpen {
		cb.openedAt = time.Now()
	}
	return transition{from: from, to: to, changed: from != to}
}

func (cb *CircuitBreaker) notify(t transition) {
	if t.changed && cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(cb.cfg.Name, t.from, t.to)
	}
}
