package component

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/podscribe/logger"
)

// DefaultStopTimeout bounds each component's Stop call.
const DefaultStopTimeout = 10 * time.Second

type entry struct {
	Component
	running bool
}

// Registry starts components in registration order and stops them in
// reverse. Register dependencies first.
type Registry struct {
	// StopTimeout overrides DefaultStopTimeout when positive.
	StopTimeout time.Duration

	mu      sync.Mutex
	entries []*entry
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends c. Names must be unique.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.find(c.Name()) != nil {
		return fmt.Errorf("component %s already registered", c.Name())
	}
	r.entries = append(r.entries, &entry{Component: c})
	return nil
}

// Get returns the component registered as name, or nil.
func (r *Registry) Get(name string) Component {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e := r.find(name); e != nil {
		return e.Component
	}
	return nil
}

func (r *Registry) find(name string) *entry {
	for _, e := range r.entries {
		if e.Name() == name {
			return e
		}
	}
	return nil
}

// StartAll starts every component. On the first failure the components
// already running are stopped again and the start error is returned.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	log := logger.Get("component")
	for _, e := range r.entries {
		if e.running {
			continue
		}
		if err := e.Start(ctx); err != nil {
			log.Error("component failed to start", logger.Fields("name", e.Name(), logger.FieldError, err.Error()))
			if stopErr := r.stopRunning(ctx); stopErr != nil {
				log.Warn("rollback after failed start was incomplete", logger.Fields(logger.FieldError, stopErr.Error()))
			}
			return fmt.Errorf("failed to start %s: %w", e.Name(), err)
		}
		e.running = true
		log.Debug("component started", logger.Fields("name", e.Name()))
	}
	return nil
}

// StopAll stops running components in reverse order and joins their errors.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopRunning(ctx)
}

func (r *Registry) stopRunning(ctx context.Context) error {
	timeout := r.StopTimeout
	if timeout <= 0 {
		timeout = DefaultStopTimeout
	}

	var errs []error
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if !e.running {
			continue
		}
		stopCtx, cancel := context.WithTimeout(ctx, timeout)
		if err := e.Stop(stopCtx); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop %s: %w", e.Name(), err))
		}
		cancel()
		e.running = false
	}
	return errors.Join(errs...)
}

// HealthAll reports every component in registration order.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	r.mu.Lock()
	list := make([]Component, len(r.entries))
	for i, e := range r.entries {
		list[i] = e.Component
	}
	r.mu.Unlock()

	out := make([]Health, len(list))
	for i, c := range list {
		out[i] = c.Health(ctx)
	}
	return out
}
