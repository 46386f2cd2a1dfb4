package localmodel

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/kbukum/podscribe/component"
	"github.com/kbukum/podscribe/errors"
	"github.com/kbukum/podscribe/logger"
)

// Handle owns the process-wide model instance. Concurrent first callers
// share one in-flight load; later callers reuse the loaded model.
type Handle struct {
	name       string
	load       Loader
	unloadIdle bool

	group singleflight.Group

	mu    sync.Mutex
	model Model
	refs  int
	loads int

	log *logger.Logger
}

var _ component.Component = (*Handle)(nil)

// HandleOption configures a Handle.
type HandleOption func(*Handle)

// WithUnloadWhenIdle frees the model whenever the last holder releases it.
func WithUnloadWhenIdle() HandleOption {
	return func(h *Handle) { h.unloadIdle = true }
}

// NewHandle creates a Handle that loads its model with load on first use.
func NewHandle(name string, load Loader, opts ...HandleOption) *Handle {
	h := &Handle{name: name, load: load, log: logger.Get("localmodel")}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Acquire returns the loaded model, loading it if needed. Each successful
// Acquire must be paired with Release. The load itself is not cancelled
// when ctx is; a cancelled caller stops waiting and other waiters still
// receive the model.
func (h *Handle) Acquire(ctx context.Context) (Model, error) {
	h.mu.Lock()
	if h.model != nil {
		h.refs++
		m := h.model
		h.mu.Unlock()
		return m, nil
	}
	h.mu.Unlock()

	loadCtx := context.WithoutCancel(ctx)
	ch := h.group.DoChan(h.name, func() (any, error) {
		h.log.Info("loading local model", logger.Fields("model", h.name))
		m, err := h.load(loadCtx)
		if err != nil {
			return nil, err
		}
		h.mu.Lock()
		h.model = m
		h.loads++
		h.mu.Unlock()
		return m, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, errors.ModelLoadFailed(h.name, res.Err)
		}
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.model == nil {
			// closed between load and wake-up
			return nil, errors.ModelLoadFailed(h.name, errClosed)
		}
		h.refs++
		return h.model, nil
	}
}

// Release gives back a model obtained from Acquire.
func (h *Handle) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.refs > 0 {
		h.refs--
	}
	if h.refs == 0 && h.unloadIdle && h.model != nil {
		h.closeLocked()
	}
}

// Close frees the model. It is safe to call more than once.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closeLocked()
}

func (h *Handle) closeLocked() error {
	if h.model == nil {
		return nil
	}
	err := h.model.Close()
	h.model = nil
	h.refs = 0
	h.log.Info("local model freed", logger.Fields("model", h.name))
	return err
}

// Loaded reports whether a model is currently resident.
func (h *Handle) Loaded() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.model != nil
}

// Loads returns how many times the model has been loaded.
func (h *Handle) Loads() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loads
}

// Name implements component.Component.
func (h *Handle) Name() string { return "local-model" }

// Start implements component.Component. Loading stays lazy.
func (h *Handle) Start(ctx context.Context) error { return nil }

// Stop implements component.Component by freeing the model.
func (h *Handle) Stop(ctx context.Context) error { return h.Close() }

// Health implements component.Component.
func (h *Handle) Health(ctx context.Context) component.Health {
	msg := "not loaded"
	if h.Loaded() {
		msg = "loaded"
	}
	return component.Health{Name: h.Name(), Status: component.StatusHealthy, Message: msg}
}
