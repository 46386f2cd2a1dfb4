package provider

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrNoProvider means nothing in the fallback chain was available.
var ErrNoProvider = errors.New("no available provider")

// Registry maps names to provider instances. It is safe for concurrent use.
type Registry[T Provider] struct {
	mu    sync.RWMutex
	items map[string]T
}

func NewRegistry[T Provider]() *Registry[T] {
	return &Registry[T]{items: map[string]T{}}
}

// Set replaces any provider already registered under name.
func (r *Registry[T]) Set(name string, p T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[name] = p
}

func (r *Registry[T]) Get(name string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[name]
	return p, ok
}

// Names returns the registered names, sorted.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.items))
	for n := range r.items {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// FirstAvailable walks chain in order and returns the first registered
// provider whose IsAvailable reports true.
func (r *Registry[T]) FirstAvailable(ctx context.Context, chain ...string) (T, error) {
	for _, name := range chain {
		if p, ok := r.Get(name); ok && p.IsAvailable(ctx) {
			return p, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%w among %v", ErrNoProvider, chain)
}

// Close closes every Closeable provider and joins the failures.
func (r *Registry[T]) Close(ctx context.Context) error {
	var errs []error
	for _, name := range r.Names() {
		p, _ := r.Get(name)
		if c, ok := any(p).(Closeable); ok {
			if err := c.Close(ctx); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
			}
		}
	}
	return errors.Join(errs...)
}
