package storage

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kbukum/podscribe/logger"
)

// Factory builds a Storage for a validated Config.
type Factory func(cfg Config, log *logger.Logger) (Storage, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// RegisterFactory makes a provider available to New. Provider packages call
// it from init.
func RegisterFactory(provider string, f Factory) {
	mu.Lock()
	factories[provider] = f
	mu.Unlock()
}

// New validates cfg and builds the store for cfg.Provider. The provider
// package must be linked in, e.g. with a blank import of storage/local.
func New(cfg Config, log *logger.Logger) (Storage, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	mu.RLock()
	f, ok := factories[cfg.Provider]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: provider %q not registered (have: %s)", cfg.Provider, registered())
	}

	log.Info("opening document store", logger.Fields("provider", cfg.Provider, "location", cfg.Describe()))
	return f(cfg, log)
}

func registered() string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(factories))
	for n := range factories {
		names = append(names, n)
	}
	sort.Strings(names)
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}
