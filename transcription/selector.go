package transcription

import (
	"context"
	"fmt"
	"strings"

	"github.com/kbukum/podscribe/errors"
	"github.com/kbukum/podscribe/provider"
)

// Selection is the outcome of resolving a requested kind.
type Selection struct {
	Backend   Backend
	Requested Kind
}

// FellBack reports whether the resolved backend differs from the requested kind.
func (s Selection) FellBack() bool { return s.Backend.Kind() != s.Requested }

// Notice returns the user-facing fallback message, or "" when none applies.
func (s Selection) Notice() string {
	if !s.FellBack() {
		return ""
	}
	return fmt.Sprintf("%s not configured. Falling back to %s...",
		capitalize(s.Requested.DisplayName()), s.Backend.Kind().DisplayName())
}

// Selector resolves a requested kind to an available backend, applying the
// fallback order of Kind.Fallbacks.
type Selector struct {
	registry *provider.Registry[Backend]
}

// NewSelector registers backends under their kind.
func NewSelector(backends ...Backend) *Selector {
	reg := provider.NewRegistry[Backend]()
	for _, b := range backends {
		if b != nil {
			reg.Set(string(b.Kind()), b)
		}
	}
	return &Selector{registry: reg}
}

// Resolve picks the first available backend for kind. It returns a
// CONFIGURATION_ERROR when neither the requested backend nor its fallback
// is usable.
func (s *Selector) Resolve(ctx context.Context, kind Kind) (Selection, error) {
	chain := kind.Fallbacks()
	names := make([]string, len(chain))
	for i, k := range chain {
		names[i] = string(k)
	}

	b, err := s.registry.FirstAvailable(ctx, names...)
	if err != nil {
		return Selection{}, errors.Configuration(missingPrerequisite(chain)).WithCause(err)
	}
	return Selection{Backend: b, Requested: kind}, nil
}

// Close releases every backend holding resources.
func (s *Selector) Close(ctx context.Context) error {
	return s.registry.Close(ctx)
}

func missingPrerequisite(chain []Kind) string {
	switch chain[0] {
	case KindSelfHosted:
		return "self-hosted server URL is not set and no remote API key is available"
	case KindLocalModel:
		return "local model is not configured"
	default:
		return "remote API key is not set"
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
