package llm

import (
	"context"
	"strings"

	"github.com/kbukum/podscribe/provider"
)

// Provider is implemented by language model backends.
type Provider interface {
	provider.Provider

	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// Complete sends an optional system prompt and one user prompt and returns
// the generated text.
func Complete(ctx context.Context, p Provider, system, user string) (string, error) {
	resp, err := p.Complete(ctx, CompletionRequest{
		SystemPrompt: system,
		Messages:     []Message{{Role: RoleUser, Content: user}},
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// Flatten splits req into a system text and a single prompt for providers
// whose API takes one prompt string. System messages join SystemPrompt;
// the other turns are separated by blank lines.
func Flatten(req CompletionRequest) (system, prompt string) {
	var sys, turns []string
	if req.SystemPrompt != "" {
		sys = append(sys, req.SystemPrompt)
	}
	for _, m := range req.Messages {
		if m.Role == RoleSystem {
			sys = append(sys, m.Content)
			continue
		}
		turns = append(turns, m.Content)
	}
	return strings.Join(sys, "\n\n"), strings.Join(turns, "\n\n")
}
