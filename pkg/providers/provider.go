// Package providers is the agent invocation boundary: it takes an
// assembled system prompt plus the canonical message text and returns the
// model's reply. Everything beyond that single call (tool loops, retries,
// failover) is outside this system.
package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirahq/kirabridge/pkg/config"
)

// Invoker is the consumed contract for the downstream agent.
type Invoker interface {
	Invoke(ctx context.Context, systemPrompt, userMessage string) (string, error)
	Name() string
}

// New builds the invoker selected by cfg.Kind ("openai" serves any
// OpenAI-compatible endpoint via api_base).
func New(cfg config.ProviderConfig) (Invoker, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
	case "", "openai":
		return NewOpenAIInvoker(cfg), nil
	case "anthropic":
		return NewAnthropicInvoker(cfg), nil
	}
	return nil, fmt.Errorf("unknown provider kind: %s", cfg.Kind)
}
