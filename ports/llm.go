package ports

import "context"

// LLMClient interface for LLM providers. Injected explicitly into the chat
// agent at construction time; there is no ambient client singleton.
type LLMClient interface {
	ChatCompletion(ctx context.Context, model string, prompt string, maxTokens int) (string, error)
}
