package llm

import "context"

// Provider is the completion interface: context-stuffed prompt in, answer
// text out.
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
