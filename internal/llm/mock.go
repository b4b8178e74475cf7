package llm

import "context"

// MockProvider for free local testing.
type MockProvider struct{}

func (m *MockProvider) Generate(ctx context.Context, prompt string) (string, error) {
	return "This is a mock answer for testing.", nil
}
