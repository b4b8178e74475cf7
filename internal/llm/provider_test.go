package llm

import (
	"context"
	"testing"
)

func TestNewGeminiProvider_KeepsConfiguredModel(t *testing.T) {
	p := NewGeminiProvider(nil, "gemini-custom")
	if p.Model != "gemini-custom" {
		t.Errorf("model = %q, want the configured id passed through untouched", p.Model)
	}
}

func TestNewOllamaProvider_Defaults(t *testing.T) {
	p := NewOllamaProvider("", "")
	if p.Endpoint != "http://localhost:11434" {
		t.Errorf("endpoint = %q", p.Endpoint)
	}
	if p.Model != "mistral" {
		t.Errorf("model = %q", p.Model)
	}

	p = NewOllamaProvider("http://ollama:11434", "llama3")
	if p.Endpoint != "http://ollama:11434" || p.Model != "llama3" {
		t.Errorf("provider = %+v", p)
	}
}

func TestMockProvider(t *testing.T) {
	p := &MockProvider{}
	answer, err := p.Generate(context.Background(), "anything")
	if err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if answer == "" {
		t.Error("expected a canned answer")
	}
}
