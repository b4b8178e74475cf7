package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/oranjParker/Paperbase/internal/core"
	"github.com/oranjParker/Paperbase/internal/llm"
)

type fakeQueryEmbedder struct {
	vector []float32
	err    error
	asked  string
}

func (f *fakeQueryEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	f.asked = text
	return f.vector, f.err
}

type fakeSearcher struct {
	results []core.SearchResult
	err     error
	gotK    uint64
	gotVec  []float32
}

func (f *fakeSearcher) Search(ctx context.Context, vector []float32, k uint64) ([]core.SearchResult, error) {
	f.gotVec = vector
	f.gotK = k
	return f.results, f.err
}

// capturingProvider remembers the prompt it was handed.
type capturingProvider struct {
	llm.MockProvider
	prompt string
}

func (p *capturingProvider) Generate(ctx context.Context, prompt string) (string, error) {
	p.prompt = prompt
	return p.MockProvider.Generate(ctx, prompt)
}

func TestAsk_AnswersFromContext(t *testing.T) {
	embedder := &fakeQueryEmbedder{vector: []float32{0.1, 0.2}}
	searcher := &fakeSearcher{results: []core.SearchResult{
		{Title: "report.pdf", PageNumber: 2, Content: "The deadline is March 3rd.", Score: 0.9},
		{Title: "memo.pdf", PageNumber: 1, Content: "Budget was approved in January.", Score: 0.8},
	}}
	provider := &capturingProvider{}

	a := &Answerer{Embedder: embedder, Index: searcher, LLM: provider}
	answer, err := a.Ask(context.Background(), "When is the deadline?")
	if err != nil {
		t.Fatalf("expected nil, got %v", err)
	}

	if answer.Text == "" {
		t.Error("expected a non-empty answer")
	}
	if len(answer.Sources) != 2 {
		t.Errorf("sources = %d, want 2", len(answer.Sources))
	}
	if embedder.asked != "When is the deadline?" {
		t.Errorf("embedded text = %q", embedder.asked)
	}
	if searcher.gotK != 3 {
		t.Errorf("k = %d, want the default 3", searcher.gotK)
	}

	// The prompt must carry both the retrieved context and the question.
	if !strings.Contains(provider.prompt, "The deadline is March 3rd.") {
		t.Error("prompt missing first retrieved chunk")
	}
	if !strings.Contains(provider.prompt, "Budget was approved in January.") {
		t.Error("prompt missing second retrieved chunk")
	}
	if !strings.Contains(provider.prompt, "When is the deadline?") {
		t.Error("prompt missing the question")
	}
}

func TestAsk_NoDocuments(t *testing.T) {
	a := &Answerer{
		Embedder: &fakeQueryEmbedder{vector: []float32{0.1}},
		Index:    &fakeSearcher{},
		LLM:      &failingProvider{},
	}

	answer, err := a.Ask(context.Background(), "anything?")
	if err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if answer.Text != "No documents found" {
		t.Errorf("answer = %q", answer.Text)
	}
	if len(answer.Sources) != 0 {
		t.Error("an empty search should carry no sources")
	}
}

func TestAsk_CustomTopK(t *testing.T) {
	searcher := &fakeSearcher{results: []core.SearchResult{{Content: "x"}}}
	a := &Answerer{
		Embedder: &fakeQueryEmbedder{vector: []float32{0.1}},
		Index:    searcher,
		LLM:      &llm.MockProvider{},
		TopK:     5,
	}

	if _, err := a.Ask(context.Background(), "q"); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if searcher.gotK != 5 {
		t.Errorf("k = %d, want 5", searcher.gotK)
	}
}

func TestAsk_PropagatesFailures(t *testing.T) {
	t.Run("Embedder", func(t *testing.T) {
		a := &Answerer{
			Embedder: &fakeQueryEmbedder{err: errors.New("quota exceeded")},
			Index:    &fakeSearcher{},
			LLM:      &llm.MockProvider{},
		}
		if _, err := a.Ask(context.Background(), "q"); err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("Searcher", func(t *testing.T) {
		a := &Answerer{
			Embedder: &fakeQueryEmbedder{vector: []float32{0.1}},
			Index:    &fakeSearcher{err: errors.New("index down")},
			LLM:      &llm.MockProvider{},
		}
		if _, err := a.Ask(context.Background(), "q"); err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("Provider", func(t *testing.T) {
		a := &Answerer{
			Embedder: &fakeQueryEmbedder{vector: []float32{0.1}},
			Index:    &fakeSearcher{results: []core.SearchResult{{Content: "x"}}},
			LLM:      &failingProvider{},
		}
		if _, err := a.Ask(context.Background(), "q"); err == nil {
			t.Fatal("expected an error")
		}
	})
}

type failingProvider struct{}

func (failingProvider) Generate(ctx context.Context, prompt string) (string, error) {
	return "", errors.New("model unavailable")
}
