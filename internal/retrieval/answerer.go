package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/oranjParker/Paperbase/internal/core"
	"github.com/oranjParker/Paperbase/internal/llm"
)

const answerTemplate = `Use the provided context to answer the question. If the context does not contain the answer, simply state that you don't know.
Your response should be informative and concise, using no more than four sentences.

Context: %s

Question: %s

Answer:`

type Searcher interface {
	Search(ctx context.Context, vector []float32, k uint64) ([]core.SearchResult, error)
}

type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Answer carries the model's reply plus the chunks it was grounded on.
type Answer struct {
	Text    string
	Sources []core.SearchResult
}

// Answerer is the retrieval collaborator: embed the question, pull the top-k
// chunks from the index, and ask the model to summarize them. It never
// touches the write path.
type Answerer struct {
	Embedder QueryEmbedder
	Index    Searcher
	LLM      llm.Provider
	TopK     uint64
}

func (a *Answerer) Ask(ctx context.Context, question string) (*Answer, error) {
	k := a.TopK
	if k == 0 {
		k = 3
	}

	vector, err := a.Embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}

	docs, err := a.Index.Search(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}
	if len(docs) == 0 {
		return &Answer{Text: "No documents found"}, nil
	}

	prompt := fmt.Sprintf(answerTemplate, formatDocs(docs), question)

	text, err := a.LLM.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	return &Answer{Text: strings.TrimSpace(text), Sources: docs}, nil
}

func formatDocs(docs []core.SearchResult) string {
	parts := make([]string, len(docs))
	for i, d := range docs {
		parts[i] = d.Content
	}
	return strings.Join(parts, "\n\n")
}
