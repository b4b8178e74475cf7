package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"

	"github.com/oranjParker/Paperbase/internal/core"
)

// genai caps batch embedding requests at 100 contents.
const maxBatchContents = 100

// Embedder turns text into fixed-length vectors. EmbedBatch preserves input
// order. Vectors are not guaranteed bit-stable across service upgrades.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// GeminiEmbedder wraps the Gemini embedding model. Document and query
// embeddings use distinct task types, so two model handles are kept.
type GeminiEmbedder struct {
	docs    *genai.EmbeddingModel
	queries *genai.EmbeddingModel
	dim     int
}

func NewGeminiEmbedder(client *genai.Client, model string, dim int) *GeminiEmbedder {
	docs := client.EmbeddingModel(model)
	docs.TaskType = genai.TaskTypeRetrievalDocument

	queries := client.EmbeddingModel(model)
	queries.TaskType = genai.TaskTypeRetrievalQuery

	return &GeminiEmbedder{docs: docs, queries: queries, dim: dim}
}

func (e *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += maxBatchContents {
		end := start + maxBatchContents
		if end > len(texts) {
			end = len(texts)
		}

		batch := e.docs.NewBatch()
		for _, text := range texts[start:end] {
			batch.AddContent(genai.Text(text))
		}

		resp, err := e.docs.BatchEmbedContents(ctx, batch)
		if err != nil {
			return nil, classify(err)
		}
		if len(resp.Embeddings) != end-start {
			return nil, core.Transient(fmt.Errorf("embedding service returned %d vectors for %d inputs", len(resp.Embeddings), end-start))
		}

		for _, emb := range resp.Embeddings {
			if err := e.checkDim(emb.Values); err != nil {
				return nil, err
			}
			vectors = append(vectors, emb.Values)
		}
	}

	return vectors, nil
}

func (e *GeminiEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.queries.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, classify(err)
	}
	if resp.Embedding == nil {
		return nil, core.Transient(fmt.Errorf("empty embedding response"))
	}
	if err := e.checkDim(resp.Embedding.Values); err != nil {
		return nil, err
	}
	return resp.Embedding.Values, nil
}

// A dimension mismatch means the deployment and the index schema disagree.
// That is a deployment defect, not a retryable fault.
func (e *GeminiEmbedder) checkDim(vec []float32) error {
	if e.dim > 0 && len(vec) != e.dim {
		return fmt.Errorf("%w: embedding dimension %d does not match index dimension %d", core.ErrConfig, len(vec), e.dim)
	}
	return nil
}

func classify(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusBadRequest:
			return fmt.Errorf("%w: %v", core.ErrConfig, err)
		case http.StatusTooManyRequests:
			return core.Transient(fmt.Errorf("embedding service rate limited: %w", err))
		}
	}
	return core.Transient(fmt.Errorf("embedding service: %w", err))
}
