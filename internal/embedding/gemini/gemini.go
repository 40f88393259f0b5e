package gemini

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/genai"

	"faqbot/internal/domain"
)

// Embedder wraps a genai.Client to implement domain.Embedder.
type Embedder struct {
	client    *genai.Client
	modelName string

	mu        sync.Mutex
	dimension int
}

// NewEmbedder creates a new Gemini embedder
// client: genai.Client from google.golang.org/genai
// modelName: the embedding model to use (e.g., "text-embedding-004")
func NewEmbedder(client *genai.Client, modelName string) *Embedder {
	return &Embedder{client: client, modelName: modelName}
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "gemini:" + e.modelName }

// Prepare is a no-op for a hosted model.
func (e *Embedder) Prepare(context.Context, []string) error { return nil }

// Dimension returns the dimensionality observed so far.
func (e *Embedder) Dimension() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dimension
}

// Embed implements domain.Embedder.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("gemini embed: %w", domain.ErrEmptyCorpus)
	}
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = &genai.Content{Parts: []*genai.Part{{Text: text}}}
	}

	result, err := e.client.Models.EmbedContent(ctx, e.modelName, contents, &genai.EmbedContentConfig{})
	if err != nil {
		return nil, fmt.Errorf("%w: gemini embeddings: %w", domain.ErrEncoding, err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: gemini returned %d embeddings for %d inputs", domain.ErrEncoding, len(result.Embeddings), len(texts))
	}

	out := make([][]float64, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("%w: empty embedding vector", domain.ErrEncoding)
		}
		if err := e.checkDimension(len(emb.Values)); err != nil {
			return nil, err
		}
		// Convert []float32 to []float64
		v := make([]float64, len(emb.Values))
		for j, x := range emb.Values {
			v[j] = float64(x)
		}
		out[i] = v
	}
	return out, nil
}

func (e *Embedder) checkDimension(n int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dimension == 0 {
		e.dimension = n
		return nil
	}
	if e.dimension != n {
		return fmt.Errorf("%w: got %d, want %d", domain.ErrDimensionMismatch, n, e.dimension)
	}
	return nil
}

// Verify that Embedder implements domain.Embedder
var _ domain.Embedder = (*Embedder)(nil)
