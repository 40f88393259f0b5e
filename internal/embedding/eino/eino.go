// Package eino adapts any eino embedding component to domain.Embedder.
package eino

import (
	"context"
	"fmt"
	"sync"

	openaiEmbed "github.com/cloudwego/eino-ext/components/embedding/openai"
	einoEmbedding "github.com/cloudwego/eino/components/embedding"

	"faqbot/internal/domain"
)

// Embedder wraps an eino embedding.Embedder.
type Embedder struct {
	embedder einoEmbedding.Embedder
	name     string

	mu        sync.Mutex
	dimension int
}

// New wraps an existing eino embedder under the given name.
func New(embedder einoEmbedding.Embedder, name string) *Embedder {
	return &Embedder{embedder: embedder, name: name}
}

// OpenAIConfig defines the configuration for an OpenAI-compatible eino embedder.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// NewOpenAI creates an OpenAI-compatible embedding model through eino-ext.
func NewOpenAI(ctx context.Context, cfg OpenAIConfig) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required in config")
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	emb, err := openaiEmbed.NewEmbedder(ctx, &openaiEmbed.EmbeddingConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("create eino embedder: %w", err)
	}
	return New(emb, "eino:"+cfg.Model), nil
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return e.name }

// Prepare is a no-op for a hosted model.
func (e *Embedder) Prepare(context.Context, []string) error { return nil }

// Dimension returns the dimensionality observed so far.
func (e *Embedder) Dimension() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dimension
}

// Embed generates one vector per text via EmbedStrings.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("eino embed: %w", domain.ErrEmptyCorpus)
	}
	vectors, err := e.embedder.EmbedStrings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to generate embeddings: %w", domain.ErrEncoding, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d inputs", domain.ErrEncoding, len(vectors), len(texts))
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, v := range vectors {
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: empty embedding returned", domain.ErrEncoding)
		}
		if e.dimension == 0 {
			e.dimension = len(v)
		}
		if len(v) != e.dimension {
			return nil, fmt.Errorf("%w: got %d, want %d", domain.ErrDimensionMismatch, len(v), e.dimension)
		}
	}
	return vectors, nil
}
