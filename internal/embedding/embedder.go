// Package embedding selects the embedder implementation named in configuration.
package embedding

import (
	"context"
	"fmt"
	"os"
	"time"

	"google.golang.org/genai"

	"faqbot/internal/config"
	"faqbot/internal/domain"
	"faqbot/internal/embedding/eino"
	"faqbot/internal/embedding/gemini"
	"faqbot/internal/embedding/openai"
	"faqbot/internal/embedding/tfidf"
)

// New builds the embedder for cfg. The returned instance must be kept for the
// whole session: corpus and queries have to go through the same one.
func New(ctx context.Context, cfg config.EmbedderConfig) (domain.Embedder, error) {
	switch cfg.Type {
	case "tfidf", "":
		return tfidf.NewEmbedder(), nil
	case "openai":
		if cfg.OpenAI == nil {
			return nil, fmt.Errorf("embedder.openai config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:   cfg.OpenAI.BaseURL,
			APIKeyEnv: cfg.OpenAI.APIKeyEnv,
			Model:     cfg.OpenAI.Model,
			Timeout:   time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
			BatchSize: cfg.OpenAI.BatchSize,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	case "gemini":
		if cfg.Gemini == nil {
			return nil, fmt.Errorf("embedder.gemini config missing")
		}
		client, err := NewGenAIClient(ctx, cfg.Gemini.APIKeyEnv)
		if err != nil {
			return nil, err
		}
		return gemini.NewEmbedder(client, cfg.Gemini.Model), nil
	case "eino":
		if cfg.Eino == nil {
			return nil, fmt.Errorf("embedder.eino config missing")
		}
		emb, err := eino.NewOpenAI(ctx, eino.OpenAIConfig{
			APIKey:  os.Getenv(cfg.Eino.APIKeyEnv),
			BaseURL: cfg.Eino.BaseURL,
			Model:   cfg.Eino.Model,
		})
		if err != nil {
			return nil, err
		}
		return emb, nil
	default:
		return nil, fmt.Errorf("unknown embedder type: %s", cfg.Type)
	}
}

// NewGenAIClient creates a Gemini API client with the key read from apiKeyEnv.
func NewGenAIClient(ctx context.Context, apiKeyEnv string) (*genai.Client, error) {
	key := os.Getenv(apiKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", apiKeyEnv)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: key, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return client, nil
}
