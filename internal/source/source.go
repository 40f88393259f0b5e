// Package source loads the corpus from a domain.DocumentSource.
package source

import (
	"context"
	"fmt"
	"log/slog"

	"faqbot/internal/domain"
)

// LoadCorpus lists the source and fetches every document in listing order.
// Any failure aborts the load: a partial corpus is never returned.
func LoadCorpus(ctx context.Context, src domain.DocumentSource, logger *slog.Logger) ([]domain.Document, error) {
	refs, err := src.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list documents: %w", domain.ErrDocumentFetch, err)
	}
	docs := make([]domain.Document, 0, len(refs))
	for _, ref := range refs {
		content, err := src.Content(ctx, ref.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrDocumentFetch, ref.Name, err)
		}
		docs = append(docs, domain.Document{ID: ref.ID, Name: ref.Name, Content: content})
		logger.Info("loaded document", "name", ref.Name, "bytes", len(content))
	}
	logger.Info("total documents loaded", "count", len(docs))
	return docs, nil
}
