package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"faqbot/internal/domain"
	"faqbot/internal/vectorstore"
)

// Storage is a minimal REST client to Qdrant.
// The collection is recreated on every Build with Euclid distance; point ids are
// corpus indices.
type Storage struct {
	url        string
	apiKey     string
	collection string
	batchSize  int
	client     *http.Client

	mu        sync.RWMutex
	dimension int
	size      int
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
	BatchSize  int
}

func NewStorage(cfg Config) *Storage {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 256
	}
	return &Storage{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		batchSize:  batch,
		client:     &http.Client{Timeout: timeout},
	}
}

func (s *Storage) Build(ctx context.Context, vectors [][]float64) error {
	dim, err := vectorstore.Validate(vectors)
	if err != nil {
		return err
	}
	if err := s.drop(ctx); err != nil {
		return err
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dim,
			"distance": "Euclid",
		},
	}
	if err := s.doJSON(ctx, http.MethodPut, s.collectionURL(""), body, nil); err != nil {
		return err
	}
	for start := 0; start < len(vectors); start += s.batchSize {
		end := min(start+s.batchSize, len(vectors))
		points := make([]map[string]any, 0, end-start)
		for i := start; i < end; i++ {
			points = append(points, map[string]any{
				"id":      i,
				"vector":  vectors[i],
				"payload": map[string]any{"index": i},
			})
		}
		if err := s.doJSON(ctx, http.MethodPut, s.collectionURL("/points?wait=true"), map[string]any{"points": points}, nil); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.dimension = dim
	s.size = len(vectors)
	s.mu.Unlock()
	return nil
}

// Search returns the k nearest points. Qdrant orders equal scores arbitrarily,
// so the limit is widened until the tie group at the cut-off is complete.
func (s *Storage) Search(ctx context.Context, vector []float64, topK int) ([]domain.Hit, error) {
	s.mu.RLock()
	size, dim := s.size, s.dimension
	s.mu.RUnlock()
	k, err := vectorstore.ClampK(topK, size)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, nil
	}
	if len(vector) != dim {
		return nil, fmt.Errorf("%w: query has %d dims, index has %d", domain.ErrDimensionMismatch, len(vector), dim)
	}
	limit := min(k+1, size)
	for {
		hits, err := s.search(ctx, vector, limit)
		if err != nil {
			return nil, err
		}
		vectorstore.SortHits(hits)
		if len(hits) < limit || limit == size || hits[k-1].Distance != hits[len(hits)-1].Distance {
			return hits[:min(k, len(hits))], nil
		}
		limit = min(limit*2, size)
	}
}

func (s *Storage) search(ctx context.Context, vector []float64, limit int) ([]domain.Hit, error) {
	req := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": false,
	}
	var resp struct {
		Result []struct {
			ID    int     `json:"id"`
			Score float64 `json:"score"`
		} `json:"result"`
	}
	if err := s.doJSON(ctx, http.MethodPost, s.collectionURL("/points/search"), req, &resp); err != nil {
		return nil, err
	}
	hits := make([]domain.Hit, 0, len(resp.Result))
	for _, r := range resp.Result {
		// Euclid score is the plain distance
		hits = append(hits, domain.Hit{Index: r.ID, Distance: r.Score * r.Score})
	}
	return hits, nil
}

func (s *Storage) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

func (s *Storage) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimension
}

func (s *Storage) drop(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.collectionURL(""), nil)
	if err != nil {
		return err
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant DELETE collection: %w", err)
	}
	_ = resp.Body.Close()
	// a missing collection is fine
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("qdrant DELETE collection failed: %s", resp.Status)
	}
	return nil
}

func (s *Storage) collectionURL(suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", s.url, s.collection, suffix)
}

func (s *Storage) doJSON(ctx context.Context, method, url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s failed: %s", method, url, resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
