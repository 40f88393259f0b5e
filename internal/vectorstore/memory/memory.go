package memory

import (
	"context"
	"fmt"
	"sync"

	"faqbot/internal/domain"
	"faqbot/internal/vectorstore"
)

// Storage is an exact in-memory index using brute-force squared L2 distance.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float64
}

func NewStorage() *Storage { return &Storage{} }

// Build validates and stores a private copy of vectors.
func (s *Storage) Build(_ context.Context, vectors [][]float64) error {
	dim, err := vectorstore.Validate(vectors)
	if err != nil {
		return err
	}
	cp := make([][]float64, len(vectors))
	for i, v := range vectors {
		cp[i] = append([]float64(nil), v...)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dim
	s.vectors = cp
	return nil
}

func (s *Storage) Search(_ context.Context, vector []float64, topK int) ([]domain.Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	k, err := vectorstore.ClampK(topK, len(s.vectors))
	if err != nil {
		return nil, err
	}
	if len(s.vectors) == 0 {
		return nil, nil
	}
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d dims, index has %d", domain.ErrDimensionMismatch, len(vector), s.dimension)
	}
	hits := make([]domain.Hit, len(s.vectors))
	for i, v := range s.vectors {
		hits[i] = domain.Hit{Index: i, Distance: vectorstore.SquaredL2(v, vector)}
	}
	vectorstore.SortHits(hits)
	return hits[:k], nil
}

func (s *Storage) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors)
}

func (s *Storage) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimension
}
