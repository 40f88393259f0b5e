package vectorstore

import (
	"context"
	"fmt"
	"sort"

	"faqbot/internal/domain"
)

// Storage is a nearest-neighbour index over corpus vectors.
// Position i of the vectors passed to Build is corpus index i.
// Build replaces any previous contents; Search must not mutate state.
type Storage interface {
	Build(ctx context.Context, vectors [][]float64) error
	Search(ctx context.Context, vector []float64, topK int) ([]domain.Hit, error)
	Size() int
	Dimension() int
}

// Validate checks that vectors is non-empty and uniformly sized and returns the dimension.
func Validate(vectors [][]float64) (int, error) {
	if len(vectors) == 0 {
		return 0, fmt.Errorf("build index: %w", domain.ErrEmptyCorpus)
	}
	dim := len(vectors[0])
	if dim == 0 {
		return 0, fmt.Errorf("build index: %w: zero-length vector", domain.ErrDimensionMismatch)
	}
	for i, v := range vectors {
		if len(v) != dim {
			return 0, fmt.Errorf("build index: %w: vector %d has %d dims, want %d", domain.ErrDimensionMismatch, i, len(v), dim)
		}
	}
	return dim, nil
}

// ClampK validates topK against the index size: topK < 1 is an error, topK above
// size is reduced to size.
func ClampK(topK, size int) (int, error) {
	if topK < 1 {
		return 0, fmt.Errorf("top k must be at least 1, got %d", topK)
	}
	return min(topK, size), nil
}

// SquaredL2 returns the squared Euclidean distance between equally sized vectors.
func SquaredL2(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// SortHits orders hits nearest first, ties by ascending corpus index.
func SortHits(hits []domain.Hit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].Index < hits[j].Index
	})
}
