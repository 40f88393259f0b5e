package tfidf

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"faqbot/internal/domain"
)

func TestEmbedder_Determinism(t *testing.T) {
	ctx := context.Background()
	e := NewEmbedder()
	corpus := []string{"JKKN Dental College offers BDS.", "JKKN Engineering offers B.Tech."}
	if err := e.Prepare(ctx, corpus); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	first, err := e.Embed(ctx, []string{"dental program"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	second, err := e.Embed(ctx, []string{"dental program"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("embedding is not deterministic (-first +second):\n%s", diff)
	}
}

func TestEmbedder_QueryUsesFittedVocabulary(t *testing.T) {
	ctx := context.Background()
	e := NewEmbedder()
	if err := e.Prepare(ctx, []string{"dental college", "engineering college"}); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	dim := e.Dimension()
	if dim != 3 {
		t.Fatalf("expected 3 terms, got %d", dim)
	}
	vecs, err := e.Embed(ctx, []string{"unknown words entirely", "dental"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	for i, v := range vecs {
		if len(v) != dim {
			t.Errorf("vector %d has dimension %d, want %d", i, len(v), dim)
		}
	}
	for _, x := range vecs[0] {
		if x != 0 {
			t.Errorf("out-of-vocabulary text should embed to zero vector, got %v", vecs[0])
			break
		}
	}
	norm := 0.0
	for _, x := range vecs[1] {
		norm += x * x
	}
	if math.Abs(norm-1) > 1e-9 {
		t.Errorf("expected unit norm, got %f", norm)
	}
	if e.Dimension() != dim {
		t.Errorf("embedding a query must not refit the vocabulary")
	}
}

func TestEmbedder_Errors(t *testing.T) {
	ctx := context.Background()
	e := NewEmbedder()
	if _, err := e.Embed(ctx, []string{"x"}); !errors.Is(err, domain.ErrEncoding) {
		t.Errorf("expected ErrEncoding before prepare, got %v", err)
	}
	if err := e.Prepare(ctx, nil); !errors.Is(err, domain.ErrEmptyCorpus) {
		t.Errorf("expected ErrEmptyCorpus, got %v", err)
	}
	if err := e.Prepare(ctx, []string{"the and of"}); !errors.Is(err, domain.ErrEncoding) {
		t.Errorf("expected ErrEncoding for stopword-only corpus, got %v", err)
	}
	if err := e.Prepare(ctx, []string{"dental"}); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if _, err := e.Embed(ctx, nil); !errors.Is(err, domain.ErrEmptyCorpus) {
		t.Errorf("expected ErrEmptyCorpus for empty input, got %v", err)
	}
}
