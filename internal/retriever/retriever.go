// Package retriever ties an embedder and a vector index into the build and
// query phases of context retrieval.
package retriever

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"faqbot/internal/assembler"
	"faqbot/internal/domain"
	"faqbot/internal/indexcache"
	"faqbot/internal/textutil"
	"faqbot/internal/vectorstore"
)

const DefaultTopK = 5

// Config wires the retriever. Embedder and Storage are required; Chunker and
// Cache are optional. A nil MaxLength selects assembler.DefaultMaxLength;
// assembler.Unbounded disables truncation.
type Config struct {
	Embedder  domain.Embedder
	Storage   vectorstore.Storage
	Chunker   domain.Chunker
	Cache     indexcache.Store
	TopK      int
	MaxLength *int
	Logger    *slog.Logger
}

// Retriever owns the embedder instance for the whole session, so the corpus and
// every query are encoded by the same fitted transform.
type Retriever struct {
	embedder  domain.Embedder
	storage   vectorstore.Storage
	chunker   domain.Chunker
	cache     indexcache.Store
	topK      int
	maxLength int
	logger    *slog.Logger

	mu       sync.RWMutex
	passages []domain.Document
}

func New(cfg Config) (*Retriever, error) {
	if cfg.Embedder == nil || cfg.Storage == nil {
		return nil, errors.New("retriever requires an embedder and a storage")
	}
	r := &Retriever{
		embedder:  cfg.Embedder,
		storage:   cfg.Storage,
		chunker:   cfg.Chunker,
		cache:     cfg.Cache,
		topK:      cfg.TopK,
		maxLength: assembler.DefaultMaxLength,
		logger:    cfg.Logger,
	}
	if r.topK <= 0 {
		r.topK = DefaultTopK
	}
	if cfg.MaxLength != nil {
		if *cfg.MaxLength < assembler.Unbounded {
			return nil, fmt.Errorf("max context length must be %d or non-negative, got %d", assembler.Unbounded, *cfg.MaxLength)
		}
		r.maxLength = *cfg.MaxLength
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r, nil
}

// Build indexes docs. On failure the retriever is left empty and every query
// yields an empty context until a later Build succeeds.
func (r *Retriever) Build(ctx context.Context, docs []domain.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.passages = nil

	passages, err := r.split(docs)
	if err != nil {
		return err
	}
	if len(passages) == 0 {
		return fmt.Errorf("build: %w", domain.ErrEmptyCorpus)
	}
	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Content
	}
	if err := r.embedder.Prepare(ctx, texts); err != nil {
		return fmt.Errorf("prepare embedder: %w", err)
	}
	vectors, err := r.corpusVectors(ctx, texts)
	if err != nil {
		return err
	}
	if err := r.storage.Build(ctx, vectors); err != nil {
		return err
	}
	r.passages = passages
	r.logger.Info("index built", "embedder", r.embedder.Name(), "passages", len(passages), "dimension", r.storage.Dimension())
	return nil
}

func (r *Retriever) split(docs []domain.Document) ([]domain.Document, error) {
	if r.chunker == nil {
		return docs, nil
	}
	var passages []domain.Document
	for _, d := range docs {
		chunks, err := r.chunker.Chunk(d)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", d.Name, err)
		}
		passages = append(passages, chunks...)
	}
	return passages, nil
}

// corpusVectors embeds texts, consulting the index cache first when one is set.
// Cache failures are logged and never fail the build.
func (r *Retriever) corpusVectors(ctx context.Context, texts []string) ([][]float64, error) {
	var checksum string
	if r.cache != nil {
		sum, err := indexcache.Checksum(r.embedder.Name(), texts)
		if err != nil {
			r.logger.Warn("index cache checksum failed", "error", err)
		} else {
			checksum = sum
			entry, err := r.cache.Get(ctx, checksum)
			switch {
			case err == nil && entry.Valid(checksum, r.embedder.Name(), len(texts)):
				r.logger.Info("index cache hit", "checksum", checksum)
				return entry.Vectors, nil
			case err == nil || errors.Is(err, indexcache.ErrMiss):
				r.logger.Info("index cache miss", "checksum", checksum)
			default:
				r.logger.Warn("index cache read failed", "error", err)
			}
		}
	}

	vectors, err := r.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed corpus: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d passages", domain.ErrEncoding, len(vectors), len(texts))
	}

	if checksum != "" {
		entry := &indexcache.Entry{Checksum: checksum, Embedder: r.embedder.Name(), Dimension: len(vectors[0]), Vectors: vectors}
		if err := r.cache.Put(ctx, entry); err != nil {
			r.logger.Warn("index cache write failed", "error", err)
		}
	}
	return vectors, nil
}

// Size returns the number of indexed passages.
func (r *Retriever) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.passages)
}

// Search returns up to k passages nearest to query, nearest first.
// An empty index yields no results and no error.
func (r *Retriever) Search(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, err := vectorstore.ClampK(k, len(r.passages))
	if err != nil {
		return nil, err
	}
	if len(r.passages) == 0 {
		return nil, nil
	}
	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: got %d vectors for one query", domain.ErrEncoding, len(vectors))
	}

	var hits []domain.Hit
	if isZero(vectors[0]) {
		hits = r.lexicalHits(query, k)
	} else {
		hits, err = r.storage.Search(ctx, vectors[0], k)
		if err != nil {
			return nil, err
		}
	}

	results := make([]domain.SearchResult, 0, len(hits))
	for _, h := range hits {
		if h.Index < 0 || h.Index >= len(r.passages) {
			return nil, fmt.Errorf("index returned position %d outside corpus of %d", h.Index, len(r.passages))
		}
		results = append(results, domain.SearchResult{Document: r.passages[h.Index], Hit: h})
	}
	return results, nil
}

// GetRelevantContext returns the top passages for query joined nearest first
// and cut to the configured length. Failures are logged and yield "".
func (r *Retriever) GetRelevantContext(ctx context.Context, query string) string {
	_, assembled := r.Retrieve(ctx, query)
	return assembled
}

// Retrieve runs one query and returns both the ranked passages and the
// assembled context. Failures are logged and yield no passages and "".
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]domain.SearchResult, string) {
	results, err := r.Search(ctx, query, r.topK)
	if err != nil {
		r.logger.Warn("retrieval failed", "error", err)
		return nil, ""
	}
	texts := make([]string, len(results))
	for i, res := range results {
		texts[i] = res.Document.Content
	}
	return results, assembler.Assemble(texts, r.maxLength)
}

// lexicalHits ranks passages by token overlap (Ochiai coefficient). It serves
// queries whose embedding carries no signal, such as text sharing no term with
// the fitted vocabulary. Distance is 1 minus the coefficient.
func (r *Retriever) lexicalHits(query string, k int) []domain.Hit {
	qset := textutil.TokenSet(query)
	hits := make([]domain.Hit, len(r.passages))
	for i, p := range r.passages {
		hits[i] = domain.Hit{Index: i, Distance: 1 - ochiai(qset, textutil.TokenSet(p.Content))}
	}
	vectorstore.SortHits(hits)
	return hits[:k]
}

// ochiai is |A∩B| / sqrt(|A||B|).
func ochiai(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	return float64(inter) / math.Sqrt(float64(len(a))*float64(len(b)))
}

func isZero(v []float64) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
