package domain

import "context"

// Document is a single plain-text passage of the corpus.
// Its identity is its position in the corpus ordering.
type Document struct {
	ID      string
	Name    string
	Content string
}

// DocumentRef identifies a document exposed by a DocumentSource.
type DocumentRef struct {
	ID   string
	Name string
}

// Hit is a nearest-neighbour match: a corpus position and its squared L2 distance.
type Hit struct {
	Index    int
	Distance float64
}

// SearchResult pairs a hit with the passage it points at.
type SearchResult struct {
	Document Document
	Hit      Hit
}

// Embedder converts free text into numeric vectors.
// Implementations may require a preparation phase over the corpus; the prepared
// state must be reused for every later Embed call of the session.
type Embedder interface {
	Name() string
	Prepare(ctx context.Context, corpus []string) error
	Dimension() int
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// Chunker splits documents into passages suitable for indexing.
type Chunker interface {
	Chunk(document Document) ([]Document, error)
}

// DocumentSource provides the corpus.
type DocumentSource interface {
	List(ctx context.Context) ([]DocumentRef, error)
	Content(ctx context.Context, id string) (string, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}
