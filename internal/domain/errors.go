package domain

import "errors"

var (
	// ErrEmptyCorpus is returned when a build or embedding is attempted on zero documents.
	ErrEmptyCorpus = errors.New("empty corpus")
	// ErrDimensionMismatch is returned when vectors of different sizes meet in one index.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrEncoding is returned when the embedding backend is unavailable or fails.
	ErrEncoding = errors.New("encoding failed")
	// ErrDocumentFetch is returned when a document could not be retrieved from its source.
	ErrDocumentFetch = errors.New("document fetch failed")
)
