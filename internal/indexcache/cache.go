// Package indexcache persists corpus embeddings so a restart over an unchanged
// corpus can skip the embedding pass.
package indexcache

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/minio/highwayhash"
)

// ErrMiss is returned by Get when no entry exists for a checksum.
var ErrMiss = errors.New("index cache miss")

var key = []byte("faqbot-index-cache-highwayhash!!")

// Entry is a cached set of corpus vectors. Vectors[i] belongs to corpus passage i.
type Entry struct {
	Checksum  string
	Embedder  string
	Dimension int
	Vectors   [][]float64
}

// Store persists entries keyed by checksum.
type Store interface {
	Get(ctx context.Context, checksum string) (*Entry, error)
	Put(ctx context.Context, entry *Entry) error
}

// Checksum fingerprints a corpus together with the embedder that encodes it.
// Passage order is significant.
func Checksum(embedder string, texts []string) (string, error) {
	h, err := highwayhash.New(key)
	if err != nil {
		return "", err
	}
	var lenBuf [8]byte
	write := func(s string) {
		binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(s)))
		h.Write(lenBuf[:])
		h.Write([]byte(s))
	}
	write(embedder)
	for _, t := range texts {
		write(t)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Valid reports whether the entry can serve a corpus of n passages.
func (e *Entry) Valid(checksum, embedder string, n int) bool {
	if e == nil || e.Checksum != checksum || e.Embedder != embedder || len(e.Vectors) != n {
		return false
	}
	for _, v := range e.Vectors {
		if len(v) != e.Dimension {
			return false
		}
	}
	return true
}

func encode(entry *Entry) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(entry); err != nil {
		return nil, fmt.Errorf("encode cache entry: %w", err)
	}
	return buf.Bytes(), nil
}

func decode(data []byte) (*Entry, error) {
	var entry Entry
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&entry); err != nil {
		return nil, fmt.Errorf("decode cache entry: %w", err)
	}
	return &entry, nil
}
