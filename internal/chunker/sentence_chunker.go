package chunker

import (
	"strconv"
	"strings"

	"faqbot/internal/domain"
	"faqbot/internal/textutil"
)

// None keeps each document as a single passage.
type None struct{}

func (None) Chunk(document domain.Document) ([]domain.Document, error) {
	if strings.TrimSpace(document.Content) == "" {
		return nil, nil
	}
	return []domain.Document{document}, nil
}

// SentenceChunker splits text into sentence-based passages with overlap.
type SentenceChunker struct {
	sentencesPerChunk int
	overlapSentences  int
}

func NewSentenceChunker(sentencesPerChunk, overlapSentences int) *SentenceChunker {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = 5
	}
	if overlapSentences < 0 {
		overlapSentences = 0
	}
	if overlapSentences >= sentencesPerChunk {
		overlapSentences = sentencesPerChunk - 1
	}
	return &SentenceChunker{
		sentencesPerChunk: sentencesPerChunk,
		overlapSentences:  overlapSentences,
	}
}

// Chunk returns passages in document order; each keeps the source name and gets
// an id of the form "<document id>:<n>".
func (c *SentenceChunker) Chunk(document domain.Document) ([]domain.Document, error) {
	sentences := textutil.Sentences(document.Content)
	if len(sentences) == 0 {
		return nil, nil
	}
	var chunks []domain.Document
	i := 0
	idx := 0
	for i < len(sentences) {
		end := min(i+c.sentencesPerChunk, len(sentences))
		chunks = append(chunks, domain.Document{
			ID:      document.ID + ":" + strconv.Itoa(idx),
			Name:    document.Name,
			Content: strings.Join(sentences[i:end], " "),
		})
		if end == len(sentences) {
			break
		}
		i = end - c.overlapSentences
		idx++
	}
	return chunks, nil
}
