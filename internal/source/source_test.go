package source

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"faqbot/internal/domain"
)

type fakeSource struct {
	refs    []domain.DocumentRef
	content map[string]string
	listErr error
}

func (f *fakeSource) List(context.Context) ([]domain.DocumentRef, error) {
	return f.refs, f.listErr
}

func (f *fakeSource) Content(_ context.Context, id string) (string, error) {
	c, ok := f.content[id]
	if !ok {
		return "", errors.New("not found")
	}
	return c, nil
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestLoadCorpus_PreservesOrder(t *testing.T) {
	src := &fakeSource{
		refs:    []domain.DocumentRef{{ID: "2", Name: "second"}, {ID: "1", Name: "first"}},
		content: map[string]string{"1": "one", "2": "two"},
	}
	docs, err := LoadCorpus(context.Background(), src, discard())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(docs) != 2 || docs[0].Content != "two" || docs[1].Name != "first" {
		t.Errorf("unexpected corpus %+v", docs)
	}
}

func TestLoadCorpus_FetchFailureIsFatal(t *testing.T) {
	src := &fakeSource{
		refs:    []domain.DocumentRef{{ID: "1", Name: "first"}, {ID: "missing", Name: "gone"}},
		content: map[string]string{"1": "one"},
	}
	docs, err := LoadCorpus(context.Background(), src, discard())
	if !errors.Is(err, domain.ErrDocumentFetch) {
		t.Fatalf("expected ErrDocumentFetch, got %v", err)
	}
	if docs != nil {
		t.Errorf("partial corpus must not be returned, got %+v", docs)
	}

	_, err = LoadCorpus(context.Background(), &fakeSource{listErr: errors.New("denied")}, discard())
	if !errors.Is(err, domain.ErrDocumentFetch) {
		t.Errorf("expected ErrDocumentFetch for list failure, got %v", err)
	}
}
