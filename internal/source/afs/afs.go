// Package afs exposes any github.com/viant/afs location (local directory, gs://,
// s3:// and the other registered schemes) as a document source.
package afs

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"

	"faqbot/internal/domain"
)

// Source lists documents under a location, filtered by extension.
type Source struct {
	svc        afs.Service
	location   string
	extensions map[string]struct{}
	recursive  bool
}

// Config configures an afs-backed source.
type Config struct {
	Location   string
	Extensions []string
	Recursive  bool
}

// New creates a source over cfg.Location. Local paths are made absolute.
func New(cfg Config) (*Source, error) {
	if cfg.Location == "" {
		return nil, fmt.Errorf("afs source: location is required")
	}
	location := cfg.Location
	if !strings.Contains(location, "://") {
		abs, err := filepath.Abs(location)
		if err != nil {
			return nil, err
		}
		location = abs
	}
	exts := cfg.Extensions
	if len(exts) == 0 {
		exts = []string{".txt", ".md"}
	}
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		set[e] = struct{}{}
	}
	return &Source{svc: afs.New(), location: location, extensions: set, recursive: cfg.Recursive}, nil
}

// List returns matching documents sorted by URL. The document id is its URL.
func (s *Source) List(ctx context.Context) ([]domain.DocumentRef, error) {
	var refs []domain.DocumentRef
	if err := s.walk(ctx, s.location, &refs); err != nil {
		return nil, err
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })
	return refs, nil
}

func (s *Source) walk(ctx context.Context, location string, refs *[]domain.DocumentRef) error {
	objects, err := s.svc.List(ctx, location)
	if err != nil {
		return fmt.Errorf("list %s: %w", location, err)
	}
	self := strings.TrimSuffix(url.Path(location), "/")
	for _, obj := range objects {
		if obj.IsDir() {
			if strings.TrimSuffix(url.Path(obj.URL()), "/") == self || !s.recursive {
				continue
			}
			if err := s.walk(ctx, obj.URL(), refs); err != nil {
				return err
			}
			continue
		}
		if !s.matches(obj) {
			continue
		}
		*refs = append(*refs, domain.DocumentRef{ID: obj.URL(), Name: obj.Name()})
	}
	return nil
}

func (s *Source) matches(obj storage.Object) bool {
	_, ok := s.extensions[strings.ToLower(filepath.Ext(obj.Name()))]
	return ok
}

// Content downloads a document by URL.
func (s *Source) Content(ctx context.Context, id string) (string, error) {
	data, err := s.svc.DownloadWithURL(ctx, id)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", id, err)
	}
	return string(data), nil
}
