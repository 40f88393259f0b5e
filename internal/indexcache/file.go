package indexcache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps one gob file per checksum under a directory.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path(checksum string) string {
	return filepath.Join(s.dir, checksum+".gob")
}

func (s *FileStore) Get(_ context.Context, checksum string) (*Entry, error) {
	data, err := os.ReadFile(s.path(checksum))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrMiss
		}
		return nil, err
	}
	return decode(data)
}

// Put writes the entry to a temporary file and renames it into place.
func (s *FileStore) Put(_ context.Context, entry *Entry) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	data, err := encode(entry)
	if err != nil {
		return err
	}
	target := s.path(entry.Checksum)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, target)
}
