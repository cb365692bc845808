// Package localfile stores documents as plain JSON files in a directory.
// It is the persistence backend of last resort: always available, survives
// restarts on the same host.
package localfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"banktrack/pkg/storage"
)

type Store struct {
	dir string
}

func New(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

func (s *Store) Put(_ context.Context, name string, body []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}
	if err := os.WriteFile(s.path(name), body, 0o644); err != nil {
		return fmt.Errorf("write document %s: %w", name, err)
	}
	return nil
}

func (s *Store) Get(_ context.Context, name string) ([]byte, error) {
	body, err := os.ReadFile(s.path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("read document %s: %w", name, err)
	}
	return body, nil
}
