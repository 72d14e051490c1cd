package docstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// LocalStore stores documents as files on the local filesystem.
type LocalStore struct {
	basePath string
}

// NewLocalStore creates a new LocalStore at the given base path.
// It creates the directory if it does not exist.
func NewLocalStore(basePath string) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, 0o750); err != nil {
		return nil, fmt.Errorf("docstore: create base directory: %w", err)
	}
	return &LocalStore{basePath: basePath}, nil
}

// Put writes document data to a file using an atomic write pattern.
func (s *LocalStore) Put(_ context.Context, name string, data []byte) error {
	if err := validateName(name); err != nil {
		return err
	}
	finalPath := filepath.Join(s.basePath, name)

	// Write to a temp file in the same directory, then rename for atomicity.
	tmp, err := os.CreateTemp(s.basePath, ".tmp-"+name+"-*")
	if err != nil {
		return fmt.Errorf("docstore: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("docstore: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("docstore: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, finalPath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("docstore: rename temp file: %w", err)
	}
	return nil
}

// Get reads document data from a file.
// Returns ErrNotFound if the document does not exist.
func (s *LocalStore) Get(_ context.Context, name string) ([]byte, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.basePath, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("docstore: read file: %w", err)
	}
	return data, nil
}
