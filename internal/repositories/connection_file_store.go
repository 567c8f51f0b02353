package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/skillswap/backend/internal/models"
)

// FileConnectionStore persists the connection collection as a single JSON
// document on disk. Reads load the whole file; writes replace it through a
// temp-file rename so a crash never leaves a half-written collection.
type FileConnectionStore struct {
	path string
}

// NewFileConnectionStore constructs a store writing to the provided path.
func NewFileConnectionStore(path string) *FileConnectionStore {
	return &FileConnectionStore{path: path}
}

// LoadAll reads the full connection collection. A missing file is an empty
// collection, not an error.
func (s *FileConnectionStore) LoadAll(_ context.Context) ([]models.Connection, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read connections file: %w", err)
	}

	var conns []models.Connection
	if err := json.Unmarshal(data, &conns); err != nil {
		return nil, fmt.Errorf("decode connections file: %w", err)
	}

	return conns, nil
}

// ReplaceAll atomically overwrites the collection with the provided records.
func (s *FileConnectionStore) ReplaceAll(_ context.Context, conns []models.Connection) error {
	if conns == nil {
		conns = []models.Connection{}
	}

	data, err := json.MarshalIndent(conns, "", "    ")
	if err != nil {
		return fmt.Errorf("encode connections: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create connections directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "connections-*.json")
	if err != nil {
		return fmt.Errorf("create temp connections file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp connections file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp connections file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace connections file: %w", err)
	}

	return nil
}
