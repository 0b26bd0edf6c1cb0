// Package registry persists the adopters registry as an ordered,
// indent-formatted JSON list.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/adoptersbot/adopters/internal/model"
)

// Store manages the persisted registry file. The file is fully
// overwritten on each save; history survives via the date index.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a store at the given path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the registry file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads all entries from disk. A missing file yields an empty
// registry and no error; a malformed file surfaces an error so the
// caller can decide whether to start fresh.
func (s *Store) Load() ([]model.AdopterEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}

	var entries []model.AdopterEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse registry: %w", err)
	}
	return entries, nil
}

// Save writes the full entry list to disk atomically, preserving the
// input order.
func (s *Store) Save(entries []model.AdopterEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entries == nil {
		entries = []model.AdopterEntry{}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create registry directory: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write registry: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace registry: %w", err)
	}
	return nil
}

// DateIndex maps full_name to date_added for history preservation
// across runs.
func DateIndex(entries []model.AdopterEntry) map[string]string {
	idx := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.FullName == "" || e.DateAdded == "" {
			continue
		}
		if _, ok := idx[e.FullName]; ok {
			continue
		}
		idx[e.FullName] = e.DateAdded
	}
	return idx
}
