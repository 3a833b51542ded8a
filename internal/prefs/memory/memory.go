// Package memory implements prefs.Store in process memory, optionally
// mirrored to a JSON file the way a preferences file survives restarts.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"fintrack/internal/prefs"
)

type Store struct {
	mu     sync.Mutex
	values map[string]string
	path   string // empty for a purely in-memory store
}

func New() *Store {
	return &Store{values: map[string]string{}}
}

// NewFile loads path if it exists and writes a snapshot back after every
// Apply. A corrupt file is logged and replaced by an empty store rather than
// failing startup.
func NewFile(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create prefs directory: %w", err)
	}

	s := &Store{values: map[string]string{}, path: path}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read prefs file: %w", err)
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		slog.Warn("Preferences file is corrupt, starting empty", "path", path, "error", err)
		s.values = map[string]string{}
	}
	return s, nil
}

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

// Apply commits the edits together. With a backing file, the in-memory map
// is only updated once the snapshot is on disk.
func (s *Store) Apply(_ context.Context, edits ...prefs.Edit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]string, len(s.values)+len(edits))
	for k, v := range s.values {
		next[k] = v
	}
	for _, e := range edits {
		if e.Delete {
			delete(next, e.Key)
			continue
		}
		next[e.Key] = e.Value
	}

	if s.path != "" {
		if err := writeSnapshot(s.path, next); err != nil {
			return err
		}
	}
	s.values = next
	return nil
}

// Keys returns the stored keys with the given prefix, sorted.
func (s *Store) Keys(prefix string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for k := range s.values {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func writeSnapshot(path string, values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write prefs file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace prefs file: %w", err)
	}
	return nil
}
