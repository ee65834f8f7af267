// Package viewstate owns what outlives a single pipeline call: the
// per-log collapse state the user toggles, and the memoized results of
// recomputing views over it. The pipeline itself stays pure; this is
// the calling layer the memoization contract points at.
package viewstate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// validLogName matches alphanumeric, dash, underscore, and dot
// characters only, keeping state filenames free of path traversal.
var validLogName = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

func validateLogName(name string) error {
	if name == "" {
		return fmt.Errorf("log name must not be empty")
	}
	if strings.Contains(name, "..") {
		return fmt.Errorf("log name must not contain '..'")
	}
	if !validLogName.MatchString(name) {
		return fmt.Errorf("log name contains invalid characters")
	}
	return nil
}

// Store persists collapse state per log as one JSON file each, and
// tracks a revision per log so caches can invalidate on toggle.
type Store struct {
	dir  string
	mu   sync.Mutex
	revs map[string]int
}

// NewStore creates a Store backed by the given directory.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("cannot create state directory: %w", err)
	}
	return &Store{dir: dir, revs: make(map[string]int)}, nil
}

// DefaultDir returns the default view-state directory.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "runlens-state")
	}
	return filepath.Join(home, ".runlens", "state")
}

func (s *Store) path(log string) string {
	return filepath.Join(s.dir, log+".json")
}

// Collapsed returns the collapse map for a log. A missing file means no
// state yet and yields nil, which the flattener treats as expanded.
func (s *Store) Collapsed(log string) (map[string]bool, error) {
	if err := validateLogName(log); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(log))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read view state: %w", err)
	}
	var collapsed map[string]bool
	if err := json.Unmarshal(data, &collapsed); err != nil {
		return nil, fmt.Errorf("parse view state: %w", err)
	}
	return collapsed, nil
}

// Seed writes initial collapse state for a log, but only if none
// exists yet; the default-collapse policy applies once per log, after
// which the user's toggles win.
func (s *Store) Seed(log string, collapsed map[string]bool) error {
	if err := validateLogName(log); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path(log)); err == nil {
		return nil
	}
	return s.write(log, collapsed)
}

// Set toggles one node's collapse state and bumps the log's revision.
func (s *Store) Set(log, nodeID string, collapsed bool) error {
	if err := validateLogName(log); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	state := make(map[string]bool)
	if data, err := os.ReadFile(s.path(log)); err == nil {
		_ = json.Unmarshal(data, &state)
	}
	if collapsed {
		state[nodeID] = true
	} else {
		delete(state, nodeID)
	}
	if err := s.write(log, state); err != nil {
		return err
	}
	s.revs[log]++
	return nil
}

// Revision returns a counter that changes whenever the log's collapse
// state does, for use as a cache key component.
func (s *Store) Revision(log string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revs[log]
}

func (s *Store) write(log string, collapsed map[string]bool) error {
	if collapsed == nil {
		collapsed = map[string]bool{}
	}
	data, err := json.MarshalIndent(collapsed, "", "  ")
	if err != nil {
		return fmt.Errorf("encode view state: %w", err)
	}
	tmp := s.path(log) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write view state: %w", err)
	}
	if err := os.Rename(tmp, s.path(log)); err != nil {
		return fmt.Errorf("write view state: %w", err)
	}
	return nil
}
