package baseline

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrCorrupt is returned when a baseline file exists but cannot be decoded.
var ErrCorrupt = errors.New("corrupt baseline")

// Store manages the baseline file.
type Store struct {
	Path string
}

// NewStore creates a store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{Path: path}
}

// Save writes snap, creating parent directories if needed.
func (s *Store) Save(snap Snapshot) error {
	if dir := filepath.Dir(s.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating baseline directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding baseline: %w", err)
	}

	// Write then rename so an interrupted save leaves the old file intact.
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing baseline: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("writing baseline: %w", err)
	}
	return nil
}

// Load reads the baseline. found is false, with a nil error, when no
// baseline file exists yet.
func (s *Store) Load() (snap Snapshot, found bool, err error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, fmt.Errorf("reading baseline: %w", err)
	}

	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("%w %s: %v", ErrCorrupt, s.Path, err)
	}
	if snap.Results == nil {
		return Snapshot{}, false, fmt.Errorf("%w %s: missing results", ErrCorrupt, s.Path)
	}
	snap.normalizeNames()
	return snap, true, nil
}

// Exists checks if the baseline file exists.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.Path)
	return err == nil
}
