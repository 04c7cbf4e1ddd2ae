package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// File is a Backend persisted as a single JSON document on disk. Writes go
// through a temp file and rename so a crash mid-write leaves the previous
// state intact. A file that cannot be parsed is treated as empty rather than
// fatal.
type File struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

// DefaultStatePath returns the state file location under the user config
// directory (for example ~/.config/resumeforge/state.json).
func DefaultStatePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "resumeforge", "state.json"), nil
}

// NewFile creates a file-backed store at path, loading any existing state.
func NewFile(path string) (*File, error) {
	if path == "" {
		return nil, fmt.Errorf("storage path is empty")
	}

	f := &File{path: path, values: make(map[string]string)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, fmt.Errorf("failed to read state file %s: %w", path, err)
	}

	// Malformed state is discarded, not fatal.
	if err := json.Unmarshal(data, &f.values); err != nil {
		f.values = make(map[string]string)
	}
	return f, nil
}

// Get returns the stored value for key.
func (f *File) Get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	return v, ok
}

// Set stores value under key and flushes to disk.
func (f *File) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return f.flush()
}

// Delete removes key and flushes to disk.
func (f *File) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.values, key)
	return f.flush()
}

// flush writes the state atomically. Caller must hold mu.
func (f *File) flush() error {
	data, err := json.MarshalIndent(f.values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}
