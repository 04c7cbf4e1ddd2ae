// Package storage provides durable keyed client-side state: the auth token,
// the cached user profile, and UI preferences. Contents are an advisory
// cache, never the source of truth; the backend remains authoritative.
package storage

import "sync"

// Well-known keys. Every key is namespaced with the product prefix so the
// state file can be inspected or cleared selectively.
const (
	KeyToken       = "resumeforge_token"
	KeyUser        = "resumeforge_user"
	KeyTheme       = "resumeforge_theme"
	KeyDarkMode    = "resumeforge_dark_mode"
	KeyEditHistory = "resumeforge_edit_history"
)

// Backend is a keyed string store. Implementations must be safe for
// concurrent use. Get returns ok=false for absent keys; callers treat
// malformed values the same as absent ones.
type Backend interface {
	Get(key string) (value string, ok bool)
	Set(key, value string) error
	Delete(key string) error
}

// Memory is an in-process Backend used by tests and by callers that opt out
// of persistence.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// Get returns the stored value for key.
func (m *Memory) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

// Set stores value under key.
func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
