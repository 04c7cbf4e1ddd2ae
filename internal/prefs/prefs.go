// Package prefs persists display preferences: the CV theme and dark mode.
package prefs

import (
	"log/slog"
	"strconv"

	"github.com/resumeforge/resumeforge-go/internal/storage"
	"github.com/resumeforge/resumeforge-go/internal/store"
	"github.com/resumeforge/resumeforge-go/internal/types"
)

// knownThemes are the CV themes the backend renders.
var knownThemes = map[string]bool{
	"professional": true,
	"modern":       true,
	"classic":      true,
	"minimal":      true,
}

// Store holds the user's display preferences, hydrated from the storage
// backend at construction and written back on every change.
type Store struct {
	Theme    *store.Store[string]
	DarkMode *store.Store[bool]

	backend storage.Backend
	logger  *slog.Logger
}

// New hydrates preferences from backend. Unknown themes and malformed
// dark-mode values fall back to the defaults.
func New(backend storage.Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Store{
		Theme:    store.New(types.DefaultTheme),
		DarkMode: store.New(false),
		backend:  backend,
		logger:   logger,
	}

	if theme, ok := backend.Get(storage.KeyTheme); ok {
		if knownThemes[theme] {
			s.Theme.Set(theme)
		} else {
			logger.Debug("discarding unknown stored theme", slog.String("theme", theme))
		}
	}
	if raw, ok := backend.Get(storage.KeyDarkMode); ok {
		if dark, err := strconv.ParseBool(raw); err == nil {
			s.DarkMode.Set(dark)
		} else {
			logger.Debug("discarding malformed dark mode value", slog.String("value", raw))
		}
	}
	return s
}

// SetTheme switches the CV theme and persists it. Unknown themes are
// ignored.
func (s *Store) SetTheme(theme string) error {
	if !knownThemes[theme] {
		return nil
	}
	s.Theme.Set(theme)
	return s.backend.Set(storage.KeyTheme, theme)
}

// SetDarkMode flips dark mode and persists it.
func (s *Store) SetDarkMode(dark bool) error {
	s.DarkMode.Set(dark)
	return s.backend.Set(storage.KeyDarkMode, strconv.FormatBool(dark))
}

// ToggleDarkMode inverts the current setting and persists it.
func (s *Store) ToggleDarkMode() (bool, error) {
	dark := !s.DarkMode.Get()
	return dark, s.SetDarkMode(dark)
}
