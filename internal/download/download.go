// Package download abstracts "deliver a binary payload to the user". The
// core stores only ever hand over bytes and a filename; where they land
// (a file on disk for the CLI, a save dialog elsewhere) is the Saver's
// concern.
package download

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Saver delivers a named binary payload to the user.
type Saver interface {
	Save(filename string, data []byte) error
}

// FileSaver writes payloads into a directory, the CLI's delivery mechanism.
// An empty Dir means the current working directory.
type FileSaver struct {
	Dir string
}

// Save writes data to Dir/filename.
func (f *FileSaver) Save(filename string, data []byte) error {
	if filename == "" {
		return fmt.Errorf("filename is empty")
	}
	path := filepath.Join(f.Dir, filepath.Base(filename))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// SanitizeFilename reduces a display name to a safe filename, collapsing
// runs of unsafe characters to single underscores.
func SanitizeFilename(name string) string {
	s := unsafeFilenameChars.ReplaceAllString(name, "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return "download"
	}
	return s
}
