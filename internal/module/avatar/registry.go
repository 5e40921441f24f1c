// Package avatar holds the static avatar table: named still images with the
// speaker voice each one defaults to.
package avatar

import (
	"os"
	"path/filepath"

	apperrors "github.com/facecast/server/internal/shared/errors"
)

// Entry is one avatar: a still image asset and its default speaker voice.
type Entry struct {
	ID        string
	ImagePath string
	Speaker   string
}

// Registry is the process-wide avatar table. It is loaded once at startup and
// read-only afterwards, so lookups need no locking.
type Registry struct {
	entries map[string]Entry
}

// NewRegistry creates a registry from the configured avatar entries. Relative
// image paths are resolved against inputsDir.
func NewRegistry(inputsDir string, entries []Entry) *Registry {
	m := make(map[string]Entry, len(entries))
	for _, e := range entries {
		if !filepath.IsAbs(e.ImagePath) {
			e.ImagePath = filepath.Join(inputsDir, e.ImagePath)
		}
		m[e.ID] = e
	}
	return &Registry{entries: m}
}

// Get returns the avatar entry for id. It fails with a not-found error when
// the id is unknown or its backing image file is missing on disk.
func (r *Registry) Get(id string) (Entry, error) {
	e, ok := r.entries[id]
	if !ok {
		return Entry{}, apperrors.NotFound("avatar " + id)
	}
	if _, err := os.Stat(e.ImagePath); err != nil {
		return Entry{}, apperrors.NotFound("avatar image " + e.ImagePath)
	}
	return e, nil
}

// All returns every entry in the table.
func (r *Registry) All() []Entry {
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	return out
}
