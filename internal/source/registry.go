package source

import (
	"fmt"
	"sync"

	"pysema/internal/errors"
	"pysema/internal/paths"
)

// FileID is a dense identifier for an interned file path. IDs are
// assigned sequentially starting at 1; the zero value is never a valid
// id and can be used as a sentinel.
type FileID uint32

// Registry interns file paths to stable FileIDs. Equal paths (after
// canonicalization) always intern to the same id, and an id, once
// assigned, never changes or disappears for the lifetime of the
// registry. Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	ids   map[string]FileID
	byID  []string // index id-1
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		ids: make(map[string]FileID),
	}
}

// Intern returns the id for path, assigning a fresh one on first sight.
// The path is canonicalized first, so spellings that name the same file
// share an id. Returns InvalidPath for paths that cannot be
// canonicalized.
func (r *Registry) Intern(path string) (FileID, error) {
	canonical, err := paths.Canonical(path)
	if err != nil {
		return 0, errors.New(errors.InvalidPath, fmt.Sprintf("cannot intern %q", path), err)
	}

	r.mu.RLock()
	id, ok := r.ids[canonical]
	r.mu.RUnlock()
	if ok {
		return id, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Re-check under the write lock; another goroutine may have
	// interned the same path between the two lock acquisitions.
	if id, ok := r.ids[canonical]; ok {
		return id, nil
	}
	r.byID = append(r.byID, canonical)
	id = FileID(len(r.byID))
	r.ids[canonical] = id
	return id, nil
}

// Path returns the canonical path for id. Looking up an id that was
// never returned by Intern is a programming error and panics.
func (r *Registry) Path(id FileID) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id == 0 || int(id) > len(r.byID) {
		panic(fmt.Sprintf("source: unknown FileID %d (registry holds %d files)", id, len(r.byID)))
	}
	return r.byID[id-1]
}

// Lookup returns the id for path without interning it. The second
// return value reports whether the path was already known.
func (r *Registry) Lookup(path string) (FileID, bool) {
	canonical, err := paths.Canonical(path)
	if err != nil {
		return 0, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.ids[canonical]
	return id, ok
}

// Len returns the number of interned paths
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
