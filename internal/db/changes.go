package db

import (
	"pysema/internal/parser"
	"pysema/internal/resolver"
	"pysema/internal/source"
)

// ChangeKind says what happened to a file.
type ChangeKind string

const (
	ChangeCreated  ChangeKind = "created"
	ChangeModified ChangeKind = "modified"
	ChangeDeleted  ChangeKind = "deleted"
)

// FileChange is one observed filesystem event.
type FileChange struct {
	Path string     `json:"path"`
	Kind ChangeKind `json:"kind"`
}

// ApplyChanges evicts the cached artifacts invalidated by a batch of
// file events. It blocks until in-flight queries drain, so a query
// never sees half of a batch. FileIDs survive deletion; a deleted
// file's next Source simply reads as unreadable.
//
// Created and deleted files also evict the resolution of the module
// their path provides, covering both shadowing and un-shadowing.
func (d *Database) ApplyChanges(changes []FileChange) error {
	if len(changes) == 0 {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	affected := make(map[resolver.ModuleName]bool)
	for _, ch := range changes {
		id, err := d.registry.Intern(ch.Path)
		if err != nil {
			return err
		}
		path := d.registry.Path(id)
		d.evictFile(id)

		switch ch.Kind {
		case ChangeCreated, ChangeDeleted:
			if name, ok := d.search.ModuleNameForPath(path); ok {
				d.resolved.Remove(name)
				affected[name] = true
			}
		case ChangeModified:
			if d.transitive {
				if name, ok := d.search.ModuleNameForPath(path); ok {
					affected[name] = true
				}
			}
		}
		d.logger.Debug("change applied", "path", path, "kind", ch.Kind)
	}

	if d.transitive && len(affected) > 0 {
		d.evictDependents(affected)
	}
	return nil
}

func (d *Database) evictFile(id source.FileID) {
	d.sources.Remove(id)
	d.trees.Remove(id)
	d.syntax.Remove(id)
	d.tables.Remove(id)
	d.imports.Remove(id)
	d.semantic.Remove(id)
}

// evictDependents drops the semantic diagnostics of every file whose
// cached imports mention an affected module. Only recorded imports
// are consulted; files never queried have nothing to evict.
func (d *Database) evictDependents(affected map[resolver.ModuleName]bool) {
	var stale []source.FileID
	d.imports.ForEach(func(id source.FileID, bindings []parser.ImportBinding) bool {
		for _, b := range bindings {
			if b.RelativeDots > 0 || b.Module == "" {
				continue
			}
			if affected[resolver.ModuleName(b.Module)] {
				stale = append(stale, id)
				break
			}
		}
		return true
	})
	for _, id := range stale {
		d.semantic.Remove(id)
	}
	if len(stale) > 0 {
		d.logger.Debug("evicted dependents", "count", len(stale))
	}
}

// SetSearchPaths replaces the active search path set. Module
// resolution and semantic diagnostics restart from scratch under the
// new epoch; per-file parse artifacts are unaffected. On error the
// previous set stays active.
func (d *Database) SetSearchPaths(cfg resolver.Config) error {
	search, err := resolver.NewSearchPaths(cfg, d.logger)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.search = search
	d.resolved.Clear()
	d.semantic.Clear()

	d.logger.Info("search paths updated",
		"epoch", search.Epoch(),
		"roots", len(search.Roots()))
	return nil
}
