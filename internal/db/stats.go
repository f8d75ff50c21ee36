package db

import "pysema/internal/memo"

// Stats aggregates cache behavior across every query family.
// Collected is false in builds without the diagnostics tag; entry
// counts are always real.
type Stats struct {
	Instance  string                     `json:"instance"`
	Files     int                        `json:"files"`
	Collected bool                       `json:"collected"`
	Families  map[string]memo.Statistics `json:"families"`
}

// Stats snapshots the cache counters of all query families.
func (d *Database) Stats() Stats {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := Stats{
		Instance: d.id,
		Files:    d.registry.Len(),
		Families: make(map[string]memo.Statistics, 7),
	}
	record := func(name string, stats memo.Statistics, collected bool) {
		out.Families[name] = stats
		out.Collected = collected
	}

	s, c := d.sources.Statistics()
	record("source", s, c)
	s, c = d.trees.Statistics()
	record("parse", s, c)
	s, c = d.syntax.Statistics()
	record("lint_syntax", s, c)
	s, c = d.tables.Statistics()
	record("symbol_table", s, c)
	s, c = d.imports.Statistics()
	record("imports", s, c)
	s, c = d.semantic.Statistics()
	record("lint_semantic", s, c)
	s, c = d.resolved.Statistics()
	record("resolve_module", s, c)
	return out
}
