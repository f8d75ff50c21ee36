// Package db is the incremental analysis database. It owns the file
// registry and search paths and memoizes one cache per query family:
// source text, parse trees, syntax diagnostics, symbol tables, import
// bindings, semantic diagnostics and module resolution.
//
// Queries are layered so the dependency graph stays acyclic: source
// feeds parse, parse feeds the per-file artifacts, and semantic lint
// additionally reads module resolution. Changed files are evicted by
// ApplyChanges; everything else recomputes lazily on next demand.
package db

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"

	"pysema/internal/lint"
	"pysema/internal/memo"
	"pysema/internal/parser"
	"pysema/internal/paths"
	"pysema/internal/resolver"
	"pysema/internal/semantic"
	"pysema/internal/source"
	"pysema/internal/typeshed"
)

// SourceText is the cached content of one file version. Unreadable is
// set when the file cannot be read; downstream queries then degrade to
// empty artifacts instead of failing.
type SourceText struct {
	Content    []byte
	Hash       string
	Unreadable bool
}

type resolveResult struct {
	resolved resolver.Resolved
	ok       bool
}

// Database coordinates all queries over one set of search paths.
//
// The database lock is the ordering barrier between queries and
// change application: queries hold it shared, ApplyChanges and
// SetSearchPaths hold it exclusive, so a batch of changes never
// interleaves with a half-finished query.
type Database struct {
	id     string
	logger *slog.Logger

	mu       sync.RWMutex
	registry *source.Registry
	search   *resolver.SearchPaths

	sources  *memo.Cache[source.FileID, SourceText]
	trees    *memo.Cache[source.FileID, *parser.Tree]
	syntax   *memo.Cache[source.FileID, []lint.Diagnostic]
	tables   *memo.Cache[source.FileID, *semantic.Table]
	imports  *memo.Cache[source.FileID, []parser.ImportBinding]
	semantic *memo.Cache[source.FileID, []lint.Diagnostic]
	resolved *memo.Cache[resolver.ModuleName, resolveResult]

	transitive bool
}

// Option configures a Database at construction.
type Option func(*Database)

// WithLogger routes database logging to l.
func WithLogger(l *slog.Logger) Option {
	return func(d *Database) { d.logger = l }
}

// WithTransitiveInvalidation additionally evicts the semantic
// diagnostics of files importing a module whose provider changed.
// Off by default: dependents otherwise refresh on their own next
// change or a search path update.
func WithTransitiveInvalidation() Option {
	return func(d *Database) { d.transitive = true }
}

// New builds a database over the given search path configuration.
func New(cfg resolver.Config, opts ...Option) (*Database, error) {
	d := &Database{
		id:       uuid.NewString(),
		logger:   slog.Default(),
		registry: source.NewRegistry(),
		sources:  memo.NewCache[source.FileID, SourceText](),
		trees:    memo.NewCache[source.FileID, *parser.Tree](),
		syntax:   memo.NewCache[source.FileID, []lint.Diagnostic](),
		tables:   memo.NewCache[source.FileID, *semantic.Table](),
		imports:  memo.NewCache[source.FileID, []parser.ImportBinding](),
		semantic: memo.NewCache[source.FileID, []lint.Diagnostic](),
		resolved: memo.NewCache[resolver.ModuleName, resolveResult](),
	}
	for _, opt := range opts {
		opt(d)
	}

	search, err := resolver.NewSearchPaths(cfg, d.logger)
	if err != nil {
		return nil, err
	}
	d.search = search

	d.logger.Debug("analysis database created",
		"instance", d.id,
		"roots", len(search.Roots()))
	return d, nil
}

// ID returns the instance identifier, unique per database.
func (d *Database) ID() string { return d.id }

// Intern returns the stable FileID for path, assigning one on first
// sight. IDs are only meaningful within this database instance.
func (d *Database) Intern(path string) (source.FileID, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.registry.Intern(path)
}

// PathOf returns the canonical path interned for id.
func (d *Database) PathOf(id source.FileID) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.registry.Path(id)
}

// Files returns how many paths this database has interned.
func (d *Database) Files() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.registry.Len()
}

// SearchPaths returns the active search path set.
func (d *Database) SearchPaths() *resolver.SearchPaths {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.search
}

// Source returns the current text of id, reading it on first demand.
func (d *Database) Source(id source.FileID) SourceText {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.source(id)
}

// Parse returns the syntax tree of id. Unreadable files parse to an
// empty module.
func (d *Database) Parse(id source.FileID) *parser.Tree {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.parse(id)
}

// LintSyntax returns the syntax diagnostics of id.
func (d *Database) LintSyntax(id source.FileID) []lint.Diagnostic {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lintSyntax(id)
}

// SymbolTable returns the symbol table of id.
func (d *Database) SymbolTable(id source.FileID) *semantic.Table {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.symbolTable(id)
}

// Imports returns the import bindings of id.
func (d *Database) Imports(id source.FileID) []parser.ImportBinding {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.importsOf(id)
}

// FileImport pairs an import binding with its resolution outcome.
type FileImport struct {
	Binding  parser.ImportBinding `json:"binding"`
	Resolved bool                 `json:"resolved"`
	Path     string               `json:"path,omitempty"`
}

// FileImports resolves every absolute import of id. Relative imports
// are reported unresolved without consulting the roots; resolving them
// needs package context this layer does not model.
func (d *Database) FileImports(id source.FileID) []FileImport {
	d.mu.RLock()
	defer d.mu.RUnlock()

	bindings := d.importsOf(id)
	out := make([]FileImport, 0, len(bindings))
	for _, b := range bindings {
		fi := FileImport{Binding: b}
		if b.RelativeDots == 0 && b.Module != "" {
			if resolved, ok := d.resolveModule(resolver.ModuleName(b.Module)); ok {
				fi.Resolved = true
				fi.Path = resolved.Path
			}
		}
		out = append(out, fi)
	}
	return out
}

// LintSemantic returns the import-level diagnostics of id: unresolved
// absolute imports and unused import bindings.
func (d *Database) LintSemantic(id source.FileID) []lint.Diagnostic {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lintSemantic(id)
}

// ResolveModule resolves a dotted module name against the active
// search paths. Misses are negative results, not errors, and are
// cached like hits.
func (d *Database) ResolveModule(name resolver.ModuleName) (resolver.Resolved, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.resolveModule(name)
}

// Check returns every diagnostic for id, syntax first by position.
func (d *Database) Check(id source.FileID) []lint.Diagnostic {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []lint.Diagnostic
	out = append(out, d.lintSyntax(id)...)
	out = append(out, d.lintSemantic(id)...)
	lint.Sort(out)
	return out
}

// Internal query bodies. All assume d.mu is held shared; they must
// never retake it, recursive read locks can deadlock against a
// waiting writer.

func (d *Database) source(id source.FileID) SourceText {
	return d.sources.GetOrCompute(id, func() SourceText {
		path := d.registry.Path(id)
		content, err := readSource(path)
		if err != nil {
			d.logger.Warn("source unreadable", "path", path, "error", err)
			return SourceText{Unreadable: true}
		}
		return SourceText{Content: content, Hash: source.Fingerprint(content)}
	})
}

func readSource(path string) ([]byte, error) {
	if paths.IsVirtual(path) {
		fs, err := typeshed.Bundled()
		if err != nil {
			return nil, err
		}
		content, ok := fs.Open(strings.TrimPrefix(path, paths.StubScheme))
		if !ok {
			return nil, os.ErrNotExist
		}
		return content, nil
	}
	return os.ReadFile(path)
}

func (d *Database) parse(id source.FileID) *parser.Tree {
	return d.trees.GetOrCompute(id, func() *parser.Tree {
		text := d.source(id)
		if text.Unreadable {
			return parser.Empty()
		}
		tree, err := parser.Parse(context.Background(), text.Content)
		if err != nil {
			d.logger.Warn("parse aborted", "path", d.registry.Path(id), "error", err)
			return parser.Empty()
		}
		return tree
	})
}

func (d *Database) lintSyntax(id source.FileID) []lint.Diagnostic {
	return d.syntax.GetOrCompute(id, func() []lint.Diagnostic {
		return lint.SyntaxCheck(d.parse(id))
	})
}

func (d *Database) symbolTable(id source.FileID) *semantic.Table {
	return d.tables.GetOrCompute(id, func() *semantic.Table {
		return semantic.Build(d.parse(id))
	})
}

func (d *Database) importsOf(id source.FileID) []parser.ImportBinding {
	return d.imports.GetOrCompute(id, func() []parser.ImportBinding {
		return d.parse(id).Imports()
	})
}

func (d *Database) lintSemantic(id source.FileID) []lint.Diagnostic {
	return d.semantic.GetOrCompute(id, func() []lint.Diagnostic {
		bindings := d.importsOf(id)
		diags := lint.CheckImports(bindings, func(module string) bool {
			_, ok := d.resolveModule(resolver.ModuleName(module))
			return ok
		})
		// re-export surfaces: unused bindings in __init__ files are
		// the exports themselves
		if !isPackageInit(d.registry.Path(id)) {
			diags = append(diags, lint.CheckUnusedImports(d.symbolTable(id))...)
		}
		lint.Sort(diags)
		return diags
	})
}

func (d *Database) resolveModule(name resolver.ModuleName) (resolver.Resolved, bool) {
	r := d.resolved.GetOrCompute(name, func() resolveResult {
		res, ok := d.search.Resolve(name)
		return resolveResult{resolved: res, ok: ok}
	})
	return r.resolved, r.ok
}

func isPackageInit(path string) bool {
	return strings.HasSuffix(path, "/__init__.py") || strings.HasSuffix(path, "/__init__.pyi")
}
