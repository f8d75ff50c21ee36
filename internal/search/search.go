// Package search maintains an FTS5 index over symbol tables so names
// can be found across the project without rewalking every tree. The
// index lives in an in-memory SQLite database and is rebuilt per file
// from the analysis database's symbol tables.
package search

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // pure Go SQLite driver

	"pysema/internal/semantic"
)

// Record is one indexed symbol.
type Record struct {
	Path      string `json:"path"`
	Line      uint32 `json:"line"`
	Name      string `json:"name"`
	Qualified string `json:"qualified"`
	Kind      string `json:"kind"`
	Scope     string `json:"scope"`
}

// Result is a search hit. Rank orders exact before prefix before
// substring matches.
type Result struct {
	Record
	Rank      float64 `json:"rank"`
	MatchType string  `json:"matchType"`
}

// Index is the symbol search index. Writes are serialized; the
// in-memory database is bound to a single connection because each
// SQLite connection would otherwise see its own empty ":memory:".
type Index struct {
	mu     sync.Mutex
	db     *sql.DB
	logger *slog.Logger
}

// NewIndex opens an empty in-memory index.
func NewIndex(logger *slog.Logger) (*Index, error) {
	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open search index: %w", err)
	}
	conn.SetMaxOpenConns(1)

	ix := &Index{db: conn, logger: logger}
	if err := ix.initSchema(); err != nil {
		conn.Close()
		return nil, err
	}
	return ix, nil
}

func (ix *Index) initSchema() error {
	stmts := []string{
		`CREATE TABLE symbols_content (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			path TEXT NOT NULL,
			line INTEGER NOT NULL,
			name TEXT NOT NULL,
			qualified TEXT NOT NULL,
			kind TEXT,
			scope TEXT
		)`,
		`CREATE INDEX idx_symbols_content_path ON symbols_content(path)`,
		// underscores stay token characters so snake_case names are
		// single tokens instead of word fragments
		`CREATE VIRTUAL TABLE symbols_fts USING fts5(
			name,
			qualified,
			content='symbols_content',
			content_rowid='rowid',
			tokenize="unicode61 tokenchars '_'"
		)`,
		`CREATE TRIGGER symbols_fts_ai AFTER INSERT ON symbols_content BEGIN
			INSERT INTO symbols_fts(rowid, name, qualified)
			VALUES (new.rowid, new.name, new.qualified);
		END`,
		`CREATE TRIGGER symbols_fts_ad AFTER DELETE ON symbols_content BEGIN
			INSERT INTO symbols_fts(symbols_fts, rowid, name, qualified)
			VALUES ('delete', old.rowid, old.name, old.qualified);
		END`,
	}
	for _, stmt := range stmts {
		if _, err := ix.db.Exec(stmt); err != nil {
			return fmt.Errorf("init search schema: %w", err)
		}
	}
	return nil
}

// IndexFile replaces the indexed symbols of path with the bound
// symbols of table. Unbound names (reads of builtins and globals) are
// not indexed.
func (ix *Index) IndexFile(ctx context.Context, path string, table *semantic.Table) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin index transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM symbols_content WHERE path = ?", path); err != nil {
		return fmt.Errorf("clear file symbols: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO symbols_content (path, line, name, qualified, kind, scope)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare symbol insert: %w", err)
	}
	defer stmt.Close()

	var count int
	for i := 0; i < table.NumSymbols(); i++ {
		id := semantic.SymbolID(i)
		sym := table.Symbol(id)
		if !sym.Flags.Bound() {
			continue
		}
		var line uint32
		kind := string(semantic.DefAssignment)
		if defs := table.DefinitionsOf(id); len(defs) > 0 {
			line = defs[0].Line
			kind = string(defs[0].Kind)
		}
		scope := string(table.Scope(sym.Scope).Kind)
		if _, err := stmt.ExecContext(ctx, path, line, sym.Name, table.QualifiedName(id), kind, scope); err != nil {
			return fmt.Errorf("insert symbol %s: %w", sym.Name, err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit index transaction: %w", err)
	}
	ix.logger.Debug("file indexed", "path", path, "symbols", count)
	return nil
}

// RemoveFile drops every symbol indexed for path.
func (ix *Index) RemoveFile(ctx context.Context, path string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	_, err := ix.db.ExecContext(ctx, "DELETE FROM symbols_content WHERE path = ?", path)
	return err
}

// Search finds symbols matching query: exact token matches first,
// then prefix matches, then substring matches, until limit results
// are gathered.
func (ix *Index) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 20
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	var results []Result
	seen := make(map[int64]bool)

	exact, err := ix.matchFTS(ctx, fmt.Sprintf(`"%s"`, escapeQuery(query)), "exact", 1.0, limit)
	if err != nil {
		return nil, err
	}
	results = appendNew(results, exact, seen, limit)

	if len(results) < limit {
		prefix, err := ix.matchFTS(ctx, fmt.Sprintf(`"%s"*`, escapeQuery(query)), "prefix", 0.8, limit)
		if err != nil {
			return nil, err
		}
		results = appendNew(results, prefix, seen, limit)
	}

	if len(results) < limit {
		sub, err := ix.matchLike(ctx, query, limit)
		if err != nil {
			return nil, err
		}
		results = appendNew(results, sub, seen, limit)
	}
	return results, nil
}

type rowResult struct {
	rowid int64
	res   Result
}

func (ix *Index) matchFTS(ctx context.Context, ftsQuery, matchType string, rank float64, limit int) ([]rowResult, error) {
	rows, err := ix.db.QueryContext(ctx, `
		SELECT c.rowid, c.path, c.line, c.name, c.qualified, c.kind, c.scope,
			bm25(symbols_fts, 1.0, 0.5) AS score
		FROM symbols_fts f
		JOIN symbols_content c ON f.rowid = c.rowid
		WHERE symbols_fts MATCH ?
		ORDER BY score
		LIMIT ?
	`, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("fts query: %w", err)
	}
	defer rows.Close()

	var out []rowResult
	for rows.Next() {
		var rr rowResult
		var score float64
		if err := rows.Scan(&rr.rowid, &rr.res.Path, &rr.res.Line, &rr.res.Name,
			&rr.res.Qualified, &rr.res.Kind, &rr.res.Scope, &score); err != nil {
			return nil, err
		}
		rr.res.Rank = rank
		rr.res.MatchType = matchType
		out = append(out, rr)
	}
	return out, rows.Err()
}

func (ix *Index) matchLike(ctx context.Context, query string, limit int) ([]rowResult, error) {
	pattern := "%" + query + "%"
	rows, err := ix.db.QueryContext(ctx, `
		SELECT rowid, path, line, name, qualified, kind, scope
		FROM symbols_content
		WHERE name LIKE ? OR qualified LIKE ?
		ORDER BY name
		LIMIT ?
	`, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("substring query: %w", err)
	}
	defer rows.Close()

	var out []rowResult
	for rows.Next() {
		var rr rowResult
		if err := rows.Scan(&rr.rowid, &rr.res.Path, &rr.res.Line, &rr.res.Name,
			&rr.res.Qualified, &rr.res.Kind, &rr.res.Scope); err != nil {
			return nil, err
		}
		rr.res.Rank = 0.5
		rr.res.MatchType = "substring"
		out = append(out, rr)
	}
	return out, rows.Err()
}

func appendNew(results []Result, found []rowResult, seen map[int64]bool, limit int) []Result {
	for _, rr := range found {
		if len(results) >= limit {
			break
		}
		if seen[rr.rowid] {
			continue
		}
		seen[rr.rowid] = true
		results = append(results, rr.res)
	}
	return results
}

// Count returns how many symbols are indexed.
func (ix *Index) Count(ctx context.Context) (int, error) {
	var n int
	err := ix.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM symbols_content").Scan(&n)
	return n, err
}

// Close releases the underlying database.
func (ix *Index) Close() error {
	return ix.db.Close()
}

// escapeQuery doubles embedded quotes so user input stays inside the
// FTS5 phrase it is wrapped in.
func escapeQuery(query string) string {
	return strings.ReplaceAll(query, `"`, `""`)
}
