// Package lint turns analysis artifacts into diagnostics. The checks
// are pure functions over parse trees, import bindings and symbol
// tables, so the query layer can memoize their results per file.
package lint

import (
	"fmt"
	"sort"
	"strings"

	"pysema/internal/parser"
	"pysema/internal/semantic"
)

// Severity ranks a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Rule codes. Kept stable so callers can filter on them.
const (
	CodeInvalidSyntax    = "invalid-syntax"
	CodeUnresolvedImport = "unresolved-import"
	CodeUnusedImport     = "unused-import"
)

// Position is a point in source. Line is 1-based, Column 0-based.
type Position struct {
	Line   uint32 `json:"line"`
	Column uint32 `json:"column"`
}

// Range spans source text. End equals Start for point diagnostics.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Diagnostic is one reported finding in one file.
type Diagnostic struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Range    Range    `json:"range"`
}

// SyntaxCheck reports the syntax errors of a tree. Each ERROR region
// yields one diagnostic; missing tokens outside error regions are
// reported individually.
func SyntaxCheck(tree *parser.Tree) []Diagnostic {
	var out []Diagnostic
	parser.Walk(tree.Root(), func(n *parser.Node) bool {
		if n.Type() == "ERROR" {
			out = append(out, Diagnostic{
				Code:     CodeInvalidSyntax,
				Message:  "Invalid syntax",
				Severity: SeverityError,
				Range:    nodeRange(n),
			})
			return false
		}
		if n.IsMissing() {
			out = append(out, Diagnostic{
				Code:     CodeInvalidSyntax,
				Message:  fmt.Sprintf("Expected %q", n.Type()),
				Severity: SeverityError,
				Range:    nodeRange(n),
			})
		}
		return true
	})
	return out
}

// CheckImports reports import bindings whose module does not resolve.
// Relative imports are skipped; resolving them needs the importing
// file's own package context. One diagnostic per module per line.
func CheckImports(bindings []parser.ImportBinding, resolves func(module string) bool) []Diagnostic {
	type seenKey struct {
		module string
		line   uint32
	}
	seen := make(map[seenKey]bool)

	var out []Diagnostic
	for _, b := range bindings {
		if b.RelativeDots > 0 || b.Module == "" {
			continue
		}
		key := seenKey{module: b.Module, line: b.Line}
		if seen[key] || resolves(b.Module) {
			seen[key] = true
			continue
		}
		seen[key] = true
		out = append(out, Diagnostic{
			Code:     CodeUnresolvedImport,
			Message:  fmt.Sprintf("Import %q could not be resolved", b.Module),
			Severity: SeverityError,
			Range: Range{
				Start: Position{Line: b.Line, Column: b.Column},
				End:   Position{Line: b.Line, Column: b.Column},
			},
		})
	}
	return out
}

// CheckUnusedImports reports names bound by an import and never read.
// Underscore-prefixed bindings are treated as intentional re-exports.
func CheckUnusedImports(table *semantic.Table) []Diagnostic {
	var out []Diagnostic
	for i := 0; i < table.NumSymbols(); i++ {
		id := semantic.SymbolID(i)
		sym := table.Symbol(id)
		if !sym.Flags.Imported() || sym.Flags.Used() {
			continue
		}
		if strings.HasPrefix(sym.Name, "_") {
			continue
		}
		var pos Position
		for _, d := range table.DefinitionsOf(id) {
			if d.Kind == semantic.DefImport {
				pos = Position{Line: d.Line, Column: d.Column}
				break
			}
		}
		out = append(out, Diagnostic{
			Code:     CodeUnusedImport,
			Message:  fmt.Sprintf("%q imported but unused", sym.Name),
			Severity: SeverityWarning,
			Range:    Range{Start: pos, End: pos},
		})
	}
	return out
}

// Sort orders diagnostics by position, then code, for stable output.
func Sort(diags []Diagnostic) {
	sort.Slice(diags, func(i, j int) bool {
		a, b := diags[i], diags[j]
		if a.Range.Start.Line != b.Range.Start.Line {
			return a.Range.Start.Line < b.Range.Start.Line
		}
		if a.Range.Start.Column != b.Range.Start.Column {
			return a.Range.Start.Column < b.Range.Start.Column
		}
		return a.Code < b.Code
	})
}

func nodeRange(n *parser.Node) Range {
	start, end := n.StartPoint(), n.EndPoint()
	return Range{
		Start: Position{Line: start.Row + 1, Column: start.Column},
		End:   Position{Line: end.Row + 1, Column: end.Column},
	}
}
