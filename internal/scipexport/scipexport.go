// Package scipexport writes SCIP indexes from symbol tables, in the
// symbol scheme scip-python uses, so other code intelligence tools
// can consume analysis results.
package scipexport

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"

	"pysema/internal/errors"
	"pysema/internal/semantic"
)

// Options identifies the index being produced.
type Options struct {
	// ProjectRoot is the absolute path recorded as the index root.
	ProjectRoot string
	// ToolName and ToolVersion identify the producer.
	ToolName    string
	ToolVersion string
	// PackageName and PackageVersion scope the emitted global
	// symbols. PackageVersion defaults to "0.0.0".
	PackageName    string
	PackageVersion string
}

// Exporter accumulates documents into one SCIP index.
type Exporter struct {
	opts   Options
	logger *slog.Logger
	index  *scippb.Index
}

// NewExporter starts an empty index for the given project.
func NewExporter(opts Options, logger *slog.Logger) *Exporter {
	if opts.PackageVersion == "" {
		opts.PackageVersion = "0.0.0"
	}
	return &Exporter{
		opts:   opts,
		logger: logger,
		index: &scippb.Index{
			Metadata: &scippb.Metadata{
				Version: scippb.ProtocolVersion_UnspecifiedProtocolVersion,
				ToolInfo: &scippb.ToolInfo{
					Name:    opts.ToolName,
					Version: opts.ToolVersion,
				},
				ProjectRoot:          "file://" + opts.ProjectRoot,
				TextDocumentEncoding: scippb.TextEncoding_UTF8,
			},
		},
	}
}

// AddDocument emits the definition occurrences of one file. module is
// the dotted module name the file provides; when empty the relative
// path stands in. Import bindings are references into other packages
// and are not emitted as definitions.
func (e *Exporter) AddDocument(relPath, module string, table *semantic.Table) {
	if module == "" {
		module = strings.TrimSuffix(relPath, ".py")
		module = strings.TrimSuffix(module, ".pyi")
		module = strings.ReplaceAll(module, "/", ".")
	}

	doc := &scippb.Document{
		Language:     "python",
		RelativePath: relPath,
	}

	for i := 0; i < table.NumSymbols(); i++ {
		id := semantic.SymbolID(i)
		sym := table.Symbol(id)
		if !sym.Flags.Bound() {
			continue
		}
		defs := table.DefinitionsOf(id)
		if len(defs) == 0 {
			continue
		}
		def := defs[0]
		if def.Kind == semantic.DefImport {
			continue
		}

		symbol, global := e.symbolString(module, table, id, def.Kind)
		for _, d := range defs {
			doc.Occurrences = append(doc.Occurrences, &scippb.Occurrence{
				Range: []int32{
					int32(d.Line) - 1,
					int32(d.Column),
					int32(d.Column) + int32(len(sym.Name)),
				},
				Symbol:      symbol,
				SymbolRoles: int32(scippb.SymbolRole_Definition),
			})
		}
		if global {
			doc.Symbols = append(doc.Symbols, &scippb.SymbolInformation{
				Symbol:      symbol,
				Kind:        symbolKind(table, id, def.Kind),
				DisplayName: sym.Name,
			})
		}
	}

	sort.Slice(doc.Occurrences, func(i, j int) bool {
		a, b := doc.Occurrences[i].Range, doc.Occurrences[j].Range
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		return a[1] < b[1]
	})

	e.index.Documents = append(e.index.Documents, doc)
	e.logger.Debug("document exported",
		"path", relPath,
		"occurrences", len(doc.Occurrences))
}

// symbolString builds the SCIP symbol for id. Bindings inside
// function bodies become local symbols; everything reachable by
// attribute access from outside gets a global descriptor chain.
func (e *Exporter) symbolString(module string, table *semantic.Table, id semantic.SymbolID, kind semantic.DefinitionKind) (string, bool) {
	sym := table.Symbol(id)

	var enclosing []string
	cur := sym.Scope
	for cur != semantic.NoScope {
		sc := table.Scope(cur)
		switch sc.Kind {
		case semantic.ScopeFunction, semantic.ScopeLambda, semantic.ScopeComprehension:
			return fmt.Sprintf("local %d", id), false
		case semantic.ScopeClass:
			enclosing = append(enclosing, sc.Name+"#")
		}
		cur = sc.Parent
	}
	for i, j := 0, len(enclosing)-1; i < j; i, j = i+1, j-1 {
		enclosing[i], enclosing[j] = enclosing[j], enclosing[i]
	}

	var own string
	switch kind {
	case semantic.DefClass:
		own = sym.Name + "#"
	case semantic.DefFunction:
		own = sym.Name + "()."
	default:
		own = sym.Name + "."
	}

	descriptor := strings.ReplaceAll(module, ".", "/") + "/" + strings.Join(enclosing, "") + own
	return fmt.Sprintf("scip-python python %s %s %s",
		e.opts.PackageName, e.opts.PackageVersion, descriptor), true
}

func symbolKind(table *semantic.Table, id semantic.SymbolID, kind semantic.DefinitionKind) scippb.SymbolInformation_Kind {
	switch kind {
	case semantic.DefClass:
		return scippb.SymbolInformation_Class
	case semantic.DefFunction:
		if table.Scope(table.Symbol(id).Scope).Kind == semantic.ScopeClass {
			return scippb.SymbolInformation_Method
		}
		return scippb.SymbolInformation_Function
	case semantic.DefParameter:
		return scippb.SymbolInformation_Parameter
	default:
		return scippb.SymbolInformation_Variable
	}
}

// Index returns the accumulated index.
func (e *Exporter) Index() *scippb.Index {
	return e.index
}

// WriteFile marshals the index to path.
func (e *Exporter) WriteFile(path string) error {
	data, err := proto.Marshal(e.index)
	if err != nil {
		return errors.New(errors.ExportFailed, "marshal SCIP index", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New(errors.ExportFailed,
			fmt.Sprintf("write SCIP index to %s", path), err)
	}
	e.logger.Info("SCIP index written",
		"path", path,
		"documents", len(e.index.Documents),
		"bytes", len(data))
	return nil
}
