// Package semantic builds symbol tables from Python syntax trees and
// tracks the narrowing facts conditions establish about symbols.
//
// A table is built once per file version and immutable afterwards, so
// it can be cached and shared without locking.
package semantic

import "strings"

// ScopeKind distinguishes the binding rules of a scope.
type ScopeKind string

const (
	ScopeModule        ScopeKind = "module"
	ScopeClass         ScopeKind = "class"
	ScopeFunction      ScopeKind = "function"
	ScopeLambda        ScopeKind = "lambda"
	ScopeComprehension ScopeKind = "comprehension"
)

// ScopeID indexes a scope within its table. The module scope is
// always 0.
type ScopeID uint32

// ModuleScope is the root scope of every table.
const ModuleScope ScopeID = 0

// NoScope marks the module scope's missing parent.
const NoScope ScopeID = ^ScopeID(0)

// SymbolID indexes a symbol within its table. IDs are dense and
// assigned in discovery order starting at 0.
type SymbolID uint32

// SymbolFlags records how a symbol is bound and used.
type SymbolFlags uint16

const (
	FlagBound SymbolFlags = 1 << iota
	FlagUsed
	FlagGlobal
	FlagNonlocal
	FlagImported
	FlagParameter
)

func (f SymbolFlags) Bound() bool     { return f&FlagBound != 0 }
func (f SymbolFlags) Used() bool      { return f&FlagUsed != 0 }
func (f SymbolFlags) Global() bool    { return f&FlagGlobal != 0 }
func (f SymbolFlags) Nonlocal() bool  { return f&FlagNonlocal != 0 }
func (f SymbolFlags) Imported() bool  { return f&FlagImported != 0 }
func (f SymbolFlags) Parameter() bool { return f&FlagParameter != 0 }

// DefinitionKind classifies the statement that introduced a binding.
type DefinitionKind string

const (
	DefFunction   DefinitionKind = "function"
	DefClass      DefinitionKind = "class"
	DefAssignment DefinitionKind = "assignment"
	DefImport     DefinitionKind = "import"
	DefParameter  DefinitionKind = "parameter"
	DefFor        DefinitionKind = "for"
	DefWith       DefinitionKind = "with"
	DefExcept     DefinitionKind = "except"
)

// Symbol is one name in one scope.
type Symbol struct {
	Name  string      `json:"name"`
	Scope ScopeID     `json:"scope"`
	Flags SymbolFlags `json:"flags"`
}

// Definition records where a symbol was bound. Line is 1-based,
// Column 0-based, both pointing at the bound name.
type Definition struct {
	Symbol SymbolID       `json:"symbol"`
	Kind   DefinitionKind `json:"kind"`
	Line   uint32         `json:"line"`
	Column uint32         `json:"column"`
}

// Scope is one lexical scope. Name is set for function and class
// scopes and empty otherwise.
type Scope struct {
	Kind   ScopeKind `json:"kind"`
	Name   string    `json:"name,omitempty"`
	Parent ScopeID   `json:"parent"`

	byName map[string]SymbolID
	order  []SymbolID
}

// Table holds every scope, symbol and definition of one file, plus
// the narrowing store its conditions were interned into.
type Table struct {
	scopes  []Scope
	symbols []Symbol
	defs    []Definition
	store   *ConstraintStore
	facts   map[SymbolID]ConstraintSet
}

// EmptyTable returns a table with only an empty module scope, the
// degraded artifact for files whose source is unavailable.
func EmptyTable() *Table {
	return newTable()
}

func newTable() *Table {
	t := &Table{
		store: NewConstraintStore(),
		facts: make(map[SymbolID]ConstraintSet),
	}
	t.scopes = append(t.scopes, Scope{
		Kind:   ScopeModule,
		Parent: NoScope,
		byName: make(map[string]SymbolID),
	})
	return t
}

func (t *Table) addScope(kind ScopeKind, name string, parent ScopeID) ScopeID {
	t.scopes = append(t.scopes, Scope{
		Kind:   kind,
		Name:   name,
		Parent: parent,
		byName: make(map[string]SymbolID),
	})
	return ScopeID(len(t.scopes) - 1)
}

// ensureSymbol returns the symbol for name in scope, creating it
// unbound on first sight.
func (t *Table) ensureSymbol(scope ScopeID, name string) SymbolID {
	sc := &t.scopes[scope]
	if id, ok := sc.byName[name]; ok {
		return id
	}
	id := SymbolID(len(t.symbols))
	t.symbols = append(t.symbols, Symbol{Name: name, Scope: scope})
	sc.byName[name] = id
	sc.order = append(sc.order, id)
	return id
}

func (t *Table) addFlags(id SymbolID, flags SymbolFlags) {
	t.symbols[id].Flags |= flags
}

func (t *Table) addDefinition(id SymbolID, kind DefinitionKind, line, col uint32) {
	t.defs = append(t.defs, Definition{Symbol: id, Kind: kind, Line: line, Column: col})
}

// NumScopes returns the scope count, module scope included.
func (t *Table) NumScopes() int { return len(t.scopes) }

// Scope returns the scope for id.
func (t *Table) Scope(id ScopeID) Scope {
	if int(id) >= len(t.scopes) {
		panic("semantic: unknown ScopeID")
	}
	return t.scopes[id]
}

// NumSymbols returns the symbol count across all scopes.
func (t *Table) NumSymbols() int { return len(t.symbols) }

// Symbol returns the symbol for id.
func (t *Table) Symbol(id SymbolID) Symbol {
	if int(id) >= len(t.symbols) {
		panic("semantic: unknown SymbolID")
	}
	return t.symbols[id]
}

// SymbolsInScope lists the symbols of one scope in discovery order.
func (t *Table) SymbolsInScope(scope ScopeID) []SymbolID {
	return t.Scope(scope).order
}

// LookupIn finds name in exactly the given scope.
func (t *Table) LookupIn(scope ScopeID, name string) (SymbolID, bool) {
	id, ok := t.Scope(scope).byName[name]
	return id, ok
}

// Lookup resolves name from scope outwards. Class scopes are skipped
// for enclosed scopes, matching Python's rule that class bodies do
// not contribute to nested lookups.
func (t *Table) Lookup(scope ScopeID, name string) (SymbolID, bool) {
	cur := scope
	for cur != NoScope {
		sc := t.scopes[cur]
		if cur == scope || sc.Kind != ScopeClass {
			if id, ok := sc.byName[name]; ok {
				return id, ok
			}
		}
		cur = sc.Parent
	}
	return 0, false
}

// Definitions lists every recorded binding in source order.
func (t *Table) Definitions() []Definition { return t.defs }

// DefinitionsOf lists the bindings of one symbol in source order.
func (t *Table) DefinitionsOf(id SymbolID) []Definition {
	var out []Definition
	for _, d := range t.defs {
		if d.Symbol == id {
			out = append(out, d)
		}
	}
	return out
}

// QualifiedName joins the enclosing scope names and the symbol name
// with dots, e.g. "Config.load" for a method.
func (t *Table) QualifiedName(id SymbolID) string {
	sym := t.Symbol(id)
	var parts []string
	cur := sym.Scope
	for cur != NoScope {
		sc := t.scopes[cur]
		if sc.Name != "" {
			parts = append(parts, sc.Name)
		}
		cur = sc.Parent
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	parts = append(parts, sym.Name)
	return strings.Join(parts, ".")
}

// Narrowing returns the constraint store this table interned into.
func (t *Table) Narrowing() *ConstraintStore { return t.store }

// FactsAt returns the narrowing facts still holding for a symbol when
// its scope ends. The empty set means no surviving facts.
func (t *Table) FactsAt(id SymbolID) ConstraintSet {
	return t.facts[id]
}
