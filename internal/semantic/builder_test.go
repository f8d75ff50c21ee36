package semantic

import (
	"context"
	"testing"

	"pysema/internal/parser"
)

func buildSource(t *testing.T, src string) *Table {
	t.Helper()
	tree, err := parser.Parse(context.Background(), []byte(src))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return Build(tree)
}

// findScope returns the first scope of the given kind and name.
func findScope(t *testing.T, table *Table, kind ScopeKind, name string) ScopeID {
	t.Helper()
	for i := 0; i < table.NumScopes(); i++ {
		sc := table.Scope(ScopeID(i))
		if sc.Kind == kind && sc.Name == name {
			return ScopeID(i)
		}
	}
	t.Fatalf("no %s scope named %q", kind, name)
	return 0
}

func mustLookup(t *testing.T, table *Table, scope ScopeID, name string) SymbolID {
	t.Helper()
	id, ok := table.LookupIn(scope, name)
	if !ok {
		t.Fatalf("symbol %q not found in scope %d", name, scope)
	}
	return id
}

func TestBuild_ModuleBindings(t *testing.T) {
	table := buildSource(t, `
x = 1
y, z = 2, 3

def f(a, b=0, *args, **kwargs):
    return a + b

class C:
    pass
`)

	for _, name := range []string{"x", "y", "z", "f", "C"} {
		id := mustLookup(t, table, ModuleScope, name)
		if !table.Symbol(id).Flags.Bound() {
			t.Errorf("%s not bound in module scope", name)
		}
	}

	fScope := findScope(t, table, ScopeFunction, "f")
	for _, name := range []string{"a", "b", "args", "kwargs"} {
		id := mustLookup(t, table, fScope, name)
		flags := table.Symbol(id).Flags
		if !flags.Bound() || !flags.Parameter() {
			t.Errorf("parameter %s flags = %v, want bound parameter", name, flags)
		}
	}

	findScope(t, table, ScopeClass, "C")
}

func TestBuild_DefinitionKinds(t *testing.T) {
	table := buildSource(t, `import os

def f():
    pass

class C:
    pass

v = 1
for item in v:
    pass
`)

	wantKinds := map[string]DefinitionKind{
		"os":   DefImport,
		"f":    DefFunction,
		"C":    DefClass,
		"v":    DefAssignment,
		"item": DefFor,
	}
	for name, want := range wantKinds {
		id := mustLookup(t, table, ModuleScope, name)
		defs := table.DefinitionsOf(id)
		if len(defs) == 0 {
			t.Errorf("%s has no definitions", name)
			continue
		}
		if defs[0].Kind != want {
			t.Errorf("%s definition kind = %s, want %s", name, defs[0].Kind, want)
		}
	}

	id := mustLookup(t, table, ModuleScope, "f")
	if line := table.DefinitionsOf(id)[0].Line; line != 3 {
		t.Errorf("f defined at line %d, want 3", line)
	}
}

func TestBuild_ClassScopeSkippedInLookup(t *testing.T) {
	table := buildSource(t, `
x = 1

class C:
    x = 2

    def m(self):
        return x
`)

	mScope := findScope(t, table, ScopeFunction, "m")
	id, ok := table.Lookup(mScope, "x")
	if !ok {
		t.Fatal("x not visible from method scope")
	}
	if table.Symbol(id).Scope != ModuleScope {
		t.Errorf("x resolved to scope %d, want module scope", table.Symbol(id).Scope)
	}

	cScope := findScope(t, table, ScopeClass, "C")
	classX := mustLookup(t, table, cScope, "x")
	if table.Symbol(classX).Flags.Used() {
		t.Error("class-level x must not be marked used by the method body")
	}
	if !table.Symbol(id).Flags.Used() {
		t.Error("module-level x must be marked used")
	}
}

func TestBuild_ImportsAndUsage(t *testing.T) {
	table := buildSource(t, `
import os
import json

print(json.dumps({}))
`)

	osID := mustLookup(t, table, ModuleScope, "os")
	osFlags := table.Symbol(osID).Flags
	if !osFlags.Imported() || !osFlags.Bound() {
		t.Errorf("os flags = %v, want imported and bound", osFlags)
	}
	if osFlags.Used() {
		t.Error("os was never read, must not be marked used")
	}

	jsonID := mustLookup(t, table, ModuleScope, "json")
	if !table.Symbol(jsonID).Flags.Used() {
		t.Error("json is read by the call, must be marked used")
	}
}

func TestBuild_UnresolvedUse(t *testing.T) {
	table := buildSource(t, "result = helper()\n")

	id := mustLookup(t, table, ModuleScope, "helper")
	flags := table.Symbol(id).Flags
	if flags.Bound() {
		t.Error("helper is never bound")
	}
	if !flags.Used() {
		t.Error("helper is called, must be marked used")
	}
}

func TestBuild_GlobalStatement(t *testing.T) {
	table := buildSource(t, `
counter = 0

def bump():
    global counter
    counter = counter + 1
`)

	fnScope := findScope(t, table, ScopeFunction, "bump")
	id := mustLookup(t, table, fnScope, "counter")
	if !table.Symbol(id).Flags.Global() {
		t.Error("counter in bump must carry the global flag")
	}
	mustLookup(t, table, ModuleScope, "counter")
}

func TestBuild_ComprehensionScope(t *testing.T) {
	table := buildSource(t, "squares = [i * i for i in range(10)]\n")

	if _, ok := table.LookupIn(ModuleScope, "i"); ok {
		t.Error("comprehension variable leaked into module scope")
	}

	var found bool
	for s := 0; s < table.NumScopes(); s++ {
		sc := table.Scope(ScopeID(s))
		if sc.Kind != ScopeComprehension {
			continue
		}
		if _, ok := table.LookupIn(ScopeID(s), "i"); ok {
			found = true
		}
	}
	if !found {
		t.Error("i not bound in any comprehension scope")
	}
}

func TestBuild_WalrusBindsEnclosingScope(t *testing.T) {
	table := buildSource(t, "if (n := compute()):\n    print(n)\n")

	id := mustLookup(t, table, ModuleScope, "n")
	flags := table.Symbol(id).Flags
	if !flags.Bound() || !flags.Used() {
		t.Errorf("walrus target flags = %v, want bound and used", flags)
	}
}

func TestBuild_WithAndExceptAliases(t *testing.T) {
	table := buildSource(t, `
with open("f") as fh:
    data = fh.read()

try:
    pass
except ValueError as err:
    print(err)
`)

	fh := mustLookup(t, table, ModuleScope, "fh")
	if kind := table.DefinitionsOf(fh)[0].Kind; kind != DefWith {
		t.Errorf("fh definition kind = %s, want %s", kind, DefWith)
	}

	errID := mustLookup(t, table, ModuleScope, "err")
	if kind := table.DefinitionsOf(errID)[0].Kind; kind != DefExcept {
		t.Errorf("err definition kind = %s, want %s", kind, DefExcept)
	}
	if !table.Symbol(errID).Flags.Used() {
		t.Error("err is printed, must be marked used")
	}
}

func TestBuild_QualifiedName(t *testing.T) {
	table := buildSource(t, `
class Config:
    def load(self):
        pass
`)

	loadScope := findScope(t, table, ScopeFunction, "load")
	cScope := findScope(t, table, ScopeClass, "Config")

	loadID := mustLookup(t, table, cScope, "load")
	if got := table.QualifiedName(loadID); got != "Config.load" {
		t.Errorf("QualifiedName = %q, want %q", got, "Config.load")
	}

	selfID := mustLookup(t, table, loadScope, "self")
	if got := table.QualifiedName(selfID); got != "Config.load.self" {
		t.Errorf("QualifiedName = %q, want %q", got, "Config.load.self")
	}
}

func TestBuild_LambdaScope(t *testing.T) {
	table := buildSource(t, "double = lambda v: v * 2\n")

	var lambdaScope ScopeID
	var found bool
	for s := 0; s < table.NumScopes(); s++ {
		if table.Scope(ScopeID(s)).Kind == ScopeLambda {
			lambdaScope, found = ScopeID(s), true
		}
	}
	if !found {
		t.Fatal("no lambda scope created")
	}
	id := mustLookup(t, table, lambdaScope, "v")
	flags := table.Symbol(id).Flags
	if !flags.Parameter() || !flags.Used() {
		t.Errorf("lambda parameter flags = %v, want parameter and used", flags)
	}
}

func TestBuild_NilAndEmpty(t *testing.T) {
	table := Build(parser.Empty())
	if table.NumScopes() != 1 {
		t.Errorf("empty source has %d scopes, want 1", table.NumScopes())
	}
	if table.NumSymbols() != 0 {
		t.Errorf("empty source has %d symbols, want 0", table.NumSymbols())
	}

	if empty := EmptyTable(); empty.NumScopes() != 1 {
		t.Error("EmptyTable must hold exactly the module scope")
	}
}
