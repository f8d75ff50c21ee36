package lint

import (
	"context"
	"strings"
	"testing"

	"pysema/internal/parser"
	"pysema/internal/semantic"
)

func parseSource(t *testing.T, src string) *parser.Tree {
	t.Helper()
	tree, err := parser.Parse(context.Background(), []byte(src))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return tree
}

func TestSyntaxCheck_CleanSource(t *testing.T) {
	tree := parseSource(t, "def f():\n    return 1\n")
	if diags := SyntaxCheck(tree); len(diags) != 0 {
		t.Errorf("clean source produced %d diagnostics: %+v", len(diags), diags)
	}
}

func TestSyntaxCheck_BrokenSource(t *testing.T) {
	tree := parseSource(t, "def f(:\n    pass\n")

	diags := SyntaxCheck(tree)
	if len(diags) == 0 {
		t.Fatal("broken source produced no diagnostics")
	}
	for _, d := range diags {
		if d.Code != CodeInvalidSyntax {
			t.Errorf("code = %q, want %q", d.Code, CodeInvalidSyntax)
		}
		if d.Severity != SeverityError {
			t.Errorf("severity = %q, want %q", d.Severity, SeverityError)
		}
		if d.Range.Start.Line == 0 {
			t.Error("diagnostic line must be 1-based")
		}
	}
}

func TestSyntaxCheck_EmptyTree(t *testing.T) {
	if diags := SyntaxCheck(parser.Empty()); len(diags) != 0 {
		t.Errorf("empty tree produced diagnostics: %+v", diags)
	}
}

func TestCheckImports(t *testing.T) {
	tree := parseSource(t, `import os
import missing_pkg
from missing_pkg import thing
from . import sibling
from another_gone import a, b
`)

	resolves := func(module string) bool { return module == "os" }
	diags := CheckImports(tree.Imports(), resolves)

	if len(diags) != 3 {
		t.Fatalf("got %d diagnostics, want 3: %+v", len(diags), diags)
	}
	for _, d := range diags {
		if d.Code != CodeUnresolvedImport {
			t.Errorf("code = %q, want %q", d.Code, CodeUnresolvedImport)
		}
		if !strings.Contains(d.Message, "could not be resolved") {
			t.Errorf("unexpected message %q", d.Message)
		}
	}
	if diags[0].Range.Start.Line != 2 || diags[1].Range.Start.Line != 3 {
		t.Errorf("wrong lines: %+v", diags)
	}
	// two names from one module on one line collapse to one finding
	if diags[2].Range.Start.Line != 5 {
		t.Errorf("expected line 5 for last diagnostic: %+v", diags[2])
	}
}

func TestCheckImports_RelativeSkipped(t *testing.T) {
	tree := parseSource(t, "from ..pkg import util\n")
	diags := CheckImports(tree.Imports(), func(string) bool { return false })
	if len(diags) != 0 {
		t.Errorf("relative import reported: %+v", diags)
	}
}

func TestCheckUnusedImports(t *testing.T) {
	tree := parseSource(t, `import os
import json
import sys as _sys
from collections import OrderedDict

print(json.dumps({}))
`)
	table := semantic.Build(tree)

	diags := CheckUnusedImports(table)
	Sort(diags)

	if len(diags) != 2 {
		t.Fatalf("got %d diagnostics, want 2: %+v", len(diags), diags)
	}
	if !strings.Contains(diags[0].Message, `"os"`) {
		t.Errorf("first finding should name os: %q", diags[0].Message)
	}
	if !strings.Contains(diags[1].Message, `"OrderedDict"`) {
		t.Errorf("second finding should name OrderedDict: %q", diags[1].Message)
	}
	for _, d := range diags {
		if d.Severity != SeverityWarning {
			t.Errorf("severity = %q, want %q", d.Severity, SeverityWarning)
		}
		if d.Code != CodeUnusedImport {
			t.Errorf("code = %q, want %q", d.Code, CodeUnusedImport)
		}
	}
}

func TestCheckUnusedImports_UsedInsideFunction(t *testing.T) {
	tree := parseSource(t, `import os

def cwd():
    return os.getcwd()
`)
	table := semantic.Build(tree)

	if diags := CheckUnusedImports(table); len(diags) != 0 {
		t.Errorf("os is used inside cwd: %+v", diags)
	}
}

func TestSort(t *testing.T) {
	diags := []Diagnostic{
		{Code: "b", Range: Range{Start: Position{Line: 2}}},
		{Code: "a", Range: Range{Start: Position{Line: 2}}},
		{Code: "c", Range: Range{Start: Position{Line: 1, Column: 4}}},
		{Code: "c", Range: Range{Start: Position{Line: 1, Column: 1}}},
	}
	Sort(diags)

	got := []string{}
	for _, d := range diags {
		got = append(got, d.Code)
	}
	want := []string{"c", "c", "a", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
	if diags[0].Range.Start.Column != 1 {
		t.Error("same-line diagnostics must order by column")
	}
}
