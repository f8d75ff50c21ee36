package search

import (
	"context"
	"testing"

	"pysema/internal/parser"
	"pysema/internal/semantic"
	"pysema/internal/slogutil"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := NewIndex(slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	t.Cleanup(func() { ix.Close() })
	return ix
}

func indexSource(t *testing.T, ix *Index, path, src string) {
	t.Helper()
	tree, err := parser.Parse(context.Background(), []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := ix.IndexFile(context.Background(), path, semantic.Build(tree)); err != nil {
		t.Fatalf("IndexFile: %v", err)
	}
}

func TestIndex_ExactMatch(t *testing.T) {
	ix := newTestIndex(t)
	indexSource(t, ix, "/proj/config.py", `
class Config:
    def load(self):
        pass

def make_config():
    return Config()
`)

	results, err := ix.Search(context.Background(), "load", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("no results for load")
	}
	top := results[0]
	if top.Name != "load" || top.MatchType != "exact" {
		t.Errorf("top result = %+v, want exact load", top)
	}
	if top.Qualified != "Config.load" {
		t.Errorf("qualified = %q, want Config.load", top.Qualified)
	}
	if top.Kind != string(semantic.DefFunction) {
		t.Errorf("kind = %q, want function", top.Kind)
	}
	if top.Line != 3 {
		t.Errorf("line = %d, want 3", top.Line)
	}
}

func TestIndex_PrefixMatch(t *testing.T) {
	ix := newTestIndex(t)
	indexSource(t, ix, "/proj/m.py", "def make_config():\n    pass\n\ndef make_request():\n    pass\n")

	results, err := ix.Search(context.Background(), "make", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	// "make" is not a token on its own, so these arrive as prefix hits
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2: %+v", len(results), results)
	}
	for _, r := range results {
		if r.MatchType != "prefix" {
			t.Errorf("match type = %q, want prefix: %+v", r.MatchType, r)
		}
	}
}

func TestIndex_SubstringFallback(t *testing.T) {
	ix := newTestIndex(t)
	indexSource(t, ix, "/proj/m.py", "def reload_settings():\n    pass\n")

	results, err := ix.Search(context.Background(), "load", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1: %+v", len(results), results)
	}
	if results[0].MatchType != "substring" || results[0].Name != "reload_settings" {
		t.Errorf("unexpected result %+v", results[0])
	}
}

func TestIndex_ReindexReplaces(t *testing.T) {
	ix := newTestIndex(t)
	indexSource(t, ix, "/proj/m.py", "def old_name():\n    pass\n")
	indexSource(t, ix, "/proj/m.py", "def new_name():\n    pass\n")

	if results, _ := ix.Search(context.Background(), "old_name", 10); len(results) != 0 {
		t.Errorf("stale symbol survived reindex: %+v", results)
	}
	results, err := ix.Search(context.Background(), "new_name", 10)
	if err != nil || len(results) != 1 {
		t.Fatalf("new symbol not found: %v %+v", err, results)
	}

	n, err := ix.Count(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestIndex_RemoveFile(t *testing.T) {
	ix := newTestIndex(t)
	indexSource(t, ix, "/proj/a.py", "def alpha():\n    pass\n")
	indexSource(t, ix, "/proj/b.py", "def beta():\n    pass\n")

	if err := ix.RemoveFile(context.Background(), "/proj/a.py"); err != nil {
		t.Fatalf("RemoveFile: %v", err)
	}

	if results, _ := ix.Search(context.Background(), "alpha", 10); len(results) != 0 {
		t.Errorf("removed file still searchable: %+v", results)
	}
	if results, _ := ix.Search(context.Background(), "beta", 10); len(results) != 1 {
		t.Errorf("unrelated file affected: %+v", results)
	}
}

func TestIndex_UnboundNamesNotIndexed(t *testing.T) {
	ix := newTestIndex(t)
	// print is read but never bound, so it must not be indexed
	indexSource(t, ix, "/proj/m.py", "print(1)\n")

	if results, _ := ix.Search(context.Background(), "print", 10); len(results) != 0 {
		t.Errorf("unbound name was indexed: %+v", results)
	}
}

func TestIndex_EmptyQuery(t *testing.T) {
	ix := newTestIndex(t)
	results, err := ix.Search(context.Background(), "   ", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if results != nil {
		t.Errorf("blank query returned %+v", results)
	}
}

func TestIndex_QuoteInQueryIsSafe(t *testing.T) {
	ix := newTestIndex(t)
	indexSource(t, ix, "/proj/m.py", "def f():\n    pass\n")

	if _, err := ix.Search(context.Background(), `f" OR "g`, 10); err != nil {
		t.Errorf("quoted query must not break the match expression: %v", err)
	}
}
