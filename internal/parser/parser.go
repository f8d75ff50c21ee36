// Package parser turns Python source into tree-sitter syntax trees.
// Trees are immutable once returned and safe to cache; they are kept
// alive by the memo layer and never explicitly closed.
package parser

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Node is a syntax tree node. Aliased so callers do not need to
// import the tree-sitter bindings directly.
type Node = sitter.Node

// Tree pairs a parsed syntax tree with the source it was parsed from,
// so node text can be recovered without carrying the source separately.
type Tree struct {
	src  []byte
	tree *sitter.Tree
}

// Parse parses Python source. A new tree-sitter parser is created per
// call; the underlying parser is not safe for concurrent reuse. Any
// input produces a tree: syntax errors surface as ERROR and missing
// nodes inside it, not as a Go error. The returned error is non-nil
// only when parsing itself was aborted (context cancellation).
func Parse(ctx context.Context, src []byte) (*Tree, error) {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())

	tree, err := p.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, err
	}
	return &Tree{src: src, tree: tree}, nil
}

// Empty returns a tree parsed from no source: a bare module node.
// Used as the degraded artifact when real input is unavailable.
func Empty() *Tree {
	t, err := Parse(context.Background(), nil)
	if err != nil {
		// Parsing the empty string cannot be canceled or fail
		return &Tree{}
	}
	return t
}

// Root returns the module node, or nil for a zero tree
func (t *Tree) Root() *sitter.Node {
	if t == nil || t.tree == nil {
		return nil
	}
	return t.tree.RootNode()
}

// Source returns the bytes the tree was parsed from
func (t *Tree) Source() []byte {
	if t == nil {
		return nil
	}
	return t.src
}

// Text returns the source text of a node
func (t *Tree) Text(n *sitter.Node) string {
	if t == nil || n == nil {
		return ""
	}
	return n.Content(t.src)
}

// HasErrors reports whether the tree contains any syntax error
func (t *Tree) HasErrors() bool {
	root := t.Root()
	return root != nil && root.HasError()
}

// Walk visits n and all of its children in preorder, anonymous nodes
// included. Returning false from fn skips the node's children.
func Walk(n *sitter.Node, fn func(*sitter.Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		Walk(n.Child(i), fn)
	}
}

// WalkNamed visits n and its named children in preorder. Returning
// false from fn skips the node's children.
func WalkNamed(n *sitter.Node, fn func(*sitter.Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		WalkNamed(n.NamedChild(i), fn)
	}
}
