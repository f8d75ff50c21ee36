package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// ImportBinding describes one name bound by an import statement.
//
// For `import os.path` the module is "os.path" and the bound name is
// "os" (Python binds the top-level package). For `from os import path
// as p` the module is "os", the imported name "path", and the bound
// name "p". Relative imports carry their leading-dot count and the
// module part without dots.
type ImportBinding struct {
	Module       string `json:"module"`
	ImportedName string `json:"importedName,omitempty"`
	BoundName    string `json:"boundName"`
	Wildcard     bool   `json:"wildcard,omitempty"`
	RelativeDots int    `json:"relativeDots,omitempty"`
	Line         uint32 `json:"line"`
	Column       uint32 `json:"column"`
}

// Imports extracts every import binding in the tree, inline imports in
// function bodies included.
func (t *Tree) Imports() []ImportBinding {
	var out []ImportBinding
	Walk(t.Root(), func(n *sitter.Node) bool {
		switch n.Type() {
		case "import_statement", "import_from_statement":
			out = append(out, t.StatementImports(n)...)
			return false
		}
		return true
	})
	return out
}

// StatementImports extracts the bindings of a single import statement
// node. Returns nil when n is not an import statement.
func (t *Tree) StatementImports(n *sitter.Node) []ImportBinding {
	switch n.Type() {
	case "import_statement":
		return t.plainImports(n)
	case "import_from_statement":
		return t.fromImports(n)
	}
	return nil
}

// plainImports handles `import a.b` and `import a.b as c`
func (t *Tree) plainImports(n *sitter.Node) []ImportBinding {
	var out []ImportBinding
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch child.Type() {
		case "dotted_name":
			module := t.Text(child)
			out = append(out, ImportBinding{
				Module:    module,
				BoundName: topName(module),
				Line:      n.StartPoint().Row + 1,
				Column:    n.StartPoint().Column,
			})
		case "aliased_import":
			var module, alias string
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				switch gc.Type() {
				case "dotted_name":
					module = t.Text(gc)
				case "identifier":
					alias = t.Text(gc)
				}
			}
			if module != "" {
				out = append(out, ImportBinding{
					Module:    module,
					BoundName: alias,
					Line:      n.StartPoint().Row + 1,
					Column:    n.StartPoint().Column,
				})
			}
		}
	}
	return out
}

// fromImports handles `from a.b import c`, aliases, relative forms and
// the wildcard.
func (t *Tree) fromImports(n *sitter.Node) []ImportBinding {
	var module string
	var dots int
	var sawImport bool
	base := ImportBinding{
		Line:   n.StartPoint().Row + 1,
		Column: n.StartPoint().Column,
	}
	var out []ImportBinding

	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch child.Type() {
		case "import":
			sawImport = true
		case "relative_import":
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				switch gc.Type() {
				case "import_prefix":
					dots = len(t.Text(gc))
				case "dotted_name":
					module = t.Text(gc)
				}
			}
		case "dotted_name":
			if !sawImport {
				module = t.Text(child)
			} else {
				name := t.Text(child)
				b := base
				b.ImportedName = name
				b.BoundName = name
				out = append(out, b)
			}
		case "identifier":
			if sawImport {
				name := t.Text(child)
				b := base
				b.ImportedName = name
				b.BoundName = name
				out = append(out, b)
			}
		case "aliased_import":
			var name, alias string
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				switch gc.Type() {
				case "dotted_name", "identifier":
					if name == "" {
						name = t.Text(gc)
					} else {
						alias = t.Text(gc)
					}
				}
			}
			if name != "" {
				b := base
				b.ImportedName = name
				b.BoundName = name
				if alias != "" {
					b.BoundName = alias
				}
				out = append(out, b)
			}
		case "wildcard_import":
			b := base
			b.Wildcard = true
			out = append(out, b)
		}
	}

	for i := range out {
		out[i].Module = module
		out[i].RelativeDots = dots
	}
	return out
}

func topName(dotted string) string {
	if i := strings.IndexByte(dotted, '.'); i >= 0 {
		return dotted[:i]
	}
	return dotted
}
