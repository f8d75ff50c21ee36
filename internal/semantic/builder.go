package semantic

import (
	"pysema/internal/parser"
)

// Build walks a parsed tree and produces its symbol table. A nil or
// empty tree yields a table with a bare module scope, so callers never
// see a nil table.
func Build(tree *parser.Tree) *Table {
	t := newTable()
	root := tree.Root()
	if root == nil {
		return t
	}
	b := &builder{
		tree:  tree,
		table: t,
		scope: ModuleScope,
		env:   make(map[SymbolID]ConstraintSet),
	}
	b.block(root)
	b.seal()
	return t
}

type builder struct {
	tree  *parser.Tree
	table *Table
	scope ScopeID

	// env carries the narrowing facts live at the current point of
	// the walk. Rebinding a symbol drops its facts.
	env        map[SymbolID]ConstraintSet
	terminated bool
}

func (b *builder) text(n *parser.Node) string { return b.tree.Text(n) }

func point(n *parser.Node) (uint32, uint32) {
	p := n.StartPoint()
	return p.Row + 1, p.Column
}

// bind records a binding of name in the current scope and drops any
// narrowing facts the old binding carried.
func (b *builder) bind(name string, kind DefinitionKind, extra SymbolFlags, line, col uint32) SymbolID {
	id := b.table.ensureSymbol(b.scope, name)
	b.table.addFlags(id, FlagBound|extra)
	b.table.addDefinition(id, kind, line, col)
	delete(b.env, id)
	return id
}

// use marks name as read. Names that resolve nowhere become unbound
// symbols of the current scope, the way CPython's symtable records
// implicit globals per scope.
func (b *builder) use(name string) SymbolID {
	id, ok := b.table.Lookup(b.scope, name)
	if !ok {
		id = b.table.ensureSymbol(b.scope, name)
	}
	b.table.addFlags(id, FlagUsed)
	return id
}

// inScope runs fn inside a fresh child scope with its own narrowing
// environment, then seals that scope's surviving facts.
func (b *builder) inScope(kind ScopeKind, name string, fn func()) {
	parentScope, parentEnv, parentTerm := b.scope, b.env, b.terminated
	b.scope = b.table.addScope(kind, name, parentScope)
	b.env = make(map[SymbolID]ConstraintSet)
	b.terminated = false
	fn()
	b.seal()
	b.scope, b.env, b.terminated = parentScope, parentEnv, parentTerm
}

// seal publishes the facts still live for symbols owned by the
// current scope.
func (b *builder) seal() {
	for sym, set := range b.env {
		if set != EmptySet && b.table.symbols[sym].Scope == b.scope {
			b.table.facts[sym] = set
		}
	}
}

// block walks the statements of a module, suite or clause body.
func (b *builder) block(n *parser.Node) {
	if n == nil {
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		b.stmt(n.NamedChild(i))
	}
}

func (b *builder) stmt(n *parser.Node) {
	switch n.Type() {
	case "function_definition":
		b.functionDef(n)
	case "class_definition":
		b.classDef(n)
	case "decorated_definition":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			if c.Type() == "decorator" {
				b.exprChildren(c)
			} else {
				b.stmt(c)
			}
		}
	case "import_statement", "import_from_statement":
		b.importStmt(n)
	case "expression_statement":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			b.expr(n.NamedChild(i))
		}
	case "if_statement":
		b.ifStmt(n)
	case "while_statement":
		b.expr(n.ChildByFieldName("condition"))
		b.block(n.ChildByFieldName("body"))
		if alt := n.ChildByFieldName("alternative"); alt != nil {
			b.block(childBlock(alt))
		}
	case "for_statement":
		b.expr(n.ChildByFieldName("right"))
		b.bindTarget(n.ChildByFieldName("left"), DefFor)
		b.block(n.ChildByFieldName("body"))
		if alt := n.ChildByFieldName("alternative"); alt != nil {
			b.block(childBlock(alt))
		}
	case "with_statement":
		b.withStmt(n)
	case "try_statement":
		b.tryStmt(n)
	case "return_statement", "raise_statement":
		b.exprChildren(n)
		b.terminated = true
	case "break_statement", "continue_statement":
		b.terminated = true
	case "assert_statement":
		b.assertStmt(n)
	case "global_statement":
		b.scopeDecl(n, FlagGlobal)
	case "nonlocal_statement":
		b.scopeDecl(n, FlagNonlocal)
	case "delete_statement", "print_statement", "exec_statement":
		b.exprChildren(n)
	case "pass_statement", "comment":
	default:
		b.exprChildren(n)
	}
}

func (b *builder) exprChildren(n *parser.Node) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		b.expr(n.NamedChild(i))
	}
}

func (b *builder) expr(n *parser.Node) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "identifier":
		b.use(b.text(n))
	case "attribute":
		// only the object position reads a name; the attribute
		// identifier is not a scope lookup
		b.expr(n.ChildByFieldName("object"))
	case "call":
		b.expr(n.ChildByFieldName("function"))
		if args := n.ChildByFieldName("arguments"); args != nil {
			for i := 0; i < int(args.NamedChildCount()); i++ {
				a := args.NamedChild(i)
				if a.Type() == "keyword_argument" {
					b.expr(a.ChildByFieldName("value"))
				} else {
					b.expr(a)
				}
			}
		}
	case "assignment":
		if typ := n.ChildByFieldName("type"); typ != nil {
			b.expr(typ)
		}
		b.expr(n.ChildByFieldName("right"))
		b.bindTarget(n.ChildByFieldName("left"), DefAssignment)
	case "augmented_assignment":
		b.expr(n.ChildByFieldName("right"))
		b.expr(n.ChildByFieldName("left"))
		b.bindTarget(n.ChildByFieldName("left"), DefAssignment)
	case "named_expression":
		b.expr(n.ChildByFieldName("value"))
		if name := n.ChildByFieldName("name"); name != nil && name.Type() == "identifier" {
			line, col := point(name)
			b.bind(b.text(name), DefAssignment, 0, line, col)
		}
	case "lambda":
		b.paramDefaults(n.ChildByFieldName("parameters"))
		b.inScope(ScopeLambda, "", func() {
			b.bindParams(n.ChildByFieldName("parameters"))
			b.expr(n.ChildByFieldName("body"))
		})
	case "list_comprehension", "set_comprehension", "dictionary_comprehension", "generator_expression":
		b.comprehension(n)
	case "string":
		// f-string interpolations are the only expressions inside
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if c := n.NamedChild(i); c.Type() == "interpolation" {
				b.exprChildren(c)
			}
		}
	case "keyword_argument":
		b.expr(n.ChildByFieldName("value"))
	default:
		b.exprChildren(n)
	}
}

// bindTarget binds an assignment target pattern. Attribute and
// subscript targets bind nothing; they read their base instead.
func (b *builder) bindTarget(n *parser.Node, kind DefinitionKind) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "identifier":
		line, col := point(n)
		b.bind(b.text(n), kind, 0, line, col)
	case "tuple_pattern", "list_pattern", "pattern_list", "tuple", "list", "parenthesized_expression":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			b.bindTarget(n.NamedChild(i), kind)
		}
	case "list_splat_pattern", "dictionary_splat_pattern":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			b.bindTarget(n.NamedChild(i), kind)
		}
	case "attribute", "subscript":
		b.expr(n)
	default:
		b.expr(n)
	}
}

func (b *builder) functionDef(n *parser.Node) {
	name := n.ChildByFieldName("name")
	if name == nil {
		return
	}
	line, col := point(name)
	b.bind(b.text(name), DefFunction, 0, line, col)

	params := n.ChildByFieldName("parameters")
	b.paramDefaults(params)
	if ret := n.ChildByFieldName("return_type"); ret != nil {
		b.expr(ret)
	}
	b.inScope(ScopeFunction, b.text(name), func() {
		b.bindParams(params)
		b.block(n.ChildByFieldName("body"))
	})
}

func (b *builder) classDef(n *parser.Node) {
	name := n.ChildByFieldName("name")
	if name == nil {
		return
	}
	line, col := point(name)
	b.bind(b.text(name), DefClass, 0, line, col)

	if supers := n.ChildByFieldName("superclasses"); supers != nil {
		b.exprChildren(supers)
	}
	b.inScope(ScopeClass, b.text(name), func() {
		b.block(n.ChildByFieldName("body"))
	})
}

// paramDefaults walks default values and annotations in the enclosing
// scope, where Python evaluates them.
func (b *builder) paramDefaults(params *parser.Node) {
	if params == nil {
		return
	}
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		switch p.Type() {
		case "default_parameter", "typed_default_parameter":
			b.expr(p.ChildByFieldName("value"))
			if typ := p.ChildByFieldName("type"); typ != nil {
				b.expr(typ)
			}
		case "typed_parameter":
			if typ := p.ChildByFieldName("type"); typ != nil {
				b.expr(typ)
			}
		}
	}
}

func (b *builder) bindParams(params *parser.Node) {
	if params == nil {
		return
	}
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		switch p.Type() {
		case "identifier":
			line, col := point(p)
			b.bind(b.text(p), DefParameter, FlagParameter, line, col)
		case "default_parameter", "typed_default_parameter":
			if name := p.ChildByFieldName("name"); name != nil {
				line, col := point(name)
				b.bind(b.text(name), DefParameter, FlagParameter, line, col)
			}
		case "typed_parameter":
			if c := p.NamedChild(0); c != nil {
				b.bindParamPattern(c)
			}
		case "list_splat_pattern", "dictionary_splat_pattern":
			b.bindParamPattern(p)
		case "tuple_pattern":
			b.bindTarget(p, DefParameter)
		}
	}
}

func (b *builder) bindParamPattern(n *parser.Node) {
	switch n.Type() {
	case "identifier":
		line, col := point(n)
		b.bind(b.text(n), DefParameter, FlagParameter, line, col)
	case "list_splat_pattern", "dictionary_splat_pattern":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			b.bindParamPattern(n.NamedChild(i))
		}
	}
}

func (b *builder) importStmt(n *parser.Node) {
	for _, binding := range b.tree.StatementImports(n) {
		if binding.Wildcard || binding.BoundName == "" {
			continue
		}
		b.bind(binding.BoundName, DefImport, FlagImported, binding.Line, binding.Column)
	}
}

func (b *builder) withStmt(n *parser.Node) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() != "with_clause" {
			continue
		}
		for j := 0; j < int(c.NamedChildCount()); j++ {
			item := c.NamedChild(j)
			if item.Type() != "with_item" {
				continue
			}
			value := item.ChildByFieldName("value")
			if value != nil && value.Type() == "as_pattern" {
				b.asPattern(value, DefWith)
			} else {
				b.expr(value)
			}
		}
	}
	b.block(n.ChildByFieldName("body"))
}

func (b *builder) tryStmt(n *parser.Node) {
	b.block(n.ChildByFieldName("body"))
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "except_clause", "except_group_clause":
			b.exceptClause(c)
		case "else_clause", "finally_clause":
			b.block(childBlock(c))
		}
	}
}

func (b *builder) exceptClause(n *parser.Node) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "as_pattern":
			b.asPattern(c, DefExcept)
		case "block":
			b.block(c)
		default:
			b.expr(c)
		}
	}
}

// asPattern handles `value as target` in with items and except
// clauses.
func (b *builder) asPattern(n *parser.Node, kind DefinitionKind) {
	if v := n.NamedChild(0); v != nil {
		b.expr(v)
	}
	if alias := n.ChildByFieldName("alias"); alias != nil {
		line, col := point(alias)
		b.bind(b.text(alias), kind, 0, line, col)
	}
}

func (b *builder) comprehension(n *parser.Node) {
	b.inScope(ScopeComprehension, "", func() {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			switch c.Type() {
			case "for_in_clause":
				b.expr(c.ChildByFieldName("right"))
				b.bindTarget(c.ChildByFieldName("left"), DefFor)
			case "if_clause":
				b.exprChildren(c)
			default:
				b.expr(c)
			}
		}
	})
}

func (b *builder) scopeDecl(n *parser.Node, flag SymbolFlags) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() != "identifier" {
			continue
		}
		id := b.table.ensureSymbol(b.scope, b.text(c))
		b.table.addFlags(id, flag)
		if flag == FlagGlobal {
			b.table.ensureSymbol(ModuleScope, b.text(c))
		}
	}
}

// assertStmt applies the positive constraints of the asserted
// condition to the code that follows.
func (b *builder) assertStmt(n *parser.Node) {
	cond := n.NamedChild(0)
	if cond == nil {
		return
	}
	b.exprChildren(n)
	pos, _ := b.condConstraints(cond)
	for _, id := range pos {
		b.applyConstraint(id)
	}
}

func childBlock(clause *parser.Node) *parser.Node {
	if body := clause.ChildByFieldName("body"); body != nil {
		return body
	}
	for i := 0; i < int(clause.NamedChildCount()); i++ {
		if c := clause.NamedChild(i); c.Type() == "block" {
			return c
		}
	}
	return nil
}
