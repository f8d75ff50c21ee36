package semantic

import (
	"pysema/internal/parser"
)

// Branch narrowing: each arm of an if/elif/else chain is walked under
// a copy of the environment extended with the constraints its
// condition implies. At the join, a symbol keeps only the facts every
// non-terminating arm agrees on, which the shared-tail Intersect makes
// cheap.

type branchResult struct {
	env        map[SymbolID]ConstraintSet
	terminated bool
}

func cloneEnv(env map[SymbolID]ConstraintSet) map[SymbolID]ConstraintSet {
	out := make(map[SymbolID]ConstraintSet, len(env))
	for k, v := range env {
		out[k] = v
	}
	return out
}

func (b *builder) applyConstraint(id ConstraintID) {
	c := b.table.store.Constraint(id)
	b.env[c.Symbol] = b.table.store.Insert(b.env[c.Symbol], id)
}

// inBranch walks fn under base extended with cs and reports the
// resulting environment and whether the arm left via return, raise,
// break or continue.
func (b *builder) inBranch(base map[SymbolID]ConstraintSet, cs []ConstraintID, fn func()) branchResult {
	savedEnv, savedTerm := b.env, b.terminated
	b.env = cloneEnv(base)
	b.terminated = false
	for _, id := range cs {
		b.applyConstraint(id)
	}
	fn()
	res := branchResult{env: b.env, terminated: b.terminated}
	b.env, b.terminated = savedEnv, savedTerm
	return res
}

// mergeBranches joins two arms. A terminated arm contributes nothing:
// the facts of the surviving arm hold unconditionally afterwards.
func (b *builder) mergeBranches(then, other branchResult) branchResult {
	switch {
	case then.terminated && other.terminated:
		return branchResult{env: then.env, terminated: true}
	case then.terminated:
		return other
	case other.terminated:
		return then
	}
	merged := make(map[SymbolID]ConstraintSet)
	for sym, set := range then.env {
		if common := b.table.store.Intersect(set, other.env[sym]); common != EmptySet {
			merged[sym] = common
		}
	}
	return branchResult{env: merged}
}

func (b *builder) ifStmt(n *parser.Node) {
	cond := n.ChildByFieldName("condition")
	b.expr(cond)
	pos, neg := b.condConstraints(cond)

	var alts []*parser.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "elif_clause" || c.Type() == "else_clause" {
			alts = append(alts, c)
		}
	}

	base := b.env
	then := b.inBranch(base, pos, func() { b.block(n.ChildByFieldName("consequence")) })
	rest := b.elseArms(base, neg, alts)
	out := b.mergeBranches(then, rest)

	b.env = out.env
	if out.terminated {
		b.terminated = true
	}
}

// elseArms walks the elif/else chain under the accumulated negative
// constraints of every condition already ruled out.
func (b *builder) elseArms(base map[SymbolID]ConstraintSet, neg []ConstraintID, alts []*parser.Node) branchResult {
	if len(alts) == 0 {
		return b.inBranch(base, neg, func() {})
	}
	first := alts[0]
	if first.Type() == "else_clause" {
		return b.inBranch(base, neg, func() { b.block(childBlock(first)) })
	}

	cond := first.ChildByFieldName("condition")
	negged := b.inBranch(base, neg, func() { b.expr(cond) })
	pos2, neg2 := b.condConstraints(cond)
	then := b.inBranch(negged.env, pos2, func() { b.block(first.ChildByFieldName("consequence")) })
	rest := b.elseArms(negged.env, neg2, alts[1:])
	return b.mergeBranches(then, rest)
}

// condConstraints derives the constraints a condition implies when it
// is true (pos) and when it is false (neg). Conditions narrowing
// nothing yield empty slices.
func (b *builder) condConstraints(n *parser.Node) (pos, neg []ConstraintID) {
	if n == nil {
		return nil, nil
	}
	switch n.Type() {
	case "parenthesized_expression":
		if inner := n.NamedChild(0); inner != nil {
			return b.condConstraints(inner)
		}
	case "not_operator":
		if arg := n.ChildByFieldName("argument"); arg != nil {
			p, ng := b.condConstraints(arg)
			return ng, p
		}
	case "boolean_operator":
		left, right := n.ChildByFieldName("left"), n.ChildByFieldName("right")
		lp, ln := b.condConstraints(left)
		rp, rn := b.condConstraints(right)
		if b.operatorText(n) == "and" {
			// both held when true; no single culprit when false
			return append(lp, rp...), nil
		}
		return nil, append(ln, rn...)
	case "identifier":
		sym := b.narrowTarget(n)
		return b.pair(sym, Truthy, "")
	case "comparison_operator":
		return b.comparisonConstraints(n)
	case "call":
		return b.isinstanceConstraints(n)
	}
	return nil, nil
}

// comparisonConstraints handles `x is None` and `x is not None`.
func (b *builder) comparisonConstraints(n *parser.Node) (pos, neg []ConstraintID) {
	if n.NamedChildCount() != 2 {
		return nil, nil
	}
	left, right := n.NamedChild(0), n.NamedChild(1)
	target := left
	if left.Type() == "none" {
		target = right
	} else if right.Type() != "none" {
		return nil, nil
	}
	if target.Type() != "identifier" {
		return nil, nil
	}

	// "is not" is a single aliased token in newer grammars and two
	// tokens in older ones
	var sawIs, sawNot bool
	for i := 0; i < int(n.ChildCount()); i++ {
		switch n.Child(i).Type() {
		case "is":
			sawIs = true
		case "not":
			sawNot = true
		case "is not":
			sawIs, sawNot = true, true
		}
	}
	if !sawIs {
		return nil, nil
	}

	sym := b.narrowTarget(target)
	if sawNot {
		return b.pair(sym, NotNone, "")
	}
	return b.pair(sym, IsNone, "")
}

// isinstanceConstraints handles `isinstance(x, T)`.
func (b *builder) isinstanceConstraints(n *parser.Node) (pos, neg []ConstraintID) {
	fn := n.ChildByFieldName("function")
	if fn == nil || fn.Type() != "identifier" || b.text(fn) != "isinstance" {
		return nil, nil
	}
	args := n.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() < 2 {
		return nil, nil
	}
	target := args.NamedChild(0)
	if target.Type() != "identifier" {
		return nil, nil
	}
	sym := b.narrowTarget(target)
	return b.pair(sym, IsInstance, b.text(args.NamedChild(1)))
}

// narrowTarget resolves the symbol a constraint is about without
// creating a duplicate use record.
func (b *builder) narrowTarget(n *parser.Node) SymbolID {
	name := b.text(n)
	if id, ok := b.table.Lookup(b.scope, name); ok {
		return id
	}
	return b.table.ensureSymbol(b.scope, name)
}

func (b *builder) pair(sym SymbolID, kind ConstraintKind, typeName string) (pos, neg []ConstraintID) {
	store := b.table.store
	p := store.Intern(Constraint{Symbol: sym, Kind: kind, TypeName: typeName})
	n := store.Intern(Constraint{Symbol: sym, Kind: kind.Negated(), TypeName: typeName})
	return []ConstraintID{p}, []ConstraintID{n}
}

func (b *builder) operatorText(n *parser.Node) string {
	if op := n.ChildByFieldName("operator"); op != nil {
		return b.text(op)
	}
	return ""
}
