package semantic

// ConstraintKind classifies a narrowing fact derived from a condition.
type ConstraintKind string

const (
	IsInstance    ConstraintKind = "isinstance"
	NotIsInstance ConstraintKind = "not-isinstance"
	IsNone        ConstraintKind = "is-none"
	NotNone       ConstraintKind = "is-not-none"
	Truthy        ConstraintKind = "truthy"
	Falsy         ConstraintKind = "falsy"
)

// Negated returns the kind that holds on the opposite branch.
func (k ConstraintKind) Negated() ConstraintKind {
	switch k {
	case IsInstance:
		return NotIsInstance
	case NotIsInstance:
		return IsInstance
	case IsNone:
		return NotNone
	case NotNone:
		return IsNone
	case Truthy:
		return Falsy
	case Falsy:
		return Truthy
	}
	return k
}

// Constraint is one narrowing fact about a symbol. TypeName is set
// only for the isinstance kinds.
type Constraint struct {
	Symbol   SymbolID
	Kind     ConstraintKind
	TypeName string
}

// ConstraintID identifies an interned constraint. IDs are dense and
// assigned in interning order starting at 0.
type ConstraintID uint32

// ConstraintSet is a handle to an immutable set of constraint IDs.
// The zero handle is the empty set. Equal sets always share a handle,
// so set comparison is integer comparison.
type ConstraintSet uint32

// EmptySet is the handle every store uses for the empty set.
const EmptySet ConstraintSet = 0

// Sets are stored as shared cons chains ordered by strictly
// descending constraint ID, one node per (head, rest) pair.
type consNode struct {
	head ConstraintID
	rest ConstraintSet
}

// ConstraintStore interns constraints and the sets built from them.
// A store belongs to a single symbol table build and is not safe for
// concurrent mutation.
type ConstraintStore struct {
	constraints []Constraint
	byValue     map[Constraint]ConstraintID
	nodes       []consNode
	byNode      map[consNode]ConstraintSet
}

func NewConstraintStore() *ConstraintStore {
	return &ConstraintStore{
		byValue: make(map[Constraint]ConstraintID),
		byNode:  make(map[consNode]ConstraintSet),
	}
}

// Intern returns the ID for c, assigning a fresh one on first sight.
func (s *ConstraintStore) Intern(c Constraint) ConstraintID {
	if id, ok := s.byValue[c]; ok {
		return id
	}
	id := ConstraintID(len(s.constraints))
	s.constraints = append(s.constraints, c)
	s.byValue[c] = id
	return id
}

// Constraint returns the interned constraint for id.
func (s *ConstraintStore) Constraint(id ConstraintID) Constraint {
	if int(id) >= len(s.constraints) {
		panic("semantic: unknown ConstraintID")
	}
	return s.constraints[id]
}

// cons returns the handle for the chain (head, rest), reusing an
// existing node when the same pair was built before. Callers must
// keep head greater than every ID in rest.
func (s *ConstraintStore) cons(head ConstraintID, rest ConstraintSet) ConstraintSet {
	key := consNode{head: head, rest: rest}
	if h, ok := s.byNode[key]; ok {
		return h
	}
	s.nodes = append(s.nodes, key)
	h := ConstraintSet(len(s.nodes))
	s.byNode[key] = h
	return h
}

func (s *ConstraintStore) node(set ConstraintSet) consNode {
	return s.nodes[set-1]
}

// Insert returns the set containing id and everything in set. When id
// is already a member the input handle comes back unchanged.
func (s *ConstraintStore) Insert(set ConstraintSet, id ConstraintID) ConstraintSet {
	if set == EmptySet {
		return s.cons(id, EmptySet)
	}
	n := s.node(set)
	switch {
	case id == n.head:
		return set
	case id > n.head:
		return s.cons(id, set)
	default:
		rest := s.Insert(n.rest, id)
		if rest == n.rest {
			return set
		}
		return s.cons(n.head, rest)
	}
}

// Intersect returns the set of IDs present in both a and b. Shared
// tails are reused, so intersecting a set with itself or with a
// superset costs no allocation.
func (s *ConstraintStore) Intersect(a, b ConstraintSet) ConstraintSet {
	if a == b {
		return a
	}
	if a == EmptySet || b == EmptySet {
		return EmptySet
	}
	na, nb := s.node(a), s.node(b)
	switch {
	case na.head == nb.head:
		rest := s.Intersect(na.rest, nb.rest)
		if rest == na.rest {
			return a
		}
		if rest == nb.rest {
			return b
		}
		return s.cons(na.head, rest)
	case na.head > nb.head:
		return s.Intersect(na.rest, b)
	default:
		return s.Intersect(a, nb.rest)
	}
}

// Contains reports whether id is a member of set.
func (s *ConstraintStore) Contains(set ConstraintSet, id ConstraintID) bool {
	for set != EmptySet {
		n := s.node(set)
		if n.head == id {
			return true
		}
		if n.head < id {
			return false
		}
		set = n.rest
	}
	return false
}

// Members lists the IDs in set, largest first.
func (s *ConstraintStore) Members(set ConstraintSet) []ConstraintID {
	var out []ConstraintID
	for set != EmptySet {
		n := s.node(set)
		out = append(out, n.head)
		set = n.rest
	}
	return out
}

// SetLen returns the number of members in set.
func (s *ConstraintStore) SetLen(set ConstraintSet) int {
	var n int
	for set != EmptySet {
		n++
		set = s.node(set).rest
	}
	return n
}
