package semantic

import (
	"reflect"
	"testing"
)

func TestConstraintStore_InternDedup(t *testing.T) {
	s := NewConstraintStore()
	c := Constraint{Symbol: 3, Kind: IsInstance, TypeName: "int"}

	a := s.Intern(c)
	b := s.Intern(c)
	if a != b {
		t.Errorf("interning the same constraint twice gave %d and %d", a, b)
	}
	if got := s.Constraint(a); got != c {
		t.Errorf("Constraint(%d) = %+v, want %+v", a, got, c)
	}

	other := s.Intern(Constraint{Symbol: 3, Kind: IsInstance, TypeName: "str"})
	if other == a {
		t.Error("distinct constraints share an ID")
	}
}

func TestConstraintStore_InsertIdempotent(t *testing.T) {
	s := NewConstraintStore()
	a := s.Intern(Constraint{Symbol: 1, Kind: Truthy})

	set := s.Insert(EmptySet, a)
	if set == EmptySet {
		t.Fatal("insert into empty set produced the empty handle")
	}
	if again := s.Insert(set, a); again != set {
		t.Errorf("re-inserting a member changed the handle: %d != %d", again, set)
	}
}

func TestConstraintStore_OrderIndependence(t *testing.T) {
	s := NewConstraintStore()
	ids := []ConstraintID{
		s.Intern(Constraint{Symbol: 1, Kind: Truthy}),
		s.Intern(Constraint{Symbol: 2, Kind: IsNone}),
		s.Intern(Constraint{Symbol: 3, Kind: NotNone}),
	}

	build := func(order ...int) ConstraintSet {
		set := EmptySet
		for _, i := range order {
			set = s.Insert(set, ids[i])
		}
		return set
	}

	first := build(0, 1, 2)
	for _, order := range [][]int{{2, 1, 0}, {1, 0, 2}, {2, 0, 1}, {0, 2, 1}} {
		if got := build(order...); got != first {
			t.Errorf("insertion order %v gave handle %d, want %d", order, got, first)
		}
	}
}

func TestConstraintStore_Intersect(t *testing.T) {
	s := NewConstraintStore()
	xInt := s.Intern(Constraint{Symbol: 1, Kind: IsInstance, TypeName: "int"})
	yNotNone := s.Intern(Constraint{Symbol: 2, Kind: NotNone})
	zTruthy := s.Intern(Constraint{Symbol: 3, Kind: Truthy})

	a := s.Insert(s.Insert(EmptySet, xInt), yNotNone)
	b := s.Insert(s.Insert(EmptySet, yNotNone), zTruthy)

	got := s.Intersect(a, b)
	want := s.Insert(EmptySet, yNotNone)
	if got != want {
		t.Errorf("intersect handle = %d, want %d with members %v", got, want, s.Members(got))
	}

	if s.Intersect(a, a) != a {
		t.Error("self intersection must return the same handle")
	}
	if s.Intersect(a, EmptySet) != EmptySet {
		t.Error("intersection with empty must be empty")
	}
	if s.Intersect(EmptySet, b) != EmptySet {
		t.Error("intersection with empty must be empty")
	}
}

func TestConstraintStore_IntersectSharesSupersetTail(t *testing.T) {
	s := NewConstraintStore()
	a := s.Intern(Constraint{Symbol: 1, Kind: Truthy})
	b := s.Intern(Constraint{Symbol: 2, Kind: Truthy})

	sub := s.Insert(EmptySet, a)
	super := s.Insert(sub, b)

	if got := s.Intersect(super, sub); got != sub {
		t.Errorf("superset ∩ subset = handle %d, want subset handle %d", got, sub)
	}
}

func TestConstraintStore_MembersDescending(t *testing.T) {
	s := NewConstraintStore()
	var ids []ConstraintID
	for i := 0; i < 5; i++ {
		ids = append(ids, s.Intern(Constraint{Symbol: SymbolID(i), Kind: Truthy}))
	}

	set := EmptySet
	for _, id := range []ConstraintID{ids[2], ids[0], ids[4], ids[1], ids[3]} {
		set = s.Insert(set, id)
	}

	got := s.Members(set)
	want := []ConstraintID{ids[4], ids[3], ids[2], ids[1], ids[0]}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Members = %v, want %v", got, want)
	}
	if n := s.SetLen(set); n != 5 {
		t.Errorf("SetLen = %d, want 5", n)
	}
}

func TestConstraintStore_Contains(t *testing.T) {
	s := NewConstraintStore()
	a := s.Intern(Constraint{Symbol: 1, Kind: IsNone})
	b := s.Intern(Constraint{Symbol: 2, Kind: NotNone})
	c := s.Intern(Constraint{Symbol: 3, Kind: Falsy})

	set := s.Insert(s.Insert(EmptySet, c), a)
	if !s.Contains(set, a) || !s.Contains(set, c) {
		t.Error("members not found")
	}
	if s.Contains(set, b) {
		t.Error("non-member reported present")
	}
	if s.Contains(EmptySet, a) {
		t.Error("empty set has no members")
	}
}

func TestConstraintKind_Negated(t *testing.T) {
	pairs := map[ConstraintKind]ConstraintKind{
		IsInstance: NotIsInstance,
		IsNone:     NotNone,
		Truthy:     Falsy,
	}
	for k, want := range pairs {
		if got := k.Negated(); got != want {
			t.Errorf("%s negated = %s, want %s", k, got, want)
		}
		if back := want.Negated(); back != k {
			t.Errorf("%s negated = %s, want %s", want, back, k)
		}
	}
}
