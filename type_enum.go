// Copyright 2024 ctfmeta authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ctf

// enumRange is one named value of an EnumType: [Low, High] inclusive,
// matching ctf_type.c's sorted-interval enum representation (see
// DESIGN.md/SPEC_FULL.md §C.1).
type enumRange struct {
	name string
	low  int64
	high int64
}

// EnumType is the enum kind of spec.md §3: a backing integer type plus a
// set of named, possibly multi-valued, ranges.
type EnumType struct {
	name    string
	id      string
	backing *IntegerType
	ranges  []enumRange // kept sorted by low once Finalize runs

	finalized bool
}

// NewEnumType begins construction of a new enum type (enum_begin), backed
// by backing (already under construction or finalized - backing must
// finalize successfully as part of the enum's own Finalize).
func NewEnumType(name string, backing *IntegerType) *EnumType {
	return &EnumType{name: name, id: nextDebugID("enum"), backing: backing}
}

// AddValue records name as covering [low, high] inclusive (enum_add_value).
func (t *EnumType) AddValue(name string, low, high int64) {
	t.ranges = append(t.ranges, enumRange{name: name, low: low, high: high})
}

// Backing returns the enum's underlying integer type.
func (t *EnumType) Backing() *IntegerType { return t.backing }

func (t *EnumType) Kind() TypeKind  { return KindEnum }
func (t *EnumType) Name() string    { return t.name }
func (t *EnumType) debugID() string { return t.id }

func (t *EnumType) Alignment() int    { return t.backing.Alignment() }
func (t *EnumType) AlignmentMax() int { return t.backing.AlignmentMax() }

// Finalize finalizes the backing integer, rejects a backing wider than 64
// bits (the lookup machinery works in int64), and sorts ranges by Low for
// binary search (spec.md §3, SPEC_FULL.md §C.1).
func (t *EnumType) Finalize() error {
	if t.finalized {
		return nil
	}
	if err := t.backing.Finalize(); err != nil {
		return err
	}
	if t.backing.Size() > 64 {
		return ErrEnumBackingTooWide
	}
	for i := 1; i < len(t.ranges); i++ {
		for j := i; j > 0 && t.ranges[j-1].low > t.ranges[j].low; j-- {
			t.ranges[j-1], t.ranges[j] = t.ranges[j], t.ranges[j-1]
		}
	}
	t.finalized = true
	return nil
}

func (t *EnumType) Clone() Type {
	clone := &EnumType{name: t.name, id: nextDebugID("enum"), finalized: t.finalized}
	backingClone := t.backing.Clone().(*IntegerType)
	clone.backing = backingClone
	clone.ranges = append([]enumRange(nil), t.ranges...)
	return clone
}

// resolveTagComponent: an enum is a tag-path leaf, exactly like a plain
// integer - its values are inspected, never descended into.
func (t *EnumType) resolveTagComponent(remainder string) (tagComponent, string, bool) {
	return tagComponent{}, remainder, false
}

func (t *EnumType) instantiate(m *Meta, parent varRef, name string, contextRoot bool) (varRef, error) {
	idx := m.newVar(parent, name, contextRoot, t)
	v := m.vars[idx]
	v.impl = &enumVarImpl{typ: t}
	m.setSize(v, t.backing.align, t.backing.size)
	if contextRoot {
		m.placeAbsolute(v)
	}
	return idx, nil
}

// lookup returns the name of the range containing val, via binary search
// over the sorted ranges (SPEC_FULL.md §C.1).
func (t *EnumType) lookup(val int64) (string, bool) {
	lo, hi := 0, len(t.ranges)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		r := t.ranges[mid]
		switch {
		case val < r.low:
			hi = mid - 1
		case val > r.high:
			lo = mid + 1
		default:
			return r.name, true
		}
	}
	return "", false
}
