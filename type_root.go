// Copyright 2024 ctfmeta authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ctf

import "strings"

// slotKeys is dynamicSlotNames inverted: slot -> its assign-position string,
// also used as the synthetic root variable's child name and as the literal
// tag-path prefix a tag may start with (spec.md §3 RootType, six slots).
var slotKeys = func() [numDynamicSlots]string {
	var out [numDynamicSlots]string
	for k, v := range dynamicSlotNames {
		out[v] = k
	}
	return out
}()

// RootType is the root kind of spec.md §3: the metadata's single top-level
// type, holding the six fixed dynamic-scope slots. There is exactly one
// RootType per Meta.
type RootType struct {
	id    string
	slots [numDynamicSlots]Type

	finalized bool
}

// NewRootType creates the metadata's root type.
func NewRootType() *RootType {
	return &RootType{id: nextDebugID("root")}
}

// AssignType binds typ to one of the six dynamic-scope slots
// (ctf_scope_top_assign_type). Reassigning an already-bound slot is
// rejected - per spec.md §4.1, construction never overwrites.
func (t *RootType) AssignType(slot DynamicSlot, typ Type) error {
	if t.slots[slot] != nil {
		return ErrTypeCollision
	}
	t.slots[slot] = typ
	return nil
}

// SlotType returns the type assigned to slot, or nil if never assigned.
func (t *RootType) SlotType(slot DynamicSlot) Type { return t.slots[slot] }

func (t *RootType) Kind() TypeKind  { return KindRoot }
func (t *RootType) Name() string    { return "" }
func (t *RootType) debugID() string { return t.id }

func (t *RootType) Alignment() int    { return 1 }
func (t *RootType) AlignmentMax() int {
	max := 1
	for _, s := range t.slots {
		if s == nil {
			continue
		}
		if a := s.AlignmentMax(); a > max {
			max = a
		}
	}
	return max
}

func (t *RootType) Finalize() error {
	if t.finalized {
		return nil
	}
	for _, s := range t.slots {
		if s == nil {
			continue
		}
		if err := s.Finalize(); err != nil {
			return err
		}
	}
	t.finalized = true
	return nil
}

func (t *RootType) Clone() Type {
	panic("ctf: root type is never cloned")
}

// resolveTagComponent matches remainder against the longest dynamic-scope
// position string it starts with (spec.md §4.3's "root, absolute scope"
// fallback for tag resolution).
func (t *RootType) resolveTagComponent(remainder string) (tagComponent, string, bool) {
	bestSlot := -1
	bestLen := -1
	for slot, key := range slotKeys {
		if strings.HasPrefix(remainder, key) && len(key) > bestLen {
			rest := remainder[len(key):]
			if rest != "" && rest[0] != '.' {
				continue
			}
			bestSlot, bestLen = slot, len(key)
		}
	}
	if bestSlot < 0 || t.slots[bestSlot] == nil {
		return tagComponent{}, remainder, false
	}
	key := slotKeys[bestSlot]
	rest := remainder[len(key):]
	if len(rest) > 0 {
		rest = rest[1:]
	}
	return tagComponent{name: key, next: t.slots[bestSlot], index: -1}, rest, true
}

func (t *RootType) instantiate(m *Meta, parent varRef, name string, contextRoot bool) (varRef, error) {
	idx := m.newVar(noVar, "", true, t)
	v := m.vars[idx]
	v.impl = &rootVarImpl{typ: t}
	m.setSize(v, 1, 0)
	m.placeAbsolute(v)

	impl := v.impl.(*rootVarImpl)
	for slot, st := range t.slots {
		impl.slotIdxs[slot] = noVar
		if st == nil {
			continue
		}
		childIdx, err := st.instantiate(m, idx, slotKeys[slot], true)
		if err != nil {
			return noVar, err
		}
		impl.slotIdxs[slot] = childIdx
	}
	return idx, nil
}
