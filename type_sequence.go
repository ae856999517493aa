// Copyright 2024 ctfmeta authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ctf

// SequenceType is the sequence kind of spec.md §3: like an array, but its
// element count is read at runtime from an integer (or enum) field pointed
// to by a Tag, rather than fixed at compile time.
type SequenceType struct {
	name      string
	id        string
	elem      Type
	lengthTag *Tag

	finalized bool
}

// NewSequenceType creates a new sequence type of elements of elem, whose
// count is read via lengthTag (sequence_create).
func NewSequenceType(name string, elem Type, lengthTag *Tag) *SequenceType {
	return &SequenceType{name: name, id: nextDebugID("sequence"), elem: elem, lengthTag: lengthTag}
}

// Elem returns the element type.
func (t *SequenceType) Elem() Type { return t.elem }

func (t *SequenceType) Kind() TypeKind  { return KindSequence }
func (t *SequenceType) Name() string    { return t.name }
func (t *SequenceType) debugID() string { return t.id }

func (t *SequenceType) Alignment() int    { return t.elem.Alignment() }
func (t *SequenceType) AlignmentMax() int { return t.elem.AlignmentMax() }

func (t *SequenceType) Finalize() error {
	if t.finalized {
		return nil
	}
	if t.lengthTag == nil {
		return ErrTagNotResolved
	}
	if err := t.elem.Finalize(); err != nil {
		return err
	}
	t.finalized = true
	return nil
}

func (t *SequenceType) Clone() Type {
	clone := &SequenceType{name: t.name, id: nextDebugID("sequence"), finalized: t.finalized}
	clone.elem = t.elem.Clone()
	if t.lengthTag != nil {
		clone.lengthTag = t.lengthTag.Clone()
	}
	return clone
}

func (t *SequenceType) resolveTagComponent(remainder string) (tagComponent, string, bool) {
	n, rest, ok := splitIndexComponent(remainder)
	if !ok {
		return tagComponent{}, remainder, false
	}
	return tagComponent{name: "[]", next: t.elem, index: n, hasIndex: true}, rest, true
}

func (t *SequenceType) instantiate(m *Meta, parent varRef, name string, contextRoot bool) (varRef, error) {
	idx := m.newVar(parent, name, contextRoot, t)
	v := m.vars[idx]
	impl := &seqVarImpl{typ: t}
	v.impl = impl

	elemIdx, err := t.elem.instantiate(m, idx, "[]", true)
	if err != nil {
		return noVar, err
	}
	impl.elemIdx = elemIdx
	elemVar := m.vars[elemIdx]
	impl.elemConstSize = elemVar.layout.constSize
	impl.elemConstAlign = elemVar.layout.constAlign

	vt, err := m.instantiateTag(t.lengthTag, v)
	if err != nil {
		return noVar, err
	}
	impl.lenTag = vt

	align := t.elem.Alignment()
	m.setDynamicSize(v,
		func(mm *Meta, self *Var, ctx *Context) int { return align },
		func(mm *Meta, self *Var, ctx *Context) int {
			n := impl.nElements(mm, self, ctx)
			return variableStrideSize(mm, self, ctx, n)
		},
	)
	if contextRoot {
		m.placeAbsolute(v)
	}
	return idx, nil
}
