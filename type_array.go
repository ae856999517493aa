// Copyright 2024 ctfmeta authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ctf

// ArrayType is the array kind of spec.md §3: a fixed compile-time count of
// elements of a single element type.
type ArrayType struct {
	name  string
	id    string
	elem  Type
	count int

	finalized bool
}

// NewArrayType creates a new array type of count elements of elem
// (array_create).
func NewArrayType(name string, elem Type, count int) *ArrayType {
	return &ArrayType{name: name, id: nextDebugID("array"), elem: elem, count: count}
}

// Elem returns the element type.
func (t *ArrayType) Elem() Type { return t.elem }

// Count returns the fixed element count.
func (t *ArrayType) Count() int { return t.count }

func (t *ArrayType) Kind() TypeKind  { return KindArray }
func (t *ArrayType) Name() string    { return t.name }
func (t *ArrayType) debugID() string { return t.id }

func (t *ArrayType) Alignment() int    { return t.elem.Alignment() }
func (t *ArrayType) AlignmentMax() int { return t.elem.AlignmentMax() }

func (t *ArrayType) Finalize() error {
	if t.finalized {
		return nil
	}
	if t.count < 0 {
		return ErrInvalidArrayIndex
	}
	if err := t.elem.Finalize(); err != nil {
		return err
	}
	t.finalized = true
	return nil
}

func (t *ArrayType) Clone() Type {
	clone := &ArrayType{name: t.name, id: nextDebugID("array"), count: t.count, finalized: t.finalized}
	clone.elem = t.elem.Clone()
	return clone
}

// resolveTagComponent consumes a leading "[n]" subscript (the field name
// itself was already consumed by the containing struct/variant). An index
// outside [0, count) is not resolved.
func (t *ArrayType) resolveTagComponent(remainder string) (tagComponent, string, bool) {
	n, rest, ok := splitIndexComponent(remainder)
	if !ok || n < 0 || n >= t.count {
		return tagComponent{}, remainder, false
	}
	return tagComponent{name: "[]", next: t.elem, index: n, hasIndex: true}, rest, true
}

func (t *ArrayType) instantiate(m *Meta, parent varRef, name string, contextRoot bool) (varRef, error) {
	idx := m.newVar(parent, name, contextRoot, t)
	v := m.vars[idx]
	impl := &arrayVarImpl{typ: t}
	v.impl = impl

	elemIdx, err := t.elem.instantiate(m, idx, "[]", true)
	if err != nil {
		return noVar, err
	}
	impl.elemIdx = elemIdx
	elemVar := m.vars[elemIdx]
	impl.elemConstSize = elemVar.layout.constSize
	impl.elemConstAlign = elemVar.layout.constAlign

	if elemVar.layout.constAlign != unknownOffset && elemVar.layout.constSize != unknownOffset {
		stride := alignUp(elemVar.layout.constSize, elemVar.layout.constAlign)
		m.setSize(v, elemVar.layout.constAlign, t.count*stride)
	} else {
		align := t.elem.Alignment()
		count := t.count
		m.setDynamicSize(v, func(mm *Meta, self *Var, ctx *Context) int { return align }, func(mm *Meta, self *Var, ctx *Context) int {
			return variableStrideSize(mm, self, ctx, count)
		})
	}
	if contextRoot {
		m.placeAbsolute(v)
	}
	return idx, nil
}

// variableStrideSize computes an array/sequence variable's size (local bits
// from its own start) by walking all n elements via ElementContext, for the
// case where elements do not have a compile-time constant size/align
// (spec.md §4.4 "variable-stride").
func variableStrideSize(m *Meta, v *Var, ctx *Context, n int) int {
	if n == unknownOffset {
		return unknownOffset
	}
	if n <= 0 {
		return 0
	}
	ec, err := m.CreateElementContext(v, ctx, n-1)
	if err != nil || ec.Ended() {
		return unknownOffset
	}
	elemVar := m.at(ec.Context.varIdx)
	end := m.EndOffset(elemVar, ec.Context)
	if end == unknownOffset {
		return unknownOffset
	}
	start := m.StartOffset(v, ctx)
	if start == unknownOffset {
		return unknownOffset
	}
	return int(ec.Context.absBase-ctx.absBase) + end - start
}
