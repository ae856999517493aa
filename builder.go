// Copyright 2024 ctfmeta authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ctf

// These methods grow a Meta's variable arena while it is still under
// construction (m.sealed == false). Type.instantiate implementations call
// them; Builder.Instantiate (builder_protocol.go) drives the whole walk and
// flips m.sealed once it is done. Keeping the builder and the frozen reader
// on the same *Meta (rather than a separate scratch type) lets tag
// resolution - which needs to walk ancestors via m.Parent/m.ChildByName -
// run during construction, before the tree exists in final form anywhere
// else (REDESIGN FLAGS #2/#3).

// newVar appends a new variable, wiring its parent/sibling links and
// deriving its default context and existence chains. Layout (alignment,
// size, start-offset strategy) is left zero-valued; the caller fills it in
// afterward via setSize/setDynamicSize and one of the placeXxx helpers.
func (m *Meta) newVar(parent varRef, name string, contextRoot bool, typ Type) VarIndex {
	idx := VarIndex(len(m.vars))
	v := &Var{index: idx, typ: typ, name: name}
	if name == "" {
		v.anonymous = true
	}

	var parentVar *Var
	if parent != noVar {
		parentVar = m.vars[parent]
		v.parentRel = relIndex(int(parent) - int(idx))
		if parentVar.firstChildRel == 0 {
			parentVar.firstChildRel = relIndex(int(idx) - int(parent))
		}
		if parentVar.lastChildRel != 0 {
			lastChild := m.vars[int(parent)+int(parentVar.lastChildRel)]
			lastChild.nextSiblingRel = relIndex(int(idx) - int(lastChild.index))
		}
		parentVar.lastChildRel = relIndex(int(idx) - int(parent))
	}

	if contextRoot || parentVar == nil {
		v.contextRel = 0
	} else {
		contextAbs := int(parentVar.index) + int(parentVar.contextRel)
		v.contextRel = relIndex(contextAbs - int(idx))
	}

	switch {
	case parentVar == nil:
		v.existenceRel = 1
	case parentVar.typ != nil && parentVar.typ.Kind() == KindVariant:
		v.existenceRel = 0
	case parentVar.existenceRel == 1:
		v.existenceRel = 1
	default:
		condAbs := int(parentVar.index) + int(parentVar.existenceRel)
		v.existenceRel = relIndex(condAbs - int(idx))
	}

	m.vars = append(m.vars, v)
	return idx
}

// setSize gives v a compile-time constant alignment and size, intrinsic to
// its type (e.g. an integer's declared size/align). This is independent of
// where v is positioned within its container - see the placeXxx helpers.
func (m *Meta) setSize(v *Var, align, size int) {
	v.layout.constAlign = align
	v.layout.constSize = size
}

// setDynamicSize gives v a context-dependent alignment and/or size,
// computed lazily via alignFn/sizeFn. Variant and sequence variables need
// this, as do arrays of variable-size elements and structs with a
// variable-size field (spec.md §4.4).
func (m *Meta) setDynamicSize(v *Var, alignFn, sizeFn func(m *Meta, v *Var, ctx *Context) int) {
	v.layout.constAlign = unknownOffset
	v.layout.constSize = unknownOffset
	v.layout.alignFn = alignFn
	v.layout.sizeFn = sizeFn
}

// placeAbsolute gives v the Absolute strategy (start = bit 0 of its own
// context): used for the synthetic root variable, the six top-level
// dynamic-scope variables, and floating array/sequence elements.
func (m *Meta) placeAbsolute(v *Var) {
	v.layout.strategy = layoutAbsolute
}

// placeInContainer gives v a UseContainer strategy: start at
// align_up(start(container) + preOffset, align(v)). preOffset is a constant
// number of bits already accounted for ahead of v within container (0 for
// the first field of a struct, or for every field of a variant, which never
// stack - spec.md §4.4).
func (m *Meta) placeInContainer(v *Var, container VarIndex, preOffset int) {
	v.layout.strategy = layoutUseContainer
	v.layout.containerIdx = container
	v.layout.delta = preOffset
}

// placeAfterPrev gives v a UsePrev strategy: start at
// align_up(end(prev), align(v)).
func (m *Meta) placeAfterPrev(v *Var, prev VarIndex) {
	v.layout.strategy = layoutUsePrev
	v.layout.prevIdx = prev
}

// placeAtBase gives v a UseBase strategy: start at start(base) + delta,
// delta being a compile-time constant. This is the cheap path, used when a
// run of preceding siblings all have constant size (spec.md §4.4 "found a
// predecessor whose alignment is sufficient and all intermediate sizes are
// constant").
func (m *Meta) placeAtBase(v *Var, base VarIndex, delta int) {
	v.layout.strategy = layoutUseBase
	v.layout.baseIdx = base
	v.layout.delta = delta
}

// placeStructFields lays out a struct's fields in declaration order inside
// container (the struct variable itself), preferring the constant-delta
// UseBase strategy for as long as every preceding field has a compile-time
// constant size, and falling back to the UsePrev chain once a
// variable-size field (a variant, a sequence, or a struct/array containing
// one) breaks that run. Implements spec.md §4.4's strategy-selection rule
// for the common "flat struct" case.
func (m *Meta) placeStructFields(container VarIndex, fields []VarIndex) {
	cumulativeKnown := true
	cumulative := 0
	var prev VarIndex = noVar

	for _, fidx := range fields {
		f := m.vars[fidx]
		if cumulativeKnown {
			align := f.layout.constAlign
			if align == unknownOffset {
				// f's own alignment is context-dependent (a variant):
				// still placeable relative to the container's known
				// constant prefix, but nothing after it can be.
				m.placeInContainer(f, container, cumulative)
				cumulativeKnown = false
			} else {
				start := alignUp(cumulative, align)
				m.placeAtBase(f, container, start)
				if f.layout.constSize != unknownOffset {
					cumulative = start + f.layout.constSize
				} else {
					cumulativeKnown = false
				}
			}
		} else if prev == noVar {
			m.placeInContainer(f, container, 0)
		} else {
			m.placeAfterPrev(f, prev)
		}
		prev = fidx
	}
}

// placeVariantFields positions every field of a variant at the same
// candidate offset within container (the variant variable): only one is
// ever active, so fields never stack (spec.md §4.4).
func (m *Meta) placeVariantFields(container VarIndex, fields []VarIndex) {
	for _, fidx := range fields {
		m.placeInContainer(m.vars[fidx], container, 0)
	}
}
