// Copyright 2024 ctfmeta authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ctf

// VarIndex is a stable handle into a Meta's variable arena. It replaces the
// original implementation's raw pointer arithmetic into a reallocatable C
// array (REDESIGN FLAGS #2): indices never move once assigned, because the
// backing store is an append-only []*Var.
type VarIndex int32

// noVar is the sentinel "no variable" handle.
const noVar VarIndex = -1

// relIndex is a delta relative to a variable's own index. Per spec.md §3 the
// sign and magnitude of this delta are meaningful only in combination with
// the field that carries it (parent/sibling/context/existence each has its
// own "0 means absent" convention, documented per field below).
type relIndex int32

// varRef is used during construction, before indices are assigned absolute
// positions; it is just VarIndex again (append-only build means the index
// is known as soon as the node is appended).
type varRef = VarIndex

// layoutStrategy is one of the four offset-computation strategies chosen at
// instantiation time per spec.md §4.4.
type layoutStrategy uint8

const (
	layoutAbsolute layoutStrategy = iota
	layoutUseBase
	layoutUsePrev
	layoutUseContainer
)

// unknownOffset is the sentinel "insufficient context" result for
// alignment/start/size/end queries (spec.md §7, InsufficientContext).
const unknownOffset = -1

// varLayout holds the frozen, per-variable layout strategy selected at
// build time (spec.md §4.4). Exactly one of baseIdx/prevIdx/containerIdx is
// meaningful, selected by strategy.
type varLayout struct {
	strategy layoutStrategy

	baseIdx VarIndex // layoutUseBase: variable whose start offset + delta gives start
	delta   int       // layoutUseBase/layoutUseContainer: constant bit delta from base's/container's start

	prevIdx      VarIndex // layoutUsePrev
	containerIdx VarIndex // layoutUseContainer

	// constAlign/constSize hold the variable's alignment/size when they
	// do not depend on context; unknownOffset otherwise. Variant and
	// sequence variables, and arrays/structs containing them or other
	// variable-size elements, have a non-constant alignment or size.
	constAlign int
	constSize  int

	// sizeFn computes size(ctx) when constSize == unknownOffset.
	sizeFn func(m *Meta, v *Var, ctx *Context) int
	// alignFn computes alignment(ctx) when constAlign == unknownOffset.
	alignFn func(m *Meta, v *Var, ctx *Context) int
}

// VarImpl is the capability surface a kind-specific implementation
// attaches to a Var (REDESIGN FLAGS #1: a capability trait per kind rather
// than an inheritance hierarchy). The common surface is just Kind(); the
// interesting behavior lives on the concrete *XxxVarImpl types and is
// reached via type assertion from the small number of call sites that need
// it (Meta.GetUint64, Meta.GetActiveField, Meta.NumElements, ...).
type VarImpl interface {
	Kind() TypeKind
}

// Var is a node in the variable tree (spec.md §3/§4.4): a concrete,
// prospective position of a value in a byte stream.
type Var struct {
	index VarIndex

	parentRel      relIndex // 0 = no parent (only the synthetic root var)
	firstChildRel  relIndex // 0 = no children
	lastChildRel   relIndex // 0 = no children
	nextSiblingRel relIndex // 0 = no next sibling

	// name is this variable's name relative to its parent. anonymous
	// variables (auxiliary layout-only nodes) have name == "" and
	// anonymous == true; floating array/sequence elements use the
	// literal name "[]".
	name      string
	anonymous bool

	// contextRel points to the variable owning this one's context; 0
	// means "self is a context root" (a top-level dynamic-scope
	// variable, or an array/sequence element).
	contextRel relIndex

	// existenceRel points to the nearest ancestor whose existence is
	// conditional. 1 is the sentinel "always exists" (never followed as
	// an offset); 0 means "self starts an existence context" (a variant
	// field - delegates to the immediate parent's IsChildExist).
	existenceRel relIndex

	typ    Type
	layout varLayout
	impl   VarImpl
}

// Index returns v's stable arena handle.
func (v *Var) Index() VarIndex { return v.index }

// Name returns v's local name ("" for anonymous nodes, "[]" for a floating
// array/sequence element).
func (v *Var) Name() string { return v.name }

// Anonymous reports whether v is invisible to name-based lookup.
func (v *Var) Anonymous() bool { return v.anonymous }

// Type returns the type this variable instantiates.
func (v *Var) Type() Type { return v.typ }

// Meta is forward-declared here for arena navigation; see meta.go.

// Parent returns v's parent variable, or nil for the root variable.
func (m *Meta) Parent(v *Var) *Var {
	if v.parentRel == 0 {
		return nil
	}
	return m.at(v.index + VarIndex(v.parentRel))
}

// FirstChild returns v's first child in tree (not layout) order, or nil.
func (m *Meta) FirstChild(v *Var) *Var {
	if v.firstChildRel == 0 {
		return nil
	}
	return m.at(v.index + VarIndex(v.firstChildRel))
}

// NextSibling returns the next child of v's parent, or nil if v is last.
func (m *Meta) NextSibling(v *Var) *Var {
	if v.nextSiblingRel == 0 {
		return nil
	}
	return m.at(v.index + VarIndex(v.nextSiblingRel))
}

// Children returns all of v's children in tree order.
func (m *Meta) Children(v *Var) []*Var {
	var out []*Var
	for c := m.FirstChild(v); c != nil; c = m.NextSibling(c) {
		out = append(out, c)
	}
	return out
}

// ChildByName returns the child of v named name, or nil.
func (m *Meta) ChildByName(v *Var, name string) *Var {
	for c := m.FirstChild(v); c != nil; c = m.NextSibling(c) {
		if !c.anonymous && c.name == name {
			return c
		}
	}
	return nil
}

// ContextVar returns the variable that owns v's context (itself, if v is a
// context root).
func (m *Meta) ContextVar(v *Var) *Var {
	if v.contextRel == 0 {
		return v
	}
	return m.at(v.index + VarIndex(v.contextRel))
}

// at resolves a VarIndex to its *Var.
func (m *Meta) at(idx VarIndex) *Var {
	if idx < 0 || int(idx) >= len(m.vars) {
		return nil
	}
	return m.vars[idx]
}

// Alignment returns v's alignment in bits for ctx, or unknownOffset (-1) if
// ctx is insufficient to determine it (only possible for a variant whose
// active field is undetermined).
func (m *Meta) Alignment(v *Var, ctx *Context) int {
	if v.layout.constAlign != unknownOffset {
		return v.layout.constAlign
	}
	return v.layout.alignFn(m, v, ctx)
}

// Size returns v's size in bits for ctx, or unknownOffset if undetermined.
func (m *Meta) Size(v *Var, ctx *Context) int {
	if v.layout.constSize != unknownOffset {
		return v.layout.constSize
	}
	return v.layout.sizeFn(m, v, ctx)
}

// alignUp rounds off up to the next multiple of align (a power of two),
// per spec.md §4.4.
func alignUp(off, align int) int {
	if align <= 1 {
		return off
	}
	return (off + align - 1) &^ (align - 1)
}

// StartOffset returns v's start offset in bits within its context, or
// unknownOffset if ctx is insufficient.
func (m *Meta) StartOffset(v *Var, ctx *Context) int {
	switch v.layout.strategy {
	case layoutAbsolute:
		return 0
	case layoutUseBase:
		base := m.at(v.layout.baseIdx)
		start := m.StartOffset(base, ctx)
		if start == unknownOffset {
			return unknownOffset
		}
		return start + v.layout.delta
	case layoutUsePrev:
		prev := m.at(v.layout.prevIdx)
		end := m.EndOffset(prev, ctx)
		if end == unknownOffset {
			return unknownOffset
		}
		align := m.Alignment(v, ctx)
		if align == unknownOffset {
			return unknownOffset
		}
		return alignUp(end, align)
	case layoutUseContainer:
		container := m.at(v.layout.containerIdx)
		start := m.StartOffset(container, ctx)
		if start == unknownOffset {
			return unknownOffset
		}
		align := m.Alignment(v, ctx)
		if align == unknownOffset {
			return unknownOffset
		}
		return alignUp(start+v.layout.delta, align)
	default:
		return unknownOffset
	}
}

// EndOffset returns v's end offset in bits, or unknownOffset.
func (m *Meta) EndOffset(v *Var, ctx *Context) int {
	start := m.StartOffset(v, ctx)
	if start == unknownOffset {
		return unknownOffset
	}
	size := m.Size(v, ctx)
	if size == unknownOffset {
		return unknownOffset
	}
	return start + size
}

// IsChildExist decides whether child exists given that v (its parent)
// exists, per spec.md §4.4. The default (no variant override) is
// unconditional existence.
func (m *Meta) IsChildExist(v *Var, child *Var, ctx *Context) int {
	if vi, ok := v.impl.(*variantVarImpl); ok {
		return vi.isChildExist(m, v, child, ctx)
	}
	return 1
}

// IsExist reports whether v exists in ctx: 1 (exists), 0 (absent), or -1
// (context insufficient). Walks the existence chain as spec.md §4.4
// describes.
func (m *Meta) IsExist(v *Var, ctx *Context) int {
	if v.existenceRel == 1 {
		return 1
	}
	target := v
	if v.existenceRel != 0 {
		target = m.at(v.index + VarIndex(v.existenceRel))
	}
	parent := m.Parent(target)
	if parent == nil {
		return 1
	}
	if pe := m.IsExist(parent, ctx); pe != 1 {
		return pe
	}
	return m.IsChildExist(parent, target, ctx)
}
