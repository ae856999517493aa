// Copyright 2024 ctfmeta authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ctf

// TagComponent is one step of a compile-time path into the type graph
// (spec.md §3 "Tag"). Index is -1 unless this component also subscripts an
// array/sequence ("[n]").
type TagComponent struct {
	Name  string
	Type  Type
	Index int
}

// Tag is a compile-time path into the type graph, rooted at Base, used by a
// variant's discriminator or a sequence's length field (spec.md §4.3).
type Tag struct {
	Base       Type
	Components []TagComponent
}

// TargetType returns the type the tag ultimately points to.
func (t *Tag) TargetType() Type {
	if len(t.Components) == 0 {
		return t.Base
	}
	return t.Components[len(t.Components)-1].Type
}

// Clone returns an independent copy of t, used when a typedef wraps a
// variant that already carries a tag (spec.md §5 "a Tag may be cloned
// (deep) when embedded into a typedef'd variant").
func (t *Tag) Clone() *Tag {
	clone := &Tag{Base: t.Base, Components: make([]TagComponent, len(t.Components))}
	copy(clone.Components, t.Components)
	return clone
}

// ResolveTag implements Tag::create (spec.md §4.3): it first tries to
// resolve str relative to underConstruction (the type currently being
// built), and only if that fails to find even a first component, retries
// against root (absolute scope). A tag that resolves its first component
// but fails on a later one is rejected outright - partial tags are never
// accepted.
func ResolveTag(underConstruction, root Type, str string) (*Tag, error) {
	if underConstruction != nil {
		tag, err := resolveAgainst(underConstruction, str)
		if err == nil {
			return tag, nil
		}
		if err == ErrTagPartial {
			return nil, err
		}
	}
	return resolveAgainst(root, str)
}

func resolveAgainst(base Type, str string) (*Tag, error) {
	cur := base
	remainder := str
	var comps []TagComponent
	for remainder != "" {
		tc, rest, ok := cur.resolveTagComponent(remainder)
		if !ok {
			if len(comps) == 0 {
				return nil, ErrTagNotResolved
			}
			return nil, ErrTagPartial
		}
		comps = append(comps, TagComponent{Name: tc.name, Type: tc.next, Index: indexOf(tc)})
		cur = tc.next
		remainder = rest
	}
	return &Tag{Base: base, Components: comps}, nil
}

func indexOf(tc tagComponent) int {
	if tc.hasIndex {
		return tc.index
	}
	return -1
}

// VarTagArrayContext records one array/sequence subscript traversed while
// instantiating a Tag against a concrete Var (spec.md §3 "VarTag").
type VarTagArrayContext struct {
	// ElemVarRel is the relative index, from the tag's user variable, of
	// the array-element variable ("[]" child) subscripted.
	ElemVarRel relIndex
	// Index is the concrete element index (>= 0).
	Index int
}

// VarTag is the runtime form of a Tag, specific to the variable that uses
// it (spec.md §3/§4.3).
type VarTag struct {
	// TargetRel is the relative index, from the user variable, of the
	// tag's target variable.
	TargetRel relIndex
	// ArrayContexts lists, in traversal order, the array/sequence
	// subscripts the tag passes through en route to its target.
	ArrayContexts []VarTagArrayContext
}

// instantiateTag implements ctf_var_tag_create (spec.md §4.3): resolve tag
// against the concrete variable user, walking up to find the ancestor
// whose type matches tag.Base, then descending by name (and element index)
// to the target.
func (m *Meta) instantiateTag(tag *Tag, user *Var) (*VarTag, error) {
	var base *Var
	for a := user; a != nil; a = m.Parent(a) {
		if a.typ == tag.Base {
			base = a
			break
		}
	}
	if base == nil {
		return nil, ErrTagNotResolved
	}

	cur := base
	var arrayContexts []VarTagArrayContext
	for _, comp := range tag.Components {
		if comp.Index >= 0 {
			// cur is positioned at the array/sequence variable itself;
			// descend into its floating element variable.
			elemVar := m.ChildByName(cur, "[]")
			if elemVar == nil {
				return nil, ErrTagWrongKind
			}
			arrayContexts = append(arrayContexts, VarTagArrayContext{
				ElemVarRel: relIndex(elemVar.index - user.index),
				Index:      comp.Index,
			})
			cur = elemVar
			continue
		}
		next := m.ChildByName(cur, comp.Name)
		if next == nil {
			return nil, ErrTagNotResolved
		}
		cur = next
	}

	targetRel := relIndex(cur.index - user.index)
	if targetRel > 0 {
		return nil, ErrTagForwardReference
	}
	return &VarTag{TargetRel: targetRel, ArrayContexts: arrayContexts}, nil
}

// getContextTarget implements ctf_var_tag_get_context (spec.md §4.3): walk
// the context chain, create any needed element contexts, and return the
// context mapping the tag's target variable. ok is false when the target
// does not exist in ctx; insufficient is true when ctx lacks enough
// information to tell.
func (m *Meta) getContextTarget(vt *VarTag, user *Var, base *Context) (ctx *Context, ok bool, insufficient bool, err error) {
	userIdx := user.index
	cur := base

	for _, ac := range vt.ArrayContexts {
		arrVarIdx := userIdx + VarIndex(ac.ElemVarRel)
		// ElemVarRel points at the floating element var; its array
		// parent is what must be mapped first.
		elemVar := m.at(arrVarIdx)
		arrVar := m.Parent(elemVar)

		arrCtx := m.contextForVar(cur, arrVar)
		if arrCtx == nil {
			return nil, false, true, nil
		}
		exist := m.IsExist(arrVar, arrCtx)
		if exist == unknownOffset {
			return nil, false, true, nil
		}
		if exist == 0 {
			return nil, false, false, nil
		}

		ec, cerr := m.CreateElementContext(arrVar, arrCtx, ac.Index)
		if cerr != nil {
			return nil, false, false, cerr
		}
		if ec.Ended() {
			return nil, false, false, nil
		}
		cur = ec.Context
	}

	targetIdx := userIdx + VarIndex(vt.TargetRel)
	target := m.at(targetIdx)
	targetCtx := m.contextForVar(cur, target)
	if targetCtx == nil {
		return nil, false, true, nil
	}
	exist := m.IsExist(target, targetCtx)
	if exist == unknownOffset {
		return nil, false, true, nil
	}
	if exist == 0 {
		return nil, false, false, nil
	}
	return targetCtx, true, false, nil
}
