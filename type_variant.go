// Copyright 2024 ctfmeta authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ctf

// VariantType is the variant kind of spec.md §3: exactly one of its named
// fields is active at a time, selected at read time by a Tag (the
// discriminator) that must resolve to an enum variable. It is the only
// layout-floating construct (§4.4): its alignment and size depend on which
// field is active.
type VariantType struct {
	name   string
	id     string
	fields []structField
	byName map[string]int
	tag    *Tag

	finalized bool
}

// NewVariantType begins construction of a new variant type (variant_begin).
func NewVariantType(name string) *VariantType {
	return &VariantType{name: name, id: nextDebugID("variant"), byName: make(map[string]int)}
}

// AddField appends a field to the variant body (variant_add_field).
func (t *VariantType) AddField(name string, typ Type) error {
	if _, exists := t.byName[name]; exists {
		return ErrFieldCollision
	}
	t.byName[name] = len(t.fields)
	t.fields = append(t.fields, structField{name: name, typ: typ})
	return nil
}

// SetTag records the (already resolved) discriminator tag (variant_set_tag).
func (t *VariantType) SetTag(tag *Tag) { t.tag = tag }

func (t *VariantType) Kind() TypeKind  { return KindVariant }
func (t *VariantType) Name() string    { return t.name }
func (t *VariantType) debugID() string { return t.id }

// Alignment is the max alignment over all fields - only an upper bound, and
// therefore used for type-graph queries, never for variable layout (a
// variant variable's real alignment depends on its active field; see
// variantVarImpl).
func (t *VariantType) Alignment() int {
	max := 1
	for _, f := range t.fields {
		if a := f.typ.Alignment(); a > max {
			max = a
		}
	}
	return max
}

func (t *VariantType) AlignmentMax() int {
	max := t.Alignment()
	for _, f := range t.fields {
		if a := f.typ.AlignmentMax(); a > max {
			max = a
		}
	}
	return max
}

// Finalize finalizes every field and requires a tag to have been set
// (spec.md §3: an untagged variant is never usable).
func (t *VariantType) Finalize() error {
	if t.finalized {
		return nil
	}
	if t.tag == nil {
		return ErrUntaggedVariant
	}
	for _, f := range t.fields {
		if err := f.typ.Finalize(); err != nil {
			return err
		}
	}
	t.finalized = true
	return nil
}

func (t *VariantType) Clone() Type {
	clone := &VariantType{name: t.name, id: nextDebugID("variant"), finalized: t.finalized}
	clone.byName = make(map[string]int, len(t.byName))
	for k, v := range t.byName {
		clone.byName[k] = v
	}
	clone.fields = make([]structField, len(t.fields))
	for i, f := range t.fields {
		clone.fields[i] = structField{name: f.name, typ: f.typ.Clone()}
	}
	if t.tag != nil {
		clone.tag = t.tag.Clone()
	}
	return clone
}

func (t *VariantType) resolveTagComponent(remainder string) (tagComponent, string, bool) {
	name, rest := splitTagComponent(remainder)
	i, ok := t.byName[name]
	if !ok {
		return tagComponent{}, remainder, false
	}
	return tagComponent{name: name, next: t.fields[i].typ, index: -1}, rest, true
}

func (t *VariantType) instantiate(m *Meta, parent varRef, name string, contextRoot bool) (varRef, error) {
	idx := m.newVar(parent, name, contextRoot, t)
	v := m.vars[idx]
	impl := &variantVarImpl{typ: t}
	v.impl = impl

	fieldIdxs := make([]VarIndex, len(t.fields))
	for i, f := range t.fields {
		fidx, err := f.typ.instantiate(m, idx, f.name, false)
		if err != nil {
			return noVar, err
		}
		fieldIdxs[i] = fidx
	}
	m.placeVariantFields(idx, fieldIdxs)
	impl.fieldIdxs = fieldIdxs

	vt, err := m.instantiateTag(t.tag, v)
	if err != nil {
		return noVar, err
	}
	impl.varTag = vt

	m.setDynamicSize(v,
		func(mm *Meta, self *Var, ctx *Context) int {
			field, ok, err := impl.activeField(mm, self, ctx)
			if err != nil || !ok || field == nil {
				return unknownOffset
			}
			return mm.Alignment(field, ctx)
		},
		func(mm *Meta, self *Var, ctx *Context) int {
			field, ok, err := impl.activeField(mm, self, ctx)
			if err != nil || !ok || field == nil {
				return unknownOffset
			}
			return mm.Size(field, ctx)
		},
	)
	if contextRoot {
		m.placeAbsolute(v)
	}
	return idx, nil
}
