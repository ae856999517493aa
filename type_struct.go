// Copyright 2024 ctfmeta authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ctf

// structField is one declared field of a StructType, in declaration order.
type structField struct {
	name string
	typ  Type
}

// StructType is the struct kind of spec.md §3: an ordered list of named
// fields, each with its own type.
type StructType struct {
	name   string
	id     string
	fields []structField
	byName map[string]int

	align    int
	finalized bool
}

// NewStructType begins construction of a new struct type (struct_begin).
func NewStructType(name string) *StructType {
	return &StructType{name: name, id: nextDebugID("struct"), byName: make(map[string]int)}
}

// AddField appends a field to the struct body (struct_add_field). Field
// names must be unique within the struct.
func (t *StructType) AddField(name string, typ Type) error {
	if _, exists := t.byName[name]; exists {
		return ErrFieldCollision
	}
	t.byName[name] = len(t.fields)
	t.fields = append(t.fields, structField{name: name, typ: typ})
	return nil
}

// HasField reports whether name names a field (struct_has_field, used by
// the metadata builder to validate tag targets during construction).
func (t *StructType) HasField(name string) bool {
	_, ok := t.byName[name]
	return ok
}

// Field returns the i'th field's name and type.
func (t *StructType) Field(i int) (string, Type) {
	f := t.fields[i]
	return f.name, f.typ
}

// NumFields returns the number of declared fields.
func (t *StructType) NumFields() int { return len(t.fields) }

func (t *StructType) Kind() TypeKind  { return KindStruct }
func (t *StructType) Name() string    { return t.name }
func (t *StructType) debugID() string { return t.id }

func (t *StructType) Alignment() int { return t.align }

func (t *StructType) AlignmentMax() int {
	max := t.align
	for _, f := range t.fields {
		if a := f.typ.AlignmentMax(); a > max {
			max = a
		}
	}
	return max
}

// Finalize computes the struct's alignment as the max over its fields'
// alignments (1 for an empty struct), and finalizes every field in turn.
func (t *StructType) Finalize() error {
	if t.finalized {
		return nil
	}
	align := 1
	for _, f := range t.fields {
		if err := f.typ.Finalize(); err != nil {
			return err
		}
		if a := f.typ.Alignment(); a > align {
			align = a
		}
	}
	t.align = align
	t.finalized = true
	return nil
}

func (t *StructType) Clone() Type {
	clone := &StructType{name: t.name, id: nextDebugID("struct"), align: t.align, finalized: t.finalized}
	clone.byName = make(map[string]int, len(t.byName))
	for k, v := range t.byName {
		clone.byName[k] = v
	}
	clone.fields = make([]structField, len(t.fields))
	for i, f := range t.fields {
		clone.fields[i] = structField{name: f.name, typ: f.typ.Clone()}
	}
	return clone
}

func (t *StructType) resolveTagComponent(remainder string) (tagComponent, string, bool) {
	name, rest := splitTagComponent(remainder)
	i, ok := t.byName[name]
	if !ok {
		return tagComponent{}, remainder, false
	}
	return tagComponent{name: name, next: t.fields[i].typ, index: -1}, rest, true
}

func (t *StructType) instantiate(m *Meta, parent varRef, name string, contextRoot bool) (varRef, error) {
	idx := m.newVar(parent, name, contextRoot, t)
	v := m.vars[idx]
	v.impl = &structVarImpl{typ: t}

	fieldIdxs := make([]VarIndex, len(t.fields))
	for i, f := range t.fields {
		fidx, err := f.typ.instantiate(m, idx, f.name, false)
		if err != nil {
			return noVar, err
		}
		fieldIdxs[i] = fidx
	}
	m.placeStructFields(idx, fieldIdxs)

	constSize := 0
	constKnown := true
	var lastVariable VarIndex = noVar
	for _, fidx := range fieldIdxs {
		f := m.vars[fidx]
		if constKnown && f.layout.constSize != unknownOffset && f.layout.constAlign != unknownOffset {
			constSize = alignUp(constSize, f.layout.constAlign) + f.layout.constSize
		} else {
			constKnown = false
			lastVariable = fidx
		}
	}
	if constKnown {
		m.setSize(v, t.align, alignUp(constSize, t.align))
	} else {
		lastIdx := lastVariable
		align := t.align
		m.setDynamicSize(v, nil, func(mm *Meta, self *Var, ctx *Context) int {
			last := mm.at(lastIdx)
			end := mm.EndOffset(last, ctx)
			if end == unknownOffset {
				return unknownOffset
			}
			return alignUp(end, align)
		})
		v.layout.constAlign = t.align
	}
	if contextRoot {
		m.placeAbsolute(v)
	}
	return idx, nil
}
