// Copyright 2024 ctfmeta authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ctf

import (
	"strings"

	"github.com/ctfreader/ctfmeta/log"
)

// Meta is the immutable, instantiated form of a metadata description: a
// frozen type graph plus the variable tree built from it (spec.md §3). It
// is also reused, before Builder.Instantiate seals it, as the scratch
// arena the instantiation walk appends into (REDESIGN FLAGS #2/#3) - see
// builder.go.
type Meta struct {
	vars   []*Var
	sealed bool

	rootType             *RootType
	rootIdx              VarIndex
	tracePacketHeaderIdx VarIndex

	rootScope *Scope
	topScopes map[DynamicScopeName]*Scope

	logger *log.Helper
}

// rootVar returns the synthetic tree root variable.
func (m *Meta) rootVar() *Var { return m.vars[m.rootIdx] }

// FindVar resolves a dotted variable path, starting from one of the six
// dynamic-scope slot names (e.g. "event.fields.payload.length"), to its
// variable. It does not need a Context: it only walks the static tree
// shape, never reads bytes.
func (m *Meta) FindVar(path string) (*Var, error) {
	root := m.rootVar()
	ri := root.impl.(*rootVarImpl)

	var cur *Var
	var rest string
	found := false
	for slot, key := range slotKeys {
		if path == key || strings.HasPrefix(path, key+".") {
			idx := ri.slotIdxs[slot]
			if idx == noVar {
				return nil, ErrVarNotFound
			}
			cur = m.at(idx)
			if len(path) > len(key) {
				rest = path[len(key)+1:]
			}
			found = true
			break
		}
	}
	if !found {
		return nil, ErrVarNotFound
	}

	for rest != "" {
		if _, r2, ok := splitIndexComponent(rest); ok {
			next := m.ChildByName(cur, "[]")
			if next == nil {
				return nil, ErrVarNotFound
			}
			cur, rest = next, r2
			continue
		}
		name, r := splitTagComponent(rest)
		next := m.ChildByName(cur, name)
		if next == nil {
			return nil, ErrVarNotFound
		}
		cur, rest = next, r
	}
	return cur, nil
}

// FindParam looks up a top-scope parameter by "<scope>.<name>" path (e.g.
// "trace.byte_order").
func (m *Meta) FindParam(path string) (string, error) {
	name, rest := splitTagComponent(path)
	ts, ok := m.topScopes[DynamicScopeName(name)]
	if !ok || rest == "" {
		return "", ErrParamNotFound
	}
	v, ok2 := ts.Param(rest)
	if !ok2 {
		return "", ErrParamNotFound
	}
	return v, nil
}

// The VarXxx family are the public, Context-translating counterparts of
// the internal StartOffset/EndOffset/Alignment/Size/IsExist (spec.md §4.4/
// §4.5): callers pass whatever Context they have at hand (even one nested
// several contexts below v's own), and these resolve the correct one via
// contextForVar before dispatching.

// VarExists reports whether v exists in ctx (1, 0 or unknownOffset).
func (m *Meta) VarExists(v *Var, ctx *Context) int {
	local := m.contextForVar(ctx, v)
	if local == nil {
		return unknownOffset
	}
	return m.IsExist(v, local)
}

// VarAlignment returns v's alignment in bits within ctx.
func (m *Meta) VarAlignment(v *Var, ctx *Context) int {
	local := m.contextForVar(ctx, v)
	if local == nil {
		return unknownOffset
	}
	return m.Alignment(v, local)
}

// VarStart returns v's start offset in bits within ctx.
func (m *Meta) VarStart(v *Var, ctx *Context) int {
	local := m.contextForVar(ctx, v)
	if local == nil {
		return unknownOffset
	}
	return m.StartOffset(v, local)
}

// VarEnd returns v's end offset in bits within ctx.
func (m *Meta) VarEnd(v *Var, ctx *Context) int {
	local := m.contextForVar(ctx, v)
	if local == nil {
		return unknownOffset
	}
	return m.EndOffset(v, local)
}

// VarSize returns v's size in bits within ctx.
func (m *Meta) VarSize(v *Var, ctx *Context) int {
	local := m.contextForVar(ctx, v)
	if local == nil {
		return unknownOffset
	}
	return m.Size(v, local)
}

// GetInt64 reads v (an integer or enum variable) as a signed 64-bit value.
func (m *Meta) GetInt64(v *Var, ctx *Context) (val int64, insufficient bool, err error) {
	local := m.contextForVar(ctx, v)
	if local == nil {
		return 0, true, nil
	}
	return readIntLike(m, v, local)
}

// GetUint64 reads v as an unsigned 64-bit value (no sign extension).
func (m *Meta) GetUint64(v *Var, ctx *Context) (val uint64, insufficient bool, err error) {
	local := m.contextForVar(ctx, v)
	if local == nil {
		return 0, true, nil
	}
	switch impl := v.impl.(type) {
	case *intVarImpl:
		return impl.uvalue(m, v, local)
	case *enumVarImpl:
		return (&intVarImpl{typ: impl.typ.backing}).uvalue(m, v, local)
	default:
		return 0, false, ErrNotInteger
	}
}

// GetInt32 reads v as a signed 32-bit value, failing with ErrOverflow if it
// does not fit.
func (m *Meta) GetInt32(v *Var, ctx *Context) (int32, bool, error) {
	val, insufficient, err := m.GetInt64(v, ctx)
	if err != nil || insufficient {
		return 0, insufficient, err
	}
	if val < -(1<<31) || val > (1<<31-1) {
		return 0, false, ErrOverflow
	}
	return int32(val), false, nil
}

// GetUint32 reads v as an unsigned 32-bit value, failing with ErrOverflow
// if it does not fit.
func (m *Meta) GetUint32(v *Var, ctx *Context) (uint32, bool, error) {
	val, insufficient, err := m.GetUint64(v, ctx)
	if err != nil || insufficient {
		return 0, insufficient, err
	}
	if val > 0xffffffff {
		return 0, false, ErrOverflow
	}
	return uint32(val), false, nil
}

// GetEnumValue reads v (an enum variable) and returns the name of the range
// its value falls into.
func (m *Meta) GetEnumValue(v *Var, ctx *Context) (name string, ok bool, insufficient bool, err error) {
	impl, isEnum := v.impl.(*enumVarImpl)
	if !isEnum {
		return "", false, false, ErrNotInteger
	}
	local := m.contextForVar(ctx, v)
	if local == nil {
		return "", false, true, nil
	}
	val, insuf, err := impl.value(m, v, local)
	if err != nil || insuf {
		return "", false, insuf, err
	}
	nm, found := impl.lookup(val)
	return nm, found, false, nil
}

// HasField reports whether name is a field of v (a struct or variant
// variable).
func (m *Meta) HasField(v *Var, name string) bool {
	switch impl := v.impl.(type) {
	case *structVarImpl:
		return impl.HasField(name)
	case *variantVarImpl:
		_, ok := impl.typ.byName[name]
		return ok
	default:
		return false
	}
}

// GetActiveField returns the currently-active field of v (a variant
// variable), or nil if none is active or ctx is insufficient.
func (m *Meta) GetActiveField(v *Var, ctx *Context) (*Var, error) {
	impl, ok := v.impl.(*variantVarImpl)
	if !ok {
		return nil, ErrTagWrongKind
	}
	local := m.contextForVar(ctx, v)
	if local == nil {
		return nil, nil
	}
	f, found, err := impl.activeField(m, v, local)
	if err != nil || !found {
		return nil, err
	}
	return f, nil
}

// NumElements returns the element count of v (an array or sequence
// variable), or unknownOffset if ctx is insufficient.
func (m *Meta) NumElements(v *Var, ctx *Context) int {
	impl, ok := v.impl.(arrayLike)
	if !ok {
		return unknownOffset
	}
	local := m.contextForVar(ctx, v)
	if local == nil {
		return unknownOffset
	}
	return impl.nElements(m, v, local)
}
