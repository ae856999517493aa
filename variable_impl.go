// Copyright 2024 ctfmeta authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ctf

// intVarImpl is the VarImpl for an integer variable (spec.md §4.4).
type intVarImpl struct {
	typ *IntegerType
}

func (i *intVarImpl) Kind() TypeKind { return KindInteger }

// rawBits reads v's raw bit pattern, byte-order-corrected but not yet
// sign-extended, returning insufficient=true when ctx cannot supply enough
// bytes to tell (spec.md §7 InsufficientContext). A sub-byte field is read
// LSB-first within its containing byte by ctx.bits; a byte-aligned,
// multi-byte field is assembled MSB-first across the stream and then
// byte-swapped here when declared little-endian.
func (i *intVarImpl) rawBits(m *Meta, v *Var, ctx *Context) (raw uint64, insufficient bool, err error) {
	if i.typ.size > 64 {
		return 0, false, ErrOverflow
	}
	local := m.StartOffset(v, ctx)
	if local == unknownOffset {
		return 0, true, nil
	}
	raw, err = ctx.bits(local, i.typ.size)
	if err != nil {
		return 0, false, err
	}
	if i.typ.size > 8 && i.typ.size%8 == 0 && i.typ.byteOrder == LittleEndian {
		raw = swapByteOrder(raw, i.typ.size/8)
	}
	return raw, false, nil
}

func (i *intVarImpl) value(m *Meta, v *Var, ctx *Context) (int64, bool, error) {
	raw, insufficient, err := i.rawBits(m, v, ctx)
	if err != nil || insufficient {
		return 0, insufficient, err
	}
	if !i.typ.signed {
		return int64(raw), false, nil
	}
	size := uint(i.typ.size)
	if raw&(1<<(size-1)) != 0 {
		raw |= ^uint64(0) << size
	}
	return int64(raw), false, nil
}

func (i *intVarImpl) uvalue(m *Meta, v *Var, ctx *Context) (uint64, bool, error) {
	return i.rawBits(m, v, ctx)
}

// swapByteOrder reverses the byte order of the low nbytes bytes of v,
// applied when an integer's declared byte order is little-endian (ctx.bits
// assembles byte-aligned, multi-byte reads in big-endian stream order).
func swapByteOrder(v uint64, nbytes int) uint64 {
	var out uint64
	for i := 0; i < nbytes; i++ {
		b := (v >> uint(8*i)) & 0xff
		out |= b << uint(8*(nbytes-1-i))
	}
	return out
}

// enumVarImpl is the VarImpl for an enum variable: same physical layout as
// its backing integer, plus range lookup (spec.md §3, SPEC_FULL.md §C.1).
type enumVarImpl struct {
	typ *EnumType
}

func (e *enumVarImpl) Kind() TypeKind { return KindEnum }

func (e *enumVarImpl) value(m *Meta, v *Var, ctx *Context) (int64, bool, error) {
	return (&intVarImpl{typ: e.typ.backing}).value(m, v, ctx)
}

func (e *enumVarImpl) lookup(val int64) (string, bool) { return e.typ.lookup(val) }

// readIntLike dispatches to whichever of intVarImpl/enumVarImpl v.impl
// holds, the two kinds a Tag target (variant discriminator, sequence
// length) is allowed to have (spec.md §4.3).
func readIntLike(m *Meta, v *Var, ctx *Context) (int64, bool, error) {
	switch impl := v.impl.(type) {
	case *intVarImpl:
		return impl.value(m, v, ctx)
	case *enumVarImpl:
		return impl.value(m, v, ctx)
	default:
		return 0, false, ErrNotInteger
	}
}

// structVarImpl is the VarImpl for a struct variable.
type structVarImpl struct {
	typ *StructType
}

func (s *structVarImpl) Kind() TypeKind { return KindStruct }

// HasField reports whether name is a declared field of s's type
// (struct_has_field).
func (s *structVarImpl) HasField(name string) bool { return s.typ.HasField(name) }

// variantVarImpl is the VarImpl for a variant variable: the only
// layout-floating construct (spec.md §4.4).
type variantVarImpl struct {
	typ       *VariantType
	fieldIdxs []VarIndex
	varTag    *VarTag
}

func (vi *variantVarImpl) Kind() TypeKind { return KindVariant }

// resolveActive determines the variant's currently-active field.
// state is 1 (determined, name valid), 0 (determined, no field active) or
// -1 (ctx has insufficient information to tell).
func (vi *variantVarImpl) resolveActive(m *Meta, v *Var, ctx *Context) (targetCtx *Context, name string, state int, err error) {
	tctx, ok, insufficient, gerr := m.getContextTarget(vi.varTag, v, ctx)
	if gerr != nil {
		return nil, "", -1, gerr
	}
	if insufficient {
		return nil, "", -1, nil
	}
	if !ok {
		return nil, "", 0, nil
	}
	targetIdx := v.index + VarIndex(vi.varTag.TargetRel)
	target := m.at(targetIdx)
	ev, ok2 := target.impl.(*enumVarImpl)
	if !ok2 {
		return nil, "", 0, ErrTagWrongKind
	}
	val, insufficient2, rerr := ev.value(m, target, tctx)
	if rerr != nil {
		return nil, "", -1, rerr
	}
	if insufficient2 {
		return nil, "", -1, nil
	}
	nm, found := ev.lookup(val)
	if !found {
		return nil, "", 0, nil
	}
	return tctx, nm, 1, nil
}

// isChildExist implements Meta.IsChildExist's variant-specific override
// (spec.md §4.4 existence chain).
func (vi *variantVarImpl) isChildExist(m *Meta, v *Var, child *Var, ctx *Context) int {
	_, name, state, err := vi.resolveActive(m, v, ctx)
	if err != nil || state < 0 {
		return unknownOffset
	}
	if state == 0 {
		return 0
	}
	if child.name == name {
		return 1
	}
	return 0
}

// activeField returns the currently-active field's variable (ok=true), or
// ok=false if none is active or ctx is insufficient (distinguished only by
// err/state internally - callers needing to tell the two apart should use
// resolveActive directly).
func (vi *variantVarImpl) activeField(m *Meta, v *Var, ctx *Context) (*Var, bool, error) {
	_, name, state, err := vi.resolveActive(m, v, ctx)
	if err != nil {
		return nil, false, err
	}
	if state != 1 {
		return nil, false, nil
	}
	for _, fidx := range vi.fieldIdxs {
		f := m.at(fidx)
		if f.name == name {
			return f, true, nil
		}
	}
	return nil, false, nil
}

// arrayVarImpl is the VarImpl for a fixed-count array variable.
type arrayVarImpl struct {
	typ                         *ArrayType
	elemIdx                     VarIndex
	elemConstSize, elemConstAlign int
}

func (a *arrayVarImpl) Kind() TypeKind       { return KindArray }
func (a *arrayVarImpl) elemVarIndex() VarIndex { return a.elemIdx }
func (a *arrayVarImpl) nElements(m *Meta, v *Var, ctx *Context) int { return a.typ.count }
func (a *arrayVarImpl) constantStride() (size, align int, ok bool) {
	if a.elemConstSize == unknownOffset || a.elemConstAlign == unknownOffset {
		return 0, 0, false
	}
	return a.elemConstSize, a.elemConstAlign, true
}

// seqVarImpl is the VarImpl for a runtime-length sequence variable.
type seqVarImpl struct {
	typ                         *SequenceType
	elemIdx                     VarIndex
	lenTag                      *VarTag
	elemConstSize, elemConstAlign int
}

func (s *seqVarImpl) Kind() TypeKind       { return KindSequence }
func (s *seqVarImpl) elemVarIndex() VarIndex { return s.elemIdx }

func (s *seqVarImpl) nElements(m *Meta, v *Var, ctx *Context) int {
	tctx, ok, insufficient, err := m.getContextTarget(s.lenTag, v, ctx)
	if err != nil || insufficient {
		return unknownOffset
	}
	if !ok {
		return unknownOffset
	}
	targetIdx := v.index + VarIndex(s.lenTag.TargetRel)
	target := m.at(targetIdx)
	val, insufficient2, rerr := readIntLike(m, target, tctx)
	if rerr != nil || insufficient2 {
		return unknownOffset
	}
	if val < 0 {
		return 0
	}
	return int(val)
}

func (s *seqVarImpl) constantStride() (size, align int, ok bool) {
	if s.elemConstSize == unknownOffset || s.elemConstAlign == unknownOffset {
		return 0, 0, false
	}
	return s.elemConstSize, s.elemConstAlign, true
}

// rootVarImpl is the VarImpl for the synthetic root variable.
type rootVarImpl struct {
	typ      *RootType
	slotIdxs [numDynamicSlots]VarIndex
}

func (r *rootVarImpl) Kind() TypeKind { return KindRoot }
