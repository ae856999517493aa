// Copyright 2024 ctfmeta authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ctf

import "testing"

// buildTopMeta wires t under trace.packet.header and instantiates, the
// shape every test in this file needs to exercise a reader.
func buildTopMeta(t *testing.T, typ Type) *Meta {
	t.Helper()
	b := NewBuilder(nil)
	if err := b.TopScopeBegin(ScopeTrace); err != nil {
		t.Fatalf("TopScopeBegin: %v", err)
	}
	if err := b.AssignType("trace.packet.header", typ); err != nil {
		t.Fatalf("AssignType: %v", err)
	}
	if err := b.TopScopeEnd(); err != nil {
		t.Fatalf("TopScopeEnd: %v", err)
	}
	m, err := b.Instantiate()
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	return m
}

func TestSimpleStructRead(t *testing.T) {
	m, err := NewDemoMeta()
	if err != nil {
		t.Fatalf("NewDemoMeta: %v", err)
	}
	header, err := m.FindVar("trace.packet.header")
	if err != nil {
		t.Fatalf("FindVar(header): %v", err)
	}
	second, err := m.FindVar("trace.packet.header.second")
	if err != nil {
		t.Fatalf("FindVar(second): %v", err)
	}

	src := NewBufferByteSource([]byte{0x00, 0x00, 0x00, 0x6A, 0x00, 0x00, 0x00, 0x6B})
	ctx, err := m.CreateTopContext(header, src, nil, 0)
	if err != nil {
		t.Fatalf("CreateTopContext: %v", err)
	}

	val, insufficient, err := m.GetUint64(second, ctx)
	if err != nil || insufficient {
		t.Fatalf("GetUint64(second) = (%d, %v, %v)", val, insufficient, err)
	}
	if val != 107 {
		t.Errorf("second = %d, want 107", val)
	}
}

// TestBitFieldPacking packs two sub-byte fields into a single byte. A
// sub-byte field is read LSB-first within its containing byte (see
// ctx.bits), so for 0xE5 (0b11100101) flag takes bits [0,3) = 0b101 = 5 and
// code takes bits [3,8) = 0b11100 = 28.
func TestBitFieldPacking(t *testing.T) {
	flagT := NewIntegerType("flag")
	flagT.SetSize(3)
	flagT.SetAlign(1)
	flagT.SetByteOrder(LittleEndian)
	mustFinalize(t, flagT)

	codeT := NewIntegerType("code")
	codeT.SetSize(5)
	codeT.SetAlign(1)
	codeT.SetByteOrder(LittleEndian)
	mustFinalize(t, codeT)

	st := NewStructType("bitfields")
	if err := st.AddField("flag", flagT); err != nil {
		t.Fatalf("AddField(flag): %v", err)
	}
	if err := st.AddField("code", codeT); err != nil {
		t.Fatalf("AddField(code): %v", err)
	}
	mustFinalize(t, st)

	m := buildTopMeta(t, st)
	header, err := m.FindVar("trace.packet.header")
	if err != nil {
		t.Fatalf("FindVar(header): %v", err)
	}
	flagVar := m.ChildByName(header, "flag")
	codeVar := m.ChildByName(header, "code")
	if flagVar == nil || codeVar == nil {
		t.Fatalf("ChildByName(flag/code) = %v/%v, want both non-nil", flagVar, codeVar)
	}

	src := NewBufferByteSource([]byte{0xE5})
	ctx, err := m.CreateTopContext(header, src, nil, 0)
	if err != nil {
		t.Fatalf("CreateTopContext: %v", err)
	}

	flagVal, insufficient, err := m.GetUint64(flagVar, ctx)
	if err != nil || insufficient {
		t.Fatalf("GetUint64(flag) = (%d, %v, %v)", flagVal, insufficient, err)
	}
	if flagVal != 5 {
		t.Errorf("flag = %d, want 5", flagVal)
	}

	codeVal, insufficient, err := m.GetUint64(codeVar, ctx)
	if err != nil || insufficient {
		t.Fatalf("GetUint64(code) = (%d, %v, %v)", codeVal, insufficient, err)
	}
	if codeVal != 28 {
		t.Errorf("code = %d, want 28", codeVal)
	}
}

func TestSequenceSizedByPrecedingInteger(t *testing.T) {
	nT := NewIntegerType("n")
	nT.SetSize(8)
	nT.SetAlign(8)
	nT.SetByteOrder(BigEndian)
	mustFinalize(t, nT)

	valT := NewIntegerType("value")
	valT.SetSize(16)
	valT.SetByteOrder(BigEndian)
	mustFinalize(t, valT)

	st := NewStructType("seq_struct")
	if err := st.AddField("n", nT); err != nil {
		t.Fatalf("AddField(n): %v", err)
	}
	tag, err := ResolveTag(st, NewRootType(), "n")
	if err != nil {
		t.Fatalf("ResolveTag(n): %v", err)
	}
	seqT := NewSequenceType("values", valT, tag)
	if err := st.AddField("values", seqT); err != nil {
		t.Fatalf("AddField(values): %v", err)
	}
	mustFinalize(t, st)

	m := buildTopMeta(t, st)
	header, err := m.FindVar("trace.packet.header")
	if err != nil {
		t.Fatalf("FindVar(header): %v", err)
	}
	values := m.ChildByName(header, "values")
	if values == nil {
		t.Fatalf("ChildByName(values) = nil")
	}

	src := NewBufferByteSource([]byte{0x03, 0x00, 0x01, 0x00, 0x02, 0x00, 0x03})
	ctx, err := m.CreateTopContext(header, src, nil, 0)
	if err != nil {
		t.Fatalf("CreateTopContext: %v", err)
	}

	n := m.NumElements(values, ctx)
	if n != 3 {
		t.Fatalf("NumElements = %d, want 3", n)
	}

	ec, err := m.CreateElementContext(values, ctx, 2)
	if err != nil {
		t.Fatalf("CreateElementContext(2): %v", err)
	}
	if ec.Ended() {
		t.Fatalf("element 2 reported Ended, want a real element")
	}
	val, insufficient, err := m.GetUint64(ec.Var(), ec.Context)
	if err != nil || insufficient {
		t.Fatalf("GetUint64(element 2) = (%d, %v, %v)", val, insufficient, err)
	}
	if val != 3 {
		t.Errorf("element 2 = %d, want 3", val)
	}
}

func buildVariantViaEnumTagMeta(t *testing.T) *Meta {
	t.Helper()
	backing := NewIntegerType("kind_backing")
	backing.SetSize(8)
	backing.SetAlign(8)
	backing.SetByteOrder(BigEndian)
	mustFinalize(t, backing)

	kindEnum := NewEnumType("kind", backing)
	kindEnum.AddValue("A", 1, 1)
	kindEnum.AddValue("B", 2, 2)
	mustFinalize(t, kindEnum)

	aT := NewIntegerType("a")
	aT.SetSize(8)
	aT.SetAlign(8)
	aT.SetByteOrder(LittleEndian)
	mustFinalize(t, aT)

	bT := NewIntegerType("b")
	bT.SetSize(16)
	bT.SetByteOrder(LittleEndian)
	mustFinalize(t, bT)

	st := NewStructType("variant_struct")
	if err := st.AddField("k", kindEnum); err != nil {
		t.Fatalf("AddField(k): %v", err)
	}
	tag, err := ResolveTag(st, NewRootType(), "k")
	if err != nil {
		t.Fatalf("ResolveTag(k): %v", err)
	}
	vt := NewVariantType("u")
	if err := vt.AddField("A", aT); err != nil {
		t.Fatalf("AddField(A): %v", err)
	}
	if err := vt.AddField("B", bT); err != nil {
		t.Fatalf("AddField(B): %v", err)
	}
	vt.SetTag(tag)
	mustFinalize(t, vt)
	if err := st.AddField("u", vt); err != nil {
		t.Fatalf("AddField(u): %v", err)
	}
	mustFinalize(t, st)

	return buildTopMeta(t, st)
}

func TestVariantViaEnumTag(t *testing.T) {
	m := buildVariantViaEnumTagMeta(t)
	header, err := m.FindVar("trace.packet.header")
	if err != nil {
		t.Fatalf("FindVar(header): %v", err)
	}
	uVar := m.ChildByName(header, "u")
	if uVar == nil {
		t.Fatalf("ChildByName(u) = nil")
	}

	t.Run("B active", func(t *testing.T) {
		src := NewBufferByteSource([]byte{0x02, 0x0A, 0x00})
		ctx, err := m.CreateTopContext(header, src, nil, 0)
		if err != nil {
			t.Fatalf("CreateTopContext: %v", err)
		}
		active, err := m.GetActiveField(uVar, ctx)
		if err != nil {
			t.Fatalf("GetActiveField: %v", err)
		}
		if active == nil || active.Name() != "b" {
			t.Fatalf("active field = %v, want b", active)
		}
		val, insufficient, err := m.GetUint64(active, ctx)
		if err != nil || insufficient {
			t.Fatalf("GetUint64(b) = (%d, %v, %v)", val, insufficient, err)
		}
		if val != 10 {
			t.Errorf("b = %d, want 10", val)
		}
	})

	t.Run("A active", func(t *testing.T) {
		src := NewBufferByteSource([]byte{0x01, 0x05})
		ctx, err := m.CreateTopContext(header, src, nil, 0)
		if err != nil {
			t.Fatalf("CreateTopContext: %v", err)
		}
		active, err := m.GetActiveField(uVar, ctx)
		if err != nil {
			t.Fatalf("GetActiveField: %v", err)
		}
		if active == nil || active.Name() != "A" {
			t.Fatalf("active field = %v, want A", active)
		}
		val, insufficient, err := m.GetUint64(active, ctx)
		if err != nil || insufficient {
			t.Fatalf("GetUint64(a) = (%d, %v, %v)", val, insufficient, err)
		}
		if val != 5 {
			t.Errorf("a = %d, want 5", val)
		}
	})

	t.Run("no active field", func(t *testing.T) {
		src := NewBufferByteSource([]byte{0x03, 0x00})
		ctx, err := m.CreateTopContext(header, src, nil, 0)
		if err != nil {
			t.Fatalf("CreateTopContext: %v", err)
		}
		active, err := m.GetActiveField(uVar, ctx)
		if err != nil {
			t.Fatalf("GetActiveField: %v", err)
		}
		if active != nil {
			t.Errorf("active field = %v, want nil", active)
		}
	})
}

func TestArrayOfVariableSizedElements(t *testing.T) {
	countT := NewIntegerType("count")
	countT.SetSize(8)
	countT.SetAlign(8)
	countT.SetByteOrder(BigEndian)
	mustFinalize(t, countT)

	valT := NewIntegerType("v")
	valT.SetSize(8)
	valT.SetAlign(8)
	valT.SetByteOrder(BigEndian)
	mustFinalize(t, valT)

	elemStruct := NewStructType("elem")
	if err := elemStruct.AddField("count", countT); err != nil {
		t.Fatalf("AddField(count): %v", err)
	}
	tag, err := ResolveTag(elemStruct, NewRootType(), "count")
	if err != nil {
		t.Fatalf("ResolveTag(count): %v", err)
	}
	seqT := NewSequenceType("vals", valT, tag)
	if err := elemStruct.AddField("vals", seqT); err != nil {
		t.Fatalf("AddField(vals): %v", err)
	}
	mustFinalize(t, elemStruct)

	arrT := NewArrayType("elems", elemStruct, 2)

	m := buildTopMeta(t, arrT)
	arrVar, err := m.FindVar("trace.packet.header")
	if err != nil {
		t.Fatalf("FindVar(header): %v", err)
	}
	elemTemplate := m.ChildByName(arrVar, "[]")
	if elemTemplate == nil {
		t.Fatalf("ChildByName([]) = nil")
	}
	countVar := m.ChildByName(elemTemplate, "count")
	valsVar := m.ChildByName(elemTemplate, "vals")
	if countVar == nil || valsVar == nil {
		t.Fatalf("ChildByName(count/vals) = %v/%v, want both non-nil", countVar, valsVar)
	}

	// element 0: count=2, vals=[0xAA, 0xBB] (3 bytes)
	// element 1: count=1, vals=[0xCC]       (2 bytes)
	src := NewBufferByteSource([]byte{0x02, 0xAA, 0xBB, 0x01, 0xCC})
	ctx, err := m.CreateTopContext(arrVar, src, nil, 0)
	if err != nil {
		t.Fatalf("CreateTopContext: %v", err)
	}

	if n := m.NumElements(arrVar, ctx); n != 2 {
		t.Fatalf("NumElements(array) = %d, want 2", n)
	}

	elem0, err := m.CreateElementContext(arrVar, ctx, 0)
	if err != nil {
		t.Fatalf("CreateElementContext(0): %v", err)
	}
	elem1, err := m.CreateElementContext(arrVar, ctx, 1)
	if err != nil {
		t.Fatalf("CreateElementContext(1): %v", err)
	}

	valElem, err := m.CreateElementContext(valsVar, elem0.Context, 1)
	if err != nil {
		t.Fatalf("CreateElementContext(vals[1] of elem0): %v", err)
	}
	val, insufficient, err := m.GetUint64(valElem.Var(), valElem.Context)
	if err != nil || insufficient {
		t.Fatalf("GetUint64(elem0.vals[1]) = (%d, %v, %v)", val, insufficient, err)
	}
	if val != 0xBB {
		t.Errorf("elem0.vals[1] = 0x%x, want 0xBB", val)
	}

	countVal, insufficient, err := m.GetUint64(countVar, elem1.Context)
	if err != nil || insufficient {
		t.Fatalf("GetUint64(elem1.count) = (%d, %v, %v)", countVal, insufficient, err)
	}
	if countVal != 1 {
		t.Errorf("elem1.count = %d, want 1", countVal)
	}

	valElem1, err := m.CreateElementContext(valsVar, elem1.Context, 0)
	if err != nil {
		t.Fatalf("CreateElementContext(vals[0] of elem1): %v", err)
	}
	val1, insufficient, err := m.GetUint64(valElem1.Var(), valElem1.Context)
	if err != nil || insufficient {
		t.Fatalf("GetUint64(elem1.vals[0]) = (%d, %v, %v)", val1, insufficient, err)
	}
	if val1 != 0xCC {
		t.Errorf("elem1.vals[0] = 0x%x, want 0xCC", val1)
	}

	if size := m.VarSize(arrVar, ctx); size != 40 {
		t.Errorf("array size = %d bits, want 40 (24 + 16)", size)
	}
}

// TestArrayOfVariableSizedElementsAccumulatesStride exercises a third
// element and a struct that places the array after a leading field, so a
// per-element offset that forgot to accumulate the previous elements' sizes
// (or the array's own start) would read the wrong bytes.
func TestArrayOfVariableSizedElementsAccumulatesStride(t *testing.T) {
	countT := NewIntegerType("count")
	countT.SetSize(8)
	countT.SetAlign(8)
	countT.SetByteOrder(BigEndian)
	mustFinalize(t, countT)

	valT := NewIntegerType("v")
	valT.SetSize(8)
	valT.SetAlign(8)
	valT.SetByteOrder(BigEndian)
	mustFinalize(t, valT)

	elemStruct := NewStructType("elem")
	if err := elemStruct.AddField("count", countT); err != nil {
		t.Fatalf("AddField(count): %v", err)
	}
	tag, err := ResolveTag(elemStruct, NewRootType(), "count")
	if err != nil {
		t.Fatalf("ResolveTag(count): %v", err)
	}
	seqT := NewSequenceType("vals", valT, tag)
	if err := elemStruct.AddField("vals", seqT); err != nil {
		t.Fatalf("AddField(vals): %v", err)
	}
	mustFinalize(t, elemStruct)

	arrT := NewArrayType("elems", elemStruct, 3)
	mustFinalize(t, arrT)

	lead := NewIntegerType("lead")
	lead.SetSize(8)
	lead.SetAlign(8)
	lead.SetByteOrder(BigEndian)
	mustFinalize(t, lead)

	outer := NewStructType("outer")
	if err := outer.AddField("lead", lead); err != nil {
		t.Fatalf("AddField(lead): %v", err)
	}
	if err := outer.AddField("elems", arrT); err != nil {
		t.Fatalf("AddField(elems): %v", err)
	}
	mustFinalize(t, outer)

	m := buildTopMeta(t, outer)
	header, err := m.FindVar("trace.packet.header")
	if err != nil {
		t.Fatalf("FindVar(header): %v", err)
	}
	arrVar := m.ChildByName(header, "elems")
	elemTemplate := m.ChildByName(arrVar, "[]")
	countVar := m.ChildByName(elemTemplate, "count")
	valsVar := m.ChildByName(elemTemplate, "vals")

	// lead byte, then element 0: count=1,vals=[0x10]; element 1: count=2,
	// vals=[0x20,0x21]; element 2: count=1,vals=[0x30].
	src := NewBufferByteSource([]byte{0xFF, 0x01, 0x10, 0x02, 0x20, 0x21, 0x01, 0x30})
	ctx, err := m.CreateTopContext(header, src, nil, 0)
	if err != nil {
		t.Fatalf("CreateTopContext: %v", err)
	}

	elem2, err := m.CreateElementContext(arrVar, ctx, 2)
	if err != nil {
		t.Fatalf("CreateElementContext(2): %v", err)
	}
	countVal, insufficient, err := m.GetUint64(countVar, elem2.Context)
	if err != nil || insufficient {
		t.Fatalf("GetUint64(elem2.count) = (%d, %v, %v)", countVal, insufficient, err)
	}
	if countVal != 1 {
		t.Errorf("elem2.count = %d, want 1", countVal)
	}

	valElem2, err := m.CreateElementContext(valsVar, elem2.Context, 0)
	if err != nil {
		t.Fatalf("CreateElementContext(vals[0] of elem2): %v", err)
	}
	val2, insufficient, err := m.GetUint64(valElem2.Var(), valElem2.Context)
	if err != nil || insufficient {
		t.Fatalf("GetUint64(elem2.vals[0]) = (%d, %v, %v)", val2, insufficient, err)
	}
	if val2 != 0x30 {
		t.Errorf("elem2.vals[0] = 0x%x, want 0x30", val2)
	}
}
