// Copyright 2024 ctfmeta authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ctf

import "testing"

func TestSequenceFinalizeRejectsUnresolvedTag(t *testing.T) {
	elem := NewIntegerType("e")
	elem.SetSize(8)
	elem.SetByteOrder(BigEndian)

	seq := NewSequenceType("seq", elem, nil)
	if err := seq.Finalize(); err != ErrTagNotResolved {
		t.Errorf("Finalize(nil lengthTag) = %v, want ErrTagNotResolved", err)
	}
}

func TestSequenceCloneIsIndependent(t *testing.T) {
	elem := NewIntegerType("e")
	elem.SetSize(8)
	elem.SetByteOrder(BigEndian)

	nT := NewIntegerType("n")
	nT.SetSize(8)
	nT.SetByteOrder(BigEndian)

	st := NewStructType("s")
	if err := st.AddField("n", nT); err != nil {
		t.Fatalf("AddField(n): %v", err)
	}
	tag, err := ResolveTag(st, NewRootType(), "n")
	if err != nil {
		t.Fatalf("ResolveTag: %v", err)
	}

	seq := NewSequenceType("values", elem, tag)
	if err := st.AddField("values", seq); err != nil {
		t.Fatalf("AddField(values): %v", err)
	}
	mustFinalize(t, st)

	clone := st.Clone().(*StructType)
	var cloneSeq *SequenceType
	for i := 0; i < clone.NumFields(); i++ {
		name, typ := clone.Field(i)
		if name == "values" {
			cloneSeq = typ.(*SequenceType)
		}
	}
	if cloneSeq == nil {
		t.Fatalf("cloned struct has no values field")
	}
	if cloneSeq == seq {
		t.Errorf("Clone() returned the same sequence instance")
	}
	if cloneSeq.Elem() == seq.Elem() {
		t.Errorf("cloned sequence shares its element type instance with the original")
	}
}

func TestSequenceOfIntegersSizedByPrecedingByte(t *testing.T) {
	nT := NewIntegerType("n")
	nT.SetSize(8)
	nT.SetByteOrder(BigEndian)

	elem := NewIntegerType("e")
	elem.SetSize(8)
	elem.SetByteOrder(BigEndian)

	st := NewStructType("s")
	if err := st.AddField("n", nT); err != nil {
		t.Fatalf("AddField(n): %v", err)
	}
	tag, err := ResolveTag(st, NewRootType(), "n")
	if err != nil {
		t.Fatalf("ResolveTag: %v", err)
	}
	seq := NewSequenceType("values", elem, tag)
	if err := st.AddField("values", seq); err != nil {
		t.Fatalf("AddField(values): %v", err)
	}
	mustFinalize(t, st)

	m := buildTopMeta(t, st)
	header, err := m.FindVar("trace.packet.header")
	if err != nil {
		t.Fatalf("FindVar: %v", err)
	}
	valuesVar := m.ChildByName(header, "values")

	src := NewBufferByteSource([]byte{0x00, 0xAA, 0xBB})
	ctx, err := m.CreateTopContext(header, src, nil, 0)
	if err != nil {
		t.Fatalf("CreateTopContext: %v", err)
	}
	if n := m.NumElements(valuesVar, ctx); n != 0 {
		t.Errorf("NumElements(n=0) = %d, want 0", n)
	}
	if size := m.VarSize(valuesVar, ctx); size != 0 {
		t.Errorf("VarSize(n=0) = %d bits, want 0", size)
	}
}
