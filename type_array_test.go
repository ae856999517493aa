// Copyright 2024 ctfmeta authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ctf

import "testing"

func TestArrayFinalizeRejectsNegativeCount(t *testing.T) {
	elem := NewIntegerType("e")
	elem.SetSize(8)
	elem.SetByteOrder(BigEndian)

	arr := NewArrayType("arr", elem, -1)
	if err := arr.Finalize(); err != ErrInvalidArrayIndex {
		t.Errorf("Finalize(count -1) = %v, want ErrInvalidArrayIndex", err)
	}
}

func TestArrayOfFixedSizeElementsConstantStride(t *testing.T) {
	elem := NewIntegerType("e")
	elem.SetSize(16)
	elem.SetByteOrder(BigEndian)
	mustFinalize(t, elem)

	arr := NewArrayType("arr", elem, 4)
	mustFinalize(t, arr)

	m := buildTopMeta(t, arr)
	header, err := m.FindVar("trace.packet.header")
	if err != nil {
		t.Fatalf("FindVar: %v", err)
	}

	src := NewBufferByteSource([]byte{0, 1, 0, 2, 0, 3, 0, 4})
	ctx, err := m.CreateTopContext(header, src, nil, 0)
	if err != nil {
		t.Fatalf("CreateTopContext: %v", err)
	}

	if n := m.NumElements(header, ctx); n != 4 {
		t.Fatalf("NumElements = %d, want 4", n)
	}
	if size := m.VarSize(header, ctx); size != 64 {
		t.Errorf("array size = %d bits, want 64 (4 elements x 16 bits)", size)
	}

	for i, want := range []uint64{1, 2, 3, 4} {
		ec, err := m.CreateElementContext(header, ctx, i)
		if err != nil {
			t.Fatalf("CreateElementContext(%d): %v", i, err)
		}
		val, insufficient, err := m.GetUint64(ec.Var(), ec.Context)
		if err != nil || insufficient {
			t.Fatalf("GetUint64(element %d) = (%d, %v, %v)", i, val, insufficient, err)
		}
		if val != want {
			t.Errorf("element %d = %d, want %d", i, val, want)
		}
	}
}

func TestArrayElementContextPastEndIsEnded(t *testing.T) {
	elem := NewIntegerType("e")
	elem.SetSize(8)
	elem.SetByteOrder(BigEndian)
	mustFinalize(t, elem)

	arr := NewArrayType("arr", elem, 2)
	mustFinalize(t, arr)

	m := buildTopMeta(t, arr)
	header, err := m.FindVar("trace.packet.header")
	if err != nil {
		t.Fatalf("FindVar: %v", err)
	}
	src := NewBufferByteSource([]byte{1, 2})
	ctx, err := m.CreateTopContext(header, src, nil, 0)
	if err != nil {
		t.Fatalf("CreateTopContext: %v", err)
	}

	ec, err := m.CreateElementContext(header, ctx, 5)
	if err != nil {
		t.Fatalf("CreateElementContext(5): %v", err)
	}
	if !ec.Ended() {
		t.Errorf("CreateElementContext(5) on a 2-element array: Ended() = false, want true")
	}
}
