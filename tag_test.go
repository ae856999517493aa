// Copyright 2024 ctfmeta authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ctf

import "testing"

func mustFinalize(t *testing.T, typ Type) {
	t.Helper()
	if err := typ.Finalize(); err != nil {
		t.Fatalf("Finalize(%v): %v", typ.Name(), err)
	}
}

func TestResolveTagAgainstUnderConstruction(t *testing.T) {
	length := NewIntegerType("length")
	length.SetSize(8)
	length.SetAlign(8)
	length.SetByteOrder(BigEndian)
	mustFinalize(t, length)

	st := NewStructType("with_length")
	if err := st.AddField("length", length); err != nil {
		t.Fatalf("AddField: %v", err)
	}

	tag, err := ResolveTag(st, NewRootType(), "length")
	if err != nil {
		t.Fatalf("ResolveTag: %v", err)
	}
	if tag.TargetType() != Type(length) {
		t.Errorf("TargetType() = %v, want length", tag.TargetType())
	}
	if len(tag.Components) != 1 || tag.Components[0].Name != "length" {
		t.Errorf("Components = %+v, want one component named length", tag.Components)
	}
}

func TestResolveTagFallsBackToRoot(t *testing.T) {
	header := NewIntegerType("magic")
	header.SetSize(32)
	header.SetAlign(32)
	header.SetByteOrder(BigEndian)
	mustFinalize(t, header)

	root := NewRootType()
	if err := root.AssignType(SlotTracePacketHeader, header); err != nil {
		t.Fatalf("AssignType: %v", err)
	}

	// underConstruction (a plain struct with no "magic" field) fails to
	// resolve even the first component, so ResolveTag retries against root.
	st := NewStructType("unrelated")
	tag, err := ResolveTag(st, root, "trace.packet.header")
	if err != nil {
		t.Fatalf("ResolveTag: %v", err)
	}
	if tag.TargetType() != Type(header) {
		t.Errorf("TargetType() = %v, want header", tag.TargetType())
	}
}

func TestResolveTagPartialIsRejected(t *testing.T) {
	inner := NewIntegerType("a")
	inner.SetSize(8)
	inner.SetAlign(8)
	inner.SetByteOrder(BigEndian)
	mustFinalize(t, inner)

	st := NewStructType("s")
	if err := st.AddField("a", inner); err != nil {
		t.Fatalf("AddField: %v", err)
	}

	// "a.b" resolves "a" but then fails on "b" (an integer is a tag leaf):
	// a partial match is rejected outright, never falling back to root.
	if _, err := ResolveTag(st, NewRootType(), "a.b"); err != ErrTagPartial {
		t.Errorf("ResolveTag(a.b) = %v, want ErrTagPartial", err)
	}
}

func TestResolveTagNotFound(t *testing.T) {
	st := NewStructType("s")
	if _, err := ResolveTag(st, NewRootType(), "nope"); err != ErrTagNotResolved {
		t.Errorf("ResolveTag(nope) = %v, want ErrTagNotResolved", err)
	}
}

func TestResolveTagArrayIndexComponent(t *testing.T) {
	elem := NewIntegerType("")
	elem.SetSize(8)
	elem.SetAlign(8)
	elem.SetByteOrder(BigEndian)
	mustFinalize(t, elem)

	arr := NewArrayType("buf", elem, 4)
	st := NewStructType("s")
	if err := st.AddField("buf", arr); err != nil {
		t.Fatalf("AddField: %v", err)
	}

	tag, err := ResolveTag(st, NewRootType(), "buf[2]")
	if err != nil {
		t.Fatalf("ResolveTag: %v", err)
	}
	if len(tag.Components) != 2 {
		t.Fatalf("Components = %+v, want 2 (field then index)", tag.Components)
	}
	if tag.Components[1].Index != 2 {
		t.Errorf("index component = %d, want 2", tag.Components[1].Index)
	}
}
