// Copyright 2024 ctfmeta authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ctf

// ByteOrder is an integer type's byte order. There is no "native" constant
// because native-endian integers are explicitly unsupported (spec.md §1)
// and rejected at Finalize.
type ByteOrder uint8

const (
	BigEndian ByteOrder = iota
	LittleEndian
)

// IntBase controls how an integer's value is conventionally displayed; it
// has no effect on layout or the bytes read.
type IntBase uint8

const (
	BaseDec IntBase = iota
	BaseHex
	BaseHexUpper
	BaseOct
	BaseBin
	BasePtr
	BaseUnsigned
)

// IntegerType is the integer kind of spec.md §3.
type IntegerType struct {
	name string
	id   string

	size         int
	align        int
	signed       bool
	byteOrder    ByteOrder
	byteOrderSet bool
	base         IntBase
	encoding     string

	finalized bool
}

// NewIntegerType begins construction of a new integer type (int_begin).
func NewIntegerType(name string) *IntegerType {
	return &IntegerType{name: name, encoding: "none", id: nextDebugID("int")}
}

// SetSize sets the integer's size in bits (int_set_size).
func (t *IntegerType) SetSize(bits int) { t.size = bits }

// SetAlign sets the integer's alignment in bits (int_set_align).
func (t *IntegerType) SetAlign(bits int) { t.align = bits }

// SetSigned sets the integer's signedness (int_set_signed).
func (t *IntegerType) SetSigned(v bool) { t.signed = v }

// SetByteOrder sets the integer's byte order (int_set_byte_order).
func (t *IntegerType) SetByteOrder(bo ByteOrder) {
	t.byteOrder = bo
	t.byteOrderSet = true
}

// SetBase sets the integer's display base (int_set_base).
func (t *IntegerType) SetBase(b IntBase) { t.base = b }

// SetEncoding sets the integer's text encoding (int_set_encoding). Only
// "none" is supported; any other value is rejected at Finalize.
func (t *IntegerType) SetEncoding(e string) { t.encoding = e }

// Size returns the integer's size in bits.
func (t *IntegerType) Size() int { return t.size }

// Signed reports the integer's signedness.
func (t *IntegerType) Signed() bool { return t.signed }

// ByteOrderVal returns the integer's byte order.
func (t *IntegerType) ByteOrderVal() ByteOrder { return t.byteOrder }

// Base returns the integer's display base.
func (t *IntegerType) Base() IntBase { return t.base }

func (t *IntegerType) Kind() TypeKind { return KindInteger }
func (t *IntegerType) Name() string   { return t.name }
func (t *IntegerType) debugID() string { return t.id }

func (t *IntegerType) Alignment() int    { return t.align }
func (t *IntegerType) AlignmentMax() int { return t.align }

// Finalize defaults missing fields and rejects unsupported geometries
// (spec.md §3 integer finalization rules).
func (t *IntegerType) Finalize() error {
	if t.finalized {
		return nil
	}
	if t.size <= 0 {
		return ErrUnsupportedIntegerGeometry
	}
	if t.align == 0 {
		if t.size < 8 {
			t.align = 1
		} else {
			t.align = 8
		}
	}
	if t.encoding == "" {
		t.encoding = "none"
	}
	if t.encoding != "none" {
		return ErrUnsupportedEncoding
	}
	if !t.byteOrderSet {
		// No explicit be/le: this is a native-endian integer, which
		// spec.md §1 requires rejecting at finalization.
		return ErrUnsupportedIntegerGeometry
	}
	if t.size > 8 && t.size%8 != 0 {
		return ErrUnsupportedIntegerGeometry
	}
	if t.size < 8 && t.size > t.align {
		return ErrUnsupportedIntegerGeometry
	}
	t.finalized = true
	return nil
}

func (t *IntegerType) Clone() Type {
	clone := *t
	clone.id = nextDebugID("int")
	return &clone
}

func (t *IntegerType) resolveTagComponent(remainder string) (tagComponent, string, bool) {
	// Integers are leaves in the tag path: they never supply a further
	// component (not even an index - that's handled by the array/
	// sequence type that contains them).
	return tagComponent{}, remainder, false
}

func (t *IntegerType) instantiate(m *Meta, parent varRef, name string, contextRoot bool) (varRef, error) {
	idx := m.newVar(parent, name, contextRoot, t)
	v := m.vars[idx]
	v.impl = &intVarImpl{typ: t}
	m.setSize(v, t.align, t.size)
	if contextRoot {
		m.placeAbsolute(v)
	}
	return idx, nil
}
