// Copyright 2024 ctfmeta authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ctf

// NewDemoMeta builds the canonical "two big-endian uint32 fields" packet
// header of spec.md §8 scenario 1: a struct two_ints{first, second}
// assigned to trace.packet.header. There is no textual metadata-description
// parser in scope (spec.md §1) - an external AST walker drives the Builder
// in a real deployment - so fuzz.go and cmd/ctfdump exercise the reader
// surface against this fixed, hand-built metadata instead.
func NewDemoMeta() (*Meta, error) {
	b := NewBuilder(nil)

	first := NewIntegerType("first")
	first.SetSize(32)
	first.SetAlign(32)
	first.SetSigned(false)
	first.SetByteOrder(BigEndian)
	if err := first.Finalize(); err != nil {
		return nil, err
	}

	second := NewIntegerType("second")
	second.SetSize(32)
	second.SetAlign(32)
	second.SetSigned(false)
	second.SetByteOrder(BigEndian)
	if err := second.Finalize(); err != nil {
		return nil, err
	}

	st := NewStructType("two_ints")
	if err := st.AddField("first", first); err != nil {
		return nil, err
	}
	if err := st.AddField("second", second); err != nil {
		return nil, err
	}
	if err := st.Finalize(); err != nil {
		return nil, err
	}

	if err := b.TopScopeBegin(ScopeTrace); err != nil {
		return nil, err
	}
	if err := b.AssignType("trace.packet.header", st); err != nil {
		return nil, err
	}
	if err := b.TopScopeEnd(); err != nil {
		return nil, err
	}

	return b.Instantiate()
}
