// Copyright 2024 ctfmeta authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ctf

// Fuzz is a go-fuzz-convention entry point (the teacher's fuzz.go binds the
// same shape to PE parsing): data is treated as an arbitrary backing stream
// for the fixed two_ints demo metadata, exercising layout and read against
// every length and bit pattern the corpus produces.
func Fuzz(data []byte) int {
	m, err := NewDemoMeta()
	if err != nil {
		return 0
	}

	v, err := m.FindVar("trace.packet.header.second")
	if err != nil {
		return 0
	}

	src := NewBufferByteSource(data)
	header, err := m.FindVar("trace.packet.header")
	if err != nil {
		return 0
	}
	hctx, err := m.CreateTopContext(header, src, nil, 0)
	if err != nil {
		return 0
	}

	if exists := m.VarExists(v, hctx); exists == 0 {
		return 0
	}

	if _, insufficient, err := m.GetUint64(v, hctx); err != nil {
		return 0
	} else if insufficient {
		return 0
	}
	return 1
}
