// Copyright 2024 ctfmeta authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ctf

// ByteSource is the external collaborator providing backing memory for
// contexts (spec.md §1 "out of scope", §6 "byte-source callback"). A file
// reader, an mmap region (see file.go/MmapByteSource) or a network
// buffer all implement it.
type ByteSource interface {
	// Map returns at least minBits bits of backing memory starting at the
	// absolute bit offset bitOffset. avail is the number of bits really
	// available (>= minBits) and they start at bit bitShift of data[0]; on
	// failure avail is negative and err is non-nil. minBits == 0 queries
	// the current mapping without growing it.
	Map(bitOffset int64, minBits int) (avail int, data []byte, bitShift int, err error)
}

// Context binds a variable subtree to a stretch of backing bytes
// (spec.md §4.5). Contexts are single-threaded: every accessor may mutate
// the cached map state.
type Context struct {
	meta   *Meta
	varIdx VarIndex
	parent *Context
	source ByteSource

	// absBase is the absolute bit offset in the stream where this
	// context's variable begins.
	absBase int64

	mapSize  int
	mapStart []byte
	mapShift int
}

// Var returns the variable this context is bound to.
func (c *Context) Var() *Var { return c.meta.at(c.varIdx) }

// Parent returns the enclosing context in the chain, or nil.
func (c *Context) Parent() *Context { return c.parent }

// CreateTopContext creates a context for one of the six dynamic-scope
// variables. parent is required unless topVar is trace.packet.header
// (spec.md §4.5). startBit is the absolute bit offset in the stream where
// topVar begins; the core has no I/O scheduling of its own (spec.md §1
// Non-goals), so the caller supplies it.
func (m *Meta) CreateTopContext(topVar *Var, source ByteSource, parent *Context, startBit int64) (*Context, error) {
	if !m.sealed {
		return nil, ErrNotInstantiated
	}
	if m.Parent(topVar) != m.rootVar() {
		return nil, ErrNoTopContext
	}
	if parent == nil && topVar.index != m.tracePacketHeaderIdx {
		return nil, ErrNoTopContext
	}
	return &Context{
		meta:    m,
		varIdx:  topVar.index,
		parent:  parent,
		source:  source,
		absBase: startBit,
	}, nil
}

// ExtendMap asks the byte source for at least newBits bits, re-caching the
// returned mapping. Per spec.md §8, extend_map(n) followed by extend_map(m)
// with m <= n leaves the cached mapping untouched.
func (c *Context) ExtendMap(newBits int) (int, []byte, int, error) {
	if newBits <= c.mapSize && c.mapStart != nil {
		return c.mapSize, c.mapStart, c.mapShift, nil
	}
	avail, data, shift, err := c.source.Map(c.absBase, newBits)
	if err != nil {
		return 0, nil, 0, err
	}
	c.mapSize = avail
	c.mapStart = data
	c.mapShift = shift
	return avail, data, shift, nil
}

// bits returns the nbits starting at local bit offset localOff within this
// context's mapping, extending the mapping if necessary. The result is
// returned as the low nbits of a uint64 (nbits <= 64); callers apply
// byte-order interpretation themselves for byte-aligned, multi-byte reads.
//
// A sub-byte field (nbits < 8, confined to a single byte by Finalize's
// align >= size rule) is read LSB-first within that byte: the field's own
// bit 0 lands at the byte's bit 0, matching the original's
// var_int_ops_get_int32_bits ("value >>= start_shift; value &= (1<<size)-1").
// A byte-aligned or multi-byte read instead assembles bytes MSB-first across
// the stream (the copy_int_normal rule), with little-endian byte order
// swapped in by the caller afterward.
func (c *Context) bits(localOff, nbits int) (uint64, error) {
	need := localOff + nbits
	if need > c.mapSize {
		if _, _, _, err := c.ExtendMap(need); err != nil {
			return 0, err
		}
		if need > c.mapSize {
			return 0, ErrOutsideBoundary
		}
	}
	abs := c.mapShift + localOff
	if nbits < 8 {
		byteIdx := abs / 8
		startShift := uint(abs % 8)
		if startShift+uint(nbits) <= 8 {
			b := uint64(c.mapStart[byteIdx])
			return (b >> startShift) & (uint64(1)<<uint(nbits) - 1), nil
		}
	}
	var out uint64
	for i := 0; i < nbits; i++ {
		byteIdx := (abs + i) / 8
		bitIdx := uint((abs + i) % 8)
		bit := (c.mapStart[byteIdx] >> (7 - bitIdx)) & 1
		out = (out << 1) | uint64(bit)
	}
	return out, nil
}

// contextForVar walks ctx's parent chain to find the context whose
// variable is ContextVar(v), per spec.md §4.5's "more than needed" rule.
func (m *Meta) contextForVar(ctx *Context, v *Var) *Context {
	want := m.ContextVar(v).index
	for c := ctx; c != nil; c = c.parent {
		if c.varIdx == want {
			return c
		}
	}
	return nil
}

// arrayLike is implemented by array and sequence variable implementations,
// letting context.go share one CreateElementContext for both.
type arrayLike interface {
	VarImpl
	elemVarIndex() VarIndex
	nElements(m *Meta, v *Var, ctx *Context) int
	// constantStride reports the element size/alignment in bits when
	// every element has the same size (true arrays of fixed-size
	// elements); ok is false for variable-stride elements.
	constantStride() (size, align int, ok bool)
}

// ElementContext specializes Context to iterate over array/sequence
// elements (spec.md §4.4 ElementContext).
type ElementContext struct {
	*Context
	owner   *Var // the array/sequence variable
	ownerCtx *Context
	impl    arrayLike
	index   int
	ended   bool
}

// Index returns the element's current index.
func (e *ElementContext) Index() int { return e.index }

// Ended reports whether this cursor was created for an index at or past
// the element count, matching the original's is_end/"end context"
// contract (see DESIGN.md Open Question #1). The layout and read accessors
// do not consult it: an ended context has no parent context and is not
// positioned on any element.
func (e *ElementContext) Ended() bool { return e.ended }

// CreateElementContext creates (or repositions) an element context for the
// i'th element of arrayVar, mapped inside arrayCtx. If i is past the
// array/sequence's actual element count, the returned context is an "end"
// context usable only for bookkeeping (spec.md §4.4).
func (m *Meta) CreateElementContext(arrayVar *Var, arrayCtx *Context, i int) (*ElementContext, error) {
	impl, ok := arrayVar.impl.(arrayLike)
	if !ok {
		return nil, ErrTagWrongKind
	}
	ctxForArr := m.contextForVar(arrayCtx, arrayVar)
	if ctxForArr == nil {
		return nil, ErrNotInstantiated
	}
	elemVar := m.at(impl.elemVarIndex())
	n := impl.nElements(m, arrayVar, ctxForArr)

	ec := &ElementContext{
		owner:    arrayVar,
		ownerCtx: ctxForArr,
		impl:     impl,
		index:    i,
	}
	if n != unknownOffset && i >= n {
		ec.ended = true
		ec.Context = &Context{meta: m, varIdx: elemVar.index, source: ctxForArr.source}
		return ec, nil
	}

	arrStart := m.StartOffset(arrayVar, ctxForArr)
	if arrStart == unknownOffset {
		return nil, ErrOutsideBoundary
	}

	if size, align, ok := impl.constantStride(); ok {
		stride := alignUp(size, align)
		localOff := i * stride
		ec.Context = &Context{
			meta:    m,
			varIdx:  elemVar.index,
			parent:  ctxForArr,
			source:  ctxForArr.source,
			absBase: ctxForArr.absBase + int64(arrStart) + int64(localOff),
		}
		return ec, nil
	}

	// Variable stride: walk element-by-element from 0, accumulating each
	// element's own aligned end into the running offset (spec.md §8's
	// s.size = sum of align_up(elem.end) - elem.start over n_elements).
	align := m.Alignment(elemVar, nil)
	if align == unknownOffset {
		align = 1
	}
	localOff := arrStart
	cur := &Context{
		meta:    m,
		varIdx:  elemVar.index,
		parent:  ctxForArr,
		source:  ctxForArr.source,
		absBase: ctxForArr.absBase + int64(localOff),
	}
	for idx := 0; idx < i; idx++ {
		end := m.EndOffset(elemVar, cur)
		if end == unknownOffset {
			return nil, ErrOutsideBoundary
		}
		localOff = alignUp(localOff+end, align)
		cur = &Context{
			meta:    m,
			varIdx:  elemVar.index,
			parent:  ctxForArr,
			source:  ctxForArr.source,
			absBase: ctxForArr.absBase + int64(localOff),
		}
	}
	ec.Context = cur
	return ec, nil
}

// Next advances the element context to the following element, matching
// spec.md §4.4's constant-stride/variable-stride Next() semantics.
func (e *ElementContext) Next() (*ElementContext, error) {
	return e.ownerCtx.meta.CreateElementContext(e.owner, e.ownerCtx, e.index+1)
}
