// Copyright 2024 ctfmeta authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ctf

// scopeKind identifies a Scope's role, mirroring ctf_scope_type in
// ctf_scope.h. Grounded on REDESIGN FLAGS #1: a tagged kind rather than a
// vtable-carrying base struct.
type scopeKind uint8

const (
	scopeRoot scopeKind = iota
	scopeTop
	scopeStruct
	scopeVariant
	scopeEnum
	scopeInt
)

// DynamicScopeName is one of the four fixed top-scope names a trace may
// populate (trace, stream, event, env).
type DynamicScopeName string

// The four dynamic scopes recognized by top_scope_begin.
const (
	ScopeTrace  DynamicScopeName = "trace"
	ScopeStream DynamicScopeName = "stream"
	ScopeEvent  DynamicScopeName = "event"
	ScopeEnv    DynamicScopeName = "env"
)

// DynamicSlot identifies one of the six fixed positions a top scope may
// assign a type to, matching RootType's six slots.
type DynamicSlot uint8

// The six dynamic-scope slots, per spec.md §3 (Type, kind root).
const (
	SlotTracePacketHeader DynamicSlot = iota
	SlotStreamPacketContext
	SlotStreamEventHeader
	SlotStreamEventContext
	SlotEventContext
	SlotEventFields
	numDynamicSlots
)

// dynamicSlotNames maps a top scope name plus a relative_position
// string (as the parser passes it) to a slot. Grounded on
// ctf_scope_top_assign_type's "assign_position" string argument and the six
// names enumerated in spec.md §3.
var dynamicSlotNames = map[string]DynamicSlot{
	"trace.packet.header":     SlotTracePacketHeader,
	"stream.packet.context":   SlotStreamPacketContext,
	"stream.event.header":     SlotStreamEventHeader,
	"stream.event.context":    SlotStreamEventContext,
	"event.context":           SlotEventContext,
	"event.fields":            SlotEventFields,
}

// typeEntry records a defined type together with its visibility: a type
// becomes searchable only once committed is set, the Go expression of
// ctf_scope.h's comment that a type "may not reference itself during
// construction" (§4.1).
type typeEntry struct {
	typ       Type
	committed bool
}

// Scope is a named lexical scope of the metadata: the root, a top-level
// dynamic scope, or an inner scope bound to a compound type (struct,
// variant, enum, integer). Grounded on ctf_scope.c/ctf_scope.h.
type Scope struct {
	kind   scopeKind
	name   string
	parent *Scope

	// connected is the type this scope declares fields/values for, when
	// kind is scopeStruct/scopeVariant/scopeEnum/scopeInt. Nil otherwise.
	connected Type

	types map[string]*typeEntry

	// params holds top-scope parameters (add_param), only meaningful
	// when kind == scopeTop.
	params map[string]string
}

// newRootScope creates the metadata's single root scope.
func newRootScope() *Scope {
	return &Scope{kind: scopeRoot, types: make(map[string]*typeEntry)}
}

// newTopScope creates one of the four top-level dynamic scopes, owned by
// the root scope.
func newTopScope(parent *Scope, name DynamicScopeName) *Scope {
	return &Scope{
		kind:   scopeTop,
		name:   string(name),
		parent: parent,
		types:  make(map[string]*typeEntry),
		params: make(map[string]string),
	}
}

// newConnectedScope creates an inner scope bound to typ (struct body,
// variant body, enum body, or integer parameter list).
func newConnectedScope(parent *Scope, kind scopeKind, typ Type) *Scope {
	return &Scope{
		kind:      kind,
		parent:    parent,
		connected: typ,
		types:     make(map[string]*typeEntry),
	}
}

// Parent returns the lexically enclosing scope, or nil for the root.
func (s *Scope) Parent() *Scope { return s.parent }

// IsRoot reports whether s is the metadata's root scope.
func (s *Scope) IsRoot() bool { return s.kind == scopeRoot }

// IsTop reports whether s is one of the four dynamic top scopes.
func (s *Scope) IsTop() bool { return s.kind == scopeTop }

// ConnectedType returns the type this scope's body belongs to, or nil for
// scopes with no connected type (root, top).
func (s *Scope) ConnectedType() Type { return s.connected }

// Define registers typ under name in this scope. internal types are stored
// but never searchable (§4.1: "internal types are not searchable by
// name"). A name collision in the SAME scope is an error; shadowing an
// outer scope's name is allowed.
func (s *Scope) Define(name string, typ Type, internal bool) error {
	if internal {
		// Internal types get a unique synthetic key so distinct unnamed
		// wrappers never collide with each other or with named types.
		key := internalKey(typ)
		s.types[key] = &typeEntry{typ: typ}
		return nil
	}
	if _, exists := s.types[name]; exists {
		return ErrTypeCollision
	}
	s.types[name] = &typeEntry{typ: typ}
	return nil
}

// internalKey synthesizes a map key for an internal (unnamed) type so each
// gets its own slot without being name-addressable.
func internalKey(typ Type) string {
	return "\x00internal\x00" + typ.debugID()
}

// Commit marks name's type as fully constructed and therefore visible to
// later lookups, matching "a type is visible only when fully committed".
func (s *Scope) Commit(name string) {
	if e, ok := s.types[name]; ok {
		e.committed = true
	}
}

// findLocal looks up name only within this scope (no parent walk),
// returning the type only if it is committed.
func (s *Scope) findLocal(name string) (Type, bool) {
	e, ok := s.types[name]
	if !ok || !e.committed {
		return nil, false
	}
	return e.typ, true
}

// Find walks the scope chain from s toward the root, returning the first
// committed type named name. Matches ctf_scope_find_type.
func (s *Scope) Find(name string) (Type, error) {
	for cur := s; cur != nil; cur = cur.parent {
		if typ, ok := cur.findLocal(name); ok {
			return typ, nil
		}
		// A name that exists but isn't committed yet shadows nothing
		// further out and is a hard error: it means "referenced before
		// committed" at this lexical point.
		if e, ok := cur.types[name]; ok && !e.committed {
			return nil, ErrTypeNotVisible
		}
	}
	return nil, ErrTypeNotFound
}

// AddParam records a top-scope parameter. Valid only for top scopes.
func (s *Scope) AddParam(name, value string) error {
	if s.kind != scopeTop {
		return ErrAssignOutsideTopScope
	}
	s.params[name] = value
	return nil
}

// Param returns a top-scope parameter's value.
func (s *Scope) Param(name string) (string, bool) {
	v, ok := s.params[name]
	return v, ok
}
