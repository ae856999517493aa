// Copyright 2024 ctfmeta authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ctf

import "github.com/ctfreader/ctfmeta/log"

// Builder is the metadata construction API of spec.md §4.1: a sequence of
// begin/add/end calls, driven by an external AST walker (out of scope
// here - see spec.md §1), assembles the type graph. Builder.Instantiate
// freezes the result into a *Meta (REDESIGN FLAGS #3: the builder is a
// distinct value from the metadata it produces).
type Builder struct {
	root *Scope
	cur  *Scope

	rootType  *RootType
	topScopes map[DynamicScopeName]*Scope

	logger *log.Helper

	instantiated bool
}

// NewBuilder creates an empty Builder, ready to receive construction
// events. opts mirrors pe.Options: the only ambient knob is the logger
// used for warnings (nil defaults to an error-level stderr logger, same
// as a nil *Options passed to NewMmapByteSource).
func NewBuilder(opts *Options) *Builder {
	return &Builder{
		root:      newRootScope(),
		rootType:  NewRootType(),
		topScopes: make(map[DynamicScopeName]*Scope),
		logger:    newLogger(opts),
	}
}

func (b *Builder) curScope() *Scope {
	if b.cur == nil {
		return b.root
	}
	return b.cur
}

// Resolve looks up a previously-defined, committed type by name, walking
// the current lexical scope chain (used when a later construction event
// refers to an earlier named type rather than defining one inline).
func (b *Builder) Resolve(name string) (Type, error) {
	return b.curScope().Find(name)
}

// underConstruction returns the type directly beneath the currently-open
// top scope - the "type currently being built" ResolveTag consults first
// (spec.md §4.3/ctf_tag.h "Tag::create").
func (b *Builder) underConstruction() Type {
	for s := b.cur; s != nil; s = s.parent {
		if s.parent != nil && s.parent.kind == scopeTop {
			return s.connected
		}
		if s.kind == scopeTop || s.kind == scopeRoot {
			return nil
		}
	}
	return nil
}

func (b *Builder) define(name string, t Type) error {
	return b.curScope().Define(name, t, name == "")
}

func (b *Builder) commitAndPop(name string) {
	parent := b.curScope().parent
	if name != "" {
		parent.Commit(name)
	}
	b.cur = parent
}

func (b *Builder) checkOpen() error {
	if b.instantiated {
		return ErrAlreadyInstantiated
	}
	return nil
}

// IntBegin begins a new integer type (int_begin).
func (b *Builder) IntBegin(name string) (*IntegerType, error) {
	if err := b.checkOpen(); err != nil {
		return nil, err
	}
	t := NewIntegerType(name)
	if err := b.define(name, t); err != nil {
		return nil, err
	}
	b.cur = newConnectedScope(b.curScope(), scopeInt, t)
	return t, nil
}

// IntEnd finalizes and commits the integer currently under construction
// (int_end).
func (b *Builder) IntEnd() (*IntegerType, error) {
	t, ok := b.curScope().connected.(*IntegerType)
	if !ok {
		return nil, ErrOpenConstruction
	}
	if err := t.Finalize(); err != nil {
		return nil, err
	}
	b.commitAndPop(t.name)
	return t, nil
}

// StructBegin begins a new struct type (struct_begin).
func (b *Builder) StructBegin(name string) (*StructType, error) {
	if err := b.checkOpen(); err != nil {
		return nil, err
	}
	t := NewStructType(name)
	if err := b.define(name, t); err != nil {
		return nil, err
	}
	return t, nil
}

// StructBeginScope opens t's field-declaration scope (struct_begin_scope).
func (b *Builder) StructBeginScope(t *StructType) {
	b.cur = newConnectedScope(b.curScope(), scopeStruct, t)
}

// StructHasField reports whether name is already a field of t
// (struct_has_field).
func (b *Builder) StructHasField(t *StructType, name string) bool { return t.HasField(name) }

// StructEndScope closes t's field-declaration scope (struct_end_scope).
func (b *Builder) StructEndScope(t *StructType) {
	b.cur = b.curScope().parent
}

// StructEnd finalizes and commits t (struct_end).
func (b *Builder) StructEnd(t *StructType) error {
	if err := t.Finalize(); err != nil {
		return err
	}
	if t.name != "" {
		b.curScope().Commit(t.name)
	}
	return nil
}

// EnumBegin begins a new enum type backed by backing (enum_begin).
func (b *Builder) EnumBegin(name string, backing *IntegerType) (*EnumType, error) {
	if err := b.checkOpen(); err != nil {
		return nil, err
	}
	t := NewEnumType(name, backing)
	if err := b.define(name, t); err != nil {
		return nil, err
	}
	return t, nil
}

// EnumBeginScope opens t's value-declaration scope (enum_begin_scope).
func (b *Builder) EnumBeginScope(t *EnumType) {
	b.cur = newConnectedScope(b.curScope(), scopeEnum, t)
}

// EnumEndScope closes t's value-declaration scope (enum_end_scope).
func (b *Builder) EnumEndScope(t *EnumType) {
	b.cur = b.curScope().parent
}

// EnumEnd finalizes and commits t (enum_end).
func (b *Builder) EnumEnd(t *EnumType) error {
	if err := t.Finalize(); err != nil {
		return err
	}
	if t.name != "" {
		b.curScope().Commit(t.name)
	}
	return nil
}

// VariantBegin begins a new variant type (variant_begin).
func (b *Builder) VariantBegin(name string) (*VariantType, error) {
	if err := b.checkOpen(); err != nil {
		return nil, err
	}
	t := NewVariantType(name)
	if err := b.define(name, t); err != nil {
		return nil, err
	}
	return t, nil
}

// VariantBeginScope opens t's field-declaration scope (variant_begin_scope).
func (b *Builder) VariantBeginScope(t *VariantType) {
	b.cur = newConnectedScope(b.curScope(), scopeVariant, t)
}

// VariantEndScope closes t's field-declaration scope (variant_end_scope).
func (b *Builder) VariantEndScope(t *VariantType) {
	b.cur = b.curScope().parent
}

// VariantSetTag resolves tagStr and assigns it as t's discriminator
// (variant_set_tag).
func (b *Builder) VariantSetTag(t *VariantType, tagStr string) error {
	tag, err := ResolveTag(b.underConstruction(), b.rootType, tagStr)
	if err != nil {
		return err
	}
	t.SetTag(tag)
	return nil
}

// VariantEnd finalizes and commits t (variant_end).
func (b *Builder) VariantEnd(t *VariantType) error {
	if err := t.Finalize(); err != nil {
		return err
	}
	if t.name != "" {
		b.curScope().Commit(t.name)
	}
	return nil
}

// ArrayCreate creates a fixed-count array type (array_create). Arrays have
// no construction body, so the type is immediately committed.
func (b *Builder) ArrayCreate(name string, elem Type, count int) (*ArrayType, error) {
	if err := b.checkOpen(); err != nil {
		return nil, err
	}
	t := NewArrayType(name, elem, count)
	if err := b.define(name, t); err != nil {
		return nil, err
	}
	if name != "" {
		b.curScope().Commit(name)
	}
	return t, nil
}

// SequenceCreate creates a runtime-length sequence type (sequence_create),
// resolving lengthTagStr against the type currently being built.
func (b *Builder) SequenceCreate(name string, elem Type, lengthTagStr string) (*SequenceType, error) {
	if err := b.checkOpen(); err != nil {
		return nil, err
	}
	tag, err := ResolveTag(b.underConstruction(), b.rootType, lengthTagStr)
	if err != nil {
		return nil, err
	}
	t := NewSequenceType(name, elem, tag)
	if err := b.define(name, t); err != nil {
		return nil, err
	}
	if name != "" {
		b.curScope().Commit(name)
	}
	return t, nil
}

// TypedefCreate clones base under a new name (typedef_create). There is no
// separate typedef kind (REDESIGN FLAGS per type.go): the clone carries
// base's own kind.
func (b *Builder) TypedefCreate(name string, base Type) (Type, error) {
	if err := b.checkOpen(); err != nil {
		return nil, err
	}
	clone := base.Clone()
	if err := b.define(name, clone); err != nil {
		return nil, err
	}
	if name != "" {
		b.curScope().Commit(name)
	}
	return clone, nil
}

// TopScopeBegin opens (or reopens) one of the four dynamic scopes
// (top_scope_begin).
func (b *Builder) TopScopeBegin(name DynamicScopeName) error {
	if err := b.checkOpen(); err != nil {
		return err
	}
	switch name {
	case ScopeTrace, ScopeStream, ScopeEvent, ScopeEnv:
	default:
		return ErrUnknownDynamicScope
	}
	ts, ok := b.topScopes[name]
	if !ok {
		ts = newTopScope(b.root, name)
		b.topScopes[name] = ts
	}
	b.cur = ts
	return nil
}

// AssignType binds t to position (one of the six fixed slot strings) in
// the currently-open top scope (ctf_scope_top_assign_type).
func (b *Builder) AssignType(position string, t Type) error {
	if b.cur == nil || b.cur.kind != scopeTop {
		return ErrAssignOutsideTopScope
	}
	slot, ok := dynamicSlotNames[position]
	if !ok {
		return ErrUnknownDynamicScope
	}
	return b.rootType.AssignType(slot, t)
}

// AddParam records a parameter on the currently-open top scope
// (top_scope add_param).
func (b *Builder) AddParam(name, value string) error {
	return b.curScope().AddParam(name, value)
}

// TopScopeEnd closes the currently-open top scope (top_scope_end).
func (b *Builder) TopScopeEnd() error {
	if b.cur == nil || b.cur.kind != scopeTop {
		return ErrOpenConstruction
	}
	b.cur = b.root
	return nil
}

// Instantiate finalizes every dynamic-scope slot's type and freezes the
// whole metadata into an immutable, readable *Meta (ctf_meta_instantiate).
// It is an error to call Instantiate with any scope still open.
func (b *Builder) Instantiate() (*Meta, error) {
	if err := b.checkOpen(); err != nil {
		b.logger.Warnf("instantiate called on a sealed builder: %v", err)
		return nil, err
	}
	if b.cur != nil && b.cur != b.root {
		b.logger.Warnf("instantiate called with a scope still open")
		return nil, ErrOpenConstruction
	}
	rt := b.rootType
	if err := rt.Finalize(); err != nil {
		b.logger.Errorf("finalizing root type: %v", err)
		return nil, err
	}

	m := &Meta{rootType: rt, rootScope: b.root, topScopes: b.topScopes, logger: b.logger}
	idx, err := rt.instantiate(m, noVar, "", true)
	if err != nil {
		b.logger.Errorf("instantiating variable tree: %v", err)
		return nil, err
	}
	m.rootIdx = idx
	if ri, ok := m.vars[idx].impl.(*rootVarImpl); ok {
		m.tracePacketHeaderIdx = ri.slotIdxs[SlotTracePacketHeader]
	}
	m.sealed = true
	b.instantiated = true
	b.logger.Debugf("instantiated metadata with %d variables", len(m.vars))
	return m, nil
}
