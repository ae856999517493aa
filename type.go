// Copyright 2024 ctfmeta authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ctf

import "fmt"

// TypeKind is the discriminator recovered, in the original C, via
// container_of on a vtable pointer (REDESIGN FLAGS #1). Here it is an
// explicit tag switched over by the Type interface's implementations.
type TypeKind uint8

// The type kinds spec.md §3 defines. There is no separate "typedef" kind:
// typedef_create clones an existing type (see Builder.TypedefCreate), so
// the clone carries its original kind.
const (
	KindInteger TypeKind = iota
	KindStruct
	KindEnum
	KindVariant
	KindArray
	KindSequence
	KindRoot
)

func (k TypeKind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindStruct:
		return "struct"
	case KindEnum:
		return "enum"
	case KindVariant:
		return "variant"
	case KindArray:
		return "array"
	case KindSequence:
		return "sequence"
	case KindRoot:
		return "root"
	default:
		return "unknown"
	}
}

// tagComponent is what a type returns when asked to resolve the next piece
// of a dotted tag string against itself, per §4.2's "cooperative descent".
type tagComponent struct {
	// name is the resolved path element (a field or subtype name).
	name string
	// next is the type the remainder of the tag string should be
	// resolved against.
	next Type
	// index is the concrete element index parsed from an "[n]" component
	// (arrays and sequences alike), with hasIndex true; for non-indexed
	// components index is -1 with hasIndex false.
	index     int
	hasIndex  bool
}

// Type is the common capability surface of every node in the type graph
// (§4.2): construction (kind-specific, on the concrete struct), constant
// introspection, and variable instantiation.
type Type interface {
	// Kind reports which concrete kind this node is.
	Kind() TypeKind

	// Name is the type's name within its owning scope, or "" for
	// internal/anonymous types.
	Name() string

	// Alignment returns the type's alignment in bits. Valid only after
	// Finalize has run without error.
	Alignment() int

	// AlignmentMax returns the largest alignment among this type and all
	// of its transitive subtypes (used to pick UseBase layout targets
	// cheaply, §4.4).
	AlignmentMax() int

	// Finalize defaults missing fields and validates the type,
	// transitioning it from "under construction" to usable. Idempotent.
	Finalize() error

	// Clone returns a deep, independent copy (used by typedef, §4.2).
	Clone() Type

	// resolveTagComponent attempts to consume the first path element of
	// remainder against this type, per §4.3's cooperative descent.
	// ok is false when this type cannot supply that element at all.
	resolveTagComponent(remainder string) (tc tagComponent, rest string, ok bool)

	// instantiate builds the Var (and, recursively, its subvariables) for
	// this type under parent, naming it name. contextRoot is true when the
	// new variable must start its own context (a top-level dynamic-scope
	// variable, or an array/sequence element) rather than inheriting
	// parent's. Placement within parent's container (UseBase/UsePrev/
	// UseContainer) is the caller's job, done after instantiate returns -
	// see placeStructFields/placeVariantFields in builder.go.
	instantiate(m *Meta, parent varRef, name string, contextRoot bool) (varRef, error)

	// debugID gives internal (unnamed) types a stable, unique scope key.
	debugID() string
}

var debugIDCounter int

func nextDebugID(prefix string) string {
	debugIDCounter++
	return fmt.Sprintf("%s#%d", prefix, debugIDCounter)
}
