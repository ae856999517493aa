// Copyright 2024 ctfmeta authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ctf

import "errors"

// Sentinel errors returned by the metadata builder and variable tree.
//
// Per spec.md §7, only four of the five error kinds surface as Go errors:
// ParseError, SemanticError, AllocationError and ReadError/OverflowError.
// InsufficientContext is never an error - it is the sentinel -1 returned
// from layout/read operations, handled by the caller without aborting.
var (
	// ErrTypeCollision is returned when a name is defined twice in the
	// same scope.
	ErrTypeCollision = errors.New("ctf: type name already defined in this scope")

	// ErrFieldCollision is returned when a struct or variant field name
	// is defined twice.
	ErrFieldCollision = errors.New("ctf: field name already defined")

	// ErrTypeNotFound is returned when a name cannot be resolved by
	// walking the scope chain.
	ErrTypeNotFound = errors.New("ctf: type not found in scope chain")

	// ErrTypeNotVisible is returned when a name resolves to a type whose
	// construction has not yet been committed with its End() call.
	ErrTypeNotVisible = errors.New("ctf: type referenced before it was committed")

	// ErrOpenConstruction is returned by Instantiate when a type or scope
	// is still under construction.
	ErrOpenConstruction = errors.New("ctf: type or scope left open at instantiate")

	// ErrUnsupportedIntegerGeometry is returned at integer finalization
	// for native-endian integers, sub-byte integers whose size exceeds
	// their alignment, or sizes that aren't byte-aligned once >= 8 bits.
	ErrUnsupportedIntegerGeometry = errors.New("ctf: unsupported integer geometry")

	// ErrUnsupportedEncoding is returned when an integer's encoding is
	// not "none".
	ErrUnsupportedEncoding = errors.New("ctf: only the \"none\" text encoding is supported")

	// ErrEnumBackingTooWide is returned by EnumType.Finalize when an
	// enumeration's backing integer does not fit in 64 bits. No other
	// width check is made against the enumeration's use sites.
	ErrEnumBackingTooWide = errors.New("ctf: enumeration backing integer too wide")

	// ErrUntaggedVariant is returned when attempting to instantiate a
	// variable for a variant type with no tag.
	ErrUntaggedVariant = errors.New("ctf: variant has no tag, cannot instantiate")

	// ErrTagNotResolved is returned when a tag string cannot be resolved
	// against either the type under construction or the root type.
	ErrTagNotResolved = errors.New("ctf: tag could not be resolved")

	// ErrTagPartial is returned when a tag resolves its first component
	// but fails on a later one; partial tags are never accepted.
	ErrTagPartial = errors.New("ctf: tag partially resolved, rejecting")

	// ErrTagForwardReference is returned when a tag's target variable
	// follows the tag's user in dynamic-scope order.
	ErrTagForwardReference = errors.New("ctf: tag refers to a variable later in the dynamic scope")

	// ErrTagWrongKind is returned when a variable does not have the kind
	// an operation requires: a variant discriminator that is not an
	// enumeration, an "[n]" tag component on a non-array variable, or an
	// array/variant accessor applied to another kind. A sequence whose
	// length target is not an integer reports an unknown element count
	// instead.
	ErrTagWrongKind = errors.New("ctf: tag target has the wrong type kind")

	// ErrInvalidArrayIndex is returned by ArrayType.Finalize when the
	// array's element count is negative. An out-of-range "[n]" tag
	// component is not resolved by the array, so such a tag fails with
	// ErrTagPartial.
	ErrInvalidArrayIndex = errors.New("ctf: array index out of range in tag component")

	// ErrAssignOutsideTopScope is returned when assign_type is called
	// outside a top scope.
	ErrAssignOutsideTopScope = errors.New("ctf: assign_type is only valid within a top scope")

	// ErrUnknownDynamicScope is returned when a top scope name is not one
	// of trace, stream, event, env.
	ErrUnknownDynamicScope = errors.New("ctf: unknown dynamic scope name")

	// ErrNotInstantiated is returned by operations that require a frozen
	// Meta (e.g. CreateTopContext) called before Instantiate.
	ErrNotInstantiated = errors.New("ctf: metadata not yet instantiated")

	// ErrAlreadyInstantiated is returned by builder mutators called after
	// Instantiate has sealed the metadata.
	ErrAlreadyInstantiated = errors.New("ctf: metadata already instantiated, builder is sealed")

	// ErrVarNotFound is returned by Meta.FindVar for a dotted path that
	// does not resolve to any variable.
	ErrVarNotFound = errors.New("ctf: variable not found")

	// ErrParamNotFound is returned by Meta.FindParam for an unknown
	// parameter path.
	ErrParamNotFound = errors.New("ctf: parameter not found")

	// ErrOutsideBoundary is returned by a ByteSource when asked to map
	// more bits than the backing stream holds.
	ErrOutsideBoundary = errors.New("ctf: reading data outside byte source boundary")

	// ErrNoTopContext is returned when creating a top context for a
	// variable that isn't a direct child of the root variable, or for a
	// top-level variable other than trace.packet.header with a nil parent.
	ErrNoTopContext = errors.New("ctf: variable is not a top-level dynamic-scope variable")

	// ErrOverflow is returned by a narrow integer accessor (get_int32,
	// get_uint32, ...) when the underlying value does not fit.
	ErrOverflow = errors.New("ctf: integer value overflows requested accessor width")

	// ErrNotInteger is returned when an integer-only accessor is used
	// against a variable whose type has no integer interpretation.
	ErrNotInteger = errors.New("ctf: variable has no integer interpretation")
)
