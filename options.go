// Package goclassfile is the public façade over this module's codec,
// builder, and transform-engine packages: Parse decodes a .class byte
// buffer, Build assembles one from scratch, Transform re-emits an
// already-parsed one through a caller's ClassTransform.
package goclassfile

import (
	"github.com/zboralski/goclassfile/asm"
	"github.com/zboralski/goclassfile/attr"
	"github.com/zboralski/goclassfile/stackmap"
)

// PoolSharing selects whether Transform writes its result into the
// source ClassModel's own constant pool or a fresh one.
type PoolSharing int

const (
	// SharedPool re-interns nothing: transformed elements reference the
	// same pool the source model was parsed against, preserving
	// round-trip identity for untouched constant pool entries.
	SharedPool PoolSharing = iota
	// NewPool builds the result against a fresh pool.New(), relying on
	// every emitted element to (re-)intern whatever constant pool
	// references it needs.
	NewPool
)

// Options is Classfile's immutable configuration record: every With*
// method returns a modified copy rather than mutating the receiver. The
// zero value is DefaultOptions: generate stack maps
// only when the class file version requires them, keep debug and line
// number info, pass unknown attributes through, share the constant pool,
// fix short jumps, patch dead code, and fail a transform that leaves a
// label unbound rather than silently dropping it.
type Options struct {
	StackMaps              stackmap.Option
	DropDebugElements      bool
	DropLineNumbers        bool
	UnknownAttributes      attr.UnknownPolicy
	PoolSharing            PoolSharing
	ShortJumps             asm.ShortJumpPolicy
	DeadCode               asm.DeadCodePolicy
	DropDeadLabels         bool
	ClassHierarchyResolver stackmap.Resolver
	AttributeMapper        attr.Mapper
}

// DefaultOptions returns Options{}, spelled out for callers who want the
// defaults named rather than implicit.
func DefaultOptions() Options { return Options{} }

// WithStackMaps returns a copy of o with its StackMapTable generation
// policy set to p.
func (o Options) WithStackMaps(p stackmap.Option) Options { o.StackMaps = p; return o }

// WithDebugElements returns a copy of o that drops LocalVariableTable/
// LocalVariableTypeTable entries during Build/Transform when drop is true.
func (o Options) WithDebugElements(drop bool) Options { o.DropDebugElements = drop; return o }

// WithLineNumbers returns a copy of o that drops LineNumberTable entries
// during Build/Transform when drop is true.
func (o Options) WithLineNumbers(drop bool) Options { o.DropLineNumbers = drop; return o }

// WithUnknownAttributes returns a copy of o with its unrecognized-
// attribute policy set to p.
func (o Options) WithUnknownAttributes(p attr.UnknownPolicy) Options { o.UnknownAttributes = p; return o }

// WithPoolSharing returns a copy of o with its constant-pool sharing
// policy set to p.
func (o Options) WithPoolSharing(p PoolSharing) Options { o.PoolSharing = p; return o }

// WithShortJumps returns a copy of o with its short-jump widening policy
// set to p.
func (o Options) WithShortJumps(p asm.ShortJumpPolicy) Options { o.ShortJumps = p; return o }

// WithDeadCode returns a copy of o with its dead-code policy set to p.
func (o Options) WithDeadCode(p asm.DeadCodePolicy) Options { o.DeadCode = p; return o }

// WithDropDeadLabels returns a copy of o that silently drops a label a code
// transform left unbound when drop is true, instead of failing Transform
// over it (the default).
func (o Options) WithDropDeadLabels(drop bool) Options { o.DropDeadLabels = drop; return o }

// WithClassHierarchyResolver returns a copy of o using r to widen
// disagreeing Object types during StackMapTable generation.
func (o Options) WithClassHierarchyResolver(r stackmap.Resolver) Options {
	o.ClassHierarchyResolver = r
	return o
}

// WithAttributeMapper returns a copy of o using m to dispatch attribute
// names. m is consulted for every name ahead of the built-in registry,
// which handles only the names m declines.
func (o Options) WithAttributeMapper(m attr.Mapper) Options { o.AttributeMapper = m; return o }
