// Package xform implements the Transform engine: a chain of
// element consumers that re-emit a ClassModel's, MethodModel's, or
// CodeModel's element stream, replacing or dropping elements along the
// way. The engine itself carries no policy — PassThrough* is the identity
// transform every caller composes against.
package xform

import (
	"github.com/zboralski/goclassfile/attr"
	"github.com/zboralski/goclassfile/classfile"
	"github.com/zboralski/goclassfile/pool"
)

// ClassElement is one member of a class transform's element stream: a
// field, a method, or a class-level attribute. The class header —
// version, access flags, this/super, interfaces — is fixed per
// transform and carried separately, not streamed as an element.
type ClassElement interface{ classElement() }

// FieldElement wraps one field_info entry.
type FieldElement struct{ Field *classfile.FieldModel }

func (FieldElement) classElement() {}

// MethodElement wraps one method_info entry.
type MethodElement struct{ Method *classfile.MethodModel }

func (MethodElement) classElement() {}

// ClassAttributeElement wraps one class-level attribute.
type ClassAttributeElement struct{ Attribute attr.Attribute }

func (ClassAttributeElement) classElement() {}

// ClassTransform consumes one ClassElement, emitting zero or more
// replacement elements into b. It returns an error: a transform that
// must fail (e.g. a nested code transform whose Assembler call errors)
// has no other way to surface that to TransformClass's caller, which
// does not catch or recover from a handler panic.
type ClassTransform func(b ClassBuilder, e ClassElement) error

// PassThroughClass re-emits e unchanged; the identity transform.
func PassThroughClass(b ClassBuilder, e ClassElement) error {
	b.With(e)
	return nil
}

// ClassBuilder accumulates the elements a ClassTransform emits. The
// terminal builder (from NewClassBuilder) owns the constant pool every
// element is resolved against; a chained builder inserted ahead of it
// holds only a non-owning reference, used for Pool() and for spawning
// method/code sub-transforms.
type ClassBuilder interface {
	Pool() *pool.Pool
	With(e ClassElement)
}

// ClassAccumulator is the tail of a transform chain: it owns the
// accumulated fields/methods/attributes a new ClassModel is built from. A
// caller driving Build directly (rather than through TransformClass) uses
// the exported accessors to read back what a handler emitted.
type ClassAccumulator struct {
	pool    *pool.Pool
	fields  []*classfile.FieldModel
	methods []*classfile.MethodModel
	attrs   []attr.Attribute
}

// NewClassBuilder returns a terminal ClassAccumulator backed by p.
func NewClassBuilder(p *pool.Pool) *ClassAccumulator {
	return &ClassAccumulator{pool: p}
}

func (b *ClassAccumulator) Pool() *pool.Pool { return b.pool }

func (b *ClassAccumulator) With(e ClassElement) {
	switch el := e.(type) {
	case FieldElement:
		b.fields = append(b.fields, el.Field)
	case MethodElement:
		b.methods = append(b.methods, el.Method)
	case ClassAttributeElement:
		b.attrs = append(b.attrs, el.Attribute)
	}
}

// Fields returns every field accumulated so far, in emission order.
func (b *ClassAccumulator) Fields() []*classfile.FieldModel { return b.fields }

// Methods returns every method accumulated so far, in emission order.
func (b *ClassAccumulator) Methods() []*classfile.MethodModel { return b.methods }

// Attributes returns every class-level attribute accumulated so far, in
// emission order.
func (b *ClassAccumulator) Attributes() []attr.Attribute { return b.attrs }

// chainedClassBuilder is what ChainClass hands the upstream producer: its
// With delegates every element to a user ClassTransform aimed at next,
// rather than accumulating anything itself. Chains compose by linking
// tail-to-head.
type chainedClassBuilder struct {
	next ClassBuilder
	t    ClassTransform
	err  error
}

// ChainClass inserts t ahead of next: elements offered to the returned
// builder are first handed to t, which may emit zero or more elements
// into next. Link several of these to compose a pipeline of independent
// transforms without any one of them knowing about the others.
func ChainClass(next ClassBuilder, t ClassTransform) ClassBuilder {
	return &chainedClassBuilder{next: next, t: t}
}

func (c *chainedClassBuilder) Pool() *pool.Pool { return c.next.Pool() }

func (c *chainedClassBuilder) With(e ClassElement) {
	if c.err != nil {
		return
	}
	c.err = c.t(c.next, e)
}

// ComposeClass returns a single ClassTransform equivalent to running t1
// and feeding whatever it emits through t2 — the chain expressed as one
// transform, for callers that want to apply several in sequence without
// building the chain by hand.
func ComposeClass(t1, t2 ClassTransform) ClassTransform {
	return func(b ClassBuilder, e ClassElement) error {
		chained := ChainClass(b, t2)
		if err := t1(chained, e); err != nil {
			return err
		}
		return chained.(*chainedClassBuilder).err
	}
}

// TransformClass re-emits model's fields, methods, and class-level
// attributes through t, in that order, and returns a new ClassModel
// assembled from whatever the terminal builder accumulated. The header
// (version, access flags, super, interfaces) carries over unchanged;
// ThisClassIndex is overridden by newThisClassIndex when non-zero.
// p is the pool
// the result is built against — pass model.Pool for SHARED_POOL, a fresh
// pool.New() (with every referenced entry re-interned by t) for NEW_POOL.
func TransformClass(model *classfile.ClassModel, p *pool.Pool, newThisClassIndex uint16, t ClassTransform) (*classfile.ClassModel, error) {
	b := NewClassBuilder(p)
	for _, f := range model.Fields {
		if err := t(b, FieldElement{Field: f}); err != nil {
			return nil, err
		}
	}
	for _, m := range model.Methods {
		if err := t(b, MethodElement{Method: m}); err != nil {
			return nil, err
		}
	}
	for _, a := range model.Attributes {
		if err := t(b, ClassAttributeElement{Attribute: a}); err != nil {
			return nil, err
		}
	}

	thisIdx := model.ThisClassIndex
	if newThisClassIndex != 0 {
		thisIdx = newThisClassIndex
	}
	return &classfile.ClassModel{
		MinorVersion: model.MinorVersion, MajorVersion: model.MajorVersion,
		Pool: p, AccessFlags: model.AccessFlags,
		ThisClassIndex: thisIdx, SuperClassIndex: model.SuperClassIndex,
		Interfaces: model.Interfaces, Fields: b.Fields(), Methods: b.Methods(),
		Attributes: b.Attributes(),
	}, nil
}
