package xform

import (
	"github.com/zboralski/goclassfile/asm"
	"github.com/zboralski/goclassfile/attr"
	"github.com/zboralski/goclassfile/classfile"
	"github.com/zboralski/goclassfile/code"
	"github.com/zboralski/goclassfile/pool"
)

// MethodAttrElement is one member of a method transform's element stream: a
// method-level attribute (Code among them). AccessFlags/Name/Descriptor
// are the method's fixed header, not streamed.
type MethodAttrElement interface{ methodElement() }

// MethodAttributeElement wraps one method-level attribute.
type MethodAttributeElement struct{ Attribute attr.Attribute }

func (MethodAttributeElement) methodElement() {}

// MethodTransform consumes one MethodAttrElement, emitting zero or more
// replacements into b. A transform that wants to rewrite a method's Code
// attribute recognizes it via a type assertion to *code.CodeAttribute,
// calls b.TransformCode with a CodeTransform, wraps the result in a fresh
// *code.CodeAttribute, and re-emits that.
type MethodTransform func(b MethodBuilder, e MethodAttrElement) error

// PassThroughMethod re-emits e unchanged; the identity transform.
func PassThroughMethod(b MethodBuilder, e MethodAttrElement) error {
	b.With(e)
	return nil
}

// MethodBuilder accumulates the elements a MethodTransform emits, and
// spawns the buffered code builder a Code-attribute rewrite needs.
type MethodBuilder interface {
	Pool() *pool.Pool
	With(e MethodAttrElement)
	// TransformCode re-emits cm's element stream through ct and assembles
	// the result into a fresh *code.CodeModel via an Assembler configured
	// with opts.
	TransformCode(cm *code.CodeModel, opts asm.Options, ct CodeTransform) (*code.CodeModel, error)
}

type terminalMethodBuilder struct {
	pool  *pool.Pool
	attrs []attr.Attribute
}

// NewMethodBuilder returns a terminal MethodBuilder backed by p.
func NewMethodBuilder(p *pool.Pool) MethodBuilder {
	return &terminalMethodBuilder{pool: p}
}

func (b *terminalMethodBuilder) Pool() *pool.Pool { return b.pool }

func (b *terminalMethodBuilder) With(e MethodAttrElement) {
	if el, ok := e.(MethodAttributeElement); ok {
		b.attrs = append(b.attrs, el.Attribute)
	}
}

func (b *terminalMethodBuilder) TransformCode(cm *code.CodeModel, opts asm.Options, ct CodeTransform) (*code.CodeModel, error) {
	return TransformCode(cm, opts, ct)
}

type chainedMethodBuilder struct {
	next MethodBuilder
	t    MethodTransform
	err  error
}

// ChainMethod inserts t ahead of next, mirroring ChainClass.
func ChainMethod(next MethodBuilder, t MethodTransform) MethodBuilder {
	return &chainedMethodBuilder{next: next, t: t}
}

func (c *chainedMethodBuilder) Pool() *pool.Pool { return c.next.Pool() }

func (c *chainedMethodBuilder) With(e MethodAttrElement) {
	if c.err != nil {
		return
	}
	c.err = c.t(c.next, e)
}

func (c *chainedMethodBuilder) TransformCode(cm *code.CodeModel, opts asm.Options, ct CodeTransform) (*code.CodeModel, error) {
	return c.next.TransformCode(cm, opts, ct)
}

// ComposeMethod mirrors ComposeClass for method transforms.
func ComposeMethod(t1, t2 MethodTransform) MethodTransform {
	return func(b MethodBuilder, e MethodAttrElement) error {
		chained := ChainMethod(b, t2)
		if err := t1(chained, e); err != nil {
			return err
		}
		return chained.(*chainedMethodBuilder).err
	}
}

// TransformMethod re-emits method's attributes through t and returns a
// new MethodModel built from whatever the terminal builder accumulated.
// AccessFlags/NameIndex/DescriptorIndex carry over unchanged.
func TransformMethod(method *classfile.MethodModel, p *pool.Pool, t MethodTransform) (*classfile.MethodModel, error) {
	b := &terminalMethodBuilder{pool: p}
	for _, a := range method.Attributes {
		if err := t(b, MethodAttributeElement{Attribute: a}); err != nil {
			return nil, err
		}
	}
	return &classfile.MethodModel{
		AccessFlags: method.AccessFlags, NameIndex: method.NameIndex, DescriptorIndex: method.DescriptorIndex,
		Attributes: b.attrs,
	}, nil
}

// ForEachMethod runs t across every method of model via TransformClass's
// MethodElement case, a convenience for the common "rewrite every method
// body, leave fields and class attributes alone" transform.
func ForEachMethod(t MethodTransform) ClassTransform {
	return func(b ClassBuilder, e ClassElement) error {
		me, ok := e.(MethodElement)
		if !ok {
			return PassThroughClass(b, e)
		}
		newMethod, err := TransformMethod(me.Method, b.Pool(), t)
		if err != nil {
			return err
		}
		b.With(MethodElement{Method: newMethod})
		return nil
	}
}
