package xform

import (
	"errors"
	"fmt"

	"github.com/zboralski/goclassfile/asm"
	"github.com/zboralski/goclassfile/code"
	"github.com/zboralski/goclassfile/label"
)

// ErrDeadLabels is wrapped into the error TransformCodeChecked returns when
// failOnDeadLabels is set and the transform left one or more labels unbound.
var ErrDeadLabels = errors.New("xform: dead label referenced by no LabelElement")

// CodeTransform consumes one code.Element, emitting zero or more
// replacements into b.
type CodeTransform func(b CodeBuilder, e code.Element) error

// PassThroughCode re-emits e unchanged; the identity transform.
func PassThroughCode(b CodeBuilder, e code.Element) error {
	b.With(e)
	return nil
}

// CodeBuilder is the buffered code builder: an
// in-memory element list plus a way to mint fresh labels, so a transform
// can reference a branch target it is about to splice in before that
// target's bci is known. Buffering the whole stream and handing it to
// asm.Assembler in one shot — rather than writing bytes as elements
// arrive — is what makes that legal.
type CodeBuilder interface {
	NewLabel() *label.Label
	With(e code.Element)
	// DeadLabels reports every label minted through NewLabel that was
	// never bound via a LabelElement offered back to With — the "dead
	// labels" a deadLabels policy fails or drops on.
	DeadLabels() []*label.Label
}

type bufferedCodeBuilder struct {
	ctx   *label.Context
	elems []code.Element
}

func (b *bufferedCodeBuilder) NewLabel() *label.Label { return b.ctx.NewLabel() }
func (b *bufferedCodeBuilder) With(e code.Element)    { b.elems = append(b.elems, e) }

func (b *bufferedCodeBuilder) DeadLabels() []*label.Label {
	bound := make(map[*label.Label]bool)
	for _, e := range b.elems {
		if le, ok := e.(code.LabelElement); ok {
			bound[le.L] = true
		}
	}
	var dead []*label.Label
	for _, l := range b.ctx.Labels() {
		if !bound[l] {
			dead = append(dead, l)
		}
	}
	return dead
}

type chainedCodeBuilder struct {
	next CodeBuilder
	t    CodeTransform
	err  error
}

// ChainCode inserts t ahead of next, mirroring ChainClass/ChainMethod.
func ChainCode(next CodeBuilder, t CodeTransform) CodeBuilder {
	return &chainedCodeBuilder{next: next, t: t}
}

func (c *chainedCodeBuilder) NewLabel() *label.Label      { return c.next.NewLabel() }
func (c *chainedCodeBuilder) DeadLabels() []*label.Label { return c.next.DeadLabels() }

func (c *chainedCodeBuilder) With(e code.Element) {
	if c.err != nil {
		return
	}
	c.err = c.t(c.next, e)
}

// ComposeCode mirrors ComposeClass/ComposeMethod for code transforms.
func ComposeCode(t1, t2 CodeTransform) CodeTransform {
	return func(b CodeBuilder, e code.Element) error {
		chained := ChainCode(b, t2)
		if err := t1(chained, e); err != nil {
			return err
		}
		return chained.(*chainedCodeBuilder).err
	}
}

// TransformCode decodes cm's element stream, re-emits every element
// through ct into a fresh buffered code builder, and assembles whatever
// ct produced into a new CodeModel via an Assembler configured with opts.
// MaxStack/MaxLocals carry over from cm unchanged: recomputing them for a
// transform that changes stack depth or local count is the caller's job
// (the StackMapGenerator computes verification-type frames, not
// max-stack/max-locals bounds).
func TransformCode(cm *code.CodeModel, opts asm.Options, ct CodeTransform) (*code.CodeModel, error) {
	elems, _, err := cm.Elements()
	if err != nil {
		return nil, err
	}
	b := &bufferedCodeBuilder{ctx: label.NewContext()}
	for _, e := range elems {
		if err := ct(b, e); err != nil {
			return nil, err
		}
	}
	a := asm.New(opts)
	return a.Assemble(b.elems, cm.MaxStack, cm.MaxLocals)
}

// TransformCodeChecked behaves like TransformCode but additionally enforces
// a deadLabels policy: when failOnDeadLabels is set, a label
// the transform minted and never bound via a LabelElement fails the whole
// transform instead of silently vanishing from the assembled output.
func TransformCodeChecked(cm *code.CodeModel, opts asm.Options, ct CodeTransform, failOnDeadLabels bool) (*code.CodeModel, error) {
	elems, _, err := cm.Elements()
	if err != nil {
		return nil, err
	}
	b := &bufferedCodeBuilder{ctx: label.NewContext()}
	for _, e := range elems {
		if err := ct(b, e); err != nil {
			return nil, err
		}
	}
	if failOnDeadLabels {
		if dead := b.DeadLabels(); len(dead) > 0 {
			return nil, fmt.Errorf("%w: %d label(s)", ErrDeadLabels, len(dead))
		}
	}
	a := asm.New(opts)
	return a.Assemble(b.elems, cm.MaxStack, cm.MaxLocals)
}
