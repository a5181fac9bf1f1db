package xform

import (
	"testing"

	"github.com/zboralski/goclassfile/asm"
	"github.com/zboralski/goclassfile/code"
)

func nopInsn() code.NopInsn {
	ni := code.NopInsn{}
	ni.Op = code.Nop
	return ni
}

func returnInsn(op code.Opcode) code.ReturnInsn {
	ri := code.ReturnInsn{}
	ri.Op = op
	return ri
}

// dropNops is a CodeTransform that drops every nop and passes everything
// else through unchanged.
func dropNops(b CodeBuilder, e code.Element) error {
	if _, ok := e.(code.NopInsn); ok {
		return nil
	}
	b.With(e)
	return nil
}

func TestTransformCodeDropsNops(t *testing.T) {
	cm := code.NewCodeModel(1, 0, []byte{0x00, 0x00, 0xB1}, nil, nil) // nop; nop; return
	out, err := TransformCode(cm, asm.Options{}, dropNops)
	if err != nil {
		t.Fatalf("TransformCode: %v", err)
	}
	elems, _, err := out.Elements()
	if err != nil {
		t.Fatalf("Elements: %v", err)
	}
	for _, e := range elems {
		if _, ok := e.(code.NopInsn); ok {
			t.Fatalf("nop survived the transform: %+v", elems)
		}
	}
}

func TestTransformCodePassThroughPreservesShape(t *testing.T) {
	cm := code.NewCodeModel(1, 0, []byte{0x00, 0xB1}, nil, nil) // nop; return
	out, err := TransformCode(cm, asm.Options{}, PassThroughCode)
	if err != nil {
		t.Fatalf("TransformCode: %v", err)
	}
	elems, _, err := out.Elements()
	if err != nil {
		t.Fatalf("Elements: %v", err)
	}
	if len(elems) != 2 {
		t.Fatalf("expected 2 elements (nop, return), got %d: %+v", len(elems), elems)
	}
}

func TestComposeCodeRunsBothTransforms(t *testing.T) {
	var sawReturn bool
	markReturn := func(b CodeBuilder, e code.Element) error {
		if _, ok := e.(code.ReturnInsn); ok {
			sawReturn = true
		}
		b.With(e)
		return nil
	}
	composed := ComposeCode(dropNops, CodeTransform(markReturn))

	cm := code.NewCodeModel(1, 0, []byte{0x00, 0xB1}, nil, nil) // nop; return
	out, err := TransformCode(cm, asm.Options{}, composed)
	if err != nil {
		t.Fatalf("TransformCode: %v", err)
	}
	if !sawReturn {
		t.Fatal("composed transform never reached the inner markReturn stage")
	}
	elems, _, err := out.Elements()
	if err != nil {
		t.Fatalf("Elements: %v", err)
	}
	if len(elems) != 1 {
		t.Fatalf("expected the nop to be dropped, got %d elements: %+v", len(elems), elems)
	}
}
