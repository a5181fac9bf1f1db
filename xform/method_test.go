package xform

import (
	"testing"

	"github.com/zboralski/goclassfile/asm"
	"github.com/zboralski/goclassfile/attr"
	"github.com/zboralski/goclassfile/classfile"
	"github.com/zboralski/goclassfile/code"
	"github.com/zboralski/goclassfile/pool"
)

// rewriteCode is a MethodTransform that recognizes the method's Code
// attribute and rewrites its body with ct, leaving every other attribute
// untouched.
func rewriteCode(ct CodeTransform) MethodTransform {
	return func(b MethodBuilder, e MethodAttrElement) error {
		mae, ok := e.(MethodAttributeElement)
		if !ok {
			b.With(e)
			return nil
		}
		ca, ok := mae.Attribute.(*code.CodeAttribute)
		if !ok {
			b.With(e)
			return nil
		}
		cm, err := ca.Code()
		if err != nil {
			return err
		}
		newCm, err := b.TransformCode(cm, asm.Options{}, ct)
		if err != nil {
			return err
		}
		b.With(MethodAttributeElement{Attribute: &code.CodeAttribute{Model: newCm}})
		return nil
	}
}

func TestTransformMethodRewritesCode(t *testing.T) {
	p := pool.New()
	cm := code.NewCodeModel(1, 0, []byte{0x00, 0x00, 0xB1}, nil, nil) // nop; nop; return
	method := &classfile.MethodModel{
		AccessFlags: 0x0001, NameIndex: 1, DescriptorIndex: 2,
		Attributes: []attr.Attribute{&code.CodeAttribute{Model: cm}},
	}
	out, err := TransformMethod(method, p, rewriteCode(dropNops))
	if err != nil {
		t.Fatalf("TransformMethod: %v", err)
	}
	if out.AccessFlags != method.AccessFlags || out.NameIndex != method.NameIndex {
		t.Fatalf("method header should carry over unchanged, got %+v", out)
	}
	if len(out.Attributes) != 1 {
		t.Fatalf("expected exactly one (Code) attribute, got %d", len(out.Attributes))
	}
	ca, ok := out.Attributes[0].(*code.CodeAttribute)
	if !ok {
		t.Fatalf("expected a *code.CodeAttribute, got %T", out.Attributes[0])
	}
	newCm, err := ca.Code()
	if err != nil {
		t.Fatal(err)
	}
	elems, _, err := newCm.Elements()
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range elems {
		if _, ok := e.(code.NopInsn); ok {
			t.Fatalf("nop survived the method-level transform: %+v", elems)
		}
	}
}
