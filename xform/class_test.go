package xform

import (
	"testing"

	"github.com/zboralski/goclassfile/classfile"
	"github.com/zboralski/goclassfile/pool"
)

func TestTransformClassPassThroughPreservesShape(t *testing.T) {
	p := pool.New()
	model := &classfile.ClassModel{
		MinorVersion: 0, MajorVersion: 52,
		Pool: p, AccessFlags: 0x0021,
		ThisClassIndex: 1, SuperClassIndex: 2,
		Fields:  []*classfile.FieldModel{{AccessFlags: 0x0001, NameIndex: 3, DescriptorIndex: 4}},
		Methods: []*classfile.MethodModel{{AccessFlags: 0x0001, NameIndex: 5, DescriptorIndex: 6}},
	}
	out, err := TransformClass(model, p, 0, PassThroughClass)
	if err != nil {
		t.Fatalf("TransformClass: %v", err)
	}
	if out.ThisClassIndex != model.ThisClassIndex || out.SuperClassIndex != model.SuperClassIndex {
		t.Fatalf("header should carry over unchanged, got %+v", out)
	}
	if len(out.Fields) != 1 || len(out.Methods) != 1 {
		t.Fatalf("expected the one field and one method to pass through, got %+v", out)
	}
}

func TestTransformClassRenamesThisClass(t *testing.T) {
	p := pool.New()
	model := &classfile.ClassModel{
		MajorVersion: 52, Pool: p, AccessFlags: 0x0021,
		ThisClassIndex: 1, SuperClassIndex: 2,
	}
	newIdx, err := p.InternClass("com/example/Renamed")
	if err != nil {
		t.Fatal(err)
	}
	out, err := TransformClass(model, p, newIdx, PassThroughClass)
	if err != nil {
		t.Fatalf("TransformClass: %v", err)
	}
	if out.ThisClassIndex != newIdx {
		t.Fatalf("ThisClassIndex = %d, want %d", out.ThisClassIndex, newIdx)
	}
}

func TestTransformClassDropsAField(t *testing.T) {
	p := pool.New()
	model := &classfile.ClassModel{
		MajorVersion: 52, Pool: p,
		Fields: []*classfile.FieldModel{
			{NameIndex: 1, DescriptorIndex: 2},
			{NameIndex: 3, DescriptorIndex: 4},
		},
	}
	dropSecond := func(b ClassBuilder, e ClassElement) error {
		if fe, ok := e.(FieldElement); ok && fe.Field.NameIndex == 3 {
			return nil
		}
		b.With(e)
		return nil
	}
	out, err := TransformClass(model, p, 0, dropSecond)
	if err != nil {
		t.Fatalf("TransformClass: %v", err)
	}
	if len(out.Fields) != 1 || out.Fields[0].NameIndex != 1 {
		t.Fatalf("expected only the first field to survive, got %+v", out.Fields)
	}
}
