package code

import (
	"testing"

	"github.com/zboralski/goclassfile/attr"
)

func TestElementsStraightLineCode(t *testing.T) {
	cm := &CodeModel{
		MaxStack: 1, MaxLocals: 1,
		code: []byte{byte(Iconst0), byte(ReturnOp)},
	}
	elems, _, err := cm.Elements()
	if err != nil {
		t.Fatalf("Elements: %v", err)
	}
	if len(elems) != 2 {
		t.Fatalf("got %d elements, want 2: %#v", len(elems), elems)
	}
	if _, ok := elems[0].(ConstantInsn); !ok {
		t.Errorf("elems[0] = %T, want ConstantInsn", elems[0])
	}
	if _, ok := elems[1].(ReturnInsn); !ok {
		t.Errorf("elems[1] = %T, want ReturnInsn", elems[1])
	}
}

func TestElementsBranchGetsLabelElement(t *testing.T) {
	// goto +3 (bci 0..2), nop (bci 3)
	cm := &CodeModel{
		MaxStack: 0, MaxLocals: 0,
		code: []byte{byte(Goto), 0x00, 0x03, byte(Nop)},
	}
	elems, ctx, err := cm.Elements()
	if err != nil {
		t.Fatalf("Elements: %v", err)
	}
	if len(elems) != 3 {
		t.Fatalf("got %d elements, want 3: %#v", len(elems), elems)
	}
	br, ok := elems[0].(BranchInsn)
	if !ok {
		t.Fatalf("elems[0] = %T, want BranchInsn", elems[0])
	}
	lbl, ok := elems[1].(LabelElement)
	if !ok {
		t.Fatalf("elems[1] = %T, want LabelElement", elems[1])
	}
	if lbl.L != br.Target {
		t.Fatalf("branch target label and bound label element are different labels")
	}
	bci, err := ctx.Bci(lbl.L)
	if err != nil || bci != 3 {
		t.Fatalf("label bci = %d, %v; want 3, nil", bci, err)
	}
	if _, ok := elems[2].(NopInsn); !ok {
		t.Fatalf("elems[2] = %T, want NopInsn", elems[2])
	}
}

func TestElementsExceptionCatchEmittedFirst(t *testing.T) {
	cm := &CodeModel{
		MaxStack: 1, MaxLocals: 1,
		code: []byte{byte(Nop), byte(ReturnOp)},
		exceptions: []rawExceptionEntry{
			{StartPC: 0, EndPC: 1, HandlerPC: 1, CatchType: 0},
		},
	}
	elems, _, err := cm.Elements()
	if err != nil {
		t.Fatalf("Elements: %v", err)
	}
	ec, ok := elems[0].(ExceptionCatch)
	if !ok {
		t.Fatalf("elems[0] = %T, want ExceptionCatch", elems[0])
	}
	if ec.CatchType != 0 {
		t.Errorf("CatchType = %d, want 0 (catch-all)", ec.CatchType)
	}
}

func TestElementsLineNumberPrecedesInstruction(t *testing.T) {
	cm := &CodeModel{
		MaxStack: 0, MaxLocals: 0,
		code: []byte{byte(Nop)},
		Attributes: []attr.Attribute{
			&LineNumberTableAttr{Entries: []LineNumberTableEntry{{StartPC: 0, Line: 42}}},
		},
	}
	elems, _, err := cm.Elements()
	if err != nil {
		t.Fatalf("Elements: %v", err)
	}
	if len(elems) != 3 {
		t.Fatalf("got %d elements, want 3: %#v", len(elems), elems)
	}
	lbl, ok := elems[0].(LabelElement)
	if !ok {
		t.Fatalf("elems[0] = %T, want LabelElement", elems[0])
	}
	ln, ok := elems[1].(LineNumber)
	if !ok {
		t.Fatalf("elems[1] = %T, want LineNumber", elems[1])
	}
	if ln.Line != 42 {
		t.Errorf("Line = %d, want 42", ln.Line)
	}
	if ln.At != lbl.L {
		t.Errorf("LineNumber.At does not name the label bound at its bci")
	}
	if _, ok := elems[2].(NopInsn); !ok {
		t.Fatalf("elems[2] = %T, want NopInsn", elems[2])
	}
}
