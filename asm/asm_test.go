package asm

import (
	"testing"

	"github.com/zboralski/goclassfile/code"
	"github.com/zboralski/goclassfile/label"
	"github.com/zboralski/goclassfile/pool"
	"github.com/zboralski/goclassfile/stackmap"
)

func loadInsn(op code.Opcode, slot int) code.LoadInsn {
	li := code.LoadInsn{Slot: slot}
	li.Op = op
	return li
}

func invokeInsn(op code.Opcode, methodref uint16) code.InvokeInsn {
	ii := code.InvokeInsn{MethodrefIndex: methodref}
	ii.Op = op
	return ii
}

func returnInsn(op code.Opcode) code.ReturnInsn {
	ri := code.ReturnInsn{}
	ri.Op = op
	return ri
}

func nopInsn() code.NopInsn {
	ni := code.NopInsn{}
	ni.Op = code.Nop
	return ni
}

func branchInsn(op code.Opcode, target *label.Label) code.BranchInsn {
	bi := code.BranchInsn{Target: target}
	bi.Op = op
	return bi
}

func TestAssembleAloadInvokespecialReturn(t *testing.T) {
	elems := []code.Element{
		loadInsn(code.Aload0, 0),
		invokeInsn(code.Invokespecial, 9),
		returnInsn(code.ReturnOp),
	}
	a := New(Options{})
	cm, err := a.Assemble(elems, 1, 1)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if cm.MaxStack != 1 || cm.MaxLocals != 1 {
		t.Fatalf("MaxStack/MaxLocals = %d/%d", cm.MaxStack, cm.MaxLocals)
	}
}

func TestAssembleForwardBranch(t *testing.T) {
	ctx := label.NewContext()
	end := ctx.NewLabel()
	elems := []code.Element{
		branchInsn(code.Goto, end),
		nopInsn(),
		code.LabelElement{L: end},
		returnInsn(code.ReturnOp),
	}
	a := New(Options{})
	cm, err := a.Assemble(elems, 0, 0)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if cm == nil {
		t.Fatal("expected a CodeModel")
	}
}

func TestAssembleFailOnShortJumpsOverflow(t *testing.T) {
	ctx := label.NewContext()
	far := ctx.NewLabel()
	elems := make([]code.Element, 0, 70000)
	elems = append(elems, branchInsn(code.Ifeq, far))
	for i := 0; i < 70000; i++ {
		elems = append(elems, nopInsn())
	}
	elems = append(elems, code.LabelElement{L: far})
	elems = append(elems, returnInsn(code.ReturnOp))

	a := New(Options{ShortJumps: FailOnShortJumps})
	if _, err := a.Assemble(elems, 0, 0); err == nil {
		t.Fatal("expected ErrShortJumpOverflow")
	}

	a2 := New(Options{ShortJumps: FixShortJumps})
	cm, err := a2.Assemble(elems, 0, 0)
	if err != nil {
		t.Fatalf("Assemble with FixShortJumps: %v", err)
	}
	if cm == nil {
		t.Fatal("expected a CodeModel")
	}
}

func TestAssembleDeadCodePatched(t *testing.T) {
	ctx := label.NewContext()
	after := ctx.NewLabel()
	elems := []code.Element{
		branchInsn(code.Goto, after), // unconditional jump over the nop below
		nopInsn(),                    // unreachable
		code.LabelElement{L: after},
		returnInsn(code.ReturnOp),
	}
	a := New(Options{DeadCode: PatchDeadCode})
	cm, err := a.Assemble(elems, 0, 0)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if cm == nil {
		t.Fatal("expected a CodeModel")
	}

	decoded, _, err := cm.Elements()
	if err != nil {
		t.Fatalf("Elements: %v", err)
	}
	var sawAthrow bool
	for _, e := range decoded {
		if insn, ok := e.(code.Instruction); ok && insn.Opcode() == code.Athrow {
			sawAthrow = true
		}
	}
	if !sawAthrow {
		t.Fatalf("expected the patched dead range to end in athrow, got %+v", decoded)
	}

	g := stackmap.New(pool.New(), stackmap.Options{})
	smt, err := g.Generate(cm, stackmap.MethodShape{Descriptor: "()V", IsStatic: true})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	var deadFrame *code.Frame
	for i := range smt.Frames {
		if smt.Frames[i].At == 3 { // goto is 3 bytes; the patched nop sits at bci 3
			deadFrame = &smt.Frames[i]
		}
	}
	if deadFrame == nil {
		t.Fatalf("expected a StackMapTable frame at the dead block's bci, got %+v", smt.Frames)
	}
	if len(deadFrame.Locals) != 0 {
		t.Fatalf("dead block frame should have no locals, got %v", deadFrame.Locals)
	}
	if len(deadFrame.Stack) != 1 || deadFrame.Stack[0].Kind != code.VObject {
		t.Fatalf("dead block frame should carry a single Throwable reference, got %v", deadFrame.Stack)
	}

	a2 := New(Options{DeadCode: FailOnDeadCode})
	if _, err := a2.Assemble(elems, 0, 0); err == nil {
		t.Fatal("expected ErrDeadCode")
	}
}
