package stackmap

import (
	"testing"

	"github.com/zboralski/goclassfile/code"
	"github.com/zboralski/goclassfile/pool"
)

func TestGenerateStraightLineMethodProducesNoFrames(t *testing.T) {
	p := pool.New()
	// iconst_1; ireturn
	cm := code.NewCodeModel(1, 0, []byte{0x04, 0xAC}, nil, nil)

	g := New(p, Options{})
	attr, err := g.Generate(cm, MethodShape{Descriptor: "()I", IsStatic: true})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(attr.Frames) != 0 {
		t.Fatalf("expected no frames for a single-block method, got %d", len(attr.Frames))
	}
}

func TestGenerateBranchMergeProducesFrames(t *testing.T) {
	p := pool.New()
	thisClass, err := p.InternClass("com/example/Widget")
	if err != nil {
		t.Fatal(err)
	}

	// bci 0: iload_1
	// bci 2: ifeq -> bci 9
	// bci 5: iconst_1
	// bci 6: goto -> bci 10
	// bci 9: iconst_0
	// bci 10: ireturn
	codeBytes := []byte{
		0x15, 0x01, // iload_1
		0x99, 0x00, 0x07, // ifeq +7 (-> 9)
		0x04,             // iconst_1
		0xA7, 0x00, 0x04, // goto +4 (-> 10)
		0x03, // iconst_0
		0xAC, // ireturn
	}
	cm := code.NewCodeModel(2, 2, codeBytes, nil, nil)

	g := New(p, Options{})
	attr, err := g.Generate(cm, MethodShape{Descriptor: "(I)I", IsStatic: false, ThisClass: thisClass})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(attr.Frames) != 2 {
		t.Fatalf("expected 2 frames (branch target + merge point), got %d: %+v", len(attr.Frames), attr.Frames)
	}
	if attr.Frames[0].At != 9 || attr.Frames[1].At != 10 {
		t.Fatalf("unexpected frame bcis: %d, %d", attr.Frames[0].At, attr.Frames[1].At)
	}
	if len(attr.Frames[0].Stack) != 0 {
		t.Fatalf("frame at ifeq target should have an empty stack, got %v", attr.Frames[0].Stack)
	}
	merged := attr.Frames[1]
	if len(merged.Stack) != 1 || merged.Stack[0].Kind != code.VInteger {
		t.Fatalf("merged frame should carry a single int on the stack, got %v", merged.Stack)
	}
	if len(merged.Locals) != 2 || merged.Locals[0].Kind != code.VObject || merged.Locals[1].Kind != code.VInteger {
		t.Fatalf("unexpected merged locals: %v", merged.Locals)
	}
}

func TestGenerateExceptionHandlerSeedsThrowableStack(t *testing.T) {
	p := pool.New()
	// bci 0: nop                (try region)
	// bci 1: goto -> 8           (skip handler on the normal path)
	// bci 4: pop (handler: discard the Throwable)
	// bci 5: goto -> 8
	// bci 8: return
	codeBytes := []byte{
		0x00,             // nop
		0xA7, 0x00, 0x07, // goto +7 (-> 8)
		0x57,             // pop (handler: discard the Throwable)
		0xA7, 0x00, 0x03, // goto +3 (-> 8)
		0xB1, // return
	}
	cm := code.NewCodeModel(1, 0, codeBytes, []code.ExceptionEntry{
		{StartPC: 0, EndPC: 1, HandlerPC: 4, CatchType: 0},
	}, nil)

	g := New(p, Options{})
	attr, err := g.Generate(cm, MethodShape{Descriptor: "()V", IsStatic: true})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	var handlerFrame *code.Frame
	for i := range attr.Frames {
		if attr.Frames[i].At == 4 {
			handlerFrame = &attr.Frames[i]
		}
	}
	if handlerFrame == nil {
		t.Fatalf("expected a frame at the handler bci 4, got %+v", attr.Frames)
	}
	if len(handlerFrame.Stack) != 1 || handlerFrame.Stack[0].Kind != code.VObject {
		t.Fatalf("handler frame should carry a single Throwable reference, got %v", handlerFrame.Stack)
	}
}

func TestGenerateDeadCodeBlockSeedsThrowableFrame(t *testing.T) {
	p := pool.New()
	// bci 0: return
	// bci 1: nop      (dead; PatchDeadCode's fill)
	// bci 2: athrow   (dead; PatchDeadCode's terminator)
	codeBytes := []byte{0xB1, 0x00, 0xBF}
	cm := code.NewCodeModel(0, 0, codeBytes, nil, nil)

	g := New(p, Options{})
	attr, err := g.Generate(cm, MethodShape{Descriptor: "()V", IsStatic: true})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	var deadFrame *code.Frame
	for i := range attr.Frames {
		if attr.Frames[i].At == 1 {
			deadFrame = &attr.Frames[i]
		}
	}
	if deadFrame == nil {
		t.Fatalf("expected a frame at the dead block's bci 1, got %+v", attr.Frames)
	}
	if len(deadFrame.Locals) != 0 {
		t.Fatalf("dead block frame should have no locals, got %v", deadFrame.Locals)
	}
	if len(deadFrame.Stack) != 1 || deadFrame.Stack[0].Kind != code.VObject {
		t.Fatalf("dead block frame should carry a single Throwable reference, got %v", deadFrame.Stack)
	}
}

func TestParseOneArrayDescriptor(t *testing.T) {
	p := pool.New()
	vt, next, err := parseOne(p, "[Ljava/lang/String;", 0)
	if err != nil {
		t.Fatalf("parseOne: %v", err)
	}
	if next != len("[Ljava/lang/String;") {
		t.Fatalf("next = %d, want %d", next, len("[Ljava/lang/String;"))
	}
	if vt.Kind != code.VObject {
		t.Fatalf("array descriptor should parse as an Object verification type, got %v", vt)
	}
	name, err := p.ClassName(vt.ClassIndex)
	if err != nil {
		t.Fatal(err)
	}
	if name != "[Ljava/lang/String;" {
		t.Fatalf("interned array class name = %q", name)
	}
}

func TestInitialLocalsInstanceMethod(t *testing.T) {
	p := pool.New()
	thisClass, err := p.InternClass("com/example/Widget")
	if err != nil {
		t.Fatal(err)
	}
	locals, err := initialLocals(p, "(IJLjava/lang/String;)V", false, false, code.Object(thisClass))
	if err != nil {
		t.Fatalf("initialLocals: %v", err)
	}
	// this, int, long, String — long does not get a synthetic Top companion
	// entry in this vector form (JVMS §4.7.4's locals list has one entry
	// per variable, not per slot).
	if len(locals) != 4 {
		t.Fatalf("locals = %v, want 4 entries", locals)
	}
	if locals[0].Kind != code.VObject || locals[1].Kind != code.VInteger ||
		locals[2].Kind != code.VLong || locals[3].Kind != code.VObject {
		t.Fatalf("unexpected locals: %v", locals)
	}
}
