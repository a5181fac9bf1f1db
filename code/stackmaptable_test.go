package code

import (
	"testing"

	"github.com/zboralski/goclassfile/internal/byteio"
)

// TestDecodeStackMapTableLocalsCarryForward exercises the delta semantics
// JVMS §4.7.4 defines for SAME/APPEND/CHOP: each of those frame kinds
// describes its locals vector relative to the *previous* frame's, not as
// self-contained data.
func TestDecodeStackMapTableLocalsCarryForward(t *testing.T) {
	data := []byte{
		0x00, 0x03, // number_of_entries = 3

		// frame 0: FULL_FRAME at bci 0, locals=[Integer]
		0xFF,
		0x00, 0x00, // offset_delta = 0
		0x00, 0x01, // number_of_locals = 1
		0x01,       // Integer
		0x00, 0x00, // number_of_stack_items = 0

		// frame 1: APPEND(+1) at bci 0+1+5=6, appends Float
		0xFC,
		0x00, 0x05, // offset_delta = 5
		0x02, // Float

		// frame 2: CHOP(-2) at bci 6+1+3=10
		0xF9,
		0x00, 0x03, // offset_delta = 3
	}
	v := byteio.NewView(data)
	a, err := decodeStackMapTable(v, nil, 0, len(data))
	if err != nil {
		t.Fatalf("decodeStackMapTable: %v", err)
	}
	smt := a.(*StackMapTableAttr)
	if len(smt.Frames) != 3 {
		t.Fatalf("got %d frames, want 3", len(smt.Frames))
	}

	f0, f1, f2 := smt.Frames[0], smt.Frames[1], smt.Frames[2]

	if f0.At != 0 || len(f0.Locals) != 1 || f0.Locals[0].Kind != VInteger {
		t.Fatalf("frame0 = %+v, want At=0 Locals=[Integer]", f0)
	}

	if f1.At != 6 {
		t.Fatalf("frame1.At = %d, want 6", f1.At)
	}
	if len(f1.Locals) != 2 || f1.Locals[0].Kind != VInteger || f1.Locals[1].Kind != VFloat {
		t.Fatalf("frame1.Locals = %+v, want [Integer Float] (appended onto frame0's locals)", f1.Locals)
	}

	if f2.At != 10 {
		t.Fatalf("frame2.At = %d, want 10", f2.At)
	}
	if len(f2.Locals) != 0 {
		t.Fatalf("frame2.Locals = %+v, want empty (CHOP 2 off frame1's 2 locals)", f2.Locals)
	}
}

func TestDecodeStackMapTableSameReusesPreviousLocals(t *testing.T) {
	data := []byte{
		0x00, 0x02,
		0xFF, 0x00, 0x00, 0x00, 0x01, 0x01, 0x00, 0x00, // FULL_FRAME bci 0, locals=[Integer]
		0x05, // SAME, delta=5 -> bci = 0+1+5 = 6
	}
	v := byteio.NewView(data)
	a, err := decodeStackMapTable(v, nil, 0, len(data))
	if err != nil {
		t.Fatalf("decodeStackMapTable: %v", err)
	}
	smt := a.(*StackMapTableAttr)
	if len(smt.Frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(smt.Frames))
	}
	same := smt.Frames[1]
	if same.At != 6 {
		t.Fatalf("same.At = %d, want 6", same.At)
	}
	if len(same.Locals) != 1 || same.Locals[0].Kind != VInteger {
		t.Fatalf("SAME frame should carry forward the previous frame's locals, got %+v", same.Locals)
	}
	if len(same.Stack) != 0 {
		t.Fatalf("SAME frame must have an empty stack, got %+v", same.Stack)
	}
}

func TestDecodeStackMapTableChopBeyondAvailableLocalsErrors(t *testing.T) {
	data := []byte{
		0x00, 0x02,
		0xFF, 0x00, 0x00, 0x00, 0x01, 0x01, 0x00, 0x00, // FULL_FRAME bci 0, locals=[Integer]
		0xF8, 0x00, 0x00, // CHOP(-3), but only 1 local exists
	}
	v := byteio.NewView(data)
	if _, err := decodeStackMapTable(v, nil, 0, len(data)); err == nil {
		t.Fatal("expected an error chopping more locals than the previous frame had")
	}
}

func TestEncodeStackMapTableFullRoundTrips(t *testing.T) {
	smt := &StackMapTableAttr{Frames: []Frame{
		{At: 0, Locals: []VType{Integer()}, Stack: nil},
		{At: 6, Locals: []VType{Integer(), Float()}, Stack: []VType{Object(42)}},
	}}
	buf := byteio.NewBuf(32)
	if err := smt.EncodeFull(buf, nil); err != nil {
		t.Fatalf("EncodeFull: %v", err)
	}
	decoded, err := decodeStackMapTable(byteio.NewView(buf.Bytes()), nil, 0, buf.Size())
	if err != nil {
		t.Fatalf("decodeStackMapTable round-trip: %v", err)
	}
	got := decoded.(*StackMapTableAttr)
	if len(got.Frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(got.Frames))
	}
	if got.Frames[1].At != 6 || len(got.Frames[1].Stack) != 1 || got.Frames[1].Stack[0].ClassIndex != 42 {
		t.Fatalf("frame1 round-trip mismatch: %+v", got.Frames[1])
	}
}
