package byteio

import "testing"

func TestBufWriteAndPatch(t *testing.T) {
	w := NewBuf(0)
	w.WriteU4(0xCAFEBABE)
	pos := w.Mark()
	w.WriteU2(0) // placeholder, patched below
	w.WriteU2(7)

	w.PatchU2(pos, 42)

	got := w.Into()
	want := []byte{0xCA, 0xFE, 0xBA, 0xBE, 0x00, 42, 0x00, 0x07}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d = %x, want %x", i, got[i], want[i])
		}
	}
}

func TestBufInsertBytesShiftsTail(t *testing.T) {
	w := NewBuf(0)
	w.WriteU1(1)
	w.WriteU1(2)
	w.WriteU1(5)
	w.InsertBytes(2, []byte{3, 4})

	got := w.Into()
	want := []byte{1, 2, 3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d = %d, want %d", i, got[i], want[i])
		}
	}
}
