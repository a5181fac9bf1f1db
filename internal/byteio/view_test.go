package byteio

import "testing"

func TestViewReads(t *testing.T) {
	data := []byte{0xCA, 0xFE, 0xBA, 0xBE, 0x00, 0x34, 0xFF, 0xFF}
	v := NewView(data)

	if u4, err := v.U4(0); err != nil || u4 != 0xCAFEBABE {
		t.Fatalf("U4(0) = %x, %v; want 0xCAFEBABE", u4, err)
	}
	if u2, err := v.U2(4); err != nil || u2 != 0x0034 {
		t.Fatalf("U2(4) = %x, %v; want 0x0034", u2, err)
	}
	if s2, err := v.S2(6); err != nil || s2 != -1 {
		t.Fatalf("S2(6) = %d, %v; want -1", s2, err)
	}
}

func TestViewOutOfRange(t *testing.T) {
	v := NewView([]byte{1, 2, 3})
	if _, err := v.U4(0); err == nil {
		t.Fatal("expected out-of-range error reading U4 from a 3-byte view")
	}
	if _, err := v.U1(10); err == nil {
		t.Fatal("expected out-of-range error for offset beyond length")
	}
}

func TestViewReadBytesCopies(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	v := NewView(data)
	got, err := v.ReadBytes(1, 2)
	if err != nil {
		t.Fatal(err)
	}
	got[0] = 0xFF
	if data[1] == 0xFF {
		t.Fatal("ReadBytes must copy, not alias the backing array")
	}
}
