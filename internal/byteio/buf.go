package byteio

// Buf is an append-only, big-endian byte writer. The only mutation allowed
// after bytes have been appended is Patch*, used by the assembler to fix up
// forward references (branch targets, attribute lengths) once their final
// value is known without requiring a second pass over the element stream.
type Buf struct {
	b []byte
}

// NewBuf returns an empty writer, optionally pre-sized.
func NewBuf(capacityHint int) *Buf {
	return &Buf{b: make([]byte, 0, capacityHint)}
}

// Size returns the number of bytes written so far.
func (w *Buf) Size() int { return len(w.b) }

// Mark returns a position token for the current end of the buffer, to be
// passed to PatchU2/PatchU4 once the value to write there is known.
func (w *Buf) Mark() int { return len(w.b) }

// WriteU1 appends a single byte.
func (w *Buf) WriteU1(v uint8) {
	w.b = append(w.b, v)
}

// WriteU2 appends a big-endian 16-bit value.
func (w *Buf) WriteU2(v uint16) {
	w.b = append(w.b, byte(v>>8), byte(v))
}

// WriteU4 appends a big-endian 32-bit value.
func (w *Buf) WriteU4(v uint32) {
	w.b = append(w.b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// WriteS2 appends the two's-complement encoding of a signed 16-bit value.
func (w *Buf) WriteS2(v int16) { w.WriteU2(uint16(v)) }

// WriteS4 appends the two's-complement encoding of a signed 32-bit value.
func (w *Buf) WriteS4(v int32) { w.WriteU4(uint32(v)) }

// WriteBytes appends raw bytes verbatim.
func (w *Buf) WriteBytes(p []byte) {
	w.b = append(w.b, p...)
}

// PatchU2 overwrites the 2 bytes at pos (previously obtained from Mark) with
// v. pos+2 must not exceed the buffer's current size.
func (w *Buf) PatchU2(pos int, v uint16) {
	w.b[pos] = byte(v >> 8)
	w.b[pos+1] = byte(v)
}

// PatchU4 overwrites the 4 bytes at pos with v.
func (w *Buf) PatchU4(pos int, v uint32) {
	w.b[pos] = byte(v >> 24)
	w.b[pos+1] = byte(v >> 16)
	w.b[pos+2] = byte(v >> 8)
	w.b[pos+3] = byte(v)
}

// PatchS2 overwrites the 2 bytes at pos with the two's-complement encoding
// of a signed value, used to fix up branch operands once a label's bci is
// known.
func (w *Buf) PatchS2(pos int, v int16) { w.PatchU2(pos, uint16(v)) }

// PatchS4 overwrites the 4 bytes at pos with the two's-complement encoding
// of a signed value (used for the wide branch forms, `goto_w`/`jsr_w`).
func (w *Buf) PatchS4(pos int, v int32) { w.PatchU4(pos, uint32(v)) }

// InsertBytes splices p into the buffer at pos, shifting everything after
// pos forward by len(p).
func (w *Buf) InsertBytes(pos int, p []byte) {
	w.b = append(w.b[:pos], append(append([]byte{}, p...), w.b[pos:]...)...)
}

// Into returns the final owned byte array. The writer must not be used
// after calling Into.
func (w *Buf) Into() []byte {
	return w.b
}

// Bytes returns the bytes written so far without consuming the writer,
// useful for computing an attribute's length before its header is patched.
func (w *Buf) Bytes() []byte {
	return w.b
}
