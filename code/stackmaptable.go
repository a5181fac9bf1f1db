package code

import (
	"fmt"

	"github.com/zboralski/goclassfile/attr"
	"github.com/zboralski/goclassfile/internal/byteio"
	"github.com/zboralski/goclassfile/pool"
)

// NameStackMapTable is the StackMapTable attribute's name (JVMS §4.7.4).
const NameStackMapTable = "StackMapTable"

// StackMapTableAttr is the Code attribute's StackMapTable sub-attribute:
// a sequence of frames, each describing the verifier state at one bci.
// Frame.At on each entry is an absolute bci. Decoding accepts every frame
// form of JVMS §4.7.4; encoding (EncodeFull) writes every frame as
// FULL_FRAME only, computing offset_delta from the previous frame's bci
// (initially -1). The compact SAME/CHOP/APPEND forms are never written.
type StackMapTableAttr struct {
	Frames []Frame
}

func (a *StackMapTableAttr) Name() string { return NameStackMapTable }

func decodeVType(v *byteio.View, off int) (VType, int, error) {
	tag, err := v.U1(off)
	if err != nil {
		return VType{}, 0, err
	}
	switch tag {
	case 0:
		return Top(), 1, nil
	case 1:
		return Integer(), 1, nil
	case 2:
		return Float(), 1, nil
	case 3:
		return Double(), 1, nil
	case 4:
		return Long(), 1, nil
	case 5:
		return Null(), 1, nil
	case 6:
		return UninitializedThis(), 1, nil
	case 7:
		idx, err := v.U2(off + 1)
		if err != nil {
			return VType{}, 0, err
		}
		return Object(idx), 3, nil
	case 8:
		bci, err := v.U2(off + 1)
		if err != nil {
			return VType{}, 0, err
		}
		return Uninitialized(int(bci)), 3, nil
	default:
		return VType{}, 0, fmt.Errorf("code: bad verification_type_info tag %d", tag)
	}
}

func encodeVType(buf *byteio.Buf, v VType) {
	switch v.Kind {
	case VTop:
		buf.WriteU1(0)
	case VInteger:
		buf.WriteU1(1)
	case VFloat:
		buf.WriteU1(2)
	case VDouble:
		buf.WriteU1(3)
	case VLong:
		buf.WriteU1(4)
	case VNull:
		buf.WriteU1(5)
	case VUninitializedThis:
		buf.WriteU1(6)
	case VObject:
		buf.WriteU1(7)
		buf.WriteU2(v.ClassIndex)
	case VUninitialized:
		buf.WriteU1(8)
		buf.WriteU2(uint16(v.Offset))
	}
}

func decodeStackMapTable(v *byteio.View, p *pool.Pool, off, length int) (attr.Attribute, error) {
	n, err := v.U2(off)
	if err != nil {
		return nil, err
	}
	pos := off + 2
	frames := make([]Frame, 0, n)
	prevBci := -1
	var prevLocals []VType
	for i := 0; i < int(n); i++ {
		frameType, err := v.U1(pos)
		if err != nil {
			return nil, err
		}
		pos++
		var bci int
		var locals, stack []VType

		switch {
		case frameType <= 63: // SAME
			bci = prevBci + 1 + int(frameType)
			locals = append([]VType(nil), prevLocals...)
		case frameType <= 127: // SAME_LOCALS_1_STACK_ITEM
			bci = prevBci + 1 + int(frameType-64)
			locals = append([]VType(nil), prevLocals...)
			st, n1, err := decodeVType(v, pos)
			if err != nil {
				return nil, err
			}
			pos += n1
			stack = []VType{st}
		case frameType == 247: // SAME_LOCALS_1_STACK_ITEM_EXTENDED
			delta, err := v.U2(pos)
			if err != nil {
				return nil, err
			}
			pos += 2
			bci = prevBci + 1 + int(delta)
			locals = append([]VType(nil), prevLocals...)
			st, n1, err := decodeVType(v, pos)
			if err != nil {
				return nil, err
			}
			pos += n1
			stack = []VType{st}
		case frameType >= 248 && frameType <= 250: // CHOP
			delta, err := v.U2(pos)
			if err != nil {
				return nil, err
			}
			pos += 2
			bci = prevBci + 1 + int(delta)
			chop := int(251 - frameType)
			if chop > len(prevLocals) {
				return nil, fmt.Errorf("code: CHOP frame removes %d locals but only %d present", chop, len(prevLocals))
			}
			locals = append([]VType(nil), prevLocals[:len(prevLocals)-chop]...)
		case frameType == 251: // SAME_FRAME_EXTENDED
			delta, err := v.U2(pos)
			if err != nil {
				return nil, err
			}
			pos += 2
			bci = prevBci + 1 + int(delta)
			locals = append([]VType(nil), prevLocals...)
		case frameType >= 252 && frameType <= 254: // APPEND
			delta, err := v.U2(pos)
			if err != nil {
				return nil, err
			}
			pos += 2
			bci = prevBci + 1 + int(delta)
			count := int(frameType - 251)
			appended := make([]VType, count)
			for j := 0; j < count; j++ {
				lt, nb, err := decodeVType(v, pos)
				if err != nil {
					return nil, err
				}
				pos += nb
				appended[j] = lt
			}
			locals = append(append([]VType(nil), prevLocals...), appended...)
		case frameType == 255: // FULL_FRAME
			delta, err := v.U2(pos)
			if err != nil {
				return nil, err
			}
			pos += 2
			bci = prevBci + 1 + int(delta)
			numLocals, err := v.U2(pos)
			if err != nil {
				return nil, err
			}
			pos += 2
			locals = make([]VType, numLocals)
			for j := 0; j < int(numLocals); j++ {
				lt, nb, err := decodeVType(v, pos)
				if err != nil {
					return nil, err
				}
				pos += nb
				locals[j] = lt
			}
			numStack, err := v.U2(pos)
			if err != nil {
				return nil, err
			}
			pos += 2
			stack = make([]VType, numStack)
			for j := 0; j < int(numStack); j++ {
				st, nb, err := decodeVType(v, pos)
				if err != nil {
					return nil, err
				}
				pos += nb
				stack[j] = st
			}
		default:
			return nil, fmt.Errorf("code: reserved StackMapTable frame_type %d", frameType)
		}

		frames = append(frames, Frame{At: bci, Locals: locals, Stack: stack})
		prevBci = bci
		prevLocals = locals
	}
	return &StackMapTableAttr{Frames: frames}, nil
}

func encodeStackMapTable(a attr.Attribute, buf *byteio.Buf, p *pool.Pool) error {
	smt, ok := a.(*StackMapTableAttr)
	if !ok {
		return fmt.Errorf("code: encodeStackMapTable: got %T", a)
	}
	return smt.EncodeFull(buf, p)
}

// EncodeFull emits every frame in FULL_FRAME form. This is always a valid
// encoding (JVMS §4.7.4 permits it for any frame); package stackmap's
// StackMapGenerator emits its generated frames through this path rather
// than picking the more compact SAME/CHOP/APPEND forms, trading a few
// bytes of class file size for not having to track each frame's
// relationship to its predecessor twice (once during generation, once
// during encoding).
func (a *StackMapTableAttr) EncodeFull(buf *byteio.Buf, p *pool.Pool) error {
	buf.WriteU2(uint16(len(a.Frames)))
	prevBci := -1
	for _, f := range a.Frames {
		delta := f.At - prevBci - 1
		if delta < 0 {
			return fmt.Errorf("code: stack map frames out of order at bci %d", f.At)
		}
		buf.WriteU1(255)
		buf.WriteU2(uint16(delta))
		buf.WriteU2(uint16(len(f.Locals)))
		for _, l := range f.Locals {
			encodeVType(buf, l)
		}
		buf.WriteU2(uint16(len(f.Stack)))
		for _, s := range f.Stack {
			encodeVType(buf, s)
		}
		prevBci = f.At
	}
	return nil
}
