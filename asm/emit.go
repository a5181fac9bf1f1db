package asm

import (
	"fmt"
	"math"

	"github.com/zboralski/goclassfile/code"
	"github.com/zboralski/goclassfile/internal/byteio"
)

// padding mirrors code's switch-alignment rule (JVMS §4.10.1): the number
// of pad bytes a tableswitch/lookupswitch at bci needs before its first
// operand.
func padding(bci int) int {
	return (4 - (bci+1)%4) % 4
}

func emitPlain(buf *byteio.Buf, insn code.Instruction) (emittedInsn, error) {
	bci := buf.Size()
	switch el := insn.(type) {
	case code.NopInsn:
		buf.WriteU1(uint8(code.Nop))
	case code.ArrayLoadStoreInsn, code.ConvertInsn, code.OperatorInsn, code.MonitorInsn,
		code.ReturnInsn, code.StackInsn, code.ThrowInsn:
		buf.WriteU1(uint8(insn.Opcode()))
	case code.ConstantInsn:
		if err := emitConstant(buf, el); err != nil {
			return emittedInsn{}, err
		}
	case code.FieldInsn:
		buf.WriteU1(uint8(el.Opcode()))
		buf.WriteU2(el.FieldrefIndex)
	case code.InvokeInsn:
		buf.WriteU1(uint8(el.Opcode()))
		buf.WriteU2(el.MethodrefIndex)
		if el.Opcode() == code.Invokeinterface {
			buf.WriteU1(el.InterfaceCount)
			buf.WriteU1(0)
		}
	case code.InvokeDynamicInsn:
		buf.WriteU1(uint8(code.Invokedynamic))
		buf.WriteU2(el.InvokeDynamicIndex)
		buf.WriteU2(0)
	case code.LoadInsn:
		emitSlotted(buf, loadFamily(el.Opcode()), el.Slot)
	case code.StoreInsn:
		emitSlotted(buf, loadFamily(el.Opcode()), el.Slot)
	case code.IncrementInsn:
		emitIinc(buf, el.Slot, el.Delta)
	case code.NewObjectInsn:
		buf.WriteU1(uint8(code.New))
		buf.WriteU2(el.ClassIndex)
	case code.NewPrimitiveArrayInsn:
		buf.WriteU1(uint8(code.Newarray))
		buf.WriteU1(uint8(el.Type))
	case code.NewReferenceArrayInsn:
		buf.WriteU1(uint8(code.Anewarray))
		buf.WriteU2(el.ClassIndex)
	case code.NewMultiArrayInsn:
		buf.WriteU1(uint8(code.Multianewarray))
		buf.WriteU2(el.ClassIndex)
		buf.WriteU1(el.Dimensions)
	case code.TypeCheckInsn:
		buf.WriteU1(uint8(el.Opcode()))
		buf.WriteU2(el.ClassIndex)
	default:
		return emittedInsn{}, fmt.Errorf("asm: don't know how to emit %T", insn)
	}
	return emittedInsn{bci: bci, size: buf.Size() - bci, op: insn.Opcode()}, nil
}

func emitConstant(buf *byteio.Buf, el code.ConstantInsn) error {
	switch el.Opcode() {
	case code.Bipush:
		if el.Value < math.MinInt8 || el.Value > math.MaxInt8 {
			return fmt.Errorf("asm: bipush value %d out of range", el.Value)
		}
		buf.WriteU1(uint8(code.Bipush))
		buf.WriteU1(uint8(int8(el.Value)))
	case code.Sipush:
		if el.Value < math.MinInt16 || el.Value > math.MaxInt16 {
			return fmt.Errorf("asm: sipush value %d out of range", el.Value)
		}
		buf.WriteU1(uint8(code.Sipush))
		buf.WriteS2(int16(el.Value))
	case code.Ldc:
		if el.PoolIndex > math.MaxUint8 {
			return fmt.Errorf("asm: ldc pool index %d needs ldc_w", el.PoolIndex)
		}
		buf.WriteU1(uint8(code.Ldc))
		buf.WriteU1(uint8(el.PoolIndex))
	case code.LdcW, code.Ldc2W:
		buf.WriteU1(uint8(el.Opcode()))
		buf.WriteU2(el.PoolIndex)
	default:
		// zero-operand iconst/lconst/fconst/dconst/aconst_null form.
		buf.WriteU1(uint8(el.Opcode()))
	}
	return nil
}

type slotFamily struct {
	plain code.Opcode // iload/istore/etc.
	zero0 code.Opcode // iload_0/istore_0/etc.
}

func loadFamily(op code.Opcode) slotFamily {
	switch op {
	case code.Iload, code.Iload0, code.Iload1, code.Iload2, code.Iload3:
		return slotFamily{code.Iload, code.Iload0}
	case code.Lload, code.Lload0, code.Lload1, code.Lload2, code.Lload3:
		return slotFamily{code.Lload, code.Lload0}
	case code.Fload, code.Fload0, code.Fload1, code.Fload2, code.Fload3:
		return slotFamily{code.Fload, code.Fload0}
	case code.Dload, code.Dload0, code.Dload1, code.Dload2, code.Dload3:
		return slotFamily{code.Dload, code.Dload0}
	case code.Aload, code.Aload0, code.Aload1, code.Aload2, code.Aload3:
		return slotFamily{code.Aload, code.Aload0}
	case code.Istore, code.Istore0, code.Istore1, code.Istore2, code.Istore3:
		return slotFamily{code.Istore, code.Istore0}
	case code.Lstore, code.Lstore0, code.Lstore1, code.Lstore2, code.Lstore3:
		return slotFamily{code.Lstore, code.Lstore0}
	case code.Fstore, code.Fstore0, code.Fstore1, code.Fstore2, code.Fstore3:
		return slotFamily{code.Fstore, code.Fstore0}
	case code.Dstore, code.Dstore0, code.Dstore1, code.Dstore2, code.Dstore3:
		return slotFamily{code.Dstore, code.Dstore0}
	default:
		return slotFamily{code.Astore, code.Astore0}
	}
}

func emitSlotted(buf *byteio.Buf, fam slotFamily, slot int) {
	switch {
	case slot >= 0 && slot <= 3:
		buf.WriteU1(uint8(fam.zero0 + code.Opcode(slot)))
	case slot <= math.MaxUint8:
		buf.WriteU1(uint8(fam.plain))
		buf.WriteU1(uint8(slot))
	default:
		buf.WriteU1(uint8(code.Wide))
		buf.WriteU1(uint8(fam.plain))
		buf.WriteU2(uint16(slot))
	}
}

func emitIinc(buf *byteio.Buf, slot, delta int) {
	if slot <= math.MaxUint8 && delta >= math.MinInt8 && delta <= math.MaxInt8 {
		buf.WriteU1(uint8(code.Iinc))
		buf.WriteU1(uint8(slot))
		buf.WriteU1(uint8(int8(delta)))
		return
	}
	buf.WriteU1(uint8(code.Wide))
	buf.WriteU1(uint8(code.Iinc))
	buf.WriteU2(uint16(slot))
	buf.WriteS2(int16(delta))
}

// emitBranch emits a BranchInsn, either in its short 3-byte form (with a
// placeholder offset patched once every label is bound) or, when wide is
// set, as goto_w / an inverted-condition skip over a goto_w.
func emitBranch(buf *byteio.Buf, el code.BranchInsn, elemIdx int, wide bool) (emittedInsn, []patchSite) {
	bci := buf.Size()
	if !wide {
		buf.WriteU1(uint8(el.Opcode()))
		pos := buf.Mark()
		buf.WriteS2(0)
		return emittedInsn{bci: bci, size: 3, op: el.Opcode()},
			[]patchSite{{pos: pos, insnBci: bci, target: el.Target, width: 2, elemIdx: elemIdx}}
	}
	if el.Opcode() == code.Goto || el.Opcode() == code.GotoW {
		buf.WriteU1(uint8(code.GotoW))
		pos := buf.Mark()
		buf.WriteS4(0)
		return emittedInsn{bci: bci, size: 5, op: code.GotoW},
			[]patchSite{{pos: pos, insnBci: bci, target: el.Target, width: 4, elemIdx: elemIdx}}
	}
	// Conditional: invert and skip the 8 bytes of [this 3-byte branch,
	// the following 5-byte goto_w], landing right after the goto_w when
	// the original condition is false.
	buf.WriteU1(uint8(el.Opcode().Invert()))
	buf.WriteS2(8)
	gotoBci := buf.Size()
	buf.WriteU1(uint8(code.GotoW))
	pos := buf.Mark()
	buf.WriteS4(0)
	return emittedInsn{bci: bci, size: 8, op: el.Opcode()},
		[]patchSite{{pos: pos, insnBci: gotoBci, target: el.Target, width: 4, elemIdx: elemIdx}}
}

func emitDiscontinued(buf *byteio.Buf, el code.DiscontinuedInsn, elemIdx int, wide bool) (emittedInsn, []patchSite) {
	bci := buf.Size()
	if el.Opcode() == code.Ret {
		if el.Slot <= math.MaxUint8 {
			buf.WriteU1(uint8(code.Ret))
			buf.WriteU1(uint8(el.Slot))
			return emittedInsn{bci: bci, size: 2, op: code.Ret}, nil
		}
		buf.WriteU1(uint8(code.Wide))
		buf.WriteU1(uint8(code.Ret))
		buf.WriteU2(uint16(el.Slot))
		return emittedInsn{bci: bci, size: 4, op: code.Ret}, nil
	}
	// Jsr / JsrW: identical shape to an unconditional branch.
	if !wide {
		buf.WriteU1(uint8(code.Jsr))
		pos := buf.Mark()
		buf.WriteS2(0)
		return emittedInsn{bci: bci, size: 3, op: code.Jsr},
			[]patchSite{{pos: pos, insnBci: bci, target: el.Target, width: 2, elemIdx: elemIdx}}
	}
	buf.WriteU1(uint8(code.JsrW))
	pos := buf.Mark()
	buf.WriteS4(0)
	return emittedInsn{bci: bci, size: 5, op: code.JsrW},
		[]patchSite{{pos: pos, insnBci: bci, target: el.Target, width: 4, elemIdx: elemIdx}}
}

func emitTableSwitch(buf *byteio.Buf, el code.TableSwitchInsn, elemIdx int) (emittedInsn, []patchSite) {
	bci := buf.Size()
	buf.WriteU1(uint8(code.Tableswitch))
	for i := 0; i < padding(bci); i++ {
		buf.WriteU1(0)
	}
	var patches []patchSite
	defPos := buf.Mark()
	buf.WriteS4(0)
	patches = append(patches, patchSite{pos: defPos, insnBci: bci, target: el.Default, width: 4, elemIdx: elemIdx})
	buf.WriteS4(el.Low)
	buf.WriteS4(el.High)
	for _, t := range el.Targets {
		pos := buf.Mark()
		buf.WriteS4(0)
		patches = append(patches, patchSite{pos: pos, insnBci: bci, target: t, width: 4, elemIdx: elemIdx})
	}
	return emittedInsn{bci: bci, size: buf.Size() - bci, op: code.Tableswitch}, patches
}

func emitLookupSwitch(buf *byteio.Buf, el code.LookupSwitchInsn, elemIdx int) (emittedInsn, []patchSite) {
	bci := buf.Size()
	buf.WriteU1(uint8(code.Lookupswitch))
	for i := 0; i < padding(bci); i++ {
		buf.WriteU1(0)
	}
	var patches []patchSite
	defPos := buf.Mark()
	buf.WriteS4(0)
	patches = append(patches, patchSite{pos: defPos, insnBci: bci, target: el.Default, width: 4, elemIdx: elemIdx})
	buf.WriteS4(int32(len(el.Cases)))
	for _, pair := range el.Cases {
		buf.WriteS4(pair.Match)
		pos := buf.Mark()
		buf.WriteS4(0)
		patches = append(patches, patchSite{pos: pos, insnBci: bci, target: pair.Target, width: 4, elemIdx: elemIdx})
	}
	return emittedInsn{bci: bci, size: buf.Size() - bci, op: code.Lookupswitch}, patches
}
