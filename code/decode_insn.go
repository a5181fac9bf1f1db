package code

import (
	"fmt"

	"github.com/zboralski/goclassfile/internal/byteio"
	"github.com/zboralski/goclassfile/label"
)

// decodedInsn is the bci-relative intermediate form every instruction
// passes through on decode, before branch/switch operands are resolved
// against a label.Context. Keeping this separate from the public
// Instruction variants lets the two decode passes (scan for jump targets,
// then build the final element stream) share one opcode switch.
type decodedInsn struct {
	bci  int
	op   Opcode
	size int

	u16       uint16 // pool/fieldref/methodref/class index, or fixed slot
	u8        uint8  // interface count / array type / dimensions
	value     int32  // bipush/sipush literal
	slot      int
	delta     int // iinc
	targetBci int // single-target branches, jsr
	isWide    bool

	// tableswitch / lookupswitch
	low, high   int32
	defaultBci  int
	matches     []int32 // lookupswitch only
	targetBcis  []int   // tableswitch: dense by (low..high); lookupswitch: parallel to matches
}

// decodeOneRaw decodes the instruction at bci within code, returning its
// intermediate form and byte size. Branch/switch operands are resolved to
// absolute target bcis but not yet turned into labels.
func decodeOneRaw(code []byte, bci int) (decodedInsn, error) {
	v := byteio.NewView(code)
	op, err := v.U1(bci)
	if err != nil {
		return decodedInsn{}, err
	}
	d := decodedInsn{bci: bci, op: Opcode(op)}

	switch Opcode(op) {
	case Nop, AconstNull, IconstM1, Iconst0, Iconst1, Iconst2, Iconst3, Iconst4, Iconst5,
		Lconst0, Lconst1, Fconst0, Fconst1, Fconst2, Dconst0, Dconst1,
		Iload0, Iload1, Iload2, Iload3, Lload0, Lload1, Lload2, Lload3,
		Fload0, Fload1, Fload2, Fload3, Dload0, Dload1, Dload2, Dload3,
		Aload0, Aload1, Aload2, Aload3,
		Istore0, Istore1, Istore2, Istore3, Lstore0, Lstore1, Lstore2, Lstore3,
		Fstore0, Fstore1, Fstore2, Fstore3, Dstore0, Dstore1, Dstore2, Dstore3,
		Astore0, Astore1, Astore2, Astore3,
		Iaload, Laload, Faload, Daload, Aaload, Baload, Caload, Saload,
		Iastore, Lastore, Fastore, Dastore, Aastore, Bastore, Castore, Sastore,
		Pop, Pop2, Dup, DupX1, DupX2, Dup2, Dup2X1, Dup2X2, Swap,
		Iadd, Ladd, Fadd, Dadd, Isub, Lsub, Fsub, Dsub, Imul, Lmul, Fmul, Dmul,
		Idiv, Ldiv, Fdiv, Ddiv, Irem, Lrem, Frem, Drem, Ineg, Lneg, Fneg, Dneg,
		Ishl, Lshl, Ishr, Lshr, Iushr, Lushr, Iand, Land, Ior, Lor, Ixor, Lxor,
		I2l, I2f, I2d, L2i, L2f, L2d, F2i, F2l, F2d, D2i, D2l, D2f, I2b, I2c, I2s,
		Lcmp, Fcmpl, Fcmpg, Dcmpl, Dcmpg,
		Ireturn, Lreturn, Freturn, Dreturn, Areturn, ReturnOp,
		Arraylength, Athrow, Monitorenter, Monitorexit:
		d.size = 1

	case Bipush:
		val, err := v.S1(bci + 1)
		if err != nil {
			return d, err
		}
		d.value = int32(val)
		d.size = 2

	case Sipush:
		val, err := v.S2(bci + 1)
		if err != nil {
			return d, err
		}
		d.value = int32(val)
		d.size = 3

	case Ldc:
		idx, err := v.U1(bci + 1)
		if err != nil {
			return d, err
		}
		d.u16 = uint16(idx)
		d.size = 2

	case LdcW, Ldc2W:
		idx, err := v.U2(bci + 1)
		if err != nil {
			return d, err
		}
		d.u16 = idx
		d.size = 3

	case Iload, Lload, Fload, Dload, Aload, Istore, Lstore, Fstore, Dstore, Astore:
		slot, err := v.U1(bci + 1)
		if err != nil {
			return d, err
		}
		d.slot = int(slot)
		d.size = 2

	case Ret:
		slot, err := v.U1(bci + 1)
		if err != nil {
			return d, err
		}
		d.slot = int(slot)
		d.size = 2

	case Newarray:
		t, err := v.U1(bci + 1)
		if err != nil {
			return d, err
		}
		d.u8 = t
		d.size = 2

	case Iinc:
		slot, err := v.U1(bci + 1)
		if err != nil {
			return d, err
		}
		delta, err := v.S1(bci + 2)
		if err != nil {
			return d, err
		}
		d.slot = int(slot)
		d.delta = int(delta)
		d.size = 3

	case Ifeq, Ifne, Iflt, Ifge, Ifgt, Ifle,
		IfIcmpeq, IfIcmpne, IfIcmplt, IfIcmpge, IfIcmpgt, IfIcmple,
		IfAcmpeq, IfAcmpne, Goto, Ifnull, Ifnonnull:
		off, err := v.S2(bci + 1)
		if err != nil {
			return d, err
		}
		d.targetBci = bci + int(off)
		d.size = 3

	case Jsr:
		off, err := v.S2(bci + 1)
		if err != nil {
			return d, err
		}
		d.targetBci = bci + int(off)
		d.size = 3

	case GotoW, JsrW:
		off, err := v.S4(bci + 1)
		if err != nil {
			return d, err
		}
		d.targetBci = bci + int(off)
		d.size = 5

	case Getstatic, Putstatic, Getfield, Putfield:
		idx, err := v.U2(bci + 1)
		if err != nil {
			return d, err
		}
		d.u16 = idx
		d.size = 3

	case Invokevirtual, Invokespecial, Invokestatic:
		idx, err := v.U2(bci + 1)
		if err != nil {
			return d, err
		}
		d.u16 = idx
		d.size = 3

	case Invokeinterface:
		idx, err := v.U2(bci + 1)
		if err != nil {
			return d, err
		}
		count, err := v.U1(bci + 3)
		if err != nil {
			return d, err
		}
		d.u16 = idx
		d.u8 = count
		d.size = 5

	case Invokedynamic:
		idx, err := v.U2(bci + 1)
		if err != nil {
			return d, err
		}
		d.u16 = idx
		d.size = 5

	case New:
		idx, err := v.U2(bci + 1)
		if err != nil {
			return d, err
		}
		d.u16 = idx
		d.size = 3

	case Anewarray:
		idx, err := v.U2(bci + 1)
		if err != nil {
			return d, err
		}
		d.u16 = idx
		d.size = 3

	case Checkcast, Instanceof:
		idx, err := v.U2(bci + 1)
		if err != nil {
			return d, err
		}
		d.u16 = idx
		d.size = 3

	case Multianewarray:
		idx, err := v.U2(bci + 1)
		if err != nil {
			return d, err
		}
		dims, err := v.U1(bci + 3)
		if err != nil {
			return d, err
		}
		d.u16 = idx
		d.u8 = dims
		d.size = 4

	case Wide:
		return decodeWide(v, bci)

	case Tableswitch:
		return decodeTableswitch(v, bci)

	case Lookupswitch:
		return decodeLookupswitch(v, bci)

	default:
		return d, fmt.Errorf("code: unknown opcode 0x%02x at bci %d", op, bci)
	}
	return d, nil
}

func decodeWide(v *byteio.View, bci int) (decodedInsn, error) {
	d := decodedInsn{bci: bci, isWide: true}
	modOp, err := v.U1(bci + 1)
	if err != nil {
		return d, err
	}
	d.op = Opcode(modOp)
	if Opcode(modOp) == Iinc {
		slot, err := v.U2(bci + 2)
		if err != nil {
			return d, err
		}
		delta, err := v.S2(bci + 4)
		if err != nil {
			return d, err
		}
		d.slot = int(slot)
		d.delta = int(delta)
		d.size = 6
		return d, nil
	}
	slot, err := v.U2(bci + 2)
	if err != nil {
		return d, err
	}
	d.slot = int(slot)
	d.size = 4
	return d, nil
}

func decodeTableswitch(v *byteio.View, bci int) (decodedInsn, error) {
	d := decodedInsn{bci: bci, op: Tableswitch}
	pad := padding(bci)
	pos := bci + 1 + pad
	def, err := v.S4(pos)
	if err != nil {
		return d, err
	}
	pos += 4
	low, err := v.S4(pos)
	if err != nil {
		return d, err
	}
	pos += 4
	high, err := v.S4(pos)
	if err != nil {
		return d, err
	}
	pos += 4
	d.defaultBci = bci + int(def)
	d.low, d.high = low, high
	count := int(high - low + 1)
	if count < 0 {
		return d, fmt.Errorf("code: tableswitch at bci %d has negative range (low=%d high=%d)", bci, low, high)
	}
	targets := make([]int, count)
	for i := 0; i < count; i++ {
		off, err := v.S4(pos)
		if err != nil {
			return d, err
		}
		targets[i] = bci + int(off)
		pos += 4
	}
	d.targetBcis = targets
	d.size = pos - bci
	return d, nil
}

func decodeLookupswitch(v *byteio.View, bci int) (decodedInsn, error) {
	d := decodedInsn{bci: bci, op: Lookupswitch}
	pad := padding(bci)
	pos := bci + 1 + pad
	def, err := v.S4(pos)
	if err != nil {
		return d, err
	}
	pos += 4
	npairs, err := v.S4(pos)
	if err != nil {
		return d, err
	}
	pos += 4
	if npairs < 0 {
		return d, fmt.Errorf("code: lookupswitch at bci %d has negative npairs", bci)
	}
	d.defaultBci = bci + int(def)
	matches := make([]int32, npairs)
	targets := make([]int, npairs)
	for i := 0; i < int(npairs); i++ {
		m, err := v.S4(pos)
		if err != nil {
			return d, err
		}
		pos += 4
		t, err := v.S4(pos)
		if err != nil {
			return d, err
		}
		pos += 4
		matches[i] = m
		targets[i] = bci + int(t)
	}
	d.matches = matches
	d.targetBcis = targets
	d.size = pos - bci
	return d, nil
}

// padding returns the number of pad bytes a switch instruction at bci needs
// so its first 4-byte-aligned operand starts at an offset that is a
// multiple of 4 from the start of the code array (JVMS §4.10.1).
func padding(bci int) int {
	return (4 - (bci+1)%4) % 4
}

// branchTargets returns every absolute bci d's operands reference, used to
// build the set of labels a CodeModel's decode needs before it can convert
// raw instructions into their final label-bearing form.
func (d decodedInsn) branchTargets() []int {
	switch {
	case d.op == Tableswitch:
		out := append([]int{d.defaultBci}, d.targetBcis...)
		return out
	case d.op == Lookupswitch:
		out := append([]int{d.defaultBci}, d.targetBcis...)
		return out
	case d.op.IsConditionalBranch() || d.op == Goto || d.op == GotoW || d.op == Jsr || d.op == JsrW:
		return []int{d.targetBci}
	default:
		return nil
	}
}

// toInstruction converts a decoded raw instruction into its final public
// Instruction, resolving any branch/switch operand to the label bound at
// that bci. labelFor must return the same *label.Label for a given bci on
// every call within one CodeModel decode.
func (d decodedInsn) toInstruction(labelFor func(bci int) *label.Label) Instruction {
	b := base{Op: d.op, size: d.size}
	if isArrayLoadStore(d.op) || isArrayStore(d.op) {
		return ArrayLoadStoreInsn{base: b}
	}

	switch d.op {
	case Nop:
		return NopInsn{base: b}
	case AconstNull, IconstM1, Iconst0, Iconst1, Iconst2, Iconst3, Iconst4, Iconst5,
		Lconst0, Lconst1, Fconst0, Fconst1, Fconst2, Dconst0, Dconst1:
		return ConstantInsn{base: b}
	case Bipush, Sipush:
		return ConstantInsn{base: b, Value: d.value}
	case Ldc, LdcW, Ldc2W:
		return ConstantInsn{base: b, PoolIndex: d.u16}
	case Iload, Lload, Fload, Dload, Aload:
		return LoadInsn{base: b, Slot: d.slot}
	case Iload0, Iload1, Iload2, Iload3:
		return LoadInsn{base: b, Slot: int(d.op - Iload0)}
	case Lload0, Lload1, Lload2, Lload3:
		return LoadInsn{base: b, Slot: int(d.op - Lload0)}
	case Fload0, Fload1, Fload2, Fload3:
		return LoadInsn{base: b, Slot: int(d.op - Fload0)}
	case Dload0, Dload1, Dload2, Dload3:
		return LoadInsn{base: b, Slot: int(d.op - Dload0)}
	case Aload0, Aload1, Aload2, Aload3:
		return LoadInsn{base: b, Slot: int(d.op - Aload0)}
	case Istore, Lstore, Fstore, Dstore, Astore:
		return StoreInsn{base: b, Slot: d.slot}
	case Istore0, Istore1, Istore2, Istore3:
		return StoreInsn{base: b, Slot: int(d.op - Istore0)}
	case Lstore0, Lstore1, Lstore2, Lstore3:
		return StoreInsn{base: b, Slot: int(d.op - Lstore0)}
	case Fstore0, Fstore1, Fstore2, Fstore3:
		return StoreInsn{base: b, Slot: int(d.op - Fstore0)}
	case Dstore0, Dstore1, Dstore2, Dstore3:
		return StoreInsn{base: b, Slot: int(d.op - Dstore0)}
	case Astore0, Astore1, Astore2, Astore3:
		return StoreInsn{base: b, Slot: int(d.op - Astore0)}
	case Pop, Pop2, Dup, DupX1, DupX2, Dup2, Dup2X1, Dup2X2, Swap:
		return StackInsn{base: b}
	case Iadd, Ladd, Fadd, Dadd, Isub, Lsub, Fsub, Dsub, Imul, Lmul, Fmul, Dmul,
		Idiv, Ldiv, Fdiv, Ddiv, Irem, Lrem, Frem, Drem, Ineg, Lneg, Fneg, Dneg,
		Ishl, Lshl, Ishr, Lshr, Iushr, Lushr, Iand, Land, Ior, Lor, Ixor, Lxor,
		Lcmp, Fcmpl, Fcmpg, Dcmpl, Dcmpg, Arraylength:
		return OperatorInsn{base: b}
	case Iinc:
		return IncrementInsn{base: b, Slot: d.slot, Delta: d.delta}
	case I2l, I2f, I2d, L2i, L2f, L2d, F2i, F2l, F2d, D2i, D2l, D2f, I2b, I2c, I2s:
		return ConvertInsn{base: b}
	case Ifeq, Ifne, Iflt, Ifge, Ifgt, Ifle,
		IfIcmpeq, IfIcmpne, IfIcmplt, IfIcmpge, IfIcmpgt, IfIcmple,
		IfAcmpeq, IfAcmpne, Goto, GotoW, Ifnull, Ifnonnull:
		return BranchInsn{base: b, Target: labelFor(d.targetBci)}
	case Jsr, JsrW:
		return DiscontinuedInsn{base: b, Target: labelFor(d.targetBci)}
	case Ret:
		return DiscontinuedInsn{base: b, Slot: d.slot}
	case Tableswitch:
		targets := make([]*label.Label, len(d.targetBcis))
		for i, t := range d.targetBcis {
			targets[i] = labelFor(t)
		}
		return TableSwitchInsn{base: b, Default: labelFor(d.defaultBci), Low: d.low, High: d.high, Targets: targets}
	case Lookupswitch:
		cases := make([]SwitchPair, len(d.matches))
		for i, m := range d.matches {
			cases[i] = SwitchPair{Match: m, Target: labelFor(d.targetBcis[i])}
		}
		return LookupSwitchInsn{base: b, Default: labelFor(d.defaultBci), Cases: cases}
	case Ireturn, Lreturn, Freturn, Dreturn, Areturn, ReturnOp:
		return ReturnInsn{base: b}
	case Getstatic, Putstatic, Getfield, Putfield:
		return FieldInsn{base: b, FieldrefIndex: d.u16}
	case Invokevirtual, Invokespecial, Invokestatic:
		return InvokeInsn{base: b, MethodrefIndex: d.u16}
	case Invokeinterface:
		return InvokeInsn{base: b, MethodrefIndex: d.u16, InterfaceCount: d.u8}
	case Invokedynamic:
		return InvokeDynamicInsn{base: b, InvokeDynamicIndex: d.u16}
	case New:
		return NewObjectInsn{base: b, ClassIndex: d.u16}
	case Newarray:
		return NewPrimitiveArrayInsn{base: b, Type: ArrayType(d.u8)}
	case Anewarray:
		return NewReferenceArrayInsn{base: b, ClassIndex: d.u16}
	case Athrow:
		return ThrowInsn{base: b}
	case Checkcast, Instanceof:
		return TypeCheckInsn{base: b, ClassIndex: d.u16}
	case Monitorenter, Monitorexit:
		return MonitorInsn{base: b}
	case Multianewarray:
		return NewMultiArrayInsn{base: b, ClassIndex: d.u16, Dimensions: d.u8}
	default:
		return NopInsn{base: b}
	}
}

func isArrayLoadStore(op Opcode) bool {
	switch op {
	case Iaload, Laload, Faload, Daload, Aaload, Baload, Caload, Saload:
		return true
	default:
		return false
	}
}

func isArrayStore(op Opcode) bool {
	switch op {
	case Iastore, Lastore, Fastore, Dastore, Aastore, Bastore, Castore, Sastore:
		return true
	default:
		return false
	}
}
