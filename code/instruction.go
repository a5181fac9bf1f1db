package code

import "github.com/zboralski/goclassfile/label"

// Instruction is the sealed union of JVM instruction kinds.
// Every concrete type below implements it; Element additionally wraps
// Label, ExceptionCatch, LineNumber, LocalVariable, LocalVariableType, and
// PseudoInstruction into the same element stream (see element.go).
//
// Size reports the instruction's footprint in bytes as decoded from a
// bound CodeModel (used to advance the bci while walking the element
// stream). A builder-constructed instruction has Size() == 0; the
// Assembler always re-derives the actual emitted size (short vs. wide
// form) rather than trusting a stored value, so this is purely a decode-
// time bookkeeping field, never an encoding instruction.
type Instruction interface {
	Opcode() Opcode
	Size() int
	instruction()
}

type base struct {
	Op   Opcode
	size int
}

func (b base) Opcode() Opcode { return b.Op }
func (b base) Size() int      { return b.size }
func (base) instruction()     {}

// NopInsn is the single-byte `nop`.
type NopInsn struct{ base }

// ArrayLoadStoreInsn covers the typed array element load/store family
// (iaload/store .. saload/store); Op distinguishes load vs. store and
// element type.
type ArrayLoadStoreInsn struct{ base }

// BranchInsn is a conditional or unconditional jump to Target. Target is a
// label, never a raw offset: offsets are an Assembler emission detail, not
// part of the logical instruction.
type BranchInsn struct {
	base
	Target *label.Label
}

// ConstantInsn covers the `ldc` family, `bipush`/`sipush`, and the
// iconst/lconst/fconst/dconst immediates. PoolIndex is the constant pool
// index for ldc/ldc_w/ldc2_w, Value carries the sign-extended literal for
// bipush/sipush, and neither field is meaningful for the zero-operand
// iconst/lconst/fconst/dconst forms (value implied by Op).
type ConstantInsn struct {
	base
	PoolIndex uint16
	Value     int32
}

// ConvertInsn covers the primitive widening/narrowing conversions
// (i2l, l2f, d2i, ...).
type ConvertInsn struct{ base }

// FieldInsn covers getfield/putfield/getstatic/putstatic.
type FieldInsn struct {
	base
	FieldrefIndex uint16
}

// InvokeInsn covers invokevirtual/invokespecial/invokestatic/
// invokeinterface. InterfaceCount is only meaningful for invokeinterface
// (the count byte JVMS requires alongside the method descriptor).
type InvokeInsn struct {
	base
	MethodrefIndex uint16
	InterfaceCount uint8
}

// InvokeDynamicInsn is `invokedynamic`.
type InvokeDynamicInsn struct {
	base
	InvokeDynamicIndex uint16
}

// LoadInsn covers iload/lload/fload/dload/aload (and their _0.._3 forms,
// normalized here to a single Slot field — the Assembler picks the
// shortest encoding for Slot, including the wide-prefixed form when
// Slot > 255).
type LoadInsn struct {
	base
	Slot int
}

// StoreInsn is LoadInsn's store-side counterpart.
type StoreInsn struct {
	base
	Slot int
}

// IncrementInsn is `iinc`, wide-prefixed if Slot doesn't fit in an
// unsigned byte or Delta doesn't fit in a signed byte.
type IncrementInsn struct {
	base
	Slot  int
	Delta int
}

// SwitchPair is one (match, target) pair of a LookupSwitchInsn.
type SwitchPair struct {
	Match  int32
	Target *label.Label
}

// LookupSwitchInsn is `lookupswitch`.
type LookupSwitchInsn struct {
	base
	Default *label.Label
	Cases   []SwitchPair
}

// TableSwitchInsn is `tableswitch`.
type TableSwitchInsn struct {
	base
	Default *label.Label
	Low     int32
	High    int32
	Targets []*label.Label // len == High-Low+1
}

// MonitorInsn covers monitorenter/monitorexit.
type MonitorInsn struct{ base }

// NewObjectInsn is `new`.
type NewObjectInsn struct {
	base
	ClassIndex uint16
}

// ArrayType enumerates the `newarray` primitive type codes (JVMS Table
// 6.5.newarray-A).
type ArrayType uint8

const (
	ArrayBoolean ArrayType = 4
	ArrayChar    ArrayType = 5
	ArrayFloat   ArrayType = 6
	ArrayDouble  ArrayType = 7
	ArrayByte    ArrayType = 8
	ArrayShort   ArrayType = 9
	ArrayInt     ArrayType = 10
	ArrayLong    ArrayType = 11
)

// NewPrimitiveArrayInsn is `newarray`.
type NewPrimitiveArrayInsn struct {
	base
	Type ArrayType
}

// NewReferenceArrayInsn is `anewarray`.
type NewReferenceArrayInsn struct {
	base
	ClassIndex uint16
}

// NewMultiArrayInsn is `multianewarray`.
type NewMultiArrayInsn struct {
	base
	ClassIndex uint16
	Dimensions uint8
}

// OperatorInsn covers the arithmetic/logical family (iadd, lxor, lcmp,
// fcmpg, ineg, ...).
type OperatorInsn struct{ base }

// ReturnInsn covers ireturn/lreturn/freturn/dreturn/areturn/return.
type ReturnInsn struct{ base }

// StackInsn covers pop/pop2/dup*/swap.
type StackInsn struct{ base }

// ThrowInsn is `athrow`.
type ThrowInsn struct{ base }

// TypeCheckInsn covers checkcast/instanceof.
type TypeCheckInsn struct {
	base
	ClassIndex uint16
}

// DiscontinuedInsn covers jsr/jsr_w/ret, valid only in classfiles with
// major version < 51 (JVMS §4.9.1).
type DiscontinuedInsn struct {
	base
	Target *label.Label // for Jsr/JsrW; nil for Ret
	Slot   int          // for Ret; unused for Jsr/JsrW
}
