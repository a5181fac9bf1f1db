package stackmap

import (
	"github.com/zboralski/goclassfile/code"
	"github.com/zboralski/goclassfile/pool"
)

// effect applies insn's type effect to f in place: pop its operands off
// the stack, push its result, and/or rewrite a local slot. Branch targets
// themselves are not this function's concern — buildCFG already turned
// them into successor edges; effect only has to account for the operand
// consumption every control-flow path through insn shares.
func (g *Generator) effect(insn code.Instruction, f *frame, bci int) error {
	switch in := insn.(type) {
	case code.NopInsn, code.MonitorInsn:
		// no stack/locals effect
	case code.ConstantInsn:
		return g.effectConstant(in, f)
	case code.LoadInsn:
		f.push(categoryOfLoadStore(in.Op, f.getLocal(in.Slot)))
	case code.StoreInsn:
		f.setLocal(in.Slot, f.pop())
	case code.IncrementInsn:
		// iinc leaves the local's type (int) unchanged.
	case code.ArrayLoadStoreInsn:
		g.effectArray(in, f)
	case code.StackInsn:
		g.effectStack(in, f)
	case code.OperatorInsn:
		g.effectOperator(in, f)
	case code.ConvertInsn:
		g.effectConvert(in, f)
	case code.BranchInsn:
		g.effectBranch(in.Op, f)
	case code.DiscontinuedInsn:
		g.effectDiscontinued(in, f)
	case code.TableSwitchInsn:
		f.pop() // index
	case code.LookupSwitchInsn:
		f.pop() // key
	case code.ReturnInsn:
		if in.Op != code.ReturnOp {
			f.pop()
		}
	case code.ThrowInsn:
		f.pop()
	case code.FieldInsn:
		return g.effectField(in, f)
	case code.InvokeInsn:
		return g.effectInvoke(in, f)
	case code.InvokeDynamicInsn:
		return g.effectInvokeDynamic(in, f)
	case code.NewObjectInsn:
		f.push(code.Uninitialized(bci))
	case code.NewPrimitiveArrayInsn:
		f.pop() // count
		f.push(arrayVType(g.pool, "["+primitiveArrayDescriptor(in.Type)))
	case code.NewReferenceArrayInsn:
		f.pop() // count
		component, err := g.pool.ClassName(in.ClassIndex)
		if err != nil {
			return err
		}
		f.push(arrayVType(g.pool, arrayClassName(component)))
	case code.NewMultiArrayInsn:
		f.popN(int(in.Dimensions))
		// multianewarray's class index already names the resulting array
		// type itself (JVMS §6.5.multianewarray), unlike anewarray's,
		// which names the element type.
		f.push(code.Object(in.ClassIndex))
	case code.TypeCheckInsn:
		g.effectTypeCheck(in, f)
	default:
		// Unrecognized instruction kind (e.g. a transform's own
		// PseudoInstruction reaching this far): leave the frame as-is.
	}
	return nil
}

func (g *Generator) effectConstant(in code.ConstantInsn, f *frame) error {
	switch in.Op {
	case code.AconstNull:
		f.push(code.Null())
	case code.IconstM1, code.Iconst0, code.Iconst1, code.Iconst2, code.Iconst3, code.Iconst4, code.Iconst5,
		code.Bipush, code.Sipush:
		f.push(code.Integer())
	case code.Lconst0, code.Lconst1:
		f.push(code.Long())
	case code.Fconst0, code.Fconst1, code.Fconst2:
		f.push(code.Float())
	case code.Dconst0, code.Dconst1:
		f.push(code.Double())
	case code.Ldc, code.LdcW:
		vt, err := g.ldcType(in.PoolIndex)
		if err != nil {
			return err
		}
		f.push(vt)
	case code.Ldc2W:
		e, err := g.pool.Entry(in.PoolIndex)
		if err != nil {
			return err
		}
		if _, ok := e.(*pool.Double); ok {
			f.push(code.Double())
		} else {
			f.push(code.Long())
		}
	}
	return nil
}

// ldcType resolves the verification type `ldc`/`ldc_w` pushes from the
// tag of the constant pool entry it names (JVMS §6.5.ldc).
func (g *Generator) ldcType(idx uint16) (code.VType, error) {
	e, err := g.pool.Entry(idx)
	if err != nil {
		return code.VType{}, err
	}
	switch e.(type) {
	case *pool.Integer:
		return code.Integer(), nil
	case *pool.Float:
		return code.Float(), nil
	case *pool.String:
		classIdx, err := g.pool.InternClass("java/lang/String")
		if err != nil {
			return code.VType{}, err
		}
		return code.Object(classIdx), nil
	case *pool.Class:
		classIdx, err := g.pool.InternClass("java/lang/Class")
		if err != nil {
			return code.VType{}, err
		}
		return code.Object(classIdx), nil
	case *pool.MethodType:
		classIdx, err := g.pool.InternClass("java/lang/invoke/MethodType")
		if err != nil {
			return code.VType{}, err
		}
		return code.Object(classIdx), nil
	case *pool.MethodHandle:
		classIdx, err := g.pool.InternClass("java/lang/invoke/MethodHandle")
		if err != nil {
			return code.VType{}, err
		}
		return code.Object(classIdx), nil
	case *pool.Dynamic:
		classIdx, err := g.pool.InternClass("java/lang/Object")
		if err != nil {
			return code.VType{}, err
		}
		return code.Object(classIdx), nil
	default:
		classIdx, err := g.pool.InternClass("java/lang/Object")
		if err != nil {
			return code.VType{}, err
		}
		return code.Object(classIdx), nil
	}
}

func categoryOfLoadStore(op code.Opcode, stored code.VType) code.VType {
	switch {
	case op == code.Lload || (op >= code.Lload0 && op <= code.Lload3):
		return code.Long()
	case op == code.Fload || (op >= code.Fload0 && op <= code.Fload3):
		return code.Float()
	case op == code.Dload || (op >= code.Dload0 && op <= code.Dload3):
		return code.Double()
	case op == code.Aload || (op >= code.Aload0 && op <= code.Aload3):
		return stored // whatever reference type is actually stored there
	default:
		return code.Integer()
	}
}

func (g *Generator) effectArray(in code.ArrayLoadStoreInsn, f *frame) {
	switch in.Op {
	case code.Iaload, code.Baload, code.Caload, code.Saload:
		f.popN(2)
		f.push(code.Integer())
	case code.Laload:
		f.popN(2)
		f.push(code.Long())
	case code.Faload:
		f.popN(2)
		f.push(code.Float())
	case code.Daload:
		f.popN(2)
		f.push(code.Double())
	case code.Aaload:
		f.popN(2)
		obj, err := g.pool.InternClass("java/lang/Object")
		if err != nil {
			f.push(code.Top())
			return
		}
		f.push(code.Object(obj))
	case code.Iastore, code.Bastore, code.Castore, code.Sastore,
		code.Lastore, code.Fastore, code.Dastore, code.Aastore:
		f.popN(3)
	}
}

func (g *Generator) effectStack(in code.StackInsn, f *frame) {
	switch in.Op {
	case code.Pop:
		f.pop()
	case code.Pop2:
		f.popN(2)
	case code.Dup:
		v := f.pop()
		f.push(v)
		f.push(v)
	case code.DupX1:
		a, b := f.pop(), f.pop()
		f.push(a)
		f.push(b)
		f.push(a)
	case code.DupX2:
		a, b, c := f.pop(), f.pop(), f.pop()
		f.push(a)
		f.push(c)
		f.push(b)
		f.push(a)
	case code.Dup2:
		a, b := f.pop(), f.pop()
		f.push(b)
		f.push(a)
		f.push(b)
		f.push(a)
	case code.Dup2X1:
		a, b, c := f.pop(), f.pop(), f.pop()
		f.push(b)
		f.push(a)
		f.push(c)
		f.push(b)
		f.push(a)
	case code.Dup2X2:
		a, b, c, d := f.pop(), f.pop(), f.pop(), f.pop()
		f.push(b)
		f.push(a)
		f.push(d)
		f.push(c)
		f.push(b)
		f.push(a)
	case code.Swap:
		a, b := f.pop(), f.pop()
		f.push(a)
		f.push(b)
	}
}

func (g *Generator) effectOperator(in code.OperatorInsn, f *frame) {
	switch in.Op {
	case code.Ineg, code.Lneg, code.Fneg, code.Dneg:
		return // unary: type unchanged, nothing to pop/push beyond itself
	case code.Lcmp, code.Fcmpl, code.Fcmpg, code.Dcmpl, code.Dcmpg:
		f.popN(2)
		f.push(code.Integer())
		return
	}
	f.popN(2)
	switch in.Op {
	case code.Ladd, code.Lsub, code.Lmul, code.Ldiv, code.Lrem,
		code.Lshl, code.Lshr, code.Lushr, code.Land, code.Lor, code.Lxor:
		f.push(code.Long())
	case code.Fadd, code.Fsub, code.Fmul, code.Fdiv, code.Frem:
		f.push(code.Float())
	case code.Dadd, code.Dsub, code.Dmul, code.Ddiv, code.Drem:
		f.push(code.Double())
	default:
		f.push(code.Integer())
	}
}

func (g *Generator) effectConvert(in code.ConvertInsn, f *frame) {
	f.pop()
	switch in.Op {
	case code.I2l, code.F2l, code.D2l:
		f.push(code.Long())
	case code.I2f, code.L2f, code.D2f:
		f.push(code.Float())
	case code.I2d, code.L2d, code.F2d:
		f.push(code.Double())
	default: // l2i, f2i, d2i, i2b, i2c, i2s
		f.push(code.Integer())
	}
}

func (g *Generator) effectBranch(op code.Opcode, f *frame) {
	switch op {
	case code.Goto, code.GotoW:
		// no operand
	case code.IfIcmpeq, code.IfIcmpne, code.IfIcmplt, code.IfIcmpge, code.IfIcmpgt, code.IfIcmple,
		code.IfAcmpeq, code.IfAcmpne:
		f.popN(2)
	default: // ifeq family, ifnull/ifnonnull: one operand
		f.pop()
	}
}

func (g *Generator) effectDiscontinued(in code.DiscontinuedInsn, f *frame) {
	if in.Target != nil {
		// jsr/jsr_w pushes a returnAddress, a verification type this
		// package's VKind has no entry for (jsr/ret predate
		// StackMapTable and only exist in major_version < 51 class
		// files); Top is a conservative stand-in.
		f.push(code.Top())
		return
	}
	// ret: no stack effect
}

func (g *Generator) effectField(in code.FieldInsn, f *frame) error {
	descriptor, err := g.fieldRefInfo(in.FieldrefIndex)
	if err != nil {
		return err
	}
	vt, err := fieldType(g.pool, descriptor)
	if err != nil {
		return err
	}
	switch in.Op {
	case code.Getstatic:
		f.push(vt)
	case code.Putstatic:
		f.pop()
	case code.Getfield:
		f.pop() // objectref
		f.push(vt)
	case code.Putfield:
		f.pop() // value
		f.pop() // objectref
	}
	return nil
}

func (g *Generator) fieldRefInfo(idx uint16) (descriptor string, err error) {
	e, err := g.pool.Entry(idx)
	if err != nil {
		return "", err
	}
	fr, ok := e.(*pool.Fieldref)
	if !ok {
		return "", fieldRefTypeError(idx)
	}
	nat, err := g.pool.GetNameAndType(fr.NameAndTypeIndex)
	if err != nil {
		return "", err
	}
	return g.pool.Utf8String(nat.DescriptorIndex)
}

func (g *Generator) effectInvoke(in code.InvokeInsn, f *frame) error {
	descriptor, methodName, classIdx, err := g.methodRefInfo(in.MethodrefIndex)
	if err != nil {
		return err
	}
	params, err := paramTypes(g.pool, descriptor)
	if err != nil {
		return err
	}
	for range params {
		f.pop()
	}
	hasReceiver := in.Op != code.Invokestatic
	if hasReceiver {
		receiver := f.pop()
		if in.Op == code.Invokespecial && methodName == "<init>" {
			g.promote(f, receiver, classIdx)
		}
	}
	ret, ok, err := returnType(g.pool, descriptor)
	if err != nil {
		return err
	}
	if ok {
		f.push(ret)
	}
	return nil
}

// promote implements JVMS §4.10.1.9's "initialization replaces every
// occurrence": once invokespecial <init> consumes an Uninitialized (or
// UninitializedThis) receiver, every other copy of that exact value
// elsewhere in the frame becomes Object(class) too — not just the one
// popped off the stack, since `new` followed by `dup` leaves a second copy
// sitting underneath.
func (g *Generator) promote(f *frame, receiver code.VType, classIdx uint16) {
	if receiver.Kind != code.VUninitialized && receiver.Kind != code.VUninitializedThis {
		return
	}
	replacement := code.Object(classIdx)
	for i, v := range f.Locals {
		if v.Equal(receiver) {
			f.Locals[i] = replacement
		}
	}
	for i, v := range f.Stack {
		if v.Equal(receiver) {
			f.Stack[i] = replacement
		}
	}
}

func (g *Generator) methodRefInfo(idx uint16) (descriptor, name string, classIdx uint16, err error) {
	e, err := g.pool.Entry(idx)
	if err != nil {
		return "", "", 0, err
	}
	var natIdx uint16
	switch r := e.(type) {
	case *pool.Methodref:
		natIdx, classIdx = r.NameAndTypeIndex, r.ClassIndex
	case *pool.InterfaceMethodref:
		natIdx, classIdx = r.NameAndTypeIndex, r.ClassIndex
	default:
		return "", "", 0, fieldRefTypeError(idx)
	}
	nat, err := g.pool.GetNameAndType(natIdx)
	if err != nil {
		return "", "", 0, err
	}
	descriptor, err = g.pool.Utf8String(nat.DescriptorIndex)
	if err != nil {
		return "", "", 0, err
	}
	name, err = g.pool.Utf8String(nat.NameIndex)
	return descriptor, name, classIdx, err
}

func (g *Generator) effectInvokeDynamic(in code.InvokeDynamicInsn, f *frame) error {
	e, err := g.pool.Entry(in.InvokeDynamicIndex)
	if err != nil {
		return err
	}
	id, ok := e.(*pool.InvokeDynamic)
	if !ok {
		return fieldRefTypeError(in.InvokeDynamicIndex)
	}
	nat, err := g.pool.GetNameAndType(id.NameAndTypeIndex)
	if err != nil {
		return err
	}
	descriptor, err := g.pool.Utf8String(nat.DescriptorIndex)
	if err != nil {
		return err
	}
	params, err := paramTypes(g.pool, descriptor)
	if err != nil {
		return err
	}
	for range params {
		f.pop()
	}
	ret, ok2, err := returnType(g.pool, descriptor)
	if err != nil {
		return err
	}
	if ok2 {
		f.push(ret)
	}
	return nil
}

func (g *Generator) effectTypeCheck(in code.TypeCheckInsn, f *frame) {
	switch in.Op {
	case code.Checkcast:
		f.pop()
		f.push(code.Object(in.ClassIndex))
	case code.Instanceof:
		f.pop()
		f.push(code.Integer())
	}
}

// arrayClassName builds anewarray's result array class name from its
// CONSTANT_Class component operand: when the component is itself an array
// type, the operand already carries array descriptor notation ("[I",
// "[Ljava/lang/String;") and just needs one more leading '[' (JVMS
// §4.4.1); otherwise it's a plain internal class name needing "[L...;"
// wrapping.
func arrayClassName(component string) string {
	if len(component) > 0 && component[0] == '[' {
		return "[" + component
	}
	return "[L" + component + ";"
}

func arrayVType(p *pool.Pool, internalName string) code.VType {
	idx, err := p.InternClass(internalName)
	if err != nil {
		return code.Top()
	}
	return code.Object(idx)
}

func primitiveArrayDescriptor(t code.ArrayType) string {
	switch t {
	case code.ArrayBoolean:
		return "Z"
	case code.ArrayChar:
		return "C"
	case code.ArrayFloat:
		return "F"
	case code.ArrayDouble:
		return "D"
	case code.ArrayByte:
		return "B"
	case code.ArrayShort:
		return "S"
	case code.ArrayInt:
		return "I"
	case code.ArrayLong:
		return "J"
	default:
		return "I"
	}
}
