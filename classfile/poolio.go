package classfile

import (
	"fmt"

	"github.com/zboralski/goclassfile/internal/byteio"
	"github.com/zboralski/goclassfile/pool"
)

// decodePoolEntries reads the constant_pool_count-prefixed entries table
// starting at off (JVMS §4.4) into a slice suitable for pool.NewBound:
// index 0 and a Long/Double's reserved second slot are left nil.
func decodePoolEntries(v *byteio.View, off int) ([]pool.Entry, int, error) {
	count, err := v.U2(off)
	if err != nil {
		return nil, off, err
	}
	pos := off + 2
	entries := make([]pool.Entry, count)
	for i := 1; i < int(count); i++ {
		tag, err := v.U1(pos)
		if err != nil {
			return nil, pos, err
		}
		pos++
		e, n, err := decodeOnePoolEntry(v, pool.Tag(tag), pos)
		if err != nil {
			return nil, pos, fmt.Errorf("constant pool entry %d: %w", i, err)
		}
		entries[i] = e
		pos = n
		if pool.Tag(tag) == pool.TagLong || pool.Tag(tag) == pool.TagDouble {
			i++ // reserved slot, left nil
		}
	}
	return entries, pos, nil
}

func decodeOnePoolEntry(v *byteio.View, tag pool.Tag, pos int) (pool.Entry, int, error) {
	switch tag {
	case pool.TagUtf8:
		length, err := v.U2(pos)
		if err != nil {
			return nil, pos, err
		}
		raw, err := v.ReadBytes(pos+2, int(length))
		if err != nil {
			return nil, pos, err
		}
		return &pool.Utf8{Raw: raw}, pos + 2 + int(length), nil
	case pool.TagInteger:
		val, err := v.S4(pos)
		if err != nil {
			return nil, pos, err
		}
		return &pool.Integer{Value: val}, pos + 4, nil
	case pool.TagFloat:
		val, err := v.F4(pos)
		if err != nil {
			return nil, pos, err
		}
		return &pool.Float{Value: val}, pos + 4, nil
	case pool.TagLong:
		val, err := v.S8(pos)
		if err != nil {
			return nil, pos, err
		}
		return &pool.Long{Value: val}, pos + 8, nil
	case pool.TagDouble:
		val, err := v.F8(pos)
		if err != nil {
			return nil, pos, err
		}
		return &pool.Double{Value: val}, pos + 8, nil
	case pool.TagClass:
		idx, err := v.U2(pos)
		if err != nil {
			return nil, pos, err
		}
		return &pool.Class{NameIndex: idx}, pos + 2, nil
	case pool.TagString:
		idx, err := v.U2(pos)
		if err != nil {
			return nil, pos, err
		}
		return &pool.String{StringIndex: idx}, pos + 2, nil
	case pool.TagFieldref:
		c, err := v.U2(pos)
		if err != nil {
			return nil, pos, err
		}
		nat, err := v.U2(pos + 2)
		if err != nil {
			return nil, pos, err
		}
		return &pool.Fieldref{ClassIndex: c, NameAndTypeIndex: nat}, pos + 4, nil
	case pool.TagMethodref:
		c, err := v.U2(pos)
		if err != nil {
			return nil, pos, err
		}
		nat, err := v.U2(pos + 2)
		if err != nil {
			return nil, pos, err
		}
		return &pool.Methodref{ClassIndex: c, NameAndTypeIndex: nat}, pos + 4, nil
	case pool.TagInterfaceMethodref:
		c, err := v.U2(pos)
		if err != nil {
			return nil, pos, err
		}
		nat, err := v.U2(pos + 2)
		if err != nil {
			return nil, pos, err
		}
		return &pool.InterfaceMethodref{ClassIndex: c, NameAndTypeIndex: nat}, pos + 4, nil
	case pool.TagNameAndType:
		name, err := v.U2(pos)
		if err != nil {
			return nil, pos, err
		}
		desc, err := v.U2(pos + 2)
		if err != nil {
			return nil, pos, err
		}
		return &pool.NameAndType{NameIndex: name, DescriptorIndex: desc}, pos + 4, nil
	case pool.TagMethodHandle:
		kind, err := v.U1(pos)
		if err != nil {
			return nil, pos, err
		}
		ref, err := v.U2(pos + 1)
		if err != nil {
			return nil, pos, err
		}
		return &pool.MethodHandle{ReferenceKind: pool.RefKind(kind), ReferenceIndex: ref}, pos + 3, nil
	case pool.TagMethodType:
		desc, err := v.U2(pos)
		if err != nil {
			return nil, pos, err
		}
		return &pool.MethodType{DescriptorIndex: desc}, pos + 2, nil
	case pool.TagDynamic:
		bsm, err := v.U2(pos)
		if err != nil {
			return nil, pos, err
		}
		nat, err := v.U2(pos + 2)
		if err != nil {
			return nil, pos, err
		}
		return &pool.Dynamic{BootstrapMethodAttrIndex: bsm, NameAndTypeIndex: nat}, pos + 4, nil
	case pool.TagInvokeDynamic:
		bsm, err := v.U2(pos)
		if err != nil {
			return nil, pos, err
		}
		nat, err := v.U2(pos + 2)
		if err != nil {
			return nil, pos, err
		}
		return &pool.InvokeDynamic{BootstrapMethodAttrIndex: bsm, NameAndTypeIndex: nat}, pos + 4, nil
	case pool.TagModule:
		idx, err := v.U2(pos)
		if err != nil {
			return nil, pos, err
		}
		return &pool.Module{NameIndex: idx}, pos + 2, nil
	case pool.TagPackage:
		idx, err := v.U2(pos)
		if err != nil {
			return nil, pos, err
		}
		return &pool.Package{NameIndex: idx}, pos + 2, nil
	default:
		return nil, pos, fmt.Errorf("unknown constant pool tag %d", tag)
	}
}
