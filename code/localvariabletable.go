package code

import (
	"github.com/zboralski/goclassfile/attr"
	"github.com/zboralski/goclassfile/internal/byteio"
	"github.com/zboralski/goclassfile/pool"
)

// NameLocalVariableTable is the LocalVariableTable attribute's name
// (JVMS §4.7.13).
const NameLocalVariableTable = "LocalVariableTable"

// LocalVariableTableEntry is one wire-form entry: variable Slot is live
// from StartPC for Length bytes. CodeModel.Elements resolves StartPC and
// StartPC+Length against bound labels to produce a LocalVariable element.
type LocalVariableTableEntry struct {
	StartPC, Length int
	NameIndex       uint16
	DescriptorIndex uint16
	Slot            int
}

// LocalVariableTableAttr is the Code attribute's LocalVariableTable
// sub-attribute.
type LocalVariableTableAttr struct {
	Entries []LocalVariableTableEntry
}

func (a *LocalVariableTableAttr) Name() string { return NameLocalVariableTable }

func decodeLocalVariableTable(v *byteio.View, p *pool.Pool, off, length int) (attr.Attribute, error) {
	n, err := v.U2(off)
	if err != nil {
		return nil, err
	}
	pos := off + 2
	entries := make([]LocalVariableTableEntry, n)
	for i := range entries {
		startPC, err := v.U2(pos)
		if err != nil {
			return nil, err
		}
		length, err := v.U2(pos + 2)
		if err != nil {
			return nil, err
		}
		nameIdx, err := v.U2(pos + 4)
		if err != nil {
			return nil, err
		}
		descIdx, err := v.U2(pos + 6)
		if err != nil {
			return nil, err
		}
		slot, err := v.U2(pos + 8)
		if err != nil {
			return nil, err
		}
		entries[i] = LocalVariableTableEntry{
			StartPC: int(startPC), Length: int(length),
			NameIndex: nameIdx, DescriptorIndex: descIdx, Slot: int(slot),
		}
		pos += 10
	}
	return &LocalVariableTableAttr{Entries: entries}, nil
}

func encodeLocalVariableTable(a attr.Attribute, buf *byteio.Buf, p *pool.Pool) error {
	lvt := a.(*LocalVariableTableAttr)
	buf.WriteU2(uint16(len(lvt.Entries)))
	for _, e := range lvt.Entries {
		buf.WriteU2(uint16(e.StartPC))
		buf.WriteU2(uint16(e.Length))
		buf.WriteU2(e.NameIndex)
		buf.WriteU2(e.DescriptorIndex)
		buf.WriteU2(uint16(e.Slot))
	}
	return nil
}
