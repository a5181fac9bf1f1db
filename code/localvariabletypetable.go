package code

import (
	"github.com/zboralski/goclassfile/attr"
	"github.com/zboralski/goclassfile/internal/byteio"
	"github.com/zboralski/goclassfile/pool"
)

// NameLocalVariableTypeTable is the LocalVariableTypeTable attribute's name
// (JVMS §4.7.14): LocalVariableTable's generic-signature counterpart.
const NameLocalVariableTypeTable = "LocalVariableTypeTable"

type LocalVariableTypeTableEntry struct {
	StartPC, Length int
	NameIndex       uint16
	SignatureIndex  uint16
	Slot            int
}

type LocalVariableTypeTableAttr struct {
	Entries []LocalVariableTypeTableEntry
}

func (a *LocalVariableTypeTableAttr) Name() string { return NameLocalVariableTypeTable }

func decodeLocalVariableTypeTable(v *byteio.View, p *pool.Pool, off, length int) (attr.Attribute, error) {
	n, err := v.U2(off)
	if err != nil {
		return nil, err
	}
	pos := off + 2
	entries := make([]LocalVariableTypeTableEntry, n)
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
		sigIdx, err := v.U2(pos + 6)
		if err != nil {
			return nil, err
		}
		slot, err := v.U2(pos + 8)
		if err != nil {
			return nil, err
		}
		entries[i] = LocalVariableTypeTableEntry{
			StartPC: int(startPC), Length: int(length),
			NameIndex: nameIdx, SignatureIndex: sigIdx, Slot: int(slot),
		}
		pos += 10
	}
	return &LocalVariableTypeTableAttr{Entries: entries}, nil
}

func encodeLocalVariableTypeTable(a attr.Attribute, buf *byteio.Buf, p *pool.Pool) error {
	lvt := a.(*LocalVariableTypeTableAttr)
	buf.WriteU2(uint16(len(lvt.Entries)))
	for _, e := range lvt.Entries {
		buf.WriteU2(uint16(e.StartPC))
		buf.WriteU2(uint16(e.Length))
		buf.WriteU2(e.NameIndex)
		buf.WriteU2(e.SignatureIndex)
		buf.WriteU2(uint16(e.Slot))
	}
	return nil
}
