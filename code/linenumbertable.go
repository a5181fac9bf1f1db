package code

import (
	"github.com/zboralski/goclassfile/attr"
	"github.com/zboralski/goclassfile/internal/byteio"
	"github.com/zboralski/goclassfile/pool"
)

// NameLineNumberTable is the LineNumberTable attribute's name (JVMS §4.7.12).
const NameLineNumberTable = "LineNumberTable"

// LineNumberTableEntry pairs a raw bci with a source line, as decoded
// straight off the wire. CodeModel.Elements resolves StartPC against the
// label bound at that bci to produce a LineNumber element.
type LineNumberTableEntry struct {
	StartPC int
	Line    int
}

// LineNumberTableAttr is the Code attribute's LineNumberTable sub-attribute.
type LineNumberTableAttr struct {
	Entries []LineNumberTableEntry
}

func (a *LineNumberTableAttr) Name() string { return NameLineNumberTable }

func decodeLineNumberTable(v *byteio.View, p *pool.Pool, off, length int) (attr.Attribute, error) {
	n, err := v.U2(off)
	if err != nil {
		return nil, err
	}
	pos := off + 2
	entries := make([]LineNumberTableEntry, n)
	for i := range entries {
		startPC, err := v.U2(pos)
		if err != nil {
			return nil, err
		}
		line, err := v.U2(pos + 2)
		if err != nil {
			return nil, err
		}
		entries[i] = LineNumberTableEntry{StartPC: int(startPC), Line: int(line)}
		pos += 4
	}
	return &LineNumberTableAttr{Entries: entries}, nil
}

func encodeLineNumberTable(a attr.Attribute, buf *byteio.Buf, p *pool.Pool) error {
	lnt := a.(*LineNumberTableAttr)
	buf.WriteU2(uint16(len(lnt.Entries)))
	for _, e := range lnt.Entries {
		buf.WriteU2(uint16(e.StartPC))
		buf.WriteU2(uint16(e.Line))
	}
	return nil
}
