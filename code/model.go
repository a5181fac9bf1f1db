package code

import (
	"sync"

	"github.com/zboralski/goclassfile/attr"
	"github.com/zboralski/goclassfile/internal/byteio"
	"github.com/zboralski/goclassfile/label"
	"github.com/zboralski/goclassfile/pool"
)

// NameCode is the Code attribute's name (JVMS §4.7.3).
const NameCode = "Code"

// rawExceptionEntry is one exception_table entry as decoded straight off
// the wire, before its three bcis are turned into labels.
type rawExceptionEntry struct {
	StartPC, EndPC, HandlerPC int
	CatchType                 uint16
}

// CodeModel is a decoded Code attribute body: the raw bytecode array, the
// exception table, and whatever sub-attributes (StackMapTable,
// LineNumberTable, LocalVariable(Type)Table, or pass-through unknowns) it
// carries. Elements turns this into the label-bearing element stream a
// transform walks; the raw form here is what a caller that only cares
// about MaxStack/MaxLocals or a raw sub-attribute doesn't need to pay the
// label-resolution cost for.
type CodeModel struct {
	MaxStack   int
	MaxLocals  int
	Attributes []attr.Attribute

	code       []byte
	exceptions []rawExceptionEntry
	pool       *pool.Pool
}

// Decoder returns an attr.Decoder for the Code attribute. It does not
// parse the Code body immediately: a method's Code attribute materializes
// to a CodeModel on demand, implemented here by having the returned
// CodeAttribute remember its byte coordinates and defer the actual
// decodeCodeModel call to its first Code() call, memoized with sync.Once
// so concurrent readers of an already-parsed ClassModel share one decode.
// sub is typically code.DefaultSubAttributes(), optionally extended with
// a caller Mapper.
func Decoder(sub *attr.Registry, policy attr.UnknownPolicy) attr.Decoder {
	return func(v *byteio.View, p *pool.Pool, off, length int) (attr.Attribute, error) {
		return &CodeAttribute{v: v, p: p, off: off, length: length, sub: sub, policy: policy}, nil
	}
}

// Encoder returns an attr.Encoder for the Code attribute, mirroring Decoder.
func Encoder(sub *attr.Registry) attr.Encoder {
	return func(a attr.Attribute, buf *byteio.Buf, p *pool.Pool) error {
		ca := a.(*CodeAttribute)
		cm, err := ca.Code()
		if err != nil {
			return err
		}
		return cm.encode(buf, p, sub)
	}
}

// Pool returns the constant pool this CodeModel was decoded against, or nil
// for one a builder assembled directly (package stackmap uses this to
// resolve field/method descriptors and exception catch types while
// generating a StackMapTable).
func (cm *CodeModel) Pool() *pool.Pool { return cm.pool }

// ExceptionEntry is the builder-facing form of one exception_table entry:
// the same shape as the package's internal raw form, exported so an
// Assembler can hand back a freshly linearized CodeModel without this
// package needing to know anything about labels.
type ExceptionEntry struct {
	StartPC, EndPC, HandlerPC int
	CatchType                 uint16
}

// NewCodeModel builds a CodeModel directly from an already-linearized code
// array, used by the Assembler once it has resolved every label to a bci.
func NewCodeModel(maxStack, maxLocals int, codeBytes []byte, exceptions []ExceptionEntry, attrs []attr.Attribute) *CodeModel {
	raw := make([]rawExceptionEntry, len(exceptions))
	for i, e := range exceptions {
		raw[i] = rawExceptionEntry(e)
	}
	return &CodeModel{
		MaxStack: maxStack, MaxLocals: maxLocals,
		Attributes: attrs, code: codeBytes, exceptions: raw,
	}
}

func decodeCodeModel(v *byteio.View, p *pool.Pool, off int, sub *attr.Registry, policy attr.UnknownPolicy) (*CodeModel, error) {
	maxStack, err := v.U2(off)
	if err != nil {
		return nil, err
	}
	maxLocals, err := v.U2(off + 2)
	if err != nil {
		return nil, err
	}
	codeLen, err := v.U4(off + 4)
	if err != nil {
		return nil, err
	}
	codeBytes, err := v.ReadBytes(off+8, int(codeLen))
	if err != nil {
		return nil, err
	}
	pos := off + 8 + int(codeLen)

	excCount, err := v.U2(pos)
	if err != nil {
		return nil, err
	}
	pos += 2
	exceptions := make([]rawExceptionEntry, excCount)
	for i := range exceptions {
		startPC, err := v.U2(pos)
		if err != nil {
			return nil, err
		}
		endPC, err := v.U2(pos + 2)
		if err != nil {
			return nil, err
		}
		handlerPC, err := v.U2(pos + 4)
		if err != nil {
			return nil, err
		}
		catchType, err := v.U2(pos + 6)
		if err != nil {
			return nil, err
		}
		exceptions[i] = rawExceptionEntry{
			StartPC: int(startPC), EndPC: int(endPC), HandlerPC: int(handlerPC),
			CatchType: catchType,
		}
		pos += 8
	}

	attrCount, err := v.U2(pos)
	if err != nil {
		return nil, err
	}
	pos += 2
	attrs := make([]attr.Attribute, 0, attrCount)
	for i := 0; i < int(attrCount); i++ {
		nameIdx, err := v.U2(pos)
		if err != nil {
			return nil, err
		}
		alen, err := v.U4(pos + 2)
		if err != nil {
			return nil, err
		}
		a, err := sub.Decode(v, p, nameIdx, pos+6, int(alen), policy)
		if err != nil {
			return nil, err
		}
		if a != nil {
			attrs = append(attrs, a)
		}
		pos += 6 + int(alen)
	}

	return &CodeModel{
		MaxStack: int(maxStack), MaxLocals: int(maxLocals),
		Attributes: attrs, code: codeBytes, exceptions: exceptions, pool: p,
	}, nil
}

func (cm *CodeModel) encode(buf *byteio.Buf, p *pool.Pool, sub *attr.Registry) error {
	buf.WriteU2(uint16(cm.MaxStack))
	buf.WriteU2(uint16(cm.MaxLocals))
	buf.WriteU4(uint32(len(cm.code)))
	buf.WriteBytes(cm.code)
	buf.WriteU2(uint16(len(cm.exceptions)))
	for _, e := range cm.exceptions {
		buf.WriteU2(uint16(e.StartPC))
		buf.WriteU2(uint16(e.EndPC))
		buf.WriteU2(uint16(e.HandlerPC))
		buf.WriteU2(e.CatchType)
	}
	buf.WriteU2(uint16(len(cm.Attributes)))
	for _, a := range cm.Attributes {
		nameIdx, err := p.InternUtf8(a.Name())
		if err != nil {
			return err
		}
		buf.WriteU2(nameIdx)
		lenPos := buf.Mark()
		buf.WriteU4(0)
		if err := sub.Encode(a, buf, p); err != nil {
			return err
		}
		buf.PatchU4(lenPos, uint32(buf.Size()-lenPos-4))
	}
	return nil
}

// CodeAttribute wraps a CodeModel as an attr.Attribute so it can sit in a
// MethodModel's attributes list alongside Exceptions, Signature, etc.
// Decoded from a bound ClassModel, it holds only its byte coordinates until
// Code is first called.
type CodeAttribute struct {
	Model *CodeModel // set directly by a builder; nil for a decoded, not-yet-materialized attribute

	v      *byteio.View
	p      *pool.Pool
	off    int
	length int
	sub    *attr.Registry
	policy attr.UnknownPolicy

	once sync.Once
	err  error
}

func (a *CodeAttribute) Name() string { return NameCode }

// Code returns the attribute's CodeModel, decoding it on first call. Safe
// for concurrent use: concurrent callers block on the same sync.Once and
// observe the same *CodeModel.
func (a *CodeAttribute) Code() (*CodeModel, error) {
	a.once.Do(func() {
		if a.Model != nil {
			return
		}
		a.Model, a.err = decodeCodeModel(a.v, a.p, a.off, a.sub, a.policy)
	})
	return a.Model, a.err
}

// Elements walks the raw bytecode array and sub-attributes into the
// label-bearing element stream: instructions in program order, each
// preceded by a LabelElement wherever some branch,
// exception-table entry, line-number entry, or local-variable range names
// that bci. ExceptionCatch entries are emitted first (they describe the
// whole method, not one program point); LocalVariable/LocalVariableType
// entries are emitted last, mirroring how a visitor-style API like ASM's
// only knows a variable's full live range once the method body has been
// walked.
func (cm *CodeModel) Elements() ([]Element, *label.Context, error) {
	raws := make([]decodedInsn, 0, len(cm.code)/2)
	for bci := 0; bci < len(cm.code); {
		d, err := decodeOneRaw(cm.code, bci)
		if err != nil {
			return nil, nil, err
		}
		raws = append(raws, d)
		bci += d.size
	}
	codeEnd := len(cm.code)

	var lineEntries []LineNumberTableEntry
	var lvEntries []LocalVariableTableEntry
	var lvtEntries []LocalVariableTypeTableEntry
	for _, a := range cm.Attributes {
		switch at := a.(type) {
		case *LineNumberTableAttr:
			lineEntries = append(lineEntries, at.Entries...)
		case *LocalVariableTableAttr:
			lvEntries = append(lvEntries, at.Entries...)
		case *LocalVariableTypeTableAttr:
			lvtEntries = append(lvtEntries, at.Entries...)
		}
	}

	targets := map[int]bool{}
	for _, d := range raws {
		for _, t := range d.branchTargets() {
			targets[t] = true
		}
	}
	for _, e := range cm.exceptions {
		targets[e.StartPC] = true
		targets[e.EndPC] = true
		targets[e.HandlerPC] = true
	}
	for _, e := range lineEntries {
		targets[e.StartPC] = true
	}
	for _, e := range lvEntries {
		targets[e.StartPC] = true
		targets[e.StartPC+e.Length] = true
	}
	for _, e := range lvtEntries {
		targets[e.StartPC] = true
		targets[e.StartPC+e.Length] = true
	}

	ctx := label.NewContext()
	labels := make(map[int]*label.Label, len(targets))
	labelFor := func(bci int) *label.Label {
		if l, ok := labels[bci]; ok {
			return l
		}
		l := ctx.NewLabel()
		labels[bci] = l
		return l
	}
	for t := range targets {
		labelFor(t)
	}
	for bci, l := range labels {
		if err := ctx.Bind(l, bci); err != nil {
			return nil, nil, err
		}
	}

	var elems []Element
	for _, e := range cm.exceptions {
		elems = append(elems, ExceptionCatch{
			Start: labelFor(e.StartPC), End: labelFor(e.EndPC), Handler: labelFor(e.HandlerPC),
			CatchType: e.CatchType,
		})
	}

	lineByBci := make(map[int][]int, len(lineEntries))
	for _, e := range lineEntries {
		lineByBci[e.StartPC] = append(lineByBci[e.StartPC], e.Line)
	}

	for _, d := range raws {
		if l, ok := labels[d.bci]; ok {
			elems = append(elems, LabelElement{L: l})
		}
		for _, line := range lineByBci[d.bci] {
			elems = append(elems, LineNumber{Line: line, At: labelFor(d.bci)})
		}
		elems = append(elems, d.toInstruction(labelFor).(Element))
	}
	if l, ok := labels[codeEnd]; ok {
		elems = append(elems, LabelElement{L: l})
	}

	for _, e := range lvEntries {
		elems = append(elems, LocalVariable{
			Start: labelFor(e.StartPC), End: labelFor(e.StartPC + e.Length),
			Slot: e.Slot, NameIndex: e.NameIndex, DescriptorIndex: e.DescriptorIndex,
		})
	}
	for _, e := range lvtEntries {
		elems = append(elems, LocalVariableType{
			Start: labelFor(e.StartPC), End: labelFor(e.StartPC + e.Length),
			Slot: e.Slot, NameIndex: e.NameIndex, SignatureIndex: e.SignatureIndex,
		})
	}

	return elems, ctx, nil
}
