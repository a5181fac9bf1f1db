package code

import "github.com/zboralski/goclassfile/label"

// Element is the sealed union a CodeModel's element stream yields:
// Instruction | LabelElement | ExceptionCatch | LineNumber | LocalVariable |
// LocalVariableType | PseudoInstruction. Every Instruction variant in
// instruction.go also implements Element.
type Element interface {
	element()
}

func (base) element() {}

// PseudoInstruction is the extension point for element kinds this package
// doesn't define a built-in for: a sibling of the concrete element kinds,
// not a supertype of them. A transform is free to emit its own
// PseudoInstruction-implementing type; the Assembler skips any element it
// doesn't recognize as one of the built-in kinds, so such an element
// contributes no bytes and does not appear in the assembled CodeModel.
type PseudoInstruction interface {
	Element
	pseudoInstruction()
}

// LabelElement marks L's position in the element stream: when a CodeModel
// is walked, LabelElement{L} appears immediately before the instruction at
// L's bound bci.
type LabelElement struct {
	L *label.Label
}

func (LabelElement) element() {}

// ExceptionCatch is one entry of the Code attribute's exception table,
// expressed in terms of labels rather than raw bcis so it survives a
// transform that shifts code around. CatchType is 0 for a catch-all
// handler (e.g. a `finally` block).
type ExceptionCatch struct {
	Start, End, Handler *label.Label
	CatchType           uint16
}

func (ExceptionCatch) element() {}

// LineNumber attaches a source line number to the bci At resolves to
// (LineNumberTable attribute, JVMS §4.7.12).
type LineNumber struct {
	Line int
	At   *label.Label
}

func (LineNumber) element() {}

// LocalVariable is one live range of a LocalVariableTable entry (JVMS
// §4.7.13): variable Slot is visible from Start (inclusive) to End
// (exclusive).
type LocalVariable struct {
	Start, End     *label.Label
	Slot           int
	NameIndex      uint16
	DescriptorIndex uint16
}

func (LocalVariable) element() {}

// LocalVariableType is LocalVariable's generic-signature counterpart
// (LocalVariableTypeTable attribute, JVMS §4.7.14).
type LocalVariableType struct {
	Start, End    *label.Label
	Slot          int
	NameIndex     uint16
	SignatureIndex uint16
}

func (LocalVariableType) element() {}
