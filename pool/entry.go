// Package pool implements the JVM constant pool: a 1-indexed, structurally
// interned table of typed entries shared by a ClassModel's fields, methods,
// and code. See JVMS §4.4.
package pool

import "github.com/zboralski/goclassfile/internal/modutf8"

// Tag identifies the wire-format kind of a constant pool entry (JVMS §4.4).
type Tag uint8

const (
	TagUtf8               Tag = 1
	TagInteger            Tag = 3
	TagFloat              Tag = 4
	TagLong               Tag = 5
	TagDouble             Tag = 6
	TagClass              Tag = 7
	TagString             Tag = 8
	TagFieldref           Tag = 9
	TagMethodref          Tag = 10
	TagInterfaceMethodref Tag = 11
	TagNameAndType        Tag = 12
	TagMethodHandle       Tag = 15
	TagMethodType         Tag = 16
	TagDynamic            Tag = 17
	TagInvokeDynamic      Tag = 18
	TagModule             Tag = 19
	TagPackage            Tag = 20
)

func (t Tag) String() string {
	switch t {
	case TagUtf8:
		return "Utf8"
	case TagInteger:
		return "Integer"
	case TagFloat:
		return "Float"
	case TagLong:
		return "Long"
	case TagDouble:
		return "Double"
	case TagClass:
		return "Class"
	case TagString:
		return "String"
	case TagFieldref:
		return "Fieldref"
	case TagMethodref:
		return "Methodref"
	case TagInterfaceMethodref:
		return "InterfaceMethodref"
	case TagNameAndType:
		return "NameAndType"
	case TagMethodHandle:
		return "MethodHandle"
	case TagMethodType:
		return "MethodType"
	case TagDynamic:
		return "Dynamic"
	case TagInvokeDynamic:
		return "InvokeDynamic"
	case TagModule:
		return "Module"
	case TagPackage:
		return "Package"
	default:
		return "Unknown"
	}
}

// Entry is the sealed union of constant pool entry kinds. Every entry knows
// its own tag; structural equality (used for interning) is implemented per
// concrete type via the key() method.
type Entry interface {
	Tag() Tag
	key() string
}

// Utf8 holds Modified UTF-8 bytes (JVMS §4.4.7). Decoding the bytes to a Go
// string is memoized lazily on first String() call: bound pools populate
// Raw directly from the source buffer and never need to pay for a decode
// that the caller never asks for.
type Utf8 struct {
	Raw     []byte
	decoded string
	done    bool
}

func NewUtf8(s string) *Utf8 {
	return &Utf8{Raw: modutf8.Encode(s), decoded: s, done: true}
}

func (u *Utf8) Tag() Tag { return TagUtf8 }

func (u *Utf8) key() string { return "U:" + string(u.Raw) }

// String decodes Raw to a Go string, memoizing the result.
func (u *Utf8) String() string {
	if !u.done {
		// Decode errors here would have already been surfaced at parse
		// time; a bound pool only constructs a Utf8 after validating it.
		s, _ := modutf8.Decode(u.Raw)
		u.decoded = s
		u.done = true
	}
	return u.decoded
}

type Integer struct{ Value int32 }

func (e *Integer) Tag() Tag   { return TagInteger }
func (e *Integer) key() string { return keyInt("I", int64(e.Value)) }

type Float struct{ Value float32 }

func (e *Float) Tag() Tag   { return TagFloat }
func (e *Float) key() string { return keyInt("F", int64(floatBits(e.Value))) }

type Long struct{ Value int64 }

func (e *Long) Tag() Tag   { return TagLong }
func (e *Long) key() string { return keyInt("J", e.Value) }

type Double struct{ Value float64 }

func (e *Double) Tag() Tag   { return TagDouble }
func (e *Double) key() string { return keyInt("D", int64(doubleBits(e.Value))) }

// Class references a Utf8 entry holding an internal class/interface name.
type Class struct{ NameIndex uint16 }

func (e *Class) Tag() Tag   { return TagClass }
func (e *Class) key() string { return keyIdx("C", e.NameIndex) }

// String references a Utf8 entry holding the string's contents.
type String struct{ StringIndex uint16 }

func (e *String) Tag() Tag   { return TagString }
func (e *String) key() string { return keyIdx("s", e.StringIndex) }

type Fieldref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (e *Fieldref) Tag() Tag { return TagFieldref }
func (e *Fieldref) key() string {
	return keyIdx2("Fr", e.ClassIndex, e.NameAndTypeIndex)
}

type Methodref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (e *Methodref) Tag() Tag { return TagMethodref }
func (e *Methodref) key() string {
	return keyIdx2("Mr", e.ClassIndex, e.NameAndTypeIndex)
}

type InterfaceMethodref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (e *InterfaceMethodref) Tag() Tag { return TagInterfaceMethodref }
func (e *InterfaceMethodref) key() string {
	return keyIdx2("Imr", e.ClassIndex, e.NameAndTypeIndex)
}

type NameAndType struct {
	NameIndex       uint16
	DescriptorIndex uint16
}

func (e *NameAndType) Tag() Tag { return TagNameAndType }
func (e *NameAndType) key() string {
	return keyIdx2("Nt", e.NameIndex, e.DescriptorIndex)
}

// RefKind enumerates the MethodHandle reference_kind values (JVMS §4.4.8).
type RefKind uint8

const (
	RefGetField         RefKind = 1
	RefGetStatic        RefKind = 2
	RefPutField         RefKind = 3
	RefPutStatic        RefKind = 4
	RefInvokeVirtual    RefKind = 5
	RefInvokeStatic     RefKind = 6
	RefInvokeSpecial    RefKind = 7
	RefNewInvokeSpecial RefKind = 8
	RefInvokeInterface  RefKind = 9
)

type MethodHandle struct {
	ReferenceKind  RefKind
	ReferenceIndex uint16
}

func (e *MethodHandle) Tag() Tag { return TagMethodHandle }
func (e *MethodHandle) key() string {
	return keyIdx2("Mh", uint16(e.ReferenceKind), e.ReferenceIndex)
}

type MethodType struct{ DescriptorIndex uint16 }

func (e *MethodType) Tag() Tag   { return TagMethodType }
func (e *MethodType) key() string { return keyIdx("Mt", e.DescriptorIndex) }

// Dynamic represents a condy constant: a bootstrap method table index plus
// a NameAndType describing the result.
type Dynamic struct {
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}

func (e *Dynamic) Tag() Tag { return TagDynamic }
func (e *Dynamic) key() string {
	return keyIdx2("Dy", e.BootstrapMethodAttrIndex, e.NameAndTypeIndex)
}

type InvokeDynamic struct {
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}

func (e *InvokeDynamic) Tag() Tag { return TagInvokeDynamic }
func (e *InvokeDynamic) key() string {
	return keyIdx2("Id", e.BootstrapMethodAttrIndex, e.NameAndTypeIndex)
}

type Module struct{ NameIndex uint16 }

func (e *Module) Tag() Tag   { return TagModule }
func (e *Module) key() string { return keyIdx("Mo", e.NameIndex) }

type Package struct{ NameIndex uint16 }

func (e *Package) Tag() Tag   { return TagPackage }
func (e *Package) key() string { return keyIdx("Pk", e.NameIndex) }
