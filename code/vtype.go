package code

import "fmt"

// VKind enumerates the verification type kinds a StackMapTable frame's
// locals/stack entries can hold (JVMS §4.10.1.2).
type VKind uint8

const (
	VTop VKind = iota
	VInteger
	VFloat
	VLong
	VDouble
	VNull
	VUninitializedThis
	VUninitialized // carries an Offset (the `new` instruction's bci)
	VObject        // carries a ClassIndex
)

// VType is one verification type: Top, Integer, Float, Long, Double, Null,
// UninitializedThis, Uninitialized(offset), or Object(class index)
// (JVMS §4.10.1.2).
type VType struct {
	Kind       VKind
	ClassIndex uint16 // valid iff Kind == VObject
	Offset     int    // valid iff Kind == VUninitialized; bci of the `new`
}

func Top() VType                { return VType{Kind: VTop} }
func Integer() VType            { return VType{Kind: VInteger} }
func Float() VType              { return VType{Kind: VFloat} }
func Long() VType                { return VType{Kind: VLong} }
func Double() VType              { return VType{Kind: VDouble} }
func Null() VType                { return VType{Kind: VNull} }
func UninitializedThis() VType   { return VType{Kind: VUninitializedThis} }
func Uninitialized(bci int) VType {
	return VType{Kind: VUninitialized, Offset: bci}
}
func Object(classIndex uint16) VType {
	return VType{Kind: VObject, ClassIndex: classIndex}
}

// Width reports how many local-variable slots this type occupies: 2 for
// Long/Double, 1 for everything else (JVMS §2.6.1).
func (v VType) Width() int {
	if v.Kind == VLong || v.Kind == VDouble {
		return 2
	}
	return 1
}

func (v VType) Equal(o VType) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case VObject:
		return v.ClassIndex == o.ClassIndex
	case VUninitialized:
		return v.Offset == o.Offset
	default:
		return true
	}
}

func (v VType) String() string {
	switch v.Kind {
	case VTop:
		return "top"
	case VInteger:
		return "int"
	case VFloat:
		return "float"
	case VLong:
		return "long"
	case VDouble:
		return "double"
	case VNull:
		return "null"
	case VUninitializedThis:
		return "uninitializedThis"
	case VUninitialized:
		return fmt.Sprintf("uninitialized(%d)", v.Offset)
	case VObject:
		return fmt.Sprintf("object(#%d)", v.ClassIndex)
	default:
		return "?"
	}
}

// Frame is one StackMapTable entry, already expanded out of its
// delta-encoded wire form (JVMS §4.7.4); that encoding is handled in
// stackmaptable.go, not here. Locals and Stack are full verification-type
// vectors at bci At.
type Frame struct {
	At     int
	Locals []VType
	Stack  []VType
}
