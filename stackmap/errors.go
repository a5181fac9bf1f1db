package stackmap

import "fmt"

// fieldRefTypeError reports a constant pool entry that doesn't have the
// tag its referencing instruction expected (a malformed or adversarially
// constructed class file feeding the generator something getfield/
// invokevirtual/invokedynamic couldn't actually reference at that index).
func fieldRefTypeError(idx uint16) error {
	return fmt.Errorf("stackmap: constant pool entry #%d has the wrong tag for this instruction", idx)
}
