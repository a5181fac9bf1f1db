package stackmap

import (
	"fmt"

	"github.com/zboralski/goclassfile/code"
	"github.com/zboralski/goclassfile/pool"
)

// parseOne parses a single field type starting at desc[i] (JVMS §4.3.2),
// returning its verification type and the index just past it. Array types
// are represented, like the class file format itself, by interning the
// descriptor's own array notation ("[I", "[Ljava/lang/String;", ...) as the
// object's class name.
func parseOne(p *pool.Pool, desc string, i int) (code.VType, int, error) {
	if i >= len(desc) {
		return code.VType{}, i, fmt.Errorf("stackmap: truncated descriptor %q", desc)
	}
	switch desc[i] {
	case 'I', 'B', 'C', 'S', 'Z':
		return code.Integer(), i + 1, nil
	case 'F':
		return code.Float(), i + 1, nil
	case 'J':
		return code.Long(), i + 1, nil
	case 'D':
		return code.Double(), i + 1, nil
	case 'L':
		j := i + 1
		for j < len(desc) && desc[j] != ';' {
			j++
		}
		if j >= len(desc) {
			return code.VType{}, i, fmt.Errorf("stackmap: unterminated class descriptor in %q", desc)
		}
		idx, err := p.InternClass(desc[i+1 : j])
		if err != nil {
			return code.VType{}, i, err
		}
		return code.Object(idx), j + 1, nil
	case '[':
		j := i
		for j < len(desc) && desc[j] == '[' {
			j++
		}
		_, end, err := parseOne(p, desc, j)
		if err != nil {
			return code.VType{}, i, err
		}
		idx, err := p.InternClass(desc[i:end])
		if err != nil {
			return code.VType{}, i, err
		}
		return code.Object(idx), end, nil
	default:
		return code.VType{}, i, fmt.Errorf("stackmap: unrecognized descriptor byte %q in %q", desc[i], desc)
	}
}

// paramTypes parses a method descriptor's parameter list, in order, with
// no `this` prepended.
func paramTypes(p *pool.Pool, descriptor string) ([]code.VType, error) {
	if descriptor == "" || descriptor[0] != '(' {
		return nil, fmt.Errorf("stackmap: malformed method descriptor %q", descriptor)
	}
	var params []code.VType
	i := 1
	for i < len(descriptor) && descriptor[i] != ')' {
		vt, next, err := parseOne(p, descriptor, i)
		if err != nil {
			return nil, err
		}
		params = append(params, vt)
		i = next
	}
	return params, nil
}

// initialLocals builds the locals vector a method's entry frame starts
// with: `this` (or UninitializedThis inside a constructor) for an instance
// method, followed by one verification type per parameter (JVMS §4.10.1.6).
func initialLocals(p *pool.Pool, descriptor string, isStatic, isInit bool, this code.VType) ([]code.VType, error) {
	params, err := paramTypes(p, descriptor)
	if err != nil {
		return nil, err
	}
	var locals []code.VType
	if !isStatic {
		if isInit {
			locals = append(locals, code.UninitializedThis())
		} else {
			locals = append(locals, this)
		}
	}
	locals = append(locals, params...)
	return locals, nil
}

// returnType parses the return type portion of a method descriptor; ok is
// false for `V` (void, no value pushed by a `return`/no verification type
// needed).
func returnType(p *pool.Pool, descriptor string) (code.VType, bool, error) {
	i := 0
	for i < len(descriptor) && descriptor[i] != ')' {
		i++
	}
	i++
	if i >= len(descriptor) {
		return code.VType{}, false, fmt.Errorf("stackmap: malformed method descriptor %q", descriptor)
	}
	if descriptor[i] == 'V' {
		return code.VType{}, false, nil
	}
	vt, _, err := parseOne(p, descriptor, i)
	return vt, true, err
}

// fieldType parses a field descriptor (getfield/putfield/ldc's pool-typed
// uses) in its entirety.
func fieldType(p *pool.Pool, descriptor string) (code.VType, error) {
	vt, _, err := parseOne(p, descriptor, 0)
	return vt, err
}
