package pool

// Clone re-interns the entry at srcIdx within src into target, recursively
// cloning whatever it references first, and returns the target-resident
// index: if the entry (by structural key) is already present in target,
// its existing index is reused; otherwise a fresh, dependency-resolved
// copy is inserted. Cloning an entry that already belongs to target is a
// no-op that returns its own index unchanged.
func Clone(target, src *Pool, srcIdx uint16) (uint16, error) {
	if target == src {
		return srcIdx, nil
	}
	e, err := src.Entry(srcIdx)
	if err != nil {
		return 0, err
	}
	clone, err := cloneEntry(target, src, e)
	if err != nil {
		return 0, err
	}
	return target.Index(clone)
}

// cloneEntry rewrites every index field of e to its target-resident
// counterpart, recursively cloning dependencies depth-first. The result is
// a new Entry value with target-local indices, not yet inserted.
func cloneEntry(target, src *Pool, e Entry) (Entry, error) {
	switch v := e.(type) {
	case *Utf8:
		// Immutable value type, shared safely across pools.
		return &Utf8{Raw: append([]byte(nil), v.Raw...), decoded: v.decoded, done: v.done}, nil
	case *Integer:
		return &Integer{Value: v.Value}, nil
	case *Float:
		return &Float{Value: v.Value}, nil
	case *Long:
		return &Long{Value: v.Value}, nil
	case *Double:
		return &Double{Value: v.Value}, nil
	case *Class:
		name, err := Clone(target, src, v.NameIndex)
		if err != nil {
			return nil, err
		}
		return &Class{NameIndex: name}, nil
	case *String:
		s, err := Clone(target, src, v.StringIndex)
		if err != nil {
			return nil, err
		}
		return &String{StringIndex: s}, nil
	case *Fieldref:
		c, n, err := clonePair(target, src, v.ClassIndex, v.NameAndTypeIndex)
		if err != nil {
			return nil, err
		}
		return &Fieldref{ClassIndex: c, NameAndTypeIndex: n}, nil
	case *Methodref:
		c, n, err := clonePair(target, src, v.ClassIndex, v.NameAndTypeIndex)
		if err != nil {
			return nil, err
		}
		return &Methodref{ClassIndex: c, NameAndTypeIndex: n}, nil
	case *InterfaceMethodref:
		c, n, err := clonePair(target, src, v.ClassIndex, v.NameAndTypeIndex)
		if err != nil {
			return nil, err
		}
		return &InterfaceMethodref{ClassIndex: c, NameAndTypeIndex: n}, nil
	case *NameAndType:
		n, d, err := clonePair(target, src, v.NameIndex, v.DescriptorIndex)
		if err != nil {
			return nil, err
		}
		return &NameAndType{NameIndex: n, DescriptorIndex: d}, nil
	case *MethodHandle:
		ref, err := Clone(target, src, v.ReferenceIndex)
		if err != nil {
			return nil, err
		}
		return &MethodHandle{ReferenceKind: v.ReferenceKind, ReferenceIndex: ref}, nil
	case *MethodType:
		d, err := Clone(target, src, v.DescriptorIndex)
		if err != nil {
			return nil, err
		}
		return &MethodType{DescriptorIndex: d}, nil
	case *Dynamic:
		// BootstrapMethodAttrIndex indexes the class's BootstrapMethods
		// attribute, not the pool, so it passes through unchanged; the
		// caller (classfile/attr) is responsible for remapping bootstrap
		// method table indices when it merges that attribute.
		n, err := Clone(target, src, v.NameAndTypeIndex)
		if err != nil {
			return nil, err
		}
		return &Dynamic{BootstrapMethodAttrIndex: v.BootstrapMethodAttrIndex, NameAndTypeIndex: n}, nil
	case *InvokeDynamic:
		n, err := Clone(target, src, v.NameAndTypeIndex)
		if err != nil {
			return nil, err
		}
		return &InvokeDynamic{BootstrapMethodAttrIndex: v.BootstrapMethodAttrIndex, NameAndTypeIndex: n}, nil
	case *Module:
		n, err := Clone(target, src, v.NameIndex)
		if err != nil {
			return nil, err
		}
		return &Module{NameIndex: n}, nil
	case *Package:
		n, err := Clone(target, src, v.NameIndex)
		if err != nil {
			return nil, err
		}
		return &Package{NameIndex: n}, nil
	default:
		return nil, ErrWrongTag
	}
}

func clonePair(target, src *Pool, a, b uint16) (uint16, uint16, error) {
	ca, err := Clone(target, src, a)
	if err != nil {
		return 0, 0, err
	}
	cb, err := Clone(target, src, b)
	if err != nil {
		return 0, 0, err
	}
	return ca, cb, nil
}

// NewShared builds a new pool by eagerly copying every live entry of src in
// index order, deduplicating as it goes. Entries with the same structural identity collapse onto one index; the
// source pool's own duplicates (if any) do not survive the copy.
func NewShared(src *Pool) (*Pool, error) {
	target := New()
	remap := make(map[uint16]uint16, len(src.entries))
	for _, idx := range src.Entries() {
		if _, done := remap[idx]; done {
			continue
		}
		newIdx, err := Clone(target, src, idx)
		if err != nil {
			return nil, err
		}
		remap[idx] = newIdx
	}
	return target, nil
}
