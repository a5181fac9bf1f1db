package pool

// The Intern* helpers give callers a name/value-oriented API instead of
// making them thread index numbers through by hand. Each one interns any
// child entries (a class's name Utf8, a methodref's NameAndType, ...)
// before interning the entry that references them, since pool entries only
// ever hold indices, never nested pointers.

func (p *Pool) InternUtf8(s string) (uint16, error) {
	return p.Index(NewUtf8(s))
}

func (p *Pool) InternInteger(v int32) (uint16, error) { return p.Index(&Integer{Value: v}) }
func (p *Pool) InternFloat(v float32) (uint16, error) { return p.Index(&Float{Value: v}) }
func (p *Pool) InternLong(v int64) (uint16, error)    { return p.Index(&Long{Value: v}) }
func (p *Pool) InternDouble(v float64) (uint16, error) { return p.Index(&Double{Value: v}) }

func (p *Pool) InternClass(internalName string) (uint16, error) {
	nameIdx, err := p.InternUtf8(internalName)
	if err != nil {
		return 0, err
	}
	return p.Index(&Class{NameIndex: nameIdx})
}

func (p *Pool) InternString(value string) (uint16, error) {
	strIdx, err := p.InternUtf8(value)
	if err != nil {
		return 0, err
	}
	return p.Index(&String{StringIndex: strIdx})
}

func (p *Pool) InternNameAndType(name, descriptor string) (uint16, error) {
	nameIdx, err := p.InternUtf8(name)
	if err != nil {
		return 0, err
	}
	descIdx, err := p.InternUtf8(descriptor)
	if err != nil {
		return 0, err
	}
	return p.Index(&NameAndType{NameIndex: nameIdx, DescriptorIndex: descIdx})
}

func (p *Pool) internRef(class, name, descriptor string, tag Tag) (uint16, error) {
	classIdx, err := p.InternClass(class)
	if err != nil {
		return 0, err
	}
	natIdx, err := p.InternNameAndType(name, descriptor)
	if err != nil {
		return 0, err
	}
	switch tag {
	case TagFieldref:
		return p.Index(&Fieldref{ClassIndex: classIdx, NameAndTypeIndex: natIdx})
	case TagMethodref:
		return p.Index(&Methodref{ClassIndex: classIdx, NameAndTypeIndex: natIdx})
	default:
		return p.Index(&InterfaceMethodref{ClassIndex: classIdx, NameAndTypeIndex: natIdx})
	}
}

func (p *Pool) InternFieldref(class, name, descriptor string) (uint16, error) {
	return p.internRef(class, name, descriptor, TagFieldref)
}

func (p *Pool) InternMethodref(class, name, descriptor string) (uint16, error) {
	return p.internRef(class, name, descriptor, TagMethodref)
}

func (p *Pool) InternInterfaceMethodref(class, name, descriptor string) (uint16, error) {
	return p.internRef(class, name, descriptor, TagInterfaceMethodref)
}

func (p *Pool) InternMethodHandle(kind RefKind, refIndex uint16) (uint16, error) {
	return p.Index(&MethodHandle{ReferenceKind: kind, ReferenceIndex: refIndex})
}

func (p *Pool) InternMethodType(descriptor string) (uint16, error) {
	descIdx, err := p.InternUtf8(descriptor)
	if err != nil {
		return 0, err
	}
	return p.Index(&MethodType{DescriptorIndex: descIdx})
}

// InternDynamic and InternInvokeDynamic take a bootstrap method table index
// directly: the BootstrapMethods attribute that owns that table is decoded
// and written by the attr package, not by Pool.
func (p *Pool) InternDynamic(bootstrapMethodAttrIndex uint16, name, descriptor string) (uint16, error) {
	natIdx, err := p.InternNameAndType(name, descriptor)
	if err != nil {
		return 0, err
	}
	return p.Index(&Dynamic{BootstrapMethodAttrIndex: bootstrapMethodAttrIndex, NameAndTypeIndex: natIdx})
}

func (p *Pool) InternInvokeDynamic(bootstrapMethodAttrIndex uint16, name, descriptor string) (uint16, error) {
	natIdx, err := p.InternNameAndType(name, descriptor)
	if err != nil {
		return 0, err
	}
	return p.Index(&InvokeDynamic{BootstrapMethodAttrIndex: bootstrapMethodAttrIndex, NameAndTypeIndex: natIdx})
}

func (p *Pool) InternModule(name string) (uint16, error) {
	nameIdx, err := p.InternUtf8(name)
	if err != nil {
		return 0, err
	}
	return p.Index(&Module{NameIndex: nameIdx})
}

func (p *Pool) InternPackage(name string) (uint16, error) {
	nameIdx, err := p.InternUtf8(name)
	if err != nil {
		return 0, err
	}
	return p.Index(&Package{NameIndex: nameIdx})
}
