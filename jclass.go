package goclassfile

import (
	"fmt"

	"github.com/zboralski/goclassfile/asm"
	"github.com/zboralski/goclassfile/attr"
	"github.com/zboralski/goclassfile/classfile"
	"github.com/zboralski/goclassfile/code"
	"github.com/zboralski/goclassfile/pool"
	"github.com/zboralski/goclassfile/stackmap"
	"github.com/zboralski/goclassfile/xform"
)

// accStatic is the method_info access_flags bit marking a static method
// (JVMS §4.6 Table 4.6-A); <init> methods never carry it.
const accStatic = 0x0008

// Parse decodes data into a ClassModel, consulting opts.AttributeMapper
// (if set) for every attribute name ahead of the built-in registry, and
// applying opts.UnknownAttributes to whatever neither recognizes. Unknown
// sub-attributes of a Code attribute are always kept, whatever the policy.
func Parse(data []byte, opts Options) (*classfile.ClassModel, error) {
	registry := classfile.DefaultRegistry()
	if opts.AttributeMapper != nil {
		registry = registry.WithMapper(opts.AttributeMapper)
	}
	return classfile.Decode(data, registry, opts.UnknownAttributes)
}

// ClassHeader carries the fields Build needs beyond its thisClass, pool,
// and handler arguments: the version, access flags, superclass, and
// interface list a handler has no other way to set, since ClassBuilder
// only ever accumulates members, not header fields.
type ClassHeader struct {
	MinorVersion, MajorVersion uint16
	AccessFlags                uint16
	ThisClass                  string
	SuperClass                 string // "" for java/lang/Object itself
	Interfaces                 []string
}

// Build interns header's class names into p, drives handler against a
// fresh xform.ClassBuilder, applies opts to every accumulated method's
// code, and serializes the result into a .class byte buffer.
func Build(header ClassHeader, p *pool.Pool, opts Options, handler func(xform.ClassBuilder) error) ([]byte, error) {
	thisIdx, err := p.InternClass(header.ThisClass)
	if err != nil {
		return nil, fmt.Errorf("goclassfile: interning this_class: %w", err)
	}
	var superIdx uint16
	if header.SuperClass != "" {
		superIdx, err = p.InternClass(header.SuperClass)
		if err != nil {
			return nil, fmt.Errorf("goclassfile: interning super_class: %w", err)
		}
	}
	ifaces := make([]uint16, len(header.Interfaces))
	for i, name := range header.Interfaces {
		idx, err := p.InternClass(name)
		if err != nil {
			return nil, fmt.Errorf("goclassfile: interning interface %q: %w", name, err)
		}
		ifaces[i] = idx
	}

	b := xform.NewClassBuilder(p)
	if err := handler(b); err != nil {
		return nil, err
	}

	methods, err := applyCodeOptions(b.Methods(), p, opts, int(header.MajorVersion), thisIdx)
	if err != nil {
		return nil, err
	}

	model := &classfile.ClassModel{
		MinorVersion: header.MinorVersion, MajorVersion: header.MajorVersion,
		Pool: p, AccessFlags: header.AccessFlags,
		ThisClassIndex: thisIdx, SuperClassIndex: superIdx,
		Interfaces: ifaces, Fields: b.Fields(), Methods: methods,
		Attributes: b.Attributes(),
	}
	return classfile.Encode(model, classfile.DefaultRegistry())
}

// Transform re-emits model through t, chooses model.Pool or
// a fresh pool.New() per opts.PoolSharing, applies opts to every
// resulting method's code, and serializes the result.
func Transform(model *classfile.ClassModel, newThisClassName string, opts Options, t xform.ClassTransform) ([]byte, error) {
	p := model.Pool
	if opts.PoolSharing == NewPool {
		p = pool.New()
	}

	var newThisIdx uint16
	if newThisClassName != "" {
		idx, err := p.InternClass(newThisClassName)
		if err != nil {
			return nil, fmt.Errorf("goclassfile: interning this_class: %w", err)
		}
		newThisIdx = idx
	}

	out, err := xform.TransformClass(model, p, newThisIdx, t)
	if err != nil {
		return nil, err
	}

	out.Methods, err = applyCodeOptions(out.Methods, p, opts, int(out.MajorVersion), out.ThisClassIndex)
	if err != nil {
		return nil, err
	}

	return classfile.Encode(out, classfile.DefaultRegistry())
}

// applyCodeOptions runs opts' debug/line-number-dropping and stack-map
// policies over every method's Code attribute, in that order: dropping
// happens before regeneration so a freshly computed StackMapTable never
// reflects debug elements the caller asked to discard.
func applyCodeOptions(methods []*classfile.MethodModel, p *pool.Pool, opts Options, majorVersion int, thisClassIdx uint16) ([]*classfile.MethodModel, error) {
	if !opts.DropDebugElements && !opts.DropLineNumbers && opts.StackMaps == stackmap.Never &&
		opts.ShortJumps == asm.FixShortJumps && opts.DeadCode == asm.PatchDeadCode {
		return methods, nil
	}

	asmOpts := asm.Options{ShortJumps: opts.ShortJumps, DeadCode: opts.DeadCode}
	gen := stackmap.New(p, stackmap.Options{Resolver: opts.ClassHierarchyResolver})

	out := make([]*classfile.MethodModel, len(methods))
	for i, m := range methods {
		cm, err := m.Code()
		if err != nil {
			return nil, err
		}
		if cm == nil {
			out[i] = m
			continue
		}

		ct := dropElements(opts.DropDebugElements, opts.DropLineNumbers)
		newCM, err := xform.TransformCodeChecked(cm, asmOpts, ct, !opts.DropDeadLabels)
		if err != nil {
			return nil, fmt.Errorf("goclassfile: method %d: %w", i, err)
		}

		if opts.StackMaps.ShouldGenerate(majorVersion) {
			name, err := m.Name(p)
			if err != nil {
				return nil, err
			}
			desc, err := m.Descriptor(p)
			if err != nil {
				return nil, err
			}
			shape := stackmap.MethodShape{
				Descriptor: desc,
				IsStatic:   m.AccessFlags&accStatic != 0,
				IsInit:     name == "<init>",
				ThisClass:  thisClassIdx,
			}
			smt, err := gen.Generate(newCM, shape)
			if err != nil {
				return nil, fmt.Errorf("goclassfile: generating stack map for method %d: %w", i, err)
			}
			newCM.Attributes = replaceStackMapTable(newCM.Attributes, smt)
		}

		out[i] = &classfile.MethodModel{
			AccessFlags: m.AccessFlags, NameIndex: m.NameIndex, DescriptorIndex: m.DescriptorIndex,
			Attributes: replaceCode(m.Attributes, newCM),
		}
	}
	return out, nil
}

// dropElements returns a CodeTransform dropping LineNumber elements when
// dropLines is set and LocalVariable/LocalVariableType elements when
// dropDebug is set, passing everything else through unchanged.
func dropElements(dropDebug, dropLines bool) xform.CodeTransform {
	return func(b xform.CodeBuilder, e code.Element) error {
		switch e.(type) {
		case code.LineNumber:
			if dropLines {
				return nil
			}
		case code.LocalVariable, code.LocalVariableType:
			if dropDebug {
				return nil
			}
		}
		b.With(e)
		return nil
	}
}

func replaceCode(attrs []attr.Attribute, cm *code.CodeModel) []attr.Attribute {
	out := make([]attr.Attribute, len(attrs))
	replaced := false
	for i, a := range attrs {
		if _, ok := a.(*code.CodeAttribute); ok {
			out[i] = &code.CodeAttribute{Model: cm}
			replaced = true
			continue
		}
		out[i] = a
	}
	if !replaced {
		out = append(out, &code.CodeAttribute{Model: cm})
	}
	return out
}

func replaceStackMapTable(attrs []attr.Attribute, smt *code.StackMapTableAttr) []attr.Attribute {
	out := make([]attr.Attribute, 0, len(attrs)+1)
	for _, a := range attrs {
		if _, ok := a.(*code.StackMapTableAttr); ok {
			continue
		}
		out = append(out, a)
	}
	return append(out, smt)
}
