package classfile

import (
	"errors"
	"fmt"

	"github.com/zboralski/goclassfile/attr"
	"github.com/zboralski/goclassfile/code"
	"github.com/zboralski/goclassfile/internal/byteio"
	"github.com/zboralski/goclassfile/pool"
)

// Magic is the class file format's fixed 4-byte header (JVMS §4.1).
const Magic = 0xCAFEBABE

// ErrBadMagic is returned by Parse/Decode when the first four bytes of the
// buffer are not 0xCAFEBABE.
var ErrBadMagic = errors.New("classfile: bad magic")

// ClassModel is a decoded .class file: version, constant pool, access
// flags, superclass chain, interfaces, fields, methods, and class-level
// attributes. A parsed ClassModel exclusively owns the byte buffer it
// decoded from; FieldModel/MethodModel hold no buffer of their own, only
// the attributes already decoded off it.
type ClassModel struct {
	MinorVersion, MajorVersion uint16
	Pool                       *pool.Pool
	AccessFlags                uint16
	ThisClassIndex             uint16
	SuperClassIndex            uint16 // 0 for java/lang/Object
	Interfaces                 []uint16
	Fields                     []*FieldModel
	Methods                    []*MethodModel
	Attributes                 []attr.Attribute
}

// FieldModel is one field_info entry (JVMS §4.5).
type FieldModel struct {
	AccessFlags     uint16
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []attr.Attribute
}

// MethodModel is one method_info entry (JVMS §4.6). Its Code attribute, if
// present, materializes to a *code.CodeModel on the first Code() call.
type MethodModel struct {
	AccessFlags     uint16
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []attr.Attribute
}

// Code returns the method's CodeModel, or nil if it has none (an abstract
// or native method). Decoding is lazy and memoized on the underlying
// code.CodeAttribute.
func (m *MethodModel) Code() (*code.CodeModel, error) {
	for _, a := range m.Attributes {
		if ca, ok := a.(*code.CodeAttribute); ok {
			return ca.Code()
		}
	}
	return nil, nil
}

// Name resolves the field/method's name out of p.
func (f *FieldModel) Name(p *pool.Pool) (string, error) { return p.Utf8String(f.NameIndex) }

// Descriptor resolves the field/method's descriptor out of p.
func (f *FieldModel) Descriptor(p *pool.Pool) (string, error) { return p.Utf8String(f.DescriptorIndex) }

func (m *MethodModel) Name(p *pool.Pool) (string, error) { return p.Utf8String(m.NameIndex) }

func (m *MethodModel) Descriptor(p *pool.Pool) (string, error) { return p.Utf8String(m.DescriptorIndex) }

// Parse decodes data using DefaultRegistry() and attr.PassUnknown. Most
// callers should go through the root package's Parse, which applies
// Options; this is the lower-level entry point for callers that want to
// supply their own registry (e.g. a custom Mapper for vendor attributes).
func Parse(data []byte) (*ClassModel, error) {
	return Decode(data, DefaultRegistry(), attr.PassUnknown)
}

// Decode parses data against an explicit attribute registry and an
// unknown-attribute policy.
func Decode(data []byte, registry *attr.Registry, policy attr.UnknownPolicy) (*ClassModel, error) {
	v := byteio.NewView(data)
	magic, err := v.U4(0)
	if err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, fmt.Errorf("%w: got 0x%08X", ErrBadMagic, magic)
	}
	minor, err := v.U2(4)
	if err != nil {
		return nil, err
	}
	major, err := v.U2(6)
	if err != nil {
		return nil, err
	}

	entries, pos, err := decodePoolEntries(v, 8)
	if err != nil {
		return nil, fmt.Errorf("classfile: decoding constant pool: %w", err)
	}
	p := pool.NewBound(entries)

	accessFlags, err := v.U2(pos)
	if err != nil {
		return nil, err
	}
	thisIdx, err := v.U2(pos + 2)
	if err != nil {
		return nil, err
	}
	superIdx, err := v.U2(pos + 4)
	if err != nil {
		return nil, err
	}
	pos += 6

	ifaceCount, err := v.U2(pos)
	if err != nil {
		return nil, err
	}
	pos += 2
	interfaces := make([]uint16, ifaceCount)
	for i := range interfaces {
		idx, err := v.U2(pos)
		if err != nil {
			return nil, err
		}
		interfaces[i] = idx
		pos += 2
	}

	fields, pos, err := decodeFields(v, p, pos, registry, policy)
	if err != nil {
		return nil, fmt.Errorf("classfile: decoding fields: %w", err)
	}
	methods, pos, err := decodeMethods(v, p, pos, registry, policy)
	if err != nil {
		return nil, fmt.Errorf("classfile: decoding methods: %w", err)
	}
	classAttrs, _, err := decodeAttributes(v, p, pos, registry, policy)
	if err != nil {
		return nil, fmt.Errorf("classfile: decoding class attributes: %w", err)
	}

	return &ClassModel{
		MinorVersion: minor, MajorVersion: major,
		Pool: p, AccessFlags: accessFlags,
		ThisClassIndex: thisIdx, SuperClassIndex: superIdx,
		Interfaces: interfaces, Fields: fields, Methods: methods,
		Attributes: classAttrs,
	}, nil
}

func decodeAttributes(v *byteio.View, p *pool.Pool, pos int, registry *attr.Registry, policy attr.UnknownPolicy) ([]attr.Attribute, int, error) {
	count, err := v.U2(pos)
	if err != nil {
		return nil, pos, err
	}
	pos += 2
	out := make([]attr.Attribute, 0, count)
	for i := 0; i < int(count); i++ {
		nameIdx, err := v.U2(pos)
		if err != nil {
			return nil, pos, err
		}
		length, err := v.U4(pos + 2)
		if err != nil {
			return nil, pos, err
		}
		a, err := registry.Decode(v, p, nameIdx, pos+6, int(length), policy)
		if err != nil {
			return nil, pos, err
		}
		if a != nil {
			out = append(out, a)
		}
		pos += 6 + int(length)
	}
	return out, pos, nil
}

func decodeFields(v *byteio.View, p *pool.Pool, pos int, registry *attr.Registry, policy attr.UnknownPolicy) ([]*FieldModel, int, error) {
	count, err := v.U2(pos)
	if err != nil {
		return nil, pos, err
	}
	pos += 2
	out := make([]*FieldModel, count)
	for i := range out {
		accessFlags, err := v.U2(pos)
		if err != nil {
			return nil, pos, err
		}
		nameIdx, err := v.U2(pos + 2)
		if err != nil {
			return nil, pos, err
		}
		descIdx, err := v.U2(pos + 4)
		if err != nil {
			return nil, pos, err
		}
		pos += 6
		attrs, next, err := decodeAttributes(v, p, pos, registry, policy)
		if err != nil {
			return nil, pos, err
		}
		pos = next
		out[i] = &FieldModel{AccessFlags: accessFlags, NameIndex: nameIdx, DescriptorIndex: descIdx, Attributes: attrs}
	}
	return out, pos, nil
}

func decodeMethods(v *byteio.View, p *pool.Pool, pos int, registry *attr.Registry, policy attr.UnknownPolicy) ([]*MethodModel, int, error) {
	count, err := v.U2(pos)
	if err != nil {
		return nil, pos, err
	}
	pos += 2
	out := make([]*MethodModel, count)
	for i := range out {
		accessFlags, err := v.U2(pos)
		if err != nil {
			return nil, pos, err
		}
		nameIdx, err := v.U2(pos + 2)
		if err != nil {
			return nil, pos, err
		}
		descIdx, err := v.U2(pos + 4)
		if err != nil {
			return nil, pos, err
		}
		pos += 6
		attrs, next, err := decodeAttributes(v, p, pos, registry, policy)
		if err != nil {
			return nil, pos, err
		}
		pos = next
		out[i] = &MethodModel{AccessFlags: accessFlags, NameIndex: nameIdx, DescriptorIndex: descIdx, Attributes: attrs}
	}
	return out, pos, nil
}
