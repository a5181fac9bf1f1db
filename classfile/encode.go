package classfile

import (
	"fmt"
	"math"

	"github.com/zboralski/goclassfile/attr"
	"github.com/zboralski/goclassfile/internal/byteio"
	"github.com/zboralski/goclassfile/pool"
)

// Encode linearizes model into a .class byte buffer using registry to
// encode its attributes, the mirror image of Decode: magic, version,
// pool, access flags, this/super, interfaces, fields, methods,
// attributes, all big-endian (JVMS §4.1).
func Encode(model *ClassModel, registry *attr.Registry) ([]byte, error) {
	buf := byteio.NewBuf(1024)
	buf.WriteU4(Magic)
	buf.WriteU2(model.MinorVersion)
	buf.WriteU2(model.MajorVersion)

	if err := encodePoolEntries(buf, model.Pool); err != nil {
		return nil, fmt.Errorf("classfile: encoding constant pool: %w", err)
	}

	buf.WriteU2(model.AccessFlags)
	buf.WriteU2(model.ThisClassIndex)
	buf.WriteU2(model.SuperClassIndex)

	buf.WriteU2(uint16(len(model.Interfaces)))
	for _, idx := range model.Interfaces {
		buf.WriteU2(idx)
	}

	buf.WriteU2(uint16(len(model.Fields)))
	for _, f := range model.Fields {
		buf.WriteU2(f.AccessFlags)
		buf.WriteU2(f.NameIndex)
		buf.WriteU2(f.DescriptorIndex)
		if err := encodeAttributes(buf, model.Pool, registry, f.Attributes); err != nil {
			return nil, fmt.Errorf("classfile: encoding field attributes: %w", err)
		}
	}

	buf.WriteU2(uint16(len(model.Methods)))
	for _, m := range model.Methods {
		buf.WriteU2(m.AccessFlags)
		buf.WriteU2(m.NameIndex)
		buf.WriteU2(m.DescriptorIndex)
		if err := encodeAttributes(buf, model.Pool, registry, m.Attributes); err != nil {
			return nil, fmt.Errorf("classfile: encoding method attributes: %w", err)
		}
	}

	if err := encodeAttributes(buf, model.Pool, registry, model.Attributes); err != nil {
		return nil, fmt.Errorf("classfile: encoding class attributes: %w", err)
	}

	return buf.Into(), nil
}

func encodeAttributes(buf *byteio.Buf, p *pool.Pool, registry *attr.Registry, attrs []attr.Attribute) error {
	buf.WriteU2(uint16(len(attrs)))
	for _, a := range attrs {
		nameIdx, err := p.InternUtf8(a.Name())
		if err != nil {
			return err
		}
		buf.WriteU2(nameIdx)
		lenPos := buf.Mark()
		buf.WriteU4(0)
		if err := registry.Encode(a, buf, p); err != nil {
			return err
		}
		buf.PatchU4(lenPos, uint32(buf.Size()-lenPos-4))
	}
	return nil
}

// encodePoolEntries writes constant_pool_count followed by every live
// entry, mirroring decodePoolEntries (poolio.go). p's entries slice is
// 1-indexed with a nil at 0 and at a Long/Double's reserved second slot.
func encodePoolEntries(buf *byteio.Buf, p *pool.Pool) error {
	buf.WriteU2(p.Size())
	for _, idx := range p.Entries() {
		e, err := p.Entry(idx)
		if err != nil {
			return err
		}
		buf.WriteU1(uint8(e.Tag()))
		if err := encodeOnePoolEntry(buf, e); err != nil {
			return fmt.Errorf("constant pool entry %d: %w", idx, err)
		}
	}
	return nil
}

func encodeOnePoolEntry(buf *byteio.Buf, e pool.Entry) error {
	switch v := e.(type) {
	case *pool.Utf8:
		buf.WriteU2(uint16(len(v.Raw)))
		buf.WriteBytes(v.Raw)
	case *pool.Integer:
		buf.WriteS4(v.Value)
	case *pool.Float:
		buf.WriteU4(math.Float32bits(v.Value))
	case *pool.Long:
		buf.WriteU4(uint32(uint64(v.Value) >> 32))
		buf.WriteU4(uint32(uint64(v.Value)))
	case *pool.Double:
		bits := math.Float64bits(v.Value)
		buf.WriteU4(uint32(bits >> 32))
		buf.WriteU4(uint32(bits))
	case *pool.Class:
		buf.WriteU2(v.NameIndex)
	case *pool.String:
		buf.WriteU2(v.StringIndex)
	case *pool.Fieldref:
		buf.WriteU2(v.ClassIndex)
		buf.WriteU2(v.NameAndTypeIndex)
	case *pool.Methodref:
		buf.WriteU2(v.ClassIndex)
		buf.WriteU2(v.NameAndTypeIndex)
	case *pool.InterfaceMethodref:
		buf.WriteU2(v.ClassIndex)
		buf.WriteU2(v.NameAndTypeIndex)
	case *pool.NameAndType:
		buf.WriteU2(v.NameIndex)
		buf.WriteU2(v.DescriptorIndex)
	case *pool.MethodHandle:
		buf.WriteU1(uint8(v.ReferenceKind))
		buf.WriteU2(v.ReferenceIndex)
	case *pool.MethodType:
		buf.WriteU2(v.DescriptorIndex)
	case *pool.Dynamic:
		buf.WriteU2(v.BootstrapMethodAttrIndex)
		buf.WriteU2(v.NameAndTypeIndex)
	case *pool.InvokeDynamic:
		buf.WriteU2(v.BootstrapMethodAttrIndex)
		buf.WriteU2(v.NameAndTypeIndex)
	case *pool.Module:
		buf.WriteU2(v.NameIndex)
	case *pool.Package:
		buf.WriteU2(v.NameIndex)
	default:
		return fmt.Errorf("unknown constant pool entry type %T", e)
	}
	return nil
}
