package attr

import (
	"github.com/zboralski/goclassfile/internal/byteio"
	"github.com/zboralski/goclassfile/pool"
)

// Well-known attribute names (JVMS §4.7).
const (
	NameConstantValue                    = "ConstantValue"
	NameSourceFile                       = "SourceFile"
	NameDeprecated                       = "Deprecated"
	NameSignature                        = "Signature"
	NameExceptions                       = "Exceptions"
	NameBootstrapMethods                 = "BootstrapMethods"
	NameRuntimeVisibleTypeAnnotations    = "RuntimeVisibleTypeAnnotations"
	NameRuntimeInvisibleTypeAnnotations  = "RuntimeInvisibleTypeAnnotations"
)

// ConstantValueAttr is a field's static initial value (JVMS §4.7.2).
type ConstantValueAttr struct{ ValueIndex uint16 }

func (a *ConstantValueAttr) Name() string { return NameConstantValue }

func decodeConstantValue(v *byteio.View, p *pool.Pool, off, length int) (Attribute, error) {
	idx, err := v.U2(off)
	if err != nil {
		return nil, err
	}
	return &ConstantValueAttr{ValueIndex: idx}, nil
}

func encodeConstantValue(a Attribute, buf *byteio.Buf, p *pool.Pool) error {
	buf.WriteU2(a.(*ConstantValueAttr).ValueIndex)
	return nil
}

// SourceFileAttr names the source file a class was compiled from (JVMS
// §4.7.10). Does not permit multiple: the builder keeps the last one set.
type SourceFileAttr struct{ SourceFileIndex uint16 }

func (a *SourceFileAttr) Name() string { return NameSourceFile }

func decodeSourceFile(v *byteio.View, p *pool.Pool, off, length int) (Attribute, error) {
	idx, err := v.U2(off)
	if err != nil {
		return nil, err
	}
	return &SourceFileAttr{SourceFileIndex: idx}, nil
}

func encodeSourceFile(a Attribute, buf *byteio.Buf, p *pool.Pool) error {
	buf.WriteU2(a.(*SourceFileAttr).SourceFileIndex)
	return nil
}

// DeprecatedAttr is a zero-length marker (JVMS §4.7.15).
type DeprecatedAttr struct{}

func (a *DeprecatedAttr) Name() string { return NameDeprecated }

func decodeDeprecated(v *byteio.View, p *pool.Pool, off, length int) (Attribute, error) {
	return &DeprecatedAttr{}, nil
}

func encodeDeprecated(a Attribute, buf *byteio.Buf, p *pool.Pool) error { return nil }

// SignatureAttr carries generic-signature info (JVMS §4.7.9).
type SignatureAttr struct{ Signature uint16 }

func (a *SignatureAttr) Name() string { return NameSignature }

func decodeSignature(v *byteio.View, p *pool.Pool, off, length int) (Attribute, error) {
	idx, err := v.U2(off)
	if err != nil {
		return nil, err
	}
	return &SignatureAttr{Signature: idx}, nil
}

func encodeSignature(a Attribute, buf *byteio.Buf, p *pool.Pool) error {
	buf.WriteU2(a.(*SignatureAttr).Signature)
	return nil
}

// ExceptionsAttr lists a method's checked exceptions (JVMS §4.7.5).
// Supplemented feature: grounded on daimatz-gojvm's method attribute
// decoding and on other_examples readers (mabhi256-jdiag) that rely on it.
type ExceptionsAttr struct{ ExceptionIndexes []uint16 }

func (a *ExceptionsAttr) Name() string { return NameExceptions }

func decodeExceptions(v *byteio.View, p *pool.Pool, off, length int) (Attribute, error) {
	n, err := v.U2(off)
	if err != nil {
		return nil, err
	}
	out := make([]uint16, n)
	for i := 0; i < int(n); i++ {
		idx, err := v.U2(off + 2 + i*2)
		if err != nil {
			return nil, err
		}
		out[i] = idx
	}
	return &ExceptionsAttr{ExceptionIndexes: out}, nil
}

func encodeExceptions(a Attribute, buf *byteio.Buf, p *pool.Pool) error {
	e := a.(*ExceptionsAttr)
	buf.WriteU2(uint16(len(e.ExceptionIndexes)))
	for _, idx := range e.ExceptionIndexes {
		buf.WriteU2(idx)
	}
	return nil
}

// BootstrapMethod is one entry of a class's BootstrapMethods table (JVMS
// §4.7.23), referenced by Dynamic/InvokeDynamic pool entries via
// BootstrapMethodAttrIndex.
type BootstrapMethod struct {
	MethodRefIndex uint16 // index of a MethodHandle entry
	Arguments      []uint16
}

// BootstrapMethodsAttr is a class-level attribute required whenever the
// pool contains a Dynamic or InvokeDynamic entry (JVMS §4.7.23); without
// it, neither pool entry family can resolve its bootstrap method.
type BootstrapMethodsAttr struct{ Methods []BootstrapMethod }

func (a *BootstrapMethodsAttr) Name() string { return NameBootstrapMethods }

func decodeBootstrapMethods(v *byteio.View, p *pool.Pool, off, length int) (Attribute, error) {
	n, err := v.U2(off)
	if err != nil {
		return nil, err
	}
	pos := off + 2
	methods := make([]BootstrapMethod, n)
	for i := 0; i < int(n); i++ {
		refIdx, err := v.U2(pos)
		if err != nil {
			return nil, err
		}
		argc, err := v.U2(pos + 2)
		if err != nil {
			return nil, err
		}
		pos += 4
		args := make([]uint16, argc)
		for j := 0; j < int(argc); j++ {
			a, err := v.U2(pos)
			if err != nil {
				return nil, err
			}
			args[j] = a
			pos += 2
		}
		methods[i] = BootstrapMethod{MethodRefIndex: refIdx, Arguments: args}
	}
	return &BootstrapMethodsAttr{Methods: methods}, nil
}

func encodeBootstrapMethods(a Attribute, buf *byteio.Buf, p *pool.Pool) error {
	bm := a.(*BootstrapMethodsAttr)
	buf.WriteU2(uint16(len(bm.Methods)))
	for _, m := range bm.Methods {
		buf.WriteU2(m.MethodRefIndex)
		buf.WriteU2(uint16(len(m.Arguments)))
		for _, a := range m.Arguments {
			buf.WriteU2(a)
		}
	}
	return nil
}

// TypeAnnotationsAttr is a pass-through-structured store of the
// RuntimeVisible/InvisibleTypeAnnotations payload (JVMS §4.7.20): the
// target_type/type_path/annotation grammar is deep and orthogonal to the
// codec/transform engine, so its info bytes are kept opaque and
// re-emitted byte-for-byte rather than decoded field-by-field, while
// still letting CodeModel round-trip them as a known sub-attribute.
type TypeAnnotationsAttr struct {
	Visible bool
	Data    []byte
}

func (a *TypeAnnotationsAttr) Name() string {
	if a.Visible {
		return NameRuntimeVisibleTypeAnnotations
	}
	return NameRuntimeInvisibleTypeAnnotations
}

func decodeTypeAnnotations(visible bool) Decoder {
	return func(v *byteio.View, p *pool.Pool, off, length int) (Attribute, error) {
		data, err := v.ReadBytes(off, length)
		if err != nil {
			return nil, err
		}
		return &TypeAnnotationsAttr{Visible: visible, Data: data}, nil
	}
}

func encodeTypeAnnotations(a Attribute, buf *byteio.Buf, p *pool.Pool) error {
	buf.WriteBytes(a.(*TypeAnnotationsAttr).Data)
	return nil
}

// Defaults returns a registry with every attribute this package knows how
// to decode/encode already wired in. Callers (classfile, code) start from
// it and add their own registrations (Code, LineNumberTable, ...).
func Defaults() *Registry {
	r := New()
	r.Register(NameConstantValue, decodeConstantValue, encodeConstantValue)
	r.Register(NameSourceFile, decodeSourceFile, encodeSourceFile)
	r.Register(NameDeprecated, decodeDeprecated, encodeDeprecated)
	r.Register(NameSignature, decodeSignature, encodeSignature)
	r.Register(NameExceptions, decodeExceptions, encodeExceptions)
	r.Register(NameBootstrapMethods, decodeBootstrapMethods, encodeBootstrapMethods)
	r.Register(NameRuntimeVisibleTypeAnnotations, decodeTypeAnnotations(true), encodeTypeAnnotations)
	r.Register(NameRuntimeInvisibleTypeAnnotations, decodeTypeAnnotations(false), encodeTypeAnnotations)
	return r
}
