// Package attr implements the attribute dispatch table shared by
// ClassModel, FieldModel, MethodModel, and CodeModel: attribute name
// (a Utf8 pool entry) maps to a decoder/encoder pair, with raw
// pass-through for anything the registry doesn't recognize.
//
// The exhaustive enumeration of every JVMS attribute is left to the public
// façade; this package implements the dispatch mechanism plus the handful
// of attributes the core data model and code generation need structured
// access to.
package attr

import (
	"fmt"

	"github.com/zboralski/goclassfile/internal/byteio"
	"github.com/zboralski/goclassfile/pool"
)

// Attribute is the sealed interface every decoded attribute implements.
// Name returns the attribute_name_index's resolved Utf8 string.
type Attribute interface {
	Name() string
}

// Decoder decodes an attribute's info bytes, found at [off, off+length) in
// v, using p to resolve any constant pool references.
type Decoder func(v *byteio.View, p *pool.Pool, off, length int) (Attribute, error)

// Encoder appends an attribute's info bytes to buf (not including the
// attribute_name_index/attribute_length header, which the caller writes).
type Encoder func(a Attribute, buf *byteio.Buf, p *pool.Pool) error

type codec struct {
	decode Decoder
	encode Encoder
}

// UnknownPolicy controls what happens when an attribute name has no
// registered codec.
type UnknownPolicy int

const (
	// PassUnknown retains the raw bytes of an unrecognized attribute so it
	// can be re-emitted unchanged (the default).
	PassUnknown UnknownPolicy = iota
	// DropUnknown discards unrecognized attributes entirely.
	DropUnknown
)

// Mapper lets a caller override or extend attribute dispatch for a
// specific name, consulted before the registry's own table.
type Mapper func(name string) (Decoder, Encoder, bool)

// Registry is a name -> codec dispatch table. The zero value is not usable;
// construct one with New.
type Registry struct {
	codecs map[string]codec
	mapper Mapper
}

// New returns an empty registry. Callers register built-in or custom
// attributes with Register before using Decode/Encode.
func New() *Registry {
	return &Registry{codecs: make(map[string]codec)}
}

// WithMapper returns a copy of r consulting mapper before its own table.
func (r *Registry) WithMapper(mapper Mapper) *Registry {
	return &Registry{codecs: r.codecs, mapper: mapper}
}

// Register installs a decoder/encoder pair for name, overwriting any
// previous registration.
func (r *Registry) Register(name string, d Decoder, e Encoder) {
	r.codecs[name] = codec{decode: d, encode: e}
}

func (r *Registry) lookup(name string) (Decoder, Encoder, bool) {
	if r.mapper != nil {
		if d, e, ok := r.mapper(name); ok {
			return d, e, true
		}
	}
	c, ok := r.codecs[name]
	if !ok {
		return nil, nil, false
	}
	return c.decode, c.encode, true
}

// Decode reads one attribute at [off, off+length) in v, whose name is the
// Utf8 entry at nameIndex. Unknown names are handled per policy.
func (r *Registry) Decode(v *byteio.View, p *pool.Pool, nameIndex uint16, off, length int, policy UnknownPolicy) (Attribute, error) {
	name, err := p.Utf8String(nameIndex)
	if err != nil {
		return nil, fmt.Errorf("attr: resolving attribute name: %w", err)
	}
	if d, _, ok := r.lookup(name); ok {
		a, err := d(v, p, off, length)
		if err != nil {
			return nil, fmt.Errorf("attr: decoding %q: %w", name, err)
		}
		return a, nil
	}
	if policy == DropUnknown {
		return nil, nil
	}
	data, err := v.ReadBytes(off, length)
	if err != nil {
		return nil, fmt.Errorf("attr: reading raw %q: %w", name, err)
	}
	return &Raw{name: name, Data: data}, nil
}

// Encode appends a's info bytes (without the header) to buf.
func (r *Registry) Encode(a Attribute, buf *byteio.Buf, p *pool.Pool) error {
	if raw, ok := a.(*Raw); ok {
		buf.WriteBytes(raw.Data)
		return nil
	}
	_, e, ok := r.lookup(a.Name())
	if !ok {
		return fmt.Errorf("attr: no encoder registered for %q", a.Name())
	}
	return e(a, buf, p)
}

// Raw is the pass-through representation of an attribute with no
// registered codec: its name and undecoded info bytes, re-emitted verbatim.
type Raw struct {
	name string
	Data []byte
}

func (r *Raw) Name() string { return r.name }
