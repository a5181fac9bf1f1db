// Package classfile implements the top-level structural views over a
// parsed .class byte buffer: ClassModel, FieldModel, MethodModel. Parsing
// follows JVMS §4.1's class file layout: magic, version, constant pool,
// access flags, this/super, interfaces, fields, methods, attributes.
package classfile

import (
	"github.com/zboralski/goclassfile/attr"
	"github.com/zboralski/goclassfile/code"
)

// DefaultRegistry returns the attribute registry a ClassModel decodes
// class/field/method-level attributes through: attr.Defaults() (the
// built-in ConstantValue/SourceFile/Deprecated/Signature/Exceptions/
// BootstrapMethods/TypeAnnotations set) plus Code, which needs the code
// package's own sub-attribute registry for its nested attributes table.
func DefaultRegistry() *attr.Registry {
	r := attr.Defaults()
	sub := code.DefaultSubAttributes()
	r.Register(code.NameCode, code.Decoder(sub, attr.PassUnknown), code.Encoder(sub))
	return r
}
