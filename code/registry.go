package code

import "github.com/zboralski/goclassfile/attr"

// DefaultSubAttributes returns a registry wired for every attribute the
// Code attribute itself can carry: StackMapTable, LineNumberTable,
// LocalVariableTable, LocalVariableTypeTable. A MethodModel's CodeAttribute
// uses this registry (optionally extended with attr.Mapper) to decode and
// encode Code's own attributes table, separately from the class/field/
// method-level registry attr.Defaults returns.
func DefaultSubAttributes() *attr.Registry {
	r := attr.New()
	r.Register(NameStackMapTable, decodeStackMapTable, encodeStackMapTable)
	r.Register(NameLineNumberTable, decodeLineNumberTable, encodeLineNumberTable)
	r.Register(NameLocalVariableTable, decodeLocalVariableTable, encodeLocalVariableTable)
	r.Register(NameLocalVariableTypeTable, decodeLocalVariableTypeTable, encodeLocalVariableTypeTable)
	return r
}
