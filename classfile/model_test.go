package classfile

import "testing"

// minimalClass is a hand-assembled .class file for:
//
//	public class Empty {
//	    public Empty() { super(); }
//	}
//
// built directly as bytes (JVMS §4.1) to exercise Parse end-to-end without
// a JDK on hand.
var minimalClass = []byte{
	0xCA, 0xFE, 0xBA, 0xBE, // magic
	0x00, 0x00, // minor
	0x00, 0x34, // major = 52 (Java 8)
	0x00, 0x0A, // constant_pool_count = 10 (entries 1..9)

	// #1 Utf8 "Empty"
	0x01, 0x00, 0x05, 'E', 'm', 'p', 't', 'y',
	// #2 Class -> #1
	0x07, 0x00, 0x01,
	// #3 Utf8 "java/lang/Object"
	0x01, 0x00, 0x10, 'j', 'a', 'v', 'a', '/', 'l', 'a', 'n', 'g', '/', 'O', 'b', 'j', 'e', 'c', 't',
	// #4 Class -> #3
	0x07, 0x00, 0x03,
	// #5 Utf8 "<init>"
	0x01, 0x00, 0x06, '<', 'i', 'n', 'i', 't', '>',
	// #6 Utf8 "()V"
	0x01, 0x00, 0x03, '(', ')', 'V',
	// #7 Utf8 "Code"
	0x01, 0x00, 0x04, 'C', 'o', 'd', 'e',
	// #8 NameAndType(#5, #6)
	0x0C, 0x00, 0x05, 0x00, 0x06,
	// #9 Methodref(#4, #8)
	0x0A, 0x00, 0x04, 0x00, 0x08,

	0x00, 0x21, // access_flags: ACC_PUBLIC | ACC_SUPER
	0x00, 0x02, // this_class = #2 (Empty)
	0x00, 0x04, // super_class = #4 (java/lang/Object)
	0x00, 0x00, // interfaces_count
	0x00, 0x00, // fields_count

	0x00, 0x01, // methods_count = 1
	// method[0]: <init>()V
	0x00, 0x01, // access_flags: ACC_PUBLIC
	0x00, 0x05, // name_index = <init>
	0x00, 0x06, // descriptor_index = ()V
	0x00, 0x01, // attributes_count = 1
	// Code attribute
	0x00, 0x07, // attribute_name_index = Code
	0x00, 0x00, 0x00, 0x11, // attribute_length = 17
	0x00, 0x01, // max_stack = 1
	0x00, 0x01, // max_locals = 1
	0x00, 0x00, 0x00, 0x05, // code_length = 5
	0x2A,             // aload_0
	0xB7, 0x00, 0x09, // invokespecial #9
	0xB1,             // return
	0x00, 0x00, // exception_table_length = 0
	0x00, 0x00, // attributes_count = 0

	0x00, 0x00, // class attributes_count = 0
}

func TestParseMinimalClass(t *testing.T) {
	cm, err := Parse(minimalClass)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cm.MajorVersion != 52 {
		t.Errorf("MajorVersion = %d, want 52", cm.MajorVersion)
	}
	name, err := cm.Pool.ClassName(cm.ThisClassIndex)
	if err != nil {
		t.Fatalf("ClassName: %v", err)
	}
	if name != "Empty" {
		t.Errorf("this class = %q, want Empty", name)
	}
	super, err := cm.Pool.ClassName(cm.SuperClassIndex)
	if err != nil || super != "java/lang/Object" {
		t.Errorf("super class = %q, %v; want java/lang/Object, nil", super, err)
	}
	if len(cm.Methods) != 1 {
		t.Fatalf("got %d methods, want 1", len(cm.Methods))
	}
	m := cm.Methods[0]
	mname, err := m.Name(cm.Pool)
	if err != nil || mname != "<init>" {
		t.Fatalf("method name = %q, %v; want <init>, nil", mname, err)
	}
	code, err := m.Code()
	if err != nil {
		t.Fatalf("Code: %v", err)
	}
	if code == nil {
		t.Fatal("expected a CodeModel for <init>")
	}
	if code.MaxStack != 1 || code.MaxLocals != 1 {
		t.Errorf("MaxStack/MaxLocals = %d/%d, want 1/1", code.MaxStack, code.MaxLocals)
	}
	elems, _, err := code.Elements()
	if err != nil {
		t.Fatalf("Elements: %v", err)
	}
	if len(elems) != 3 {
		t.Fatalf("got %d elements, want 3 (aload_0, invokespecial, return): %#v", len(elems), elems)
	}
}

func TestParseBadMagic(t *testing.T) {
	bad := append([]byte{}, minimalClass...)
	bad[0] = 0x00
	if _, err := Parse(bad); err == nil {
		t.Fatal("expected an error for bad magic")
	}
}
