package main

import (
	"flag"
	"fmt"
	"os"

	goclassfile "github.com/zboralski/goclassfile"
	"github.com/zboralski/goclassfile/pool"
)

func cmdDump(args []string) error {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	in := fs.String("in", "", "path to a .class file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("-in is required")
	}

	data, err := os.ReadFile(*in)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	model, err := goclassfile.Parse(data, goclassfile.DefaultOptions())
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	p := model.Pool

	thisName, _ := p.ClassName(model.ThisClassIndex)
	superName := "(none)"
	if model.SuperClassIndex != 0 {
		superName, _ = p.ClassName(model.SuperClassIndex)
	}
	fmt.Printf("class %s extends %s  (version %d.%d, access_flags 0x%04X)\n",
		thisName, superName, model.MajorVersion, model.MinorVersion, model.AccessFlags)

	fmt.Printf("\nconstant pool (%d entries):\n", p.Size())
	for _, idx := range p.Entries() {
		e, err := p.Entry(idx)
		if err != nil {
			return err
		}
		fmt.Printf("  #%-4d %-18s %s\n", idx, e.Tag(), describeEntry(p, e))
	}

	fmt.Printf("\nfields (%d):\n", len(model.Fields))
	for _, f := range model.Fields {
		name, _ := f.Name(p)
		desc, _ := f.Descriptor(p)
		fmt.Printf("  0x%04X %s %s\n", f.AccessFlags, name, desc)
	}

	fmt.Printf("\nmethods (%d):\n", len(model.Methods))
	for _, m := range model.Methods {
		name, _ := m.Name(p)
		desc, _ := m.Descriptor(p)
		cm, err := m.Code()
		if err != nil {
			return err
		}
		note := "no code"
		if cm != nil {
			note = fmt.Sprintf("max_stack=%d max_locals=%d", cm.MaxStack, cm.MaxLocals)
		}
		fmt.Printf("  0x%04X %s %s  (%s)\n", m.AccessFlags, name, desc, note)
	}
	return nil
}

// describeEntry renders e's referenced value or indices, the way javap's
// constant pool dump shows each entry alongside what it resolves to.
func describeEntry(p *pool.Pool, e pool.Entry) string {
	switch v := e.(type) {
	case *pool.Utf8:
		return v.String()
	case *pool.Integer:
		return fmt.Sprintf("%d", v.Value)
	case *pool.Float:
		return fmt.Sprintf("%g", v.Value)
	case *pool.Long:
		return fmt.Sprintf("%d", v.Value)
	case *pool.Double:
		return fmt.Sprintf("%g", v.Value)
	case *pool.Class:
		name, _ := p.Utf8String(v.NameIndex)
		return fmt.Sprintf("#%d  // %s", v.NameIndex, name)
	case *pool.String:
		s, _ := p.Utf8String(v.StringIndex)
		return fmt.Sprintf("#%d  // %q", v.StringIndex, s)
	case *pool.Fieldref:
		return fmt.Sprintf("#%d.#%d", v.ClassIndex, v.NameAndTypeIndex)
	case *pool.Methodref:
		return fmt.Sprintf("#%d.#%d", v.ClassIndex, v.NameAndTypeIndex)
	case *pool.InterfaceMethodref:
		return fmt.Sprintf("#%d.#%d", v.ClassIndex, v.NameAndTypeIndex)
	case *pool.NameAndType:
		name, _ := p.Utf8String(v.NameIndex)
		desc, _ := p.Utf8String(v.DescriptorIndex)
		return fmt.Sprintf("#%d:#%d  // %s %s", v.NameIndex, v.DescriptorIndex, name, desc)
	case *pool.MethodHandle:
		return fmt.Sprintf("kind=%d #%d", v.ReferenceKind, v.ReferenceIndex)
	case *pool.MethodType:
		return fmt.Sprintf("#%d", v.DescriptorIndex)
	case *pool.Dynamic:
		return fmt.Sprintf("bsm#%d #%d", v.BootstrapMethodAttrIndex, v.NameAndTypeIndex)
	case *pool.InvokeDynamic:
		return fmt.Sprintf("bsm#%d #%d", v.BootstrapMethodAttrIndex, v.NameAndTypeIndex)
	case *pool.Module:
		return fmt.Sprintf("#%d", v.NameIndex)
	case *pool.Package:
		return fmt.Sprintf("#%d", v.NameIndex)
	default:
		return ""
	}
}
