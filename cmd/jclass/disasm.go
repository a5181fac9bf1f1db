package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	goclassfile "github.com/zboralski/goclassfile"
	"github.com/zboralski/goclassfile/code"
	"github.com/zboralski/goclassfile/pool"
	"github.com/zboralski/goclassfile/stackmap"

	"github.com/zboralski/lattice"
	latticerender "github.com/zboralski/lattice/render"
)

func cmdDisasm(args []string) error {
	fs := flag.NewFlagSet("disasm", flag.ExitOnError)
	in := fs.String("in", "", "path to a .class file")
	cfgDir := fs.String("cfg", "", "directory to write one <method>.dot control-flow graph per method")
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

	if *cfgDir != "" {
		if err := os.MkdirAll(*cfgDir, 0755); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
	}

	for _, m := range model.Methods {
		name, _ := m.Name(p)
		desc, _ := m.Descriptor(p)
		cm, err := m.Code()
		if err != nil {
			return err
		}
		fmt.Printf("%s%s:\n", name, desc)
		if cm == nil {
			fmt.Println("  (no code)")
			continue
		}
		if err := disasmMethod(p, cm); err != nil {
			return fmt.Errorf("%s%s: %w", name, desc, err)
		}

		if *cfgDir != "" {
			if err := writeCFGDot(p, cm, name, *cfgDir); err != nil {
				return fmt.Errorf("%s%s: rendering cfg: %w", name, desc, err)
			}
		}
	}
	return nil
}

// disasmMethod prints cm's element stream in program order: an "L<addr>:"
// line for each label (named by the label's pointer), a "// line N" line
// for each line-number entry, and the bare mnemonic for each instruction.
// Other element kinds are not printed.
func disasmMethod(p *pool.Pool, cm *code.CodeModel) error {
	elems, _, err := cm.Elements()
	if err != nil {
		return err
	}
	for _, e := range elems {
		switch v := e.(type) {
		case code.LabelElement:
			fmt.Printf("    L%p:\n", v.L)
		case code.LineNumber:
			fmt.Printf("    // line %d\n", v.Line)
		case code.Instruction:
			fmt.Printf("      %s\n", v.Opcode())
		}
	}
	return nil
}

// writeCFGDot renders method's control-flow graph as a standalone DOT file
// named after it, via github.com/zboralski/lattice/render.DOTCFG.
func writeCFGDot(p *pool.Pool, cm *code.CodeModel, name, dir string) error {
	cfg, err := stackmap.BuildFuncCFG(cm)
	if err != nil {
		return err
	}
	resolveCallee := func(methodrefIndex uint16) string {
		mr, err := p.Entry(methodrefIndex)
		if err != nil {
			return fmt.Sprintf("#%d", methodrefIndex)
		}
		m, ok := mr.(*pool.Methodref)
		if !ok {
			return fmt.Sprintf("#%d", methodrefIndex)
		}
		nat, err := p.Entry(m.NameAndTypeIndex)
		if err != nil {
			return fmt.Sprintf("#%d", methodrefIndex)
		}
		n, ok := nat.(*pool.NameAndType)
		if !ok {
			return fmt.Sprintf("#%d", methodrefIndex)
		}
		s, _ := p.Utf8String(n.NameIndex)
		return s
	}
	lcfg := stackmap.ToLatticeFuncCFG(cfg, name, resolveCallee)
	g := &lattice.CFGGraph{Funcs: []*lattice.FuncCFG{lcfg}}
	dot := latticerender.DOTCFG(g, name)
	return os.WriteFile(filepath.Join(dir, name+".dot"), []byte(dot), 0644)
}
