package stackmap

import (
	"github.com/zboralski/goclassfile/code"
	"github.com/zboralski/lattice"
)

// ToLatticeFuncCFG converts cfg into a lattice.FuncCFG for DOT rendering
// via github.com/zboralski/lattice/render. name is the method's own name
// (conventionally qualified with its descriptor, to disambiguate
// overloads); resolveCallee turns an invoke* instruction's constant pool
// index into a display name and is called for every invoke in the method,
// surfacing each as a lattice.CallSite.
func ToLatticeFuncCFG(cfg *FuncCFG, name string, resolveCallee func(methodrefIndex uint16) string) *lattice.FuncCFG {
	lcfg := &lattice.FuncCFG{Name: name}
	for _, b := range cfg.Blocks {
		lb := &lattice.BasicBlock{
			ID:    b.ID,
			Start: b.Start,
			End:   b.End,
			Term:  b.IsTerm,
		}
		for _, s := range b.Succs {
			lb.Succs = append(lb.Succs, lattice.Successor{BlockID: s.Block, Cond: s.Cond})
		}
		if resolveCallee != nil {
			for _, ia := range b.Insns {
				if idx, ok := methodrefIndex(ia.insn); ok {
					lb.Calls = append(lb.Calls, lattice.CallSite{Offset: ia.bci, Callee: resolveCallee(idx)})
				}
			}
		}
		lcfg.Blocks = append(lcfg.Blocks, lb)
	}
	return lcfg
}

// ToLatticeCFGGraph aggregates several methods' CFGs into one
// lattice.CFGGraph, the unit github.com/zboralski/lattice/render draws one
// DOT graph per.
func ToLatticeCFGGraph(funcs []*lattice.FuncCFG) *lattice.CFGGraph {
	return &lattice.CFGGraph{Funcs: funcs}
}

func methodrefIndex(insn code.Instruction) (uint16, bool) {
	if in, ok := insn.(code.InvokeInsn); ok {
		return in.MethodrefIndex, true
	}
	return 0, false
}
