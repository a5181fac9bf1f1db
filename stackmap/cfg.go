package stackmap

import (
	"fmt"
	"sort"

	"github.com/zboralski/goclassfile/code"
	"github.com/zboralski/goclassfile/label"
)

// BuildFuncCFG decodes cm's instruction stream and partitions it into basic
// blocks, for callers that want the control-flow graph alone (e.g. a
// disassembler's -cfg flag) without running the full frame-generation
// worklist. The generator's own abstract interpretation walks this same
// graph.
func BuildFuncCFG(cm *code.CodeModel) (*FuncCFG, error) {
	insns, excs, ctx, err := decodeLinear(cm)
	if err != nil {
		return nil, err
	}
	return buildCFG(insns, excs, ctx)
}

// insnAt pairs a decoded instruction with its bci, the unit the generator's
// worklist and the basic-block builder both key on.
type insnAt struct {
	bci  int
	insn code.Instruction
}

// Succ is a control-flow edge out of a Block: Cond is "" for an
// unconditional/fallthrough edge, "T" for a conditional branch's taken
// edge, "F" for its fallthrough edge, and "E" for an edge into an
// exception handler.
type Succ struct {
	Block int
	Cond  string
}

// Block is one basic block of a method body, addressed by bci rather than
// instruction index: bytecode is variable-width, so there is no fixed
// instruction-index space to key blocks on.
type Block struct {
	ID      int
	Start   int // bci, inclusive
	End     int // bci, exclusive
	Insns   []insnAt
	Succs   []Succ
	IsTerm  bool
	Handler bool // true if Start is some exception region's handler bci
}

// FuncCFG is a method body's control flow graph.
type FuncCFG struct {
	Blocks   []*Block
	leaderAt map[int]int // bci -> index into Blocks
}

// BlockAt returns the block starting at bci, if bci is a leader.
func (g *FuncCFG) BlockAt(bci int) (*Block, bool) {
	idx, ok := g.leaderAt[bci]
	if !ok {
		return nil, false
	}
	return g.Blocks[idx], true
}

// ExceptionRegion is one exception_table entry with its three labels
// already resolved to bcis: each exception handler's bci is seeded with a
// frame of (catch-locals, [Throwable]).
type ExceptionRegion struct {
	Start, End, Handler int
	CatchType           uint16
}

func branchTargets(insn code.Instruction, ctx *label.Context) ([]int, error) {
	switch in := insn.(type) {
	case code.BranchInsn:
		bci, err := ctx.Bci(in.Target)
		if err != nil {
			return nil, err
		}
		return []int{bci}, nil
	case code.DiscontinuedInsn:
		if in.Target == nil {
			return nil, nil // ret: no static target
		}
		bci, err := ctx.Bci(in.Target)
		if err != nil {
			return nil, err
		}
		return []int{bci}, nil
	case code.TableSwitchInsn:
		out := make([]int, 0, len(in.Targets)+1)
		def, err := ctx.Bci(in.Default)
		if err != nil {
			return nil, err
		}
		out = append(out, def)
		for _, t := range in.Targets {
			bci, err := ctx.Bci(t)
			if err != nil {
				return nil, err
			}
			out = append(out, bci)
		}
		return out, nil
	case code.LookupSwitchInsn:
		out := make([]int, 0, len(in.Cases)+1)
		def, err := ctx.Bci(in.Default)
		if err != nil {
			return nil, err
		}
		out = append(out, def)
		for _, c := range in.Cases {
			bci, err := ctx.Bci(c.Target)
			if err != nil {
				return nil, err
			}
			out = append(out, bci)
		}
		return out, nil
	default:
		return nil, nil
	}
}

// decodeLinear walks a CodeModel's element stream into its linear
// instruction-with-bci sequence and resolved exception regions, discarding
// the label/line-number/local-variable elements the StackMapGenerator has
// no use for.
func decodeLinear(cm *code.CodeModel) ([]insnAt, []ExceptionRegion, *label.Context, error) {
	elems, ctx, err := cm.Elements()
	if err != nil {
		return nil, nil, nil, err
	}
	var insns []insnAt
	var excs []ExceptionRegion
	bci := 0
	for _, e := range elems {
		switch el := e.(type) {
		case code.ExceptionCatch:
			start, err := ctx.Bci(el.Start)
			if err != nil {
				return nil, nil, nil, err
			}
			end, err := ctx.Bci(el.End)
			if err != nil {
				return nil, nil, nil, err
			}
			handler, err := ctx.Bci(el.Handler)
			if err != nil {
				return nil, nil, nil, err
			}
			excs = append(excs, ExceptionRegion{Start: start, End: end, Handler: handler, CatchType: el.CatchType})
		case code.Instruction:
			insns = append(insns, insnAt{bci: bci, insn: el})
			bci += el.Size()
		}
	}
	return insns, excs, ctx, nil
}

// buildCFG constructs a method body's control flow graph with a three-pass
// leader/partition/successor algorithm, adapted from fixed-width
// instruction indices to variable-width bytecode indices:
// leaders are {0} ∪ {every exception region's Start, End, and Handler
// bci} ∪ {every branch/switch target} ∪ {the bci right after a
// terminator}; blocks partition the instruction stream at sorted leader
// bcis; successor edges come from each block's last instruction, plus one
// "E" edge from every block that overlaps a try region to that region's
// handler block.
func buildCFG(insns []insnAt, excs []ExceptionRegion, ctx *label.Context) (*FuncCFG, error) {
	if len(insns) == 0 {
		return &FuncCFG{leaderAt: map[int]int{}}, nil
	}

	bciToIdx := make(map[int]int, len(insns))
	for i, ia := range insns {
		bciToIdx[ia.bci] = i
	}

	leaders := map[int]bool{insns[0].bci: true}
	for _, r := range excs {
		leaders[r.Start] = true
		if idx, ok := bciToIdx[r.End]; ok {
			leaders[insns[idx].bci] = true
		}
		leaders[r.Handler] = true
	}
	for i, ia := range insns {
		targets, err := branchTargets(ia.insn, ctx)
		if err != nil {
			return nil, err
		}
		for _, t := range targets {
			leaders[t] = true
		}
		if len(targets) > 0 || ia.insn.Opcode().IsTerminator() {
			if i+1 < len(insns) {
				leaders[insns[i+1].bci] = true
			}
		}
	}

	sorted := make([]int, 0, len(leaders))
	for bci := range leaders {
		sorted = append(sorted, bci)
	}
	sort.Ints(sorted)

	codeEnd := insns[len(insns)-1].bci + insns[len(insns)-1].insn.Size()
	blocks := make([]*Block, len(sorted))
	leaderAt := make(map[int]int, len(sorted))
	for i, start := range sorted {
		end := codeEnd
		if i+1 < len(sorted) {
			end = sorted[i+1]
		}
		startIdx, ok := bciToIdx[start]
		if !ok {
			return nil, fmt.Errorf("stackmap: leader bci %d is not an instruction boundary", start)
		}
		var blockInsns []insnAt
		for j := startIdx; j < len(insns) && insns[j].bci < end; j++ {
			blockInsns = append(blockInsns, insns[j])
		}
		blocks[i] = &Block{ID: i, Start: start, End: end, Insns: blockInsns}
		leaderAt[start] = i
	}
	for _, r := range excs {
		if idx, ok := leaderAt[r.Handler]; ok {
			blocks[idx].Handler = true
		}
	}

	for _, b := range blocks {
		if len(b.Insns) == 0 {
			continue
		}
		last := b.Insns[len(b.Insns)-1]
		targets, err := branchTargets(last.insn, ctx)
		if err != nil {
			return nil, err
		}
		op := last.insn.Opcode()
		_, isRet := last.insn.(code.DiscontinuedInsn)
		isRet = isRet && op == code.Ret
		switch {
		case isRet:
			b.IsTerm = true
		case len(targets) == 0 && !op.IsTerminator():
			if next, ok := leaderAt[b.End]; ok {
				b.Succs = append(b.Succs, Succ{Block: next})
			} else {
				b.IsTerm = true
			}
		case op.IsConditionalBranch():
			if tb, ok := leaderAt[targets[0]]; ok {
				b.Succs = append(b.Succs, Succ{Block: tb, Cond: "T"})
			}
			if next, ok := leaderAt[b.End]; ok {
				b.Succs = append(b.Succs, Succ{Block: next, Cond: "F"})
			}
		case len(targets) > 0:
			// goto/goto_w, jsr/jsr_w, tableswitch, lookupswitch: every target
			// is an unconditional successor. ret's target is a runtime
			// value (whatever was stored into its slot by jsr), not a
			// static one, so it isn't modeled as an edge here.
			for _, t := range targets {
				if tb, ok := leaderAt[t]; ok {
					b.Succs = append(b.Succs, Succ{Block: tb})
				}
			}
		default:
			b.IsTerm = true
		}
	}

	for _, r := range excs {
		handlerBlock, ok := leaderAt[r.Handler]
		if !ok {
			continue
		}
		for _, b := range blocks {
			if b.Start >= r.Start && b.Start < r.End {
				b.Succs = append(b.Succs, Succ{Block: handlerBlock, Cond: "E"})
			}
		}
	}

	return &FuncCFG{Blocks: blocks, leaderAt: leaderAt}, nil
}
