// Package stackmap implements the StackMapGenerator: a data-flow pass
// that computes the verification-type frame at every basic-block leader
// of a method body and emits those at branch targets, exception handlers,
// and after unconditional transfers as a Code attribute's StackMapTable
// (JVMS §4.7.4). It does not re-verify bytecode the way the JVM's own
// verifier does; it computes the types a correct verifier would need,
// trusting the caller's bytecode is well-formed.
package stackmap

import (
	"github.com/zboralski/goclassfile/code"
	"github.com/zboralski/goclassfile/pool"
)

// Option selects when a StackMapTable should be generated, mirroring the
// three choices a compiler's own code generator exposes.
type Option int

const (
	// WhenRequired generates a table only for a class file whose
	// major_version is 50 (J2SE 6.0) or later, the version the split
	// verifier became mandatory for.
	WhenRequired Option = iota
	// Always generates a table regardless of class file version.
	Always
	// Never skips StackMapTable generation entirely, for targeting
	// pre-J2SE-6 class files or a caller that manages frames itself.
	Never
)

// ShouldGenerate reports whether o calls for a StackMapTable on a class
// file of the given major_version.
func (o Option) ShouldGenerate(majorVersion int) bool {
	switch o {
	case Always:
		return true
	case Never:
		return false
	default: // WhenRequired
		return majorVersion >= 50
	}
}

// Resolver computes the nearest common supertype of two classes, named by
// their constant pool Class indices, used when a frame merge at a
// control-flow join finds two incompatible Object types. A Resolver that
// cannot determine a common supertype returns ok == false; the generator
// then falls back to java/lang/Object.
type Resolver func(a, b uint16) (common uint16, ok bool)

// Options configures a Generator.
type Options struct {
	Resolver Resolver // nil resolver is treated as "always unknown"
}

// Generator computes StackMapTable frames for method bodies against one
// constant pool.
type Generator struct {
	pool     *pool.Pool
	resolver Resolver
}

// New returns a Generator that interns fallback/merge class references
// (java/lang/Object, java/lang/Throwable, array class names) into p.
func New(p *pool.Pool, opts Options) *Generator {
	r := opts.Resolver
	if r == nil {
		r = func(a, b uint16) (uint16, bool) { return 0, false }
	}
	return &Generator{pool: p, resolver: r}
}

// MethodShape carries the entry-frame inputs a CodeModel alone doesn't
// have: the method's own descriptor and modifiers (JVMS §4.10.1.6, "the
// method being verified").
type MethodShape struct {
	Descriptor string
	IsStatic   bool
	IsInit     bool   // true for <init>: `this` starts as UninitializedThis
	ThisClass  uint16 // constant pool Class index of the defining class; unused when IsStatic
}

// Generate runs the worklist fixpoint over cm's instruction stream and
// returns the StackMapTable frames for every block start that control can
// reach other than by falling through (branch and switch targets,
// exception handlers, the bci after an unconditional transfer) plus every
// unreached block, never the method's entry bci (JVMS §4.7.4 never emits
// a frame there).
func (g *Generator) Generate(cm *code.CodeModel, shape MethodShape) (*code.StackMapTableAttr, error) {
	insns, excs, ctx, err := decodeLinear(cm)
	if err != nil {
		return nil, err
	}
	if len(insns) == 0 {
		return &code.StackMapTableAttr{}, nil
	}
	cfg, err := buildCFG(insns, excs, ctx)
	if err != nil {
		return nil, err
	}

	entryBci := insns[0].bci
	entryLocals, err := initialLocals(g.pool, shape.Descriptor, shape.IsStatic, shape.IsInit, code.Object(shape.ThisClass))
	if err != nil {
		return nil, err
	}
	throwable, err := g.pool.InternClass("java/lang/Throwable")
	if err != nil {
		return nil, err
	}

	frames := map[int]*frame{entryBci: {Locals: entryLocals}}
	var worklist []int
	worklist = append(worklist, entryBci)

	// Every exception handler bci starts with (method's entry locals,
	// [Throwable]): a documented approximation of JVMS's "the locals live
	// at the try region's start" that trades per-bci locals precision for
	// not needing a second forward pass to know them ahead of the
	// worklist reaching that point.
	for _, r := range excs {
		g.enqueue(frames, &worklist, r.Handler, &frame{
			Locals: append([]code.VType(nil), entryLocals...),
			Stack:  []code.VType{code.Object(throwable)},
		})
	}

	for len(worklist) > 0 {
		bci := worklist[0]
		worklist = worklist[1:]
		block, ok := cfg.BlockAt(bci)
		if !ok {
			continue
		}
		cur := frames[bci].clone()
		for _, ia := range block.Insns {
			if err := g.effect(ia.insn, cur, ia.bci); err != nil {
				return nil, err
			}
		}
		for _, s := range block.Succs {
			target := cfg.Blocks[s.Block]
			out := cur.clone()
			if s.Cond == "E" {
				out = &frame{Locals: append([]code.VType(nil), cur.Locals...), Stack: []code.VType{code.Object(throwable)}}
			}
			g.enqueue(frames, &worklist, target.Start, out)
		}
	}

	// Every block the worklist never reached is dead code: PatchDeadCode
	// already rewrote it as nop...athrow, so seed it with the frame that
	// shape requires to verify — no locals live, one Throwable on the
	// stack for the athrow to consume.
	needsFrame := map[int]bool{}
	for i, ia := range insns {
		targets, _ := branchTargets(ia.insn, ctx) // buildCFG already surfaced any error
		for _, t := range targets {
			needsFrame[t] = true
		}
		if i+1 < len(insns) && ia.insn.Opcode().IsTerminator() {
			needsFrame[insns[i+1].bci] = true
		}
	}
	for _, b := range cfg.Blocks {
		if _, ok := frames[b.Start]; !ok {
			frames[b.Start] = &frame{Stack: []code.VType{code.Object(throwable)}}
			needsFrame[b.Start] = true
		}
	}

	var out []code.Frame
	for _, b := range cfg.Blocks {
		if b.Start == entryBci || !(needsFrame[b.Start] || b.Handler) {
			continue
		}
		if f, ok := frames[b.Start]; ok {
			out = append(out, code.Frame{At: b.Start, Locals: f.Locals, Stack: f.Stack})
		}
	}
	sortFrames(out)
	return &code.StackMapTableAttr{Frames: out}, nil
}

// enqueue merges in into bci's current frame (or seeds it, if bci hasn't
// been reached yet), re-adding bci to the worklist whenever the merge
// changes anything.
func (g *Generator) enqueue(frames map[int]*frame, worklist *[]int, bci int, in *frame) {
	existing, ok := frames[bci]
	if !ok {
		frames[bci] = in
		*worklist = append(*worklist, bci)
		return
	}
	merged := g.merge(existing, in)
	if !merged.equal(existing) {
		frames[bci] = merged
		*worklist = append(*worklist, bci)
	}
}
