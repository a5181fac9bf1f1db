package asm

import "github.com/zboralski/goclassfile/code"

// applyDeadCodePolicy walks the emitted instruction layout from bci 0 (plus
// every exception handler, which control can reach via an edge a normal
// flow walk can't see) and decides what to do with whatever it can't prove
// reachable.
func applyDeadCodePolicy(codeBytes []byte, policy DeadCodePolicy, emitted []emittedInsn, handlerBcis []int) error {
	if policy == KeepDeadCode {
		return nil
	}
	byBci := make(map[int]emittedInsn, len(emitted))
	for _, em := range emitted {
		byBci[em.bci] = em
	}

	reachable := map[int]bool{}
	var worklist []int
	if len(emitted) > 0 {
		worklist = append(worklist, 0)
	}
	worklist = append(worklist, handlerBcis...)

	for len(worklist) > 0 {
		bci := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		if reachable[bci] {
			continue
		}
		em, ok := byBci[bci]
		if !ok {
			continue
		}
		reachable[bci] = true
		for _, t := range em.targets {
			worklist = append(worklist, t)
		}
		if !em.op.IsTerminator() {
			worklist = append(worklist, bci+em.size)
		}
	}

	var unreachable []emittedInsn
	for _, em := range emitted {
		if !reachable[em.bci] {
			unreachable = append(unreachable, em)
		}
	}
	if len(unreachable) == 0 {
		return nil
	}
	if policy == FailOnDeadCode {
		return ErrDeadCode
	}
	for _, run := range deadRuns(unreachable) {
		for i := run.start; i < run.end-1; i++ {
			codeBytes[i] = byte(code.Nop)
		}
		codeBytes[run.end-1] = byte(code.Athrow)
	}
	return nil
}

// deadRun is one maximal contiguous range of unreachable bcis.
type deadRun struct{ start, end int }

// deadRuns collapses unreachable, in bci order, into maximal contiguous
// runs: PatchDeadCode rewrites each whole run as nop...athrow rather than
// patching each dead instruction independently, since the run as a whole
// needs exactly one terminator, not one per instruction.
func deadRuns(unreachable []emittedInsn) []deadRun {
	var runs []deadRun
	for _, em := range unreachable {
		if len(runs) > 0 && runs[len(runs)-1].end == em.bci {
			runs[len(runs)-1].end = em.bci + em.size
			continue
		}
		runs = append(runs, deadRun{start: em.bci, end: em.bci + em.size})
	}
	return runs
}
