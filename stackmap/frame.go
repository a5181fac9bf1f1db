package stackmap

import (
	"sort"

	"github.com/zboralski/goclassfile/code"
)

// frame is the generator's working verification-type frame: a locals
// vector and an operand stack, both growing/shrinking as effect walks
// instructions (JVMS §4.10.1.3).
type frame struct {
	Locals []code.VType
	Stack  []code.VType
}

func (f *frame) clone() *frame {
	return &frame{
		Locals: append([]code.VType(nil), f.Locals...),
		Stack:  append([]code.VType(nil), f.Stack...),
	}
}

func (f *frame) equal(o *frame) bool {
	if len(f.Locals) != len(o.Locals) || len(f.Stack) != len(o.Stack) {
		return false
	}
	for i := range f.Locals {
		if !f.Locals[i].Equal(o.Locals[i]) {
			return false
		}
	}
	for i := range f.Stack {
		if !f.Stack[i].Equal(o.Stack[i]) {
			return false
		}
	}
	return true
}

func (f *frame) push(v code.VType) { f.Stack = append(f.Stack, v) }

func (f *frame) pop() code.VType {
	if len(f.Stack) == 0 {
		return code.Top()
	}
	v := f.Stack[len(f.Stack)-1]
	f.Stack = f.Stack[:len(f.Stack)-1]
	return v
}
func (f *frame) popN(n int) {
	for i := 0; i < n; i++ {
		f.pop()
	}
}

func (f *frame) setLocal(slot int, v code.VType) {
	for len(f.Locals) <= slot {
		f.Locals = append(f.Locals, code.Top())
	}
	f.Locals[slot] = v
	if v.Width() == 2 {
		for len(f.Locals) <= slot+1 {
			f.Locals = append(f.Locals, code.Top())
		}
		f.Locals[slot+1] = code.Top()
	}
}

func (f *frame) getLocal(slot int) code.VType {
	if slot < 0 || slot >= len(f.Locals) {
		return code.Top()
	}
	return f.Locals[slot]
}

// merge computes the frame-in a control-flow join sees: the least-upper-
// bound of a and b, widening VObject disagreements through g.resolver and
// trimming a locals-length mismatch to the shorter vector.
func (g *Generator) merge(a, b *frame) *frame {
	return &frame{
		Locals: g.mergeVector(a.Locals, b.Locals),
		Stack:  g.mergeVector(a.Stack, b.Stack),
	}
}

func (g *Generator) mergeVector(a, b []code.VType) []code.VType {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	out := make([]code.VType, n)
	for i := 0; i < n; i++ {
		out[i] = g.mergeOne(a[i], b[i])
	}
	return out
}

func (g *Generator) mergeOne(a, b code.VType) code.VType {
	if a.Equal(b) {
		return a
	}
	if a.Kind == code.VNull && b.Kind == code.VObject {
		return b
	}
	if b.Kind == code.VNull && a.Kind == code.VObject {
		return a
	}
	if a.Kind == code.VObject && b.Kind == code.VObject {
		if common, ok := g.resolver(a.ClassIndex, b.ClassIndex); ok {
			return code.Object(common)
		}
		if idx, err := g.pool.InternClass("java/lang/Object"); err == nil {
			return code.Object(idx)
		}
	}
	return code.Top()
}

func sortFrames(frames []code.Frame) {
	sort.Slice(frames, func(i, j int) bool { return frames[i].At < frames[j].At })
}
