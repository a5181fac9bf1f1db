// Package asm implements the Assembler: the element stream → bytecode
// linearizer. It runs in two phases per attempt — emit each
// instruction in its short form with placeholder branch operands, then
// patch every operand once every label is bound — and retries with
// selected branches widened when a short offset doesn't fit, converging in
// at most as many retries as there are branches in the method.
package asm

import (
	"errors"
	"fmt"
	"math"

	"github.com/zboralski/goclassfile/code"
	"github.com/zboralski/goclassfile/internal/byteio"
	"github.com/zboralski/goclassfile/label"
)

// ShortJumpPolicy controls what happens when a branch's computed offset
// doesn't fit the short (2-byte signed) form it was optimistically emitted
// in.
type ShortJumpPolicy int

const (
	// FixShortJumps widens the offending branch (goto → goto_w; a
	// conditional branch becomes invert-and-skip-over-a-goto_w) and
	// re-assembles.
	FixShortJumps ShortJumpPolicy = iota
	// FailOnShortJumps returns ErrShortJumpOverflow instead of widening.
	FailOnShortJumps
)

// DeadCodePolicy controls what the Assembler does with instructions it
// proves unreachable from bci 0 (via fallthrough, branch, and exception-
// handler edges).
type DeadCodePolicy int

const (
	// PatchDeadCode overwrites each contiguous run of unreachable
	// instructions with `nop` bytes ending in one `athrow`, keeping the
	// code array the same size (so bound labels and bcis
	// elsewhere in the method stay valid) while not emitting whatever
	// malformed-looking bytes a transform may have left behind.
	PatchDeadCode DeadCodePolicy = iota
	// KeepDeadCode leaves unreachable instructions exactly as emitted.
	KeepDeadCode
	// FailOnDeadCode returns ErrDeadCode if any instruction is unreachable.
	FailOnDeadCode
)

// ErrShortJumpOverflow is returned under FailOnShortJumps when a branch's
// offset doesn't fit a signed 16-bit operand.
var ErrShortJumpOverflow = errors.New("asm: branch offset overflows short form")

// ErrDeadCode is returned under FailOnDeadCode when unreachable
// instructions are found.
var ErrDeadCode = errors.New("asm: unreachable instruction")

// ErrUnboundLabel is returned when a branch, switch, exception entry, line
// number, or local variable references a label this Assembler never saw a
// LabelElement for.
var ErrUnboundLabel = errors.New("asm: reference to a label with no LabelElement in the stream")

// Options configures one Assemble call.
type Options struct {
	ShortJumps ShortJumpPolicy
	DeadCode   DeadCodePolicy
}

// Assembler linearizes an element stream into a *code.CodeModel. Construct
// one per method; it is not reusable across Assemble calls.
type Assembler struct {
	opts Options
}

// New returns an Assembler configured with opts.
func New(opts Options) *Assembler {
	return &Assembler{opts: opts}
}

type patchSite struct {
	pos      int // buffer offset of the operand's first byte
	insnBci  int // bci of the instruction the operand belongs to
	target   *label.Label
	width    int // 2 or 4
	elemIdx  int // index into the element slice, for the widen retry set
}

type emittedInsn struct {
	bci     int
	size    int
	op      code.Opcode
	targets []int // resolved target bcis, filled in during patch resolution
}

// Assemble linearizes elems into a CodeModel. maxStack/maxLocals are
// carried through as given; deriving them from a data-flow analysis when
// the caller doesn't already know them is the StackMapGenerator's job,
// not the Assembler's.
func (a *Assembler) Assemble(elems []code.Element, maxStack, maxLocals int) (*code.CodeModel, error) {
	wide := map[int]bool{}

	maxAttempts := len(elems) + 1
	for attempt := 0; attempt <= maxAttempts; attempt++ {
		buf := byteio.NewBuf(256)
		bciOf := map[*label.Label]int{}
		var patches []patchSite
		var emitted []emittedInsn
		var excCatches []code.ExceptionCatch
		var lineNumbers []code.LineNumber
		var localVars []code.LocalVariable
		var localVarTypes []code.LocalVariableType

		for i, e := range elems {
			switch el := e.(type) {
			case code.LabelElement:
				bciOf[el.L] = buf.Size()
			case code.ExceptionCatch:
				excCatches = append(excCatches, el)
			case code.LineNumber:
				lineNumbers = append(lineNumbers, el)
			case code.LocalVariable:
				localVars = append(localVars, el)
			case code.LocalVariableType:
				localVarTypes = append(localVarTypes, el)
			case code.BranchInsn:
				em, p := emitBranch(buf, el, i, wide[i])
				emitted = append(emitted, em)
				patches = append(patches, p...)
			case code.DiscontinuedInsn:
				em, p := emitDiscontinued(buf, el, i, wide[i])
				emitted = append(emitted, em)
				patches = append(patches, p...)
			case code.TableSwitchInsn:
				em, p := emitTableSwitch(buf, el, i)
				emitted = append(emitted, em)
				patches = append(patches, p...)
			case code.LookupSwitchInsn:
				em, p := emitLookupSwitch(buf, el, i)
				emitted = append(emitted, em)
				patches = append(patches, p...)
			case code.Instruction:
				em, err := emitPlain(buf, el)
				if err != nil {
					return nil, err
				}
				emitted = append(emitted, em)
			default:
				// Unrecognized pseudo-instructions are skipped: they
				// contribute no bytes and are absent from the result.
			}
		}

		overflowed := map[int]bool{}
		failShort := false
		targetsByInsnBci := map[int][]int{}
		for _, p := range patches {
			targetBci, ok := bciOf[p.target]
			if !ok {
				return nil, ErrUnboundLabel
			}
			offset := targetBci - p.insnBci
			if p.width == 2 {
				if offset < math.MinInt16 || offset > math.MaxInt16 {
					if a.opts.ShortJumps == FailOnShortJumps {
						failShort = true
						break
					}
					overflowed[p.elemIdx] = true
					continue
				}
				buf.PatchS2(p.pos, int16(offset))
			} else {
				buf.PatchS4(p.pos, int32(offset))
			}
			targetsByInsnBci[p.insnBci] = append(targetsByInsnBci[p.insnBci], targetBci)
		}
		if failShort {
			return nil, fmt.Errorf("%w", ErrShortJumpOverflow)
		}
		if len(overflowed) > 0 {
			for idx := range overflowed {
				wide[idx] = true
			}
			continue
		}

		// Converged. Bind every label exactly once against the final
		// layout, resolve exception/line/local-variable bcis, apply the
		// dead-code policy, and hand back a CodeModel.
		ctx := label.NewContext()
		for l, bci := range bciOf {
			if err := ctx.Bind(l, bci); err != nil {
				return nil, err
			}
		}
		for i := range emitted {
			emitted[i].targets = targetsByInsnBci[emitted[i].bci]
			if emitted[i].size == 8 && emitted[i].op.IsConditionalBranch() {
				// A widened conditional records its target against the
				// goto_w that starts 3 bytes into it.
				emitted[i].targets = targetsByInsnBci[emitted[i].bci+3]
			}
		}

		codeBytes := buf.Into()
		handlerBcis := make([]int, 0, len(excCatches))
		for _, e := range excCatches {
			handlerBcis = append(handlerBcis, bciOf[e.Handler])
		}
		if err := applyDeadCodePolicy(codeBytes, a.opts.DeadCode, emitted, handlerBcis); err != nil {
			return nil, err
		}

		return buildCodeModel(codeBytes, maxStack, maxLocals, excCatches, lineNumbers, localVars, localVarTypes, bciOf)
	}
	return nil, fmt.Errorf("asm: short-jump widening did not converge after %d attempts", maxAttempts)
}
