// Package label implements the forward-reference resolution machinery a
// Code attribute's instruction stream needs: a Label is a logical location
// that a branch, exception-table entry, or line-number entry can refer to
// before the bytecode index it names is known.
package label

import (
	"errors"
	"fmt"
)

// ErrUnbound is returned by Bci for a label with no recorded bci.
var ErrUnbound = errors.New("label: unbound")

// ErrRebind is returned by Bind when a label already bound to a different
// bci is bound again.
var ErrRebind = errors.New("label: already bound to a different bci")

// Unbound is the sentinel bci value for a label that has not yet been
// bound.
const Unbound = -1

// Label is a logical location within a code stream, referentially
// identified: two labels are equal iff they are the same Go pointer
// value, never by comparing bci values.
type Label struct {
	bci int
}

// New returns a fresh, unbound label.
func New() *Label { return &Label{bci: Unbound} }

// Bound reports whether the label has been bound to a bci yet.
func (l *Label) Bound() bool { return l.bci != Unbound }

// Context owns the label -> bci mapping for one code stream. It is not
// safe for concurrent use; a single Assembler or transform pass owns a
// Context exclusively while building or rewriting one method's code.
type Context struct {
	labels []*Label // dense allocation order, for deterministic iteration
}

// NewContext returns an empty label context.
func NewContext() *Context {
	return &Context{}
}

// NewLabel allocates and registers a fresh, unbound label within this
// context.
func (c *Context) NewLabel() *Label {
	l := New()
	c.labels = append(c.labels, l)
	return l
}

// Bind records bci as l's location. Binding an already-bound label to the
// same bci is idempotent; binding it to a different bci fails.
func (c *Context) Bind(l *Label, bci int) error {
	if l.Bound() {
		if l.bci == bci {
			return nil
		}
		return fmt.Errorf("%w: had %d, tried to bind %d", ErrRebind, l.bci, bci)
	}
	l.bci = bci
	return nil
}

// Bci returns l's bound bci, or an error if l is unbound.
func (c *Context) Bci(l *Label) (int, error) {
	if !l.Bound() {
		return 0, ErrUnbound
	}
	return l.bci, nil
}

// Labels returns every label allocated through this context, in allocation
// order.
func (c *Context) Labels() []*Label {
	return c.labels
}

// DeadLabels returns every allocated label that was never bound: a label
// minted by an emitter but never actually referenced by a bound branch,
// exception entry, or line number.
func (c *Context) DeadLabels() []*Label {
	var out []*Label
	for _, l := range c.labels {
		if !l.Bound() {
			out = append(out, l)
		}
	}
	return out
}
