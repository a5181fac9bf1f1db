package pool

import (
	"errors"
	"fmt"
)

// ErrBadIndex is returned for index 0, an out-of-range index, or an index
// that lands on a Long/Double's reserved second slot.
var ErrBadIndex = errors.New("pool: bad constant pool index")

// ErrWrongTag is returned when an entry exists at an index but is not of
// the tag family the caller expected.
var ErrWrongTag = errors.New("pool: wrong entry tag")

// ErrFull is returned when an insertion would need an index beyond 65535.
var ErrFull = errors.New("pool: constant pool full")

const maxIndex = 65535

// Pool is the constant pool of one class file: a 1-indexed table of typed
// entries, each unique up to structural equality. A Pool may be bound (its
// entries were decoded from a source buffer) or unbound (entries were
// constructed directly by a builder); both share the same representation
// once decoded, so the rest of the library never has to branch on which
// kind of Pool it was handed.
type Pool struct {
	// entries[0] is always nil (index 0 is never valid). entries[i] is nil
	// for the reserved second slot of a Long or Double at i-1.
	entries []Entry
	intern  map[string]int
	bound   bool
}

// New returns an empty, unbound pool ready for interning.
func New() *Pool {
	return &Pool{
		entries: []Entry{nil},
		intern:  make(map[string]int),
	}
}

// Bound reports whether this pool was constructed by parsing a source
// buffer (as opposed to being built in memory).
func (p *Pool) Bound() bool { return p.bound }

// Size returns N+1, the constant_pool_count field of the classfile header.
func (p *Pool) Size() uint16 { return uint16(len(p.entries)) }

// Entry resolves index to its entry. Index 0 and the reserved second slot
// of a Long/Double both fail with ErrBadIndex.
func (p *Pool) Entry(index uint16) (Entry, error) {
	if index == 0 || int(index) >= len(p.entries) {
		return nil, fmt.Errorf("%w: %d (size %d)", ErrBadIndex, index, len(p.entries))
	}
	e := p.entries[index]
	if e == nil {
		return nil, fmt.Errorf("%w: %d is a reserved Long/Double slot", ErrBadIndex, index)
	}
	return e, nil
}

// entryTagged resolves index and checks its tag, used by the typed
// accessors below (GetUtf8, GetClass, ...).
func (p *Pool) entryTagged(index uint16, tag Tag) (Entry, error) {
	e, err := p.Entry(index)
	if err != nil {
		return nil, err
	}
	if e.Tag() != tag {
		return nil, fmt.Errorf("%w: index %d is %s, want %s", ErrWrongTag, index, e.Tag(), tag)
	}
	return e, nil
}

func (p *Pool) GetUtf8(index uint16) (*Utf8, error) {
	e, err := p.entryTagged(index, TagUtf8)
	if err != nil {
		return nil, err
	}
	return e.(*Utf8), nil
}

func (p *Pool) GetClass(index uint16) (*Class, error) {
	e, err := p.entryTagged(index, TagClass)
	if err != nil {
		return nil, err
	}
	return e.(*Class), nil
}

func (p *Pool) GetNameAndType(index uint16) (*NameAndType, error) {
	e, err := p.entryTagged(index, TagNameAndType)
	if err != nil {
		return nil, err
	}
	return e.(*NameAndType), nil
}

// ClassName resolves a Class entry's index all the way to its Go string.
func (p *Pool) ClassName(classIndex uint16) (string, error) {
	c, err := p.GetClass(classIndex)
	if err != nil {
		return "", err
	}
	u, err := p.GetUtf8(c.NameIndex)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// Utf8String resolves a Utf8 entry's index directly to its Go string.
func (p *Pool) Utf8String(index uint16) (string, error) {
	u, err := p.GetUtf8(index)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// slotWidth returns how many index slots an entry occupies: 2 for Long and
// Double (JVMS §4.4.5), 1 for everything else.
func slotWidth(e Entry) int {
	switch e.Tag() {
	case TagLong, TagDouble:
		return 2
	default:
		return 1
	}
}

// index appends e without interning; Index calls it after an intern miss.
func (p *Pool) index(e Entry) (uint16, error) {
	idx := len(p.entries)
	width := slotWidth(e)
	if idx+width-1 > maxIndex {
		return 0, ErrFull
	}
	p.entries = append(p.entries, e)
	if width == 2 {
		p.entries = append(p.entries, nil)
	}
	return uint16(idx), nil
}

// Index inserts e if no structurally-equal entry already exists, or
// returns the index of the existing one. This is the pool's interning
// contract.
func (p *Pool) Index(e Entry) (uint16, error) {
	k := e.key()
	if idx, ok := p.intern[k]; ok {
		return uint16(idx), nil
	}
	idx, err := p.index(e)
	if err != nil {
		return 0, err
	}
	p.intern[k] = int(idx)
	return idx, nil
}

// put places e at idx and records its interning key unless one is already
// recorded (first occurrence wins, matching JVM tooling convention), so
// later Intern* calls dedup against it. NewBound performs the same key
// registration inline rather than through put.
func (p *Pool) put(idx uint16, e Entry) {
	for len(p.entries) <= int(idx) {
		p.entries = append(p.entries, nil)
	}
	p.entries[idx] = e
	k := e.key()
	if _, exists := p.intern[k]; !exists {
		p.intern[k] = int(idx)
	}
}

// Entries returns every live (non-reserved, non-zero) index in ascending
// order, useful for serialization and for full-pool copy/merge.
func (p *Pool) Entries() []uint16 {
	out := make([]uint16, 0, len(p.entries))
	for i := 1; i < len(p.entries); i++ {
		if p.entries[i] != nil {
			out = append(out, uint16(i))
		}
	}
	return out
}
