package pool

// NewBound wraps entries (already decoded by the classfile parser, index 0
// and reserved Long/Double slots left nil) as a bound pool. Decoding the
// raw classfile bytes into these Entry values is the classfile package's
// job; Pool only owns the index/intern/merge contract once that's done.
func NewBound(entries []Entry) *Pool {
	p := &Pool{
		entries: entries,
		intern:  make(map[string]int),
		bound:   true,
	}
	for i, e := range entries {
		if e != nil {
			if _, exists := p.intern[e.key()]; !exists {
				p.intern[e.key()] = i
			}
		}
	}
	return p
}
