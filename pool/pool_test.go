package pool

import "testing"

func TestInterningDedupes(t *testing.T) {
	p := New()
	i1, err := p.InternUtf8("Foo")
	if err != nil {
		t.Fatal(err)
	}
	i2, err := p.InternUtf8("Foo")
	if err != nil {
		t.Fatal(err)
	}
	if i1 != i2 {
		t.Fatalf("interning the same Utf8 twice gave different indices: %d, %d", i1, i2)
	}
}

func TestClassInterningSharesUtf8(t *testing.T) {
	p := New()
	c1, err := p.InternClass("Foo")
	if err != nil {
		t.Fatal(err)
	}
	c2, err := p.InternClass("Foo")
	if err != nil {
		t.Fatal(err)
	}
	if c1 != c2 {
		t.Fatalf("interning the same Class twice gave different indices: %d, %d", c1, c2)
	}
}

func TestLongOccupiesTwoSlots(t *testing.T) {
	p := New()
	longIdx, err := p.InternLong(42)
	if err != nil {
		t.Fatal(err)
	}
	nextIdx, err := p.InternUtf8("after-long")
	if err != nil {
		t.Fatal(err)
	}
	if nextIdx != longIdx+2 {
		t.Fatalf("expected next entry at index %d, got %d", longIdx+2, nextIdx)
	}
	if _, err := p.Entry(longIdx + 1); err == nil {
		t.Fatal("expected the reserved slot after a Long to be unresolvable")
	}
}

func TestBadIndexZero(t *testing.T) {
	p := New()
	if _, err := p.Entry(0); err == nil {
		t.Fatal("expected index 0 to be invalid")
	}
}

func TestWrongTagAccessor(t *testing.T) {
	p := New()
	idx, err := p.InternInteger(7)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.GetUtf8(idx); err == nil {
		t.Fatal("expected GetUtf8 on an Integer entry to fail")
	}
}

func TestNewSharedDeduplicates(t *testing.T) {
	src := New()
	a, _ := src.InternClass("Foo")
	b, _ := src.InternClass("Foo")
	if a != b {
		t.Fatal("source pool should already dedupe identical inserts")
	}

	shared, err := NewShared(src)
	if err != nil {
		t.Fatal(err)
	}
	newIdx, err := shared.InternClass("Foo")
	if err != nil {
		t.Fatal(err)
	}
	name, err := shared.ClassName(newIdx)
	if err != nil {
		t.Fatal(err)
	}
	if name != "Foo" {
		t.Fatalf("ClassName = %q, want Foo", name)
	}
}

func TestCloneResolvesDependencies(t *testing.T) {
	src := New()
	mIdx, err := src.InternMethodref("java/lang/Object", "<init>", "()V")
	if err != nil {
		t.Fatal(err)
	}

	dst := New()
	clonedIdx, err := Clone(dst, src, mIdx)
	if err != nil {
		t.Fatal(err)
	}
	e, err := dst.Entry(clonedIdx)
	if err != nil {
		t.Fatal(err)
	}
	mref, ok := e.(*Methodref)
	if !ok {
		t.Fatalf("cloned entry has type %T, want *Methodref", e)
	}
	className, err := dst.ClassName(mref.ClassIndex)
	if err != nil {
		t.Fatal(err)
	}
	if className != "java/lang/Object" {
		t.Fatalf("className = %q, want java/lang/Object", className)
	}
}
