package attr

import (
	"testing"

	"github.com/zboralski/goclassfile/internal/byteio"
	"github.com/zboralski/goclassfile/pool"
)

func TestSourceFileRoundTrip(t *testing.T) {
	p := pool.New()
	idx, err := p.InternUtf8("Foo.java")
	if err != nil {
		t.Fatal(err)
	}

	r := Defaults()
	buf := byteio.NewBuf(0)
	a := &SourceFileAttr{SourceFileIndex: idx}
	if err := r.Encode(a, buf, p); err != nil {
		t.Fatal(err)
	}

	v := byteio.NewView(buf.Into())
	nameIdx, _ := p.InternUtf8(NameSourceFile)
	decoded, err := r.Decode(v, p, nameIdx, 0, v.Len(), PassUnknown)
	if err != nil {
		t.Fatal(err)
	}
	sf, ok := decoded.(*SourceFileAttr)
	if !ok {
		t.Fatalf("decoded type = %T, want *SourceFileAttr", decoded)
	}
	if sf.SourceFileIndex != idx {
		t.Fatalf("SourceFileIndex = %d, want %d", sf.SourceFileIndex, idx)
	}
}

func TestUnknownAttributePassesThroughByDefault(t *testing.T) {
	p := pool.New()
	nameIdx, _ := p.InternUtf8("x-vendor-extension")
	data := []byte{1, 2, 3, 4}
	v := byteio.NewView(data)

	r := Defaults()
	decoded, err := r.Decode(v, p, nameIdx, 0, len(data), PassUnknown)
	if err != nil {
		t.Fatal(err)
	}
	raw, ok := decoded.(*Raw)
	if !ok {
		t.Fatalf("decoded type = %T, want *Raw", decoded)
	}
	if raw.Name() != "x-vendor-extension" {
		t.Fatalf("Name() = %q", raw.Name())
	}
	if len(raw.Data) != 4 {
		t.Fatalf("Data len = %d, want 4", len(raw.Data))
	}
}

func TestUnknownAttributeDropped(t *testing.T) {
	p := pool.New()
	nameIdx, _ := p.InternUtf8("x-vendor-extension")
	data := []byte{1, 2, 3, 4}
	v := byteio.NewView(data)

	r := Defaults()
	decoded, err := r.Decode(v, p, nameIdx, 0, len(data), DropUnknown)
	if err != nil {
		t.Fatal(err)
	}
	if decoded != nil {
		t.Fatalf("expected nil for dropped attribute, got %v", decoded)
	}
}

func TestMapperOverridesRegistry(t *testing.T) {
	p := pool.New()
	nameIdx, _ := p.InternUtf8(NameDeprecated)
	v := byteio.NewView(nil)

	called := false
	r := Defaults().WithMapper(func(name string) (Decoder, Encoder, bool) {
		if name != NameDeprecated {
			return nil, nil, false
		}
		called = true
		return func(v *byteio.View, p *pool.Pool, off, length int) (Attribute, error) {
			return &Raw{name: name, Data: nil}, nil
		}, encodeDeprecated, true
	})

	if _, err := r.Decode(v, p, nameIdx, 0, 0, PassUnknown); err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Fatal("expected custom mapper to be consulted before the built-in registry")
	}
}
