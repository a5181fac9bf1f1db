package label

import "testing"

func TestBindIdempotentOnSameBci(t *testing.T) {
	c := NewContext()
	l := c.NewLabel()
	if err := c.Bind(l, 10); err != nil {
		t.Fatal(err)
	}
	if err := c.Bind(l, 10); err != nil {
		t.Fatalf("rebinding to the same bci should be a no-op, got %v", err)
	}
}

func TestBindRejectsDifferentBci(t *testing.T) {
	c := NewContext()
	l := c.NewLabel()
	if err := c.Bind(l, 10); err != nil {
		t.Fatal(err)
	}
	if err := c.Bind(l, 11); err == nil {
		t.Fatal("expected rebinding to a different bci to fail")
	}
}

func TestBciUnboundFails(t *testing.T) {
	c := NewContext()
	l := c.NewLabel()
	if _, err := c.Bci(l); err == nil {
		t.Fatal("expected Bci on an unbound label to fail")
	}
}

func TestIdentityNotValueEquality(t *testing.T) {
	c := NewContext()
	a := c.NewLabel()
	b := c.NewLabel()
	c.Bind(a, 5)
	c.Bind(b, 5)
	if a == b {
		t.Fatal("distinct labels must not be the same pointer")
	}
}

func TestDeadLabels(t *testing.T) {
	c := NewContext()
	bound := c.NewLabel()
	dead := c.NewLabel()
	c.Bind(bound, 0)

	got := c.DeadLabels()
	if len(got) != 1 || got[0] != dead {
		t.Fatalf("DeadLabels() = %v, want [dead]", got)
	}
}
