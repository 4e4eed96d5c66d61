package decode

import "testing"

func TestPassthroughAllowsEverything(t *testing.T) {
	p := NewPassthrough(10)
	c := Start(p)
	if c.IsTerminal() {
		t.Fatal("fresh passthrough constraint should not be terminal")
	}
	bm, err := c.ComputeBitmap()
	if err != nil {
		t.Fatalf("ComputeBitmap: %v", err)
	}
	for i := 0; i < 10; i++ {
		if !bm.Get(i) {
			t.Fatalf("token %d should be allowed", i)
		}
	}
	if err := c.Accept(3); err != nil {
		t.Fatalf("Accept: %v", err)
	}
}

func TestFixedSeqAcceptsOnlyItsSequence(t *testing.T) {
	eng := NewFixedSeq(20, []uint32{1, 2, 3})
	c := Start(eng)

	for _, tok := range []uint32{1, 2, 3} {
		bm, err := c.ComputeBitmap()
		if err != nil {
			t.Fatalf("ComputeBitmap: %v", err)
		}
		if !bm.Get(int(tok)) {
			t.Fatalf("token %d should be allowed at this step", tok)
		}
		if err := c.Accept(tok); err != nil {
			t.Fatalf("Accept(%d): %v", tok, err)
		}
	}
	if !c.IsTerminal() {
		t.Fatal("expected terminal after full sequence")
	}
}

func TestFixedSeqRejectsWrongToken(t *testing.T) {
	eng := NewFixedSeq(20, []uint32{1, 2, 3})
	c := Start(eng)
	if err := c.Accept(99); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if c.IsTerminal() {
		t.Fatal("expected errored state to not be terminal")
	}
	if err := c.Accept(1); err != nil {
		t.Fatalf("Accept after error: %v", err)
	}
	if c.IsTerminal() {
		t.Fatal("errored state must stay errored (absorbing)")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	eng := NewFixedSeq(20, []uint32{1, 2, 3})
	c := Start(eng)
	if err := c.Accept(1); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	clone := c.Clone()
	if err := clone.Accept(99); err != nil {
		t.Fatalf("Accept on clone: %v", err)
	}
	if c.IsTerminal() {
		t.Fatal("original should not be terminal")
	}
	// original continues down the correct path unaffected by clone's error.
	if err := c.Accept(2); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if err := c.Accept(3); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if !c.IsTerminal() {
		t.Fatal("original constraint should reach terminal independent of the clone's divergence")
	}
}
