package bitmap

import "testing"

func TestAllAllowed(t *testing.T) {
	b := AllAllowed{N: 10}
	if b.Size() != 10 {
		t.Fatalf("Size() = %d", b.Size())
	}
	if !b.Get(0) || !b.Get(9) {
		t.Fatal("expected in-range indices allowed")
	}
	if b.Get(10) {
		t.Fatal("expected out-of-range index disallowed")
	}
}

func TestSingleAllowed(t *testing.T) {
	b := SingleAllowed{N: 5, Allowed: 3}
	for i := 0; i < 5; i++ {
		want := i == 3
		if got := b.Get(i); got != want {
			t.Fatalf("Get(%d) = %v, want %v", i, got, want)
		}
	}
}

func TestDenseBitsSetGet(t *testing.T) {
	d := NewDenseBits(40)
	if d.Size() != 40 {
		t.Fatalf("Size() = %d, want 40", d.Size())
	}
	d.Set(0, true)
	d.Set(31, true)
	d.Set(32, true)
	d.Set(39, true)

	for _, i := range []int{0, 31, 32, 39} {
		if !d.Get(i) {
			t.Fatalf("Get(%d) = false, want true", i)
		}
	}
	if d.Get(1) || d.Get(33) {
		t.Fatal("expected untouched bits to remain false")
	}

	d.Set(0, false)
	if d.Get(0) {
		t.Fatal("expected bit 0 cleared")
	}
}
