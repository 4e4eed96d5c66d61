package regex

import "testing"

// fakeTokenizer treats each byte as its own single-byte "token" plus one
// reserved id for EOS, which is enough to drive the NFA engine in tests
// without pulling in the real tokenizer binding.
type fakeTokenizer struct {
	eos uint32
}

func (f *fakeTokenizer) VocabSize() uint32 { return 257 }

func (f *fakeTokenizer) TokenBytes(id uint32) ([]byte, error) {
	if id == f.eos {
		return nil, nil
	}
	return []byte{byte(id)}, nil
}

func (f *fakeTokenizer) Encode(text string) ([]uint32, error) {
	ids := make([]uint32, len(text))
	for i, b := range []byte(text) {
		ids[i] = uint32(b)
	}
	return ids, nil
}

func acceptsString(t *testing.T, pattern, input string) bool {
	t.Helper()
	tok := &fakeTokenizer{eos: 256}
	eng, err := CompileString(pattern, tok, tok.eos)
	if err != nil {
		t.Fatalf("CompileString(%q): %v", pattern, err)
	}
	state := eng.Start()
	for _, b := range []byte(input) {
		next, err := eng.ComputeNext(state, uint32(b))
		if err != nil {
			t.Fatalf("ComputeNext: %v", err)
		}
		state = next
	}
	return eng.IsTerminal(state)
}

func TestLiteralMatch(t *testing.T) {
	if !acceptsString(t, "hello", "hello") {
		t.Fatal("expected exact literal to match")
	}
	if acceptsString(t, "hello", "hellx") {
		t.Fatal("expected mismatched literal to be rejected")
	}
}

func TestAlternation(t *testing.T) {
	if !acceptsString(t, "cat|dog", "cat") {
		t.Fatal("expected cat to match cat|dog")
	}
	if !acceptsString(t, "cat|dog", "dog") {
		t.Fatal("expected dog to match cat|dog")
	}
	if acceptsString(t, "cat|dog", "cow") {
		t.Fatal("expected cow to be rejected by cat|dog")
	}
}

func TestStar(t *testing.T) {
	if !acceptsString(t, "ab*c", "ac") {
		t.Fatal("expected ac to match ab*c")
	}
	if !acceptsString(t, "ab*c", "abbbc") {
		t.Fatal("expected abbbc to match ab*c")
	}
}

func TestPlusRequiresAtLeastOne(t *testing.T) {
	if acceptsString(t, "ab+c", "ac") {
		t.Fatal("expected ac to be rejected by ab+c")
	}
	if !acceptsString(t, "ab+c", "abc") {
		t.Fatal("expected abc to match ab+c")
	}
	if !acceptsString(t, "ab+c", "abbbc") {
		t.Fatal("expected abbbc to match ab+c")
	}
}

func TestAlternationFollowedByConcat(t *testing.T) {
	if !acceptsString(t, "(cat|dog)house", "cathouse") {
		t.Fatal("expected cathouse to match (cat|dog)house")
	}
	if !acceptsString(t, "(cat|dog)house", "doghouse") {
		t.Fatal("expected doghouse to match (cat|dog)house")
	}
	if acceptsString(t, "(cat|dog)house", "cowhouse") {
		t.Fatal("expected cowhouse to be rejected by (cat|dog)house")
	}
	if acceptsString(t, "(cat|dog)house", "cat") {
		t.Fatal("expected cat alone to be rejected by (cat|dog)house")
	}
}

func TestOptionalFollowedByConcat(t *testing.T) {
	if !acceptsString(t, "colou?r", "color") {
		t.Fatal("expected color to match colou?r")
	}
	if !acceptsString(t, "colou?r", "colour") {
		t.Fatal("expected colour to match colou?r")
	}
	if acceptsString(t, "colou?r", "colouur") {
		t.Fatal("expected colouur to be rejected by colou?r")
	}
}
