package jsonschema

import "testing"

// fakeTokenizer mirrors the tiny vocabulary other decode packages test
// against: a handful of single-byte tokens plus a reserved EOS id.
type fakeTokenizer struct {
	ids map[uint32][]byte
	eos uint32
}

func newFakeTokenizer() *fakeTokenizer {
	return &fakeTokenizer{
		ids: map[uint32][]byte{
			0: nil, // <pad>
			1: nil, // <eos>
			2: []byte("a"),
			3: []byte("b"),
			4: []byte(`"`),
		},
		eos: 1,
	}
}

func (f *fakeTokenizer) VocabSize() uint32 { return uint32(len(f.ids)) }

func (f *fakeTokenizer) TokenBytes(id uint32) ([]byte, error) {
	b, ok := f.ids[id]
	if !ok {
		return nil, nil
	}
	return b, nil
}

func (f *fakeTokenizer) Encode(text string) ([]uint32, error) {
	var out []uint32
	for _, b := range []byte(text) {
		for id, bytes := range f.ids {
			if len(bytes) == 1 && bytes[0] == b {
				out = append(out, id)
			}
		}
	}
	return out, nil
}

func TestStringSchemaAllowsOpenQuoteFirst(t *testing.T) {
	tok := newFakeTokenizer()
	eng, err := Compile(`{"type":"string"}`, tok, tok.eos)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	s0 := eng.Start()
	bm0, err := eng.ComputeBitmap(s0)
	if err != nil {
		t.Fatalf("ComputeBitmap(s0): %v", err)
	}
	if bm0.Get(2) {
		t.Fatal("expected 'a' to be disallowed before the opening quote")
	}
	if !bm0.Get(4) {
		t.Fatal("expected '\"' to be allowed as the first token")
	}

	s1, err := eng.ComputeNext(s0, 4)
	if err != nil {
		t.Fatalf("ComputeNext(s0, '\"'): %v", err)
	}
	bm1, err := eng.ComputeBitmap(s1)
	if err != nil {
		t.Fatalf("ComputeBitmap(s1): %v", err)
	}
	if !bm1.Get(2) || !bm1.Get(4) {
		t.Fatal("expected both a body char and the closing quote to be allowed after the opening quote")
	}

	s2, err := eng.ComputeNext(s1, 2)
	if err != nil {
		t.Fatalf("ComputeNext(s1, 'a'): %v", err)
	}
	s3, err := eng.ComputeNext(s2, 4)
	if err != nil {
		t.Fatalf("ComputeNext(s2, '\"'): %v", err)
	}
	if !eng.IsTerminal(s3) {
		t.Fatal("expected state to be terminal after a quoted string closes")
	}
}

func TestIntegerSchemaRejectsQuote(t *testing.T) {
	tok := newFakeTokenizer()
	eng, err := Compile(`{"type":"integer"}`, tok, tok.eos)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	bm, err := eng.ComputeBitmap(eng.Start())
	if err != nil {
		t.Fatalf("ComputeBitmap: %v", err)
	}
	if bm.Get(4) {
		t.Fatal("expected '\"' to be disallowed for an integer schema")
	}
}

func TestCompileRejectsUnsupportedType(t *testing.T) {
	tok := newFakeTokenizer()
	if _, err := Compile(`{"type":"object"}`, tok, tok.eos); err == nil {
		t.Fatal("expected an error for an unsupported schema type")
	}
}
