package lark

import "testing"

// fakeTokenizer treats each byte as its own single-byte "token" plus one
// reserved id for EOS, mirroring the regex package's test tokenizer.
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

func acceptsString(t *testing.T, grammar, input string) bool {
	t.Helper()
	tok := &fakeTokenizer{eos: 256}
	eng, err := Compile(grammar, tok, tok.eos)
	if err != nil {
		t.Fatalf("Compile(%q): %v", grammar, err)
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

func TestCompileFunctionCall(t *testing.T) {
	grammar := "start: function_call\n" +
		`function_call: "<call>" call "</call>"` + "\n" +
		"call: call_ping\n" +
		`call_ping: "ping()"` + "\n"
	if !acceptsString(t, grammar, "<call>ping()</call>") {
		t.Fatal("expected wrapped call to match")
	}
	if acceptsString(t, grammar, "<call>pong()</call>") {
		t.Fatal("expected unknown call to be rejected")
	}
}

func TestCompileRegexLiteralBody(t *testing.T) {
	grammar := "start: text\n" + `text: /.*/` + "\n"
	if !acceptsString(t, grammar, "") {
		t.Fatal("expected empty text to match /.*/  ")
	}
	if !acceptsString(t, grammar, "anything at all") {
		t.Fatal("expected arbitrary text to match /.*/  ")
	}
}

func TestCompileRejectsUndefinedRule(t *testing.T) {
	if _, err := Compile("start: missing\n", &fakeTokenizer{eos: 256}, 256); err == nil {
		t.Fatal("expected error for reference to undefined rule")
	}
}
