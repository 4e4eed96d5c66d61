package llmmetadata

import "testing"

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	m := LlmMetadata{
		StartToken: Token{TokenId: 2, TokenStr: "<s>"},
		StopTokens: []Token{
			{TokenId: 1, TokenStr: "</s>"},
			{TokenId: 106},
		},
	}

	data, err := m.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if got.StartToken != m.StartToken {
		t.Fatalf("StartToken = %+v, want %+v", got.StartToken, m.StartToken)
	}
	if len(got.StopTokens) != 2 {
		t.Fatalf("StopTokens len = %d, want 2", len(got.StopTokens))
	}
	if got.StopTokens[0] != m.StopTokens[0] || got.StopTokens[1] != m.StopTokens[1] {
		t.Fatalf("StopTokens = %+v, want %+v", got.StopTokens, m.StopTokens)
	}
}

func TestStopTokenIdsSkipsUnidentifiedTokens(t *testing.T) {
	m := LlmMetadata{StopTokens: []Token{{TokenId: 1}, {TokenStr: "only-text"}, {TokenId: 5}}}
	ids := m.StopTokenIds()
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 5 {
		t.Fatalf("StopTokenIds = %v, want [1 5]", ids)
	}
}

func TestUnmarshalEmptyIsZeroValue(t *testing.T) {
	got, err := Unmarshal(nil)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.StartToken != (Token{}) || len(got.StopTokens) != 0 {
		t.Fatalf("got non-zero metadata from empty input: %+v", got)
	}
}
