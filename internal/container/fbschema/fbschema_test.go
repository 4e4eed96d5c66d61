package fbschema

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	h := Header{
		SystemMetadata: []KeyValuePair{
			{Key: "author", Value: StringValue("litert-lm")},
			{Key: "schema_version", Value: UInt32Value(1)},
		},
		Sections: []Section{
			{
				Items: []KeyValuePair{
					{Key: "name", Value: StringValue("tokenizer")},
				},
				BeginOffset: 16384,
				EndOffset:   32768,
				DataType:    DataTypeSPTokenizer,
			},
			{
				Items:       nil,
				BeginOffset: 32768,
				EndOffset:   1 << 20,
				DataType:    DataTypeTFLiteModel,
			},
		},
	}

	buf := Encode(h)
	got, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if len(got.SystemMetadata) != 2 {
		t.Fatalf("SystemMetadata len = %d, want 2", len(got.SystemMetadata))
	}
	if got.SystemMetadata[0].Key != "author" || got.SystemMetadata[0].Value.Str != "litert-lm" {
		t.Fatalf("SystemMetadata[0] = %+v", got.SystemMetadata[0])
	}
	if got.SystemMetadata[1].Value.U32 != 1 {
		t.Fatalf("SystemMetadata[1].Value.U32 = %d, want 1", got.SystemMetadata[1].Value.U32)
	}

	if len(got.Sections) != 2 {
		t.Fatalf("Sections len = %d, want 2", len(got.Sections))
	}
	s0 := got.Sections[0]
	if s0.BeginOffset != 16384 || s0.EndOffset != 32768 || s0.DataType != DataTypeSPTokenizer {
		t.Fatalf("Sections[0] = %+v", s0)
	}
	if len(s0.Items) != 1 || s0.Items[0].Key != "name" || s0.Items[0].Value.Str != "tokenizer" {
		t.Fatalf("Sections[0].Items = %+v", s0.Items)
	}
}
