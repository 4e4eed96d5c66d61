package sectionspec

import (
	"testing"

	"github.com/litert-lm/litertlm-go/internal/container/fbschema"
)

func TestKindForFileDispatchesByExtension(t *testing.T) {
	cases := map[string]fbschema.AnySectionDataType{
		"weights.tflite":   fbschema.DataTypeTFLiteModel,
		"meta.pb":          fbschema.DataTypeLlmMetadataProto,
		"meta.prototext":   fbschema.DataTypeLlmMetadataProto,
		"tok.spiece":       fbschema.DataTypeSPTokenizer,
		"tokenizer.json":   fbschema.DataTypeHFTokenizerZlib,
		"random.bin":       fbschema.DataTypeGenericBinaryData,
	}
	for filename, want := range cases {
		k, err := KindForFile(filename)
		if err != nil {
			t.Fatalf("KindForFile(%q): %v", filename, err)
		}
		if k.DataType != want {
			t.Fatalf("KindForFile(%q).DataType = %v, want %v", filename, k.DataType, want)
		}
	}
}

func TestKindForFileRejectsOtherJSON(t *testing.T) {
	if _, err := KindForFile("config.json"); err == nil {
		t.Fatal("expected error for non-tokenizer.json file")
	}
}

func TestParseEmptyFlagProducesNameOnlySpecs(t *testing.T) {
	specs, err := Parse("", []string{"tflite", "tokenizer"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(specs) != 2 || specs[0].Name != "tflite" || len(specs[0].Items) != 0 {
		t.Fatalf("unexpected specs: %+v", specs)
	}
}

func TestParseDecodesKeyValuePairs(t *testing.T) {
	specs, err := Parse("tflite:name=tf_lite_prefill_decode,threads=4", []string{"tflite"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(specs[0].Items) != 2 {
		t.Fatalf("got %d items, want 2", len(specs[0].Items))
	}
	if specs[0].Items[0].Key != "name" || specs[0].Items[0].Value.Kind != fbschema.ValueString {
		t.Fatalf("unexpected first item: %+v", specs[0].Items[0])
	}
	if specs[0].Items[1].Key != "threads" || specs[0].Items[1].Value.Kind != fbschema.ValueInt32 {
		t.Fatalf("unexpected second item: %+v", specs[0].Items[1])
	}
}

func TestParseRejectsCountMismatch(t *testing.T) {
	_, err := Parse("tflite:;tokenizer:", []string{"tflite"})
	if err == nil {
		t.Fatal("expected error for count mismatch")
	}
}

func TestParseRejectsOrderMismatch(t *testing.T) {
	_, err := Parse("tokenizer:;tflite:", []string{"tflite", "tokenizer"})
	if err == nil {
		t.Fatal("expected error for order mismatch")
	}
}

func TestConvertValuePriority(t *testing.T) {
	if v := ConvertValue("42"); v.Kind != fbschema.ValueInt32 || v.I32 != 42 {
		t.Fatalf("ConvertValue(42) = %+v", v)
	}
	if v := ConvertValue("3.5"); v.Kind != fbschema.ValueFloat32 {
		t.Fatalf("ConvertValue(3.5) = %+v", v)
	}
	if v := ConvertValue("true"); v.Kind != fbschema.ValueBool || !v.Bool {
		t.Fatalf("ConvertValue(true) = %+v", v)
	}
	if v := ConvertValue("hello"); v.Kind != fbschema.ValueString || v.Str != "hello" {
		t.Fatalf("ConvertValue(hello) = %+v", v)
	}
}
