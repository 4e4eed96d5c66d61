package container

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/litert-lm/litertlm-go/internal/container/fbschema"
	"github.com/litert-lm/litertlm-go/internal/section"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.litertlm")

	w := NewWriter()
	w.SetSystemMetadata([]fbschema.KeyValuePair{
		{Key: "author", Value: fbschema.StringValue("litert-lm-go")},
	})
	w.AddSection(fbschema.DataTypeSPTokenizer, &section.BlobStream{Data: []byte("sp-tokenizer-bytes")},
		[]fbschema.KeyValuePair{{Key: "name", Value: fbschema.StringValue("sp")}})
	w.AddSection(fbschema.DataTypeGenericBinaryData, &section.BlobStream{Data: make([]byte, 5000)}, nil)

	if err := w.WriteTo(path); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if r.NumSections() != 2 {
		t.Fatalf("NumSections() = %d, want 2", r.NumSections())
	}
	if len(r.Warnings()) != 0 {
		t.Fatalf("unexpected warnings: %v", r.Warnings())
	}

	sp, err := r.GetAnySentencePieceTokenizer()
	if err != nil {
		t.Fatalf("GetAnySentencePieceTokenizer: %v", err)
	}
	if string(sp) != "sp-tokenizer-bytes" {
		t.Fatalf("sp tokenizer bytes = %q", sp)
	}

	bin, err := r.GetAnyGenericBinary()
	if err != nil {
		t.Fatalf("GetAnyGenericBinary: %v", err)
	}
	if len(bin) != 5000 {
		t.Fatalf("generic binary len = %d, want 5000", len(bin))
	}

	meta := r.SystemMetadata()
	if len(meta) != 1 || meta[0].Value.Str != "litert-lm-go" {
		t.Fatalf("SystemMetadata = %+v", meta)
	}
}

func TestReaderRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.litertlm")
	data := []byte("not a litertlm file, just some text padding to be long enough.........")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Open(path); err == nil {
		t.Fatal("expected error for bad magic")
	}
}

func TestDuplicateSectionsProduceWarning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dup.litertlm")
	w := NewWriter()
	kv := []fbschema.KeyValuePair{{Key: "name", Value: fbschema.StringValue("dup")}}
	w.AddSection(fbschema.DataTypeGenericBinaryData, &section.BlobStream{Data: []byte("a")}, kv)
	w.AddSection(fbschema.DataTypeGenericBinaryData, &section.BlobStream{Data: []byte("b")}, kv)
	if err := w.WriteTo(path); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if len(r.Warnings()) != 1 {
		t.Fatalf("Warnings() = %v, want 1 entry", r.Warnings())
	}
}
