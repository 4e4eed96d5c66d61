package section

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func TestBlobStreamRoundTrip(t *testing.T) {
	s := &BlobStream{Data: []byte("hello")}
	if err := s.Prepare(); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	size, err := s.Size()
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != 5 {
		t.Fatalf("Size() = %d, want 5", size)
	}
	got, err := io.ReadAll(s.Reader())
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("Reader() = %q, want %q", got, "hello")
	}
}

func TestFileStream(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.bin")
	if err := os.WriteFile(path, []byte("file contents"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s := &FileStream{Path: path}
	if err := s.Prepare(); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	defer s.Finalize()

	got, err := io.ReadAll(s.Reader())
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "file contents" {
		t.Fatalf("got %q", got)
	}
}

func TestZlibStreamRoundTrip(t *testing.T) {
	payload := []byte("the quick brown fox jumps over the lazy dog, repeated many times. " +
		"the quick brown fox jumps over the lazy dog, repeated many times.")
	zs := &ZlibStream{Inner: &BlobStream{Data: payload}}
	if err := zs.Prepare(); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	compressed, err := io.ReadAll(zs.Reader())
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}

	out, err := Decompress(compressed)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if string(out) != string(payload) {
		t.Fatalf("round trip mismatch: got %d bytes, want %d", len(out), len(payload))
	}
}

func TestDecompressRejectsShortInput(t *testing.T) {
	if _, err := Decompress([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for short input")
	}
}

func TestProtoStreamMarshalsOnPrepare(t *testing.T) {
	msg := wrapperspb.String("archive-author")
	s := &ProtoStream{Message: msg}
	if err := s.Prepare(); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	got, err := io.ReadAll(s.Reader())
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}

	var roundTripped wrapperspb.StringValue
	if err := proto.Unmarshal(got, &roundTripped); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if roundTripped.GetValue() != "archive-author" {
		t.Fatalf("got %q, want %q", roundTripped.GetValue(), "archive-author")
	}
}
