package mmap

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, data []byte) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "blob.bin")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestOpenWholeFile(t *testing.T) {
	want := []byte("hello litertlm")
	path := writeTemp(t, want)

	v, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer v.Close()

	if got := string(v.Bytes()); got != string(want) {
		t.Fatalf("Bytes() = %q, want %q", got, want)
	}
}

func TestCloneSharesRefcount(t *testing.T) {
	path := writeTemp(t, []byte("refcounted"))

	v, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	clone := v.Clone()

	if err := v.Close(); err != nil {
		t.Fatalf("close original: %v", err)
	}
	if got := string(clone.Bytes()); got != "refcounted" {
		t.Fatalf("clone.Bytes() = %q after original closed", got)
	}
	if err := clone.Close(); err != nil {
		t.Fatalf("close clone: %v", err)
	}
}

func TestOpenAlignedPreservesRequestedWindow(t *testing.T) {
	page := PageSize()
	data := make([]byte, page+64)
	for i := range data {
		data[i] = byte(i)
	}
	path := writeTemp(t, data)

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	offset := int64(page + 16)
	length := int64(32)
	v, err := OpenAligned(f, offset, length)
	if err != nil {
		t.Fatalf("OpenAligned: %v", err)
	}
	defer v.Close()

	got := v.Bytes()
	if len(got) != int(length) {
		t.Fatalf("len(Bytes()) = %d, want %d", len(got), length)
	}
	for i, b := range got {
		if want := data[int(offset)+i]; b != want {
			t.Fatalf("byte %d = %d, want %d", i, b, want)
		}
	}
}

func TestOpenRangeRejectsUnalignedOffset(t *testing.T) {
	path := writeTemp(t, make([]byte, 8192))
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	if _, err := OpenRange(f, 1, 100, false); err == nil {
		t.Fatal("expected error for unaligned offset")
	}
}
