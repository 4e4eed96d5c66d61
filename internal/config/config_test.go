package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != Default() {
		t.Fatalf("got %+v, want default", got)
	}
}

func TestLoadOverlaysDotfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".litertlmrc.toml")
	body := "output = \"out.litertlm\"\nmax-threads = 4\nauthor = \"ci\"\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.OutputPath != "out.litertlm" || got.MaxThreads != 4 || got.AuthorName != "ci" {
		t.Fatalf("got %+v", got)
	}
}
