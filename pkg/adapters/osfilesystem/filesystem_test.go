package osfilesystem

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSystem_WriteFileReplacesAtomically(t *testing.T) {
	fs := New()
	dir := t.TempDir()
	path := filepath.Join(dir, "snap", "frame-0001.png")

	if err := fs.WriteFile(path, []byte("first")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := fs.WriteFile(path, []byte("second")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("expected %q, got %q", "second", data)
	}

	// No temp files are left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 entry, got %d", len(entries))
	}
}

func TestFileSystem_Create(t *testing.T) {
	fs := New()
	path := filepath.Join(t.TempDir(), "out", "frames.bgr")

	w, err := fs.Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := w.Write([]byte{1, 2, 3}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Size() != 3 {
		t.Errorf("expected 3 bytes, got %d", info.Size())
	}
}

func TestFileSystem_WriteFileFailureLeavesNoTemp(t *testing.T) {
	fs := New()
	dir := t.TempDir()
	// A directory in the way makes the final rename fail.
	target := filepath.Join(dir, "taken")
	if err := fs.MkdirAll(filepath.Join(target, "child")); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}

	if err := fs.WriteFile(target, []byte("data")); err == nil {
		t.Fatal("expected rename over a non-empty directory to fail")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "taken" {
		t.Errorf("expected only the directory to remain, got %d entries", len(entries))
	}
}
