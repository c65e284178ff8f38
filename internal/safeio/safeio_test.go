package safeio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestRoot(t *testing.T) (*Root, string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sub", "doc.md"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r, dir
}

func TestReadFileWithinRoot(t *testing.T) {
	r, _ := newTestRoot(t)
	b, err := r.ReadFile("sub/doc.md")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "hello" {
		t.Fatalf("got %q", b)
	}
}

func TestTraversalRejected(t *testing.T) {
	r, _ := newTestRoot(t)
	for _, p := range []string{"../escape", "sub/../../etc/passwd", "/etc/passwd"} {
		if _, err := r.ReadFile(p); err == nil {
			t.Fatalf("expected rejection for %q", p)
		}
	}
	if _, err := r.ReadFile("../x"); !errors.Is(err, ErrOutsideRoot) {
		t.Fatalf("want ErrOutsideRoot, got %v", err)
	}
}

func TestReadDirAndStat(t *testing.T) {
	r, _ := newTestRoot(t)
	entries, err := r.ReadDir(".")
	if err != nil || len(entries) != 1 {
		t.Fatalf("readdir: %v %d", err, len(entries))
	}
	info, err := r.Stat("sub")
	if err != nil || !info.IsDir() {
		t.Fatalf("stat: %v", err)
	}
}

func TestRootMustExist(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing root")
	}
	if _, err := New(""); err == nil {
		t.Fatal("expected error for empty root")
	}
}
