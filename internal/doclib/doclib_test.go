package doclib

import (
	"os"
	"path/filepath"
	"testing"
)

func newLibrary(t *testing.T) *Library {
	t.Helper()
	dir := t.TempDir()
	mk := func(parts ...string) {
		p := filepath.Join(append([]string{dir}, parts...)...)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("content of "+parts[len(parts)-1]), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	mk("zz-top.md")
	mk("guides", "intro.md")
	mk("guides", "advanced.MD")
	mk(".hidden", "secret.md")
	mk("node_modules", "junk.js")
	l, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func TestTree_DirsFirstAndFiltered(t *testing.T) {
	l := newLibrary(t)
	nodes, err := l.Tree()
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 2 {
		t.Fatalf("want 2 top-level nodes, got %d: %+v", len(nodes), nodes)
	}
	if nodes[0].Type != "directory" || nodes[0].Name != "guides" {
		t.Fatalf("directory must sort first: %+v", nodes[0])
	}
	if nodes[1].Name != "zz-top.md" || nodes[1].Ext != ".md" {
		t.Fatalf("file node: %+v", nodes[1])
	}
	if len(nodes[0].Children) != 2 {
		t.Fatalf("children: %+v", nodes[0].Children)
	}
	if nodes[0].Children[0].Ext != ".md" {
		t.Fatalf("extension must be lowercased: %+v", nodes[0].Children[0])
	}
}

func TestReadFile(t *testing.T) {
	l := newLibrary(t)
	content, err := l.ReadFile("guides/intro.md")
	if err != nil {
		t.Fatal(err)
	}
	if content != "content of intro.md" {
		t.Fatalf("got %q", content)
	}
	if _, err := l.ReadFile("../outside"); err == nil {
		t.Fatal("traversal must be rejected")
	}
}
