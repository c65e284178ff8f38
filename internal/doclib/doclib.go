// Package doclib exposes the methodology document tree for browsing: a
// recursive directory listing plus file reads, jailed to the library root.
package doclib

import (
	"path"
	"sort"
	"strings"

	"aioep/internal/safeio"
)

// Node is one entry of the document tree. Directories carry children.
type Node struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Type     string `json:"type"` // "file" or "directory"
	Ext      string `json:"ext,omitempty"`
	Children []Node `json:"children,omitempty"`
}

// Library browses a document root.
type Library struct {
	root *safeio.Root
}

func New(dir string) (*Library, error) {
	root, err := safeio.New(dir)
	if err != nil {
		return nil, err
	}
	return &Library{root: root}, nil
}

// Tree lists the whole library, directories first, dotfiles and node_modules
// skipped.
func (l *Library) Tree() ([]Node, error) {
	return l.readDir(".")
}

func (l *Library) readDir(rel string) ([]Node, error) {
	entries, err := l.root.ReadDir(rel)
	if err != nil {
		return nil, err
	}
	nodes := make([]Node, 0, len(entries))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") || e.Name() == "node_modules" {
			continue
		}
		childRel := e.Name()
		if rel != "." {
			childRel = rel + "/" + e.Name()
		}
		if e.IsDir() {
			children, err := l.readDir(childRel)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, Node{
				Name:     e.Name(),
				Path:     childRel,
				Type:     "directory",
				Children: children,
			})
		} else {
			nodes = append(nodes, Node{
				Name: e.Name(),
				Path: childRel,
				Type: "file",
				Ext:  strings.ToLower(path.Ext(e.Name())),
			})
		}
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		if (nodes[i].Type == "directory") != (nodes[j].Type == "directory") {
			return nodes[i].Type == "directory"
		}
		return nodes[i].Name < nodes[j].Name
	})
	return nodes, nil
}

// ReadFile returns the content of one document. Traversal outside the root is
// rejected by the underlying safeio jail.
func (l *Library) ReadFile(rel string) (string, error) {
	b, err := l.root.ReadFile(rel)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
