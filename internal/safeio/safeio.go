// Package safeio confines filesystem reads to a fixed root directory.
// The prompt library and the methodology document tree are served from
// operator-owned directories, and request paths must not escape them.
package safeio

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Root is a read-only view of a directory tree. All paths handed to its
// methods resolve relative to the root; traversal outside it is rejected.
type Root struct {
	abs string // absolute root with symlinks resolved
}

var ErrOutsideRoot = errors.New("safeio: path resolves outside root")

// New locks all future reads to dir. The directory must exist.
func New(dir string) (*Root, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("safeio: empty root")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New("safeio: root is not a directory")
	}
	return &Root{abs: abs}, nil
}

// Dir returns the absolute root directory.
func (r *Root) Dir() string {
	if r == nil {
		return ""
	}
	return r.abs
}

// ReadFile reads a file relative to the root.
func (r *Root) ReadFile(rel string) ([]byte, error) {
	p, err := r.resolve(rel)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, errors.New("safeio: path is a directory")
	}
	return os.ReadFile(p)
}

// ReadDir lists entries of a directory relative to the root.
func (r *Root) ReadDir(rel string) ([]fs.DirEntry, error) {
	p, err := r.resolve(rel)
	if err != nil {
		return nil, err
	}
	return os.ReadDir(p)
}

// Stat returns metadata for a path relative to the root.
func (r *Root) Stat(rel string) (fs.FileInfo, error) {
	p, err := r.resolve(rel)
	if err != nil {
		return nil, err
	}
	return os.Stat(p)
}

func (r *Root) resolve(rel string) (string, error) {
	if r == nil {
		return "", errors.New("safeio: root not configured")
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	if clean == "." || clean == "" {
		return r.abs, nil
	}
	if filepath.IsAbs(clean) {
		return "", ErrOutsideRoot
	}
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	joined := filepath.Join(r.abs, clean)
	resolved, err := filepath.EvalSymlinks(joined)
	if err != nil {
		return "", err
	}
	if !withinRoot(resolved, r.abs) {
		return "", ErrOutsideRoot
	}
	return resolved, nil
}

func withinRoot(path, root string) bool {
	if path == root {
		return true
	}
	sep := string(os.PathSeparator)
	if !strings.HasSuffix(root, sep) {
		root += sep
	}
	return strings.HasPrefix(path, root)
}
