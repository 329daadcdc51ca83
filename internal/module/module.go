// Package module locates the Go module a generation run works in and maps
// between import paths and directories inside it.
package module

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/mod/modfile"
)

// ErrNoModule is returned when no go.mod encloses the start directory.
var ErrNoModule = errors.New("no go.mod found")

// Module is a module root and its path from go.mod.
type Module struct {
	Root string
	Path string
}

// FindRoot walks up from start looking for go.mod. start may be a file.
func FindRoot(start string) (root, modulePath string) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", ""
	}
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	for {
		if content, err := os.ReadFile(filepath.Join(dir, "go.mod")); err == nil {
			if p := modfile.ModulePath(content); p != "" {
				return dir, p
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ""
		}
		dir = parent
	}
}

// Find returns the module enclosing start.
func Find(start string) (*Module, error) {
	root, path := FindRoot(start)
	if root == "" {
		return nil, errors.Wrapf(ErrNoModule, "from %s", start)
	}
	return &Module{Root: root, Path: path}, nil
}

// Dir converts an import path inside the module to a directory.
func (m *Module) Dir(importPath string) (string, error) {
	if importPath == m.Path {
		return m.Root, nil
	}
	rel, ok := strings.CutPrefix(importPath, m.Path+"/")
	if !ok {
		return "", errors.Newf("package %s is outside module %s", importPath, m.Path)
	}
	dir := filepath.Join(m.Root, filepath.FromSlash(rel))
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return "", errors.Newf("package not found: %s", importPath)
	}
	return dir, nil
}

// ImportPath converts a directory inside the module to its import path.
func (m *Module) ImportPath(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.WithStack(err)
	}
	rel, err := filepath.Rel(m.Root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Newf("%s is outside module root %s", dir, m.Root)
	}
	if rel == "." {
		return m.Path, nil
	}
	return m.Path + "/" + filepath.ToSlash(rel), nil
}

// Rel returns path relative to the module root when it lies inside it.
func (m *Module) Rel(path string) string {
	rel, err := filepath.Rel(m.Root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
