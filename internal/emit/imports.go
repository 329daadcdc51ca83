package emit

import (
	"go/build"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"

	"martianoff/ecsgen/internal/printer"
	"martianoff/ecsgen/internal/source"
)

// ImportManager tracks the imports of one generated file and hands out the
// alias each package is referenced by. A package whose name is already taken
// by another path gets a numbered alias ("ecs2").
type ImportManager struct {
	self    string
	entries []*ImportEntry
	byPath  map[string]*ImportEntry
	byAlias map[string]*ImportEntry
}

// ImportEntry is a single import.
type ImportEntry struct {
	Path    string // Full import path: "martianoff/ecs"
	PkgName string // Declared package name: "ecs"
	Alias   string // Name used in generated code
}

// NewImportManager creates a manager for a file in package self.
func NewImportManager(self string) *ImportManager {
	return &ImportManager{
		self:    self,
		byPath:  make(map[string]*ImportEntry),
		byAlias: make(map[string]*ImportEntry),
	}
}

// Add registers path and returns its alias. If pkgName is empty it defaults
// to the last component of the path. The file's own package has no alias.
func (m *ImportManager) Add(path, pkgName string) string {
	if path == m.self {
		return ""
	}
	if e, ok := m.byPath[path]; ok {
		return e.Alias
	}
	if pkgName == "" {
		parts := strings.Split(path, "/")
		pkgName = parts[len(parts)-1]
	}
	alias := pkgName
	for n := 2; m.byAlias[alias] != nil; n++ {
		alias = pkgName + strconv.Itoa(n)
	}
	e := &ImportEntry{Path: path, PkgName: pkgName, Alias: alias}
	m.entries = append(m.entries, e)
	m.byPath[path] = e
	m.byAlias[alias] = e
	return alias
}

// Remove forgets path, for files that end up not referencing it.
func (m *ImportManager) Remove(path string) {
	e, ok := m.byPath[path]
	if !ok {
		return
	}
	delete(m.byPath, path)
	delete(m.byAlias, e.Alias)
	m.entries = slices.DeleteFunc(m.entries, func(x *ImportEntry) bool { return x == e })
}

// Reserve marks alias as taken by a non-import identifier.
func (m *ImportManager) Reserve(alias string) {
	if m.byAlias[alias] == nil {
		m.byAlias[alias] = &ImportEntry{Alias: alias}
	}
}

// Taken reports whether alias names an import or a reserved identifier.
func (m *ImportManager) Taken(alias string) bool {
	return m.byAlias[alias] != nil
}

// Qualify returns name as referenced from the file's package.
func (m *ImportManager) Qualify(pkg source.Package, name string) string {
	alias := m.Add(pkg.Path, pkg.Name)
	if alias == "" {
		return name
	}
	return alias + "." + name
}

// Entries returns the imports ordered by path.
func (m *ImportManager) Entries() []*ImportEntry {
	out := append([]*ImportEntry(nil), m.entries...)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Print writes the import block. Standard library paths come first.
func (m *ImportManager) Print(p *printer.Printer) {
	entries := m.Entries()
	if len(entries) == 0 {
		return
	}
	var std, other []*ImportEntry
	for _, e := range entries {
		if isStdlib(e.Path) {
			std = append(std, e)
		} else {
			other = append(other, e)
		}
	}
	p.Open("import (")
	for _, e := range std {
		p.Line(importSpec(e))
	}
	if len(std) > 0 && len(other) > 0 {
		p.Blank()
	}
	for _, e := range other {
		p.Line(importSpec(e))
	}
	p.Close(")")
}

func importSpec(e *ImportEntry) string {
	last := e.Path[strings.LastIndexByte(e.Path, '/')+1:]
	if e.Alias == last {
		return strconv.Quote(e.Path)
	}
	return e.Alias + " " + strconv.Quote(e.Path)
}

var (
	stdlibMu    sync.Mutex
	stdlibCache = map[string]bool{}
)

// isStdlib reports whether path resolves inside GOROOT.
func isStdlib(path string) bool {
	first, _, _ := strings.Cut(path, "/")
	if strings.Contains(first, ".") {
		return false
	}
	stdlibMu.Lock()
	defer stdlibMu.Unlock()
	if std, ok := stdlibCache[path]; ok {
		return std
	}
	pkg, err := build.Default.Import(path, "", build.FindOnly)
	std := err == nil && pkg.Goroot
	stdlibCache[path] = std
	return std
}

// Type renders t for the file's package, replacing each "path." prefix with
// the package alias. Prefixes only match at token boundaries.
func (m *ImportManager) Type(t source.TypeName) string {
	refs := append([]source.Package(nil), t.Refs...)
	sort.Slice(refs, func(i, j int) bool { return len(refs[i].Path) > len(refs[j].Path) })

	full := t.Full
	var sb strings.Builder
	for i := 0; i < len(full); {
		if atBoundary(full, i) {
			if ref, ok := matchRef(full[i:], refs); ok {
				if alias := m.Add(ref.Path, ref.Name); alias != "" {
					sb.WriteString(alias)
					sb.WriteByte('.')
				}
				i += len(ref.Path) + 1
				continue
			}
		}
		sb.WriteByte(full[i])
		i++
	}
	return sb.String()
}

func atBoundary(s string, i int) bool {
	if i == 0 {
		return true
	}
	if strings.IndexByte("*[](){}, ;", s[i-1]) >= 0 {
		return true
	}
	return i >= 3 && s[i-3:i] == "..."
}

func matchRef(s string, refs []source.Package) (source.Package, bool) {
	for _, r := range refs {
		if strings.HasPrefix(s, r.Path+".") {
			return r, true
		}
	}
	return source.Package{}, false
}
