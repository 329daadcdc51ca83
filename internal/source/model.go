// Package source is the query surface ecsgen needs from the host compiler:
// syntactic declarations with their base lists, and a semantic model that
// resolves names to type and member symbols.
package source

import (
	"fmt"
	"strings"
)

// DeclKind is the syntactic kind of a declaration or scope.
type DeclKind int

const (
	KindNamespace DeclKind = iota
	KindClass
	KindStruct
	KindInterface
	KindFunc
)

var kindNames = map[DeclKind]string{
	KindNamespace: "namespace",
	KindClass:     "class",
	KindStruct:    "struct",
	KindInterface: "interface",
	KindFunc:      "func",
}

func (k DeclKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("DeclKind(%d)", int(k))
}

// ParseKind maps a kind name back to its DeclKind.
func ParseKind(s string) (DeclKind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// Access is a declared accessibility. The ordering is meaningful:
// AccessPrivate < AccessInternal < AccessPublic.
type Access int

const (
	AccessPrivate Access = iota
	AccessInternal
	AccessPublic
)

func (a Access) String() string {
	switch a {
	case AccessPrivate:
		return "private"
	case AccessInternal:
		return "internal"
	case AccessPublic:
		return "public"
	}
	return fmt.Sprintf("Access(%d)", int(a))
}

// ParseAccess maps an access keyword to an Access. Unknown keywords are public.
func ParseAccess(s string) Access {
	switch strings.ToLower(s) {
	case "private":
		return AccessPrivate
	case "internal":
		return AccessInternal
	}
	return AccessPublic
}

// MinAccess returns the more restrictive of a and b.
func MinAccess(a, b Access) Access {
	if a < b {
		return a
	}
	return b
}

// Location is a position in a source file.
type Location struct {
	File   string
	Line   int
	Column int
}

func (l Location) String() string {
	if l.File == "" {
		return "-"
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Less orders locations by file, line, then column.
func (l Location) Less(o Location) bool {
	if l.File != o.File {
		return l.File < o.File
	}
	if l.Line != o.Line {
		return l.Line < o.Line
	}
	return l.Column < o.Column
}

// Package identifies a Go package.
type Package struct {
	Path string
	Name string
}

// TypeRef is a base-list entry as written in source: an identifier, a
// qualified name, or an instantiated generic.
type TypeRef struct {
	Qualifier string
	Name      string
	Args      []TypeRef
}

// SimpleName is the rightmost identifier, ignoring qualifier and type arguments.
func (r TypeRef) SimpleName() string {
	return r.Name
}

func (r TypeRef) String() string {
	var sb strings.Builder
	if r.Qualifier != "" {
		sb.WriteString(r.Qualifier)
		sb.WriteByte('.')
	}
	sb.WriteString(r.Name)
	if len(r.Args) > 0 {
		sb.WriteByte('[')
		for i, a := range r.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(a.String())
		}
		sb.WriteByte(']')
	}
	return sb.String()
}

// ParseTypeRef parses "pkg.Name[Arg, pkg.Other]" style references.
func ParseTypeRef(s string) TypeRef {
	s = strings.TrimSpace(s)
	var ref TypeRef
	if i := strings.IndexByte(s, '['); i >= 0 && strings.HasSuffix(s, "]") {
		for _, arg := range splitTopLevel(s[i+1 : len(s)-1]) {
			ref.Args = append(ref.Args, ParseTypeRef(arg))
		}
		s = s[:i]
	}
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		ref.Qualifier, ref.Name = s[:i], s[i+1:]
	} else {
		ref.Name = s
	}
	return ref
}

func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i, c := range s {
		switch c {
		case '[', '(':
			depth++
		case ']', ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	if rest := strings.TrimSpace(s[start:]); rest != "" {
		parts = append(parts, rest)
	}
	return parts
}

// Declaration is a syntactic type declaration candidate.
type Declaration struct {
	Name      string
	Kind      DeclKind
	Access    Access
	Modifiers []string
	Bases     []TypeRef
	// Parent is the enclosing scope; the outermost declaration has a
	// namespace parent whose Parent is nil.
	Parent   *Declaration
	Package  Package
	Location Location
	// Node is host-specific syntax backing the declaration.
	Node any
}

// HasModifier reports whether the declaration carries modifier m.
func (d *Declaration) HasModifier(m string) bool {
	for _, mod := range d.Modifiers {
		if mod == m {
			return true
		}
	}
	return false
}

// Dir returns the directory of the declaring file.
func (d *Declaration) Dir() string {
	if i := strings.LastIndexAny(d.Location.File, `/\`); i >= 0 {
		return d.Location.File[:i]
	}
	return "."
}

// FileStem returns the declaring file's base name without extension.
func (d *Declaration) FileStem() string {
	base := d.Location.File
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return base
}
