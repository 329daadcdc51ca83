package source

import (
	"context"
	"strings"
)

// TypeSymbol is the semantic view of a named type.
type TypeSymbol struct {
	Name    string
	Package Package
	Kind    DeclKind
	Access  Access
	// Embeds are the direct bases: embedded interfaces or struct fields.
	Embeds []*TypeSymbol
	// Interfaces is the transitive set of capability-relevant interfaces the
	// type inherits or implements, excluding itself.
	Interfaces []*TypeSymbol
	// Members are declared directly on this type.
	Members []*MemberSymbol
	// TypeArgs holds type arguments of an instantiated generic.
	TypeArgs []*TypeSymbol
	// Origin is the full name of the generic type this one instantiates.
	Origin string
}

// FullName is the package-path-qualified name.
func (t *TypeSymbol) FullName() string {
	if t.Package.Path == "" {
		return t.Name
	}
	return t.Package.Path + "." + t.Name
}

// OriginName is Origin for instantiated generics and FullName otherwise.
func (t *TypeSymbol) OriginName() string {
	if t.Origin != "" {
		return t.Origin
	}
	return t.FullName()
}

// Inherits reports whether full names one of the type's interfaces.
func (t *TypeSymbol) Inherits(full string) bool {
	for _, i := range t.Interfaces {
		if i.FullName() == full {
			return true
		}
	}
	return false
}

// MemberKind distinguishes methods from properties.
type MemberKind int

const (
	MemberMethod MemberKind = iota
	MemberProperty
)

// MethodKind marks methods synthesized as property accessors.
type MethodKind int

const (
	MethodOrdinary MethodKind = iota
	MethodPropertyGet
	MethodPropertySet
)

// Mode is a parameter passing or return mode.
type Mode int

const (
	ModeValue Mode = iota
	ModeIn
	ModeOut
	ModeRef
	ModeReadonlyRef
)

var modeNames = []string{"value", "in", "out", "ref", "readonly"}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "value"
}

// ParseMode maps a mode keyword to a Mode.
func ParseMode(s string) (Mode, bool) {
	for i, name := range modeNames {
		if name == s {
			return Mode(i), true
		}
	}
	if s == "" {
		return ModeValue, true
	}
	return ModeValue, false
}

// Param is a method or indexer parameter.
type Param struct {
	Name string
	Type TypeName
	Mode Mode
}

// TypeName is a type spelled with full package paths, e.g.
// "[]*example.com/game/ecs.Entity", plus the packages it references so it can
// be rendered from any package.
type TypeName struct {
	Full string
	Refs []Package
}

func (t TypeName) String() string {
	return t.Full
}

// Elem strips one leading pointer.
func (t TypeName) Elem() TypeName {
	return TypeName{Full: strings.TrimPrefix(t.Full, "*"), Refs: t.Refs}
}

// IsPointer reports whether the type is a pointer.
func (t TypeName) IsPointer() bool {
	return strings.HasPrefix(t.Full, "*")
}

// ParseTypeName derives a TypeName from a fully qualified spelling. Each
// dotted token "path/to/pkg.Name" contributes a package whose name is the
// last path element.
func ParseTypeName(full string) TypeName {
	tn := TypeName{Full: full}
	seen := map[string]bool{}
	for _, tok := range strings.FieldsFunc(full, func(r rune) bool {
		return strings.ContainsRune("*[](){}, ;", r)
	}) {
		i := strings.LastIndexByte(tok, '.')
		if i <= 0 {
			continue
		}
		path := tok[:i]
		if seen[path] {
			continue
		}
		seen[path] = true
		name := path
		if j := strings.LastIndexByte(path, '/'); j >= 0 {
			name = path[j+1:]
		}
		tn.Refs = append(tn.Refs, Package{Path: path, Name: name})
	}
	return tn
}

// MemberSymbol is a method or property declared on a type.
type MemberSymbol struct {
	Name       string
	Kind       MemberKind
	MethodKind MethodKind
	Access     Access
	Static     bool
	Generic    bool
	Override   bool
	Sealed     bool
	Container  *TypeSymbol
	Params     []Param
	// Result is the return type of a method or the type of a property; nil
	// for methods without a result.
	Result     *TypeName
	ResultMode Mode
	// Getter and Setter name the accessor methods of a property.
	Getter   string
	Setter   string
	Location Location
	// Problem describes a shape the host could not map; extraction reports
	// it if the member is forwarded.
	Problem string
}

// Host lists declarations and hands out semantic models.
type Host interface {
	AllTypeDeclarations(ctx context.Context) ([]*Declaration, error)
	SemanticModelFor(decl *Declaration) (SemanticModel, error)
}

// SemanticModel resolves names in the context of a declaration.
type SemanticModel interface {
	ResolveType(decl *Declaration, ref TypeRef) (*TypeSymbol, error)
	DeclaredSymbol(decl *Declaration) (*TypeSymbol, error)
}
