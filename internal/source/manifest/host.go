package manifest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"martianoff/ecsgen/generr"
	"martianoff/ecsgen/internal/source"
)

// Host serves declarations and symbols described by a manifest.
type Host struct {
	decls   []*source.Declaration
	symbols map[*source.Declaration]*source.TypeSymbol
	entries map[*source.Declaration]*TypeEntry
	// byPath indexes package-level symbols by import path and name.
	byPath map[string]map[string]*source.TypeSymbol
	// pkgByName maps a package name to its import path.
	pkgByName map[string]string
	imports   map[string]map[string]string
}

var _ source.Host = (*Host)(nil)

// Load reads a manifest file. Relative source paths are resolved against the
// manifest's directory.
func Load(path string) (*Host, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	return Parse(data, filepath.Dir(path))
}

// Parse builds a Host from manifest YAML.
func Parse(data []byte, baseDir string) (*Host, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	h := &Host{
		symbols:   make(map[*source.Declaration]*source.TypeSymbol),
		entries:   make(map[*source.Declaration]*TypeEntry),
		byPath:    make(map[string]map[string]*source.TypeSymbol),
		pkgByName: make(map[string]string),
		imports:   make(map[string]map[string]string),
	}
	for i := range f.Packages {
		pe := &f.Packages[i]
		if pe.Path == "" {
			return nil, fmt.Errorf("manifest package %d has no path", i)
		}
		if pe.Name == "" {
			pe.Name = filepath.Base(pe.Path)
		}
		h.pkgByName[pe.Name] = pe.Path
		h.imports[pe.Path] = pe.Imports
		h.byPath[pe.Path] = make(map[string]*source.TypeSymbol)

		ns := &source.Declaration{
			Name:    pe.Name,
			Kind:    source.KindNamespace,
			Access:  source.AccessPublic,
			Package: source.Package{Path: pe.Path, Name: pe.Name},
		}
		file := pe.File
		if file == "" {
			file = pe.Name + ".go"
		}
		if err := h.addTypes(pe.Types, ns, file, baseDir, true); err != nil {
			return nil, err
		}
	}
	if err := h.link(); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *Host) addTypes(entries []TypeEntry, parent *source.Declaration, file, baseDir string, top bool) error {
	for i := range entries {
		te := &entries[i]
		kind, ok := source.ParseKind(te.Kind)
		if !ok || kind == source.KindNamespace {
			return fmt.Errorf("type %s has unsupported kind %q", te.Name, te.Kind)
		}
		f := file
		if te.File != "" {
			f = te.File
		}
		loc := f
		if baseDir != "" && !filepath.IsAbs(f) {
			loc = filepath.Join(baseDir, f)
		}
		decl := &source.Declaration{
			Name:      te.Name,
			Kind:      kind,
			Access:    source.ParseAccess(te.Access),
			Modifiers: te.Modifiers,
			Parent:    parent,
			Package:   parent.Package,
			Location:  source.Location{File: loc, Line: te.Line, Column: 1},
			Node:      te,
		}
		for _, b := range te.Bases {
			decl.Bases = append(decl.Bases, source.ParseTypeRef(b))
		}
		if kind != source.KindFunc {
			sym := &source.TypeSymbol{
				Name:    te.Name,
				Package: parent.Package,
				Kind:    kind,
				Access:  decl.Access,
			}
			h.decls = append(h.decls, decl)
			h.symbols[decl] = sym
			h.entries[decl] = te
			if top {
				h.byPath[parent.Package.Path][te.Name] = sym
			}
		}
		if err := h.addTypes(te.Types, decl, f, baseDir, false); err != nil {
			return err
		}
	}
	return nil
}

// link resolves bases, members and interface closures once every symbol exists.
func (h *Host) link() error {
	for _, decl := range h.decls {
		sym := h.symbols[decl]
		te := h.entries[decl]
		for _, ref := range decl.Bases {
			// Unresolvable bases surface later through ResolveType.
			base, err := h.ResolveType(decl, ref)
			if err != nil {
				continue
			}
			sym.Embeds = append(sym.Embeds, base)
		}
		for _, name := range te.Implements {
			impl, err := h.ResolveType(decl, source.ParseTypeRef(name))
			if err != nil {
				continue
			}
			sym.Interfaces = append(sym.Interfaces, impl)
		}
		members, err := buildMembers(sym, te, decl.Location.File)
		if err != nil {
			return err
		}
		sym.Members = members
	}
	done := make(map[*source.TypeSymbol]bool)
	for _, decl := range h.decls {
		closeInterfaces(h.symbols[decl], done, make(map[*source.TypeSymbol]bool))
	}
	return nil
}

// closeInterfaces extends sym.Interfaces with every interface reachable
// through its bases.
func closeInterfaces(sym *source.TypeSymbol, done, visiting map[*source.TypeSymbol]bool) {
	if done[sym] || visiting[sym] {
		return
	}
	visiting[sym] = true
	seen := make(map[string]bool)
	var out []*source.TypeSymbol
	add := func(s *source.TypeSymbol) {
		if s != sym && !seen[s.FullName()] {
			seen[s.FullName()] = true
			out = append(out, s)
		}
	}
	direct := append(append([]*source.TypeSymbol{}, sym.Embeds...), sym.Interfaces...)
	for _, base := range direct {
		closeInterfaces(base, done, visiting)
		if base.Kind == source.KindInterface {
			add(base)
		}
		for _, i := range base.Interfaces {
			add(i)
		}
	}
	sym.Interfaces = out
	done[sym] = true
}

func buildMembers(sym *source.TypeSymbol, te *TypeEntry, file string) ([]*source.MemberSymbol, error) {
	var out []*source.MemberSymbol
	for _, me := range te.Members {
		loc := source.Location{File: file, Line: me.Line, Column: 1}
		params, err := buildParams(me.Params, loc)
		if err != nil {
			return nil, err
		}
		mode, ok := source.ParseMode(me.ResultMode)
		if !ok {
			return nil, generr.NewSemanticErrorInFile(loc.File, loc.Line, loc.Column,
				fmt.Sprintf("member %s has unknown result mode %q", me.Name, me.ResultMode))
		}
		base := source.MemberSymbol{
			Name:       me.Name,
			Access:     source.ParseAccess(me.Access),
			Static:     me.Static,
			Generic:    me.Generic,
			Override:   me.Override,
			Sealed:     me.Sealed,
			Container:  sym,
			Params:     params,
			ResultMode: mode,
			Location:   loc,
		}
		switch me.Kind {
		case "", "method":
			m := base
			if me.Result != "" {
				tn := source.ParseTypeName(me.Result)
				m.Result = &tn
			}
			out = append(out, &m)
		case "property", "indexer":
			props, err := buildProperty(base, me, loc)
			if err != nil {
				return nil, err
			}
			out = append(out, props...)
		default:
			return nil, generr.NewSemanticErrorInFile(loc.File, loc.Line, loc.Column,
				fmt.Sprintf("member %s has unknown kind %q", me.Name, me.Kind))
		}
	}
	return out, nil
}

// buildProperty returns the property symbol followed by its accessor methods.
func buildProperty(base source.MemberSymbol, me MemberEntry, loc source.Location) ([]*source.MemberSymbol, error) {
	if me.Type == "" {
		return nil, generr.NewSemanticErrorInFile(loc.File, loc.Line, loc.Column,
			fmt.Sprintf("property %s has no type", me.Name))
	}
	get := me.Get == nil || *me.Get
	if !get && !me.Set {
		return nil, generr.NewSemanticErrorInFile(loc.File, loc.Line, loc.Column,
			fmt.Sprintf("property %s has neither getter nor setter", me.Name))
	}
	tn := source.ParseTypeName(me.Type)
	prop := base
	prop.Kind = source.MemberProperty
	prop.Result = &tn
	if me.Kind == "indexer" && prop.Name == "" {
		prop.Name = "Item"
	}
	indexer := len(prop.Params) > 0
	if get {
		prop.Getter = me.Getter
		if prop.Getter == "" {
			prop.Getter = prop.Name
			if indexer {
				prop.Getter = "At"
			}
		}
	}
	if me.Set {
		prop.Setter = me.Setter
		if prop.Setter == "" {
			prop.Setter = "Set" + prop.Name
			if indexer {
				prop.Setter = "SetAt"
			}
		}
	}
	out := []*source.MemberSymbol{&prop}
	if prop.Getter != "" {
		g := base
		g.Name = prop.Getter
		g.MethodKind = source.MethodPropertyGet
		g.Result = &tn
		out = append(out, &g)
	}
	if prop.Setter != "" {
		s := base
		s.Name = prop.Setter
		s.MethodKind = source.MethodPropertySet
		s.ResultMode = source.ModeValue
		s.Params = append(append([]source.Param{}, base.Params...), source.Param{Name: "value", Type: tn})
		out = append(out, &s)
	}
	return out, nil
}

func buildParams(entries []ParamEntry, loc source.Location) ([]source.Param, error) {
	var out []source.Param
	for _, pe := range entries {
		mode, ok := source.ParseMode(pe.Mode)
		if !ok {
			return nil, generr.NewSemanticErrorInFile(loc.File, loc.Line, loc.Column,
				fmt.Sprintf("parameter %s has unknown mode %q", pe.Name, pe.Mode))
		}
		out = append(out, source.Param{Name: pe.Name, Type: source.ParseTypeName(pe.Type), Mode: mode})
	}
	return out, nil
}

// AllTypeDeclarations returns every type in manifest order, nested ones
// included.
func (h *Host) AllTypeDeclarations(ctx context.Context) ([]*source.Declaration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return h.decls, nil
}

// SemanticModelFor returns the host; a manifest has one global model.
func (h *Host) SemanticModelFor(*source.Declaration) (source.SemanticModel, error) {
	return h, nil
}

// DeclaredSymbol returns the symbol declared by decl.
func (h *Host) DeclaredSymbol(decl *source.Declaration) (*source.TypeSymbol, error) {
	sym, ok := h.symbols[decl]
	if !ok {
		return nil, generr.NewSemanticError(fmt.Sprintf("no symbol for declaration %s", decl.Name))
	}
	return sym, nil
}

// ResolveType resolves ref as written inside decl. Unqualified names are
// looked up through the enclosing type scopes, then the package.
func (h *Host) ResolveType(decl *source.Declaration, ref source.TypeRef) (*source.TypeSymbol, error) {
	origin, err := h.lookup(decl, ref)
	if err != nil {
		return nil, err
	}
	if len(ref.Args) == 0 {
		return origin, nil
	}
	inst := *origin
	inst.Origin = origin.FullName()
	inst.TypeArgs = nil
	for _, a := range ref.Args {
		arg, err := h.ResolveType(decl, a)
		if err != nil {
			return nil, err
		}
		inst.TypeArgs = append(inst.TypeArgs, arg)
	}
	return &inst, nil
}

func (h *Host) lookup(decl *source.Declaration, ref source.TypeRef) (*source.TypeSymbol, error) {
	pkgPath := decl.Package.Path
	if ref.Qualifier != "" {
		path, ok := h.imports[pkgPath][ref.Qualifier]
		if !ok {
			path, ok = h.pkgByName[ref.Qualifier]
		}
		if !ok {
			if _, known := h.byPath[ref.Qualifier]; known {
				path, ok = ref.Qualifier, true
			}
		}
		if !ok {
			return nil, h.unresolved(decl, ref)
		}
		if sym, ok := h.byPath[path][ref.Name]; ok {
			return sym, nil
		}
		return nil, h.unresolved(decl, ref)
	}
	for scope := decl; scope != nil && scope.Kind != source.KindNamespace; scope = scope.Parent {
		for _, d := range h.decls {
			if d.Parent == scope && d.Name == ref.Name {
				return h.symbols[d], nil
			}
		}
	}
	if sym, ok := h.byPath[pkgPath][ref.Name]; ok {
		return sym, nil
	}
	return nil, h.unresolved(decl, ref)
}

func (h *Host) unresolved(decl *source.Declaration, ref source.TypeRef) error {
	loc := decl.Location
	return generr.NewSemanticErrorInFile(loc.File, loc.Line, loc.Column,
		fmt.Sprintf("cannot resolve %s in %s", ref, decl.Name))
}
