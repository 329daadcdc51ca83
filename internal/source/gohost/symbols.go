package gohost

import (
	"fmt"
	"go/ast"
	"go/types"
	"strings"
	"unicode"
	"unicode/utf8"

	"martianoff/ecsgen/internal/source"
)

// symbol converts a named type, dereferencing one pointer. The caller holds
// h.mu. Symbols are cached before their bases are filled so embedding cycles
// terminate.
func (h *Host) symbol(t types.Type) *source.TypeSymbol {
	t = types.Unalias(t)
	if p, ok := t.(*types.Pointer); ok {
		t = types.Unalias(p.Elem())
	}
	named, ok := t.(*types.Named)
	if !ok || named.Obj().Pkg() == nil {
		return nil
	}
	obj := named.Obj()
	key := types.TypeString(named, nil)
	if accessOf(obj) == source.AccessPrivate {
		key += "@" + h.posKey(obj.Pos())
	}
	if sym, ok := h.syms[key]; ok {
		return sym
	}
	sym := &source.TypeSymbol{
		Name:    obj.Name(),
		Package: source.Package{Path: obj.Pkg().Path(), Name: obj.Pkg().Name()},
		Kind:    source.KindStruct,
		Access:  accessOf(obj),
	}
	h.syms[key] = sym

	if origin := named.Origin(); origin != named {
		sym.Origin = origin.Obj().Pkg().Path() + "." + origin.Obj().Name()
		args := named.TypeArgs()
		for i := 0; i < args.Len(); i++ {
			if a := h.symbol(args.At(i)); a != nil {
				sym.TypeArgs = append(sym.TypeArgs, a)
			}
		}
	}

	switch u := named.Underlying().(type) {
	case *types.Interface:
		sym.Kind = source.KindInterface
		for i := 0; i < u.NumEmbeddeds(); i++ {
			if e := h.symbol(u.EmbeddedType(i)); e != nil {
				sym.Embeds = append(sym.Embeds, e)
			}
		}
		sym.Members = h.members(sym, u)
	case *types.Struct:
		for i := 0; i < u.NumFields(); i++ {
			if f := u.Field(i); f.Embedded() {
				if e := h.symbol(f.Type()); e != nil {
					sym.Embeds = append(sym.Embeds, e)
				}
			}
		}
	}
	sym.Interfaces = closeInterfaces(sym)
	return sym
}

// closeInterfaces collects every interface reachable through sym's bases.
func closeInterfaces(sym *source.TypeSymbol) []*source.TypeSymbol {
	seen := map[string]bool{sym.FullName(): true}
	var out []*source.TypeSymbol
	add := func(s *source.TypeSymbol) {
		if !seen[s.FullName()] {
			seen[s.FullName()] = true
			out = append(out, s)
		}
	}
	for _, base := range sym.Embeds {
		if base.Kind == source.KindInterface {
			add(base)
		}
		for _, i := range base.Interfaces {
			add(i)
		}
	}
	return out
}

func accessOf(obj types.Object) source.Access {
	if pkg := obj.Pkg(); pkg != nil && obj.Parent() != nil && obj.Parent() != pkg.Scope() {
		return source.AccessPrivate
	}
	if obj.Exported() {
		return source.AccessPublic
	}
	return source.AccessInternal
}

type directive struct {
	name string
	args []string
}

func (h *Host) directives(doc *ast.CommentGroup) []directive {
	if doc == nil {
		return nil
	}
	var out []directive
	for _, c := range doc.List {
		rest, ok := strings.CutPrefix(c.Text, h.prefix)
		if !ok {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			continue
		}
		out = append(out, directive{name: fields[0], args: fields[1:]})
	}
	return out
}

// members converts the explicit methods of an interface. Methods tagged
// get or set also contribute a property; the property follows the methods.
func (h *Host) members(sym *source.TypeSymbol, iface *types.Interface) []*source.MemberSymbol {
	var methods, props []*source.MemberSymbol
	byKey := make(map[string]*source.MemberSymbol)
	for i := 0; i < iface.NumExplicitMethods(); i++ {
		fn := iface.ExplicitMethod(i)
		sig := fn.Type().(*types.Signature)
		m := &source.MemberSymbol{
			Name:      fn.Name(),
			Kind:      source.MemberMethod,
			Access:    accessOf(fn),
			Container: sym,
			Location:  h.loc(fn.Pos()),
		}
		for j := 0; j < sig.Params().Len(); j++ {
			p := sig.Params().At(j)
			name := p.Name()
			if name == "" || name == "_" {
				name = fmt.Sprintf("p%d", j)
			}
			m.Params = append(m.Params, source.Param{Name: name, Type: typeName(p.Type())})
		}
		switch sig.Results().Len() {
		case 0:
		case 1:
			tn := typeName(sig.Results().At(0).Type())
			m.Result = &tn
		default:
			setProblem(m, "method %s has %d results; at most one is supported", fn.Name(), sig.Results().Len())
		}
		if sig.Variadic() {
			setProblem(m, "method %s is variadic", fn.Name())
		}

		accessor := source.MethodOrdinary
		for _, d := range h.methodDirs[h.posKey(fn.Pos())] {
			switch d.name {
			case "get":
				accessor = source.MethodPropertyGet
			case "set":
				accessor = source.MethodPropertySet
			case "readonly":
				m.ResultMode = source.ModeReadonlyRef
			case "ref", "in", "out":
				mode, _ := source.ParseMode(d.name)
				if len(d.args) == 0 {
					if d.name != "ref" {
						setProblem(m, "directive %s on %s names no parameter", d.name, fn.Name())
						continue
					}
					m.ResultMode = source.ModeRef
					continue
				}
				for _, arg := range d.args {
					setParamMode(m, arg, mode)
				}
			}
		}
		m.MethodKind = accessor
		methods = append(methods, m)
		if accessor == source.MethodOrdinary {
			continue
		}
		if prop := addAccessor(byKey, sym, m); prop != nil {
			props = append(props, prop)
		}
	}
	return append(methods, props...)
}

// setProblem keeps the first problem found.
func setProblem(m *source.MemberSymbol, format string, args ...any) {
	if m.Problem == "" {
		m.Problem = fmt.Sprintf(format, args...)
	}
}

func setParamMode(m *source.MemberSymbol, name string, mode source.Mode) {
	for i := range m.Params {
		if m.Params[i].Name != name {
			continue
		}
		if !m.Params[i].Type.IsPointer() {
			setProblem(m, "parameter %s of %s is passed by %s but is not a pointer", name, m.Name, mode)
			return
		}
		m.Params[i].Mode = mode
		return
	}
	setProblem(m, "method %s has no parameter %s", m.Name, name)
}

// addAccessor merges accessor m into the property it belongs to and returns
// the property when it is new. Parameterless accessors form a property named
// after the method without its Get or Set prefix; accessors with index
// parameters form the indexer "Item".
func addAccessor(byKey map[string]*source.MemberSymbol, sym *source.TypeSymbol, m *source.MemberSymbol) *source.MemberSymbol {
	var index []source.Param
	var typ *source.TypeName
	name := m.Name
	if m.MethodKind == source.MethodPropertyGet {
		if m.Result == nil {
			setProblem(m, "getter %s has no result", m.Name)
		}
		index, typ = m.Params, m.Result
		name = trimAccessorPrefix(name, "Get")
	} else {
		if m.Result != nil || len(m.Params) == 0 {
			setProblem(m, "setter %s must take the value as its last parameter and return nothing", m.Name)
		}
		if n := len(m.Params); n > 0 {
			index = m.Params[:n-1]
			t := m.Params[n-1].Type
			typ = &t
		}
		name = trimAccessorPrefix(name, "Set")
	}
	if len(index) > 0 {
		name = "Item"
	}
	indexTypes := make([]string, 0, len(index))
	for _, p := range index {
		indexTypes = append(indexTypes, p.Type.Full)
	}
	key := name + "(" + strings.Join(indexTypes, ",") + ")"

	prop, existed := byKey[key]
	if !existed {
		prop = &source.MemberSymbol{
			Name:      name,
			Kind:      source.MemberProperty,
			Access:    m.Access,
			Container: sym,
			Params:    index,
			Result:    typ,
			Location:  m.Location,
		}
		byKey[key] = prop
	}
	if m.Problem != "" {
		setProblem(prop, "%s", m.Problem)
	}
	if existed && typ != nil && prop.Result != nil && typ.Full != prop.Result.Full {
		setProblem(prop, "accessors of %s disagree on its type: %s and %s", name, prop.Result.Full, typ.Full)
	}
	if prop.Result == nil {
		prop.Result = typ
	}
	if m.MethodKind == source.MethodPropertyGet {
		if prop.Getter != "" {
			setProblem(prop, "%s has two getters: %s and %s", name, prop.Getter, m.Name)
		}
		prop.Getter = m.Name
		prop.ResultMode = m.ResultMode
	} else {
		if prop.Setter != "" {
			setProblem(prop, "%s has two setters: %s and %s", name, prop.Setter, m.Name)
		}
		prop.Setter = m.Name
	}
	if existed {
		return nil
	}
	return prop
}

func trimAccessorPrefix(name, prefix string) string {
	rest, ok := strings.CutPrefix(name, prefix)
	if !ok || rest == "" {
		return name
	}
	if r, _ := utf8.DecodeRuneInString(rest); !unicode.IsUpper(r) {
		return name
	}
	return rest
}

// typeName spells t with full package paths and records the packages it
// references.
func typeName(t types.Type) source.TypeName {
	tn := source.TypeName{Full: types.TypeString(t, func(p *types.Package) string { return p.Path() })}
	seen := make(map[string]bool)
	var walk func(types.Type)
	addPkg := func(p *types.Package) {
		if p != nil && !seen[p.Path()] {
			seen[p.Path()] = true
			tn.Refs = append(tn.Refs, source.Package{Path: p.Path(), Name: p.Name()})
		}
	}
	walkTuple := func(tup *types.Tuple) {
		for i := 0; i < tup.Len(); i++ {
			walk(tup.At(i).Type())
		}
	}
	walk = func(t types.Type) {
		switch t := t.(type) {
		case *types.Alias:
			addPkg(t.Obj().Pkg())
			if args := t.TypeArgs(); args != nil {
				for i := 0; i < args.Len(); i++ {
					walk(args.At(i))
				}
			}
		case *types.Named:
			addPkg(t.Obj().Pkg())
			args := t.TypeArgs()
			for i := 0; i < args.Len(); i++ {
				walk(args.At(i))
			}
		case *types.Pointer:
			walk(t.Elem())
		case *types.Slice:
			walk(t.Elem())
		case *types.Array:
			walk(t.Elem())
		case *types.Chan:
			walk(t.Elem())
		case *types.Map:
			walk(t.Key())
			walk(t.Elem())
		case *types.Signature:
			walkTuple(t.Params())
			walkTuple(t.Results())
		case *types.Struct:
			for i := 0; i < t.NumFields(); i++ {
				walk(t.Field(i).Type())
			}
		case *types.Interface:
			for i := 0; i < t.NumExplicitMethods(); i++ {
				walk(t.ExplicitMethod(i).Type())
			}
			for i := 0; i < t.NumEmbeddeds(); i++ {
				walk(t.EmbeddedType(i))
			}
		}
	}
	walk(t)
	return tn
}
