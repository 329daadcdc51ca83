package emit

import (
	"strconv"

	"martianoff/ecsgen/internal/ir"
	"martianoff/ecsgen/internal/scope"
	"martianoff/ecsgen/internal/source"
)

// WriteScript emits the downcast helper of a behavior script and, when
// enabled, one dispatch trampoline per capability.
func WriteScript(decl *source.Declaration, script *ir.Script, opts Options) (*Output, error) {
	f := newFile(decl, opts)
	p := f.body
	name := script.Name
	downcast := name + "Downcast"

	taken := newNameSet(decl)
	for _, c := range script.Capabilities {
		if err := taken.claim("As"+upperFirst(c.Name), "conversion to "+c.FullName()); err != nil {
			return nil, err
		}
	}

	if len(script.Capabilities) > 0 {
		p.Line("// ", downcast, " converts a ", name, " script to the handles of its capabilities.")
		p.BeginLine("type ", downcast, " struct")
		p.OpenScope()
		p.Line("script ", f.fw, "ScriptOf[", name, "]")
		p.CloseScope()
		p.Blank()

		for _, c := range script.Capabilities {
			n := NamesFor(c)
			as := "As" + upperFirst(c.Name)
			p.BeginLine("func (d ", downcast, ") ", as, "() ", f.ref(c, n.Handle))
			p.OpenScope()
			p.Line("h, _ := ", f.ref(c, n.To), "(d.script.Script())")
			p.Line("return h")
			p.CloseScope()
			p.Blank()
			p.BeginLine("func (d ", downcast, ") ", as, "Ref() ", f.ref(c, n.Ref))
			p.OpenScope()
			p.Line("return ", f.ref(c, n.ToRef), "(d.script.Ref())")
			p.CloseScope()
			p.Blank()
		}
	}

	p.Line("// ScriptCapabilities lists the capabilities ", name, " implements.")
	p.BeginLine("func (*", name, ") ScriptCapabilities() []string")
	p.OpenScope()
	if len(script.Capabilities) == 0 {
		p.Line("return nil")
	} else {
		p.Open("return []string{")
		for _, c := range script.Capabilities {
			p.Line(f.ref(c, NamesFor(c).Const), ",")
		}
		p.Close("}")
	}
	p.CloseScope()
	if len(script.Capabilities) == 0 {
		f.imports.Remove(opts.Framework.Path)
	}

	if access := scope.HelperAccess(decl); access != source.AccessPrivate && len(script.Capabilities) > 0 {
		helper := visible("Downcast"+upperFirst(name), access)
		p.Blank()
		p.Line("// ", helper, " returns the downcast helper of s.")
		p.BeginLine("func ", helper, "(s ", f.fw, "ScriptOf[", name, "]) ", downcast)
		p.OpenScope()
		p.Line("return ", downcast, "{script: s}")
		p.CloseScope()
	}

	out := &Output{}
	if opts.Trampolines && len(script.Capabilities) > 0 {
		register := "register" + upperFirst(name) + "Script"
		reflectPkg := f.imports.Add("reflect", "reflect")
		var trampolines []string
		for _, c := range script.Capabilities {
			tramp := lowerFirst(name) + "Dispatch" + upperFirst(c.Name)
			if err := taken.claim(tramp, "trampoline for "+c.FullName()); err != nil {
				return nil, err
			}
			trampolines = append(trampolines, tramp)
			p.Blank()
			p.BeginLine("func ", tramp, "(ctx ", f.fw, "ContextPtr, op int)")
			p.OpenScope()
			p.Line(f.ref(c, NamesFor(c).Dispatch), "[", name, "](ctx, op)")
			p.CloseScope()
		}
		p.Blank()
		p.BeginLine("func ", register, "(t *", f.fw, "DispatchTable)")
		p.OpenScope()
		p.Line("typ := ", reflectPkg, ".TypeFor[", name, "]()")
		for i, c := range script.Capabilities {
			p.Line("t.Script(typ, ", f.ref(c, NamesFor(c).Const), ", ", trampolines[i], ")")
		}
		p.CloseScope()
		out.Registrations = append(out.Registrations, register)
	}

	src, err := f.finish()
	if err != nil {
		return nil, err
	}
	out.Source = src
	return out, nil
}

// WriteAuthoring emits typed reference accessors for an authoring adapter.
// Nothing is emitted when the authored script implements no capability.
func WriteAuthoring(decl *source.Declaration, a *ir.Authoring, opts Options) (*Output, error) {
	if len(a.Capabilities) == 0 {
		return &Output{}, nil
	}
	f := newFile(decl, opts)
	p := f.body

	taken := newNameSet(decl)
	p.Line("// AuthoredCapabilities lists the capabilities of the authored ", a.Script.Name, " script.")
	p.BeginLine("func (*", a.Name, ") AuthoredCapabilities() []string")
	p.OpenScope()
	p.Open("return []string{")
	for _, c := range a.Capabilities {
		p.Line(f.ref(c, NamesFor(c).Const), ",")
	}
	p.Close("}")
	p.CloseScope()

	for i, c := range a.Capabilities {
		n := NamesFor(c)
		method := upperFirst(c.Name) + "Ref"
		if err := taken.claim(method, "accessor "+strconv.Itoa(i)+" for "+c.FullName()); err != nil {
			return nil, err
		}
		p.Blank()
		p.Line("// ", method, " returns the authored script as a ", c.Name, " reference.")
		p.BeginLine("func (a *", a.Name, ") ", method, "() ", f.ref(c, n.Ref))
		p.OpenScope()
		p.Line("return ", f.ref(c, n.ToRef), "(a.ScriptRef())")
		p.CloseScope()
	}

	src, err := f.finish()
	if err != nil {
		return nil, err
	}
	return &Output{Source: src}, nil
}
