package emit

import (
	"martianoff/ecsgen/internal/ir"
	"martianoff/ecsgen/internal/source"
)

// WriteComponent emits the presence and tombstone markers of a component and,
// for collection components, its dispatch entry point.
func WriteComponent(decl *source.Declaration, comp *ir.Component, opts Options) (*Output, error) {
	f := newFile(decl, opts)
	p := f.body
	reflectPkg := f.imports.Add("reflect", "reflect")

	name := comp.Name
	exist := name + "ExistComponent"
	cleanup := name + "CleanupComponent"
	kindMethod := comp.Kind.String() + "ComponentType"
	typeOf := reflectPkg + ".TypeFor[" + name + "]()"

	p.Line("// ", exist, " is present on every entity that holds a ", name, ".")
	p.Line("type ", exist, " struct{}")
	p.Blank()
	p.Line("// ", kindMethod, " returns the component type ", exist, " tracks.")
	p.BeginLine("func (", exist, ") ", kindMethod, "() ", reflectPkg, ".Type")
	p.OpenScope()
	p.Line("return ", typeOf)
	p.CloseScope()
	p.Blank()

	p.Line("// ", cleanup, " remains after ", name, " is removed until cleanup completes.")
	p.Line("type ", cleanup, " struct{}")
	p.Blank()
	p.Line("// ", kindMethod, " returns the component type ", cleanup, " tracks.")
	p.BeginLine("func (", cleanup, ") ", kindMethod, "() ", reflectPkg, ".Type")
	p.OpenScope()
	p.Line("return ", typeOf)
	p.CloseScope()
	p.Blank()

	p.Line("// ComponentType returns the read-only presence marker type.")
	p.BeginLine("func (", name, ") ComponentType() ", f.fw, "ComponentType")
	p.OpenScope()
	p.Line("return ", f.fw, "ReadOnly[", exist, "]()")
	p.CloseScope()
	p.Blank()
	p.Line("// CleanupType returns the read-only tombstone marker type.")
	p.BeginLine("func (", name, ") CleanupType() ", f.fw, "ComponentType")
	p.OpenScope()
	p.Line("return ", f.fw, "ReadOnly[", cleanup, "]()")
	p.CloseScope()

	out := &Output{}
	if comp.Dispatched() {
		dispatch := "dispatch" + upperFirst(name)
		register := "register" + upperFirst(name) + "Component"
		p.Blank()
		p.BeginLine("func ", dispatch, "(ctx ", f.fw, "ContextPtr, op int)")
		p.OpenScope()
		p.Line(f.fw, "DispatchCollection[", name, "](ctx, op)")
		p.CloseScope()
		p.Blank()
		p.BeginLine("func ", register, "(t *", f.fw, "DispatchTable)")
		p.OpenScope()
		p.Line("t.Collection(", typeOf, ", ", dispatch, ")")
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
