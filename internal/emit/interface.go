package emit

import (
	"go/token"
	"strconv"

	"martianoff/ecsgen/internal/ir"
	"martianoff/ecsgen/internal/printer"
	"martianoff/ecsgen/internal/source"
)

// Boilerplate methods of a capability handle.
var handleMethods = []string{"Script", "Entity", "IsNull", "Ref", "Equal", "Compare", "String"}

// CapabilityNames are the generated identifiers belonging to a capability.
type CapabilityNames struct {
	Handle    string
	Ref       string
	Const     string
	To        string
	ToRef     string
	Dispatch  string
	Register  string
	argPrefix string
}

// NamesFor derives generated identifiers for capability c. Helper functions
// are exported exactly when the capability's name is.
func NamesFor(c ir.Capability) CapabilityNames {
	access := source.AccessInternal
	if token.IsExported(c.Name) {
		access = source.AccessPublic
	}
	return CapabilityNames{
		Handle:    c.Name + "Handle",
		Ref:       c.Name + "Ref",
		Const:     c.Name + "Capability",
		To:        visible("To"+upperFirst(c.Name), access),
		ToRef:     visible("To"+upperFirst(c.Name)+"Ref", access),
		Dispatch:  visible("Dispatch"+upperFirst(c.Name), access),
		Register:  "register" + upperFirst(c.Name) + "Capability",
		argPrefix: lowerFirst(c.Name) + "Op",
	}
}

// WriteInterface emits the handle, ref, forwarding methods and receiving
// dispatch function of a capability.
func WriteInterface(decl *source.Declaration, iface *ir.Interface, opts Options) (*Output, error) {
	f := newFile(decl, opts)
	names := NamesFor(iface.Capability())
	ops := iface.Operations()

	handleNames := newNameSet(decl)
	for _, m := range handleMethods {
		if err := handleNames.claim(m, "handle method"); err != nil {
			return nil, err
		}
	}
	for _, b := range iface.Bases {
		if err := handleNames.claim("As"+upperFirst(b.Name), "conversion to "+b.FullName()); err != nil {
			return nil, err
		}
	}
	for _, op := range ops {
		if err := handleNames.claim(op.Name(), "operation "+strconv.Itoa(op.ID)); err != nil {
			return nil, err
		}
	}

	w := &interfaceWriter{file: f, iface: iface, names: names, ops: ops, sigs: make(map[int]signature)}
	w.writeConst()
	w.writeHandle()
	w.writeRef()
	for _, op := range ops {
		w.writeForwarding(op)
	}
	w.writeDispatch()
	w.writeRegister()

	src, err := f.finish()
	if err != nil {
		return nil, err
	}
	return &Output{Source: src, Registrations: []string{names.Register}}, nil
}

type interfaceWriter struct {
	*file
	iface *ir.Interface
	names CapabilityNames
	ops   []ir.Operation
	sigs  map[int]signature
}

func (w *interfaceWriter) p() *printer.Printer { return w.body }

func (w *interfaceWriter) writeConst() {
	p := w.p()
	p.Line("// ", w.names.Const, " identifies ", w.iface.Name, " in dispatch tables.")
	p.Line("const ", w.names.Const, " = ", strconv.Quote(w.iface.Capability().FullName()))
	p.Blank()
}

func (w *interfaceWriter) writeHandle() {
	p, fw, n := w.p(), w.fw, w.names
	h := n.Handle

	p.Line("// ", h, " is a typed handle to a script implementing ", w.iface.Name, ".")
	p.BeginLine("type ", h, " struct")
	p.OpenScope()
	p.Line("data ", fw, "InterfaceData")
	p.CloseScope()
	p.Blank()

	p.Line("// ", n.To, " returns a ", h, " for s when its script implements ", w.iface.Name, ".")
	p.BeginLine("func ", n.To, "(s ", fw, "Script) (", h, ", bool)")
	p.OpenScope()
	p.Line("data, ok := ", fw, "NewInterfaceData(s, ", n.Const, ")")
	p.Line("return ", h, "{data: data}, ok")
	p.CloseScope()
	p.Blank()

	w.oneLiner(h, "Script() "+fw+"Script", "h.data.Script()")
	w.oneLiner(h, "Entity() "+fw+"Entity", "h.data.Script().Entity()")
	w.oneLiner(h, "IsNull() bool", "h.data.IsNull()")
	w.oneLiner(h, "Ref() "+n.Ref, n.Ref+"{data: h.data.Ref()}")
	w.oneLiner(h, "Equal(other "+fw+"Script) bool", "h.data.Script().Equal(other)")
	w.oneLiner(h, "Compare(other "+fw+"Script) int", "h.data.Script().Compare(other)")
	w.oneLiner(h, "String() string", "h.data.Script().String()")

	for _, b := range w.iface.Bases {
		bn := NamesFor(b)
		p.Line("// As", upperFirst(b.Name), " narrows the handle to ", b.Name, ".")
		p.BeginLine("func (h ", h, ") As", upperFirst(b.Name), "() ", w.ref(b, bn.Handle))
		p.OpenScope()
		p.Line("base, _ := ", w.ref(b, bn.To), "(h.data.Script())")
		p.Line("return base")
		p.CloseScope()
		p.Blank()
	}
}

func (w *interfaceWriter) writeRef() {
	p, fw, n := w.p(), w.fw, w.names
	r := n.Ref

	p.Line("// ", r, " is a persistent reference to a script implementing ", w.iface.Name, ".")
	p.BeginLine("type ", r, " struct")
	p.OpenScope()
	p.Line("data ", fw, "InterfaceRefData")
	p.CloseScope()
	p.Blank()

	p.Line("// ", n.ToRef, " wraps a script reference as a ", r, ".")
	p.BeginLine("func ", n.ToRef, "(s ", fw, "ScriptRef) ", r)
	p.OpenScope()
	p.Line("return ", r, "{data: ", fw, "NewInterfaceRefData(s, ", n.Const, ")}")
	p.CloseScope()
	p.Blank()

	recv := "(r " + r + ")"
	line := func(sig, expr string) {
		p.BeginLine("func ", recv, " ", sig)
		p.OpenScope()
		p.Line("return ", expr)
		p.CloseScope()
		p.Blank()
	}
	line("ScriptRef() "+fw+"ScriptRef", "r.data.ScriptRef()")
	line("IsNull() bool", "r.data.ScriptRef().IsNull()")
	line("Equal(other "+fw+"ScriptRef) bool", "r.data.ScriptRef().Equal(other)")
	line("Compare(other "+fw+"ScriptRef) int", "r.data.ScriptRef().Compare(other)")
	line("String() string", "r.data.ScriptRef().String()")

	p.Line("// TryResolve returns the live handle when the reference still resolves.")
	p.BeginLine("func ", recv, " TryResolve(res ", fw, "Resolver) (", n.Handle, ", bool)")
	p.OpenScope()
	p.Line("data, ok := r.data.TryResolve(res)")
	p.Line("return ", n.Handle, "{data: data}, ok")
	p.CloseScope()
	p.Blank()

	p.Line("// Resolve is TryResolve that panics when the script is gone.")
	p.BeginLine("func ", recv, " Resolve(res ", fw, "Resolver) ", n.Handle)
	p.OpenScope()
	p.Line("h, ok := r.TryResolve(res)")
	p.BeginLine("if !ok")
	p.OpenScope()
	p.Line("panic(", strconv.Quote(w.iface.Package.Name+"."+r+": script does not resolve"), ")")
	p.CloseScope()
	p.Line("return h")
	p.CloseScope()
	p.Blank()

	for _, b := range w.iface.Bases {
		bn := NamesFor(b)
		p.BeginLine("func ", recv, " As", upperFirst(b.Name), "() ", w.ref(b, bn.Ref))
		p.OpenScope()
		p.Line("return ", w.ref(b, bn.ToRef), "(r.data.ScriptRef())")
		p.CloseScope()
		p.Blank()
	}
}

func (w *interfaceWriter) oneLiner(recv, sig, expr string) {
	p := w.p()
	p.BeginLine("func (h ", recv, ") ", sig)
	p.OpenScope()
	p.Line("return ", expr)
	p.CloseScope()
	p.Blank()
}

// signature describes the Go shape of one operation.
type signature struct {
	params []source.Param
	names  []string
	result *source.TypeName
	mode   source.Mode
}

func signatureOf(op ir.Operation) signature {
	var s signature
	switch op.Kind {
	case ir.OpMethod:
		s.params, s.result, s.mode = op.Method.Params, op.Method.Result, op.Method.ResultMode
	case ir.OpPropertyGet:
		t := op.Property.Type
		s.result, s.mode = &t, op.Property.Mode
	case ir.OpPropertySet:
		s.params = []source.Param{{Name: "value", Type: op.Property.Type}}
	case ir.OpIndexerGet:
		t := op.Indexer.Type
		s.params, s.result, s.mode = op.Indexer.Params, &t, op.Indexer.Mode
	case ir.OpIndexerSet:
		s.params = append(append([]source.Param{}, op.Indexer.Params...), source.Param{Name: "value", Type: op.Indexer.Type})
	}
	return s
}

// signature returns the shape of op with parameter names that shadow neither
// the generated locals nor any package the forwarding method refers to.
func (w *interfaceWriter) signature(op ir.Operation) signature {
	if s, ok := w.sigs[op.ID]; ok {
		return s
	}
	s := signatureOf(op)
	for _, prm := range s.params {
		w.imports.Type(prm.Type)
	}
	if s.result != nil {
		w.retField(s)
		w.imports.Type(*s.result)
	}
	s.names = paramNames(s.params, w.imports.Taken)
	w.sigs[op.ID] = s
	return s
}

func (s signature) byRef() bool {
	return s.result != nil && (s.mode == source.ModeRef || s.mode == source.ModeReadonlyRef)
}

func (w *interfaceWriter) argsType(op ir.Operation) string {
	return w.names.argPrefix + strconv.Itoa(op.ID)
}

func (w *interfaceWriter) retField(s signature) string {
	if s.byRef() {
		return w.fw + "Ref[" + w.imports.Type(s.result.Elem()) + "]"
	}
	return w.imports.Type(*s.result)
}

func (w *interfaceWriter) writeForwarding(op ir.Operation) {
	p := w.p()
	s := w.signature(op)
	args := w.argsType(op)

	if len(s.params) == 0 && s.result == nil {
		p.Line("type ", args, " struct{}")
	} else {
		p.BeginLine("type ", args, " struct")
		p.OpenScope()
		for i, prm := range s.params {
			p.Line(s.names[i], " ", w.imports.Type(prm.Type))
		}
		if s.result != nil {
			p.Line("ret ", w.retField(s))
		}
		p.CloseScope()
	}
	p.Blank()

	p.BeginLine("func (h ", w.names.Handle, ") ", op.Name(), "(")
	for i, prm := range s.params {
		if i > 0 {
			p.Print(", ")
		}
		p.Print(s.names[i], " ", w.imports.Type(prm.Type))
	}
	p.Print(")")
	if s.result != nil {
		p.Print(" ", w.imports.Type(*s.result))
	}
	p.OpenScope()
	p.BeginLine("args := ", args, "{")
	for i := range s.params {
		if i > 0 {
			p.Print(", ")
		}
		p.Print(s.names[i], ": ", s.names[i])
	}
	p.EndLine("}")
	p.Line("h.data.Dispatch(", w.names.Const, ", ", strconv.Itoa(op.ID), ", ", w.fw, "ContextOf(&args))")
	if s.result != nil {
		if s.byRef() {
			p.Line("return args.ret.Ptr()")
		} else {
			p.Line("return args.ret")
		}
	}
	p.CloseScope()
	p.Blank()
}

func (w *interfaceWriter) writeDispatch() {
	p, fw := w.p(), w.fw
	p.Line("// ", w.names.Dispatch, " runs operation op of ", w.iface.Name, " on the script addressed by ctx.")
	p.BeginLine("func ", w.names.Dispatch, "[T any, PT interface")
	p.OpenScope()
	p.Line("*T")
	p.Line(w.iface.Name)
	p.Dedent()
	p.BeginLine("}](ctx ", fw, "ContextPtr, op int)")
	p.OpenScope()
	if len(w.ops) > 0 {
		p.Line("script := PT(", fw, "Target[T](ctx))")
	}
	p.BeginLine("switch op")
	p.OpenScope()
	for _, op := range w.ops {
		w.writeCase(op)
	}
	p.CloseScope()
	p.CloseScope()
	p.Blank()
}

func (w *interfaceWriter) writeCase(op ir.Operation) {
	p := w.p()
	s := w.signature(op)
	p.Dedent()
	p.Line("case ", strconv.Itoa(op.ID), ":")
	p.Indent()

	target := "script"
	if owner := op.Owner(); owner.Qualified {
		target = w.ref(owner.Capability, owner.Capability.Name) + "(script)"
	}
	var call string
	if len(s.params) > 0 || s.result != nil {
		p.Line("args := ", w.fw, "Args[", w.argsType(op), "](ctx)")
		call = target + "." + op.Name() + "("
		for i := range s.params {
			if i > 0 {
				call += ", "
			}
			call += "args." + s.names[i]
		}
		call += ")"
	} else {
		call = target + "." + op.Name() + "()"
	}
	switch {
	case s.result == nil:
		p.Line(call)
	case s.mode == source.ModeReadonlyRef:
		p.Line("args.ret = ", w.fw, "ReadonlyRefTo(", call, ")")
	case s.mode == source.ModeRef:
		p.Line("args.ret = ", w.fw, "RefTo(", call, ")")
	default:
		p.Line("args.ret = ", call)
	}
}

func (w *interfaceWriter) writeRegister() {
	p := w.p()
	p.BeginLine("func ", w.names.Register, "(t *", w.fw, "DispatchTable)")
	p.OpenScope()
	reflectPkg := w.imports.Add("reflect", "reflect")
	p.Line("t.Capability(", w.names.Const, ", ", reflectPkg, ".TypeFor[", w.names.Handle, "]())")
	p.CloseScope()
}
