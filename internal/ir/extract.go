package ir

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"martianoff/ecsgen/generr"
	"martianoff/ecsgen/internal/source"
)

// Options configure extraction.
type Options struct {
	// Root is the full name of the root capability marker.
	Root string
}

// CapabilityGraph returns the capabilities sym inherits or implements that
// themselves inherit root, ordered by full name. The root is not included.
func CapabilityGraph(sym *source.TypeSymbol, root string) []*source.TypeSymbol {
	var out []*source.TypeSymbol
	seen := make(map[string]bool)
	for _, i := range sym.Interfaces {
		full := i.FullName()
		if full == root || seen[full] || !i.Inherits(root) {
			continue
		}
		seen[full] = true
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *source.TypeSymbol) int {
		return strings.Compare(a.FullName(), b.FullName())
	})
	return out
}

// Capabilities converts CapabilityGraph to Capability values.
func Capabilities(sym *source.TypeSymbol, root string) []Capability {
	graph := CapabilityGraph(sym, root)
	out := make([]Capability, 0, len(graph))
	for _, s := range graph {
		out = append(out, CapabilityOf(s))
	}
	return out
}

// Included reports whether a member is forwarded by generated handles.
func Included(m *source.MemberSymbol, root string) bool {
	switch {
	case m.Static, m.Generic, m.Override, m.Sealed:
		return false
	case m.Access == source.AccessPrivate:
		return false
	case m.Kind == source.MemberMethod && m.MethodKind != source.MethodOrdinary:
		return false
	case m.Container != nil && m.Container.FullName() == root:
		return false
	}
	return true
}

// ExtractInterface builds the IR of capability sym.
func ExtractInterface(ctx context.Context, sym *source.TypeSymbol, opts Options) (*Interface, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	graph := CapabilityGraph(sym, opts.Root)
	iface := &Interface{Name: sym.Name, Package: sym.Package}
	for _, b := range graph {
		iface.Bases = append(iface.Bases, CapabilityOf(b))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	contributors := append([]*source.TypeSymbol{sym}, graph...)
	for _, c := range contributors {
		for _, m := range c.Members {
			if !Included(m, opts.Root) {
				continue
			}
			if err := iface.add(m, c); err != nil {
				return nil, err
			}
		}
	}

	own := iface.Capability()
	iface.Methods = canonical(iface.Methods, compareMethods, func(m *Method) *Member { return &m.Member }, own)
	iface.Properties = canonical(iface.Properties, compareProperties, func(p *Property) *Member { return &p.Member }, own)
	iface.Indexers = canonical(iface.Indexers, compareIndexers, func(x *Indexer) *Member { return &x.Member }, own)
	iface.assignOps()
	return iface, nil
}

func (i *Interface) add(m *source.MemberSymbol, contributor *source.TypeSymbol) error {
	container := contributor
	if m.Container != nil {
		container = m.Container
	}
	member := Member{Capability: CapabilityOf(container), Qualified: true}
	if m.Problem != "" {
		return shapeError(m, "%s", m.Problem)
	}

	if m.Kind == source.MemberMethod {
		if (m.ResultMode == source.ModeRef || m.ResultMode == source.ModeReadonlyRef) &&
			(m.Result == nil || !m.Result.IsPointer()) {
			return shapeError(m, "method %s returns by reference but its result is not a pointer", m.Name)
		}
		i.Methods = append(i.Methods, &Method{
			Member:     member,
			Name:       m.Name,
			Params:     m.Params,
			Result:     m.Result,
			ResultMode: m.ResultMode,
		})
		return nil
	}

	if m.Result == nil {
		return shapeError(m, "property %s has no type", m.Name)
	}
	if m.Getter == "" && m.Setter == "" {
		return shapeError(m, "property %s has neither getter nor setter", m.Name)
	}
	if (m.ResultMode == source.ModeRef || m.ResultMode == source.ModeReadonlyRef) && !m.Result.IsPointer() {
		return shapeError(m, "property %s returns by reference but its type is not a pointer", m.Name)
	}
	if len(m.Params) > 0 {
		i.Indexers = append(i.Indexers, &Indexer{
			Member: member,
			Params: m.Params,
			Type:   *m.Result,
			Mode:   m.ResultMode,
			Getter: m.Getter,
			Setter: m.Setter,
		})
		return nil
	}
	i.Properties = append(i.Properties, &Property{
		Member: member,
		Name:   m.Name,
		Type:   *m.Result,
		Mode:   m.ResultMode,
		Getter: m.Getter,
		Setter: m.Setter,
	})
	return nil
}

func shapeError(m *source.MemberSymbol, format string, args ...any) error {
	return generr.NewSemanticErrorInFile(m.Location.File, m.Location.Line, m.Location.Column, fmt.Sprintf(format, args...))
}

// assignOps numbers methods, then property accessors, then indexer accessors.
func (i *Interface) assignOps() {
	op := 0
	next := func(present bool) int {
		if !present {
			return -1
		}
		op++
		return op - 1
	}
	for _, m := range i.Methods {
		m.Op = next(true)
	}
	for _, p := range i.Properties {
		p.GetOp = next(p.Getter != "")
		p.SetOp = next(p.Setter != "")
	}
	for _, x := range i.Indexers {
		x.GetOp = next(x.Getter != "")
		x.SetOp = next(x.Setter != "")
	}
	i.OpCount = op
}

// canonical sorts, marks qualifiers and collapses equal runs.
func canonical[T any](items []T, compare func(a, b T) int, member func(T) *Member, own Capability) []T {
	slices.SortStableFunc(items, func(a, b T) int {
		if c := compare(a, b); c != 0 {
			return c
		}
		return strings.Compare(member(a).Capability.FullName(), member(b).Capability.FullName())
	})
	MarkQualifiers(items, compare, func(t T) { member(t).Qualified = false })
	return Collapse(items, compare, member, own)
}

// MarkQualifiers walks a sorted list and clears the qualifier of every
// element that is not part of a run of equal signatures. Members of a run,
// its last element included, keep their qualifier.
func MarkQualifiers[T any](items []T, compare func(a, b T) int, clear func(T)) {
	previousWasEqual := false
	for i := 1; i < len(items); i++ {
		if compare(items[i-1], items[i]) != 0 {
			if !previousWasEqual {
				clear(items[i-1])
			}
			previousWasEqual = false
		} else {
			previousWasEqual = true
		}
	}
	if !previousWasEqual && len(items) > 0 {
		clear(items[len(items)-1])
	}
}

// Collapse reduces each run of equal signatures to one survivor: the copy
// declared by own when present, otherwise the last copy. The survivor's
// Sources lists every contributing capability in run order.
func Collapse[T any](items []T, compare func(a, b T) int, member func(T) *Member, own Capability) []T {
	out := make([]T, 0, len(items))
	for start := 0; start < len(items); {
		end := start + 1
		for end < len(items) && compare(items[start], items[end]) == 0 {
			end++
		}
		run := items[start:end]
		survivor := run[len(run)-1]
		var sources []Capability
		for _, t := range run {
			c := member(t).Capability
			sources = append(sources, c)
			if c == own {
				survivor = t
			}
		}
		member(survivor).Sources = sources
		out = append(out, survivor)
		start = end
	}
	return out
}

func compareParamTypes(a, b []source.Param) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := strings.Compare(a[i].Type.Full, b[i].Type.Full); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

func compareMethods(a, b *Method) int {
	if c := strings.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	if c := len(a.Params) - len(b.Params); c != 0 {
		return c
	}
	return compareParamTypes(a.Params, b.Params)
}

// compareAccessors orders by the Go methods backing a property, so
// accessors with different method names never collapse into one.
func compareAccessors(getA, setA, getB, setB string) int {
	if c := strings.Compare(getA, getB); c != 0 {
		return c
	}
	return strings.Compare(setA, setB)
}

func compareProperties(a, b *Property) int {
	if c := strings.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return compareAccessors(a.Getter, a.Setter, b.Getter, b.Setter)
}

func compareIndexers(a, b *Indexer) int {
	if c := compareParamTypes(a.Params, b.Params); c != 0 {
		return c
	}
	return compareAccessors(a.Getter, a.Setter, b.Getter, b.Setter)
}

// ExtractScript builds the IR of a behavior script.
func ExtractScript(ctx context.Context, sym *source.TypeSymbol, opts Options) (*Script, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Script{
		Name:         sym.Name,
		Package:      sym.Package,
		Capabilities: Capabilities(sym, opts.Root),
	}, nil
}

// ExtractAuthoring builds the IR of an authoring adapter. base is the
// resolved generic marker whose first type argument is the authored script.
func ExtractAuthoring(ctx context.Context, sym, base *source.TypeSymbol, opts Options) (*Authoring, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if base == nil || len(base.TypeArgs) == 0 {
		return nil, generr.NewSemanticError(fmt.Sprintf("authoring %s does not name a script type", sym.Name))
	}
	script := base.TypeArgs[0]
	return &Authoring{
		Name:         sym.Name,
		Package:      sym.Package,
		Script:       CapabilityOf(script),
		Capabilities: Capabilities(script, opts.Root),
	}, nil
}

// ExtractComponent builds the IR of a component.
func ExtractComponent(sym *source.TypeSymbol, kind ComponentKind) *Component {
	return &Component{Name: sym.Name, Package: sym.Package, Kind: kind}
}
