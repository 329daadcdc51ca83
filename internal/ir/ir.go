// Package ir is the intermediate representation generated code is emitted
// from. It is built once per matched declaration and never mutated after
// extraction, so forwarding and receiving code rendered from the same
// Interface always agree on operation IDs.
package ir

import "martianoff/ecsgen/internal/source"

// Node is implemented by every IR root.
type Node interface {
	node()
	// Identity returns the declaring package and type name.
	Identity() (source.Package, string)
}

// Capability names a capability interface.
type Capability struct {
	Name    string
	Package source.Package
}

// FullName is the package-path-qualified name.
func (c Capability) FullName() string {
	return c.Package.Path + "." + c.Name
}

// CapabilityOf converts a type symbol.
func CapabilityOf(sym *source.TypeSymbol) Capability {
	return Capability{Name: sym.Name, Package: sym.Package}
}

// Member fields shared by methods, properties and indexers.
type Member struct {
	// Capability declared the member.
	Capability Capability
	// Qualified members must be invoked through their capability because
	// another capability contributes the same signature.
	Qualified bool
	// Sources lists every capability that contributed this signature.
	Sources []Capability
}

// Method is a forwarded method.
type Method struct {
	Member
	Name       string
	Params     []source.Param
	Result     *source.TypeName
	ResultMode source.Mode
	Op         int
}

// Property is a parameterless property; GetOp and SetOp are -1 when the
// accessor is absent.
type Property struct {
	Member
	Name   string
	Type   source.TypeName
	Mode   source.Mode
	Getter string
	Setter string
	GetOp  int
	SetOp  int
}

// Indexer is a property with parameters.
type Indexer struct {
	Member
	Params []source.Param
	Type   source.TypeName
	Mode   source.Mode
	Getter string
	Setter string
	GetOp  int
	SetOp  int
}

// OpKind classifies an operation table row.
type OpKind int

const (
	OpMethod OpKind = iota
	OpPropertyGet
	OpPropertySet
	OpIndexerGet
	OpIndexerSet
)

var opKindNames = []string{"method", "property-get", "property-set", "indexer-get", "indexer-set"}

func (k OpKind) String() string {
	return opKindNames[k]
}

// Operation is one row of a capability's dispatch table.
type Operation struct {
	ID       int
	Kind     OpKind
	Method   *Method
	Property *Property
	Indexer  *Indexer
}

// Name is the method invoked by the operation.
func (o Operation) Name() string {
	switch o.Kind {
	case OpMethod:
		return o.Method.Name
	case OpPropertyGet:
		return o.Property.Getter
	case OpPropertySet:
		return o.Property.Setter
	case OpIndexerGet:
		return o.Indexer.Getter
	default:
		return o.Indexer.Setter
	}
}

// Owner returns the member fields of the invoked descriptor.
func (o Operation) Owner() Member {
	switch o.Kind {
	case OpMethod:
		return o.Method.Member
	case OpPropertyGet, OpPropertySet:
		return o.Property.Member
	default:
		return o.Indexer.Member
	}
}

// Interface is the IR of a capability interface.
type Interface struct {
	Name    string
	Package source.Package
	// Bases are the root-inheriting capabilities this one extends.
	Bases      []Capability
	Methods    []*Method
	Properties []*Property
	Indexers   []*Indexer
	OpCount    int
}

func (*Interface) node() {}

// Identity implements Node.
func (i *Interface) Identity() (source.Package, string) { return i.Package, i.Name }

// Capability returns the interface as a Capability.
func (i *Interface) Capability() Capability {
	return Capability{Name: i.Name, Package: i.Package}
}

// Operations returns the dense operation table ordered by ID.
func (i *Interface) Operations() []Operation {
	ops := make([]Operation, 0, i.OpCount)
	for _, m := range i.Methods {
		ops = append(ops, Operation{ID: m.Op, Kind: OpMethod, Method: m})
	}
	for _, p := range i.Properties {
		if p.GetOp >= 0 {
			ops = append(ops, Operation{ID: p.GetOp, Kind: OpPropertyGet, Property: p})
		}
		if p.SetOp >= 0 {
			ops = append(ops, Operation{ID: p.SetOp, Kind: OpPropertySet, Property: p})
		}
	}
	for _, x := range i.Indexers {
		if x.GetOp >= 0 {
			ops = append(ops, Operation{ID: x.GetOp, Kind: OpIndexerGet, Indexer: x})
		}
		if x.SetOp >= 0 {
			ops = append(ops, Operation{ID: x.SetOp, Kind: OpIndexerSet, Indexer: x})
		}
	}
	return ops
}

// Script is the IR of a behavior script.
type Script struct {
	Name         string
	Package      source.Package
	Capabilities []Capability
}

func (*Script) node() {}

// Identity implements Node.
func (s *Script) Identity() (source.Package, string) { return s.Package, s.Name }

// Authoring is the IR of an authoring adapter for a script.
type Authoring struct {
	Name         string
	Package      source.Package
	Script       Capability
	Capabilities []Capability
}

func (*Authoring) node() {}

// Identity implements Node.
func (a *Authoring) Identity() (source.Package, string) { return a.Package, a.Name }

// ComponentKind distinguishes component flavours.
type ComponentKind int

const (
	CollectionComponent ComponentKind = iota
	ManagedComponent
)

func (k ComponentKind) String() string {
	if k == ManagedComponent {
		return "Managed"
	}
	return "Collection"
}

// Component is the IR of a component declaration.
type Component struct {
	Name    string
	Package source.Package
	Kind    ComponentKind
}

func (*Component) node() {}

// Identity implements Node.
func (c *Component) Identity() (source.Package, string) { return c.Package, c.Name }

// Dispatched reports whether the component gets a dispatch entry point.
func (c *Component) Dispatched() bool {
	return c.Kind == CollectionComponent
}
