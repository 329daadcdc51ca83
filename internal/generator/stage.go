// Package generator wires matching, extraction and emission into stages and
// runs them over every declaration of a host.
package generator

import (
	"context"
	"path/filepath"

	"martianoff/ecsgen/internal/diag"
	"martianoff/ecsgen/internal/emit"
	"martianoff/ecsgen/internal/ir"
	"martianoff/ecsgen/internal/matcher"
	"martianoff/ecsgen/internal/source"
)

// Stage tags. They appear in logical output names.
const (
	TagCollectionComponent = "CollectionComponent"
	TagManagedComponent    = "ManagedComponent"
	TagCapability          = "Capability"
	TagBehavior            = "Behavior"
	TagAuthoring           = "Authoring"
	TagRegistry            = "Registry"
)

// Stage produces at most one unit per matched declaration.
type Stage interface {
	Tag() string
	Descriptor() diag.Descriptor
	Spec() matcher.Spec
	// Emit returns nil when the match produces no output.
	Emit(ctx context.Context, m *matcher.Match, opts emit.Options) (*Unit, error)
}

// Unit is one generated file.
type Unit struct {
	// Name is the logical file name, unique per directory.
	Name    string
	Dir     string
	Package source.Package
	Tag     string
	Decl    *source.Declaration
	// Node is the IR the file was emitted from; nil for registry units.
	Node          ir.Node
	Source        []byte
	Registrations []string
}

// Path joins Dir and Name.
func (u *Unit) Path() string {
	return filepath.Join(u.Dir, u.Name)
}

// LogicalName is <file stem>_<type>_<tag>.gen.go.
func LogicalName(decl *source.Declaration, tag string) string {
	return FileName(decl, tag, emit.DefaultSuffix)
}

// FileName is LogicalName with a custom suffix.
func FileName(decl *source.Declaration, tag, suffix string) string {
	if suffix == "" {
		suffix = emit.DefaultSuffix
	}
	return decl.FileStem() + "_" + decl.Name + "_" + tag + suffix
}

// Markers names the marker types the stages look for.
type Markers struct {
	Framework           source.Package
	Capability          string
	CollectionComponent string
	ManagedComponent    string
	Behavior            string
	Authoring           string
	RequiredModifier    string
}

// DefaultMarkers targets martianoff/ecs.
func DefaultMarkers() Markers {
	return Markers{
		Framework:           source.Package{Path: "martianoff/ecs", Name: "ecs"},
		Capability:          "Capability",
		CollectionComponent: "CollectionComponent",
		ManagedComponent:    "ManagedComponent",
		Behavior:            "Behavior",
		Authoring:           "Authoring",
		RequiredModifier:    "partial",
	}
}

func (m Markers) full(name string) string {
	return m.Framework.Path + "." + name
}

func (m Markers) spec(tag, name string, kinds ...source.DeclKind) matcher.Spec {
	return matcher.Spec{
		Tag:              tag,
		SimpleName:       name,
		FullName:         m.full(name),
		Kinds:            kinds,
		RequiredModifier: m.RequiredModifier,
	}
}

// Stages returns the five built-in stages.
func Stages(m Markers) []Stage {
	root := ir.Options{Root: m.full(m.Capability)}
	return []Stage{
		&componentStage{
			spec: m.spec(TagCollectionComponent, m.CollectionComponent, source.KindStruct),
			desc: diag.CollectionComponentFailed,
			kind: ir.CollectionComponent,
		},
		&componentStage{
			spec: m.spec(TagManagedComponent, m.ManagedComponent, source.KindStruct),
			desc: diag.ManagedComponentFailed,
			kind: ir.ManagedComponent,
		},
		&capabilityStage{spec: m.spec(TagCapability, m.Capability, source.KindInterface), opts: root},
		&behaviorStage{spec: m.spec(TagBehavior, m.Behavior, source.KindStruct), opts: root},
		&authoringStage{spec: m.spec(TagAuthoring, m.Authoring, source.KindStruct, source.KindClass), opts: root},
	}
}

func unitFor(m *matcher.Match, tag string, node ir.Node, out *emit.Output, opts emit.Options) *Unit {
	if out == nil || len(out.Source) == 0 {
		return nil
	}
	return &Unit{
		Name:          FileName(m.Decl, tag, opts.Suffix),
		Dir:           m.Decl.Dir(),
		Package:       m.Decl.Package,
		Tag:           tag,
		Decl:          m.Decl,
		Node:          node,
		Source:        out.Source,
		Registrations: out.Registrations,
	}
}

type componentStage struct {
	spec matcher.Spec
	desc diag.Descriptor
	kind ir.ComponentKind
}

func (s *componentStage) Tag() string                 { return s.spec.Tag }
func (s *componentStage) Descriptor() diag.Descriptor { return s.desc }
func (s *componentStage) Spec() matcher.Spec          { return s.spec }

func (s *componentStage) Emit(ctx context.Context, m *matcher.Match, opts emit.Options) (*Unit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	comp := ir.ExtractComponent(m.Symbol, s.kind)
	out, err := emit.WriteComponent(m.Decl, comp, opts)
	if err != nil {
		return nil, err
	}
	return unitFor(m, s.spec.Tag, comp, out, opts), nil
}

type capabilityStage struct {
	spec matcher.Spec
	opts ir.Options
}

func (s *capabilityStage) Tag() string                 { return s.spec.Tag }
func (s *capabilityStage) Descriptor() diag.Descriptor { return diag.CapabilityFailed }
func (s *capabilityStage) Spec() matcher.Spec          { return s.spec }

func (s *capabilityStage) Emit(ctx context.Context, m *matcher.Match, opts emit.Options) (*Unit, error) {
	iface, err := ir.ExtractInterface(ctx, m.Symbol, s.opts)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := emit.WriteInterface(m.Decl, iface, opts)
	if err != nil {
		return nil, err
	}
	return unitFor(m, s.spec.Tag, iface, out, opts), nil
}

type behaviorStage struct {
	spec matcher.Spec
	opts ir.Options
}

func (s *behaviorStage) Tag() string                 { return s.spec.Tag }
func (s *behaviorStage) Descriptor() diag.Descriptor { return diag.BehaviorFailed }
func (s *behaviorStage) Spec() matcher.Spec          { return s.spec }

func (s *behaviorStage) Emit(ctx context.Context, m *matcher.Match, opts emit.Options) (*Unit, error) {
	script, err := ir.ExtractScript(ctx, m.Symbol, s.opts)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := emit.WriteScript(m.Decl, script, opts)
	if err != nil {
		return nil, err
	}
	return unitFor(m, s.spec.Tag, script, out, opts), nil
}

type authoringStage struct {
	spec matcher.Spec
	opts ir.Options
}

func (s *authoringStage) Tag() string                 { return s.spec.Tag }
func (s *authoringStage) Descriptor() diag.Descriptor { return diag.AuthoringFailed }
func (s *authoringStage) Spec() matcher.Spec          { return s.spec }

func (s *authoringStage) Emit(ctx context.Context, m *matcher.Match, opts emit.Options) (*Unit, error) {
	a, err := ir.ExtractAuthoring(ctx, m.Symbol, m.Base, s.opts)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := emit.WriteAuthoring(m.Decl, a, opts)
	if err != nil {
		return nil, err
	}
	return unitFor(m, s.spec.Tag, a, out, opts), nil
}
