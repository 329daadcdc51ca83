// Package matcher selects the declarations a generator stage applies to.
//
// Matching runs in two steps. FindCandidates is purely syntactic and cheap:
// kind, a base entry whose simple name equals the marker, and the required
// modifier. ConfirmSemantic then resolves the base entries and accepts only
// an exact fully-qualified match. Neither step reports errors; a declaration
// that does not match is simply skipped.
package matcher

import (
	"context"

	"martianoff/ecsgen/internal/source"
)

// Spec describes what a stage looks for.
type Spec struct {
	Tag        string
	SimpleName string
	// FullName is the marker's package-path-qualified name. For generic
	// markers it is the origin's name.
	FullName         string
	Kinds            []source.DeclKind
	RequiredModifier string
}

// Match is a declaration confirmed for one stage.
type Match struct {
	Decl   *source.Declaration
	Symbol *source.TypeSymbol
	// Base is the resolved marker, including type arguments.
	Base *source.TypeSymbol
	// BaseRef is the base entry as written.
	BaseRef source.TypeRef
	Model   source.SemanticModel
}

// FindCandidates filters decls syntactically, preserving order.
func FindCandidates(ctx context.Context, decls []*source.Declaration, spec Spec) []*source.Declaration {
	if ctx.Err() != nil {
		return nil
	}
	var out []*source.Declaration
	for _, d := range decls {
		if IsCandidate(d, spec) {
			out = append(out, d)
		}
	}
	return out
}

// IsCandidate applies the syntactic filter to one declaration.
func IsCandidate(d *source.Declaration, spec Spec) bool {
	if !kindMatches(d.Kind, spec.Kinds) {
		return false
	}
	if !hasBaseNamed(d, spec.SimpleName) {
		return false
	}
	return spec.RequiredModifier == "" || d.HasModifier(spec.RequiredModifier)
}

func kindMatches(k source.DeclKind, kinds []source.DeclKind) bool {
	for _, want := range kinds {
		if k == want {
			return true
		}
	}
	return false
}

func hasBaseNamed(d *source.Declaration, name string) bool {
	for _, b := range d.Bases {
		if b.SimpleName() == name {
			return true
		}
	}
	return false
}

// ConfirmSemantic resolves each base entry of decl whose simple name matches
// and returns the first whose full name equals spec.FullName.
func ConfirmSemantic(ctx context.Context, decl *source.Declaration, model source.SemanticModel, spec Spec) (*Match, bool) {
	if ctx.Err() != nil {
		return nil, false
	}
	for _, ref := range decl.Bases {
		if ref.SimpleName() != spec.SimpleName {
			continue
		}
		base, err := model.ResolveType(decl, ref)
		if err != nil || base == nil {
			continue
		}
		if base.OriginName() != spec.FullName {
			continue
		}
		sym, err := model.DeclaredSymbol(decl)
		if err != nil {
			return nil, false
		}
		return &Match{Decl: decl, Symbol: sym, Base: base, BaseRef: ref, Model: model}, true
	}
	return nil, false
}

// Find runs both steps over every declaration of host.
func Find(ctx context.Context, host source.Host, decls []*source.Declaration, spec Spec) []*Match {
	var out []*Match
	for _, d := range FindCandidates(ctx, decls, spec) {
		model, err := host.SemanticModelFor(d)
		if err != nil {
			continue
		}
		if m, ok := ConfirmSemantic(ctx, d, model, spec); ok {
			out = append(out, m)
		}
	}
	return out
}
