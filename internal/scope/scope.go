// Package scope reconstructs the lexical scopes enclosing a declaration so
// generated code can be emitted into the same place.
package scope

import (
	"martianoff/ecsgen/generr"
	"martianoff/ecsgen/internal/printer"
	"martianoff/ecsgen/internal/source"
)

// Context is one enclosing scope.
type Context struct {
	Kind      source.DeclKind
	Name      string
	Access    source.Access
	Modifiers []string
}

// Chain lists enclosing scopes from outermost to innermost.
type Chain []Context

// Build walks the parent links of decl. The declaration itself is not part
// of its chain.
func Build(decl *source.Declaration) Chain {
	var rev Chain
	for p := decl.Parent; p != nil; p = p.Parent {
		rev = append(rev, Context{
			Kind:      p.Kind,
			Name:      p.Name,
			Access:    p.Access,
			Modifiers: p.Modifiers,
		})
	}
	chain := make(Chain, len(rev))
	for i, c := range rev {
		chain[len(rev)-1-i] = c
	}
	return chain
}

// MostRestrictive reduces the chain's access levels. Namespaces do not
// restrict; an empty chain is public.
func (c Chain) MostRestrictive() source.Access {
	access := source.AccessPublic
	for _, ctx := range c {
		if ctx.Kind == source.KindNamespace {
			continue
		}
		access = source.MinAccess(access, ctx.Access)
	}
	return access
}

// HelperAccess is the visibility of helpers generated for decl: the most
// restrictive of its enclosing scopes and its own access.
func HelperAccess(decl *source.Declaration) source.Access {
	return source.MinAccess(Build(decl).MostRestrictive(), decl.Access)
}

// PackageName returns the innermost namespace name.
func (c Chain) PackageName() string {
	for i := len(c) - 1; i >= 0; i-- {
		if c[i].Kind == source.KindNamespace {
			return c[i].Name
		}
	}
	return ""
}

// File is the content wrapped by a chain.
type File struct {
	// Header is written before the package clause, one comment per line.
	Header []string
	// Imports prints the import block.
	Imports func(p *printer.Printer)
	// Body is already rendered text.
	Body string
}

// Wrap re-opens every scope of the chain around f. Go can only augment
// package-level types, so any non-namespace scope fails with an
// EmissionError naming decl.
func (c Chain) Wrap(p *printer.Printer, decl string, f File) error {
	for _, ctx := range c {
		if ctx.Kind != source.KindNamespace {
			return generr.NewEmissionErrorf(decl, "cannot augment a type declared inside %s %s", ctx.Kind, ctx.Name)
		}
	}
	pkg := c.PackageName()
	if pkg == "" {
		return generr.NewEmissionError(decl, "declaration has no enclosing package")
	}
	for _, h := range f.Header {
		p.Line(h)
	}
	if len(f.Header) > 0 {
		p.Blank()
	}
	p.Line("package ", pkg)
	if f.Imports != nil {
		p.Blank()
		f.Imports(p)
	}
	if f.Body != "" {
		p.Blank()
		p.Block(f.Body)
	}
	return nil
}
