// Package gohost implements source.Host over Go packages loaded with
// golang.org/x/tools/go/packages and type-checked by go/types.
//
// Declarations are the struct and interface type specs of the loaded
// packages, including function-local ones. Their base lists are the embedded
// fields and embedded interface elements. Directive comments of the form
// //ecs:<word> [args] in a doc comment carry what Go syntax cannot express:
// modifiers on types, property accessors and passing modes on methods.
package gohost

import (
	"context"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"slices"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"golang.org/x/tools/go/packages"

	"martianoff/ecsgen/generr"
	"martianoff/ecsgen/internal/logger"
	"martianoff/ecsgen/internal/source"
)

// DefaultDirectivePrefix follows "//" in directive comments.
const DefaultDirectivePrefix = "ecs:"

// Config controls package loading.
type Config struct {
	// Dir is the working directory of the underlying go command.
	Dir string
	// Patterns are package patterns; empty means "./...".
	Patterns        []string
	DirectivePrefix string
	Tests           bool
	Env             []string
}

const loadMode = packages.NeedName | packages.NeedFiles | packages.NeedSyntax |
	packages.NeedTypes | packages.NeedTypesInfo | packages.NeedImports

// Host answers semantic queries over loaded packages. It is its own
// SemanticModel.
type Host struct {
	fset   *token.FileSet
	prefix string
	decls  []*source.Declaration

	mu sync.Mutex
	// syms caches symbols by their types.TypeString.
	syms map[string]*source.TypeSymbol
	// methodDirs holds directives of interface methods declared in loaded
	// syntax, keyed by the method name position.
	methodDirs map[string][]directive
}

type declNode struct {
	pkg   *packages.Package
	obj   *types.TypeName
	bases []ast.Expr
}

// Load loads and type-checks packages. Type errors are logged and tolerated
// so stale generated files do not block regeneration; list errors fail.
func Load(ctx context.Context, cfg Config) (*Host, error) {
	patterns := cfg.Patterns
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}
	prefix := cfg.DirectivePrefix
	if prefix == "" {
		prefix = DefaultDirectivePrefix
	}
	pcfg := &packages.Config{
		Context: ctx,
		Mode:    loadMode,
		Dir:     cfg.Dir,
		Tests:   cfg.Tests,
		Env:     cfg.Env,
		Fset:    token.NewFileSet(),
	}
	pkgs, err := packages.Load(pcfg, patterns...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errors.Wrapf(err, "loading %s", strings.Join(patterns, " "))
	}
	slices.SortFunc(pkgs, func(a, b *packages.Package) int { return strings.Compare(a.ID, b.ID) })

	h := &Host{
		fset:       pcfg.Fset,
		prefix:     "//" + prefix,
		syms:       make(map[string]*source.TypeSymbol),
		methodDirs: make(map[string][]directive),
	}
	var listErrs generr.MultiError
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			if e.Kind == packages.ListError {
				listErrs.Append(generr.NewSemanticError(e.Error()))
				continue
			}
			logger.Logger.Warnw("package has errors", "package", pkg.PkgPath, "error", e.Error())
		}
		if pkg.Types == nil || pkg.TypesInfo == nil {
			continue
		}
		h.addPackage(pkg)
	}
	if err := listErrs.ErrOrNil(); err != nil {
		return nil, err
	}
	logger.Logger.Debugw("packages loaded", "packages", len(pkgs), "declarations", len(h.decls))
	return h, nil
}

func (h *Host) loc(pos token.Pos) source.Location {
	p := h.fset.Position(pos)
	return source.Location{File: p.Filename, Line: p.Line, Column: p.Column}
}

func (h *Host) posKey(pos token.Pos) string {
	return h.fset.Position(pos).String()
}

func (h *Host) addPackage(pkg *packages.Package) {
	ns := &source.Declaration{
		Name:    pkg.Name,
		Kind:    source.KindNamespace,
		Access:  source.AccessPublic,
		Package: source.Package{Path: pkg.PkgPath, Name: pkg.Name},
	}
	for _, f := range pkg.Syntax {
		if ast.IsGenerated(f) {
			continue
		}
		for _, d := range f.Decls {
			switch d := d.(type) {
			case *ast.GenDecl:
				h.addTypeDecls(pkg, d, ns, false)
			case *ast.FuncDecl:
				if d.Body == nil {
					continue
				}
				fn := &source.Declaration{
					Name:     d.Name.Name,
					Kind:     source.KindFunc,
					Access:   source.AccessPrivate,
					Parent:   ns,
					Package:  ns.Package,
					Location: h.loc(d.Name.Pos()),
				}
				ast.Inspect(d.Body, func(n ast.Node) bool {
					if ds, ok := n.(*ast.DeclStmt); ok {
						if gd, ok := ds.Decl.(*ast.GenDecl); ok {
							h.addTypeDecls(pkg, gd, fn, true)
						}
					}
					return true
				})
			}
		}
	}
}

func (h *Host) addTypeDecls(pkg *packages.Package, gd *ast.GenDecl, parent *source.Declaration, local bool) {
	if gd.Tok != token.TYPE {
		return
	}
	for _, spec := range gd.Specs {
		ts, ok := spec.(*ast.TypeSpec)
		if !ok || ts.Assign.IsValid() {
			continue
		}
		var kind source.DeclKind
		var bases []ast.Expr
		switch t := ts.Type.(type) {
		case *ast.StructType:
			kind = source.KindStruct
			for _, f := range t.Fields.List {
				if len(f.Names) == 0 {
					bases = append(bases, f.Type)
				}
			}
		case *ast.InterfaceType:
			kind = source.KindInterface
			for _, f := range t.Methods.List {
				if len(f.Names) == 0 {
					bases = append(bases, f.Type)
					continue
				}
				h.recordMethod(pkg, f)
			}
		default:
			continue
		}
		obj, _ := pkg.TypesInfo.Defs[ts.Name].(*types.TypeName)
		if obj == nil {
			continue
		}
		doc := ts.Doc
		if doc == nil && len(gd.Specs) == 1 {
			doc = gd.Doc
		}
		access := source.AccessInternal
		switch {
		case local:
			access = source.AccessPrivate
		case ts.Name.IsExported():
			access = source.AccessPublic
		}
		node := &declNode{pkg: pkg, obj: obj}
		decl := &source.Declaration{
			Name:     ts.Name.Name,
			Kind:     kind,
			Access:   access,
			Parent:   parent,
			Package:  parent.Package,
			Location: h.loc(ts.Name.Pos()),
			Node:     node,
		}
		for _, d := range h.directives(doc) {
			decl.Modifiers = append(decl.Modifiers, d.name)
		}
		for _, b := range bases {
			if ref, ok := typeRefOf(b); ok {
				decl.Bases = append(decl.Bases, ref)
				node.bases = append(node.bases, b)
			}
		}
		h.decls = append(h.decls, decl)
	}
}

func (h *Host) recordMethod(pkg *packages.Package, f *ast.Field) {
	dirs := h.directives(f.Doc)
	if len(dirs) == 0 {
		return
	}
	for _, name := range f.Names {
		if obj := pkg.TypesInfo.Defs[name]; obj != nil {
			h.methodDirs[h.posKey(obj.Pos())] = dirs
		}
	}
}

// typeRefOf spells an embedded type expression as written.
func typeRefOf(expr ast.Expr) (source.TypeRef, bool) {
	switch e := expr.(type) {
	case *ast.Ident:
		return source.TypeRef{Name: e.Name}, true
	case *ast.SelectorExpr:
		if x, ok := e.X.(*ast.Ident); ok {
			return source.TypeRef{Qualifier: x.Name, Name: e.Sel.Name}, true
		}
	case *ast.StarExpr:
		return typeRefOf(e.X)
	case *ast.ParenExpr:
		return typeRefOf(e.X)
	case *ast.IndexExpr:
		return withArgs(e.X, e.Index)
	case *ast.IndexListExpr:
		return withArgs(e.X, e.Indices...)
	}
	return source.TypeRef{}, false
}

func withArgs(x ast.Expr, args ...ast.Expr) (source.TypeRef, bool) {
	ref, ok := typeRefOf(x)
	if !ok {
		return ref, false
	}
	for _, a := range args {
		arg, ok := typeRefOf(a)
		if !ok {
			return ref, false
		}
		ref.Args = append(ref.Args, arg)
	}
	return ref, true
}

// AllTypeDeclarations returns declarations ordered by package, then file.
func (h *Host) AllTypeDeclarations(ctx context.Context) ([]*source.Declaration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return h.decls, nil
}

// SemanticModelFor returns the host itself.
func (h *Host) SemanticModelFor(*source.Declaration) (source.SemanticModel, error) {
	return h, nil
}

// ResolveType resolves one of decl's base entries.
func (h *Host) ResolveType(decl *source.Declaration, ref source.TypeRef) (*source.TypeSymbol, error) {
	node, ok := decl.Node.(*declNode)
	if !ok {
		return nil, errors.Newf("declaration %s was not loaded by this host", decl.Name)
	}
	want := ref.String()
	for i, b := range decl.Bases {
		if b.String() != want {
			continue
		}
		t := node.pkg.TypesInfo.TypeOf(node.bases[i])
		if t == nil {
			break
		}
		return h.symbolFor(t)
	}
	return nil, generr.NewSemanticErrorInFile(decl.Location.File, decl.Location.Line, decl.Location.Column,
		fmt.Sprintf("cannot resolve %s in %s", want, decl.Name))
}

// DeclaredSymbol returns the symbol of decl's own type.
func (h *Host) DeclaredSymbol(decl *source.Declaration) (*source.TypeSymbol, error) {
	node, ok := decl.Node.(*declNode)
	if !ok {
		return nil, errors.Newf("declaration %s was not loaded by this host", decl.Name)
	}
	return h.symbolFor(node.obj.Type())
}

func (h *Host) symbolFor(t types.Type) (*source.TypeSymbol, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	sym := h.symbol(t)
	if sym == nil {
		return nil, generr.NewSemanticError(fmt.Sprintf("%s is not a named type", t))
	}
	return sym, nil
}
