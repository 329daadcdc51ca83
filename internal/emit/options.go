// Package emit renders IR into Go source files.
//
// Every emitter renders its body into a printer.Printer while collecting
// imports, wraps the body with the declaration's scope chain and formats the
// result with go/format. Generated code targets the framework runtime package
// configured in Options; the runtime API it relies on is:
//
//	Script, ScriptRef, ScriptOf[T], Entity, Resolver
//	InterfaceData / NewInterfaceData, InterfaceRefData / NewInterfaceRefData
//	ContextPtr, ContextOf, Args[A], Target[T], Ref[T], RefTo, ReadonlyRefTo
//	ComponentType, ReadOnly[T], DispatchCollection[T]
//	DispatchTable, InitDispatch
package emit

import (
	"go/format"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/cockroachdb/errors"

	"martianoff/ecsgen/generr"
	"martianoff/ecsgen/internal/ir"
	"martianoff/ecsgen/internal/printer"
	"martianoff/ecsgen/internal/scope"
	"martianoff/ecsgen/internal/source"
)

// DefaultHeader marks generated files.
const DefaultHeader = "// Code generated by ecsgen. DO NOT EDIT."

// DefaultSuffix ends every per-declaration file name.
const DefaultSuffix = ".gen.go"

// Options configure every emitter.
type Options struct {
	// Framework is the runtime package generated code calls into.
	Framework source.Package
	// Header is written at the top of each file.
	Header []string
	// Trampolines enables per-capability script trampolines and their
	// registration.
	Trampolines bool
	// Suffix ends generated file names.
	Suffix string
}

// DefaultOptions returns options targeting martianoff/ecs.
func DefaultOptions() Options {
	return Options{
		Framework:   source.Package{Path: "martianoff/ecs", Name: "ecs"},
		Header:      []string{DefaultHeader},
		Trampolines: true,
		Suffix:      DefaultSuffix,
	}
}

// Output is the result of emitting one declaration.
type Output struct {
	// Source is formatted Go code; empty when there is nothing to emit.
	Source []byte
	// Registrations are package-level functions taking *DispatchTable that
	// the package init file must call.
	Registrations []string
}

// file carries the state of one generated file.
type file struct {
	decl    *source.Declaration
	opts    Options
	imports *ImportManager
	body    *printer.Printer
	// fw is the framework package alias, with trailing dot.
	fw string
}

func newFile(decl *source.Declaration, opts Options) *file {
	f := &file{
		decl:    decl,
		opts:    opts,
		imports: NewImportManager(decl.Package.Path),
		body:    printer.New(),
	}
	if alias := f.imports.Add(opts.Framework.Path, opts.Framework.Name); alias != "" {
		f.fw = alias + "."
	}
	return f
}

// ref returns ident, declared in c's package, as seen from this file.
func (f *file) ref(c ir.Capability, ident string) string {
	return f.imports.Qualify(c.Package, ident)
}

// finish wraps the body and formats the file.
func (f *file) finish() ([]byte, error) {
	p := printer.New()
	err := scope.Build(f.decl).Wrap(p, f.decl.Name, scope.File{
		Header:  f.opts.Header,
		Imports: f.imports.Print,
		Body:    f.body.Result(),
	})
	if err != nil {
		return nil, locate(err, f.decl)
	}
	return formatSource(f.decl, p.Result())
}

func formatSource(decl *source.Declaration, text string) ([]byte, error) {
	out, err := format.Source([]byte(text))
	if err != nil {
		return nil, emissionError(decl, "generated code does not parse: %v", err)
	}
	return out, nil
}

func emissionError(decl *source.Declaration, msg string, args ...any) *generr.EmissionError {
	loc := decl.Location
	return generr.NewEmissionErrorf(decl.Name, msg, args...).At(loc.File, loc.Line, loc.Column)
}

// locate attaches decl's position to an emission error that has none.
func locate(err error, decl *source.Declaration) error {
	var ee *generr.EmissionError
	if errors.As(err, &ee) {
		ee.At(decl.Location.File, decl.Location.Line, decl.Location.Column)
	}
	return err
}

// visible returns name exported when access is public and unexported
// otherwise.
func visible(name string, access source.Access) string {
	if access == source.AccessPublic {
		return upperFirst(name)
	}
	return lowerFirst(name)
}

func upperFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}

func lowerFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}
	return string(unicode.ToLower(r)) + s[n:]
}

// nameSet detects collisions among generated identifiers.
type nameSet struct {
	decl  *source.Declaration
	names map[string]string
}

func newNameSet(decl *source.Declaration) *nameSet {
	return &nameSet{decl: decl, names: make(map[string]string)}
}

// claim records name for what and fails when it is already taken.
func (s *nameSet) claim(name, what string) error {
	if prev, ok := s.names[name]; ok {
		return emissionError(s.decl, "%s %s collides with %s", what, name, prev)
	}
	s.names[name] = what
	return nil
}

var reservedLocals = map[string]bool{
	"h": true, "args": true, "ret": true, "script": true, "ctx": true, "op": true, "_": true, "": true,
}

// paramNames returns usable, unique identifiers for params. Names for which
// taken reports true are replaced as well.
func paramNames(params []source.Param, taken func(string) bool) []string {
	out := make([]string, len(params))
	used := make(map[string]bool)
	for i, p := range params {
		name := p.Name
		for n := i; reservedLocals[name] || used[name] || taken(name); n++ {
			name = "p" + strconv.Itoa(n)
		}
		used[name] = true
		out[i] = name
	}
	return out
}
