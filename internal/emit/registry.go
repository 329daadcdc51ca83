package emit

import (
	"bytes"
	"slices"
	"strings"

	"github.com/dave/jennifer/jen"

	"martianoff/ecsgen/generr"
	"martianoff/ecsgen/internal/source"
)

// RegistryFile is the name of the per-package registration file.
const RegistryFile = "ecsgen_init.gen.go"

// WriteRegistry emits the init function of pkg that calls every registration
// function exactly once, in sorted order. It returns nil when there is
// nothing to register.
func WriteRegistry(pkg source.Package, registrations []string, opts Options) ([]byte, error) {
	regs := slices.Clone(registrations)
	slices.Sort(regs)
	regs = slices.Compact(regs)
	if len(regs) == 0 {
		return nil, nil
	}

	f := jen.NewFilePathName(pkg.Path, pkg.Name)
	for _, h := range opts.Header {
		f.HeaderComment(strings.TrimPrefix(h, "// "))
	}
	f.ImportName(opts.Framework.Path, opts.Framework.Name)

	calls := make([]jen.Code, 0, len(regs))
	for _, r := range regs {
		calls = append(calls, jen.Id(r).Call(jen.Id("t")))
	}
	f.Func().Id("init").Params().Block(
		jen.Qual(opts.Framework.Path, "InitDispatch").Call(
			jen.Func().Params(jen.Id("t").Op("*").Qual(opts.Framework.Path, "DispatchTable")).Block(calls...),
		),
	)

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, generr.NewEmissionErrorf(pkg.Path, "rendering registry: %v", err)
	}
	return buf.Bytes(), nil
}
