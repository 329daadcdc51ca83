package generator

import (
	"context"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"martianoff/ecsgen/internal/diag"
	"martianoff/ecsgen/internal/emit"
	"martianoff/ecsgen/internal/logger"
	"martianoff/ecsgen/internal/matcher"
	"martianoff/ecsgen/internal/source"
)

// Sink receives generated units in logical-name order.
type Sink interface {
	AddSource(u *Unit) error
}

// Result is everything one run produced.
type Result struct {
	Units       []*Unit
	Diagnostics []*diag.Diagnostic
}

// Runner executes every registered stage over a host.
type Runner struct {
	Host     source.Host
	Stages   *Registry
	Sink     Sink
	Reporter diag.Reporter
	Logger   *zap.SugaredLogger
	Options  emit.Options
	// Workers bounds concurrent emission; zero means GOMAXPROCS.
	Workers int
	// InitFile adds one registry unit per package with registrations.
	InitFile bool
	// Filter, when set, restricts the declarations considered.
	Filter func(*source.Declaration) bool
}

type job struct {
	stage Stage
	match *matcher.Match
}

// Run generates every unit. A failure inside one candidate becomes a
// diagnostic and does not stop its siblings. Cancellation returns the
// context error and nothing reaches the sink.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := r.Logger
	if log == nil {
		log = logger.Logger
	}
	start := time.Now()

	decls, err := r.Host.AllTypeDeclarations(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing declarations")
	}
	if r.Filter != nil {
		decls = slices.DeleteFunc(slices.Clone(decls), func(d *source.Declaration) bool { return !r.Filter(d) })
	}
	log.Debugw("declarations listed", "count", len(decls))

	var jobs []job
	for _, s := range r.Stages.Stages() {
		matches := matcher.Find(ctx, r.Host, decls, s.Spec())
		log.Debugw("stage matched", "stage", s.Tag(), "candidates", len(matches))
		for _, m := range matches {
			jobs = append(jobs, job{stage: s, match: m})
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	units, diags, err := r.emitAll(ctx, jobs)
	if err != nil {
		return nil, err
	}

	regs, err := r.registryUnits(units)
	if err != nil {
		return nil, err
	}
	units = append(units, regs...)
	slices.SortFunc(units, func(a, b *Unit) int { return strings.Compare(a.Path(), b.Path()) })

	if r.Sink != nil {
		for _, u := range units {
			if err := r.Sink.AddSource(u); err != nil {
				return nil, errors.Wrapf(err, "writing %s", u.Path())
			}
		}
	}
	for _, d := range diags {
		log.Warnw("generation failed", "code", d.Descriptor.Code, "location", d.Location.String())
		log.Debugf("%+v", d.Err)
		if r.Reporter != nil {
			r.Reporter.Report(d)
		}
	}
	log.Infow("generation finished",
		"candidates", len(jobs), "units", len(units), "diagnostics", len(diags),
		"elapsed", time.Since(start))
	return &Result{Units: units, Diagnostics: diags}, nil
}

func (r *Runner) workers() int {
	if r.Workers > 0 {
		return r.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// emitAll runs every job on a bounded pool. Each job writes only its own
// slot.
func (r *Runner) emitAll(ctx context.Context, jobs []job) ([]*Unit, []*diag.Diagnostic, error) {
	unitSlots := make([]*Unit, len(jobs))
	diagSlots := make([]*diag.Diagnostic, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers())
	for i, j := range jobs {
		g.Go(func() error {
			d, err := diag.Guard(gctx, j.stage.Descriptor(), j.match.Decl.Location, func() error {
				u, err := j.stage.Emit(gctx, j.match, r.Options)
				if err != nil {
					return err
				}
				unitSlots[i] = u
				return nil
			})
			if err != nil {
				return err
			}
			diagSlots[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var units []*Unit
	for _, u := range unitSlots {
		if u != nil {
			units = append(units, u)
		}
	}
	var diags []*diag.Diagnostic
	for _, d := range diagSlots {
		if d != nil {
			diags = append(diags, d)
		}
	}
	diag.Sort(diags)
	return units, diags, nil
}

// registryUnits builds one init file per package that has registrations,
// placed in the directory of the package's first unit.
func (r *Runner) registryUnits(units []*Unit) ([]*Unit, error) {
	if !r.InitFile {
		return nil, nil
	}
	sorted := slices.Clone(units)
	slices.SortFunc(sorted, func(a, b *Unit) int { return strings.Compare(a.Path(), b.Path()) })

	type pkgRegs struct {
		pkg  source.Package
		dir  string
		regs []string
	}
	var order []string
	byPath := make(map[string]*pkgRegs)
	for _, u := range sorted {
		if len(u.Registrations) == 0 {
			continue
		}
		pr, ok := byPath[u.Package.Path]
		if !ok {
			pr = &pkgRegs{pkg: u.Package, dir: u.Dir}
			byPath[u.Package.Path] = pr
			order = append(order, u.Package.Path)
		}
		pr.regs = append(pr.regs, u.Registrations...)
	}

	var out []*Unit
	for _, path := range order {
		pr := byPath[path]
		src, err := emit.WriteRegistry(pr.pkg, pr.regs, r.Options)
		if err != nil {
			return nil, err
		}
		if src == nil {
			continue
		}
		out = append(out, &Unit{
			Name:    emit.RegistryFile,
			Dir:     pr.dir,
			Package: pr.pkg,
			Tag:     TagRegistry,
			Source:  src,
		})
	}
	return out, nil
}
