// Package diag reports generator failures as diagnostics attached to source
// locations instead of aborting the whole run.
package diag

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/cockroachdb/errors"

	"martianoff/ecsgen/internal/source"
)

// Severity of a diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	}
	return "error"
}

// Descriptor is the stable identity of a diagnostic kind.
type Descriptor struct {
	Code          string
	Title         string
	MessageFormat string
	Category      string
	Severity      Severity
}

const bugMessage = "This error indicates a bug in the ecsgen generators. We'd appreciate a bug report. Thanks! Error message: '%s'."

// One descriptor per generator stage.
var (
	CollectionComponentFailed = Descriptor{
		Code:          "ECSGEN01",
		Title:         "Collection component generator failed",
		MessageFormat: bugMessage,
		Category:      "ecsgen.components",
		Severity:      SeverityError,
	}
	ManagedComponentFailed = Descriptor{
		Code:          "ECSGEN02",
		Title:         "Managed component generator failed",
		MessageFormat: bugMessage,
		Category:      "ecsgen.components",
		Severity:      SeverityError,
	}
	CapabilityFailed = Descriptor{
		Code:          "ECSGEN11",
		Title:         "Capability generator failed",
		MessageFormat: bugMessage,
		Category:      "ecsgen.scripts",
		Severity:      SeverityError,
	}
	BehaviorFailed = Descriptor{
		Code:          "ECSGEN12",
		Title:         "Behavior generator failed",
		MessageFormat: bugMessage,
		Category:      "ecsgen.scripts",
		Severity:      SeverityError,
	}
	AuthoringFailed = Descriptor{
		Code:          "ECSGEN13",
		Title:         "Authoring generator failed",
		MessageFormat: bugMessage,
		Category:      "ecsgen.scripts",
		Severity:      SeverityError,
	}
)

// Diagnostic is one reported problem.
type Diagnostic struct {
	Descriptor Descriptor
	Message    string
	Location   source.Location
	// Err is the underlying failure, kept for verbose logging.
	Err error
}

// New formats a diagnostic for desc.
func New(desc Descriptor, loc source.Location, err error) *Diagnostic {
	return &Diagnostic{
		Descriptor: desc,
		Message:    fmt.Sprintf(desc.MessageFormat, err.Error()),
		Location:   loc,
		Err:        err,
	}
}

func (d *Diagnostic) String() string {
	return fmt.Sprintf("%s: %s %s: %s", d.Location, d.Descriptor.Severity, d.Descriptor.Code, d.Message)
}

// Sort orders diagnostics by location, then code.
func Sort(ds []*Diagnostic) {
	slices.SortStableFunc(ds, func(a, b *Diagnostic) int {
		switch {
		case a.Location.Less(b.Location):
			return -1
		case b.Location.Less(a.Location):
			return 1
		case a.Descriptor.Code < b.Descriptor.Code:
			return -1
		case a.Descriptor.Code > b.Descriptor.Code:
			return 1
		}
		return 0
	})
}

// IsCancellation reports whether err stems from context cancellation.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Guard runs fn and converts its failure into a diagnostic. Cancellation is
// returned as an error and never becomes a diagnostic; panics are recovered
// with their stack.
func Guard(ctx context.Context, desc Descriptor, loc source.Location, fn func() error) (d *Diagnostic, err error) {
	defer func() {
		if r := recover(); r != nil {
			perr, ok := r.(error)
			if !ok {
				perr = errors.Newf("panic: %v", r)
			}
			perr = errors.WithStack(perr)
			if ctxErr := ctx.Err(); ctxErr != nil {
				d, err = nil, ctxErr
				return
			}
			d, err = New(desc, loc, perr), nil
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ferr := fn()
	if ferr == nil {
		return nil, nil
	}
	if IsCancellation(ferr) {
		return nil, ferr
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	return New(desc, loc, ferr), nil
}

// Reporter receives diagnostics.
type Reporter interface {
	Report(d *Diagnostic)
}

// Collector is a Reporter that keeps every diagnostic.
type Collector struct {
	mu    sync.Mutex
	diags []*Diagnostic
}

// Report implements Reporter.
func (c *Collector) Report(d *Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.diags = append(c.diags, d)
}

// Diagnostics returns a sorted copy of what was reported.
func (c *Collector) Diagnostics() []*Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := slices.Clone(c.diags)
	Sort(out)
	return out
}

// WriterReporter prints one line per diagnostic.
type WriterReporter struct {
	mu sync.Mutex
	W  io.Writer
}

// Report implements Reporter.
func (w *WriterReporter) Report(d *Diagnostic) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintln(w.W, d.String())
}
