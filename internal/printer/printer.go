// Package printer accumulates generated source text with indentation tracking.
package printer

import "strings"

// Printer builds text line by line. Every line started through Line or
// BeginLine is prefixed with the current indentation; Print appends to the
// pending line.
type Printer struct {
	buf    strings.Builder
	indent int
	inLine bool
	unit   string
}

// New creates a Printer that indents with tabs.
func New() *Printer {
	return &Printer{unit: "\t"}
}

// NewWithIndent creates a Printer using unit as one indentation level.
func NewWithIndent(unit string) *Printer {
	return &Printer{unit: unit}
}

// Line writes a complete line at the current indentation. A pending line is
// terminated first. Line with no parts writes an empty line.
func (p *Printer) Line(parts ...string) {
	p.finish()
	text := strings.Join(parts, "")
	if text != "" {
		p.writeIndent()
		p.buf.WriteString(text)
	}
	p.buf.WriteByte('\n')
}

// BeginLine starts a new indented line and leaves it open.
func (p *Printer) BeginLine(parts ...string) {
	p.finish()
	p.writeIndent()
	p.inLine = true
	p.write(parts)
}

// Print appends to the pending line, starting one if none is open.
func (p *Printer) Print(parts ...string) {
	if !p.inLine {
		p.BeginLine(parts...)
		return
	}
	p.write(parts)
}

// EndLine appends parts and terminates the pending line.
func (p *Printer) EndLine(parts ...string) {
	p.Print(parts...)
	p.buf.WriteByte('\n')
	p.inLine = false
}

// Blank writes an empty line.
func (p *Printer) Blank() {
	p.Line()
}

// OpenScope opens a brace-delimited scope. On a pending line the brace is
// appended to it, Go style.
func (p *Printer) OpenScope() {
	if p.inLine {
		p.EndLine(" {")
	} else {
		p.Line("{")
	}
	p.indent++
}

// CloseScope closes the innermost scope. suffix is written after the brace,
// e.g. ")" for a closure passed as argument.
func (p *Printer) CloseScope(suffix ...string) {
	p.Dedent()
	p.Line(append([]string{"}"}, suffix...)...)
}

// Open writes line and indents what follows, e.g. "import (".
func (p *Printer) Open(line string) {
	p.Line(line)
	p.indent++
}

// Close dedents and writes line, e.g. ")".
func (p *Printer) Close(line string) {
	p.Dedent()
	p.Line(line)
}

// Indent increases the indentation level.
func (p *Printer) Indent() {
	p.indent++
}

// Dedent decreases the indentation level, never below zero.
func (p *Printer) Dedent() {
	p.finish()
	if p.indent > 0 {
		p.indent--
	}
}

// Block splices pre-rendered text at the current indentation.
func (p *Printer) Block(text string) {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return
	}
	for _, line := range strings.Split(text, "\n") {
		p.Line(line)
	}
}

// Depth returns the current indentation level.
func (p *Printer) Depth() int {
	return p.indent
}

// Result returns the accumulated text. A pending line is terminated.
func (p *Printer) Result() string {
	p.finish()
	return p.buf.String()
}

func (p *Printer) finish() {
	if p.inLine {
		p.buf.WriteByte('\n')
		p.inLine = false
	}
}

func (p *Printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.buf.WriteString(p.unit)
	}
}

func (p *Printer) write(parts []string) {
	for _, s := range parts {
		p.buf.WriteString(s)
	}
}
