package printer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrinterScopes(t *testing.T) {
	p := New()
	p.BeginLine("func (h TurretHandle) Fire()")
	p.OpenScope()
	p.Line("h.data.Dispatch(TurretCapability, 0, nil)")
	p.BeginLine("if ok")
	p.OpenScope()
	p.Line("return")
	p.CloseScope()
	p.CloseScope()

	want := "func (h TurretHandle) Fire() {\n" +
		"\th.data.Dispatch(TurretCapability, 0, nil)\n" +
		"\tif ok {\n" +
		"\t\treturn\n" +
		"\t}\n" +
		"}\n"
	assert.Equal(t, want, p.Result())
}

func TestPrinterLineState(t *testing.T) {
	tests := []struct {
		name  string
		build func(p *Printer)
		want  string
	}{
		{
			name: "print continues pending line",
			build: func(p *Printer) {
				p.BeginLine("a")
				p.Print("b", "c")
				p.EndLine("d")
			},
			want: "abcd\n",
		},
		{
			name: "line terminates pending line",
			build: func(p *Printer) {
				p.Print("x")
				p.Line("y")
			},
			want: "x\ny\n",
		},
		{
			name: "blank line has no indentation",
			build: func(p *Printer) {
				p.Indent()
				p.Blank()
				p.Line("z")
			},
			want: "\n\tz\n",
		},
		{
			name: "open and close delimiters",
			build: func(p *Printer) {
				p.Open("import (")
				p.Line(`"reflect"`)
				p.Close(")")
			},
			want: "import (\n\t\"reflect\"\n)\n",
		},
		{
			name: "close scope with suffix",
			build: func(p *Printer) {
				p.BeginLine("f(func()")
				p.OpenScope()
				p.CloseScope(")")
			},
			want: "f(func() {\n})\n",
		},
		{
			name: "block keeps relative indentation",
			build: func(p *Printer) {
				p.Indent()
				p.Block("a {\n\tb\n}\n")
			},
			want: "\ta {\n\t\tb\n\t}\n",
		},
		{
			name: "unbalanced close stays at zero",
			build: func(p *Printer) {
				p.CloseScope()
				p.Line("x")
			},
			want: "}\nx\n",
		},
		{
			name: "result terminates pending line",
			build: func(p *Printer) {
				p.Print("tail")
			},
			want: "tail\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New()
			tt.build(p)
			assert.Equal(t, tt.want, p.Result())
		})
	}
}

func TestPrinterCustomIndent(t *testing.T) {
	p := NewWithIndent("  ")
	p.Line("a")
	p.Indent()
	p.Line("b")
	assert.Equal(t, 1, p.Depth())
	assert.Equal(t, "a\n  b\n", p.Result())
}
