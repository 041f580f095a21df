package il

import (
	"fmt"
	"io"
)

// Printer outputs remapped IL. Variables print as %name#slot so the
// slot assignment is visible next to the source name.
type Printer struct {
	w io.Writer
}

// NewPrinter creates a new IL printer
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// PrintProgram prints every function, separated by blank lines
func (p *Printer) PrintProgram(prog *Program) {
	for i := range prog.Functions {
		p.PrintFunction(&prog.Functions[i])
		if i < len(prog.Functions)-1 {
			fmt.Fprintln(p.w)
		}
	}
}

// PrintFunction prints one function with numbered command positions
func (p *Printer) PrintFunction(fn *Function) {
	fmt.Fprintf(p.w, "func $%s(", fn.Name)
	for i := 0; i < fn.ArgCount; i++ {
		if i > 0 {
			fmt.Fprint(p.w, ", ")
		}
		fmt.Fprintf(p.w, "i %s", p.varName(fn, Slot(i)))
	}
	fmt.Fprint(p.w, ")")
	if fn.Result == Int {
		fmt.Fprint(p.w, " i")
	}
	fmt.Fprintln(p.w, " {")

	for i := range fn.Body {
		fmt.Fprintf(p.w, "  %d: ", i+1)
		p.printCommand(fn, &fn.Body[i])
		fmt.Fprintln(p.w)
	}
	fmt.Fprintln(p.w, "}")
}

func (p *Printer) printCommand(fn *Function, c *Command) {
	if c.Dest != nil {
		fmt.Fprintf(p.w, "%s = ", p.operand(fn, *c.Dest))
	}
	fmt.Fprint(p.w, c.Op)
	for i, a := range c.Args {
		if i == 0 {
			fmt.Fprint(p.w, " ")
		} else {
			fmt.Fprint(p.w, ", ")
		}
		fmt.Fprint(p.w, p.operand(fn, a))
	}
}

func (p *Printer) operand(fn *Function, o Operand) string {
	if o.Kind == Imm {
		return fmt.Sprintf("%d", o.Value)
	}
	return p.varName(fn, o.Slot)
}

func (p *Printer) varName(fn *Function, s Slot) string {
	if int(s) < len(fn.Vars) {
		return fmt.Sprintf("%%%s#%d", fn.Vars[s], s)
	}
	return fmt.Sprintf("%%#%d", s)
}
