package asm

import (
	"fmt"
	"io"
)

// Printer outputs x86-64 assembly in NASM syntax
type Printer struct {
	w io.Writer
}

// NewPrinter creates a new assembly printer
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// PrintProgram outputs an entire program
func (p *Printer) PrintProgram(prog *Program) {
	fmt.Fprintf(p.w, "section .text\n")
	for _, f := range prog.Functions {
		fmt.Fprintf(p.w, "\n")
		p.PrintFunction(f)
	}
}

// PrintFunction outputs a single function with its global declaration
func (p *Printer) PrintFunction(f Function) {
	fmt.Fprintf(p.w, "global %s\n", f.Name)
	fmt.Fprintf(p.w, "%s:\n", f.Name)
	for _, inst := range f.Code {
		p.printInstruction(inst)
	}
}

func (p *Printer) printInstruction(inst Instruction) {
	switch i := inst.(type) {
	case MOV:
		p.op2("mov", i.Dst, i.Src)
	case ADD:
		p.op2("add", i.Dst, i.Src)
	case SUB:
		p.op2("sub", i.Dst, i.Src)
	case IMUL:
		p.op2("imul", Reg{i.Dst}, i.Src)
	case IMULi:
		fmt.Fprintf(p.w, "\timul\t%s, %s, %d\n", i.Dst, operand(i.Src), i.Imm)
	case PUSH:
		fmt.Fprintf(p.w, "\tpush\t%s\n", i.Reg)
	case POP:
		fmt.Fprintf(p.w, "\tpop\t%s\n", i.Reg)
	case JMP:
		fmt.Fprintf(p.w, "\tjmp\t%s\n", i.Target)
	case RET:
		fmt.Fprintf(p.w, "\tret\n")
	case LabelDef:
		fmt.Fprintf(p.w, "%s:\n", i.Name)
	case Comment:
		fmt.Fprintf(p.w, "\t; %s\n", i.Text)
	default:
		fmt.Fprintf(p.w, "\t; unknown instruction %T\n", inst)
	}
}

func (p *Printer) op2(mnemonic string, dst, src Operand) {
	fmt.Fprintf(p.w, "\t%s\t%s, %s\n", mnemonic, operand(dst), operand(src))
}

// operand formats an operand. Memory operands carry an explicit qword
// size so that immediate stores are unambiguous.
func operand(op Operand) string {
	switch o := op.(type) {
	case Reg:
		return o.Reg.String()
	case Mem:
		if o.Ofs == 0 {
			return fmt.Sprintf("qword [%s]", o.Base)
		}
		return fmt.Sprintf("qword [%s%+d]", o.Base, o.Ofs)
	case Imm:
		return fmt.Sprintf("%d", o.Value)
	}
	return "?"
}
