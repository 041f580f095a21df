// Package asm defines the x86-64 assembly representation.
// This is the final output of the compiler, printed in NASM syntax.
package asm

import "github.com/raymyers/ralph-ilc/pkg/loc"

// Re-export types
type MReg = loc.MReg

// Re-export register constants
const (
	RAX = loc.RAX
	RBX = loc.RBX
	RCX = loc.RCX
	RDX = loc.RDX
	RSI = loc.RSI
	RDI = loc.RDI
	RBP = loc.RBP // frame pointer
	RSP = loc.RSP // stack pointer
	R8  = loc.R8
	R9  = loc.R9
	R10 = loc.R10
	R11 = loc.R11
	R12 = loc.R12
	R13 = loc.R13
	R14 = loc.R14
	R15 = loc.R15
)

// Label represents a branch target label
type Label string

// --- Operands ---

// Operand is a register, a memory reference or an immediate
type Operand interface {
	implOperand()
}

// Reg is a register operand
type Reg struct {
	Reg MReg
}

// Mem is a qword memory operand [Base+Ofs]
type Mem struct {
	Base MReg
	Ofs  int64
}

// Imm is an immediate operand, sign-extended from 32 bits
type Imm struct {
	Value int64
}

func (Reg) implOperand() {}
func (Mem) implOperand() {}
func (Imm) implOperand() {}

// FromLoc converts an allocated location into an operand. Stack slots
// are addressed from the frame pointer.
func FromLoc(l loc.Loc) Operand {
	switch l := l.(type) {
	case loc.R:
		return Reg{Reg: l.Reg}
	case loc.S:
		return Mem{Base: RBP, Ofs: l.Ofs}
	}
	return nil
}

// IsMem reports whether op references memory
func IsMem(op Operand) bool {
	_, ok := op.(Mem)
	return ok
}

// --- Instruction Interface ---

// Instruction is the interface for x86-64 instructions
type Instruction interface {
	implInstruction()
}

// MOV - Move (Dst = Src); at most one operand may be memory
type MOV struct {
	Dst, Src Operand
}

// ADD - Add (Dst += Src)
type ADD struct {
	Dst, Src Operand
}

// SUB - Subtract (Dst -= Src)
type SUB struct {
	Dst, Src Operand
}

// IMUL - Signed multiply, two-operand form (Dst *= Src)
type IMUL struct {
	Dst MReg
	Src Operand
}

// IMULi - Signed multiply by immediate, three-operand form (Dst = Src * Imm)
type IMULi struct {
	Dst MReg
	Src Operand
	Imm int64
}

// PUSH - Push register
type PUSH struct {
	Reg MReg
}

// POP - Pop register
type POP struct {
	Reg MReg
}

// JMP - Unconditional jump
type JMP struct {
	Target Label
}

// RET - Return
type RET struct{}

// LabelDef - Label definition
type LabelDef struct {
	Name Label
}

// Comment - assembler comment line
type Comment struct {
	Text string
}

// --- Marker methods for Instruction interface ---

func (MOV) implInstruction()      {}
func (ADD) implInstruction()      {}
func (SUB) implInstruction()      {}
func (IMUL) implInstruction()     {}
func (IMULi) implInstruction()    {}
func (PUSH) implInstruction()     {}
func (POP) implInstruction()      {}
func (JMP) implInstruction()      {}
func (RET) implInstruction()      {}
func (LabelDef) implInstruction() {}
func (Comment) implInstruction()  {}

// --- Function and Program ---

// Function represents an assembly function
type Function struct {
	Name string
	Code []Instruction
}

// Program represents a complete assembly program
type Program struct {
	Functions []Function
}

// NewFunction creates a new assembly function
func NewFunction(name string) *Function {
	return &Function{
		Name: name,
		Code: make([]Instruction, 0),
	}
}

// Append adds an instruction to the function
func (f *Function) Append(inst Instruction) {
	f.Code = append(f.Code, inst)
}

// AppendLabel adds a label definition
func (f *Function) AppendLabel(name Label) {
	f.Code = append(f.Code, LabelDef{Name: name})
}
