package asmgen

import (
	"github.com/samber/lo"

	"github.com/raymyers/ralph-ilc/pkg/asm"
	"github.com/raymyers/ralph-ilc/pkg/loc"
	"github.com/raymyers/ralph-ilc/pkg/regalloc"
)

// endLabel is the local label of the shared epilogue
const endLabel asm.Label = ".end"

// FrameLayout describes the stack frame of one function:
//
//	[rbp+16+8k]  incoming stack parameter k
//	[rbp+8]      return address
//	[rbp]        saved rbp
//	[rbp-8]...   spill slots (LocalSize bytes)
//	below        saved callee-saved registers
type FrameLayout struct {
	LocalSize  int64
	CalleeSave []asm.MReg
}

// ComputeLayout derives the frame layout from an allocation
func ComputeLayout(alloc *regalloc.Allocation) *FrameLayout {
	used := alloc.UsedRegisters()
	return &FrameLayout{
		LocalSize: -alloc.FrameSize,
		CalleeSave: lo.Filter(loc.CalleeSaveRegs, func(r loc.MReg, _ int) bool {
			return lo.Contains(used, r)
		}),
	}
}

// GeneratePrologue sets up the frame pointer, reserves the spill area and
// saves the callee-saved registers the function writes
func GeneratePrologue(layout *FrameLayout) []asm.Instruction {
	code := []asm.Instruction{
		asm.PUSH{Reg: asm.RBP},
		asm.MOV{Dst: asm.Reg{Reg: asm.RBP}, Src: asm.Reg{Reg: asm.RSP}},
	}
	if layout.LocalSize > 0 {
		code = append(code, asm.SUB{Dst: asm.Reg{Reg: asm.RSP}, Src: asm.Imm{Value: layout.LocalSize}})
	}
	for _, r := range layout.CalleeSave {
		code = append(code, asm.PUSH{Reg: r})
	}
	return code
}

// GenerateEpilogue emits the shared exit block every ret jumps to.
// The caller places the endLabel definition in front of it.
func GenerateEpilogue(layout *FrameLayout) []asm.Instruction {
	code := make([]asm.Instruction, 0, len(layout.CalleeSave)+3)
	for i := len(layout.CalleeSave) - 1; i >= 0; i-- {
		code = append(code, asm.POP{Reg: layout.CalleeSave[i]})
	}
	return append(code,
		asm.MOV{Dst: asm.Reg{Reg: asm.RSP}, Src: asm.Reg{Reg: asm.RBP}},
		asm.POP{Reg: asm.RBP},
		asm.RET{},
	)
}
