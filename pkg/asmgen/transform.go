// Package asmgen turns allocated IL functions into x86-64 assembly.
// It lays out the frame, copies parameters out of their argument
// registers, and emits the moves every phase boundary requires.
package asmgen

import (
	"fmt"

	"github.com/raymyers/ralph-ilc/pkg/asm"
	"github.com/raymyers/ralph-ilc/pkg/il"
	"github.com/raymyers/ralph-ilc/pkg/logging"
	"github.com/raymyers/ralph-ilc/pkg/regalloc"
)

// Options control optional output
type Options struct {
	Borders bool // annotate the start of every command
}

// TransformProgram emits every function of prog using its allocation
func TransformProgram(prog *il.Program, allocs []*regalloc.Allocation, cfg regalloc.Config, opts Options) (*asm.Program, error) {
	result := &asm.Program{
		Functions: make([]asm.Function, len(prog.Functions)),
	}
	for i := range prog.Functions {
		f, err := TransformFunction(&prog.Functions[i], allocs[i], cfg, opts)
		if err != nil {
			return nil, err
		}
		result.Functions[i] = f
	}
	return result, nil
}

// TransformFunction emits a single function
func TransformFunction(fn *il.Function, alloc *regalloc.Allocation, cfg regalloc.Config, opts Options) (asm.Function, error) {
	layout := ComputeLayout(alloc)
	ctx := &genContext{
		fn:      fn,
		alloc:   alloc,
		scratch: cfg.Scratch,
		out:     asm.NewFunction(fn.Name),
		cursors: make([]*regalloc.Cursor, len(alloc.Timelines)),
	}
	for i, tl := range alloc.Timelines {
		ctx.cursors[i] = tl.Cursor()
	}

	ctx.emit(GeneratePrologue(layout)...)
	ctx.emit(resolveParallelMoves(entryMoves(fn.ArgCount, cfg.ArgRegisters, alloc), cfg.Scratch)...)

	for i := range fn.Body {
		pos := i + 1
		if opts.Borders {
			ctx.emit(asm.Comment{Text: fmt.Sprintf("@cmd %d", pos)})
		}
		if err := ctx.crossBoundaries(&fn.Body[i], pos); err != nil {
			return asm.Function{}, fmt.Errorf("function %s, command %d: %w", fn.Name, pos, err)
		}
		ctx.translateCommand(&fn.Body[i], pos == len(fn.Body))
	}

	ctx.out.AppendLabel(endLabel)
	ctx.emit(GenerateEpilogue(layout)...)
	logging.Debug("emitted", "function", fn.Name, "instructions", len(ctx.out.Code),
		"frame", layout.LocalSize, "callee_saved", len(layout.CalleeSave))
	return *ctx.out, nil
}

// genContext holds state during code generation
type genContext struct {
	fn      *il.Function
	alloc   *regalloc.Allocation
	scratch asm.MReg
	out     *asm.Function
	cursors []*regalloc.Cursor
}

func (ctx *genContext) emit(code ...asm.Instruction) {
	for _, inst := range code {
		ctx.out.Append(inst)
	}
}

// crossBoundaries moves every variable the command touches into the
// phase that covers pos
func (ctx *genContext) crossBoundaries(cmd *il.Command, pos int) error {
	for _, op := range cmd.Operands() {
		if !op.IsVar() {
			continue
		}
		moves, err := ctx.cursors[op.Slot].Advance(pos)
		if err != nil {
			return err
		}
		for _, m := range moves {
			ctx.move(asm.FromLoc(m.To), asm.FromLoc(m.From))
		}
	}
	return nil
}

// operand returns the current location of op
func (ctx *genContext) operand(op il.Operand) asm.Operand {
	if op.IsVar() {
		return asm.FromLoc(ctx.cursors[op.Slot].Loc())
	}
	return asm.Imm{Value: op.Value}
}

// move emits dst = src, going through the scratch register when both are in memory
func (ctx *genContext) move(dst, src asm.Operand) {
	if dst == src {
		return
	}
	if asm.IsMem(dst) && asm.IsMem(src) {
		tmp := asm.Reg{Reg: ctx.scratch}
		ctx.emit(asm.MOV{Dst: tmp, Src: src}, asm.MOV{Dst: dst, Src: tmp})
		return
	}
	ctx.emit(asm.MOV{Dst: dst, Src: src})
}

// translateCommand emits the body of one command
func (ctx *genContext) translateCommand(cmd *il.Command, last bool) {
	switch cmd.Op {
	case il.Copy:
		ctx.move(ctx.operand(*cmd.Dest), ctx.operand(cmd.Args[0]))
	case il.Add, il.Sub, il.Mul:
		ctx.translateArith(cmd)
	case il.Ret:
		if len(cmd.Args) > 0 {
			ctx.move(asm.Reg{Reg: asm.RAX}, ctx.operand(cmd.Args[0]))
		}
		if !last {
			ctx.emit(asm.JMP{Target: endLabel})
		}
	}
}

// translateArith emits dest = a op b in two-operand form
func (ctx *genContext) translateArith(cmd *il.Command) {
	dst := ctx.operand(*cmd.Dest)
	a := ctx.operand(cmd.Args[0])
	b := ctx.operand(cmd.Args[1])

	if d, ok := dst.(asm.Reg); ok {
		switch {
		case b != dst:
			ctx.move(d, a)
			ctx.arith(cmd.Op, d.Reg, b)
			return
		case cmd.Op.Commutative():
			ctx.arith(cmd.Op, d.Reg, a)
			return
		}
	}

	ctx.move(asm.Reg{Reg: ctx.scratch}, a)
	ctx.arith(cmd.Op, ctx.scratch, b)
	ctx.move(dst, asm.Reg{Reg: ctx.scratch})
}

func (ctx *genContext) arith(op il.Op, dst asm.MReg, src asm.Operand) {
	d := asm.Reg{Reg: dst}
	switch op {
	case il.Add:
		ctx.emit(asm.ADD{Dst: d, Src: src})
	case il.Sub:
		ctx.emit(asm.SUB{Dst: d, Src: src})
	case il.Mul:
		if imm, ok := src.(asm.Imm); ok {
			ctx.emit(asm.IMULi{Dst: dst, Src: d, Imm: imm.Value})
			return
		}
		ctx.emit(asm.IMUL{Dst: dst, Src: src})
	}
}
