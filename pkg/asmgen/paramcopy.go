package asmgen

import (
	"github.com/raymyers/ralph-ilc/pkg/asm"
	"github.com/raymyers/ralph-ilc/pkg/loc"
	"github.com/raymyers/ralph-ilc/pkg/regalloc"
)

// entryMoves lists the transfers from the argument registers to the
// locations the allocator chose for the register parameters
func entryMoves(argc, argRegs int, alloc *regalloc.Allocation) []regalloc.Move {
	var moves []regalloc.Move
	for i := 0; i < argc && i < argRegs && i < len(loc.ArgRegs); i++ {
		if i >= len(alloc.Timelines) {
			break
		}
		to := alloc.Timelines[i].Entry()
		if to == nil {
			continue
		}
		moves = append(moves, regalloc.Move{From: loc.R{Reg: loc.ArgRegs[i]}, To: to})
	}
	return moves
}

// resolveParallelMoves sequentializes a simultaneous assignment. Every
// destination is distinct and every source is a register. A move is
// emitted once nothing pending still reads its destination; when only
// cycles remain, one source is parked in the scratch register.
func resolveParallelMoves(moves []regalloc.Move, scratch asm.MReg) []asm.Instruction {
	var pending []regalloc.Move
	for _, m := range moves {
		if m.From != m.To {
			pending = append(pending, m)
		}
	}

	var code []asm.Instruction
	for len(pending) > 0 {
		progressed := false
		for i, m := range pending {
			if readBy(pending, m.To, i) {
				continue
			}
			code = append(code, asm.MOV{Dst: asm.FromLoc(m.To), Src: asm.FromLoc(m.From)})
			pending = append(pending[:i], pending[i+1:]...)
			progressed = true
			break
		}
		if progressed {
			continue
		}

		// Only cycles remain: break the first one
		saved := pending[0].From
		tmp := loc.R{Reg: scratch}
		code = append(code, asm.MOV{Dst: asm.FromLoc(tmp), Src: asm.FromLoc(saved)})
		for i := range pending {
			if pending[i].From == saved {
				pending[i].From = tmp
			}
		}
	}
	return code
}

func readBy(moves []regalloc.Move, l loc.Loc, skip int) bool {
	for i, m := range moves {
		if i != skip && m.From == l {
			return true
		}
	}
	return false
}
