package regalloc

import (
	"fmt"
	"testing"

	"github.com/raymyers/ralph-ilc/pkg/il"
	"github.com/raymyers/ralph-ilc/pkg/loc"
)

func v(s int) il.Operand     { return il.VarOperand(il.Slot(s)) }
func imm(n int64) il.Operand { return il.ImmOperand(n) }

func def(op il.Op, dest int, args ...il.Operand) il.Command {
	d := v(dest)
	return il.Command{Op: op, Dest: &d, Args: args}
}

func ret(args ...il.Operand) il.Command {
	return il.Command{Op: il.Ret, Args: args}
}

// function builds a function with argc parameters over slots v0..v(slots-1)
func function(argc, slots int, body ...il.Command) *il.Function {
	vars := make([]string, slots)
	for i := range vars {
		vars[i] = fmt.Sprintf("v%d", i)
	}
	return &il.Function{Name: "f", Result: il.Int, ArgCount: argc, Vars: vars, Body: body}
}

func regsConfig(regs ...loc.MReg) Config {
	cfg := DefaultConfig()
	cfg.Registers = regs
	return cfg
}

func mustAllocate(t *testing.T, fn *il.Function, cfg Config) *Allocation {
	t.Helper()
	alloc, err := Allocate(fn, cfg)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	checkInvariants(t, alloc, cfg)
	return alloc
}

// checkInvariants verifies that timelines cover their intervals without
// gaps and that no register is shared or overcommitted at any position.
func checkInvariants(t *testing.T, alloc *Allocation, cfg Config) {
	t.Helper()
	maxEnd := 0
	for s, iv := range alloc.Intervals {
		tl := alloc.Timelines[s]
		if iv == nil {
			if len(tl) != 0 {
				t.Errorf("v%d: unused slot has timeline %s", s, tl)
			}
			continue
		}
		maxEnd = max(maxEnd, iv.End)
		if len(tl) == 0 {
			t.Errorf("v%d: empty timeline for %s", s, iv)
			continue
		}
		if tl[0].Start != iv.Start || tl[len(tl)-1].End != iv.End {
			t.Errorf("v%d: timeline %s does not cover %s", s, tl, iv)
		}
		for i, p := range tl {
			if p.Start > p.End {
				t.Errorf("v%d: inverted phase %s", s, p)
			}
			if i > 0 && tl[i-1].End+1 != p.Start {
				t.Errorf("v%d: phases %s and %s are not contiguous", s, tl[i-1], p)
			}
		}
	}

	for pos := 0; pos <= maxEnd; pos++ {
		holders := make(map[loc.MReg]int)
		for s, tl := range alloc.Timelines {
			l, ok := locAt(tl, pos)
			if !ok {
				continue
			}
			r, isReg := l.(loc.R)
			if !isReg {
				continue
			}
			if other, taken := holders[r.Reg]; taken {
				t.Errorf("pos %d: v%d and v%d both hold %s", pos, other, s, r.Reg)
			}
			holders[r.Reg] = s
		}
		if len(holders) > len(cfg.Registers) {
			t.Errorf("pos %d: %d registers held, only %d allocatable", pos, len(holders), len(cfg.Registers))
		}
		if _, ok := holders[cfg.Scratch]; ok {
			t.Errorf("pos %d: scratch register %s allocated", pos, cfg.Scratch)
		}
	}
}

// locAt returns the location holding the variable at pos
func locAt(tl Timeline, pos int) (loc.Loc, bool) {
	for _, p := range tl {
		if p.Start <= pos && pos <= p.End {
			return p.Loc, true
		}
	}
	return nil, false
}
