// Package regalloc implements linear-scan register allocation with memory
// spill and hand-back. Each variable receives a timeline of phases, each
// phase naming where the value lives for a window of command positions.
package regalloc

import (
	"fmt"

	"github.com/raymyers/ralph-ilc/pkg/il"
)

// Interval is the inclusive range of command positions during which a
// variable must be kept somewhere. Positions are 1-based; position 0 is
// function entry, where parameters are already live.
type Interval struct {
	Slot  il.Slot
	Start int
	End   int
}

func (iv *Interval) String() string {
	return fmt.Sprintf("[%d,%d]", iv.Start, iv.End)
}

// BuildIntervals computes one interval per variable slot. Slots that are
// never referenced get nil.
func BuildIntervals(fn *il.Function) []*Interval {
	intervals := make([]*Interval, fn.SlotCount())
	for i := 0; i < fn.ArgCount && i < len(intervals); i++ {
		intervals[i] = &Interval{Slot: il.Slot(i)}
	}

	for i := range fn.Body {
		pos := i + 1
		for _, op := range fn.Body[i].Operands() {
			if !op.IsVar() {
				continue
			}
			iv := intervals[op.Slot]
			if iv == nil {
				intervals[op.Slot] = &Interval{Slot: op.Slot, Start: pos, End: pos}
				continue
			}
			iv.End = pos
		}
	}
	return intervals
}
