package regalloc

import (
	"fmt"
	"io"

	"github.com/raymyers/ralph-ilc/pkg/il"
)

// Printer writes human-readable lifespan and allocation dumps
type Printer struct {
	w io.Writer
}

// NewPrinter creates a new allocation printer
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// PrintLifespans writes one line per slot with its interval
func (p *Printer) PrintLifespans(fn *il.Function, alloc *Allocation) {
	fmt.Fprintf(p.w, "lifespans of $%s:\n", fn.Name)
	for s, iv := range alloc.Intervals {
		name := slotName(fn, s)
		if iv == nil {
			fmt.Fprintf(p.w, "  %%%s#%d: unused\n", name, s)
			continue
		}
		fmt.Fprintf(p.w, "  %%%s#%d: %s\n", name, s, iv)
	}
}

// PrintAllocation writes the frame size and each slot's timeline
func (p *Printer) PrintAllocation(fn *il.Function, alloc *Allocation) {
	fmt.Fprintf(p.w, "allocation of $%s (frame %d):\n", fn.Name, -alloc.FrameSize)
	for s, tl := range alloc.Timelines {
		if len(tl) == 0 {
			continue
		}
		fmt.Fprintf(p.w, "  %%%s#%d: %s\n", slotName(fn, s), s, tl)
	}
}

func slotName(fn *il.Function, s int) string {
	if s < len(fn.Vars) {
		return fn.Vars[s]
	}
	return fmt.Sprintf("v%d", s)
}
