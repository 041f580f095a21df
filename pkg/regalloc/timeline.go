package regalloc

import (
	"fmt"
	"strings"

	"github.com/raymyers/ralph-ilc/pkg/loc"
)

// Phase is a window of command positions during which a variable lives in Loc
type Phase struct {
	Start int
	End   int
	Loc   loc.Loc
}

func (p Phase) String() string {
	return fmt.Sprintf("[%d,%d] %s", p.Start, p.End, p.Loc)
}

// Timeline is the ordered list of phases for one variable. Phases are
// contiguous and together cover the variable's interval exactly.
type Timeline []Phase

func (t Timeline) String() string {
	parts := make([]string, len(t))
	for i, p := range t {
		parts[i] = p.String()
	}
	return strings.Join(parts, " -> ")
}

// Entry returns the location at function entry, nil for an empty timeline
func (t Timeline) Entry() loc.Loc {
	if len(t) == 0 {
		return nil
	}
	return t[0].Loc
}

func (t *Timeline) open(start, end int, l loc.Loc) {
	*t = append(*t, Phase{Start: start, End: end, Loc: l})
}

func (t Timeline) last() *Phase {
	return &t[len(t)-1]
}

// Move is a transfer the emitter must perform when a variable crosses a phase boundary
type Move struct {
	From loc.Loc
	To   loc.Loc
}

// Cursor tracks the current phase of a timeline while commands are emitted in order
type Cursor struct {
	tl  Timeline
	cur int
}

// Cursor returns a cursor positioned on the first phase
func (t Timeline) Cursor() *Cursor {
	return &Cursor{tl: t}
}

// Loc returns the location of the current phase
func (c *Cursor) Loc() loc.Loc {
	if c.cur >= len(c.tl) {
		return nil
	}
	return c.tl[c.cur].Loc
}

// Advance moves past every phase that ended before pos and returns the
// moves needed to carry the value across each crossed boundary.
func (c *Cursor) Advance(pos int) ([]Move, error) {
	if len(c.tl) == 0 {
		return nil, fmt.Errorf("%w: empty timeline referenced at %d", ErrInternal, pos)
	}
	var moves []Move
	for c.tl[c.cur].End < pos {
		if c.cur+1 >= len(c.tl) {
			return nil, fmt.Errorf("%w: timeline %s has no phase at %d", ErrInternal, c.tl, pos)
		}
		moves = append(moves, Move{From: c.tl[c.cur].Loc, To: c.tl[c.cur+1].Loc})
		c.cur++
	}
	return moves, nil
}
