package regalloc

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"github.com/raymyers/ralph-ilc/pkg/il"
	"github.com/raymyers/ralph-ilc/pkg/loc"
	"github.com/raymyers/ralph-ilc/pkg/logging"
)

// ErrInternal marks allocator consistency failures. These are compiler
// bugs, never caused by bad input.
var ErrInternal = errors.New("internal allocator error")

// DefaultRegisters is the allocation order. The argument registers come
// first so the leading parameters stay where the caller put them.
var DefaultRegisters = []loc.MReg{
	loc.RDI, loc.RSI, loc.RDX, loc.RCX, loc.R8, loc.R9,
	loc.RBX, loc.R10, loc.R11, loc.R12, loc.R13, loc.R14, loc.R15,
}

// Config describes the target register file and frame layout
type Config struct {
	Registers       []loc.MReg // allocatable, in preference order
	Scratch         loc.MReg   // reserved for the emitter, never allocated
	ArgRegisters    int        // parameters passed in registers
	SlotSize        int64      // bytes per stack slot
	IncomingArgBase int64      // rbp offset of the first stack parameter
}

// DefaultConfig returns the SysV x86-64 configuration
func DefaultConfig() Config {
	return Config{
		Registers:       append([]loc.MReg(nil), DefaultRegisters...),
		Scratch:         loc.RAX,
		ArgRegisters:    len(loc.ArgRegs),
		SlotSize:        8,
		IncomingArgBase: 16,
	}
}

// WithRegisters returns a copy of c limited to the first n allocatable registers
func (c Config) WithRegisters(n int) Config {
	if n >= 0 && n < len(c.Registers) {
		c.Registers = append([]loc.MReg(nil), c.Registers[:n]...)
	}
	return c
}

// Validate rejects configurations the allocator cannot honor
func (c Config) Validate() error {
	if lo.Contains(c.Registers, c.Scratch) {
		return fmt.Errorf("scratch register %s is also allocatable", c.Scratch)
	}
	if dup := lo.FindDuplicates(c.Registers); len(dup) > 0 {
		return fmt.Errorf("register %s listed twice", dup[0])
	}
	if c.SlotSize <= 0 {
		return fmt.Errorf("slot size must be positive, got %d", c.SlotSize)
	}
	return nil
}

// Allocation is the result of allocating one function
type Allocation struct {
	Intervals []*Interval // indexed by slot, nil when unreferenced
	Timelines []Timeline  // indexed by slot, empty when unreferenced
	FrameSize int64       // bytes of locals below rbp, as a non-positive offset
}

// UsedRegisters lists every register appearing in any timeline, in first-use order
func (a *Allocation) UsedRegisters() []loc.MReg {
	var regs []loc.MReg
	for _, tl := range a.Timelines {
		for _, p := range tl {
			if r, ok := p.Loc.(loc.R); ok {
				regs = append(regs, r.Reg)
			}
		}
	}
	return lo.Uniq(regs)
}

// allocator holds the state of one allocation run
type allocator struct {
	fn        *il.Function
	cfg       Config
	intervals []*Interval
	idx       *orderIndex
	pool      *registerPool
	queue     *spillQueue
	timelines []Timeline
	offset    int64
}

// Allocate runs the linear scan over fn and returns a timeline per slot
func Allocate(fn *il.Function, cfg Config) (*Allocation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("allocating %s: %w", fn.Name, err)
	}
	intervals := BuildIntervals(fn)
	a := &allocator{
		fn:        fn,
		cfg:       cfg,
		intervals: intervals,
		idx:       newOrderIndex(intervals),
		pool:      newRegisterPool(cfg.Registers),
		queue:     newSpillQueue(),
		timelines: make([]Timeline, len(intervals)),
	}
	logging.Debug("allocating", "function", fn.Name, "slots", len(intervals), "registers", len(cfg.Registers))
	if logging.Enabled(slog.LevelDebug) {
		for _, iv := range intervals {
			if iv != nil {
				logging.Debug("lifespan", "function", fn.Name, "var", a.name(iv.Slot), "interval", iv)
			}
		}
	}

	a.resolveArgs()
	for {
		pos, isStart, isEnd, ok := a.idx.next()
		if !ok {
			break
		}
		a.discardDead(pos)
		if isEnd {
			if err := a.expire(pos); err != nil {
				return nil, err
			}
		}
		if isStart {
			a.start(pos)
		}
		a.handBack(pos)
	}

	logging.Debug("allocation done", "function", fn.Name, "frame", a.offset)
	return &Allocation{Intervals: intervals, Timelines: a.timelines, FrameSize: a.offset}, nil
}

// resolveArgs places the parameters before the sweep. Register parameters
// try the pool; the rest stay in their incoming stack slots. Every
// parameter left in memory is queued for a later hand-back.
func (a *allocator) resolveArgs() {
	for i := 0; i < a.fn.ArgCount && i < len(a.intervals); i++ {
		iv := a.intervals[i]
		if i < a.cfg.ArgRegisters {
			a.assign(iv, 0)
			continue
		}
		ofs := a.cfg.IncomingArgBase + a.cfg.SlotSize*int64(i-a.cfg.ArgRegisters)
		a.timelines[iv.Slot].open(0, iv.End, loc.S{Ofs: ofs})
		a.queue.insert(iv.Slot, iv.End)
		logging.Debug("stack parameter", "function", a.fn.Name, "var", a.name(iv.Slot), "at", ofs)
	}
	for {
		iv, ok := a.idx.peekStart()
		if !ok || iv.Start != 0 {
			break
		}
		a.idx.startCur++
	}
}

// discardDead drops spilled variables whose interval ended before pos
func (a *allocator) discardDead(pos int) {
	for {
		_, end, ok := a.queue.front()
		if !ok || end >= pos {
			return
		}
		a.queue.popFront()
	}
}

// expire returns the registers of every interval that ended before pos
func (a *allocator) expire(pos int) error {
	for {
		iv, ok := a.idx.peekEnd()
		if !ok || iv.End >= pos {
			return nil
		}
		a.idx.endCur++
		if r, ok := a.timelines[iv.Slot].last().Loc.(loc.R); ok {
			if err := a.pool.release(r.Reg); err != nil {
				return err
			}
			logging.Debug("released", "function", a.fn.Name, "var", a.name(iv.Slot), "reg", r.Reg, "pos", pos)
		}
	}
}

// start assigns a location to every interval beginning at pos
func (a *allocator) start(pos int) {
	for {
		iv, ok := a.idx.peekStart()
		if !ok || iv.Start != pos {
			return
		}
		a.idx.startCur++
		a.assign(iv, pos)
	}
}

// assign gives iv a register when one is free, otherwise a fresh spill slot
func (a *allocator) assign(iv *Interval, pos int) {
	if r, ok := a.pool.tryAcquire(); ok {
		a.timelines[iv.Slot].open(pos, iv.End, loc.R{Reg: r})
		return
	}
	a.offset -= a.cfg.SlotSize
	a.timelines[iv.Slot].open(pos, iv.End, loc.S{Ofs: a.offset})
	a.queue.insert(iv.Slot, iv.End)
	logging.Debug("spilled", "function", a.fn.Name, "var", a.name(iv.Slot), "interval", iv, "at", a.offset)
}

// handBack moves the longest-lived spilled variables into free registers
func (a *allocator) handBack(pos int) {
	for a.queue.len() > 0 && a.pool.available() > 0 {
		slot, _ := a.queue.popBack()
		r, _ := a.pool.tryAcquire()
		tl := &a.timelines[slot]
		tl.last().End = pos - 1
		tl.open(pos, a.intervals[slot].End, loc.R{Reg: r})
		logging.Debug("handed back", "function", a.fn.Name, "var", a.name(slot), "reg", r, "pos", pos)
	}
}

func (a *allocator) name(s il.Slot) string {
	if int(s) < len(a.fn.Vars) {
		return a.fn.Vars[s]
	}
	return fmt.Sprintf("v%d", s)
}
