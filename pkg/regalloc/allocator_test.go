package regalloc

import (
	"math/rand/v2"
	"reflect"
	"slices"
	"testing"

	"github.com/raymyers/ralph-ilc/pkg/il"
	"github.com/raymyers/ralph-ilc/pkg/loc"
)

func reg(r loc.MReg) loc.Loc       { return loc.R{Reg: r} }
func mem(ofs int64) loc.Loc        { return loc.S{Ofs: ofs} }
func ph(s, e int, l loc.Loc) Phase { return Phase{Start: s, End: e, Loc: l} }

func expectTimeline(t *testing.T, alloc *Allocation, slot int, want ...Phase) {
	t.Helper()
	got := alloc.Timelines[slot]
	if !slices.Equal(got, Timeline(want)) {
		t.Errorf("v%d: timeline %s, want %s", slot, got, Timeline(want))
	}
}

func TestAllocateSimpleTrace(t *testing.T) {
	// 1: v0 = copy 10
	// 2: v1 = add v0, v0
	// 3: ret v1
	fn := function(0, 2,
		def(il.Copy, 0, imm(10)),
		def(il.Add, 1, v(0), v(0)),
		ret(v(1)),
	)
	alloc := mustAllocate(t, fn, regsConfig(loc.RDI, loc.RSI))

	expectTimeline(t, alloc, 0, ph(1, 2, reg(loc.RDI)))
	expectTimeline(t, alloc, 1, ph(2, 3, reg(loc.RSI)))
	if alloc.FrameSize != 0 {
		t.Errorf("FrameSize = %d, want 0", alloc.FrameSize)
	}
}

func TestAllocateHandBackAtEndEvent(t *testing.T) {
	// A = v0 lives [1,3], B = v1 lives [3,5], one register
	fn := function(0, 2,
		def(il.Copy, 0, imm(1)),
		def(il.Copy, 0, imm(2)),
		def(il.Add, 1, v(0), imm(1)),
		def(il.Add, 1, v(1), imm(1)),
		ret(v(1)),
	)
	alloc := mustAllocate(t, fn, regsConfig(loc.RDI))

	expectTimeline(t, alloc, 0, ph(1, 3, reg(loc.RDI)))
	expectTimeline(t, alloc, 1, ph(3, 3, mem(-8)), ph(4, 5, reg(loc.RDI)))
	if alloc.FrameSize != -8 {
		t.Errorf("FrameSize = %d, want -8", alloc.FrameSize)
	}
}

func TestAllocateParametersInArgRegisters(t *testing.T) {
	// v3 = sub v1, v0; ret v3. v2 is an unused parameter.
	fn := function(3, 4,
		def(il.Sub, 3, v(1), v(0)),
		ret(v(3)),
	)
	alloc := mustAllocate(t, fn, DefaultConfig())

	expectTimeline(t, alloc, 0, ph(0, 1, reg(loc.RDI)))
	expectTimeline(t, alloc, 1, ph(0, 1, reg(loc.RSI)))
	expectTimeline(t, alloc, 2, ph(0, 0, reg(loc.RDX)))
	// rdx is released at position 1 and reused right away
	expectTimeline(t, alloc, 3, ph(1, 2, reg(loc.RDX)))
}

func TestAllocateStackParameters(t *testing.T) {
	// eight parameters v0..v7, six registers
	//   1: v8 = add v0, v6
	//   2: v8 = add v8, v7
	//   3: ret v8
	fn := function(8, 9,
		def(il.Add, 8, v(0), v(6)),
		def(il.Add, 8, v(8), v(7)),
		ret(v(8)),
	)
	cfg := DefaultConfig().WithRegisters(6)

	a := &allocator{
		fn:        fn,
		cfg:       cfg,
		intervals: BuildIntervals(fn),
		pool:      newRegisterPool(cfg.Registers),
		queue:     newSpillQueue(),
	}
	a.idx = newOrderIndex(a.intervals)
	a.timelines = make([]Timeline, len(a.intervals))
	a.resolveArgs()

	if got := a.queue.slots(); !slices.Equal(got, []il.Slot{6, 7}) {
		t.Errorf("queued after entry = %v, want [6 7]", got)
	}
	if a.timelines[6].Entry() != mem(16) || a.timelines[7].Entry() != mem(24) {
		t.Errorf("stack parameters at %v and %v, want [rbp+16] and [rbp+24]",
			a.timelines[6].Entry(), a.timelines[7].Entry())
	}
	if iv, _ := a.idx.peekStart(); iv.Slot != 8 {
		t.Errorf("start cursor should skip parameters, at v%d", iv.Slot)
	}

	alloc := mustAllocate(t, fn, cfg)
	expectTimeline(t, alloc, 6, ph(0, 0, mem(16)), ph(1, 1, reg(loc.RCX)))
	expectTimeline(t, alloc, 7, ph(0, 0, mem(24)), ph(1, 2, reg(loc.R8)))
	expectTimeline(t, alloc, 8, ph(1, 3, reg(loc.R9)))
	if alloc.FrameSize != 0 {
		t.Errorf("FrameSize = %d, want 0", alloc.FrameSize)
	}
}

func TestAllocateZeroLengthInterval(t *testing.T) {
	fn := function(0, 3,
		def(il.Copy, 0, imm(1)),
		def(il.Copy, 1, imm(2)),
		def(il.Add, 1, v(1), v(0)),
		def(il.Add, 0, v(0), v(1)),
		def(il.Copy, 2, imm(3)),
		ret(v(0)),
	)
	alloc := mustAllocate(t, fn, regsConfig(loc.RDI, loc.RSI))
	if tl := alloc.Timelines[2]; len(tl) != 1 || tl[0].Start != 5 || tl[0].End != 5 {
		t.Errorf("v2: timeline %s, want a single [5,5] phase", tl)
	}
}

func TestAllocateMaxEndTies(t *testing.T) {
	// v0 [1,3], v1 [2,3], v2 [3,3] all reach the last position
	fn := function(0, 3,
		def(il.Copy, 0, imm(1)),
		def(il.Copy, 1, imm(2)),
		def(il.Add, 2, v(0), v(1)),
	)
	alloc := mustAllocate(t, fn, regsConfig(loc.RDI))

	expectTimeline(t, alloc, 0, ph(1, 3, reg(loc.RDI)))
	expectTimeline(t, alloc, 1, ph(2, 3, mem(-8)))
	expectTimeline(t, alloc, 2, ph(3, 3, mem(-16)))
	if alloc.FrameSize != -16 {
		t.Errorf("FrameSize = %d, want -16", alloc.FrameSize)
	}
}

func TestAllocateMultipleHandBacks(t *testing.T) {
	//   1: v0 = copy 1
	//   2: v1 = copy 2
	//   3: v2 = copy 3
	//   4: v3 = copy 4
	//   5: v0 = add v0, v1
	//   6: v2 = add v2, v3
	//   7: ret v3
	fn := function(0, 4,
		def(il.Copy, 0, imm(1)),
		def(il.Copy, 1, imm(2)),
		def(il.Copy, 2, imm(3)),
		def(il.Copy, 3, imm(4)),
		def(il.Add, 0, v(0), v(1)),
		def(il.Add, 2, v(2), v(3)),
		ret(v(3)),
	)
	alloc := mustAllocate(t, fn, regsConfig(loc.RDI, loc.RSI))

	expectTimeline(t, alloc, 0, ph(1, 5, reg(loc.RDI)))
	expectTimeline(t, alloc, 1, ph(2, 5, reg(loc.RSI)))
	// the longest-lived spill is served first
	expectTimeline(t, alloc, 3, ph(4, 5, mem(-16)), ph(6, 7, reg(loc.RSI)))
	expectTimeline(t, alloc, 2, ph(3, 5, mem(-8)), ph(6, 6, reg(loc.RDI)))
}

func TestAllocateDiscardsDeadSpills(t *testing.T) {
	//   1: v0 = copy 1
	//   2: v1 = copy 2
	//   3: v2 = add v1, 1
	//   4: v0 = add v0, v2
	//   5: ret v2
	fn := function(0, 3,
		def(il.Copy, 0, imm(1)),
		def(il.Copy, 1, imm(2)),
		def(il.Add, 2, v(1), imm(1)),
		def(il.Add, 0, v(0), v(2)),
		ret(v(2)),
	)
	alloc := mustAllocate(t, fn, regsConfig(loc.RDI))

	expectTimeline(t, alloc, 1, ph(2, 3, mem(-8)))
	expectTimeline(t, alloc, 2, ph(3, 4, mem(-16)), ph(5, 5, reg(loc.RDI)))
}

func TestAllocateWithoutRegisters(t *testing.T) {
	fn := function(2, 3,
		def(il.Add, 2, v(0), v(1)),
		ret(v(2)),
	)
	alloc := mustAllocate(t, fn, regsConfig())

	expectTimeline(t, alloc, 0, ph(0, 1, mem(-8)))
	expectTimeline(t, alloc, 1, ph(0, 1, mem(-16)))
	expectTimeline(t, alloc, 2, ph(1, 2, mem(-24)))
	if alloc.FrameSize != -24 {
		t.Errorf("FrameSize = %d, want -24", alloc.FrameSize)
	}
}

func TestAllocateUnreferencedSlot(t *testing.T) {
	fn := function(0, 2,
		def(il.Copy, 0, imm(1)),
		ret(v(0)),
	)
	alloc := mustAllocate(t, fn, DefaultConfig())
	if alloc.Intervals[1] != nil || len(alloc.Timelines[1]) != 0 {
		t.Errorf("unreferenced slot allocated: %v %s", alloc.Intervals[1], alloc.Timelines[1])
	}
}

func TestAllocateEmptyFunction(t *testing.T) {
	alloc := mustAllocate(t, function(0, 0), DefaultConfig())
	if len(alloc.Timelines) != 0 || alloc.FrameSize != 0 {
		t.Errorf("unexpected allocation %+v", alloc)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"scratch allocatable", regsConfig(loc.RDI, loc.RAX)},
		{"duplicate register", regsConfig(loc.RDI, loc.RSI, loc.RDI)},
		{"zero slot size", func() Config { c := DefaultConfig(); c.SlotSize = 0; return c }()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); err == nil {
				t.Error("expected an error")
			}
			if _, err := Allocate(function(0, 0), tt.cfg); err == nil {
				t.Error("Allocate should reject the config")
			}
		})
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config rejected: %v", err)
	}
}

func TestWithRegisters(t *testing.T) {
	cfg := DefaultConfig().WithRegisters(3)
	if !slices.Equal(cfg.Registers, []loc.MReg{loc.RDI, loc.RSI, loc.RDX}) {
		t.Errorf("Registers = %v", cfg.Registers)
	}
	if len(DefaultConfig().WithRegisters(99).Registers) != len(DefaultRegisters) {
		t.Error("a larger limit should keep every register")
	}
}

func TestUsedRegisters(t *testing.T) {
	fn := function(0, 2,
		def(il.Copy, 0, imm(10)),
		def(il.Add, 1, v(0), v(0)),
		ret(v(1)),
	)
	alloc := mustAllocate(t, fn, regsConfig(loc.RBX, loc.R12))
	if got := alloc.UsedRegisters(); !slices.Equal(got, []loc.MReg{loc.RBX, loc.R12}) {
		t.Errorf("UsedRegisters = %v", got)
	}
}

// randomFunction builds a well-formed function: every source is a
// parameter or was assigned earlier.
func randomFunction(r *rand.Rand) *il.Function {
	argc := r.IntN(10)
	slots := argc
	defined := make([]int, 0, 64)
	for i := 0; i < argc; i++ {
		defined = append(defined, i)
	}
	operand := func() il.Operand {
		if len(defined) == 0 || r.IntN(4) == 0 {
			return imm(int64(r.IntN(100)))
		}
		return v(defined[r.IntN(len(defined))])
	}

	var body []il.Command
	n := 1 + r.IntN(40)
	for i := 0; i < n; i++ {
		dest := slots
		if len(defined) > 0 && r.IntN(3) == 0 {
			dest = defined[r.IntN(len(defined))]
		}
		op := []il.Op{il.Copy, il.Add, il.Sub, il.Mul}[r.IntN(4)]
		args := []il.Operand{operand()}
		if op != il.Copy {
			args = append(args, operand())
		}
		body = append(body, def(op, dest, args...))
		if dest == slots {
			defined = append(defined, slots)
			slots++
		}
	}
	body = append(body, ret(operand()))
	return function(argc, slots, body...)
}

func TestAllocateRandomInvariants(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 200; i++ {
		fn := randomFunction(r)
		for _, n := range []int{0, 1, 2, 3, 6, 13} {
			mustAllocate(t, fn, DefaultConfig().WithRegisters(n))
		}
	}
}

func TestAllocateDeterministic(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for i := 0; i < 50; i++ {
		fn := randomFunction(r)
		cfg := DefaultConfig().WithRegisters(3)
		a1 := mustAllocate(t, fn, cfg)
		a2 := mustAllocate(t, fn, cfg)
		if !reflect.DeepEqual(a1, a2) {
			t.Fatalf("allocation differs between runs:\n%+v\n%+v", a1, a2)
		}
	}
}
