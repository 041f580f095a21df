package loc

import "fmt"

// Loc is where a value lives: a machine register or a frame slot
type Loc interface {
	implLoc()
	String() string
}

// R is a register location
type R struct {
	Reg MReg
}

// S is a stack slot addressed relative to the frame pointer (rbp).
// Negative offsets are local spill slots, positive offsets are incoming arguments.
type S struct {
	Ofs int64
}

func (R) implLoc() {}
func (S) implLoc() {}

func (r R) String() string { return r.Reg.String() }

func (s S) String() string { return fmt.Sprintf("[rbp%+d]", s.Ofs) }

// IsReg reports whether l is a register location
func IsReg(l Loc) bool {
	_, ok := l.(R)
	return ok
}
