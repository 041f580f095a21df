package regalloc

import (
	"fmt"

	"github.com/raymyers/ralph-ilc/pkg/loc"
)

// registerPool is a fixed-capacity LIFO stack of free registers
type registerPool struct {
	free []loc.MReg
	cap  int
}

// newRegisterPool pushes regs in reverse so that regs[0] is handed out first
func newRegisterPool(regs []loc.MReg) *registerPool {
	p := &registerPool{free: make([]loc.MReg, 0, len(regs)), cap: len(regs)}
	for i := len(regs) - 1; i >= 0; i-- {
		p.free = append(p.free, regs[i])
	}
	return p
}

func (p *registerPool) tryAcquire() (loc.MReg, bool) {
	n := len(p.free)
	if n == 0 {
		return 0, false
	}
	r := p.free[n-1]
	p.free = p.free[:n-1]
	return r, true
}

func (p *registerPool) release(r loc.MReg) error {
	if len(p.free) >= p.cap {
		return fmt.Errorf("%w: register pool overflow releasing %s", ErrInternal, r)
	}
	p.free = append(p.free, r)
	return nil
}

func (p *registerPool) available() int {
	return len(p.free)
}
