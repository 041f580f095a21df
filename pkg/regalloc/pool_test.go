package regalloc

import (
	"errors"
	"testing"

	"github.com/raymyers/ralph-ilc/pkg/loc"
)

func TestRegisterPoolOrder(t *testing.T) {
	p := newRegisterPool([]loc.MReg{loc.RDI, loc.RSI, loc.RDX})
	want := []loc.MReg{loc.RDI, loc.RSI, loc.RDX}
	for _, w := range want {
		r, ok := p.tryAcquire()
		if !ok || r != w {
			t.Fatalf("tryAcquire = %s, %v; want %s", r, ok, w)
		}
	}
	if _, ok := p.tryAcquire(); ok {
		t.Error("empty pool should not hand out registers")
	}
}

func TestRegisterPoolLIFO(t *testing.T) {
	p := newRegisterPool([]loc.MReg{loc.RDI, loc.RSI})
	a, _ := p.tryAcquire()
	b, _ := p.tryAcquire()
	if err := p.release(a); err != nil {
		t.Fatal(err)
	}
	if err := p.release(b); err != nil {
		t.Fatal(err)
	}
	if r, _ := p.tryAcquire(); r != b {
		t.Errorf("expected last released %s on top, got %s", b, r)
	}
}

func TestRegisterPoolOverflow(t *testing.T) {
	p := newRegisterPool([]loc.MReg{loc.RDI})
	err := p.release(loc.RSI)
	if !errors.Is(err, ErrInternal) {
		t.Errorf("expected ErrInternal, got %v", err)
	}
	if p.available() != 1 {
		t.Errorf("overflowing release must not grow the pool, have %d", p.available())
	}
}
