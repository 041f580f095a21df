package regalloc

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/raymyers/ralph-ilc/pkg/il"
)

// AllocateProgram allocates every function of prog independently, running
// up to jobs allocations at once. Results are indexed like prog.Functions.
func AllocateProgram(ctx context.Context, prog *il.Program, cfg Config, jobs int) ([]*Allocation, error) {
	if jobs < 1 {
		jobs = 1
	}
	allocs := make([]*Allocation, len(prog.Functions))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i := range prog.Functions {
		fn := &prog.Functions[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			alloc, err := Allocate(fn, cfg)
			if err != nil {
				return fmt.Errorf("function %s: %w", fn.Name, err)
			}
			allocs[i] = alloc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return allocs, nil
}
