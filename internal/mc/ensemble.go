package mc

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Factory builds an independent simulator for one replica. Replicas must
// not share spaces or Hamiltonians.
type Factory func(replica int) (*Simulator, error)

// Ensemble runs independent replicas concurrently, each with its own seed.
type Ensemble struct {
	factory   Factory
	replicas  int
	seedStart int64
	limit     int
}

func NewEnsemble(factory Factory, replicas int, seedStart int64) *Ensemble {
	return &Ensemble{factory: factory, replicas: replicas, seedStart: seedStart}
}

// SetLimit caps the number of replicas running at once; n <= 0 means no
// limit.
func (e *Ensemble) SetLimit(n int) { e.limit = n }

// Run returns one result per replica in replica order. The first failing
// replica cancels the others.
func (e *Ensemble) Run(ctx context.Context, cfg RunConfig) ([]*Result, error) {
	results := make([]*Result, e.replicas)
	g, ctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}
	for i := 0; i < e.replicas; i++ {
		g.Go(func() error {
			sim, err := e.factory(i)
			if err != nil {
				return fmt.Errorf("replica %d: %w", i, err)
			}
			c := cfg
			c.Seed = e.seedStart + int64(i)
			res, err := sim.Run(ctx, c)
			if err != nil {
				return fmt.Errorf("replica %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
