package cluster

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/OpenTraceLab/OpenTrace3D/pkg/model"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/spatial"
)

type neighbor struct {
	gate model.GateID
	dist float64
}

// NeighborDistances returns, indexed by GateID, the Euclidean distance from
// each gate's lower-left corner to the nearest other gate (0 when the design
// has a single gate).
//
// Gates are split into equal disjoint shards, one worker per shard. Workers
// only read the model and the shared index and send results to one channel,
// which is drained while they run.
func NeighborDistances(ctx context.Context, m *model.Model, workers int) ([]float64, error) {
	n := len(m.Gates)
	out := make([]float64, n)
	if n == 0 {
		return out, nil
	}
	if workers < 1 {
		workers = 1
	}
	workers = min(workers, n)

	entries := make([]spatial.Entry, n)
	for i, g := range m.Gates {
		entries[i] = spatial.Entry{Point: g.Pos, ID: int(g.ID)}
	}
	tree := spatial.Build(entries)

	shard := (n + workers - 1) / workers
	results := make(chan neighbor, workers)
	g, gctx := errgroup.WithContext(ctx)

	for lo := 0; lo < n; lo += shard {
		hi := min(lo+shard, n)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				self := int(m.Gates[i].ID)
				_, d, ok := tree.NearestFunc(m.Gates[i].Pos, func(e spatial.Entry) bool { return e.ID != self })
				if !ok {
					d = 0
				}
				select {
				case results <- neighbor{gate: model.GateID(self), dist: d}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	go func() {
		_ = g.Wait()
		close(results)
	}()

	for r := range results {
		out[r.gate] = r.dist
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
