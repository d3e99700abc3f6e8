package metrics

import (
	"math"

	"github.com/matsen/kgeval/internal/kgraph"
)

// PageRank parameters.
const (
	Damping           = 0.85
	PageRankMaxIter   = 100
	PageRankTolerance = 1e-6
)

// PageRank computes PageRank by power iteration over the multigraph.
//
// Parallel edges add weight, so a node reached by two relations from the same
// head receives twice the share. Mass from dangling nodes is spread uniformly.
// Convergence is reached when the L1 change drops below n*PageRankTolerance.
// If it is not reached within PageRankMaxIter iterations the last iterate is
// returned with converged=false.
func PageRank(g *kgraph.Graph) (ranks []float64, converged bool) {
	n := g.NodeCount()
	if n == 0 {
		return nil, true
	}

	uniform := 1 / float64(n)
	x := make([]float64, n)
	for i := range x {
		x[i] = uniform
	}

	succ := make([][]kgraph.Neighbor, n)
	for i := range succ {
		succ[i] = g.Successors(i)
	}

	next := make([]float64, n)
	for iter := 0; iter < PageRankMaxIter; iter++ {
		var dangling float64
		for i := range next {
			next[i] = 0
			if g.OutDegree(i) == 0 {
				dangling += x[i]
			}
		}

		for u := 0; u < n; u++ {
			out := g.OutDegree(u)
			if out == 0 {
				continue
			}
			share := Damping * x[u] / float64(out)
			for _, nb := range succ[u] {
				next[nb.Index] += share * float64(nb.Count)
			}
		}

		base := (Damping*dangling + (1 - Damping)) * uniform
		var delta float64
		for i := range next {
			next[i] += base
			delta += math.Abs(next[i] - x[i])
		}

		x, next = next, x
		if delta < float64(n)*PageRankTolerance {
			return x, true
		}
	}
	return x, false
}
