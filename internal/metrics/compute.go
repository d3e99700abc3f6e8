package metrics

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/matsen/kgeval/internal/kgraph"
)

// Compute builds the metrics report for one graph.
// It never fails: degenerate inputs yield zero values, and a connectivity
// failure is recorded in ConnectivityError without affecting other metrics.
func Compute(g *kgraph.Graph, topK int) Report {
	if topK <= 0 {
		topK = DefaultTopK
	}

	n := g.NodeCount()
	m := g.EdgeCount()
	r := Report{
		Name:         g.Name(),
		Nodes:        n,
		Edges:        m,
		DroppedEdges: g.Dropped(),
		Density:      density(n, m),
	}
	if n > 0 {
		r.MeanDegree = 2 * float64(m) / float64(n)
	}
	r.AvgClustering = averageClustering(g.Undirected())

	ranks, converged := PageRank(g)
	r.PageRankConverged = converged
	r.TopPageRank = topRanked(labelled(g, ranks), topK)
	r.TopDegreeCentrality = topRanked(labelled(g, DegreeCentrality(g)), topK)

	c, err := guardConnectivity(func() connectivity { return computeConnectivity(g) })
	if err != nil {
		r.ConnectivityError = err.Error()
	} else {
		r.StrongComponents = c.strong
		r.LargestStrongComponent = c.largestStrong
		r.WeakComponents = c.weak
		r.LargestWeakComponent = c.largestWeak
	}

	return r
}

// ComputeAll computes reports for independent graphs concurrently.
// Reports are returned in the order of graphs.
func ComputeAll(ctx context.Context, graphs []*kgraph.Graph, topK int) ([]Report, error) {
	reports := make([]Report, len(graphs))
	eg, ectx := errgroup.WithContext(ctx)
	for i, g := range graphs {
		i, g := i, g
		eg.Go(func() error {
			if err := ectx.Err(); err != nil {
				return err
			}
			reports[i] = Compute(g, topK)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// density is m / (n(n-1)) for a directed graph; parallel edges count.
func density(n, m int) float64 {
	if n <= 1 {
		return 0
	}
	return float64(m) / float64(n*(n-1))
}

// DegreeCentrality returns degree / (n-1) per node index.
func DegreeCentrality(g *kgraph.Graph) []float64 {
	n := g.NodeCount()
	out := make([]float64, n)
	if n == 1 {
		out[0] = 1
		return out
	}
	for i := 0; i < n; i++ {
		out[i] = float64(g.Degree(i)) / float64(n-1)
	}
	return out
}

func labelled(g *kgraph.Graph, scores []float64) []Ranked {
	out := make([]Ranked, len(scores))
	for i, s := range scores {
		out[i] = Ranked{Node: g.Node(i).Label, Score: s}
	}
	return out
}

type connectivity struct {
	strong        int
	largestStrong int
	weak          int
	largestWeak   int
}

func computeConnectivity(g *kgraph.Graph) connectivity {
	scc := topo.TarjanSCC(g.Directed())
	wcc := topo.ConnectedComponents(graph.Undirect{G: g.Directed()})
	return connectivity{
		strong:        len(scc),
		largestStrong: largest(scc),
		weak:          len(wcc),
		largestWeak:   largest(wcc),
	}
}

// guardConnectivity runs fn, converting a panic into an error.
func guardConnectivity(fn func() connectivity) (c connectivity, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("computing connectivity: %v", rec)
		}
	}()
	return fn(), nil
}

func largest(components [][]graph.Node) int {
	size := 0
	for _, c := range components {
		if len(c) > size {
			size = len(c)
		}
	}
	return size
}
