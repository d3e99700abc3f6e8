package kgraph

import (
	"strings"

	"gonum.org/v1/gonum/graph/multi"

	"github.com/matsen/kgeval/internal/triple"
)

// Build constructs the directed multigraph for one named source.
//
// Every triple with a non-empty head and tail adds one edge head -> tail, so
// triples sharing endpoints but differing in relation become parallel edges.
// The relation may be empty. Triples with an empty endpoint are skipped and
// counted in Dropped.
func Build(name string, triples []triple.Triple) *Graph {
	g := &Graph{
		name:  name,
		g:     multi.NewDirectedGraph(),
		index: make(map[string]int),
	}

	for _, t := range triples {
		headID := triple.NormalizeValue(t.Head)
		tailID := triple.NormalizeValue(t.Tail)
		if headID == "" || tailID == "" {
			g.dropped++
			continue
		}

		u := g.addNode(headID, strings.TrimSpace(t.Head))
		v := g.addNode(tailID, strings.TrimSpace(t.Tail))

		g.g.SetLine(g.g.NewLine(multi.Node(u), multi.Node(v)))
		g.edges = append(g.edges, Edge{
			From:     headID,
			To:       tailID,
			Relation: strings.TrimSpace(t.Relation),
		})
		g.out[u][v]++
		g.outDeg[u]++
		g.inDeg[v]++
	}

	return g
}

// addNode returns the index for id, adding the node if absent.
func (g *Graph) addNode(id, label string) int {
	if i, ok := g.index[id]; ok {
		return i
	}
	i := len(g.nodes)
	g.index[id] = i
	g.nodes = append(g.nodes, Node{ID: id, Label: label})
	g.out = append(g.out, make(map[int]int))
	g.inDeg = append(g.inDeg, 0)
	g.outDeg = append(g.outDeg, 0)
	g.g.AddNode(multi.Node(i))
	return i
}
