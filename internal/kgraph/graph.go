// Package kgraph builds directed multigraphs from extracted triples.
package kgraph

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/multi"
)

// Node is a distinct entity in the graph.
// ID is the normalized value; Label is the first spelling seen.
type Node struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Edge is one directed head -> tail line carrying a relation label.
type Edge struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Relation string `json:"relation"`
}

// Neighbor is an adjacent node index with the number of parallel edges to it.
type Neighbor struct {
	Index int
	Count int
}

// Graph is a read-only directed multigraph built from one source's triples.
// Node indices are dense, in insertion order, and equal the gonum node IDs.
type Graph struct {
	name    string
	g       *multi.DirectedGraph
	index   map[string]int
	nodes   []Node
	edges   []Edge
	out     []map[int]int
	inDeg   []int
	outDeg  []int
	dropped int
}

// Name returns the source name the graph was built from.
func (g *Graph) Name() string { return g.name }

// NodeCount returns the number of distinct nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges, counting parallel edges separately.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Dropped returns how many triples were skipped for an empty head or tail.
func (g *Graph) Dropped() int { return g.dropped }

// Nodes returns the nodes in insertion order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Node returns the node at index i.
func (g *Graph) Node(i int) Node { return g.nodes[i] }

// Edges returns the edges in insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Lookup returns the index of the node with the given normalized ID.
func (g *Graph) Lookup(id string) (int, bool) {
	i, ok := g.index[id]
	return i, ok
}

// OutDegree returns the number of edges leaving node i.
func (g *Graph) OutDegree(i int) int { return g.outDeg[i] }

// InDegree returns the number of edges entering node i.
func (g *Graph) InDegree(i int) int { return g.inDeg[i] }

// Degree returns in-degree plus out-degree; a self-loop counts twice.
func (g *Graph) Degree(i int) int { return g.inDeg[i] + g.outDeg[i] }

// Successors returns the targets of node i with edge multiplicities, ordered by index.
func (g *Graph) Successors(i int) []Neighbor {
	out := make([]Neighbor, 0, len(g.out[i]))
	for j, c := range g.out[i] {
		out = append(out, Neighbor{Index: j, Count: c})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Index < out[b].Index })
	return out
}

// Undirected returns the simple undirected projection as sorted adjacency lists.
// Parallel edges and direction are collapsed and self-loops are dropped.
func (g *Graph) Undirected() [][]int {
	sets := make([]map[int]bool, len(g.nodes))
	for i := range sets {
		sets[i] = make(map[int]bool)
	}
	for u, targets := range g.out {
		for v := range targets {
			if u == v {
				continue
			}
			sets[u][v] = true
			sets[v][u] = true
		}
	}

	adj := make([][]int, len(g.nodes))
	for i, set := range sets {
		adj[i] = make([]int, 0, len(set))
		for j := range set {
			adj[i] = append(adj[i], j)
		}
		sort.Ints(adj[i])
	}
	return adj
}

// Directed exposes the underlying gonum multigraph for graph algorithms.
func (g *Graph) Directed() graph.Directed { return g.g }

// NodeOf maps a gonum node back to the graph's node.
func (g *Graph) NodeOf(n graph.Node) Node { return g.nodes[n.ID()] }
