package metrics

import "sort"

// averageClustering returns the mean local clustering coefficient over all
// nodes of a simple undirected graph given as sorted adjacency lists.
// Nodes with fewer than two neighbours contribute 0.
func averageClustering(adj [][]int) float64 {
	if len(adj) == 0 {
		return 0
	}

	var total float64
	for v, nbrs := range adj {
		total += localClustering(adj, v, nbrs)
	}
	return total / float64(len(adj))
}

func localClustering(adj [][]int, v int, nbrs []int) float64 {
	k := len(nbrs)
	if k < 2 {
		return 0
	}

	links := 0
	for i, a := range nbrs {
		for _, b := range nbrs[i+1:] {
			if adjacent(adj, a, b) {
				links++
			}
		}
	}
	return 2 * float64(links) / float64(k*(k-1))
}

func adjacent(adj [][]int, a, b int) bool {
	list := adj[a]
	i := sort.SearchInts(list, b)
	return i < len(list) && list[i] == b
}
