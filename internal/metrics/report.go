// Package metrics computes structural statistics over triple multigraphs.
package metrics

import (
	"encoding/json"
	"fmt"
	"sort"
)

// DefaultTopK is the number of ranked entries kept when no limit is given.
const DefaultTopK = 5

// Ranked is a (node, score) entry. It serializes as a two-element array.
type Ranked struct {
	Node  string
	Score float64
}

// MarshalJSON encodes the entry as [node, score].
func (r Ranked) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{r.Node, r.Score})
}

// UnmarshalJSON decodes a [node, score] pair.
func (r *Ranked) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("ranked entry has %d elements, want 2", len(pair))
	}
	if err := json.Unmarshal(pair[0], &r.Node); err != nil {
		return fmt.Errorf("decoding node: %w", err)
	}
	if err := json.Unmarshal(pair[1], &r.Score); err != nil {
		return fmt.Errorf("decoding score: %w", err)
	}
	return nil
}

// Report holds the metrics for one graph. It is not modified after Compute returns.
type Report struct {
	Name                   string   `json:"name"`
	Nodes                  int      `json:"nodes"`
	Edges                  int      `json:"edges"`
	DroppedEdges           int      `json:"dropped_edges"`
	Density                float64  `json:"density"`
	MeanDegree             float64  `json:"mean_degree"`
	AvgClustering          float64  `json:"avg_clustering"`
	TopPageRank            []Ranked `json:"top_pagerank"`
	PageRankConverged      bool     `json:"pagerank_converged"`
	TopDegreeCentrality    []Ranked `json:"top_degree_centrality"`
	StrongComponents       int      `json:"strong_components"`
	LargestStrongComponent int      `json:"largest_strong_component"`
	WeakComponents         int      `json:"weak_components"`
	LargestWeakComponent   int      `json:"largest_weak_component"`
	ConnectivityError      string   `json:"connectivity_error,omitempty"`
}

// topRanked sorts entries by descending score (ties by node) and keeps k.
func topRanked(entries []Ranked, k int) []Ranked {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Node < entries[j].Node
	})
	if len(entries) > k {
		entries = entries[:k]
	}
	return entries
}
