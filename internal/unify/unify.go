// Package unify merges semantically equivalent entity spellings using embeddings.
package unify

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/matsen/kgeval/internal/embedding"
	"github.com/matsen/kgeval/internal/triple"
)

// Defaults for unification runs.
const (
	DefaultField     = triple.FieldTail
	DefaultThreshold = float32(0.9)
)

// ErrUnknownField is returned for a field name that is not a triple field.
var ErrUnknownField = errors.New("unknown triple field")

// ValidateField checks that field names a triple field.
func ValidateField(field string) error {
	for _, f := range triple.Fields {
		if f == field {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownField, field)
}

// Change records one value rewritten to its representative.
type Change struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Stats summarizes pairwise cosine similarity over distinct values.
type Stats struct {
	Pairs  int     `json:"pairs"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

// Result is the outcome of unifying one field.
type Result struct {
	Field        string            `json:"field"`
	Threshold    float32           `json:"threshold"`
	Mapping      map[string]string `json:"mapping"`
	UniqueBefore int               `json:"unique_before"`
	UniqueAfter  int               `json:"unique_after"`
	ReductionPct float64           `json:"reduction_pct"`
	Changes      []Change          `json:"changes"`
	Before       Stats             `json:"similarity_before"`
	After        Stats             `json:"similarity_after"`
}

// Values returns the distinct non-empty values of field in first-occurrence order.
func Values(triples []triple.Triple, field string) []string {
	seen := make(map[string]bool)
	var values []string
	for _, t := range triples {
		v, _ := t.Get(field)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	return values
}

// Unify groups values whose embeddings have cosine similarity >= threshold.
//
// Values are visited in order. Each value not yet mapped forms a group with
// every value similar to it, and the whole group maps to its earliest member.
// A later group may re-map values already assigned by an earlier one.
// values must be distinct and vectors[i] must embed values[i].
func Unify(values []string, vectors [][]float32, threshold float32) Result {
	res := Result{
		Threshold:    threshold,
		Mapping:      make(map[string]string, len(values)),
		UniqueBefore: len(values),
		Changes:      []Change{},
	}

	for i, v := range values {
		if _, ok := res.Mapping[v]; ok {
			continue
		}
		group := []int{i}
		for j := range values {
			if j != i && embedding.CosineSimilarity(vectors[i], vectors[j]) >= threshold {
				group = append(group, j)
			}
		}
		rep := group[0]
		for _, j := range group {
			if j < rep {
				rep = j
			}
		}
		for _, j := range group {
			res.Mapping[values[j]] = values[rep]
		}
	}

	reps := make(map[string]bool)
	for _, v := range values {
		to := res.Mapping[v]
		reps[to] = true
		if to != v {
			res.Changes = append(res.Changes, Change{From: v, To: to})
		}
	}
	res.UniqueAfter = len(reps)
	if res.UniqueBefore > 0 {
		res.ReductionPct = 100 * (1 - float64(res.UniqueAfter)/float64(res.UniqueBefore))
	}
	return res
}

// SimilarityStats computes mean and median cosine similarity over all
// unordered pairs of vectors. Fewer than two vectors yield zero stats.
func SimilarityStats(vectors [][]float32) Stats {
	n := len(vectors)
	if n < 2 {
		return Stats{}
	}

	sims := make([]float64, 0, n*(n-1)/2)
	var sum float64
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			s := float64(embedding.CosineSimilarity(vectors[i], vectors[j]))
			sims = append(sims, s)
			sum += s
		}
	}
	sort.Float64s(sims)

	m := len(sims)
	median := sims[m/2]
	if m%2 == 0 {
		median = (sims[m/2-1] + sims[m/2]) / 2
	}
	return Stats{Pairs: m, Mean: sum / float64(m), Median: median}
}

// Apply returns a copy of triples with field values replaced through mapping.
// Empty and unmapped values are left as they are.
func Apply(triples []triple.Triple, field string, mapping map[string]string) []triple.Triple {
	out := make([]triple.Triple, len(triples))
	for i, t := range triples {
		v, _ := t.Get(field)
		if to, ok := mapping[v]; ok && v != "" {
			t = t.With(field, to)
		}
		out[i] = t
	}
	return out
}

// Run embeds the distinct values of field, unifies them and rewrites the triples.
func Run(ctx context.Context, p embedding.Provider, triples []triple.Triple, field string, threshold float32) (Result, []triple.Triple, error) {
	if err := ValidateField(field); err != nil {
		return Result{}, nil, err
	}
	if threshold <= 0 || threshold > 1 {
		return Result{}, nil, fmt.Errorf("threshold %.3f outside (0, 1]", threshold)
	}

	values := Values(triples, field)
	vectors, err := embedding.EmbedAll(ctx, p, values)
	if err != nil {
		return Result{}, nil, fmt.Errorf("embedding %s values: %w", field, err)
	}

	res := Unify(values, vectors, threshold)
	res.Field = field
	res.Before = SimilarityStats(vectors)

	index := make(map[string]int, len(values))
	for i, v := range values {
		index[v] = i
	}
	var after [][]float32
	seen := make(map[string]bool)
	for _, v := range values {
		rep := res.Mapping[v]
		if seen[rep] {
			continue
		}
		seen[rep] = true
		after = append(after, vectors[index[rep]])
	}
	res.After = SimilarityStats(after)

	return res, Apply(triples, field, res.Mapping), nil
}
