// Package overlap compares the triple sets produced by different extraction sources.
package overlap

import (
	"errors"
	"fmt"
	"sort"

	"github.com/matsen/kgeval/internal/triple"
)

// Validation errors.
var (
	ErrDuplicateSource = errors.New("duplicate source name")
	ErrEmptySourceName = errors.New("source name is required")
)

// Source is one extraction run's output, e.g. one model across all documents.
type Source struct {
	Name    string
	Triples []triple.Triple
}

// SourcesFromMap converts a name -> triples mapping into sources ordered by name.
func SourcesFromMap(m map[string][]triple.Triple) []Source {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	sources := make([]Source, len(names))
	for i, name := range names {
		sources[i] = Source{Name: name, Triples: m[name]}
	}
	return sources
}

// Set is a set of normalization keys.
type Set map[triple.Key]struct{}

// NewSet collects the normalization keys of the triples.
func NewSet(triples []triple.Triple) Set {
	s := make(Set, len(triples))
	for _, t := range triples {
		s[t.Key()] = struct{}{}
	}
	return s
}

// counts returns |A∩B|, |A∪B| and |A△B|.
func counts(a, b Set) (inter, union, symDiff int) {
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union = len(a) + len(b) - inter
	symDiff = union - inter
	return inter, union, symDiff
}

// Jaccard returns |A∩B| / |A∪B| * 100, or 0 when the union is empty.
func Jaccard(a, b Set) float64 {
	inter, union, _ := counts(a, b)
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union) * 100
}

// Difference returns |A△B| / |A∪B| * 100, or 0 when the union is empty.
func Difference(a, b Set) float64 {
	_, union, symDiff := counts(a, b)
	if union == 0 {
		return 0
	}
	return float64(symDiff) / float64(union) * 100
}

// Matrix is a square matrix indexed by source name.
type Matrix struct {
	Names  []string    `json:"names"`
	Values [][]float64 `json:"values"`
}

// At returns the entry for the (a, b) source pair.
func (m Matrix) At(a, b string) (float64, bool) {
	i, j := indexOf(m.Names, a), indexOf(m.Names, b)
	if i < 0 || j < 0 {
		return 0, false
	}
	return m.Values[i][j], true
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

// Pair is the comparison of one ordered source pair.
type Pair struct {
	SourceA       string  `json:"source_a"`
	SourceB       string  `json:"source_b"`
	OverlapPct    float64 `json:"overlap_pct"`
	DifferencePct float64 `json:"difference_pct"`
}

// Result holds the matrices and pair records of one comparison run.
type Result struct {
	Sources     []string           `json:"sources"`
	Overlap     Matrix             `json:"overlap"`
	Difference  Matrix             `json:"difference"`
	Pairs       []Pair             `json:"pairs"`
	Diagnostics triple.Diagnostics `json:"diagnostics,omitempty"`
}

// Compare computes pairwise overlap and difference between sources.
//
// The matrix diagonal is 0 rather than 100 so self-comparison does not
// dominate a heatmap. Pairs include both (a, b) and (b, a). Records missing a
// required field are reported in Diagnostics but still take part in the sets.
func Compare(sources []Source) (*Result, error) {
	names := make([]string, len(sources))
	seen := make(map[string]bool, len(sources))
	for i, s := range sources {
		if s.Name == "" {
			return nil, fmt.Errorf("source %d: %w", i, ErrEmptySourceName)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateSource, s.Name)
		}
		seen[s.Name] = true
		names[i] = s.Name
	}

	var diags triple.Diagnostics
	sets := make([]Set, len(sources))
	for i, s := range sources {
		diags = diags.With(triple.MissingFieldDiagnostics(s.Name, -1, s.Triples)...)
		sets[i] = NewSet(s.Triples)
	}

	n := len(sources)
	res := &Result{
		Sources:     names,
		Overlap:     Matrix{Names: names, Values: square(n)},
		Difference:  Matrix{Names: names, Values: square(n)},
		Pairs:       make([]Pair, 0, n*(n-1)),
		Diagnostics: diags,
	}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			ov := Jaccard(sets[i], sets[j])
			diff := Difference(sets[i], sets[j])
			res.Overlap.Values[i][j] = ov
			res.Difference.Values[i][j] = diff
			res.Pairs = append(res.Pairs, Pair{
				SourceA:       names[i],
				SourceB:       names[j],
				OverlapPct:    ov,
				DifferencePct: diff,
			})
		}
	}

	return res, nil
}

func square(n int) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	return m
}
