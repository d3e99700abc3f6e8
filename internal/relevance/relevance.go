// Package relevance scores how closely extracted triples track their source text.
package relevance

import (
	"context"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/matsen/kgeval/internal/embedding"
	"github.com/matsen/kgeval/internal/triple"
)

// DefaultWorkers bounds concurrent document scoring in ScoreAll.
const DefaultWorkers = 4

// DocumentScore is the contextual relevance of one document's triples.
type DocumentScore struct {
	Document string    `json:"document"`
	Triples  int       `json:"triples"`
	Scores   []float32 `json:"scores"`
	Mean     float64   `json:"mean"`

	// Error is set when the document could not be embedded; such documents
	// carry no scores and are left out of Summarize.
	Error string `json:"error,omitempty"`
}

// Failed reports whether scoring the document failed.
func (ds DocumentScore) Failed() bool {
	return ds.Error != ""
}

// Scorer embeds documents and triples with a provider.
type Scorer struct {
	provider embedding.Provider
	workers  int
}

// NewScorer creates a scorer. workers <= 0 selects DefaultWorkers.
func NewScorer(p embedding.Provider, workers int) *Scorer {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Scorer{provider: p, workers: workers}
}

// Score computes the cosine similarity between the document text and each
// triple's "head relation tail" text. A document without triples scores 0
// and is not embedded.
func (s *Scorer) Score(ctx context.Context, doc triple.Document) (DocumentScore, error) {
	ds := DocumentScore{Document: doc.ID, Triples: len(doc.Triples), Scores: []float32{}}
	if len(doc.Triples) == 0 {
		return ds, nil
	}

	texts := make([]string, 0, len(doc.Triples)+1)
	texts = append(texts, doc.Text)
	for _, t := range doc.Triples {
		texts = append(texts, t.Text())
	}

	vecs, err := embedding.EmbedAll(ctx, s.provider, texts)
	if err != nil {
		return DocumentScore{}, fmt.Errorf("document %s: %w", doc.ID, err)
	}

	var sum float64
	for _, v := range vecs[1:] {
		sim := embedding.CosineSimilarity(vecs[0], v)
		ds.Scores = append(ds.Scores, sim)
		sum += float64(sim)
	}
	ds.Mean = sum / float64(len(ds.Scores))
	return ds, nil
}

// ScoreAll scores documents concurrently and returns results in input order.
// A document that fails to embed is recorded with its Error set and the batch
// continues; only cancellation of ctx aborts the run.
func (s *Scorer) ScoreAll(ctx context.Context, docs []triple.Document) ([]DocumentScore, error) {
	out := make([]DocumentScore, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, doc := range docs {
		i, doc := i, doc
		g.Go(func() error {
			ds, err := s.Score(gctx, doc)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return fmt.Errorf("scoring cancelled: %w", ctxErr)
				}
				ds = DocumentScore{
					Document: doc.ID,
					Triples:  len(doc.Triples),
					Scores:   []float32{},
					Error:    err.Error(),
				}
			}
			out[i] = ds
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Failures returns one diagnostic per document whose scoring failed.
func Failures(scores []DocumentScore) triple.Diagnostics {
	var diags triple.Diagnostics
	for i, ds := range scores {
		if !ds.Failed() {
			continue
		}
		diags = diags.With(triple.Diagnostic{
			Source:  "document " + ds.Document,
			Record:  i,
			Index:   -1,
			Kind:    triple.KindEmbeddingFailed,
			Message: ds.Error,
		})
	}
	return diags
}

// Summary describes the distribution of per-document means.
// Count covers scored documents only; Failed counts the rest.
type Summary struct {
	Count  int     `json:"count"`
	Failed int     `json:"failed"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

// Summarize computes descriptive statistics over document means.
// Std is the sample standard deviation (0 for fewer than two documents) and
// quartiles use linear interpolation.
func Summarize(scores []DocumentScore) Summary {
	var failed int
	vals := make([]float64, 0, len(scores))
	var sum float64
	for _, s := range scores {
		if s.Failed() {
			failed++
			continue
		}
		vals = append(vals, s.Mean)
		sum += s.Mean
	}

	n := len(vals)
	if n == 0 {
		return Summary{Failed: failed}
	}
	sort.Float64s(vals)

	mean := sum / float64(n)
	var std float64
	if n > 1 {
		var ss float64
		for _, v := range vals {
			ss += (v - mean) * (v - mean)
		}
		std = math.Sqrt(ss / float64(n-1))
	}

	return Summary{
		Count:  n,
		Failed: failed,
		Mean:   mean,
		Std:    std,
		Min:    vals[0],
		Q1:     quantile(vals, 0.25),
		Median: quantile(vals, 0.5),
		Q3:     quantile(vals, 0.75),
		Max:    vals[n-1],
	}
}

// quantile expects sorted input.
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
