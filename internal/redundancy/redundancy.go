// Package redundancy measures how often a document repeats the same triple.
package redundancy

import "github.com/matsen/kgeval/internal/triple"

// UniqueScopePerDocument marks a summary whose unique count is a sum of
// per-document uniques, not a corpus-wide distinct count.
const UniqueScopePerDocument = "per_document"

// Record holds the duplication counts of one document.
type Record struct {
	Document   string         `json:"document"`
	Total      int            `json:"total"`
	Unique     int            `json:"unique"`
	Incomplete int            `json:"incomplete"`
	Ratio      float64        `json:"ratio"`
	Percentage float64        `json:"percentage"`
	Repeated   map[string]int `json:"repeated"`
}

// Summary aggregates records across documents.
type Summary struct {
	Documents      int     `json:"documents"`
	TotalTriples   int     `json:"total_triples"`
	UniqueTriples  int     `json:"unique_triples"`
	UniqueScope    string  `json:"unique_scope"`
	MeanRatio      float64 `json:"mean_ratio"`
	MeanPercentage float64 `json:"mean_percentage"`
}

// Result is the output of Analyze.
type Result struct {
	Records     []Record           `json:"records"`
	Summary     Summary            `json:"summary"`
	Diagnostics triple.Diagnostics `json:"diagnostics,omitempty"`
}

// AnalyzeDocument counts duplicates among the complete triples of one document.
// Incomplete triples are counted separately and excluded from Total.
func AnalyzeDocument(doc triple.Document) Record {
	rec := Record{Document: doc.ID, Repeated: map[string]int{}}

	counts := make(map[triple.Key]int)
	var order []triple.Key
	for _, t := range doc.Triples {
		if !t.Complete() {
			rec.Incomplete++
			continue
		}
		rec.Total++
		k := t.Key()
		if counts[k] == 0 {
			order = append(order, k)
		}
		counts[k]++
	}

	rec.Unique = len(order)
	if rec.Total > 0 {
		rec.Ratio = float64(rec.Total-rec.Unique) / float64(rec.Total)
	}
	rec.Percentage = rec.Ratio * 100

	for _, k := range order {
		if c := counts[k]; c > 1 {
			rec.Repeated[k.String()] = c
		}
	}
	return rec
}

// Analyze produces one record per document plus the aggregate summary.
// The mean ratio is taken over all documents, including empty ones.
func Analyze(docs []triple.Document) Result {
	res := Result{
		Records: make([]Record, 0, len(docs)),
		Summary: Summary{Documents: len(docs), UniqueScope: UniqueScopePerDocument},
	}

	var ratioSum float64
	for i, doc := range docs {
		source := doc.ID
		if source == "" {
			source = "document"
		}
		res.Diagnostics = res.Diagnostics.With(triple.MissingFieldDiagnostics(source, i, doc.Triples)...)

		rec := AnalyzeDocument(doc)
		res.Records = append(res.Records, rec)
		res.Summary.TotalTriples += rec.Total
		res.Summary.UniqueTriples += rec.Unique
		ratioSum += rec.Ratio
	}

	if len(docs) > 0 {
		res.Summary.MeanRatio = ratioSum / float64(len(docs))
	}
	res.Summary.MeanPercentage = res.Summary.MeanRatio * 100
	return res
}
