package triple

import "fmt"

// Diagnostic kinds.
const (
	KindUnparseable  = "unparseable"
	KindMissingField = "missing_field"
	KindNotAnObject  = "not_an_object"

	// KindEmbeddingFailed marks a document whose texts could not be embedded.
	KindEmbeddingFailed = "embedding_failed"
)

// Diagnostic records a recoverable input problem.
// Record is the position of the raw input in its batch (-1 when the input is
// a single collection) and Index is the position of the triple within it.
type Diagnostic struct {
	Source  string `json:"source,omitempty"`
	Record  int    `json:"record"`
	Index   int    `json:"index"`
	Kind    string `json:"kind"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	loc := d.Source
	if d.Record >= 0 {
		loc = fmt.Sprintf("%s record %d", loc, d.Record)
	}
	if d.Index >= 0 {
		loc = fmt.Sprintf("%s index %d", loc, d.Index)
	}
	return fmt.Sprintf("%s: %s: %s", loc, d.Kind, d.Message)
}

// Diagnostics accumulates diagnostics across a batch.
// Batch functions take the accumulator and return the extended value.
type Diagnostics []Diagnostic

// With returns the accumulator extended by the given diagnostics.
func (d Diagnostics) With(more ...Diagnostic) Diagnostics {
	return append(d, more...)
}

// Count returns how many diagnostics have the given kind.
func (d Diagnostics) Count(kind string) int {
	n := 0
	for _, diag := range d {
		if diag.Kind == kind {
			n++
		}
	}
	return n
}

// MissingFieldDiagnostics reports every required field missing from the triples.
func MissingFieldDiagnostics(source string, record int, triples []Triple) Diagnostics {
	var diags Diagnostics
	for i, t := range triples {
		for _, field := range t.MissingFields() {
			diags = append(diags, Diagnostic{
				Source:  source,
				Record:  record,
				Index:   i,
				Kind:    KindMissingField,
				Field:   field,
				Message: fmt.Sprintf("missing %s", field),
			})
		}
	}
	return diags
}
