package storage

import (
	"bytes"
	"cmp"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/matsen/kgeval/internal/config"
	"github.com/matsen/kgeval/internal/triple"
)

// DocumentOptions describes how to read a document table.
type DocumentOptions struct {
	Path          string
	Format        string // config.FormatCSV or config.FormatJSONL
	Encoding      string // config.EncodingUTF8 or config.EncodingLatin9
	IDColumn      string // optional; row numbers are used when empty
	TextColumn    string
	TriplesColumn string
}

// DocumentOptionsFrom builds options from workspace configuration.
func DocumentOptionsFrom(root string, d config.Documents) DocumentOptions {
	return DocumentOptions{
		Path:          config.Resolve(root, d.Path),
		Format:        d.Format,
		Encoding:      d.Encoding,
		IDColumn:      d.IDColumn,
		TextColumn:    d.TextColumn,
		TriplesColumn: d.TriplesColumn,
	}
}

// ReadDocuments reads documents with their serialized triples.
// Triple collections that cannot be parsed are reported as diagnostics and
// leave the document with no triples. A JSONL line that is not valid JSON is
// reported the same way and yields a document with an empty text, identified
// by its line number.
func ReadDocuments(opts DocumentOptions) ([]triple.Document, triple.Diagnostics, error) {
	if opts.Path == "" {
		return nil, nil, errors.New("no documents path configured")
	}

	f, err := os.Open(opts.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening documents: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if opts.Encoding == config.EncodingLatin9 {
		r = charmap.ISO8859_15.NewDecoder().Reader(f)
	}

	switch opts.Format {
	case config.FormatJSONL:
		return readDocumentsJSONL(r)
	case config.FormatCSV, "":
		return readDocumentsCSV(r, opts)
	}
	return nil, nil, fmt.Errorf("unsupported documents format: %s", opts.Format)
}

func readDocumentsCSV(r io.Reader, opts DocumentOptions) ([]triple.Document, triple.Diagnostics, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("reading header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimPrefix(h, "\ufeff")] = i
	}

	textCol, ok := cols[opts.TextColumn]
	if !ok {
		return nil, nil, fmt.Errorf("text column %q not found", opts.TextColumn)
	}
	triplesCol, ok := cols[opts.TriplesColumn]
	if !ok {
		return nil, nil, fmt.Errorf("triples column %q not found", opts.TriplesColumn)
	}
	idCol := -1
	if opts.IDColumn != "" {
		if idCol, ok = cols[opts.IDColumn]; !ok {
			return nil, nil, fmt.Errorf("id column %q not found", opts.IDColumn)
		}
	}

	var docs []triple.Document
	var raws []triple.Raw
	for row := 1; ; row++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("reading row %d: %w", row, err)
		}

		doc := triple.Document{ID: strconv.Itoa(row), Text: field(record, textCol)}
		if idCol >= 0 {
			doc.ID = field(record, idCol)
		}
		docs = append(docs, doc)
		raws = append(raws, triple.RawString(field(record, triplesCol)))
	}

	return attachTriples(docs, raws, nil)
}

func field(record []string, i int) string {
	if i < len(record) {
		return record[i]
	}
	return ""
}

type documentLine struct {
	ID      json.RawMessage `json:"id"`
	Text    string          `json:"text"`
	Triples json.RawMessage `json:"triples"`
}

func readDocumentsJSONL(r io.Reader) ([]triple.Document, triple.Diagnostics, error) {
	lines, err := scanLines(r)
	if err != nil {
		return nil, nil, fmt.Errorf("reading documents: %w", err)
	}

	docs := make([]triple.Document, 0, len(lines))
	raws := make([]triple.Raw, 0, len(lines))
	var diags triple.Diagnostics
	for i, line := range lines {
		var dl documentLine
		if err := json.Unmarshal([]byte(line), &dl); err != nil {
			diags = diags.With(triple.Diagnostic{
				Record:  i,
				Index:   -1,
				Kind:    triple.KindUnparseable,
				Message: fmt.Sprintf("line %d: %v", i+1, err),
			})
			docs = append(docs, triple.Document{ID: strconv.Itoa(i + 1)})
			raws = append(raws, nil)
			continue
		}

		doc := triple.Document{ID: strconv.Itoa(i + 1), Text: dl.Text}
		if id := triple.Canonical(decodeRaw(dl.ID)); id != "" {
			doc.ID = id
		}
		docs = append(docs, doc)

		switch v := decodeRaw(dl.Triples).(type) {
		case string:
			raws = append(raws, triple.RawString(v))
		case nil:
			raws = append(raws, nil)
		default:
			raws = append(raws, triple.ParsedRecord{Value: v})
		}
	}

	return attachTriples(docs, raws, diags)
}

func decodeRaw(msg json.RawMessage) any {
	if len(msg) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(msg))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return v
}

func attachTriples(docs []triple.Document, raws []triple.Raw, diags triple.Diagnostics) ([]triple.Document, triple.Diagnostics, error) {
	batches, diags := triple.ParseAll("documents", raws, diags)
	for i := range docs {
		docs[i].Triples = batches[i]
		if docs[i].Triples == nil {
			docs[i].Triples = []triple.Triple{}
		}
	}
	for i := range diags {
		if diags[i].Record >= 0 && diags[i].Record < len(docs) {
			diags[i].Source = "document " + docs[diags[i].Record].ID
		}
	}
	slices.SortStableFunc(diags, func(a, b triple.Diagnostic) int {
		return cmp.Compare(a.Record, b.Record)
	})
	return docs, diags, nil
}
