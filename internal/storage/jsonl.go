// Package storage reads and writes triple sources and documents, and keeps
// an ephemeral SQLite index for querying them.
package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/matsen/kgeval/internal/triple"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (1MB per line).
const MaxJSONLLineCapacity = 1024 * 1024

// IsJSONL reports whether a path names a JSON Lines file.
func IsJSONL(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".jsonl" || ext == ".ndjson"
}

// ReadSource reads one extraction output: a JSON array of triple records, or
// JSONL with one record (or one array of records) per line.
// Unparseable JSONL lines become diagnostics; an unparseable JSON file is an error.
func ReadSource(name, path string) ([]triple.Triple, triple.Diagnostics, error) {
	if IsJSONL(path) {
		return readSourceJSONL(name, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading source %s: %w", name, err)
	}

	res := triple.Parse(triple.RawString(data))
	if res.Err != nil {
		return nil, nil, fmt.Errorf("source %s: %w", name, res.Err)
	}

	var diags triple.Diagnostics
	for _, d := range res.Diagnostics {
		d.Source = name
		diags = diags.With(d)
	}
	return res.Triples, diags, nil
}

func readSourceJSONL(name, path string) ([]triple.Triple, triple.Diagnostics, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening source %s: %w", name, err)
	}
	defer f.Close()

	lines, err := scanLines(f)
	if err != nil {
		return nil, nil, fmt.Errorf("reading source %s: %w", name, err)
	}

	raws := make([]triple.Raw, len(lines))
	for i, line := range lines {
		raws[i] = triple.RawString(line)
	}
	batches, diags := triple.ParseAll(name, raws, nil)

	var triples []triple.Triple
	for _, b := range batches {
		triples = append(triples, b...)
	}
	return triples, diags, nil
}

// scanLines returns the non-blank lines of r.
func scanLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	var lines []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// WriteSource writes triples as an indented JSON array, replacing existing content.
// Non-ASCII text is written as-is.
func WriteSource(path string, triples []triple.Triple) error {
	if triples == nil {
		triples = []triple.Triple{}
	}
	return writeJSON(path, triples, "    ")
}

// WriteJSON writes any value as indented JSON, replacing existing content.
func WriteJSON(path string, v any) error {
	return writeJSON(path, v, "  ")
}

func writeJSON(path string, v any, indent string) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
