package triple

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/kaptinlin/jsonrepair"
)

// ErrUnparseable is returned when a raw value is neither JSON nor a literal structure.
var ErrUnparseable = errors.New("triples could not be parsed")

// maxQuotedContent bounds how much offending content is echoed in errors.
const maxQuotedContent = 200

// Raw is a triple collection as it arrives from upstream stages.
// It is either a RawString or a ParsedRecord.
type Raw interface {
	isRaw()
}

// RawString is a serialized triple collection, e.g. a CSV column value.
// It may be strict JSON or a literal with single quotes, None/True/False and
// tuples in place of lists.
type RawString string

// ParsedRecord is an already-decoded JSON value: an array of objects or one object.
type ParsedRecord struct {
	Value any
}

func (RawString) isRaw()    {}
func (ParsedRecord) isRaw() {}

// Result is the outcome of parsing one raw collection.
// Err is non-nil (wrapping ErrUnparseable) when nothing could be decoded;
// Triples is then empty.
type Result struct {
	Triples     []Triple
	Err         error
	Diagnostics Diagnostics
}

// Parse converts a raw collection into triples. It never modifies raw.
func Parse(raw Raw) Result {
	switch r := raw.(type) {
	case RawString:
		return parseString(string(r))
	case ParsedRecord:
		return fromValue(r.Value)
	case nil:
		return Result{}
	}
	return Result{Err: fmt.Errorf("%w: unsupported raw type %T", ErrUnparseable, raw)}
}

// ParseAll parses a batch of raw collections from one source.
// Failures are appended to diags and yield an empty slice at the same position.
func ParseAll(source string, raws []Raw, diags Diagnostics) ([][]Triple, Diagnostics) {
	out := make([][]Triple, len(raws))
	for i, raw := range raws {
		res := Parse(raw)
		if res.Err != nil {
			diags = diags.With(Diagnostic{
				Source:  source,
				Record:  i,
				Index:   -1,
				Kind:    KindUnparseable,
				Message: res.Err.Error(),
			})
		}
		for _, d := range res.Diagnostics {
			d.Source = source
			d.Record = i
			diags = diags.With(d)
		}
		out[i] = res.Triples
	}
	return out, diags
}

func parseString(s string) Result {
	s = strings.TrimSpace(s)
	if s == "" {
		return Result{}
	}

	if v, err := decodeStrict(s); err == nil {
		return fromValue(v)
	}

	payload := trimToPayload(s)
	if payload != s {
		if v, err := decodeStrict(payload); err == nil {
			return fromValue(v)
		}
	}

	// Only bracketed literals are worth repairing; bare prose is not a collection.
	if payload[0] != '[' && payload[0] != '{' && payload[0] != '(' {
		return Result{Err: fmt.Errorf("%w: %q", ErrUnparseable, quote(s))}
	}

	repaired, err := jsonrepair.JSONRepair(tuplesToLists(payload))
	if err != nil {
		return Result{Err: fmt.Errorf("%w: %q: %v", ErrUnparseable, quote(s), err)}
	}
	v, err := decodeStrict(repaired)
	if err != nil {
		return Result{Err: fmt.Errorf("%w: %q: %v", ErrUnparseable, quote(s), err)}
	}
	res := fromValue(v)
	if res.Err != nil {
		res.Err = fmt.Errorf("%w: %q", ErrUnparseable, quote(s))
	}
	return res
}

// decodeStrict decodes exactly one JSON value, keeping numbers verbatim.
func decodeStrict(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("trailing data after JSON value")
	}
	return v, nil
}

// trimToPayload drops model chatter around the outermost bracketed structure.
// A string that is itself a tuple literal is kept whole.
func trimToPayload(s string) string {
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		return s
	}
	for _, pair := range [][2]byte{{'[', ']'}, {'{', '}'}} {
		start := strings.IndexByte(s, pair[0])
		end := strings.LastIndexByte(s, pair[1])
		if start >= 0 && end > start {
			return s[start : end+1]
		}
	}
	return s
}

func fromValue(v any) Result {
	switch val := v.(type) {
	case nil:
		return Result{}
	case map[string]any:
		return Result{Triples: []Triple{FromRecord(val)}}
	case []map[string]any:
		res := Result{Triples: make([]Triple, 0, len(val))}
		for _, record := range val {
			res.Triples = append(res.Triples, FromRecord(record))
		}
		return res
	case []any:
		res := Result{Triples: make([]Triple, 0, len(val))}
		for i, elem := range val {
			record, ok := elem.(map[string]any)
			if !ok {
				res.Diagnostics = res.Diagnostics.With(Diagnostic{
					Record:  -1,
					Index:   i,
					Kind:    KindNotAnObject,
					Message: fmt.Sprintf("element is %T, not an object", elem),
				})
				res.Triples = append(res.Triples, Triple{})
				continue
			}
			res.Triples = append(res.Triples, FromRecord(record))
		}
		return res
	}
	return Result{Err: fmt.Errorf("%w: decoded %T, want array or object", ErrUnparseable, v)}
}

// tuplesToLists rewrites parentheses outside string literals as brackets.
func tuplesToLists(s string) string {
	if !strings.ContainsAny(s, "()") {
		return s
	}

	b := []byte(s)
	var inQuote byte
	for i := 0; i < len(b); i++ {
		c := b[i]
		switch {
		case inQuote != 0:
			if c == '\\' {
				i++
			} else if c == inQuote {
				inQuote = 0
			}
		case c == '\'' || c == '"':
			inQuote = c
		case c == '(':
			b[i] = '['
		case c == ')':
			b[i] = ']'
		}
	}
	return string(b)
}

// quote shortens s to maxQuotedContent runes.
func quote(s string) string {
	if utf8.RuneCountInString(s) <= maxQuotedContent {
		return s
	}
	return string([]rune(s)[:maxQuotedContent]) + "..."
}
