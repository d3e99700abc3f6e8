package triple

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Canonical renders a decoded JSON value as a stable string.
//
// Strings are returned as-is and nil becomes the empty string. Objects and
// arrays are serialized as compact JSON with object keys sorted, so
// structurally identical values always produce the same string.
func Canonical(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		if val {
			return "true"
		}
		return "false"
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimRight(buf.String(), "\n")
}

// FromRecord converts a decoded JSON object into a Triple.
// Missing or null fields become empty strings; nested values are canonicalized.
func FromRecord(record map[string]any) Triple {
	return Triple{
		Head:     Canonical(record[FieldHead]),
		HeadType: Canonical(record[FieldHeadType]),
		Relation: Canonical(record[FieldRelation]),
		Tail:     Canonical(record[FieldTail]),
		TailType: Canonical(record[FieldTailType]),
	}
}
