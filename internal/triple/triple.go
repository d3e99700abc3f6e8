// Package triple defines the core domain types for extracted knowledge graph triples.
package triple

import (
	"encoding/json"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Field names as they appear in triple records.
const (
	FieldHead     = "head"
	FieldHeadType = "head_type"
	FieldRelation = "relation"
	FieldTail     = "tail"
	FieldTailType = "tail_type"
)

// Fields lists the record fields in name order.
var Fields = []string{FieldHead, FieldHeadType, FieldRelation, FieldTail, FieldTailType}

// RequiredFields lists the fields a complete triple must have.
var RequiredFields = []string{FieldHead, FieldRelation, FieldTail}

// Triple represents an (entity, relation, entity) fact extracted from a text.
type Triple struct {
	Head     string `json:"head" jsonschema_description:"Subject entity"`
	HeadType string `json:"head_type,omitempty" jsonschema_description:"Optional type of the subject entity"`
	Relation string `json:"relation" jsonschema_description:"Relation label"`
	Tail     string `json:"tail" jsonschema_description:"Object entity"`
	TailType string `json:"tail_type,omitempty" jsonschema_description:"Optional type of the object entity"`
}

// Key is the normalization key of a triple.
// Fields are ordered by name, so two keys compare equal iff the triples do.
type Key struct {
	Head     string
	HeadType string
	Relation string
	Tail     string
	TailType string
}

// NormalizeValue canonicalizes a single field value: NFC, trimmed, lowercased.
func NormalizeValue(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(s)))
}

// Normalize returns a copy of the triple with every field normalized.
func (t Triple) Normalize() Triple {
	return Triple{
		Head:     NormalizeValue(t.Head),
		HeadType: NormalizeValue(t.HeadType),
		Relation: NormalizeValue(t.Relation),
		Tail:     NormalizeValue(t.Tail),
		TailType: NormalizeValue(t.TailType),
	}
}

// Key returns the normalization key for the triple.
func (t Triple) Key() Key {
	n := t.Normalize()
	return Key(n)
}

// Complete reports whether head, relation and tail are all non-empty after normalization.
func (t Triple) Complete() bool {
	return len(t.MissingFields()) == 0
}

// MissingFields returns the required fields that are empty after normalization.
func (t Triple) MissingFields() []string {
	var missing []string
	if NormalizeValue(t.Head) == "" {
		missing = append(missing, FieldHead)
	}
	if NormalizeValue(t.Relation) == "" {
		missing = append(missing, FieldRelation)
	}
	if NormalizeValue(t.Tail) == "" {
		missing = append(missing, FieldTail)
	}
	return missing
}

// Get returns the value of the named field.
func (t Triple) Get(field string) (string, bool) {
	switch field {
	case FieldHead:
		return t.Head, true
	case FieldHeadType:
		return t.HeadType, true
	case FieldRelation:
		return t.Relation, true
	case FieldTail:
		return t.Tail, true
	case FieldTailType:
		return t.TailType, true
	}
	return "", false
}

// With returns a copy of the triple with the named field set to value.
// Unknown field names leave the triple unchanged.
func (t Triple) With(field, value string) Triple {
	switch field {
	case FieldHead:
		t.Head = value
	case FieldHeadType:
		t.HeadType = value
	case FieldRelation:
		t.Relation = value
	case FieldTail:
		t.Tail = value
	case FieldTailType:
		t.TailType = value
	}
	return t
}

// Text returns the plain-text rendering used for embeddings.
func (t Triple) Text() string {
	return t.Head + " " + t.Relation + " " + t.Tail
}

// String returns the canonical JSON representation of the key.
func (k Key) String() string {
	// Map keys marshal in sorted order.
	data, _ := json.Marshal(map[string]string{
		FieldHead:     k.Head,
		FieldHeadType: k.HeadType,
		FieldRelation: k.Relation,
		FieldTail:     k.Tail,
		FieldTailType: k.TailType,
	})
	return string(data)
}

// Triple converts the key back to a (normalized) triple.
func (k Key) Triple() Triple {
	return Triple(k)
}

// Document owns the triples extracted from one source text.
type Document struct {
	ID      string   `json:"id"`
	Text    string   `json:"text,omitempty"`
	Triples []Triple `json:"triples"`
}
