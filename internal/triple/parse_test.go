package triple

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_RawString(t *testing.T) {
	want := []Triple{
		{Head: "sismo", Relation: "afecta", Tail: "Valparaíso"},
		{Head: "sismo", Relation: "ocurre_en", Tail: "Chile"},
	}

	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "strict JSON",
			input: `[{"head": "sismo", "relation": "afecta", "tail": "Valparaíso"}, {"head": "sismo", "relation": "ocurre_en", "tail": "Chile"}]`,
		},
		{
			name:  "single quoted literal",
			input: `[{'head': 'sismo', 'relation': 'afecta', 'tail': 'Valparaíso'}, {'head': 'sismo', 'relation': 'ocurre_en', 'tail': 'Chile'}]`,
		},
		{
			name:  "tuple literal",
			input: `({'head': 'sismo', 'relation': 'afecta', 'tail': 'Valparaíso'}, {'head': 'sismo', 'relation': 'ocurre_en', 'tail': 'Chile'})`,
		},
		{
			name:  "surrounding chatter",
			input: "Aquí están las tripletas:\n" + `[{"head": "sismo", "relation": "afecta", "tail": "Valparaíso"}, {"head": "sismo", "relation": "ocurre_en", "tail": "Chile"}]` + "\nFin.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Parse(RawString(tt.input))
			require.NoError(t, res.Err)
			assert.Equal(t, want, res.Triples)
		})
	}
}

func TestParse_TupleKeepsParenthesesInStrings(t *testing.T) {
	res := Parse(RawString(`({'head': "Región de O'Higgins (VI)", 'relation': 'sufre', 'tail': 'incendio (2024)'},)`))
	require.NoError(t, res.Err)
	assert.Equal(t, []Triple{{Head: "Región de O'Higgins (VI)", Relation: "sufre", Tail: "incendio (2024)"}}, res.Triples)
}

func TestParse_TupleOfTuples(t *testing.T) {
	res := Parse(RawString(`(('sismo', 'afecta', 'Chile'),)`))
	require.NoError(t, res.Err)
	require.Len(t, res.Triples, 1)
	assert.Equal(t, KindNotAnObject, res.Diagnostics[0].Kind)
}

func TestTuplesToLists(t *testing.T) {
	assert.Equal(t, `[[1, 2], "a (b)", 'c (d)']`, tuplesToLists(`((1, 2), "a (b)", 'c (d)')`))
	assert.Equal(t, `['it\'s (x)']`, tuplesToLists(`('it\'s (x)')`))
	assert.Equal(t, "[]", tuplesToLists("[]"))
}

func TestQuote_TruncatesByRune(t *testing.T) {
	s := strings.Repeat("ñ", maxQuotedContent+10)
	q := quote(s)
	assert.True(t, utf8.ValidString(q))
	assert.Equal(t, strings.Repeat("ñ", maxQuotedContent)+"...", q)
	assert.Equal(t, "corto", quote("corto"))

	res := Parse(RawString(strings.Repeat("é", maxQuotedContent+1)))
	require.Error(t, res.Err)
	assert.True(t, utf8.ValidString(res.Err.Error()))
}

func TestParse_LiteralNone(t *testing.T) {
	res := Parse(RawString(`[{'head': 'incendio', 'head_type': None, 'relation': 'destruye', 'tail': 'casas'}]`))
	require.NoError(t, res.Err)
	require.Len(t, res.Triples, 1)
	assert.Equal(t, Triple{Head: "incendio", Relation: "destruye", Tail: "casas"}, res.Triples[0])
}

func TestParse_SingleObject(t *testing.T) {
	res := Parse(RawString(`{"head": "a", "relation": "r", "tail": "b"}`))
	require.NoError(t, res.Err)
	assert.Equal(t, []Triple{{Head: "a", Relation: "r", Tail: "b"}}, res.Triples)
}

func TestParse_EmptyInputs(t *testing.T) {
	for _, raw := range []Raw{RawString(""), RawString("   "), RawString("null"), ParsedRecord{}, nil} {
		res := Parse(raw)
		assert.NoError(t, res.Err)
		assert.Empty(t, res.Triples)
	}
}

func TestParse_Unparseable(t *testing.T) {
	res := Parse(RawString("no se encontraron tripletas"))
	require.Error(t, res.Err)
	assert.True(t, errors.Is(res.Err, ErrUnparseable))
	assert.Empty(t, res.Triples)
	assert.Contains(t, res.Err.Error(), "no se encontraron tripletas")
}

func TestParse_ParsedRecord(t *testing.T) {
	value := []any{
		map[string]any{"head": map[string]any{"b": "2", "a": "1"}, "relation": "r", "tail": "t"},
		"stray string",
	}

	res := Parse(ParsedRecord{Value: value})
	require.NoError(t, res.Err)
	require.Len(t, res.Triples, 2)
	assert.Equal(t, `{"a":"1","b":"2"}`, res.Triples[0].Head)
	assert.Equal(t, Triple{}, res.Triples[1])
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, KindNotAnObject, res.Diagnostics[0].Kind)
	assert.Equal(t, 1, res.Diagnostics[0].Index)

	// Input is left untouched.
	assert.Equal(t, "stray string", value[1])
}

func TestParse_TypedRecords(t *testing.T) {
	res := Parse(ParsedRecord{Value: []map[string]any{{"head": "a", "relation": "r", "tail": "b"}}})
	require.NoError(t, res.Err)
	assert.Equal(t, []Triple{{Head: "a", Relation: "r", Tail: "b"}}, res.Triples)
}

func TestParseAll_AccumulatesDiagnostics(t *testing.T) {
	raws := []Raw{
		RawString(`[{"head": "a", "relation": "r", "tail": "b"}]`),
		RawString("basura sin estructura"),
		ParsedRecord{Value: []any{42.0}},
	}

	prior := Diagnostics{{Source: "earlier", Kind: KindMissingField, Record: -1, Index: 0}}
	out, diags := ParseAll("mixtral", raws, prior)

	require.Len(t, out, 3)
	assert.Len(t, out[0], 1)
	assert.Empty(t, out[1])
	assert.Len(t, out[2], 1)

	require.Len(t, diags, 3)
	assert.Equal(t, "earlier", diags[0].Source)
	assert.Equal(t, KindUnparseable, diags[1].Kind)
	assert.Equal(t, "mixtral", diags[1].Source)
	assert.Equal(t, 1, diags[1].Record)
	assert.Equal(t, KindNotAnObject, diags[2].Kind)
	assert.Equal(t, 2, diags[2].Record)
	assert.Equal(t, 1, diags.Count(KindUnparseable))
}

func TestMissingFieldDiagnostics(t *testing.T) {
	diags := MissingFieldDiagnostics("gemma", -1, []Triple{
		{Head: "a", Relation: "r", Tail: "b"},
		{Head: "a"},
	})

	require.Len(t, diags, 2)
	assert.Equal(t, FieldRelation, diags[0].Field)
	assert.Equal(t, FieldTail, diags[1].Field)
	assert.Equal(t, 1, diags[0].Index)
	assert.Equal(t, "gemma index 1: missing_field: missing relation", diags[0].String())
}
