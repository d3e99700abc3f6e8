package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/matsen/kgeval/internal/config"
	"github.com/matsen/kgeval/internal/triple"
)

func csvOptions(path string) DocumentOptions {
	return DocumentOptions{
		Path:          path,
		Format:        config.FormatCSV,
		Encoding:      config.EncodingUTF8,
		TextColumn:    config.DefaultTextColumn,
		TriplesColumn: config.DefaultTriplesColumn,
	}
}

func TestReadDocuments_CSV(t *testing.T) {
	path := writeFile(t, t.TempDir(), "docs.csv", `id,texto_completo,tripletas_respaldadas
n1,"Un sismo afectó Chile","[{'head': 'sismo', 'relation': 'afectó', 'tail': 'Chile'}]"
n2,Sin tripletas,
n3,Texto,no se pudo extraer
`)
	opts := csvOptions(path)
	opts.IDColumn = "id"

	docs, diags, err := ReadDocuments(opts)
	require.NoError(t, err)

	require.Len(t, docs, 3)
	assert.Equal(t, "n1", docs[0].ID)
	assert.Equal(t, "Un sismo afectó Chile", docs[0].Text)
	require.Len(t, docs[0].Triples, 1)
	assert.Equal(t, "afectó", docs[0].Triples[0].Relation)

	assert.Empty(t, docs[1].Triples)
	assert.NotNil(t, docs[1].Triples)
	assert.Empty(t, docs[2].Triples)

	require.Len(t, diags, 1)
	assert.Equal(t, triple.KindUnparseable, diags[0].Kind)
	assert.Equal(t, "document n3", diags[0].Source)
}

func TestReadDocuments_CSVRowNumbersAsIDs(t *testing.T) {
	path := writeFile(t, t.TempDir(), "docs.csv", "texto_completo,tripletas_respaldadas\nA,[]\nB,[]\n")

	docs, _, err := ReadDocuments(csvOptions(path))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "1", docs[0].ID)
	assert.Equal(t, "2", docs[1].ID)
}

func TestReadDocuments_Latin9(t *testing.T) {
	content := "texto_completo,tripletas_respaldadas\n" +
		`"Daños por 5€ en Ñuble","[{""head"": ""daños"", ""relation"": ""en"", ""tail"": ""Ñuble""}]"` + "\n"
	encoded, err := charmap.ISO8859_15.NewEncoder().String(content)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "latin9.csv")
	require.NoError(t, os.WriteFile(path, []byte(encoded), 0644))

	opts := csvOptions(path)
	opts.Encoding = config.EncodingLatin9
	docs, diags, err := ReadDocuments(opts)
	require.NoError(t, err)
	assert.Empty(t, diags)

	require.Len(t, docs, 1)
	assert.Equal(t, "Daños por 5€ en Ñuble", docs[0].Text)
	require.Len(t, docs[0].Triples, 1)
	assert.Equal(t, "Ñuble", docs[0].Triples[0].Tail)
}

func TestReadDocuments_MissingColumn(t *testing.T) {
	path := writeFile(t, t.TempDir(), "docs.csv", "text,triples\na,[]\n")

	_, _, err := ReadDocuments(csvOptions(path))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "texto_completo")
}

func TestReadDocuments_JSONL(t *testing.T) {
	path := writeFile(t, t.TempDir(), "docs.jsonl", `{"id": "a1", "text": "Incendio en Viña", "triples": [{"head": "incendio", "relation": "en", "tail": "Viña"}]}
{"id": 7, "text": "Aluvión", "triples": "[{'head': 'aluvión', 'relation': 'afecta', 'tail': 'Antofagasta'}]"}
{"text": "Nada", "triples": null}
`)

	docs, diags, err := ReadDocuments(DocumentOptions{Path: path, Format: config.FormatJSONL})
	require.NoError(t, err)
	assert.Empty(t, diags)

	require.Len(t, docs, 3)
	assert.Equal(t, "a1", docs[0].ID)
	assert.Equal(t, "Viña", docs[0].Triples[0].Tail)
	assert.Equal(t, "7", docs[1].ID)
	assert.Equal(t, "Antofagasta", docs[1].Triples[0].Tail)
	assert.Equal(t, "3", docs[2].ID)
	assert.Empty(t, docs[2].Triples)
}

func TestReadDocuments_JSONLBadLine(t *testing.T) {
	path := writeFile(t, t.TempDir(), "docs.jsonl",
		"{\"id\": \"a\", \"text\": \"uno\", \"triples\": \"[{'head': 'x', 'relation': 'y', 'tail': 'z'}]\"}\n"+
			"{broken\n"+
			"{\"id\": \"c\", \"text\": \"tres\", \"triples\": \"no triples here\"}\n")

	docs, diags, err := ReadDocuments(DocumentOptions{Path: path, Format: config.FormatJSONL})
	require.NoError(t, err)
	require.Len(t, docs, 3)

	assert.Equal(t, "a", docs[0].ID)
	assert.Len(t, docs[0].Triples, 1)
	assert.Equal(t, "2", docs[1].ID)
	assert.Empty(t, docs[1].Text)
	assert.Empty(t, docs[1].Triples)
	assert.Equal(t, "c", docs[2].ID)

	require.Len(t, diags, 2)
	assert.Equal(t, "document 2", diags[0].Source)
	assert.Equal(t, 1, diags[0].Record)
	assert.Equal(t, triple.KindUnparseable, diags[0].Kind)
	assert.Contains(t, diags[0].Message, "line 2")
	assert.Equal(t, "document c", diags[1].Source)
	assert.Equal(t, 2, diags[1].Record)
}

func TestReadDocuments_Errors(t *testing.T) {
	_, _, err := ReadDocuments(DocumentOptions{})
	assert.Error(t, err)

	path := writeFile(t, t.TempDir(), "docs.txt", "x")
	_, _, err = ReadDocuments(DocumentOptions{Path: path, Format: "xlsx"})
	assert.Error(t, err)
}

func TestDocumentOptionsFrom(t *testing.T) {
	opts := DocumentOptionsFrom("/ws", config.Documents{Path: "data/docs.csv", Format: "csv", TextColumn: "t"})
	assert.Equal(t, "/ws/data/docs.csv", opts.Path)
	assert.Equal(t, "t", opts.TextColumn)
}
