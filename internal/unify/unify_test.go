package unify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matsen/kgeval/internal/embedding"
	"github.com/matsen/kgeval/internal/triple"
)

type mapProvider map[string][]float32

func (p mapProvider) Embed(_ context.Context, text string) (embedding.Embedding, error) {
	v, ok := p[text]
	if !ok {
		return embedding.Embedding{}, errors.New("no vector for " + text)
	}
	return embedding.Embedding{Vector: v}, nil
}

func (p mapProvider) ModelName() string { return "map" }
func (p mapProvider) Dimensions() int   { return 2 }

func TestUnify_GroupsToEarliest(t *testing.T) {
	values := []string{"sismo", "terremoto", "lluvia", "temblor"}
	vectors := [][]float32{{1, 0}, {0.99, 0.05}, {0, 1}, {0.98, 0.1}}

	res := Unify(values, vectors, 0.9)

	assert.Equal(t, map[string]string{
		"sismo":     "sismo",
		"terremoto": "sismo",
		"lluvia":    "lluvia",
		"temblor":   "sismo",
	}, res.Mapping)
	assert.Equal(t, 4, res.UniqueBefore)
	assert.Equal(t, 2, res.UniqueAfter)
	assert.InDelta(t, 50.0, res.ReductionPct, 1e-9)
	assert.Equal(t, []Change{{From: "terremoto", To: "sismo"}, {From: "temblor", To: "sismo"}}, res.Changes)
}

func TestUnify_LaterGroupRemaps(t *testing.T) {
	// a~b and b~c but not a~c. The group formed at c is {b, c} with b as
	// its earliest member, so b -> a is overwritten with b -> b.
	values := []string{"a", "b", "c"}
	vectors := [][]float32{{1, 0}, {0.8, 0.6}, {0.28, 0.96}}

	res := Unify(values, vectors, 0.75)

	assert.Equal(t, "a", res.Mapping["a"])
	assert.Equal(t, "b", res.Mapping["b"])
	assert.Equal(t, "b", res.Mapping["c"])
	assert.Equal(t, 2, res.UniqueAfter)
}

func TestUnify_ZeroVectorMapsToItself(t *testing.T) {
	res := Unify([]string{"x", "y"}, [][]float32{{0, 0}, {1, 0}}, 0.9)
	assert.Equal(t, "x", res.Mapping["x"])
	assert.Equal(t, "y", res.Mapping["y"])
	assert.Empty(t, res.Changes)
	assert.Zero(t, res.ReductionPct)
}

func TestUnify_Empty(t *testing.T) {
	res := Unify(nil, nil, 0.9)
	assert.Zero(t, res.UniqueBefore)
	assert.Zero(t, res.ReductionPct)
	assert.NotNil(t, res.Changes)
}

func TestValues(t *testing.T) {
	triples := []triple.Triple{
		{Head: "a", Relation: "r", Tail: "Chile"},
		{Head: "b", Relation: "r", Tail: ""},
		{Head: "c", Relation: "r", Tail: "Perú"},
		{Head: "d", Relation: "r", Tail: "Chile"},
	}
	assert.Equal(t, []string{"Chile", "Perú"}, Values(triples, triple.FieldTail))
	assert.Equal(t, []string{"r"}, Values(triples, triple.FieldRelation))
	assert.Empty(t, Values(triples, triple.FieldHeadType))
}

func TestSimilarityStats(t *testing.T) {
	stats := SimilarityStats([][]float32{{1, 0}, {0, 1}, {1, 0}})
	assert.Equal(t, 3, stats.Pairs)
	assert.InDelta(t, 1.0/3.0, stats.Mean, 1e-6)
	assert.InDelta(t, 0.0, stats.Median, 1e-6)

	stats = SimilarityStats([][]float32{{1, 0}, {0, 1}, {1, 0}, {1, 0}})
	assert.Equal(t, 6, stats.Pairs)
	assert.InDelta(t, 0.5, stats.Median, 1e-6)

	assert.Equal(t, Stats{}, SimilarityStats([][]float32{{1, 0}}))
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	in := []triple.Triple{
		{Head: "a", Relation: "r", Tail: "terremoto"},
		{Head: "b", Relation: "r", Tail: ""},
		{Head: "c", Relation: "r", Tail: "otro"},
	}
	out := Apply(in, triple.FieldTail, map[string]string{"terremoto": "sismo", "": "nada"})

	assert.Equal(t, "sismo", out[0].Tail)
	assert.Equal(t, "", out[1].Tail)
	assert.Equal(t, "otro", out[2].Tail)
	assert.Equal(t, "terremoto", in[0].Tail)
}

func TestRun(t *testing.T) {
	p := mapProvider{
		"sismo":     {1, 0},
		"terremoto": {0.99, 0.05},
		"lluvia":    {0, 1},
	}
	triples := []triple.Triple{
		{Head: "x", Relation: "r", Tail: "sismo"},
		{Head: "y", Relation: "r", Tail: "terremoto"},
		{Head: "z", Relation: "r", Tail: "lluvia"},
	}

	res, out, err := Run(context.Background(), p, triples, DefaultField, DefaultThreshold)
	require.NoError(t, err)

	assert.Equal(t, DefaultField, res.Field)
	assert.Equal(t, 3, res.UniqueBefore)
	assert.Equal(t, 2, res.UniqueAfter)
	assert.Equal(t, 3, res.Before.Pairs)
	assert.Equal(t, 1, res.After.Pairs)
	assert.InDelta(t, 0.0, res.After.Mean, 1e-6)
	assert.Equal(t, "sismo", out[1].Tail)
}

func TestRun_Validation(t *testing.T) {
	_, _, err := Run(context.Background(), mapProvider{}, nil, "subject", 0.9)
	assert.True(t, errors.Is(err, ErrUnknownField))

	_, _, err = Run(context.Background(), mapProvider{}, nil, triple.FieldHead, 1.5)
	assert.Error(t, err)

	_, _, err = Run(context.Background(), mapProvider{}, []triple.Triple{{Head: "a"}}, triple.FieldHead, 0.9)
	assert.Error(t, err)
}
