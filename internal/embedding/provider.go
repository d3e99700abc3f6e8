package embedding

import (
	"context"
	"fmt"
)

// Provider generates embeddings from text.
type Provider interface {
	// Embed generates an embedding for the given text.
	Embed(ctx context.Context, text string) (Embedding, error)

	// ModelName returns the name of the embedding model.
	ModelName() string

	// Dimensions returns the expected vector dimensions.
	Dimensions() int
}

// BatchProvider is a Provider that can embed several texts per call.
// EmbedBatch returns one embedding per text, in order.
type BatchProvider interface {
	Provider
	EmbedBatch(ctx context.Context, texts []string) ([]Embedding, error)
}

// EmbedAll embeds each distinct text once and returns vectors in input order.
// Providers implementing BatchProvider receive all distinct texts in one call.
func EmbedAll(ctx context.Context, p Provider, texts []string) ([][]float32, error) {
	index := make(map[string]int, len(texts))
	var distinct []string
	for _, text := range texts {
		if _, ok := index[text]; !ok {
			index[text] = len(distinct)
			distinct = append(distinct, text)
		}
	}

	vecs, err := embedDistinct(ctx, p, distinct)
	if err != nil {
		return nil, err
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = vecs[index[text]]
	}
	return out, nil
}

func embedDistinct(ctx context.Context, p Provider, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	if len(texts) == 0 {
		return vecs, nil
	}

	if bp, ok := p.(BatchProvider); ok {
		embs, err := bp.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embedding %d texts: %w", len(texts), err)
		}
		if len(embs) != len(texts) {
			return nil, fmt.Errorf("embedding %d texts: got %d vectors", len(texts), len(embs))
		}
		for i, e := range embs {
			vecs[i] = e.Vector
		}
		return vecs, nil
	}

	for i, text := range texts {
		emb, err := p.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding %q: %w", truncate(text, 60), err)
		}
		vecs[i] = emb.Vector
	}
	return vecs, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
