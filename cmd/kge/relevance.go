package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/kgeval/internal/logger"
	"github.com/matsen/kgeval/internal/relevance"
)

var (
	relevanceWorkers int
	relevanceOutput  string
)

func init() {
	relevanceCmd.Flags().IntVarP(&relevanceWorkers, "workers", "w", relevance.DefaultWorkers, "Documents scored concurrently")
	relevanceCmd.Flags().BoolVar(&noEmbeddingCache, "no-cache", false, "Do not read or update the embedding cache")
	relevanceCmd.Flags().StringVarP(&relevanceOutput, "output", "o", "", "Write the report to a file instead of stdout")
	rootCmd.AddCommand(relevanceCmd)
}

var relevanceCmd = &cobra.Command{
	Use:   "relevance",
	Short: "Score how well each document's triples match its text",
	Long: `Embed each document and its triples with Ollama and report the cosine
similarity between the document text and every "head relation tail" text.

Requires Ollama running locally with the configured embedding model.
Vectors are cached under .kgeval/cache, so re-runs only embed new texts.

Examples:
  kge relevance
  kge relevance --workers 8 --output reports/relevance.json`,
	RunE: runRelevance,
}

// RelevanceResult is the relevance report.
type RelevanceResult struct {
	Scores  []relevance.DocumentScore `json:"scores"`
	Summary relevance.Summary         `json:"summary"`
}

func runRelevance(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	cfg := mustLoadConfig(root)

	docs, diags := mustLoadDocuments(root, cfg)

	provider := newEmbeddingProvider(cfg)
	mustValidateOllama(cmd.Context(), provider)

	cached, saveCache := withEmbeddingCache(root, provider)

	logger.Info("scoring documents", "count", len(docs), "model", provider.ModelName(), "workers", relevanceWorkers)
	scores, err := relevance.NewScorer(cached, relevanceWorkers).ScoreAll(cmd.Context(), docs)
	saveCache()
	if err != nil {
		exitWithError(ExitError, "scoring relevance: %v", err)
	}

	failures := relevance.Failures(scores)
	logDiagnostics(failures)
	diags = diags.With(failures...)

	res := RelevanceResult{Scores: scores, Summary: relevance.Summarize(scores)}
	emit("relevance", res, diags, relevanceOutput, func() {
		s := res.Summary
		outputHuman("%d documents scored with %s\n", s.Count, provider.ModelName())
		if s.Failed > 0 {
			outputHuman("  %d documents failed to embed\n", s.Failed)
		}
		outputHuman("  mean   %.4f (std %.4f)\n", s.Mean, s.Std)
		outputHuman("  min    %.4f\n", s.Min)
		outputHuman("  q1     %.4f\n", s.Q1)
		outputHuman("  median %.4f\n", s.Median)
		outputHuman("  q3     %.4f\n", s.Q3)
		outputHuman("  max    %.4f\n", s.Max)
	})
	return nil
}
