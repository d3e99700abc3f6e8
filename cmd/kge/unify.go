package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/kgeval/internal/logger"
	"github.com/matsen/kgeval/internal/storage"
	"github.com/matsen/kgeval/internal/unify"
)

var (
	unifySource    string
	unifyField     string
	unifyThreshold float64
	unifyOutput    string
	unifyReport    string
)

func init() {
	unifyCmd.Flags().StringVarP(&unifySource, "source", "s", "", "Source to unify (required)")
	unifyCmd.Flags().StringVarP(&unifyField, "field", "f", "", "Triple field to unify (default: config unify.field)")
	unifyCmd.Flags().Float64VarP(&unifyThreshold, "threshold", "t", 0, "Cosine similarity threshold in (0, 1] (default: config unify.threshold)")
	unifyCmd.Flags().StringVarP(&unifyOutput, "output", "o", "", "Path for the unified triples (required)")
	unifyCmd.Flags().BoolVar(&noEmbeddingCache, "no-cache", false, "Do not read or update the embedding cache")
	unifyCmd.Flags().StringVar(&unifyReport, "report", "", "Write the unification report to a file instead of stdout")
	unifyCmd.MarkFlagRequired("source")
	unifyCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(unifyCmd)
}

var unifyCmd = &cobra.Command{
	Use:   "unify",
	Short: "Merge equivalent entity spellings within a source",
	Long: `Embed the distinct values of one triple field and map each value to the
first earlier value whose cosine similarity reaches the threshold. The
rewritten triples are written to --output; the source file is not modified.

Requires Ollama running locally with the configured embedding model.

Examples:
  kge unify --source gemma --output out/gemma_unified.json
  kge unify --source gemma --field head --threshold 0.85 --output out/gemma_heads.json`,
	RunE: runUnify,
}

func runUnify(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	cfg := mustLoadConfig(root)

	field := unifyField
	if field == "" {
		field = cfg.Unify.Field
	}
	if err := unify.ValidateField(field); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	threshold := unifyThreshold
	if threshold == 0 {
		threshold = cfg.Unify.Threshold
	}
	if threshold <= 0 || threshold > 1 {
		exitWithError(ExitConfigError, "threshold %.3f outside (0, 1]", threshold)
	}

	sources, diags := mustLoadSources(root, cfg, []string{unifySource})
	src := sources[0]

	provider := newEmbeddingProvider(cfg)
	mustValidateOllama(cmd.Context(), provider)

	cached, saveCache := withEmbeddingCache(root, provider)

	res, unified, err := unify.Run(cmd.Context(), cached, src.Triples, field, float32(threshold))
	saveCache()
	if err != nil {
		exitWithError(ExitError, "unifying %s: %v", src.Name, err)
	}
	logger.Info("unified values", "source", src.Name, "field", field,
		"before", res.UniqueBefore, "after", res.UniqueAfter)

	if err := storage.WriteSource(unifyOutput, unified); err != nil {
		exitWithError(ExitError, "writing unified triples: %v", err)
	}

	emit("unify", res, diags, unifyReport, func() {
		outputHuman("Unified %s of %s: %d -> %d distinct values (%.1f%% reduction)\n",
			res.Field, src.Name, res.UniqueBefore, res.UniqueAfter, res.ReductionPct)
		outputHuman("Mean similarity %.4f -> %.4f\n", res.Before.Mean, res.After.Mean)
		for _, c := range res.Changes {
			outputHuman("  %s -> %s\n", c.From, c.To)
		}
		outputHuman("Wrote %s\n", unifyOutput)
	})
	return nil
}
