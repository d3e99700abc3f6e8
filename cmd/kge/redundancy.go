package main

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/matsen/kgeval/internal/redundancy"
)

var redundancyOutput string

func init() {
	redundancyCmd.Flags().StringVarP(&redundancyOutput, "output", "o", "", "Write the report to a file instead of stdout")
	rootCmd.AddCommand(redundancyCmd)
}

var redundancyCmd = &cobra.Command{
	Use:   "redundancy",
	Short: "Measure duplicate triples within each document",
	Long: `Count total and unique complete triples per document of the configured
document table and report the redundancy ratio (total - unique) / total.

The summary's unique_triples is a sum of per-document unique counts, not a
corpus-wide distinct count.`,
	RunE: runRedundancy,
}

func runRedundancy(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	cfg := mustLoadConfig(root)

	docs, diags := mustLoadDocuments(root, cfg)
	res := redundancy.Analyze(docs)
	logDiagnostics(res.Diagnostics)
	diags = diags.With(res.Diagnostics...)
	res.Diagnostics = nil

	emit("redundancy", res, diags, redundancyOutput, func() {
		s := res.Summary
		outputHuman("%d documents, %d complete triples, %d unique (summed per document)\n",
			s.Documents, s.TotalTriples, s.UniqueTriples)
		outputHuman("mean redundancy %.2f%%\n", s.MeanPercentage)
		for _, r := range res.Records {
			if len(r.Repeated) == 0 {
				continue
			}
			outputHuman("\n%s: %d/%d unique (%.1f%% redundant)\n", r.Document, r.Unique, r.Total, r.Percentage)
			keys := make([]string, 0, len(r.Repeated))
			for key := range r.Repeated {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				outputHuman("  %dx %s\n", r.Repeated[key], key)
			}
		}
	})
	return nil
}
