package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/kgeval/internal/overlap"
)

var (
	overlapSources []string
	overlapOutput  string
)

func init() {
	overlapCmd.Flags().StringSliceVarP(&overlapSources, "source", "s", nil, "Sources to compare (default: all)")
	overlapCmd.Flags().StringVarP(&overlapOutput, "output", "o", "", "Write the report to a file instead of stdout")
	rootCmd.AddCommand(overlapCmd)
}

var overlapCmd = &cobra.Command{
	Use:   "overlap",
	Short: "Compare the triple sets of every pair of sources",
	Long: `Compute the Jaccard overlap and symmetric-difference percentage between
the normalized triple sets of every pair of sources. The matrix diagonal is 0.

Examples:
  kge overlap
  kge overlap --source gemma,llama --human`,
	RunE: runOverlap,
}

func runOverlap(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	cfg := mustLoadConfig(root)

	sources, diags := mustLoadSources(root, cfg, overlapSources)

	res, err := overlap.Compare(sources)
	if err != nil {
		exitWithError(ExitConfigError, "comparing sources: %v", err)
	}
	logDiagnostics(res.Diagnostics)
	diags = diags.With(res.Diagnostics...)
	res.Diagnostics = nil

	emit("overlap", res, diags, overlapOutput, func() {
		outputHuman("Overlap (%%)\n")
		printMatrix(res.Overlap)
		outputHuman("\nDifference (%%)\n")
		printMatrix(res.Difference)
	})
	return nil
}

func printMatrix(m overlap.Matrix) {
	const width = 12
	outputHuman("%-*s", width, "")
	for _, name := range m.Names {
		outputHuman(" %*s", width, truncate(name, width))
	}
	outputHuman("\n")
	for i, row := range m.Values {
		outputHuman("%-*s", width, truncate(m.Names[i], width))
		for _, v := range row {
			outputHuman(" %*.2f", width, v)
		}
		outputHuman("\n")
	}
}
