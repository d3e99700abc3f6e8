package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/kgeval/internal/logger"
	"github.com/matsen/kgeval/internal/storage"
)

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the query index from source files",
	Long: `Rebuild the SQLite triple index from every configured source file.

The index is disposable: use this after editing or regenerating a source, or
if the database becomes corrupted.`,
	RunE: runRebuild,
}

// RebuildResult is the response for the rebuild command.
type RebuildResult struct {
	Status  string                `json:"status"`
	Sources []storage.SourceCount `json:"sources"`
	Triples int                   `json:"triples"`
}

func runRebuild(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	cfg := mustLoadConfig(root)

	sources, _ := mustLoadSources(root, cfg, nil)

	db := mustOpenDatabase(root)
	defer db.Close()

	if err := db.Clear(); err != nil {
		exitWithError(ExitError, "%v", err)
	}
	for _, s := range sources {
		n, err := db.RebuildSource(s.Name, s.Triples)
		if err != nil {
			exitWithError(ExitDataError, "rebuilding %s: %v", s.Name, err)
		}
		logger.Debug("indexed source", "name", s.Name, "triples", n)
	}

	counts, err := db.SourceCounts()
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	total := 0
	for _, c := range counts {
		total += c.Triples
	}

	if humanOutput {
		outputHuman("Rebuilt index with %d triples from %d sources\n", total, len(counts))
		for _, c := range counts {
			outputHuman("  %-20s %6d triples (%d complete)\n", c.Source, c.Triples, c.Complete)
		}
	} else {
		outputJSON(RebuildResult{Status: "rebuilt", Sources: counts, Triples: total})
	}
	return nil
}
