package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/kgeval/internal/storage"
)

var (
	triplesSource   string
	triplesHead     string
	triplesRelation string
	triplesTail     string
	triplesLimit    int

	relationsSource string
	relationsLimit  int
)

func init() {
	triplesCmd.Flags().StringVarP(&triplesSource, "source", "s", "", "Only triples from this source")
	triplesCmd.Flags().StringVar(&triplesHead, "head", "", "Match head (normalized)")
	triplesCmd.Flags().StringVarP(&triplesRelation, "relation", "r", "", "Match relation (normalized)")
	triplesCmd.Flags().StringVar(&triplesTail, "tail", "", "Match tail (normalized)")
	triplesCmd.Flags().IntVarP(&triplesLimit, "limit", "n", 50, "Maximum triples to return (0 for all)")

	triplesRelationsCmd.Flags().StringVarP(&relationsSource, "source", "s", "", "Only count this source")
	triplesRelationsCmd.Flags().IntVarP(&relationsLimit, "limit", "n", 20, "Maximum relations to return (0 for all)")

	triplesCmd.AddCommand(triplesRelationsCmd)
	triplesCmd.AddCommand(triplesSourcesCmd)
	rootCmd.AddCommand(triplesCmd)
}

var triplesCmd = &cobra.Command{
	Use:   "triples",
	Short: "Query the triple index",
	Long: `Query triples in the SQLite index built by 'kge rebuild'.

Filters are compared after normalization, so --head SISMO matches "sismo".

Examples:
  kge triples --source gemma --relation afecta
  kge triples --tail "valparaíso" --limit 0
  kge triples relations --source mixtral
  kge triples sources`,
	RunE: runTriples,
}

var triplesRelationsCmd = &cobra.Command{
	Use:   "relations",
	Short: "Count complete triples per relation",
	RunE:  runTriplesRelations,
}

var triplesSourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Count indexed triples per source",
	RunE:  runTriplesSources,
}

// TriplesResult is the response for the triples command.
type TriplesResult struct {
	Triples []storage.StoredTriple `json:"triples"`
	Count   int                    `json:"count"`
}

func runTriples(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	db := mustOpenDatabase(root)
	defer db.Close()

	found, err := db.ListTriples(storage.TripleFilter{
		Source:   triplesSource,
		Head:     triplesHead,
		Relation: triplesRelation,
		Tail:     triplesTail,
		Limit:    triplesLimit,
	})
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if found == nil {
		found = []storage.StoredTriple{}
	}

	if humanOutput {
		if len(found) == 0 {
			outputHuman("No triples found. Run 'kge rebuild' if the index is empty.\n")
			return nil
		}
		for _, t := range found {
			outputHuman("%-12s %4d  %s | %s | %s\n", truncate(t.Source, 12), t.Index,
				truncate(t.Head, 30), truncate(t.Relation, 24), truncate(t.Tail, 30))
		}
		outputHuman("\n%d triples\n", len(found))
		return nil
	}
	outputJSON(TriplesResult{Triples: found, Count: len(found)})
	return nil
}

func runTriplesRelations(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	db := mustOpenDatabase(root)
	defer db.Close()

	counts, err := db.RelationCounts(relationsSource, relationsLimit)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if counts == nil {
		counts = []storage.RelationCount{}
	}

	if humanOutput {
		for _, c := range counts {
			outputHuman("%6d  %s\n", c.Count, c.Relation)
		}
		return nil
	}
	outputJSON(counts)
	return nil
}

func runTriplesSources(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	db := mustOpenDatabase(root)
	defer db.Close()

	counts, err := db.SourceCounts()
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if counts == nil {
		counts = []storage.SourceCount{}
	}

	if humanOutput {
		for _, c := range counts {
			outputHuman("%-20s %6d triples (%d complete)\n", c.Source, c.Triples, c.Complete)
		}
		return nil
	}
	outputJSON(counts)
	return nil
}
