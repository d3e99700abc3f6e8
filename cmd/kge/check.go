package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/kgeval/internal/triple"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Parse all sources and documents and report input problems",
	Long: `Parse every configured source and the document table, reporting
unparseable records, non-object elements and triples missing head, relation
or tail. Problems are diagnostics, not failures.`,
	RunE: runCheck,
}

// CheckResult is the response for the check command.
type CheckResult struct {
	Status    string             `json:"status"`
	Sources   []SourceCheck      `json:"sources"`
	Documents int                `json:"documents"`
	Counts    map[string]int     `json:"counts"`
	Issues    triple.Diagnostics `json:"issues"`
}

// SourceCheck summarizes one parsed source.
type SourceCheck struct {
	Name     string `json:"name"`
	Triples  int    `json:"triples"`
	Complete int    `json:"complete"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	cfg := mustLoadConfig(root)

	var issues triple.Diagnostics
	result := CheckResult{Sources: []SourceCheck{}}

	if len(cfg.Sources) > 0 {
		sources, diags := mustLoadSources(root, cfg, nil)
		issues = issues.With(diags...)
		for _, s := range sources {
			sc := SourceCheck{Name: s.Name, Triples: len(s.Triples)}
			for _, t := range s.Triples {
				if t.Complete() {
					sc.Complete++
				}
			}
			result.Sources = append(result.Sources, sc)
			issues = issues.With(triple.MissingFieldDiagnostics(s.Name, -1, s.Triples)...)
		}
	}

	if cfg.Documents.Path != "" {
		docs, diags := mustLoadDocuments(root, cfg)
		result.Documents = len(docs)
		issues = issues.With(diags...)
		for i, d := range docs {
			issues = issues.With(triple.MissingFieldDiagnostics("document "+d.ID, i, d.Triples)...)
		}
	}

	result.Issues = issues
	if result.Issues == nil {
		result.Issues = triple.Diagnostics{}
	}
	result.Counts = map[string]int{
		triple.KindUnparseable:  issues.Count(triple.KindUnparseable),
		triple.KindNotAnObject:  issues.Count(triple.KindNotAnObject),
		triple.KindMissingField: issues.Count(triple.KindMissingField),
	}
	result.Status = "ok"
	if len(issues) > 0 {
		result.Status = "issues_found"
	}

	if humanOutput {
		for _, s := range result.Sources {
			outputHuman("%-24s %6d triples (%d complete)\n", truncate(s.Name, 24), s.Triples, s.Complete)
		}
		if cfg.Documents.Path != "" {
			outputHuman("%-24s %6d\n", "documents", result.Documents)
		}
		if len(issues) == 0 {
			outputHuman("No issues found\n")
			return nil
		}
		outputHuman("\n%d issues (%d unparseable, %d not an object, %d missing field)\n",
			len(issues), result.Counts[triple.KindUnparseable],
			result.Counts[triple.KindNotAnObject], result.Counts[triple.KindMissingField])
		for i, d := range issues {
			if i == maxLoggedDiagnostics {
				outputHuman("  ... and %d more\n", len(issues)-i)
				break
			}
			outputHuman("  %s\n", d)
		}
		return nil
	}

	outputJSON(result)
	return nil
}
