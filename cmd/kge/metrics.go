package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/kgeval/internal/kgraph"
	"github.com/matsen/kgeval/internal/logger"
	"github.com/matsen/kgeval/internal/metrics"
	"github.com/matsen/kgeval/internal/triple"
)

var (
	metricsTopK    int
	metricsSources []string
	metricsOutput  string
)

func init() {
	metricsCmd.Flags().IntVarP(&metricsTopK, "top-k", "k", 0, "Ranked entries per metric (default: config top_k)")
	metricsCmd.Flags().StringSliceVarP(&metricsSources, "source", "s", nil, "Sources to include (default: all)")
	metricsCmd.Flags().StringVarP(&metricsOutput, "output", "o", "", "Write the report to a file instead of stdout")
	rootCmd.AddCommand(metricsCmd)
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Compute graph metrics for each source",
	Long: `Build a directed multigraph per source and report node and edge counts,
density, mean degree, average clustering, top PageRank and degree-centrality
nodes, and strongly and weakly connected components.

Examples:
  kge metrics
  kge metrics --top-k 10 --output reports/metrics.json
  kge metrics --source gemma,mixtral --human`,
	RunE: runMetrics,
}

func runMetrics(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	cfg := mustLoadConfig(root)

	topK := metricsTopK
	if topK <= 0 {
		topK = cfg.TopK
	}

	sources, diags := mustLoadSources(root, cfg, metricsSources)

	graphs := make([]*kgraph.Graph, len(sources))
	for i, s := range sources {
		missing := triple.MissingFieldDiagnostics(s.Name, -1, s.Triples)
		logDiagnostics(missing)
		diags = diags.With(missing...)

		graphs[i] = kgraph.Build(s.Name, s.Triples)
		if dropped := graphs[i].Dropped(); dropped > 0 {
			logger.Info("skipped triples with empty endpoints", "source", s.Name, "count", dropped)
		}
	}

	reports, err := metrics.ComputeAll(cmd.Context(), graphs, topK)
	if err != nil {
		exitWithError(ExitError, "computing metrics: %v", err)
	}
	for _, r := range reports {
		if r.ConnectivityError != "" {
			logger.Warn("connectivity not computed", "source", r.Name, "error", r.ConnectivityError)
		}
		if !r.PageRankConverged {
			logger.Warn("pagerank did not converge", "source", r.Name, "iterations", metrics.PageRankMaxIter)
		}
	}

	emit("metrics", reports, diags, metricsOutput, func() { printMetricsHuman(reports) })
	return nil
}

func printMetricsHuman(reports []metrics.Report) {
	for i, r := range reports {
		if i > 0 {
			outputHuman("\n")
		}
		outputHuman("%s\n", r.Name)
		outputHuman("  nodes %d, edges %d (skipped %d)\n", r.Nodes, r.Edges, r.DroppedEdges)
		outputHuman("  density %.4f, mean degree %.3f, avg clustering %.4f\n", r.Density, r.MeanDegree, r.AvgClustering)
		if r.ConnectivityError != "" {
			outputHuman("  connectivity: %s\n", r.ConnectivityError)
		} else {
			outputHuman("  strong components %d (largest %d), weak components %d (largest %d)\n",
				r.StrongComponents, r.LargestStrongComponent, r.WeakComponents, r.LargestWeakComponent)
		}
		printRanked("pagerank", r.TopPageRank)
		printRanked("degree centrality", r.TopDegreeCentrality)
	}
}

func printRanked(title string, entries []metrics.Ranked) {
	if len(entries) == 0 {
		return
	}
	outputHuman("  top %s:\n", title)
	for _, e := range entries {
		outputHuman("    %-40s %.4f\n", truncate(e.Node, 40), e.Score)
	}
}
