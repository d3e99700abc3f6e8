// Package main provides the kge CLI entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/matsen/kgeval/internal/config"
	"github.com/matsen/kgeval/internal/embedding"
	"github.com/matsen/kgeval/internal/logger"
	"github.com/matsen/kgeval/internal/logger/console"
	"github.com/matsen/kgeval/internal/storage"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	humanOutput bool
	debugLog    bool
	quietLog    bool

	noEmbeddingCache bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// SilenceErrors is set, so cobra errors (missing flags etc.) are printed here.
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "kge",
	Short: "Evaluate knowledge graphs extracted from text",
	Long: `kge evaluates knowledge-graph triples extracted by language models.

Core features:
  - Graph metrics per source (PageRank, centrality, components, clustering)
  - Pairwise overlap between sources (Jaccard and symmetric difference)
  - Per-document redundancy of extracted triples
  - Contextual relevance and entity unification via Ollama embeddings

Extraction outputs stay in their JSON/JSONL files; an ephemeral SQLite
index under .kgeval/cache supports ad hoc queries.
All commands output JSON by default.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(console.New(console.Params{Debug: debugLog, Quiet: quietLog}))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "Enable debug logging on stderr")
	rootCmd.PersistentFlags().BoolVarP(&quietLog, "quiet", "q", false, "Only log errors")
	rootCmd.Version = Version
}

// mustFindWorkspace finds the workspace from the current directory, exits on error.
// It also loads the workspace .env file.
func mustFindWorkspace() string {
	cwd, err := os.Getwd()
	if err != nil {
		exitWithError(ExitError, "getting current directory: %v", err)
	}

	root, err := config.FindWorkspace(cwd)
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			exitWithError(ExitConfigError, "%v\n\nRun 'kge init' to create one.", err)
		}
		exitWithError(ExitError, "finding workspace: %v", err)
	}

	if err := config.LoadEnv(root); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	logger.Debug("workspace found", "root", root)
	return root
}

// mustLoadConfig loads and validates configuration, exits on error.
func mustLoadConfig(root string) *config.Config {
	cfg, err := config.Load(root)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		exitWithError(ExitConfigError, "invalid config: %v", err)
	}
	return cfg
}

// mustOpenDatabase opens the SQLite index, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenDatabase(root string) *storage.DB {
	db, err := storage.OpenDB(config.DBPath(root))
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	return db
}

// newEmbeddingProvider builds the Ollama client from configuration.
func newEmbeddingProvider(cfg *config.Config) *embedding.OllamaProvider {
	return embedding.NewOllamaProvider(
		embedding.WithBaseURL(cfg.Embedding.URL),
		embedding.WithModel(cfg.Embedding.Model),
		embedding.WithDimensions(cfg.Embedding.Dimensions),
		embedding.WithRateLimit(cfg.Embedding.RequestsPerSecond),
	)
}

// mustValidateOllama checks that Ollama is running and serves the configured model.
func mustValidateOllama(ctx context.Context, provider *embedding.OllamaProvider) {
	if err := provider.IsAvailable(ctx); err != nil {
		exitWithError(ExitOllamaUnavailable, "Ollama is not running\n\nStart Ollama with 'ollama serve' or install from https://ollama.ai")
	}

	hasModel, err := provider.HasModel(ctx)
	if err != nil {
		exitWithError(ExitError, "checking model availability: %v", err)
	}
	if !hasModel {
		exitWithError(ExitModelNotFound, "embedding model %q not found\n\nRun 'ollama pull %s' to download it.", provider.ModelName(), provider.ModelName())
	}
}

// withEmbeddingCache wraps provider with the workspace embedding cache.
// The returned function persists new vectors; failures there are logged only.
func withEmbeddingCache(root string, provider *embedding.OllamaProvider) (embedding.Provider, func()) {
	if noEmbeddingCache {
		return provider, func() {}
	}

	path := embedding.CachePath(config.CachePath(root))
	cache, err := embedding.LoadCache(path)
	switch {
	case errors.Is(err, embedding.ErrCacheNotFound):
		cache = embedding.NewCache(provider.ModelName())
	case err != nil:
		logger.Warn("ignoring embedding cache", "path", path, "error", err)
		cache = embedding.NewCache(provider.ModelName())
	case cache.ModelName != provider.ModelName():
		logger.Info("embedding model changed, starting a new cache", "cached", cache.ModelName, "model", provider.ModelName())
		cache = embedding.NewCache(provider.ModelName())
	}

	cached, err := embedding.NewCachedProvider(provider, cache)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	return cached, func() {
		hits, misses := cached.Stats()
		logger.Debug("embedding cache", "hits", hits, "misses", misses, "size", cache.Len())
		if misses == 0 {
			return
		}
		if err := cached.Save(path); err != nil {
			logger.Warn("saving embedding cache", "path", path, "error", err)
		}
	}
}
