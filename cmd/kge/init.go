package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/kgeval/internal/config"
)

var (
	initSources   []string
	initDocuments string
)

func init() {
	initCmd.Flags().StringArrayVar(&initSources, "source", nil, "Source as name=path (repeatable)")
	initCmd.Flags().StringVar(&initDocuments, "documents", "", "Path to the document table (CSV or JSONL)")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a kgeval workspace in the current directory",
	Long: `Create .kgeval/config.yml in the current directory.

Examples:
  kge init --source gemma=outputs/gemma.json --source mixtral=outputs/mixtral.json
  kge init --documents noticias.csv`,
	RunE: runInit,
}

// parseSourceFlag splits a name=path flag value.
func parseSourceFlag(s string) (config.Source, error) {
	name, path, ok := strings.Cut(s, "=")
	name, path = strings.TrimSpace(name), strings.TrimSpace(path)
	if !ok || name == "" || path == "" {
		return config.Source{}, fmt.Errorf("invalid --source %q: want name=path", s)
	}
	return config.Source{Name: name, Path: path}, nil
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		exitWithError(ExitError, "getting current directory: %v", err)
	}
	if config.IsWorkspace(cwd) {
		exitWithError(ExitError, "workspace already initialized at %s", config.WorkspacePath(cwd))
	}

	cfg := config.Default()
	for _, s := range initSources {
		src, err := parseSourceFlag(s)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		cfg.Sources = append(cfg.Sources, src)
	}
	if initDocuments != "" {
		cfg.Documents.Path = initDocuments
		if strings.EqualFold(filepath.Ext(initDocuments), ".jsonl") {
			cfg.Documents.Format = config.FormatJSONL
			cfg.Documents.Encoding = config.EncodingUTF8
		}
	}
	if err := cfg.Validate(); err != nil {
		exitWithError(ExitConfigError, "invalid config: %v", err)
	}

	if err := os.MkdirAll(config.CachePath(cwd), 0755); err != nil {
		exitWithError(ExitError, "creating workspace: %v", err)
	}
	if err := cfg.Save(cwd); err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		outputHuman("Initialized kgeval workspace in %s\n", config.WorkspacePath(cwd))
	} else {
		outputJSON(StatusResponse{Status: "initialized", Path: config.ConfigPath(cwd)})
	}
	return nil
}
