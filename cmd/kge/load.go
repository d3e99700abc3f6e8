package main

import (
	"fmt"

	"github.com/matsen/kgeval/internal/config"
	"github.com/matsen/kgeval/internal/logger"
	"github.com/matsen/kgeval/internal/overlap"
	"github.com/matsen/kgeval/internal/storage"
	"github.com/matsen/kgeval/internal/triple"
)

// loadSources reads the named sources, or every configured source when names is empty.
func loadSources(root string, cfg *config.Config, names []string) ([]overlap.Source, triple.Diagnostics, error) {
	selected := cfg.Sources
	if len(names) > 0 {
		selected = make([]config.Source, 0, len(names))
		for _, name := range names {
			s, ok := cfg.Source(name)
			if !ok {
				return nil, nil, fmt.Errorf("unknown source %q", name)
			}
			selected = append(selected, s)
		}
	}
	if len(selected) == 0 {
		return nil, nil, fmt.Errorf("no sources configured in %s", config.ConfigPath(root))
	}

	var diags triple.Diagnostics
	sources := make([]overlap.Source, 0, len(selected))
	for _, s := range selected {
		triples, d, err := storage.ReadSource(s.Name, config.Resolve(root, s.Path))
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("loaded source", "name", s.Name, "triples", len(triples))
		diags = diags.With(d...)
		sources = append(sources, overlap.Source{Name: s.Name, Triples: triples})
	}
	return sources, diags, nil
}

// mustLoadSources is loadSources that exits on error and logs diagnostics.
func mustLoadSources(root string, cfg *config.Config, names []string) ([]overlap.Source, triple.Diagnostics) {
	sources, diags, err := loadSources(root, cfg, names)
	if err != nil {
		exitWithError(ExitDataError, "loading sources: %v", err)
	}
	logDiagnostics(diags)
	return sources, diags
}

// mustLoadDocuments reads the configured document table, exits on error.
func mustLoadDocuments(root string, cfg *config.Config) ([]triple.Document, triple.Diagnostics) {
	docs, diags, err := storage.ReadDocuments(storage.DocumentOptionsFrom(root, cfg.Documents))
	if err != nil {
		exitWithError(ExitDataError, "loading documents: %v", err)
	}
	logger.Debug("loaded documents", "count", len(docs))
	logDiagnostics(diags)
	return docs, diags
}
