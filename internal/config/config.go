// Package config handles workspace configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	WorkspaceDir = ".kgeval"
	ConfigFile   = "config.yml"
	EnvFile      = ".env"
	CacheDir     = "cache"
	DBFile       = "triples.db"
)

// Document formats.
const (
	FormatCSV   = "csv"
	FormatJSONL = "jsonl"
)

// Document encodings.
const (
	EncodingUTF8   = "utf-8"
	EncodingLatin9 = "latin9"
)

// Defaults applied by Default and to zero-valued fields on Load.
const (
	DefaultTopK          = 5
	DefaultTextColumn    = "texto_completo"
	DefaultTriplesColumn = "tripletas_respaldadas"
	DefaultUnifyField    = "tail"
	DefaultThreshold     = 0.9
	DefaultOllamaURL     = "http://localhost:11434"
	DefaultEmbedModel    = "all-minilm:l6-v2"
	DefaultDimensions    = 384
)

// ErrNotFound is returned when no workspace exists at or above a path.
var ErrNotFound = errors.New("not in a kgeval workspace (no .kgeval directory found)")

// Source names one extraction output file.
type Source struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// Documents describes the per-document input table.
type Documents struct {
	Path          string `yaml:"path,omitempty"`
	Format        string `yaml:"format,omitempty"`
	Encoding      string `yaml:"encoding,omitempty"`
	IDColumn      string `yaml:"id_column,omitempty"`
	TextColumn    string `yaml:"text_column,omitempty"`
	TriplesColumn string `yaml:"triples_column,omitempty"`
}

// Embedding configures the Ollama embedding client.
type Embedding struct {
	URL               string  `yaml:"url,omitempty"`
	Model             string  `yaml:"model,omitempty"`
	Dimensions        int     `yaml:"dimensions,omitempty"`
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty"`
}

// Unify configures entity unification defaults.
type Unify struct {
	Field     string  `yaml:"field,omitempty"`
	Threshold float64 `yaml:"threshold,omitempty"`
}

// Config represents workspace configuration stored in .kgeval/config.yml.
type Config struct {
	Sources   []Source  `yaml:"sources"`
	Documents Documents `yaml:"documents,omitempty"`
	TopK      int       `yaml:"top_k,omitempty"`
	Embedding Embedding `yaml:"embedding,omitempty"`
	Unify     Unify     `yaml:"unify,omitempty"`
}

// Default returns a configuration with every default filled in.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.TopK == 0 {
		c.TopK = DefaultTopK
	}
	if c.Documents.Format == "" {
		c.Documents.Format = FormatCSV
	}
	if c.Documents.Encoding == "" {
		c.Documents.Encoding = EncodingLatin9
	}
	if c.Documents.TextColumn == "" {
		c.Documents.TextColumn = DefaultTextColumn
	}
	if c.Documents.TriplesColumn == "" {
		c.Documents.TriplesColumn = DefaultTriplesColumn
	}
	if c.Embedding.URL == "" {
		c.Embedding.URL = DefaultOllamaURL
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = DefaultEmbedModel
	}
	// Other models keep 0, which accepts whatever length they return.
	if c.Embedding.Dimensions == 0 && c.Embedding.Model == DefaultEmbedModel {
		c.Embedding.Dimensions = DefaultDimensions
	}
	if c.Unify.Field == "" {
		c.Unify.Field = DefaultUnifyField
	}
	if c.Unify.Threshold == 0 {
		c.Unify.Threshold = DefaultThreshold
	}
}

// WorkspacePath returns the path to the .kgeval directory from a root path.
func WorkspacePath(root string) string {
	return filepath.Join(root, WorkspaceDir)
}

// ConfigPath returns the path to config.yml from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, WorkspaceDir, ConfigFile)
}

// CachePath returns the path to the cache directory from a root path.
func CachePath(root string) string {
	return filepath.Join(root, WorkspaceDir, CacheDir)
}

// DBPath returns the path to triples.db from a root path.
func DBPath(root string) string {
	return filepath.Join(root, WorkspaceDir, CacheDir, DBFile)
}

// EnvPath returns the path to the workspace .env file.
func EnvPath(root string) string {
	return filepath.Join(root, EnvFile)
}

// IsWorkspace checks if the given path contains a kgeval workspace.
func IsWorkspace(root string) bool {
	info, err := os.Stat(WorkspacePath(root))
	return err == nil && info.IsDir()
}

// FindWorkspace walks up from the given path to find a kgeval workspace.
func FindWorkspace(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsWorkspace(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", ErrNotFound
		}
		abs = parent
	}
}

// Load reads configuration from the workspace at the given root, fills
// defaults and applies environment overrides.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Save writes configuration to the workspace at the given root.
func (c *Config) Save(root string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Validate checks source names, document settings and thresholds.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Sources))
	for i, s := range c.Sources {
		if s.Name == "" {
			return fmt.Errorf("sources[%d]: name is required", i)
		}
		if s.Path == "" {
			return fmt.Errorf("source %q: path is required", s.Name)
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate source name: %q", s.Name)
		}
		seen[s.Name] = true
	}

	switch c.Documents.Format {
	case "", FormatCSV, FormatJSONL:
	default:
		return fmt.Errorf("invalid documents.format: %s (valid: %s, %s)", c.Documents.Format, FormatCSV, FormatJSONL)
	}

	switch c.Documents.Encoding {
	case "", EncodingUTF8, EncodingLatin9:
	default:
		return fmt.Errorf("invalid documents.encoding: %s (valid: %s, %s)", c.Documents.Encoding, EncodingUTF8, EncodingLatin9)
	}

	if c.TopK < 0 {
		return fmt.Errorf("top_k must be positive, got %d", c.TopK)
	}
	if c.Unify.Threshold < 0 || c.Unify.Threshold > 1 {
		return fmt.Errorf("unify.threshold must be in (0, 1], got %g", c.Unify.Threshold)
	}
	if c.Embedding.Dimensions < 0 {
		return fmt.Errorf("embedding.dimensions must not be negative, got %d", c.Embedding.Dimensions)
	}
	if c.Embedding.RequestsPerSecond < 0 {
		return fmt.Errorf("embedding.requests_per_second must not be negative, got %g", c.Embedding.RequestsPerSecond)
	}
	return nil
}

// Source returns the configured source with the given name.
func (c *Config) Source(name string) (Source, bool) {
	for _, s := range c.Sources {
		if s.Name == name {
			return s, true
		}
	}
	return Source{}, false
}

// Resolve expands ~ and makes a relative path absolute against root.
func Resolve(root, path string) string {
	if path == "" {
		return ""
	}
	path = ExpandPath(path)
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}
