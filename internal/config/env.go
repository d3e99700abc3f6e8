package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that override config.yml.
const (
	EnvOllamaURL  = "KGEVAL_OLLAMA_URL"
	EnvEmbedModel = "KGEVAL_EMBED_MODEL"
	EnvTopK       = "KGEVAL_TOP_K"
)

// LoadEnv loads the workspace .env file into the process environment.
// Variables already set are not overwritten. A missing file is not an error.
func LoadEnv(root string) error {
	err := godotenv.Load(EnvPath(root))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", EnvFile, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv(EnvOllamaURL); ok && v != "" {
		c.Embedding.URL = v
	}
	// Configured dimensions belong to the configured model.
	if v, ok := os.LookupEnv(EnvEmbedModel); ok && v != "" && v != c.Embedding.Model {
		c.Embedding.Model = v
		c.Embedding.Dimensions = 0
	}
	if v, ok := os.LookupEnv(EnvTopK); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("%s must be a positive integer, got %q", EnvTopK, v)
		}
		c.TopK = n
	}
	return nil
}
