package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(WorkspacePath(root), 0755))
	return root
}

func TestPathFunctions(t *testing.T) {
	root := "/test/ws"

	tests := []struct {
		name string
		fn   func(string) string
		want string
	}{
		{"WorkspacePath", WorkspacePath, "/test/ws/.kgeval"},
		{"ConfigPath", ConfigPath, "/test/ws/.kgeval/config.yml"},
		{"CachePath", CachePath, "/test/ws/.kgeval/cache"},
		{"DBPath", DBPath, "/test/ws/.kgeval/cache/triples.db"},
		{"EnvPath", EnvPath, "/test/ws/.env"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.fn(root))
		})
	}
}

func TestIsWorkspace(t *testing.T) {
	tmpDir := t.TempDir()
	assert.False(t, IsWorkspace(tmpDir))

	require.NoError(t, os.Mkdir(filepath.Join(tmpDir, WorkspaceDir), 0755))
	assert.True(t, IsWorkspace(tmpDir))
}

func TestIsWorkspace_FileNotDir(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, WorkspaceDir), []byte("not a dir"), 0644))
	assert.False(t, IsWorkspace(tmpDir))
}

func TestFindWorkspace(t *testing.T) {
	tmpDir := t.TempDir()
	wsDir := filepath.Join(tmpDir, "ws")
	nestedDir := filepath.Join(wsDir, "outputs", "gemma")
	require.NoError(t, os.MkdirAll(nestedDir, 0755))
	require.NoError(t, os.Mkdir(filepath.Join(wsDir, WorkspaceDir), 0755))

	found, err := FindWorkspace(nestedDir)
	require.NoError(t, err)
	assert.Equal(t, wsDir, found)

	found, err = FindWorkspace(wsDir)
	require.NoError(t, err)
	assert.Equal(t, wsDir, found)
}

func TestFindWorkspace_NotFound(t *testing.T) {
	_, err := FindWorkspace(t.TempDir())
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestConfig_SaveAndLoad(t *testing.T) {
	root := newWorkspace(t)

	cfg := &Config{
		Sources: []Source{
			{Name: "gemma2:9b", Path: "outputs/gemma.json"},
			{Name: "mixtral", Path: "outputs/mixtral.jsonl"},
		},
		Documents: Documents{Path: "docs.csv", Encoding: EncodingUTF8},
		TopK:      10,
		Unify:     Unify{Field: "head_type", Threshold: 0.85},
	}
	require.NoError(t, cfg.Save(root))

	loaded, err := Load(root)
	require.NoError(t, err)

	assert.Equal(t, cfg.Sources, loaded.Sources)
	assert.Equal(t, 10, loaded.TopK)
	assert.Equal(t, EncodingUTF8, loaded.Documents.Encoding)
	assert.Equal(t, FormatCSV, loaded.Documents.Format)
	assert.Equal(t, DefaultTextColumn, loaded.Documents.TextColumn)
	assert.Equal(t, "head_type", loaded.Unify.Field)
	assert.InDelta(t, 0.85, loaded.Unify.Threshold, 1e-9)
	assert.Equal(t, DefaultOllamaURL, loaded.Embedding.URL)
	assert.Equal(t, DefaultDimensions, loaded.Embedding.Dimensions)
}

func TestLoad_ParsesYAML(t *testing.T) {
	root := newWorkspace(t)
	data := `sources:
  - name: llama3.1
    path: /data/llama.json
documents:
  path: noticias.jsonl
  format: jsonl
embedding:
  model: nomic-embed-text
  dimensions: 768
  requests_per_second: 2.5
`
	require.NoError(t, os.WriteFile(ConfigPath(root), []byte(data), 0644))

	cfg, err := Load(root)
	require.NoError(t, err)

	require.Len(t, cfg.Sources, 1)
	assert.Equal(t, "llama3.1", cfg.Sources[0].Name)
	assert.Equal(t, FormatJSONL, cfg.Documents.Format)
	assert.Equal(t, "nomic-embed-text", cfg.Embedding.Model)
	assert.Equal(t, 768, cfg.Embedding.Dimensions)
	assert.InDelta(t, 2.5, cfg.Embedding.RequestsPerSecond, 1e-9)
	assert.Equal(t, DefaultTopK, cfg.TopK)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(newWorkspace(t))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	root := newWorkspace(t)
	require.NoError(t, os.WriteFile(ConfigPath(root), []byte("sources: [unclosed"), 0644))

	_, err := Load(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestLoad_EnvOverrides(t *testing.T) {
	root := newWorkspace(t)
	require.NoError(t, Default().Save(root))

	t.Setenv(EnvOllamaURL, "http://gpu-box:11434")
	t.Setenv(EnvEmbedModel, "bge-m3")
	t.Setenv(EnvTopK, "3")

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, "http://gpu-box:11434", cfg.Embedding.URL)
	assert.Equal(t, "bge-m3", cfg.Embedding.Model)
	assert.Zero(t, cfg.Embedding.Dimensions, "saved dimensions belong to the default model")
	assert.Equal(t, 3, cfg.TopK)
}

func TestLoad_DimensionsFollowModel(t *testing.T) {
	root := newWorkspace(t)
	data := `embedding:
  model: nomic-embed-text
  dimensions: 0
`
	require.NoError(t, os.WriteFile(ConfigPath(root), []byte(data), 0644))

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text", cfg.Embedding.Model)
	assert.Zero(t, cfg.Embedding.Dimensions)

	require.NoError(t, os.WriteFile(ConfigPath(root), []byte("top_k: 4\n"), 0644))
	cfg, err = Load(root)
	require.NoError(t, err)
	assert.Equal(t, DefaultEmbedModel, cfg.Embedding.Model)
	assert.Equal(t, DefaultDimensions, cfg.Embedding.Dimensions)
}

func TestLoad_EnvModelAcceptsAnyDimensions(t *testing.T) {
	root := newWorkspace(t)
	require.NoError(t, os.WriteFile(ConfigPath(root), []byte("sources: []\n"), 0644))
	t.Setenv(EnvEmbedModel, "mxbai-embed-large")

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, "mxbai-embed-large", cfg.Embedding.Model)
	assert.Zero(t, cfg.Embedding.Dimensions)
}

func TestLoad_EnvModelMatchingConfigKeepsDimensions(t *testing.T) {
	root := newWorkspace(t)
	data := `embedding:
  model: nomic-embed-text
  dimensions: 768
`
	require.NoError(t, os.WriteFile(ConfigPath(root), []byte(data), 0644))
	t.Setenv(EnvEmbedModel, "nomic-embed-text")

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, 768, cfg.Embedding.Dimensions)
}

func TestLoad_InvalidEnvTopK(t *testing.T) {
	root := newWorkspace(t)
	require.NoError(t, Default().Save(root))
	t.Setenv(EnvTopK, "many")

	_, err := Load(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvTopK)
}

func TestLoadEnv(t *testing.T) {
	root := newWorkspace(t)
	assert.NoError(t, LoadEnv(root), "missing .env is not an error")

	t.Setenv(EnvEmbedModel, "")
	os.Unsetenv(EnvEmbedModel)
	require.NoError(t, os.WriteFile(EnvPath(root), []byte(EnvEmbedModel+"=from-dotenv\n"), 0644))
	require.NoError(t, LoadEnv(root))
	assert.Equal(t, "from-dotenv", os.Getenv(EnvEmbedModel))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "empty is valid", cfg: Config{}},
		{name: "missing name", cfg: Config{Sources: []Source{{Path: "a.json"}}}, wantErr: "name is required"},
		{name: "missing path", cfg: Config{Sources: []Source{{Name: "a"}}}, wantErr: "path is required"},
		{
			name:    "duplicate name",
			cfg:     Config{Sources: []Source{{Name: "a", Path: "1"}, {Name: "a", Path: "2"}}},
			wantErr: "duplicate source name",
		},
		{name: "bad format", cfg: Config{Documents: Documents{Format: "xlsx"}}, wantErr: "documents.format"},
		{name: "bad encoding", cfg: Config{Documents: Documents{Encoding: "utf-16"}}, wantErr: "documents.encoding"},
		{name: "threshold above one", cfg: Config{Unify: Unify{Threshold: 1.2}}, wantErr: "unify.threshold"},
		{name: "negative top_k", cfg: Config{TopK: -1}, wantErr: "top_k"},
		{name: "negative dimensions", cfg: Config{Embedding: Embedding{Dimensions: -1}}, wantErr: "embedding.dimensions"},
		{name: "negative rate", cfg: Config{Embedding: Embedding{RequestsPerSecond: -1}}, wantErr: "requests_per_second"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_Source(t *testing.T) {
	cfg := Config{Sources: []Source{{Name: "a", Path: "a.json"}}}

	s, ok := cfg.Source("a")
	assert.True(t, ok)
	assert.Equal(t, "a.json", s.Path)

	_, ok = cfg.Source("b")
	assert.False(t, ok)
}

func TestResolve(t *testing.T) {
	assert.Equal(t, "/ws/outputs/a.json", Resolve("/ws", "outputs/a.json"))
	assert.Equal(t, "/abs/a.json", Resolve("/ws", "/abs/a.json"))
	assert.Equal(t, "", Resolve("/ws", ""))

	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	assert.Equal(t, filepath.Join(home, "data/a.json"), Resolve("/ws", "~/data/a.json"))
}
