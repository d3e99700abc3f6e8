package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultOllamaURL is the default Ollama API endpoint.
	DefaultOllamaURL = "http://localhost:11434"

	// DefaultModel is the default embedding model.
	DefaultModel = "all-minilm:l6-v2"

	// DefaultDimensions is the output length of DefaultModel.
	DefaultDimensions = 384

	// DefaultTimeout bounds one embed request, which may carry a whole batch.
	DefaultTimeout = 60 * time.Second

	// DefaultBatchSize is the number of texts sent per /api/embed request.
	DefaultBatchSize = 64

	apiPathTags  = "/api/tags"
	apiPathEmbed = "/api/embed"
)

// OllamaProvider embeds texts through a local Ollama server.
// Texts are sent in batches to /api/embed; every batch request waits on the
// rate limiter when one is configured.
type OllamaProvider struct {
	baseURL    string
	model      string
	dimensions int
	batchSize  int
	client     *http.Client
	limiter    *rate.Limiter
}

// OllamaOption configures an OllamaProvider.
type OllamaOption func(*OllamaProvider)

// WithBaseURL sets the Ollama API base URL.
func WithBaseURL(url string) OllamaOption {
	return func(p *OllamaProvider) {
		p.baseURL = strings.TrimRight(url, "/")
	}
}

// WithModel sets the embedding model.
func WithModel(model string) OllamaOption {
	return func(p *OllamaProvider) {
		p.model = model
	}
}

// WithDimensions sets the expected vector length.
// Zero accepts whatever length the model returns.
func WithDimensions(dims int) OllamaOption {
	return func(p *OllamaProvider) {
		p.dimensions = dims
	}
}

// WithBatchSize caps the texts per request. Values below 1 select DefaultBatchSize.
func WithBatchSize(n int) OllamaOption {
	return func(p *OllamaProvider) {
		if n < 1 {
			n = DefaultBatchSize
		}
		p.batchSize = n
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) OllamaOption {
	return func(p *OllamaProvider) {
		p.client.Timeout = timeout
	}
}

// WithRateLimit caps embed requests per second. Zero or negative disables the limit.
func WithRateLimit(perSecond float64) OllamaOption {
	return func(p *OllamaProvider) {
		if perSecond <= 0 {
			p.limiter = nil
			return
		}
		p.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// NewOllamaProvider creates a provider for the default model on localhost.
func NewOllamaProvider(opts ...OllamaOption) *OllamaProvider {
	p := &OllamaProvider{
		baseURL:    DefaultOllamaURL,
		model:      DefaultModel,
		dimensions: DefaultDimensions,
		batchSize:  DefaultBatchSize,
		client:     &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ModelName returns the name of the embedding model.
func (p *OllamaProvider) ModelName() string {
	return p.model
}

// Dimensions returns the expected vector length, 0 when any length is accepted.
func (p *OllamaProvider) Dimensions() int {
	return p.dimensions
}

// Embed embeds a single text.
func (p *OllamaProvider) Embed(ctx context.Context, text string) (Embedding, error) {
	embs, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return Embedding{}, err
	}
	return embs[0], nil
}

// EmbedBatch embeds texts in order, splitting them into requests of at most
// the configured batch size.
func (p *OllamaProvider) EmbedBatch(ctx context.Context, texts []string) ([]Embedding, error) {
	out := make([]Embedding, 0, len(texts))
	for start := 0; start < len(texts); start += p.batchSize {
		end := min(start+p.batchSize, len(texts))
		vecs, err := p.embedChunk(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		for _, v := range vecs {
			out = append(out, Embedding{Vector: v})
		}
	}
	return out, nil
}

func (p *OllamaProvider) embedChunk(ctx context.Context, texts []string) ([][]float32, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	var result embedResponse
	if err := p.post(ctx, apiPathEmbed, embedRequest{Model: p.model, Input: texts}, &result); err != nil {
		return nil, err
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama returned %d embeddings for %d texts", len(result.Embeddings), len(texts))
	}
	for i, v := range result.Embeddings {
		if err := p.checkVector(v); err != nil {
			return nil, fmt.Errorf("text %d of batch: %w", i, err)
		}
	}
	return result.Embeddings, nil
}

func (p *OllamaProvider) checkVector(v []float32) error {
	if len(v) == 0 {
		return fmt.Errorf("ollama returned an empty embedding for model %s", p.model)
	}
	if p.dimensions > 0 && len(v) != p.dimensions {
		return fmt.Errorf("unexpected embedding dimensions: got %d, want %d", len(v), p.dimensions)
	}
	return nil
}

// post sends in as JSON and decodes a 200 response into out.
func (p *OllamaProvider) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return p.do(req, out)
}

func (p *OllamaProvider) do(req *http.Request, out any) error {
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, formatErrorBody(resp.Body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func formatErrorBody(body io.Reader) string {
	respBody, err := io.ReadAll(body)
	if err != nil {
		return fmt.Sprintf("(failed to read response body: %v)", err)
	}
	return strings.TrimSpace(string(respBody))
}

// listModels returns the names of the models pulled into Ollama.
func (p *OllamaProvider) listModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+apiPathTags, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	var result tagsResponse
	if err := p.do(req, &result); err != nil {
		return nil, err
	}
	names := make([]string, len(result.Models))
	for i, m := range result.Models {
		names[i] = m.Name
	}
	return names, nil
}

// IsAvailable checks that the Ollama server answers.
func (p *OllamaProvider) IsAvailable(ctx context.Context) error {
	if _, err := p.listModels(ctx); err != nil {
		return fmt.Errorf("ollama is not running: %w", err)
	}
	return nil
}

// HasModel reports whether the configured model has been pulled.
func (p *OllamaProvider) HasModel(ctx context.Context) (bool, error) {
	names, err := p.listModels(ctx)
	if err != nil {
		return false, fmt.Errorf("checking models: %w", err)
	}
	for _, name := range names {
		if sameModel(name, p.model) {
			return true, nil
		}
	}
	return false, nil
}

// sameModel compares model names, treating a missing tag as ":latest".
func sameModel(a, b string) bool {
	return withTag(a) == withTag(b)
}

func withTag(name string) string {
	if strings.Contains(name, ":") {
		return name
	}
	return name + ":latest"
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float32 `json:"embeddings"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}
