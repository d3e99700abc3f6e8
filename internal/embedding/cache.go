package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Errors returned by cache operations.
var (
	ErrCacheNotFound      = errors.New("embedding cache not found")
	ErrUnsupportedVersion = errors.New("unsupported cache version")
)

const (
	// CacheFileName is the name of the embedding cache file.
	CacheFileName = "embeddings.gob"

	// CurrentCacheVersion is the format version for compatibility checking.
	CurrentCacheVersion = 1
)

// Cache holds vectors for previously embedded texts of one model.
// Texts are keyed by their SHA-256 digest.
type Cache struct {
	Version   int
	ModelName string
	CreatedAt time.Time
	Vectors   map[string][]float32
}

// NewCache creates an empty cache for model.
func NewCache(model string) *Cache {
	return &Cache{
		Version:   CurrentCacheVersion,
		ModelName: model,
		CreatedAt: time.Now(),
		Vectors:   make(map[string][]float32),
	}
}

// CachePath returns the cache file path inside dir.
func CachePath(dir string) string {
	return filepath.Join(dir, CacheFileName)
}

// Len returns the number of cached vectors.
func (c *Cache) Len() int {
	return len(c.Vectors)
}

func textKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Save writes the cache atomically via a temp file and rename.
func (c *Cache) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	tempPath := path + ".tmp"
	f, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	if err := gob.NewEncoder(f).Encode(c); err != nil {
		f.Close()
		os.Remove(tempPath)
		return fmt.Errorf("encoding cache: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("closing file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// LoadCache reads a cache from disk.
// Returns ErrCacheNotFound when the file does not exist and
// ErrUnsupportedVersion when it was written in another format.
func LoadCache(path string) (*Cache, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCacheNotFound
		}
		return nil, fmt.Errorf("opening cache file: %w", err)
	}
	defer f.Close()

	var c Cache
	if err := gob.NewDecoder(f).Decode(&c); err != nil {
		return nil, fmt.Errorf("decoding cache: %w", err)
	}
	if c.Version != CurrentCacheVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrUnsupportedVersion, c.Version, CurrentCacheVersion)
	}
	if c.Vectors == nil {
		c.Vectors = make(map[string][]float32)
	}
	return &c, nil
}

// CachedProvider serves embeddings from a Cache and falls back to the
// wrapped provider for texts it has not seen. It is safe for concurrent use.
type CachedProvider struct {
	Provider

	mu     sync.Mutex
	cache  *Cache
	hits   int
	misses int
}

// NewCachedProvider wraps p with c. The cache must belong to p's model.
func NewCachedProvider(p Provider, c *Cache) (*CachedProvider, error) {
	if c.ModelName != p.ModelName() {
		return nil, fmt.Errorf("cache holds model %q, provider uses %q", c.ModelName, p.ModelName())
	}
	return &CachedProvider{Provider: p, cache: c}, nil
}

// Embed returns the cached vector for text or embeds and caches it.
func (p *CachedProvider) Embed(ctx context.Context, text string) (Embedding, error) {
	key := textKey(text)

	p.mu.Lock()
	if v, ok := p.cache.Vectors[key]; ok {
		p.hits++
		p.mu.Unlock()
		return Embedding{Vector: v}, nil
	}
	p.mu.Unlock()

	emb, err := p.Provider.Embed(ctx, text)
	if err != nil {
		return Embedding{}, err
	}

	p.mu.Lock()
	p.cache.Vectors[key] = emb.Vector
	p.misses++
	p.mu.Unlock()
	return emb, nil
}

// EmbedBatch serves cached texts and embeds the rest in one call to the
// wrapped provider (per text when it cannot batch).
func (p *CachedProvider) EmbedBatch(ctx context.Context, texts []string) ([]Embedding, error) {
	out := make([]Embedding, len(texts))
	var missing []string
	missingAt := make(map[string][]int)

	p.mu.Lock()
	for i, text := range texts {
		if v, ok := p.cache.Vectors[textKey(text)]; ok {
			out[i] = Embedding{Vector: v}
			p.hits++
			continue
		}
		if _, seen := missingAt[text]; !seen {
			missing = append(missing, text)
		}
		missingAt[text] = append(missingAt[text], i)
	}
	p.mu.Unlock()

	if len(missing) == 0 {
		return out, nil
	}

	vecs, err := embedDistinct(ctx, p.Provider, missing)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for j, text := range missing {
		p.cache.Vectors[textKey(text)] = vecs[j]
		p.misses++
		for _, i := range missingAt[text] {
			out[i] = Embedding{Vector: vecs[j]}
		}
	}
	return out, nil
}

// Stats returns cache hits and misses since creation.
func (p *CachedProvider) Stats() (hits, misses int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hits, p.misses
}

// Save persists the underlying cache.
func (p *CachedProvider) Save(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cache.Save(path)
}
