package config

import (
	"context"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/calque-ai/ragate/pkg/cache"
	"github.com/calque-ai/ragate/pkg/embedding"
	"github.com/calque-ai/ragate/pkg/embedding/gemini"
	"github.com/calque-ai/ragate/pkg/embedding/ollama"
	"github.com/calque-ai/ragate/pkg/embedding/openai"
	"github.com/calque-ai/ragate/pkg/helpers"
	"github.com/calque-ai/ragate/pkg/retrieval"
	"github.com/calque-ai/ragate/pkg/retrieval/mock"
	"github.com/calque-ai/ragate/pkg/retrieval/pgvector"
	"github.com/calque-ai/ragate/pkg/retrieval/qdrant"
	"github.com/calque-ai/ragate/pkg/retrieval/weaviate"
)

// Backend is a search backend that can be health-checked and closed.
type Backend interface {
	retrieval.Searcher
	Health(ctx context.Context) error
	Close() error
}

// SearchBackend is the configured backend, optionally behind a result cache.
type SearchBackend struct {
	// Name is the configured backend name.
	Name string

	backend  Backend
	searcher retrieval.Searcher
}

// Search runs through the cache when one is configured.
func (b *SearchBackend) Search(ctx context.Context, text string, limit int) ([]retrieval.SearchHit, error) {
	return b.searcher.Search(ctx, text, limit)
}

// Health checks the underlying backend, bypassing the cache.
func (b *SearchBackend) Health(ctx context.Context) error {
	return b.backend.Health(ctx)
}

// Storer returns the backend as a document store when it supports indexing.
func (b *SearchBackend) Storer() (DocumentStore, bool) {
	s, ok := b.backend.(DocumentStore)
	return s, ok
}

func (b *SearchBackend) Close() error {
	return b.backend.Close()
}

// DocumentStore indexes documents. The vector backends implement it.
type DocumentStore interface {
	Store(ctx context.Context, docs []retrieval.Document) error
}

// Embedder builds the configured query embedding provider.
func (c *Config) Embedder(ctx context.Context) (retrieval.EmbeddingProvider, error) {
	e := c.Embedding
	switch e.Provider {
	case "openai":
		opts := []openai.Option{}
		if e.APIKey != "" {
			opts = append(opts, openai.WithAPIKey(e.APIKey))
		}
		if e.URL != "" {
			opts = append(opts, openai.WithBaseURL(e.URL))
		}
		if e.Model != "" {
			opts = append(opts, openai.WithModel(e.Model))
		}
		if e.Dimension > 0 {
			opts = append(opts, openai.WithDimensions(e.Dimension))
		}
		return openai.New(opts...)
	case "ollama":
		return ollama.New(&ollama.Config{Host: e.URL, Model: e.Model, Truncate: true})
	case "gemini":
		gc := gemini.DefaultConfig()
		gc.Model = helpers.DefaultString(e.Model, gc.Model)
		gc.APIKey = helpers.DefaultString(e.APIKey, gc.APIKey)
		gc.BaseURL = e.URL
		gc.Dimensions = int32(e.Dimension)
		return gemini.New(ctx, gc)
	default:
		return embedding.NewHashing(e.Dimension), nil
	}
}

// vectorDimension is the size used when a backend creates its collection.
func (c *Config) vectorDimension(backendDimension int) int {
	if backendDimension > 0 {
		return backendDimension
	}
	if c.Embedding.Dimension > 0 {
		return c.Embedding.Dimension
	}
	if c.Embedding.Provider == DefaultEmbedder {
		return embedding.DefaultHashingDimension
	}
	return 0
}

// SearchBackend opens the configured backend. When search.cache_ttl_seconds
// is positive and store is non-nil, searches are cached in store.
func (c *Config) SearchBackend(ctx context.Context, store cache.Store) (*SearchBackend, error) {
	backend, err := c.openBackend(ctx)
	if err != nil {
		return nil, err
	}

	sb := &SearchBackend{Name: c.Search.Backend, backend: backend, searcher: backend}
	if c.Search.CacheTTLSeconds > 0 && store != nil {
		ttl := time.Duration(c.Search.CacheTTLSeconds) * time.Second
		sb.searcher = retrieval.NewCachingSearcher(backend, store, ttl, c.Search.Backend)
	}
	return sb, nil
}

func (c *Config) openBackend(ctx context.Context) (Backend, error) {
	s := c.Search
	if s.Backend == DefaultSearchBackend {
		docs, err := LoadCorpus(s.Mock.CorpusPath)
		if err != nil {
			return nil, err
		}
		return mock.New(docs), nil
	}

	embedder, err := c.Embedder(ctx)
	if err != nil {
		return nil, helpers.WrapError(err, "build embedding provider")
	}

	switch s.Backend {
	case "qdrant":
		return qdrant.New(&qdrant.Config{
			URL:               s.Qdrant.URL,
			CollectionName:    s.Qdrant.Collection,
			APIKey:            s.Qdrant.APIKey,
			VectorDimension:   c.vectorDimension(s.Qdrant.Dimension),
			EmbeddingProvider: embedder,
		})
	case "pgvector":
		return pgvector.New(ctx, &pgvector.Config{
			ConnectionString:  s.PGVector.DSN,
			TableName:         s.PGVector.Table,
			VectorDimension:   c.vectorDimension(s.PGVector.Dimension),
			EmbeddingProvider: embedder,
		})
	case "weaviate":
		return weaviate.New(&weaviate.Config{
			URL:               s.Weaviate.URL,
			ClassName:         s.Weaviate.Class,
			APIKey:            s.Weaviate.APIKey,
			EmbeddingProvider: embedder,
		})
	default:
		return nil, helpers.NewError("unknown search backend %q", s.Backend)
	}
}

// LoadCorpus reads a YAML or JSON list of documents. An empty path yields no
// documents.
func LoadCorpus(path string) ([]retrieval.Document, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, helpers.WrapErrorf(err, "read corpus %s", path)
	}
	var docs []retrieval.Document
	if err := yaml.Unmarshal(data, &docs); err != nil {
		return nil, helpers.WrapErrorf(err, "parse corpus %s", path)
	}
	return docs, nil
}
