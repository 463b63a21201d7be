// Package weaviate implements retrieval.Searcher over a Weaviate class using
// GraphQL nearVector (client-side embeddings) or nearText (server-side
// vectorizer) queries.
package weaviate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/calque-ai/ragate/pkg/retrieval"
)

// DefaultClass is used when Config.ClassName is empty.
const DefaultClass = "Passage"

const (
	contentProp  = "content"
	sourceProp   = "source_id"
	metadataProp = "metadata"
)

// Client searches one Weaviate class.
type Client struct {
	client    *weaviate.Client
	className string
	embedder  retrieval.EmbeddingProvider
}

// Config holds Weaviate client configuration.
type Config struct {
	// Weaviate instance URL, e.g. "http://localhost:8080"
	URL string

	// Class holding the passages
	ClassName string

	// Optional API key for authentication
	APIKey string

	// Optional. When nil the query runs as nearText and the class must have a
	// vectorizer module configured.
	EmbeddingProvider retrieval.EmbeddingProvider
}

// New creates a Weaviate client.
//
// Example:
//
//	client, err := weaviate.New(&weaviate.Config{
//	    URL:               "http://localhost:8080",
//	    ClassName:         "Passage",
//	    EmbeddingProvider: embedder,
//	})
func New(config *Config) (*Client, error) {
	if config == nil || config.URL == "" {
		return nil, fmt.Errorf("weaviate URL is required")
	}
	u, err := url.Parse(config.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid weaviate URL %q", config.URL)
	}

	className := config.ClassName
	if className == "" {
		className = DefaultClass
	}

	clientConf := weaviate.Config{
		Host:   u.Host,
		Scheme: u.Scheme,
	}
	if config.APIKey != "" {
		clientConf.AuthConfig = auth.ApiKey{Value: config.APIKey}
	}
	client, err := weaviate.NewClient(clientConf)
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %w", err)
	}

	return &Client{
		client:    client,
		className: className,
		embedder:  config.EmbeddingProvider,
	}, nil
}

func searchFields() []graphql.Field {
	return []graphql.Field{
		{Name: contentProp},
		{Name: sourceProp},
		{Name: metadataProp},
		{Name: "_additional", Fields: []graphql.Field{
			{Name: "id"},
			{Name: "distance"},
		}},
	}
}

// Search returns up to limit objects nearest to text. Weaviate reports a
// distance already, so it is passed through unchanged.
func (c *Client) Search(ctx context.Context, text string, limit int) ([]retrieval.SearchHit, error) {
	if limit <= 0 {
		return []retrieval.SearchHit{}, nil
	}

	get := c.client.GraphQL().Get().
		WithClassName(c.className).
		WithFields(searchFields()...).
		WithLimit(limit)

	if c.embedder != nil {
		vector, err := c.embedder.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed query: %w", err)
		}
		get = get.WithNearVector(c.client.GraphQL().NearVectorArgBuilder().WithVector(vector))
	} else {
		get = get.WithNearText(c.client.GraphQL().NearTextArgBuilder().WithConcepts([]string{text}))
	}

	result, err := get.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("weaviate search failed: %w", err)
	}
	if len(result.Errors) > 0 {
		msgs := make([]string, 0, len(result.Errors))
		for _, e := range result.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, fmt.Errorf("weaviate search failed: %s", strings.Join(msgs, "; "))
	}
	return parseHits(result.Data, c.className)
}

// Store imports documents in one batch, creating the class if needed.
// Without an embedding provider the class vectorizer computes the vectors.
func (c *Client) Store(ctx context.Context, docs []retrieval.Document) error {
	if len(docs) == 0 {
		return nil
	}
	if err := c.ensureClass(ctx); err != nil {
		return err
	}

	objects := make([]*models.Object, 0, len(docs))
	for _, doc := range docs {
		if doc.Content == "" {
			continue
		}
		metadataJSON, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata for document %s: %w", doc.ID, err)
		}
		obj := &models.Object{
			Class: c.className,
			ID:    strfmt.UUID(objectID(doc.ID)),
			Properties: map[string]any{
				contentProp:  doc.Content,
				sourceProp:   doc.ID,
				metadataProp: string(metadataJSON),
			},
		}
		if c.embedder != nil {
			vector, err := c.embedder.Embed(ctx, doc.Content)
			if err != nil {
				return fmt.Errorf("failed to embed document %s: %w", doc.ID, err)
			}
			obj.Vector = models.C11yVector(vector)
		}
		objects = append(objects, obj)
	}
	if len(objects) == 0 {
		return nil
	}

	resp, err := c.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to import objects to class %s: %w", c.className, err)
	}
	for _, item := range resp {
		if item.Result != nil && item.Result.Errors != nil && len(item.Result.Errors.Error) > 0 {
			return fmt.Errorf("failed to import object %s: %s", item.ID, item.Result.Errors.Error[0].Message)
		}
	}
	return nil
}

// Health reports whether the Weaviate instance is ready.
func (c *Client) Health(ctx context.Context) error {
	ready, err := c.client.Misc().ReadyChecker().Do(ctx)
	if err != nil {
		return fmt.Errorf("weaviate health check failed: %w", err)
	}
	if !ready {
		return fmt.Errorf("weaviate is not ready")
	}
	return nil
}

// Close is a no-op; the REST client holds no connection.
func (c *Client) Close() error { return nil }

func (c *Client) ensureClass(ctx context.Context) error {
	exists, err := c.client.Schema().ClassExistenceChecker().WithClassName(c.className).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to check class %s: %w", c.className, err)
	}
	if exists {
		return nil
	}
	if err := c.client.Schema().ClassCreator().WithClass(classSchema(c.className, c.embedder != nil)).Do(ctx); err != nil {
		return fmt.Errorf("failed to create class %s: %w", c.className, err)
	}
	return nil
}

func classSchema(name string, ownVectors bool) *models.Class {
	indexFilterable := true
	class := &models.Class{
		Class:       name,
		Description: "Retrievable passages",
		Properties: []*models.Property{
			{
				Name:         contentProp,
				DataType:     []string{"text"},
				Tokenization: "word",
			},
			{
				Name:            sourceProp,
				DataType:        []string{"text"},
				IndexFilterable: &indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:     metadataProp,
				DataType: []string{"text"},
			},
		},
		VectorIndexConfig: map[string]any{"distance": "cosine"},
	}
	if ownVectors {
		class.Vectorizer = "none"
	}
	return class
}

func objectID(docID string) string {
	if _, err := uuid.Parse(docID); err == nil {
		return docID
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(docID)).String()
}

// parseHits reads Get.<class>[] from a GraphQL response payload.
func parseHits(data map[string]models.JSONObject, className string) ([]retrieval.SearchHit, error) {
	get, ok := data["Get"].(map[string]any)
	if !ok {
		return []retrieval.SearchHit{}, nil
	}
	objects, ok := get[className].([]any)
	if !ok {
		return []retrieval.SearchHit{}, nil
	}

	hits := make([]retrieval.SearchHit, 0, len(objects))
	for _, obj := range objects {
		m, ok := obj.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("unexpected weaviate object %T", obj)
		}

		hit := retrieval.SearchHit{
			Content:  getString(m, contentProp),
			SourceID: getString(m, sourceProp),
			Metadata: make(map[string]string),
		}

		additional, _ := m["_additional"].(map[string]any)
		distance, ok := additional["distance"].(float64)
		if !ok {
			return nil, fmt.Errorf("weaviate object %v has no distance", additional["id"])
		}
		hit.Score = distance
		if hit.SourceID == "" {
			hit.SourceID, _ = additional["id"].(string)
		}

		if raw := getString(m, metadataProp); raw != "" && raw != "null" {
			if err := json.Unmarshal([]byte(raw), &hit.Metadata); err != nil {
				return nil, fmt.Errorf("failed to parse metadata for %s: %w", hit.SourceID, err)
			}
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func getString(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
