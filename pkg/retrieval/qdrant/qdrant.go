// Package qdrant implements retrieval.Searcher over a Qdrant collection using
// the gRPC client.
package qdrant

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	qd "github.com/qdrant/go-client/qdrant"

	"github.com/calque-ai/ragate/pkg/retrieval"
)

const (
	// DefaultPort is Qdrant's gRPC port.
	DefaultPort = 6334

	// DefaultCollection is used when Config.CollectionName is empty.
	DefaultCollection = "documents"

	contentKey  = "content"
	sourceIDKey = "source_id"
)

// Client searches one Qdrant collection. Queries are embedded with the
// configured provider and matched by cosine similarity.
type Client struct {
	client     *qd.Client
	collection string
	dimension  uint64
	embedder   retrieval.EmbeddingProvider
}

// Config holds Qdrant client configuration.
type Config struct {
	// Qdrant gRPC endpoint
	// Example: "http://localhost:6334" or "https://cluster.example.com:6334"
	URL string

	// Collection holding the passages
	CollectionName string

	// Optional API key for authentication
	APIKey string

	// VectorDimension is used when Store creates the collection
	VectorDimension int

	// EmbeddingProvider turns query text into a vector (required)
	EmbeddingProvider retrieval.EmbeddingProvider
}

// New creates a new Qdrant client with the specified configuration.
//
// Example:
//
//	client, err := qdrant.New(&qdrant.Config{
//	    URL:               "http://localhost:6334",
//	    CollectionName:    "passages",
//	    EmbeddingProvider: embedder,
//	})
func New(config *Config) (*Client, error) {
	if config == nil || config.URL == "" {
		return nil, fmt.Errorf("qdrant URL is required")
	}
	if config.EmbeddingProvider == nil {
		return nil, fmt.Errorf("qdrant search requires an embedding provider")
	}

	host, port, useTLS, err := parseEndpoint(config.URL)
	if err != nil {
		return nil, err
	}

	qdrantClient, err := qd.NewClient(&qd.Config{
		Host:   host,
		Port:   port,
		APIKey: config.APIKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	collection := config.CollectionName
	if collection == "" {
		collection = DefaultCollection
	}
	dimension := config.VectorDimension
	if dimension <= 0 {
		dimension = 1536
	}

	return &Client{
		client:     qdrantClient,
		collection: collection,
		dimension:  uint64(dimension),
		embedder:   config.EmbeddingProvider,
	}, nil
}

// Search embeds text and returns up to limit nearest points. Qdrant reports
// cosine similarity, so Score is converted to the distance 1 - similarity.
func (c *Client) Search(ctx context.Context, text string, limit int) ([]retrieval.SearchHit, error) {
	if limit <= 0 {
		return []retrieval.SearchHit{}, nil
	}

	vector, err := c.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	points, err := c.client.Query(ctx, &qd.QueryPoints{
		CollectionName: c.collection,
		Query:          qd.NewQuery(vector...),
		Limit:          qd.PtrOf(uint64(limit)),
		WithPayload:    qd.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant search failed: %w", err)
	}

	hits := make([]retrieval.SearchHit, 0, len(points))
	for _, p := range points {
		hits = append(hits, pointToHit(p))
	}
	return hits, nil
}

// Store embeds and upserts documents, creating the collection if needed.
// Document IDs are mapped to UUIDv5 point IDs; the original ID is kept in the
// payload.
func (c *Client) Store(ctx context.Context, docs []retrieval.Document) error {
	if len(docs) == 0 {
		return nil
	}
	if err := c.ensureCollection(ctx); err != nil {
		return err
	}

	points := make([]*qd.PointStruct, 0, len(docs))
	for _, doc := range docs {
		if doc.Content == "" {
			continue
		}
		vector, err := c.embedder.Embed(ctx, doc.Content)
		if err != nil {
			return fmt.Errorf("failed to embed document %s: %w", doc.ID, err)
		}
		points = append(points, &qd.PointStruct{
			Id:      qd.NewID(pointID(doc.ID)),
			Vectors: qd.NewVectors(vector...),
			Payload: buildPayload(doc),
		})
	}
	if len(points) == 0 {
		return nil
	}

	_, err := c.client.Upsert(ctx, &qd.UpsertPoints{
		CollectionName: c.collection,
		Points:         points,
		Wait:           qd.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points to collection %s: %w", c.collection, err)
	}
	return nil
}

// Health checks if the Qdrant server is available and responsive.
func (c *Client) Health(ctx context.Context) error {
	if _, err := c.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant health check failed: %w", err)
	}
	return nil
}

// Close releases the gRPC connection.
func (c *Client) Close() error {
	if err := c.client.Close(); err != nil {
		return fmt.Errorf("close qdrant client: %w", err)
	}
	return nil
}

func (c *Client) ensureCollection(ctx context.Context) error {
	exists, err := c.client.CollectionExists(ctx, c.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection %s: %w", c.collection, err)
	}
	if exists {
		return nil
	}

	err = c.client.CreateCollection(ctx, &qd.CreateCollection{
		CollectionName: c.collection,
		VectorsConfig: qd.NewVectorsConfig(&qd.VectorParams{
			Size:     c.dimension,
			Distance: qd.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", c.collection, err)
	}
	return nil
}

func parseEndpoint(raw string) (host string, port int, useTLS bool, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", 0, false, fmt.Errorf("invalid qdrant URL: %w", err)
	}
	if u.Hostname() == "" {
		return "", 0, false, fmt.Errorf("invalid qdrant URL %q: missing host", raw)
	}

	port = DefaultPort
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return "", 0, false, fmt.Errorf("invalid qdrant port %q: %w", p, err)
		}
	}
	return u.Hostname(), port, u.Scheme == "https", nil
}

func pointID(docID string) string {
	if _, err := uuid.Parse(docID); err == nil {
		return docID
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(docID)).String()
}

func buildPayload(doc retrieval.Document) map[string]*qd.Value {
	payload := make(map[string]*qd.Value, len(doc.Metadata)+2)
	for k, v := range doc.Metadata {
		payload[k] = qd.NewValueString(v)
	}
	payload[contentKey] = qd.NewValueString(doc.Content)
	payload[sourceIDKey] = qd.NewValueString(doc.ID)
	return payload
}

func pointToHit(p *qd.ScoredPoint) retrieval.SearchHit {
	hit := retrieval.SearchHit{
		Score:    1 - float64(p.GetScore()),
		Metadata: make(map[string]string),
	}

	for k, v := range p.GetPayload() {
		s, ok := valueString(v)
		if !ok {
			continue
		}
		switch k {
		case contentKey:
			hit.Content = s
		case sourceIDKey:
			hit.SourceID = s
		default:
			hit.Metadata[k] = s
		}
	}

	if hit.SourceID == "" && p.GetId() != nil {
		if u := p.GetId().GetUuid(); u != "" {
			hit.SourceID = u
		} else {
			hit.SourceID = strconv.FormatUint(p.GetId().GetNum(), 10)
		}
	}
	return hit
}

func valueString(v *qd.Value) (string, bool) {
	switch k := v.GetKind().(type) {
	case *qd.Value_StringValue:
		return k.StringValue, true
	case *qd.Value_IntegerValue:
		return strconv.FormatInt(k.IntegerValue, 10), true
	case *qd.Value_DoubleValue:
		return strconv.FormatFloat(k.DoubleValue, 'f', -1, 64), true
	case *qd.Value_BoolValue:
		return strconv.FormatBool(k.BoolValue), true
	default:
		return "", false
	}
}
