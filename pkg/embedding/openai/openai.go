// Package openai embeds queries with the OpenAI embeddings API.
package openai

import (
	"context"
	"fmt"
	"os"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/calque-ai/ragate/pkg/retrieval"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = openai.EmbeddingModelTextEmbedding3Small

// Client is a retrieval.EmbeddingProvider backed by OpenAI.
type Client struct {
	client *openai.Client
	model  openai.EmbeddingModel
	config *Config
}

// Config holds OpenAI embedding configuration.
type Config struct {
	// Required. API key, defaults to OPENAI_API_KEY
	APIKey string

	// Optional. Custom endpoint for OpenAI-compatible servers
	BaseURL string

	// Optional. Embedding model, defaults to text-embedding-3-small
	Model string

	// Optional. Output dimension for models that support shortening
	Dimensions int
}

// Option configures the client
type Option func(*Config)

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option { return func(c *Config) { c.APIKey = key } }

// WithBaseURL points the client at an OpenAI-compatible server.
func WithBaseURL(u string) Option { return func(c *Config) { c.BaseURL = u } }

// WithModel sets the embedding model.
func WithModel(model string) Option { return func(c *Config) { c.Model = model } }

// WithDimensions requests shortened embeddings.
func WithDimensions(n int) Option { return func(c *Config) { c.Dimensions = n } }

// DefaultConfig returns defaults with OPENAI_API_KEY from env.
func DefaultConfig() *Config {
	return &Config{
		APIKey: os.Getenv("OPENAI_API_KEY"),
		Model:  DefaultModel,
	}
}

// New creates an OpenAI embedding client.
//
// Example:
//
//	embedder, err := openai.New(openai.WithDimensions(768))
//	vec, err := embedder.Embed(ctx, "how are embeddings stored")
func New(opts ...Option) (*Client, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(config)
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set or provided in config")
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}

	clientOptions := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		clientOptions = append(clientOptions, option.WithBaseURL(config.BaseURL))
	}
	openaiClient := openai.NewClient(clientOptions...)

	return &Client{
		client: &openaiClient,
		model:  openai.EmbeddingModel(config.Model),
		config: config,
	}, nil
}

// Embed returns the embedding of text.
func (c *Client) Embed(ctx context.Context, text string) (retrieval.EmbeddingVector, error) {
	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: c.model,
	}
	if c.config.Dimensions > 0 {
		params.Dimensions = openai.Int(int64(c.config.Dimensions))
	}

	resp, err := c.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai embedding request failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai returned no embeddings")
	}

	values := resp.Data[0].Embedding
	vec := make(retrieval.EmbeddingVector, len(values))
	for i, v := range values {
		vec[i] = float32(v)
	}
	return vec, nil
}
