// Package ollama embeds queries with a local or remote Ollama server.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"

	"github.com/calque-ai/ragate/pkg/retrieval"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "nomic-embed-text"

// Client is a retrieval.EmbeddingProvider backed by Ollama.
type Client struct {
	client *api.Client
	model  string
}

// Config holds Ollama embedding configuration.
//
// Example:
//
//	config := &ollama.Config{
//		Host:  "http://192.168.1.100:11434",
//		Model: "mxbai-embed-large",
//	}
type Config struct {
	// Optional. Ollama server host (defaults to localhost:11434 or OLLAMA_HOST env)
	Host string

	// Optional. Embedding model, defaults to nomic-embed-text
	Model string

	// Optional. Truncate inputs that exceed the model context
	Truncate bool
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Host:     "", // Will use ClientFromEnvironment() default
		Model:    DefaultModel,
		Truncate: true,
	}
}

// New creates an Ollama embedding client. A nil config uses DefaultConfig.
func New(config *Config) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	model := config.Model
	if model == "" {
		model = DefaultModel
	}

	var client *api.Client
	var err error

	if config.Host == "" {
		client, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama client: %w", err)
		}
	} else {
		u, err := url.Parse(config.Host)
		if err != nil {
			return nil, fmt.Errorf("invalid Ollama host %q: %w", config.Host, err)
		}
		client = api.NewClient(u, http.DefaultClient)
	}

	return &Client{client: client, model: model}, nil
}

// Embed returns the embedding of text.
func (c *Client) Embed(ctx context.Context, text string) (retrieval.EmbeddingVector, error) {
	resp, err := c.client.Embed(ctx, &api.EmbedRequest{
		Model: c.model,
		Input: text,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embedding request failed: %w", err)
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("ollama returned no embeddings for model %s", c.model)
	}
	return retrieval.EmbeddingVector(resp.Embeddings[0]), nil
}
