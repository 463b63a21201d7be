// Package gemini embeds queries with the Google Gemini API.
package gemini

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/genai"

	"github.com/calque-ai/ragate/pkg/retrieval"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "text-embedding-004"

// Client is a retrieval.EmbeddingProvider backed by Gemini.
type Client struct {
	client *genai.Client
	model  string
	config *Config
}

// Config holds Gemini embedding configuration.
type Config struct {
	// Required. API key, defaults to GOOGLE_API_KEY
	APIKey string

	// Optional. Embedding model, defaults to text-embedding-004
	Model string

	// Optional. Truncated output dimension
	Dimensions int32

	// Optional. Task type hint such as RETRIEVAL_QUERY
	TaskType string

	// Optional. Override the API endpoint
	BaseURL string
}

// DefaultConfig creates config with GOOGLE_API_KEY from env.
func DefaultConfig() *Config {
	return &Config{
		APIKey:   os.Getenv("GOOGLE_API_KEY"),
		Model:    DefaultModel,
		TaskType: "RETRIEVAL_QUERY",
	}
}

// New creates a Gemini embedding client. A nil config uses DefaultConfig.
//
// Requires GOOGLE_API_KEY environment variable or config.APIKey.
func New(ctx context.Context, config *Config) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("GOOGLE_API_KEY environment variable not set or provided in config")
	}
	model := config.Model
	if model == "" {
		model = DefaultModel
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Client{
		client: client,
		model:  model,
		config: config,
	}, nil
}

// Embed returns the embedding of text.
func (c *Client) Embed(ctx context.Context, text string) (retrieval.EmbeddingVector, error) {
	cfg := &genai.EmbedContentConfig{TaskType: c.config.TaskType}
	if c.config.Dimensions > 0 {
		cfg.OutputDimensionality = genai.Ptr(c.config.Dimensions)
	}

	resp, err := c.client.Models.EmbedContent(ctx, c.model, genai.Text(text), cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini embedding request failed: %w", err)
	}
	if len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, fmt.Errorf("gemini returned no embeddings for model %s", c.model)
	}
	return retrieval.EmbeddingVector(resp.Embeddings[0].Values), nil
}
