// Package openai wraps the OpenAI embeddings API for generating query
// embeddings. The cache itself never embeds anything; this client
// exists for callers (CLI, ops server) that hold raw query text.
package openai

import (
	"context"
	"errors"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultEmbeddingModel is the model used for query embeddings.
	DefaultEmbeddingModel = openai.AdaEmbeddingV2
	// DefaultEmbeddingDimensions is the expected dimension for ada-002.
	DefaultEmbeddingDimensions = 1536
)

var (
	// ErrEmptyQuery is returned when the query text is empty
	ErrEmptyQuery = errors.New("query text cannot be empty")
	// ErrNoAPIKey is returned when OpenAI API key is not set
	ErrNoAPIKey = errors.New("OPENAI_API_KEY environment variable not set")
)

// EmbeddingAPI defines the interface for embedding generation
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, text string) ([]float32, error)
}

// Client generates query embeddings with a dimension check so a
// misconfigured model cannot feed mismatched vectors into a cache scope.
type Client struct {
	api        EmbeddingAPI
	dimensions int
}

type apiAdapter struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func (a *apiAdapter) CreateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: a.model,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding data returned")
	}

	return resp.Data[0].Embedding, nil
}

// Config controls the model and expected vector dimensions.
type Config struct {
	APIKey         string
	EmbeddingModel openai.EmbeddingModel
	Dimensions     int
}

// NewClient creates a client with the default model and dimensions.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(Config{APIKey: apiKey})
}

// NewClientWithConfig creates a client with explicit configuration.
func NewClientWithConfig(cfg Config) *Client {
	model := cfg.EmbeddingModel
	if model == "" {
		model = DefaultEmbeddingModel
	}
	dimensions := cfg.Dimensions
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	return &Client{
		api:        &apiAdapter{client: openai.NewClient(cfg.APIKey), model: model},
		dimensions: dimensions,
	}
}

// NewClientFromEnv creates a client using the OPENAI_API_KEY environment variable
func NewClientFromEnv() (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return NewClient(apiKey), nil
}

// NewClientWithAPI creates a client over a custom EmbeddingAPI. Used in tests.
func NewClientWithAPI(api EmbeddingAPI, dimensions int) *Client {
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	return &Client{api: api, dimensions: dimensions}
}

// GenerateQueryEmbedding generates an embedding for the given query text.
func (c *Client) GenerateQueryEmbedding(ctx context.Context, query string) ([]float32, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}

	embedding, err := c.api.CreateEmbeddings(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}

	if len(embedding) != c.dimensions {
		return nil, fmt.Errorf("embedding has %d dimensions, expected %d", len(embedding), c.dimensions)
	}

	return embedding, nil
}
