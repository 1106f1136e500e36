// Package embeddings provides embedding generation via langchaingo.
//
// The service wraps langchaingo's embedder over any OpenAI-compatible
// embedding endpoint. The documentation pipeline uses it to vectorize
// parsed code elements before indexing them for retrieval.
//
// Example:
//
//	config := embeddings.Config{
//	    BaseURL: "https://openrouter.ai/api/v1",
//	    Model:   "openai/text-embedding-3-small",
//	    APIKey:  os.Getenv("AUTODOC_LLM_API_KEY"),
//	}
//	service, err := embeddings.NewService(config)
//	if err != nil {
//	    // Handle error
//	}
//	vectors, err := service.Embed(ctx, []string{"func main() {}"})
package embeddings

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

var (
	// ErrEmptyInput indicates empty or nil input texts.
	ErrEmptyInput = errors.New("empty or nil input texts")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config holds configuration for the embedding service.
type Config struct {
	// BaseURL is the embedding API endpoint. Any OpenAI-compatible
	// server works, including local TEI instances.
	BaseURL string

	// Model is the embedding model name.
	Model string

	// APIKey authenticates against the endpoint. Optional for local
	// servers that accept any token.
	APIKey string
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base URL required", ErrInvalidConfig)
	}
	if c.Model == "" {
		return fmt.Errorf("%w: model required", ErrInvalidConfig)
	}
	return nil
}

// Service generates vector embeddings for text content.
type Service struct {
	embedder *embeddings.EmbedderImpl
	config   Config
}

// NewService creates an embedding service for the configured endpoint.
func NewService(config Config) (*Service, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	apiKey := config.APIKey
	if apiKey == "" {
		// langchaingo requires a token even for local servers.
		apiKey = "placeholder"
	}

	llm, err := openai.New(
		openai.WithBaseURL(config.BaseURL),
		openai.WithModel(config.Model),
		openai.WithEmbeddingModel(config.Model),
		openai.WithToken(apiKey),
	)
	if err != nil {
		return nil, fmt.Errorf("creating OpenAI client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	return &Service{embedder: embedder, config: config}, nil
}

// Embedder returns the underlying langchaingo Embedder for use with
// components that require the interface directly (the vector store).
func (s *Service) Embedder() embeddings.Embedder {
	return s.embedder
}

// Embed generates one vector per input text. All vectors share the
// model's dimensionality.
//
// Returns ErrEmptyInput if texts is empty or nil.
func (s *Service) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: texts cannot be empty", ErrEmptyInput)
	}

	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding documents: %w", err)
	}
	return vectors, nil
}
