// Package llm provides text generation via langchaingo.
//
// The service talks to any OpenAI-compatible chat endpoint (OpenRouter,
// OpenAI, a local server) and exposes the generation operations the
// documentation pipeline needs: code summarization, docstring enhancement,
// translation, and retrieval-grounded answering. Transient failures (rate
// limits, unavailability) are retried with bounded exponential backoff
// before being surfaced to the caller.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrRateLimited indicates the provider throttled the request.
	// Retryable.
	ErrRateLimited = errors.New("rate limited")

	// ErrServiceUnavailable indicates the provider could not be reached
	// or returned a transient server error. Retryable.
	ErrServiceUnavailable = errors.New("service unavailable")
)

// RetryConfig bounds the backoff applied to retryable failures.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts. Default: 3.
	MaxRetries int

	// InitialBackoff is the first backoff duration. Default: 1s.
	InitialBackoff time.Duration

	// MaxBackoff caps the backoff duration. Default: 30s.
	MaxBackoff time.Duration

	// BackoffMultiplier grows the backoff per attempt. Default: 2.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// ApplyDefaults sets default values for unset fields.
func (c *RetryConfig) ApplyDefaults() {
	defaults := DefaultRetryConfig()
	if c.MaxRetries == 0 {
		c.MaxRetries = defaults.MaxRetries
	}
	if c.InitialBackoff == 0 {
		c.InitialBackoff = defaults.InitialBackoff
	}
	if c.MaxBackoff == 0 {
		c.MaxBackoff = defaults.MaxBackoff
	}
	if c.BackoffMultiplier == 0 {
		c.BackoffMultiplier = defaults.BackoffMultiplier
	}
}

// Config holds configuration for the generation service.
type Config struct {
	// BaseURL is the OpenAI-compatible API endpoint,
	// e.g. https://openrouter.ai/api/v1.
	BaseURL string

	// APIKey authenticates against the endpoint.
	APIKey string

	// Per-operation model names.
	SummaryModel     string
	DocstringModel   string
	TranslationModel string
	OverviewModel    string

	Retry RetryConfig
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base URL required", ErrInvalidConfig)
	}
	if c.APIKey == "" {
		return fmt.Errorf("%w: API key required", ErrInvalidConfig)
	}
	if c.SummaryModel == "" {
		return fmt.Errorf("%w: summary model required", ErrInvalidConfig)
	}
	return nil
}

// Snippet is one code element handed to the model.
type Snippet struct {
	ID        string
	Name      string
	Kind      string
	Language  string
	Code      string
	Docstring string
}

// generator is the narrow langchaingo surface the service uses,
// substitutable in tests.
type generator interface {
	Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error)
}

// Service generates documentation text through a chat model.
type Service struct {
	model  generator
	config Config
}

// NewService creates a generation service for the configured endpoint.
func NewService(config Config) (*Service, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	config.Retry.ApplyDefaults()
	if config.DocstringModel == "" {
		config.DocstringModel = config.SummaryModel
	}
	if config.TranslationModel == "" {
		config.TranslationModel = config.SummaryModel
	}
	if config.OverviewModel == "" {
		config.OverviewModel = config.SummaryModel
	}

	model, err := openai.New(
		openai.WithBaseURL(config.BaseURL),
		openai.WithToken(config.APIKey),
		openai.WithModel(config.SummaryModel),
	)
	if err != nil {
		return nil, fmt.Errorf("creating OpenAI client: %w", err)
	}

	return &Service{model: model, config: config}, nil
}

// Summarize produces a concise summary of the snippet.
func (s *Service) Summarize(ctx context.Context, sn Snippet) (string, error) {
	return s.generate(ctx, s.config.SummaryModel, summarizePrompt(sn))
}

// EnhanceDocstring produces a finalized docstring for the snippet,
// improving the existing one when present.
func (s *Service) EnhanceDocstring(ctx context.Context, sn Snippet, summary string) (string, error) {
	return s.generate(ctx, s.config.DocstringModel, docstringPrompt(sn, summary))
}

// Translate renders text into the target language, preserving Markdown
// structure and code blocks.
func (s *Service) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	return s.generate(ctx, s.config.TranslationModel, translatePrompt(text, targetLanguage))
}

// Answer responds to a question grounded in the retrieved context chunks.
func (s *Service) Answer(ctx context.Context, question string, contextChunks []string) (string, error) {
	return s.generate(ctx, s.config.OverviewModel, answerPrompt(question, contextChunks))
}

// generate runs one prompt with bounded-backoff retries on transient
// failures. Non-retryable errors escalate immediately.
func (s *Service) generate(ctx context.Context, model, prompt string) (string, error) {
	retry := s.config.Retry
	backoff := retry.InitialBackoff
	var lastErr error

	for attempt := 0; attempt <= retry.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
			backoff = time.Duration(float64(backoff) * retry.BackoffMultiplier)
			if backoff > retry.MaxBackoff {
				backoff = retry.MaxBackoff
			}
		}

		out, err := s.model.Call(ctx, prompt, llms.WithModel(model))
		if err == nil {
			return strings.TrimSpace(out), nil
		}

		lastErr = classify(err)
		if !errors.Is(lastErr, ErrRateLimited) && !errors.Is(lastErr, ErrServiceUnavailable) {
			return "", lastErr
		}
	}

	return "", fmt.Errorf("retries exhausted: %w", lastErr)
}

// classify maps provider errors onto the package sentinels. The OpenAI
// wire format does not expose typed errors through langchaingo, so
// classification is by status text.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit"):
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	case strings.Contains(msg, "502") || strings.Contains(msg, "503") ||
		strings.Contains(msg, "connection refused") || strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "no such host") || strings.Contains(msg, "unavailable"):
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	default:
		return err
	}
}
