// Package config provides configuration loading for autodoc.
package config

import (
	"fmt"
	"strings"
)

// Config is the root configuration for a documentation run.
type Config struct {
	Repo       RepoConfig       `koanf:"repo"`
	Output     OutputConfig     `koanf:"output"`
	LLM        LLMConfig        `koanf:"llm"`
	Embeddings EmbeddingsConfig `koanf:"embeddings"`
	Qdrant     QdrantConfig     `koanf:"qdrant"`
	Pipeline   PipelineConfig   `koanf:"pipeline"`
	Notify     NotifyConfig     `koanf:"notify"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// RepoConfig describes the repository to document.
type RepoConfig struct {
	URL     string `koanf:"url"`
	Branch  string `koanf:"branch"`
	PAT     Secret `koanf:"pat"`
	WorkDir string `koanf:"work_dir"`
}

// OutputConfig controls where and in which languages docs are generated.
type OutputConfig struct {
	Dir       string   `koanf:"dir"`
	Languages []string `koanf:"languages"`
}

// LLMConfig configures the OpenRouter-compatible chat completion client.
// Per-stage models fall back to SummaryModel when unset.
type LLMConfig struct {
	BaseURL          string      `koanf:"base_url"`
	APIKey           Secret      `koanf:"api_key"`
	SummaryModel     string      `koanf:"summary_model"`
	DocstringModel   string      `koanf:"docstring_model"`
	TranslationModel string      `koanf:"translation_model"`
	OverviewModel    string      `koanf:"overview_model"`
	Retry            RetryConfig `koanf:"retry"`
}

// RetryConfig controls retry behavior for LLM calls.
type RetryConfig struct {
	MaxRetries        int      `koanf:"max_retries"`
	InitialBackoff    Duration `koanf:"initial_backoff"`
	MaxBackoff        Duration `koanf:"max_backoff"`
	BackoffMultiplier float64  `koanf:"backoff_multiplier"`
}

// EmbeddingsConfig configures the embedding model used for RAG.
type EmbeddingsConfig struct {
	BaseURL string `koanf:"base_url"`
	Model   string `koanf:"model"`
	APIKey  Secret `koanf:"api_key"`
}

// QdrantConfig configures the vector store backing the RAG stage.
type QdrantConfig struct {
	URL string `koanf:"url"`
}

// PipelineConfig controls stage execution.
type PipelineConfig struct {
	StageTimeout       Duration `koanf:"stage_timeout"`
	ElementConcurrency int      `koanf:"element_concurrency"`
}

// NotifyConfig configures the completion notification webhook.
type NotifyConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Endpoint string `koanf:"endpoint"`
	APIKey   Secret `koanf:"api_key"`
	From     string `koanf:"from"`
	To       string `koanf:"to"`
}

// LoggingConfig configures log output. Level accepts trace, debug,
// info, warn, error. When OTEL is enabled, log entries are additionally
// exported over OTLP/HTTP; an empty endpoint uses the exporter's
// defaults (OTEL_EXPORTER_OTLP_ENDPOINT or localhost:4318).
type LoggingConfig struct {
	Level        string `koanf:"level"`
	Format       string `koanf:"format"`
	OTEL         bool   `koanf:"otel"`
	OTELEndpoint string `koanf:"otel_endpoint"`
}

// Validate checks the configuration for errors and normalizes
// language codes (lowercased, deduplicated).
func (c *Config) Validate() error {
	if c.Pipeline.ElementConcurrency < 1 {
		return fmt.Errorf("pipeline element_concurrency must be >= 1, got %d", c.Pipeline.ElementConcurrency)
	}
	if c.Pipeline.StageTimeout.Duration() <= 0 {
		return fmt.Errorf("pipeline stage_timeout must be > 0")
	}
	if c.LLM.Retry.MaxRetries < 0 {
		return fmt.Errorf("llm retry max_retries must be >= 0, got %d", c.LLM.Retry.MaxRetries)
	}
	if c.LLM.Retry.BackoffMultiplier < 1 {
		return fmt.Errorf("llm retry backoff_multiplier must be >= 1, got %v", c.LLM.Retry.BackoffMultiplier)
	}
	if c.Notify.Enabled && c.Notify.Endpoint == "" {
		return fmt.Errorf("notify endpoint required when notifications enabled")
	}

	c.Output.Languages = normalizeLanguages(c.Output.Languages)
	return nil
}

// normalizeLanguages lowercases, trims and deduplicates language codes,
// preserving first-seen order. An empty list becomes ["en"].
func normalizeLanguages(langs []string) []string {
	seen := make(map[string]bool, len(langs))
	out := make([]string, 0, len(langs))
	for _, lang := range langs {
		code := strings.ToLower(strings.TrimSpace(lang))
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, code)
	}
	if len(out) == 0 {
		out = []string{"en"}
	}
	return out
}
