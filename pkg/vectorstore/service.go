// Package vectorstore provides vector storage via langchaingo.
//
// It wraps langchaingo's Qdrant store for the retrieval side of the
// documentation pipeline: parsed code elements are indexed into a
// per-run collection and later retrieved as context for the
// architectural-overview query. Collections are throwaway — one per
// documentation run — so there is no cross-run state to manage.
//
// Example:
//
//	config := vectorstore.Config{
//	    URL:            "http://localhost:6333",
//	    CollectionName: "autodoc_" + runID,
//	    Embedder:       embedSvc.Embedder(),
//	}
//	store, err := vectorstore.NewService(config)
//	if err != nil {
//	    // Handle error
//	}
//	err = store.AddDocuments(ctx, docs)
//	results, err := store.Search(ctx, "how is the service structured?", 8)
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
	"github.com/tmc/langchaingo/vectorstores/qdrant"
)

var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyDocuments indicates empty or nil documents.
	ErrEmptyDocuments = errors.New("empty or nil documents")

	// ErrEmptyQuery indicates an empty search query.
	ErrEmptyQuery = errors.New("query cannot be empty")
)

// Document is one indexable unit of code context.
type Document struct {
	// ID uniquely identifies the document within the collection.
	ID string

	// Content is the text that gets embedded and retrieved.
	Content string

	// Metadata carries display attributes (path, symbol kind, language).
	Metadata map[string]interface{}
}

// SearchResult is one retrieved document with its similarity score.
type SearchResult struct {
	ID       string
	Content  string
	Metadata map[string]interface{}
	Score    float32
}

// Config holds configuration for the vector store service.
type Config struct {
	// URL is the Qdrant server URL (e.g. http://localhost:6333).
	URL string

	// CollectionName is the per-run Qdrant collection.
	CollectionName string

	// Embedder generates vectors for indexed and queried text.
	Embedder embeddings.Embedder
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("%w: URL required", ErrInvalidConfig)
	}
	if c.CollectionName == "" {
		return fmt.Errorf("%w: collection name required", ErrInvalidConfig)
	}
	if c.Embedder == nil {
		return fmt.Errorf("%w: embedder required", ErrInvalidConfig)
	}
	return nil
}

// Service provides indexing and similarity search over one collection.
type Service struct {
	store  vectorstores.VectorStore
	config Config

	mu              sync.Mutex
	collectionReady bool
}

// NewService creates a vector store service backed by langchaingo's
// Qdrant implementation. The collection is created before the first
// write if it does not exist.
func NewService(config Config) (*Service, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	qdrantURL, err := url.Parse(config.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing Qdrant URL: %w", err)
	}

	store, err := qdrant.New(
		qdrant.WithURL(*qdrantURL),
		qdrant.WithCollectionName(config.CollectionName),
		qdrant.WithEmbedder(config.Embedder),
	)
	if err != nil {
		return nil, fmt.Errorf("creating Qdrant store: %w", err)
	}

	return &Service{store: store, config: config}, nil
}

// AddDocuments embeds and stores the documents. The document ID is kept
// in metadata so search results can be attributed back to code elements.
func (s *Service) AddDocuments(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return fmt.Errorf("%w: documents cannot be empty", ErrEmptyDocuments)
	}

	if err := s.ensureCollection(ctx); err != nil {
		return fmt.Errorf("ensuring collection: %w", err)
	}

	schemaDocs := make([]schema.Document, len(docs))
	for i, doc := range docs {
		// Annotate a copy: the caller's metadata map is not ours to mutate.
		meta := make(map[string]interface{}, len(doc.Metadata)+1)
		for k, v := range doc.Metadata {
			meta[k] = v
		}
		meta["id"] = doc.ID
		schemaDocs[i] = schema.Document{
			PageContent: doc.Content,
			Metadata:    meta,
		}
	}

	if _, err := s.store.AddDocuments(ctx, schemaDocs); err != nil {
		return fmt.Errorf("adding documents to store: %w", err)
	}
	return nil
}

// Search returns up to k documents similar to the query, ordered by
// descending similarity.
func (s *Service) Search(ctx context.Context, query string, k int) ([]SearchResult, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if k <= 0 {
		return nil, errors.New("k must be positive")
	}

	docs, err := s.store.SimilaritySearch(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	results := make([]SearchResult, len(docs))
	for i, doc := range docs {
		results[i] = SearchResult{
			Content:  doc.PageContent,
			Metadata: doc.Metadata,
			Score:    doc.Score,
		}
		if id, ok := doc.Metadata["id"].(string); ok {
			results[i].ID = id
		}
	}
	return results, nil
}
