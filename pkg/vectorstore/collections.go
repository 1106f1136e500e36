package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// CollectionExists checks whether the service's collection exists in
// Qdrant.
func (s *Service) CollectionExists(ctx context.Context) (bool, error) {
	url := fmt.Sprintf("%s/collections/%s", s.config.URL, s.config.CollectionName)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("creating request: %w", err)
	}

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return false, fmt.Errorf("checking collection: %w", err)
	}
	defer resp.Body.Close()

	// 200 OK = collection exists, 404 = it does not.
	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
}

// CreateCollection creates the service's collection with the given vector
// dimensions via the Qdrant HTTP API.
func (s *Service) CreateCollection(ctx context.Context, vectorSize int) error {
	if vectorSize <= 0 {
		return fmt.Errorf("%w: vector size must be positive, got %d", ErrInvalidConfig, vectorSize)
	}

	body := map[string]interface{}{
		"vectors": map[string]interface{}{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}
	bodyJSON, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s", s.config.URL, s.config.CollectionName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(bodyJSON))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(bodyBytes))
	}
	return nil
}

// ensureCollection creates the collection before the first write. Qdrant
// rejects upserts into a collection that does not exist, and langchaingo's
// store only upserts points, so the service guarantees the collection here.
// The vector dimensions are taken from the configured embedder.
func (s *Service) ensureCollection(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collectionReady {
		return nil
	}

	exists, err := s.CollectionExists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		vec, err := s.config.Embedder.EmbedQuery(ctx, "dimension")
		if err != nil {
			return fmt.Errorf("detecting vector size: %w", err)
		}
		if err := s.CreateCollection(ctx, len(vec)); err != nil {
			return err
		}
	}

	s.collectionReady = true
	return nil
}
