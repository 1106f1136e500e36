package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticEmbedder returns fixed-size vectors without calling a service.
type staticEmbedder struct {
	dim int
}

func (e staticEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = make([]float32, e.dim)
	}
	return vectors, nil
}

func (e staticEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	return make([]float32, e.dim), nil
}

// fakeQdrant emulates the collection and point endpoints the service
// touches, recording requests in order.
type fakeQdrant struct {
	mu         sync.Mutex
	requests   []string
	created    bool
	createBody map[string]interface{}
}

func (f *fakeQdrant) handler(collection string) http.HandlerFunc {
	collectionPath := "/collections/" + collection
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.requests = append(f.requests, r.Method+" "+r.URL.Path)

		switch {
		case r.URL.Path == collectionPath && r.Method == http.MethodGet:
			if !f.created {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			fmt.Fprint(w, `{"status":"ok"}`)

		case r.URL.Path == collectionPath && r.Method == http.MethodPut:
			_ = json.NewDecoder(r.Body).Decode(&f.createBody)
			f.created = true
			fmt.Fprint(w, `{"result":true,"status":"ok","time":0}`)

		case r.URL.Path == collectionPath+"/points" && r.Method == http.MethodPut:
			if !f.created {
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprintf(w, `{"status":{"error":"Collection %s doesn't exist"}}`, collection)
				return
			}
			fmt.Fprint(w, `{"result":{"operation_id":0,"status":"acknowledged"},"status":"ok","time":0}`)

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func newTestService(t *testing.T, srvURL string) *Service {
	t.Helper()
	svc, err := NewService(Config{
		URL:            srvURL,
		CollectionName: "autodoc_test",
		Embedder:       staticEmbedder{dim: 3},
	})
	require.NoError(t, err)
	return svc
}

func TestAddDocumentsCreatesCollectionFirst(t *testing.T) {
	fake := &fakeQdrant{}
	srv := httptest.NewServer(fake.handler("autodoc_test"))
	defer srv.Close()

	svc := newTestService(t, srv.URL)
	err := svc.AddDocuments(context.Background(), []Document{
		{ID: "doc-1", Content: "the runner merges stage outcomes"},
	})
	require.NoError(t, err)

	require.Len(t, fake.requests, 3)
	assert.Equal(t, "GET /collections/autodoc_test", fake.requests[0])
	assert.Equal(t, "PUT /collections/autodoc_test", fake.requests[1])
	assert.Equal(t, "PUT /collections/autodoc_test/points", fake.requests[2])

	vectors, ok := fake.createBody["vectors"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(3), vectors["size"])
	assert.Equal(t, "Cosine", vectors["distance"])
}

func TestAddDocumentsCreatesCollectionOnce(t *testing.T) {
	fake := &fakeQdrant{}
	srv := httptest.NewServer(fake.handler("autodoc_test"))
	defer srv.Close()

	svc := newTestService(t, srv.URL)
	docs := []Document{{ID: "doc-1", Content: "content"}}
	require.NoError(t, svc.AddDocuments(context.Background(), docs))
	require.NoError(t, svc.AddDocuments(context.Background(), docs))

	var creates int
	for _, req := range fake.requests {
		if req == "PUT /collections/autodoc_test" {
			creates++
		}
	}
	assert.Equal(t, 1, creates)
}

func TestAddDocumentsReusesExistingCollection(t *testing.T) {
	fake := &fakeQdrant{created: true}
	srv := httptest.NewServer(fake.handler("autodoc_test"))
	defer srv.Close()

	svc := newTestService(t, srv.URL)
	err := svc.AddDocuments(context.Background(), []Document{
		{ID: "doc-1", Content: "content"},
	})
	require.NoError(t, err)

	require.Len(t, fake.requests, 2)
	assert.Equal(t, "GET /collections/autodoc_test", fake.requests[0])
	assert.Equal(t, "PUT /collections/autodoc_test/points", fake.requests[1])
}

func TestAddDocumentsDoesNotMutateCallerMetadata(t *testing.T) {
	fake := &fakeQdrant{}
	srv := httptest.NewServer(fake.handler("autodoc_test"))
	defer srv.Close()

	svc := newTestService(t, srv.URL)
	meta := map[string]interface{}{"path": "internal/pipeline/state.go"}
	err := svc.AddDocuments(context.Background(), []Document{
		{ID: "doc-1", Content: "content", Metadata: meta},
	})
	require.NoError(t, err)

	assert.NotContains(t, meta, "id")
	assert.Len(t, meta, 1)
}

func TestAddDocumentsEmpty(t *testing.T) {
	svc := newTestService(t, "http://localhost:6333")
	err := svc.AddDocuments(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyDocuments)
}

func TestCreateCollectionInvalidVectorSize(t *testing.T) {
	svc := newTestService(t, "http://localhost:6333")
	err := svc.CreateCollection(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"valid", Config{URL: "http://localhost:6333", CollectionName: "c", Embedder: staticEmbedder{dim: 3}}, true},
		{"missing url", Config{CollectionName: "c", Embedder: staticEmbedder{dim: 3}}, false},
		{"missing collection", Config{URL: "http://localhost:6333", Embedder: staticEmbedder{dim: 3}}, false},
		{"missing embedder", Config{URL: "http://localhost:6333", CollectionName: "c"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	svc := newTestService(t, "http://localhost:6333")
	_, err := svc.Search(context.Background(), "", 5)
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = svc.Search(context.Background(), "query", 0)
	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "positive"))
}
