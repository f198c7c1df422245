package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// ChromaConfig configures the Chroma vector server client.
type ChromaConfig struct {
	BaseURL    string        `yaml:"base_url" env:"CHROMA_BASE_URL" default:"http://localhost:8001"`
	Tenant     string        `yaml:"tenant" env:"CHROMA_TENANT" default:"default_tenant"`
	Database   string        `yaml:"database" env:"CHROMA_DATABASE" default:"default_database"`
	Timeout    time.Duration `yaml:"timeout" env:"CHROMA_TIMEOUT" default:"30s"`
	MaxRetries int           `yaml:"max_retries" env:"CHROMA_MAX_RETRIES" default:"3"`
	RetryDelay time.Duration `yaml:"retry_delay" env:"CHROMA_RETRY_DELAY" default:"1s"`
}

// ChromaStore is a VectorStore backed by a Chroma-compatible REST server.
type ChromaStore struct {
	config     *ChromaConfig
	httpClient *http.Client
	baseURL    string

	mu            sync.RWMutex
	collectionIDs map[string]string // name -> server-side id
	dimensions    map[string]int
}

type chromaCollection struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type chromaAddRequest struct {
	IDs        []string                 `json:"ids"`
	Embeddings [][]float32              `json:"embeddings"`
	Documents  []string                 `json:"documents"`
	Metadatas  []map[string]interface{} `json:"metadatas"`
}

type chromaQueryRequest struct {
	QueryEmbeddings [][]float32 `json:"query_embeddings"`
	NResults        int         `json:"n_results"`
	Include         []string    `json:"include"`
}

type chromaQueryResponse struct {
	IDs       [][]string                 `json:"ids"`
	Distances [][]float64                `json:"distances"`
	Documents [][]string                 `json:"documents"`
	Metadatas [][]map[string]interface{} `json:"metadatas"`
}

type chromaErrorResponse struct {
	Error string `json:"error"`
}

// NewChromaStore creates a Chroma REST client.
func NewChromaStore(config *ChromaConfig) (*ChromaStore, error) {
	if config == nil {
		return nil, &Error{Op: "chroma", Message: "config is required"}
	}
	if config.BaseURL == "" {
		return nil, &Error{Op: "chroma", Message: "base URL is required"}
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 3
	}

	return &ChromaStore{
		config:        config,
		httpClient:    &http.Client{Timeout: config.Timeout},
		baseURL:       strings.TrimSuffix(config.BaseURL, "/"),
		collectionIDs: make(map[string]string),
		dimensions:    make(map[string]int),
	}, nil
}

// CreateCollection implements VectorStore
func (s *ChromaStore) CreateCollection(ctx context.Context, name string, dimensions int) error {
	body := map[string]interface{}{
		"name":          name,
		"get_or_create": true,
	}

	var coll chromaCollection
	if err := s.makeRequest(ctx, http.MethodPost, "/api/v1/collections", body, &coll); err != nil {
		return err
	}

	s.mu.Lock()
	s.collectionIDs[name] = coll.ID
	s.dimensions[name] = dimensions
	s.mu.Unlock()
	return nil
}

// UpsertVectors implements VectorStore. Vectors are added in one call;
// the indexer batches upstream.
func (s *ChromaStore) UpsertVectors(ctx context.Context, collection string, vectors []*DocumentVector) error {
	if len(vectors) == 0 {
		return nil
	}

	id, err := s.collectionID(ctx, collection)
	if err != nil {
		return err
	}

	req := chromaAddRequest{
		IDs:        make([]string, len(vectors)),
		Embeddings: make([][]float32, len(vectors)),
		Documents:  make([]string, len(vectors)),
		Metadatas:  make([]map[string]interface{}, len(vectors)),
	}
	for i, vec := range vectors {
		if len(vec.Vector) == 0 {
			return ErrEmptyVector
		}
		req.IDs[i] = vec.ID
		req.Embeddings[i] = vec.Vector
		req.Documents[i] = vec.Content
		req.Metadatas[i] = vec.Metadata
	}

	path := fmt.Sprintf("/api/v1/collections/%s/upsert", id)
	return s.makeRequest(ctx, http.MethodPost, path, req, nil)
}

// SearchSimilar implements VectorStore. Chroma returns distances; they
// are converted to similarities as 1 - distance.
func (s *ChromaStore) SearchSimilar(ctx context.Context, collection string, query []float32, opts SearchOptions) ([]*SearchResult, error) {
	if len(query) == 0 {
		return nil, ErrEmptyVector
	}

	id, err := s.collectionID(ctx, collection)
	if err != nil {
		return nil, err
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = 5
	}

	req := chromaQueryRequest{
		QueryEmbeddings: [][]float32{query},
		NResults:        topK,
		Include:         []string{"documents", "metadatas", "distances"},
	}

	var resp chromaQueryResponse
	path := fmt.Sprintf("/api/v1/collections/%s/query", id)
	if err := s.makeRequest(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}

	if len(resp.IDs) == 0 {
		return nil, nil
	}

	results := make([]*SearchResult, 0, len(resp.IDs[0]))
	for i, docID := range resp.IDs[0] {
		similarity := 0.0
		if i < len(resp.Distances[0]) {
			similarity = 1 - resp.Distances[0][i]
		}
		if opts.Threshold > 0 && similarity < opts.Threshold {
			continue
		}

		result := &SearchResult{ID: docID, Similarity: similarity}
		if len(resp.Documents) > 0 && i < len(resp.Documents[0]) {
			result.Content = resp.Documents[0][i]
		}
		if len(resp.Metadatas) > 0 && i < len(resp.Metadatas[0]) {
			result.Metadata = resp.Metadatas[0][i]
		}
		results = append(results, result)
	}

	return results, nil
}

// DeleteCollection implements VectorStore
func (s *ChromaStore) DeleteCollection(ctx context.Context, name string) error {
	if err := s.makeRequest(ctx, http.MethodDelete, "/api/v1/collections/"+name, nil, nil); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.collectionIDs, name)
	delete(s.dimensions, name)
	s.mu.Unlock()
	return nil
}

// Info implements VectorStore
func (s *ChromaStore) Info(ctx context.Context, collection string) (*CollectionInfo, error) {
	id, err := s.collectionID(ctx, collection)
	if err != nil {
		return nil, err
	}

	var count int
	if err := s.makeRequest(ctx, http.MethodGet, fmt.Sprintf("/api/v1/collections/%s/count", id), nil, &count); err != nil {
		return nil, err
	}

	s.mu.RLock()
	dims := s.dimensions[collection]
	s.mu.RUnlock()

	return &CollectionInfo{
		Name:        collection,
		VectorCount: count,
		Dimensions:  dims,
	}, nil
}

// Close implements VectorStore
func (s *ChromaStore) Close() error {
	return nil
}

// collectionID resolves a collection name to its server-side id, with a
// local cache in front of the lookup endpoint.
func (s *ChromaStore) collectionID(ctx context.Context, name string) (string, error) {
	s.mu.RLock()
	id, ok := s.collectionIDs[name]
	s.mu.RUnlock()
	if ok {
		return id, nil
	}

	var coll chromaCollection
	if err := s.makeRequest(ctx, http.MethodGet, "/api/v1/collections/"+name, nil, &coll); err != nil {
		return "", fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}

	s.mu.Lock()
	s.collectionIDs[name] = coll.ID
	s.mu.Unlock()
	return coll.ID, nil
}

// makeRequest performs an HTTP request with retry on connection errors
// and 5xx responses.
func (s *ChromaStore) makeRequest(ctx context.Context, method, path string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return &Error{Op: "chroma", Message: "failed to marshal request", Cause: err}
		}
	}

	var lastErr error
	for attempt := 0; attempt <= s.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.config.RetryDelay * time.Duration(attempt)):
			}
		}

		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reqBody)
		if err != nil {
			return &Error{Op: "chroma", Message: "failed to create request", Cause: err}
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := s.httpClient.Do(req)
		if err != nil {
			lastErr = &Error{Op: "chroma", Message: "vector server unreachable", Cause: err}
			continue
		}

		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = &Error{Op: "chroma", Message: "failed to read response", Cause: readErr}
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = &Error{Op: "chroma", Message: fmt.Sprintf("server error: HTTP %d", resp.StatusCode)}
			continue
		}

		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			var errResp chromaErrorResponse
			msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
			if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
				msg = errResp.Error
			}
			return &Error{Op: "chroma", Message: msg}
		}

		if out != nil && len(data) > 0 {
			if err := json.Unmarshal(data, out); err != nil {
				return &Error{Op: "chroma", Message: "failed to decode response", Cause: err}
			}
		}

		return nil
	}

	return lastErr
}
