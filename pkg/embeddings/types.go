// Package embeddings provides embedding generation and vector storage
// for the review dataset: an Ollama-backed provider, an in-memory cosine
// store, a Chroma REST client and a batching indexer with an optional
// Redis cache.
package embeddings

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Provider generates embeddings for text.
type Provider interface {
	// GenerateEmbedding generates an embedding for a single text
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)

	// GenerateBatchEmbeddings generates embeddings for multiple texts
	GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float32, error)

	// GetDimensions returns the embedding dimension count
	GetDimensions() int

	// GetModelName returns the embedding model identifier
	GetModelName() string

	// GetProviderName returns the provider name
	GetProviderName() string
}

// DocumentVector is an embedded review document.
type DocumentVector struct {
	ID        string                 `json:"id"`
	Content   string                 `json:"content"`
	Vector    []float32              `json:"vector"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// SearchOptions controls similarity search behavior.
type SearchOptions struct {
	TopK      int     `json:"top_k"`
	Threshold float64 `json:"threshold,omitempty"` // minimum similarity, 0 = no cutoff
}

// SearchResult is one similarity hit.
type SearchResult struct {
	ID         string                 `json:"id"`
	Content    string                 `json:"content"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Similarity float64                `json:"similarity"`
}

// CollectionInfo describes a vector collection.
type CollectionInfo struct {
	Name        string `json:"name"`
	VectorCount int    `json:"vector_count"`
	Dimensions  int    `json:"dimensions"`
}

// VectorStore stores and searches document vectors.
type VectorStore interface {
	// CreateCollection creates the collection if it does not exist
	CreateCollection(ctx context.Context, name string, dimensions int) error

	// UpsertVectors inserts or replaces document vectors
	UpsertVectors(ctx context.Context, collection string, vectors []*DocumentVector) error

	// SearchSimilar finds the most similar documents to the query vector
	SearchSimilar(ctx context.Context, collection string, query []float32, opts SearchOptions) ([]*SearchResult, error)

	// DeleteCollection removes a collection and its vectors
	DeleteCollection(ctx context.Context, name string) error

	// Info returns collection statistics
	Info(ctx context.Context, collection string) (*CollectionInfo, error)

	// Close releases resources
	Close() error
}

// Common vector store errors.
var (
	ErrCollectionNotFound = errors.New("collection not found")
	ErrInvalidDimensions  = errors.New("vector dimensions do not match collection")
	ErrEmptyVector        = errors.New("vector must not be empty")
	ErrCacheMiss          = errors.New("embedding not in cache")
)

// Error is a typed embeddings error.
type Error struct {
	Op      string `json:"op"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("embeddings %s: %s: %v", e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("embeddings %s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// EmbeddingCache caches embeddings by content hash so reindex runs skip
// unchanged documents.
type EmbeddingCache interface {
	Get(ctx context.Context, key string) ([]float32, error)
	Set(ctx context.Context, key string, vector []float32, ttl time.Duration) error
	Close() error
}
