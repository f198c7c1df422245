package embeddings

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// MemoryStore is an in-process vector store using brute-force cosine
// similarity. Suitable for demo-sized datasets; supports JSON snapshot
// persistence so restarts keep the index.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
	snapshotDir string // empty disables persistence
}

type memoryCollection struct {
	Name       string                     `json:"name"`
	Dimensions int                        `json:"dimensions"`
	Vectors    map[string]*DocumentVector `json:"vectors"`
}

// NewMemoryStore creates an in-memory store. When snapshotDir is not
// empty, collections are loaded from and saved to JSON snapshots there.
func NewMemoryStore(snapshotDir string) (*MemoryStore, error) {
	store := &MemoryStore{
		collections: make(map[string]*memoryCollection),
		snapshotDir: snapshotDir,
	}

	if snapshotDir != "" {
		if err := os.MkdirAll(snapshotDir, 0755); err != nil {
			return nil, &Error{Op: "store", Message: "failed to create snapshot dir", Cause: err}
		}
		if err := store.loadSnapshots(); err != nil {
			return nil, err
		}
	}

	return store, nil
}

// CreateCollection implements VectorStore
func (s *MemoryStore) CreateCollection(ctx context.Context, name string, dimensions int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[name]; ok {
		return nil
	}

	s.collections[name] = &memoryCollection{
		Name:       name,
		Dimensions: dimensions,
		Vectors:    make(map[string]*DocumentVector),
	}
	return nil
}

// UpsertVectors implements VectorStore
func (s *MemoryStore) UpsertVectors(ctx context.Context, collection string, vectors []*DocumentVector) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.collections[collection]
	if !ok {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
	}

	for _, vec := range vectors {
		if len(vec.Vector) == 0 {
			return ErrEmptyVector
		}
		if coll.Dimensions > 0 && len(vec.Vector) != coll.Dimensions {
			return fmt.Errorf("%w: got %d, want %d", ErrInvalidDimensions, len(vec.Vector), coll.Dimensions)
		}
		coll.Vectors[vec.ID] = vec
	}

	return s.saveSnapshotLocked(coll)
}

// SearchSimilar implements VectorStore
func (s *MemoryStore) SearchSimilar(ctx context.Context, collection string, query []float32, opts SearchOptions) ([]*SearchResult, error) {
	if len(query) == 0 {
		return nil, ErrEmptyVector
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	coll, ok := s.collections[collection]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = 5
	}

	results := make([]*SearchResult, 0, len(coll.Vectors))
	for _, vec := range coll.Vectors {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		sim := cosineSimilarity(query, vec.Vector)
		if opts.Threshold > 0 && sim < opts.Threshold {
			continue
		}
		results = append(results, &SearchResult{
			ID:         vec.ID,
			Content:    vec.Content,
			Metadata:   vec.Metadata,
			Similarity: sim,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// DeleteCollection implements VectorStore
func (s *MemoryStore) DeleteCollection(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[name]; !ok {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	delete(s.collections, name)

	if s.snapshotDir != "" {
		path := s.snapshotPath(name)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return &Error{Op: "store", Message: "failed to remove snapshot", Cause: err}
		}
	}
	return nil
}

// Info implements VectorStore
func (s *MemoryStore) Info(ctx context.Context, collection string) (*CollectionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coll, ok := s.collections[collection]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
	}

	return &CollectionInfo{
		Name:        coll.Name,
		VectorCount: len(coll.Vectors),
		Dimensions:  coll.Dimensions,
	}, nil
}

// Close implements VectorStore
func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) snapshotPath(collection string) string {
	return filepath.Join(s.snapshotDir, collection+".json")
}

func (s *MemoryStore) saveSnapshotLocked(coll *memoryCollection) error {
	if s.snapshotDir == "" {
		return nil
	}

	data, err := json.Marshal(coll)
	if err != nil {
		return &Error{Op: "store", Message: "failed to marshal snapshot", Cause: err}
	}

	tmp := s.snapshotPath(coll.Name) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return &Error{Op: "store", Message: "failed to write snapshot", Cause: err}
	}
	if err := os.Rename(tmp, s.snapshotPath(coll.Name)); err != nil {
		return &Error{Op: "store", Message: "failed to replace snapshot", Cause: err}
	}
	return nil
}

func (s *MemoryStore) loadSnapshots() error {
	entries, err := os.ReadDir(s.snapshotDir)
	if err != nil {
		return &Error{Op: "store", Message: "failed to read snapshot dir", Cause: err}
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.snapshotDir, entry.Name()))
		if err != nil {
			return &Error{Op: "store", Message: "failed to read snapshot " + entry.Name(), Cause: err}
		}

		var coll memoryCollection
		if err := json.Unmarshal(data, &coll); err != nil {
			return &Error{Op: "store", Message: "corrupt snapshot " + entry.Name(), Cause: err}
		}
		if coll.Vectors == nil {
			coll.Vectors = make(map[string]*DocumentVector)
		}
		s.collections[coll.Name] = &coll
	}

	return nil
}

// cosineSimilarity computes the cosine similarity of two vectors.
// Mismatched lengths compare over the shorter prefix.
func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
