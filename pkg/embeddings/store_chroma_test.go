package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestChroma(t *testing.T, handler http.Handler) *ChromaStore {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store, err := NewChromaStore(&ChromaConfig{
		BaseURL:    server.URL,
		Timeout:    2 * time.Second,
		MaxRetries: 1,
		RetryDelay: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewChromaStore: %v", err)
	}
	return store
}

func TestChromaCreateAndUpsert(t *testing.T) {
	var upserted chromaAddRequest
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/collections", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(chromaCollection{ID: "col-1", Name: "restaurant_reviews"})
	})
	mux.HandleFunc("/api/v1/collections/col-1/upsert", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&upserted); err != nil {
			t.Errorf("bad upsert body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	})

	store := newTestChroma(t, mux)
	ctx := context.Background()

	if err := store.CreateCollection(ctx, "restaurant_reviews", 3); err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}

	err := store.UpsertVectors(ctx, "restaurant_reviews", []*DocumentVector{
		{ID: "r1", Content: "great pizza", Vector: []float32{1, 0, 0},
			Metadata: map[string]interface{}{"rating": 5.0}},
	})
	if err != nil {
		t.Fatalf("UpsertVectors: %v", err)
	}

	if len(upserted.IDs) != 1 || upserted.IDs[0] != "r1" {
		t.Errorf("upsert payload wrong: %+v", upserted)
	}
	if upserted.Documents[0] != "great pizza" {
		t.Errorf("document content missing: %+v", upserted)
	}
}

func TestChromaSearchConvertsDistances(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/collections", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(chromaCollection{ID: "col-9", Name: "reviews"})
	})
	mux.HandleFunc("/api/v1/collections/col-9/query", func(w http.ResponseWriter, r *http.Request) {
		var req chromaQueryRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.NResults != 2 {
			t.Errorf("n_results = %d, want 2", req.NResults)
		}
		json.NewEncoder(w).Encode(chromaQueryResponse{
			IDs:       [][]string{{"a", "b"}},
			Distances: [][]float64{{0.1, 0.4}},
			Documents: [][]string{{"close doc", "far doc"}},
			Metadatas: [][]map[string]interface{}{{{"row": 1.0}, {"row": 2.0}}},
		})
	})

	store := newTestChroma(t, mux)
	ctx := context.Background()
	if err := store.CreateCollection(ctx, "reviews", 3); err != nil {
		t.Fatal(err)
	}

	results, err := store.SearchSimilar(ctx, "reviews", []float32{1, 0, 0}, SearchOptions{TopK: 2})
	if err != nil {
		t.Fatalf("SearchSimilar: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Similarity != 0.9 || results[1].Similarity != 0.6 {
		t.Errorf("similarities = %v, %v", results[0].Similarity, results[1].Similarity)
	}
	if results[0].Content != "close doc" {
		t.Errorf("content = %q", results[0].Content)
	}
}

func TestChromaRetriesOn5xx(t *testing.T) {
	var calls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/collections", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(chromaCollection{ID: "col-2", Name: "x"})
	})

	store := newTestChroma(t, mux)
	if err := store.CreateCollection(context.Background(), "x", 2); err != nil {
		t.Fatalf("CreateCollection after retry: %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestChromaUnknownCollectionSearch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/collections/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "collection missing not found"})
	})

	store := newTestChroma(t, mux)
	_, err := store.SearchSimilar(context.Background(), "missing", []float32{1}, SearchOptions{})
	if err == nil {
		t.Error("expected error for unknown collection")
	}
}
