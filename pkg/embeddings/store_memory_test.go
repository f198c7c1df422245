package embeddings

import (
	"context"
	"math"
	"testing"
)

func TestMemoryStoreSearchRanksBySimilarity(t *testing.T) {
	store, err := NewMemoryStore("")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if err := store.CreateCollection(ctx, "test", 3); err != nil {
		t.Fatal(err)
	}

	vectors := []*DocumentVector{
		{ID: "a", Content: "exact", Vector: []float32{1, 0, 0}},
		{ID: "b", Content: "close", Vector: []float32{0.9, 0.1, 0}},
		{ID: "c", Content: "far", Vector: []float32{0, 1, 0}},
	}
	if err := store.UpsertVectors(ctx, "test", vectors); err != nil {
		t.Fatal(err)
	}

	results, err := store.SearchSimilar(ctx, "test", []float32{1, 0, 0}, SearchOptions{TopK: 2})
	if err != nil {
		t.Fatal(err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != "a" || results[1].ID != "b" {
		t.Errorf("wrong ranking: %s, %s", results[0].ID, results[1].ID)
	}
	if math.Abs(results[0].Similarity-1.0) > 1e-6 {
		t.Errorf("identical vector similarity = %v", results[0].Similarity)
	}
}

func TestMemoryStoreThreshold(t *testing.T) {
	store, _ := NewMemoryStore("")
	ctx := context.Background()
	store.CreateCollection(ctx, "test", 2)
	store.UpsertVectors(ctx, "test", []*DocumentVector{
		{ID: "a", Vector: []float32{1, 0}},
		{ID: "b", Vector: []float32{0, 1}},
	})

	results, err := store.SearchSimilar(ctx, "test", []float32{1, 0}, SearchOptions{TopK: 10, Threshold: 0.5})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].ID != "a" {
		t.Errorf("threshold should keep only the close vector: %+v", results)
	}
}

func TestMemoryStoreDimensionMismatch(t *testing.T) {
	store, _ := NewMemoryStore("")
	ctx := context.Background()
	store.CreateCollection(ctx, "test", 3)

	err := store.UpsertVectors(ctx, "test", []*DocumentVector{
		{ID: "bad", Vector: []float32{1, 0}},
	})
	if err == nil {
		t.Error("expected dimension mismatch error")
	}
}

func TestMemoryStoreUnknownCollection(t *testing.T) {
	store, _ := NewMemoryStore("")
	_, err := store.SearchSimilar(context.Background(), "nope", []float32{1}, SearchOptions{})
	if err == nil {
		t.Error("expected collection-not-found error")
	}
}

func TestMemoryStoreSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewMemoryStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	store.CreateCollection(ctx, "reviews", 2)
	if err := store.UpsertVectors(ctx, "reviews", []*DocumentVector{
		{ID: "r1", Content: "great pizza", Vector: []float32{0.5, 0.5}},
	}); err != nil {
		t.Fatal(err)
	}

	// A fresh store over the same directory picks the snapshot back up.
	reopened, err := NewMemoryStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	info, err := reopened.Info(ctx, "reviews")
	if err != nil {
		t.Fatalf("Info after reload: %v", err)
	}
	if info.VectorCount != 1 {
		t.Errorf("vector count after reload = %d", info.VectorCount)
	}

	results, err := reopened.SearchSimilar(ctx, "reviews", []float32{0.5, 0.5}, SearchOptions{TopK: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Content != "great pizza" {
		t.Errorf("snapshot content lost: %+v", results)
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		a, b []float32
		want float64
	}{
		{[]float32{1, 0}, []float32{1, 0}, 1},
		{[]float32{1, 0}, []float32{0, 1}, 0},
		{[]float32{1, 0}, []float32{-1, 0}, -1},
		{[]float32{0, 0}, []float32{1, 1}, 0},
	}

	for _, tt := range tests {
		if got := cosineSimilarity(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("cosineSimilarity(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
