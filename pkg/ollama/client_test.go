package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(&Config{
		BaseURL:    server.URL,
		Timeout:    2 * time.Second,
		MaxRetries: 1,
		RetryDelay: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestListModels(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(tagsResponse{Models: []ModelTag{
			{Name: "mistral:latest"},
			{Name: "mxbai-embed-large:latest"},
		}})
	}))

	models, err := client.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("expected 2 models, got %d", len(models))
	}
}

func TestHasModelIgnoresTag(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(tagsResponse{Models: []ModelTag{
			{Name: "mistral:latest"},
		}})
	}))

	ok, err := client.HasModel(context.Background(), "mistral")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("mistral should match mistral:latest")
	}

	ok, err = client.HasModel(context.Background(), "llama3")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("llama3 should not match")
	}
}

func TestGenerate(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad body: %v", err)
		}
		if req.Stream {
			t.Error("stream should be forced off")
		}
		json.NewEncoder(w).Encode(GenerateResponse{
			Model:    req.Model,
			Response: "The pizza gets consistent praise.",
			Done:     true,
		})
	}))

	resp, err := client.Generate(context.Background(), &GenerateRequest{
		Model:  "mistral",
		Prompt: "summarize",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.Response == "" || !resp.Done {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestEmbedCountMismatch(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float32{{0.1, 0.2}}})
	}))

	_, err := client.Embed(context.Background(), "mxbai-embed-large", []string{"a", "b"})
	if err == nil {
		t.Error("expected error for embedding count mismatch")
	}
}

func TestEmbed(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		json.NewDecoder(r.Body).Decode(&req)
		out := make([][]float32, len(req.Input))
		for i := range out {
			out[i] = []float32{0.1, 0.2, 0.3}
		}
		json.NewEncoder(w).Encode(embedResponse{Embeddings: out})
	}))

	vectors, err := client.Embed(context.Background(), "mxbai-embed-large", []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vectors) != 2 || len(vectors[0]) != 3 {
		t.Errorf("unexpected vectors: %v", vectors)
	}
}

func TestRetryOn5xx(t *testing.T) {
	var calls int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(tagsResponse{})
	}))

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck after retry: %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestUnreachableServerIsUnavailable(t *testing.T) {
	client, err := NewClient(&Config{
		BaseURL:    "http://127.0.0.1:1",
		Timeout:    300 * time.Millisecond,
		MaxRetries: 0,
	})
	if err != nil {
		t.Fatal(err)
	}

	err = client.HealthCheck(context.Background())
	if !IsUnavailable(err) {
		t.Errorf("expected unavailable error, got %v", err)
	}
}

func TestAPIErrorMessageSurfaced(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "model 'nope' not found"})
	}))

	_, err := client.Generate(context.Background(), &GenerateRequest{Model: "nope", Prompt: "hi"})
	if err == nil {
		t.Fatal("expected error")
	}
	if IsUnavailable(err) {
		t.Error("404 is not an availability failure")
	}
}

func TestMissingModelIsTyped(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "model 'mistral' not found, try pulling it first"})
	}))

	_, err := client.Generate(context.Background(), &GenerateRequest{Model: "mistral", Prompt: "hi"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsMissingModel(err) {
		t.Errorf("expected missing-model error, got %v", err)
	}
	if IsUnavailable(err) {
		t.Error("missing model is not an availability failure")
	}
}

func TestOtherNotFoundIsNotMissingModel(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid request"})
	}))

	_, err := client.Generate(context.Background(), &GenerateRequest{Model: "mistral", Prompt: "hi"})
	if IsMissingModel(err) {
		t.Errorf("400 should not be typed as missing model: %v", err)
	}
}
