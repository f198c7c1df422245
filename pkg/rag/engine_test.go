package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/restaurantlens/restaurantlens/pkg/embeddings"
	"github.com/restaurantlens/restaurantlens/pkg/ollama"
	"github.com/restaurantlens/restaurantlens/pkg/sentiment"
)

type fakeRetriever struct {
	results []*embeddings.SearchResult
	err     error
	lastK   int
}

func (f *fakeRetriever) Search(ctx context.Context, query string, opts embeddings.SearchOptions) ([]*embeddings.SearchResult, error) {
	f.lastK = opts.TopK
	return f.results, f.err
}

type fakeGenerator struct {
	lastPrompt string
	response   string
	err        error
}

func (f *fakeGenerator) Generate(ctx context.Context, req *ollama.GenerateRequest) (*ollama.GenerateResponse, error) {
	f.lastPrompt = req.Prompt
	if f.err != nil {
		return nil, f.err
	}
	return &ollama.GenerateResponse{Model: req.Model, Response: f.response, Done: true}, nil
}

func sampleResults() []*embeddings.SearchResult {
	return []*embeddings.SearchResult{
		{
			ID: "r1", Content: "The pizza was amazing", Similarity: 0.92,
			Metadata: map[string]interface{}{"sentiment": "Positive", "rating": 5.0, "row_num": 1.0},
		},
		{
			ID: "r2", Content: "Service was slow but food decent", Similarity: 0.81,
			Metadata: map[string]interface{}{"sentiment": "Neutral", "rating": 3.0, "row_num": 2.0},
		},
	}
}

func newTestEngine(t *testing.T, retriever Retriever, generator Generator) *Engine {
	t.Helper()
	engine, err := NewEngine(DefaultConfig(), retriever, generator,
		sentiment.NewAspectAnalyzer(sentiment.NewLexiconScorer()), nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return engine
}

func TestAskBuildsPromptWithReviewsAndSentiment(t *testing.T) {
	retriever := &fakeRetriever{results: sampleResults()}
	generator := &fakeGenerator{response: "Customers praise the pizza."}
	engine := newTestEngine(t, retriever, generator)

	answer, err := engine.Ask(context.Background(), "How is the pizza?", AskOptions{})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}

	if answer.Text != "Customers praise the pizza." {
		t.Errorf("answer text = %q", answer.Text)
	}
	if len(answer.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(answer.Sources))
	}
	if answer.Sources[0].Sentiment != "Positive" {
		t.Errorf("source sentiment = %q", answer.Sources[0].Sentiment)
	}

	prompt := generator.lastPrompt
	if !strings.Contains(prompt, "expert in answering questions about a pizza restaurant") {
		t.Errorf("prompt missing preamble: %q", prompt)
	}
	if !strings.Contains(prompt, "The pizza was amazing") {
		t.Errorf("prompt missing retrieved review: %q", prompt)
	}
	if !strings.Contains(prompt, "[Positive]") {
		t.Errorf("prompt missing sentiment annotation: %q", prompt)
	}
	if !strings.Contains(prompt, "How is the pizza?") {
		t.Errorf("prompt missing question: %q", prompt)
	}
}

func TestAskDefaultTopK(t *testing.T) {
	retriever := &fakeRetriever{results: sampleResults()}
	engine := newTestEngine(t, retriever, &fakeGenerator{response: "ok"})

	if _, err := engine.Ask(context.Background(), "Any good?", AskOptions{}); err != nil {
		t.Fatal(err)
	}
	if retriever.lastK != DefaultTopK {
		t.Errorf("retriever TopK = %d, want %d", retriever.lastK, DefaultTopK)
	}
}

func TestAskAspectEnrichment(t *testing.T) {
	retriever := &fakeRetriever{results: sampleResults()}
	engine := newTestEngine(t, retriever, &fakeGenerator{response: "ok"})

	answer, err := engine.Ask(context.Background(), "How is the food here?", AskOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if answer.Aspect == nil {
		t.Fatal("expected aspect enrichment for a food question")
	}
	if answer.Aspect.Aspect != sentiment.AspectFood {
		t.Errorf("aspect = %q, want food", answer.Aspect.Aspect)
	}
}

func TestAskNoIndexedReviews(t *testing.T) {
	engine := newTestEngine(t, &fakeRetriever{}, &fakeGenerator{response: "ok"})

	_, err := engine.Ask(context.Background(), "Anything?", AskOptions{})
	if err == nil {
		t.Fatal("expected error with empty index")
	}
	var re *Error
	if !errors.As(err, &re) || re.Type != sentiment.ErrorTypeMissingDependency {
		t.Errorf("expected missing-dependency error, got %v", err)
	}
}

func TestAskLLMUnavailable(t *testing.T) {
	generator := &fakeGenerator{err: &ollama.Error{Op: "generate", Message: "down", Unavailable: true}}
	engine := newTestEngine(t, &fakeRetriever{results: sampleResults()}, generator)

	_, err := engine.Ask(context.Background(), "Any good?", AskOptions{})
	var re *Error
	if !errors.As(err, &re) || re.Type != sentiment.ErrorTypeUnavailable {
		t.Errorf("expected unavailable error, got %v", err)
	}
	if re != nil && re.Hint == "" {
		t.Error("unavailable error should carry a corrective hint")
	}
}

func TestAskModelNotInstalled(t *testing.T) {
	generator := &fakeGenerator{err: &ollama.Error{
		Op:           "/api/generate",
		Message:      "model 'mistral' not found, try pulling it first",
		StatusCode:   404,
		MissingModel: true,
	}}
	engine := newTestEngine(t, &fakeRetriever{results: sampleResults()}, generator)

	_, err := engine.Ask(context.Background(), "Any good?", AskOptions{})
	var re *Error
	if !errors.As(err, &re) || re.Type != sentiment.ErrorTypeMissingDependency {
		t.Fatalf("expected missing-dependency error, got %v", err)
	}
	if !strings.Contains(re.Hint, "restaurantlens-setup") {
		t.Errorf("hint should point at setup, got %q", re.Hint)
	}
}

func TestAskEmbeddingModelNotInstalled(t *testing.T) {
	retriever := &fakeRetriever{err: &ollama.Error{
		Op:           "/api/embed",
		Message:      "model 'mxbai-embed-large' not found, try pulling it first",
		StatusCode:   404,
		MissingModel: true,
	}}
	engine := newTestEngine(t, retriever, &fakeGenerator{response: "ok"})

	_, err := engine.Ask(context.Background(), "Any good?", AskOptions{})
	var re *Error
	if !errors.As(err, &re) || re.Type != sentiment.ErrorTypeMissingDependency {
		t.Fatalf("expected missing-dependency error, got %v", err)
	}
	if !strings.Contains(re.Hint, "restaurantlens-setup") {
		t.Errorf("hint should point at setup, got %q", re.Hint)
	}
}

func TestAskNonEnglishQuestion(t *testing.T) {
	retriever := &fakeRetriever{results: sampleResults()}
	generator := &fakeGenerator{response: "La pizza es excelente."}
	engine := newTestEngine(t, retriever, generator)

	answer, err := engine.Ask(context.Background(), "La comida es muy buena pero como es el servicio?", AskOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if answer.Language != "es" {
		t.Errorf("detected language = %q, want es", answer.Language)
	}
	if !strings.Contains(generator.lastPrompt, "Answer in Spanish") {
		t.Errorf("prompt missing language instruction: %q", generator.lastPrompt)
	}
	if answer.Sources[0].LocalizedSentiment != "Positivo" {
		t.Errorf("localized sentiment = %q", answer.Sources[0].LocalizedSentiment)
	}
}

func TestAskEmptyQuestion(t *testing.T) {
	engine := newTestEngine(t, &fakeRetriever{results: sampleResults()}, &fakeGenerator{response: "ok"})
	if _, err := engine.Ask(context.Background(), "  ", AskOptions{}); err == nil {
		t.Error("expected input error for blank question")
	}
}
