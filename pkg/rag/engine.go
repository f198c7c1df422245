// Package rag answers free-form questions about the review dataset by
// retrieving the most relevant reviews and prompting a locally hosted LLM.
package rag

import (
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"golang.org/x/time/rate"

	"github.com/restaurantlens/restaurantlens/pkg/embeddings"
	"github.com/restaurantlens/restaurantlens/pkg/language"
	"github.com/restaurantlens/restaurantlens/pkg/logger"
	"github.com/restaurantlens/restaurantlens/pkg/ollama"
	"github.com/restaurantlens/restaurantlens/pkg/sentiment"
)

// DefaultTopK is how many reviews are retrieved per question.
const DefaultTopK = 5

// Config configures the question answering engine.
type Config struct {
	Model       string        `yaml:"model" env:"RAG_MODEL" default:"mistral"`
	TopK        int           `yaml:"top_k" env:"RAG_TOP_K" default:"5"`
	Temperature float64       `yaml:"temperature" env:"RAG_TEMPERATURE" default:"0.2"`
	Timeout     time.Duration `yaml:"timeout" env:"RAG_TIMEOUT" default:"120s"`
	// RequestsPerSecond throttles LLM calls to protect the local server.
	RequestsPerSecond float64 `yaml:"requests_per_second" env:"RAG_REQUESTS_PER_SECOND" default:"1"`
	Burst             int     `yaml:"burst" env:"RAG_BURST" default:"2"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		Model:             "mistral",
		TopK:              DefaultTopK,
		Temperature:       0.2,
		Timeout:           120 * time.Second,
		RequestsPerSecond: 1,
		Burst:             2,
	}
}

// Retriever finds reviews relevant to a query. *embeddings.Indexer
// satisfies this.
type Retriever interface {
	Search(ctx context.Context, query string, opts embeddings.SearchOptions) ([]*embeddings.SearchResult, error)
}

// Generator produces completions. *ollama.Client satisfies this.
type Generator interface {
	Generate(ctx context.Context, req *ollama.GenerateRequest) (*ollama.GenerateResponse, error)
}

// Source is one retrieved review backing an answer.
type Source struct {
	Content            string  `json:"content"`
	Rating             float64 `json:"rating,omitempty"`
	RowNum             int     `json:"row_num,omitempty"`
	Similarity         float64 `json:"similarity"`
	Sentiment          string  `json:"sentiment,omitempty"`
	LocalizedSentiment string  `json:"localized_sentiment,omitempty"`
}

// Answer is a generated answer with its supporting reviews.
type Answer struct {
	Text      string                  `json:"text"`
	Sources   []Source                `json:"sources"`
	Language  string                  `json:"language"`
	Aspect    *sentiment.AspectResult `json:"aspect,omitempty"`
	Model     string                  `json:"model"`
	ElapsedMS int64                   `json:"elapsed_ms"`
}

// AskOptions customizes a single question.
type AskOptions struct {
	TopK     int
	Language string // ISO 639-1; empty triggers detection
}

const promptText = `You are an expert in answering questions about a pizza restaurant

Here are some relevant reviews:

{{range .Reviews}}- [{{.Sentiment}}] {{.Content}}
{{end}}
Here is the question to answer: {{.Question}}{{if .LanguageName}}

Answer in {{.LanguageName}}.{{end}}`

var promptTemplate = template.Must(template.New("rag").Parse(promptText))

type promptReview struct {
	Content   string
	Sentiment string
}

type promptData struct {
	Reviews      []promptReview
	Question     string
	LanguageName string
}

// Error is a typed question-answering error.
type Error struct {
	Type    sentiment.ErrorType `json:"type"`
	Message string              `json:"message"`
	Hint    string              `json:"hint,omitempty"`
	Cause   error               `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("rag %s error: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("rag %s error: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Engine answers questions over the indexed review dataset.
type Engine struct {
	config    *Config
	retriever Retriever
	generator Generator
	aspects   *sentiment.AspectAnalyzer // nil disables aspect enrichment
	limiter   *rate.Limiter
	log       *logger.Logger
}

// NewEngine creates a question answering engine. aspects may be nil.
func NewEngine(config *Config, retriever Retriever, generator Generator, aspects *sentiment.AspectAnalyzer, log *logger.Logger) (*Engine, error) {
	if retriever == nil {
		return nil, fmt.Errorf("retriever is required")
	}
	if generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.TopK <= 0 {
		config.TopK = DefaultTopK
	}
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = 1
	}
	if config.Burst <= 0 {
		config.Burst = 1
	}
	if log == nil {
		log = logger.GetDefault()
	}

	return &Engine{
		config:    config,
		retriever: retriever,
		generator: generator,
		aspects:   aspects,
		limiter:   rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst),
		log:       log.WithComponent("rag"),
	}, nil
}

// Ask retrieves relevant reviews and generates an answer.
func (e *Engine) Ask(ctx context.Context, question string, opts AskOptions) (*Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, &Error{Type: sentiment.ErrorTypeInput, Message: "question must not be empty"}
	}

	langCode := opts.Language
	if langCode == "" {
		langCode = language.Detect(question).Code
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = e.config.TopK
	}

	start := time.Now()

	results, err := e.retriever.Search(ctx, question, embeddings.SearchOptions{TopK: topK})
	if err != nil {
		if ollama.IsMissingModel(err) {
			return nil, &Error{
				Type:    sentiment.ErrorTypeMissingDependency,
				Message: "embedding model is not installed",
				Hint:    "run restaurantlens-setup",
				Cause:   err,
			}
		}
		if ollama.IsUnavailable(err) {
			return nil, &Error{
				Type:    sentiment.ErrorTypeUnavailable,
				Message: "embedding service unreachable",
				Hint:    "start Ollama and run restaurantlens-setup",
				Cause:   err,
			}
		}
		return nil, err
	}

	if len(results) == 0 {
		return nil, &Error{
			Type:    sentiment.ErrorTypeMissingDependency,
			Message: "no reviews indexed",
			Hint:    "upload a review CSV before asking questions",
		}
	}

	prompt, err := e.buildPrompt(question, langCode, results)
	if err != nil {
		return nil, err
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	genCtx := ctx
	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	resp, err := e.generator.Generate(genCtx, &ollama.GenerateRequest{
		Model:  e.config.Model,
		Prompt: prompt,
		Options: map[string]interface{}{
			"temperature": e.config.Temperature,
		},
	})
	if err != nil {
		if ollama.IsMissingModel(err) {
			return nil, &Error{
				Type:    sentiment.ErrorTypeMissingDependency,
				Message: fmt.Sprintf("model %s is not installed", e.config.Model),
				Hint:    fmt.Sprintf("run restaurantlens-setup or: ollama pull %s", e.config.Model),
				Cause:   err,
			}
		}
		if ollama.IsUnavailable(err) {
			return nil, &Error{
				Type:    sentiment.ErrorTypeUnavailable,
				Message: "language model unreachable",
				Hint:    fmt.Sprintf("start Ollama and pull the model: ollama pull %s", e.config.Model),
				Cause:   err,
			}
		}
		return nil, err
	}

	answer := &Answer{
		Text:      strings.TrimSpace(resp.Response),
		Sources:   e.buildSources(results, langCode),
		Language:  langCode,
		Model:     e.config.Model,
		ElapsedMS: time.Since(start).Milliseconds(),
	}

	e.enrichAspect(ctx, question, results, answer)

	e.log.Info("answered question: top_k=%d lang=%s elapsed=%dms", topK, langCode, answer.ElapsedMS)
	return answer, nil
}

func (e *Engine) buildPrompt(question, langCode string, results []*embeddings.SearchResult) (string, error) {
	data := promptData{Question: question}
	if langCode != "" && langCode != "en" {
		data.LanguageName = language.Name(langCode)
	}

	for _, res := range results {
		data.Reviews = append(data.Reviews, promptReview{
			Content:   res.Content,
			Sentiment: metadataString(res.Metadata, "sentiment", "Unrated"),
		})
	}

	var sb strings.Builder
	if err := promptTemplate.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return sb.String(), nil
}

func (e *Engine) buildSources(results []*embeddings.SearchResult, langCode string) []Source {
	sources := make([]Source, 0, len(results))
	for _, res := range results {
		label := metadataString(res.Metadata, "sentiment", "")
		sources = append(sources, Source{
			Content:            res.Content,
			Rating:             metadataFloat(res.Metadata, "rating"),
			RowNum:             int(metadataFloat(res.Metadata, "row_num")),
			Similarity:         res.Similarity,
			Sentiment:          label,
			LocalizedSentiment: language.LocalizeSentimentLabel(label, langCode),
		})
	}
	return sources
}

// enrichAspect attaches aspect sentiment when the question names a known
// aspect. Failures only log; the answer stands on its own.
func (e *Engine) enrichAspect(ctx context.Context, question string, results []*embeddings.SearchResult, answer *Answer) {
	if e.aspects == nil {
		return
	}
	aspect := sentiment.DetectAspect(question)
	if aspect == "" {
		return
	}

	var texts []string
	for _, res := range results {
		texts = append(texts, res.Content)
	}

	aspectResult, err := e.aspects.Analyze(ctx, strings.Join(texts, ". "), aspect)
	if err != nil {
		e.log.Warn("aspect enrichment failed: aspect=%s err=%v", aspect, err)
		return
	}
	answer.Aspect = aspectResult
}

func metadataString(meta map[string]interface{}, key, fallback string) string {
	if meta == nil {
		return fallback
	}
	if v, ok := meta[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func metadataFloat(meta map[string]interface{}, key string) float64 {
	if meta == nil {
		return 0
	}
	switch v := meta[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}
