package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const transformerVersion = "transformer-v1.0"

// TransformerConfig configures the transformer inference client.
type TransformerConfig struct {
	BaseURL    string        `yaml:"base_url" env:"TRANSFORMER_BASE_URL" default:"http://localhost:8000"`
	Model      string        `yaml:"model" env:"TRANSFORMER_MODEL" default:"cardiffnlp/twitter-roberta-base-sentiment"`
	Timeout    time.Duration `yaml:"timeout" env:"TRANSFORMER_TIMEOUT" default:"15s"`
	MaxRetries int           `yaml:"max_retries" env:"TRANSFORMER_MAX_RETRIES" default:"2"`
	RetryDelay time.Duration `yaml:"retry_delay" env:"TRANSFORMER_RETRY_DELAY" default:"500ms"`
}

// DefaultTransformerConfig returns the default client configuration.
func DefaultTransformerConfig() *TransformerConfig {
	return &TransformerConfig{
		BaseURL:    "http://localhost:8000",
		Model:      "cardiffnlp/twitter-roberta-base-sentiment",
		Timeout:    15 * time.Second,
		MaxRetries: 2,
		RetryDelay: 500 * time.Millisecond,
	}
}

// TransformerScorer scores text with a locally hosted transformer
// inference server speaking the standard text-classification contract:
// POST /models/{model} {"inputs": "..."} returning ranked label scores.
type TransformerScorer struct {
	config     *TransformerConfig
	httpClient *http.Client
}

type transformerRequest struct {
	Inputs string `json:"inputs"`
}

type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type transformerErrorResponse struct {
	Error string `json:"error"`
}

// NewTransformerScorer creates a transformer client.
func NewTransformerScorer(config *TransformerConfig) (*TransformerScorer, error) {
	if config == nil {
		config = DefaultTransformerConfig()
	}
	if config.BaseURL == "" {
		return nil, NewInputError("transformer base URL is required")
	}
	if config.Model == "" {
		return nil, NewInputError("transformer model is required")
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}

	return &TransformerScorer{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

// Name implements Scorer
func (s *TransformerScorer) Name() string { return "transformer" }

// Version implements Scorer
func (s *TransformerScorer) Version() string { return transformerVersion }

// Score implements Scorer. Connection failures surface as
// service-unavailable errors so the hybrid blend can degrade.
func (s *TransformerScorer) Score(ctx context.Context, text string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, NewInputError("text must not be empty")
	}

	ranked, err := s.classify(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(ranked) == 0 {
		return nil, NewUnavailableError("inference server returned no scores",
			"check the classification model is loaded", nil)
	}

	scores := Scores{}
	var total float64
	for _, ls := range ranked {
		total += ls.Score
		switch normalizeModelLabel(ls.Label) {
		case LabelPositive:
			scores.Positive += ls.Score
		case LabelNegative:
			scores.Negative += ls.Score
		default:
			scores.Neutral += ls.Score
		}
	}

	// The model emits a probability distribution; renormalize to guard
	// against truncated outputs.
	if total > 0 {
		scores.Positive /= total
		scores.Negative /= total
		scores.Neutral /= total
	} else {
		scores.Neutral = 1
	}

	label := scores.Argmax()

	return &Result{
		Label:      label,
		Confidence: scores.ForLabel(label),
		Scores:     scores,
		Method:     s.Name(),
		Version:    s.Version(),
	}, nil
}

func (s *TransformerScorer) classify(ctx context.Context, text string) ([]labelScore, error) {
	body, err := json.Marshal(transformerRequest{Inputs: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal inference request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s", strings.TrimSuffix(s.config.BaseURL, "/"), s.config.Model)

	var lastErr error
	for attempt := 0; attempt <= s.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.config.RetryDelay * time.Duration(attempt)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to create inference request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			lastErr = NewUnavailableError("inference server unreachable",
				"start the local inference server or disable the transformer method", err)
			continue
		}

		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("failed to read inference response: %w", readErr)
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = NewUnavailableError(
				fmt.Sprintf("inference server error: HTTP %d", resp.StatusCode),
				"check the inference server logs", nil)
			continue
		}

		if resp.StatusCode == http.StatusNotFound {
			return nil, NewMissingDependencyError(
				fmt.Sprintf("model %s not found on inference server", s.config.Model),
				fmt.Sprintf("load the model: %s", s.config.Model))
		}

		if resp.StatusCode != http.StatusOK {
			var errResp transformerErrorResponse
			if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
				return nil, fmt.Errorf("inference request failed: %s", errResp.Error)
			}
			return nil, fmt.Errorf("inference request failed with HTTP %d", resp.StatusCode)
		}

		return parseClassification(data)
	}

	return nil, lastErr
}

// parseClassification accepts both the nested ([[{label,score}]]) and the
// flat ([{label,score}]) response shapes.
func parseClassification(data []byte) ([]labelScore, error) {
	var nested [][]labelScore
	if err := json.Unmarshal(data, &nested); err == nil && len(nested) > 0 {
		return nested[0], nil
	}

	var flat []labelScore
	if err := json.Unmarshal(data, &flat); err == nil {
		return flat, nil
	}

	return nil, fmt.Errorf("unexpected inference response: %s", truncateBody(data))
}

// normalizeModelLabel maps model-specific label names onto the shared
// label set. Three-class sentiment models emit either LABEL_0/1/2 or
// lowercase names.
func normalizeModelLabel(label string) Label {
	switch strings.ToLower(label) {
	case "label_2", "positive", "pos":
		return LabelPositive
	case "label_0", "negative", "neg":
		return LabelNegative
	default:
		return LabelNeutral
	}
}

func truncateBody(data []byte) string {
	const limit = 200
	s := string(data)
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
