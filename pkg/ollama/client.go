// Package ollama is a minimal HTTP client for a local Ollama server,
// covering the endpoints the service needs: model listing, model pulls,
// text generation and embeddings.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Config configures the Ollama client.
type Config struct {
	BaseURL    string        `yaml:"base_url" env:"OLLAMA_BASE_URL" default:"http://localhost:11434"`
	Timeout    time.Duration `yaml:"timeout" env:"OLLAMA_TIMEOUT" default:"120s"`
	MaxRetries int           `yaml:"max_retries" env:"OLLAMA_MAX_RETRIES" default:"2"`
	RetryDelay time.Duration `yaml:"retry_delay" env:"OLLAMA_RETRY_DELAY" default:"1s"`
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:    "http://localhost:11434",
		Timeout:    120 * time.Second,
		MaxRetries: 2,
		RetryDelay: time.Second,
	}
}

// Error is a typed Ollama client error.
type Error struct {
	Op           string
	Message      string
	StatusCode   int
	Unavailable  bool
	MissingModel bool
	Cause        error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("ollama %s: %s: %v", e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("ollama %s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Client talks to a local Ollama server.
type Client struct {
	config     *Config
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new Ollama client.
func NewClient(config *Config) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BaseURL == "" {
		return nil, fmt.Errorf("ollama base URL is required")
	}
	if config.Timeout <= 0 {
		config.Timeout = 120 * time.Second
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		baseURL:    strings.TrimSuffix(config.BaseURL, "/"),
	}, nil
}

// ModelTag is one installed model as reported by /api/tags.
type ModelTag struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

type tagsResponse struct {
	Models []ModelTag `json:"models"`
}

// ListModels returns the models installed on the server.
func (c *Client) ListModels(ctx context.Context) ([]ModelTag, error) {
	var resp tagsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/tags", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Models, nil
}

// HasModel reports whether a model is installed. The tag suffix is
// ignored, so "mistral" matches "mistral:latest".
func (c *Client) HasModel(ctx context.Context, name string) (bool, error) {
	models, err := c.ListModels(ctx)
	if err != nil {
		return false, err
	}

	want := strings.SplitN(name, ":", 2)[0]
	for _, m := range models {
		if strings.SplitN(m.Name, ":", 2)[0] == want {
			return true, nil
		}
	}
	return false, nil
}

type pullRequest struct {
	Name   string `json:"name"`
	Stream bool   `json:"stream"`
}

type pullResponse struct {
	Status string `json:"status"`
}

// PullModel downloads a model onto the server. Blocks until the pull
// completes; model downloads can take minutes, so pass a generous context.
func (c *Client) PullModel(ctx context.Context, name string) error {
	var resp pullResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/pull", pullRequest{Name: name, Stream: false}, &resp); err != nil {
		return err
	}
	if resp.Status != "" && resp.Status != "success" {
		return &Error{Op: "pull", Message: fmt.Sprintf("pull of %s ended with status %q", name, resp.Status)}
	}
	return nil
}

// GenerateRequest is a non-streaming text generation request.
type GenerateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options,omitempty"`
}

// GenerateResponse is the server's completed generation.
type GenerateResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	TotalDuration   int64  `json:"total_duration"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

// Generate produces a completion for the prompt.
func (c *Client) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	req.Stream = false
	var resp GenerateResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/generate", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed generates embeddings for the given inputs.
func (c *Client) Embed(ctx context.Context, model string, input []string) ([][]float32, error) {
	if len(input) == 0 {
		return nil, nil
	}

	var resp embedResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/embed", embedRequest{Model: model, Input: input}, &resp); err != nil {
		return nil, err
	}

	if len(resp.Embeddings) != len(input) {
		return nil, &Error{
			Op:      "embed",
			Message: fmt.Sprintf("expected %d embeddings, got %d", len(input), len(resp.Embeddings)),
		}
	}

	return resp.Embeddings, nil
}

// HealthCheck verifies the server is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.ListModels(ctx)
	return err
}

// BaseURL returns the configured server address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type errorResponse struct {
	Error string `json:"error"`
}

// doJSON performs a request with retries on connection failures and 5xx
// responses, decoding the JSON response into out.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return &Error{Op: path, Message: "failed to marshal request", Cause: err}
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.config.RetryDelay * time.Duration(attempt)):
			}
		}

		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
		if err != nil {
			return &Error{Op: path, Message: "failed to create request", Cause: err}
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = &Error{
				Op:          path,
				Message:     "server unreachable, is Ollama running?",
				Unavailable: true,
				Cause:       err,
			}
			continue
		}

		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = &Error{Op: path, Message: "failed to read response", Cause: readErr}
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = &Error{
				Op:          path,
				Message:     fmt.Sprintf("server error: HTTP %d", resp.StatusCode),
				StatusCode:  resp.StatusCode,
				Unavailable: true,
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			var errResp errorResponse
			msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
			if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
				msg = errResp.Error
			}
			// Ollama answers 404 with "model '...' not found, try pulling
			// it first" when the model is not installed.
			missing := resp.StatusCode == http.StatusNotFound &&
				strings.Contains(strings.ToLower(msg), "not found")
			return &Error{Op: path, Message: msg, StatusCode: resp.StatusCode, MissingModel: missing}
		}

		if out != nil && len(data) > 0 {
			if err := json.Unmarshal(data, out); err != nil {
				return &Error{Op: path, Message: "failed to decode response", Cause: err}
			}
		}

		return nil
	}

	return lastErr
}

// IsUnavailable reports whether err indicates the server cannot be reached.
func IsUnavailable(err error) bool {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Unavailable
	}
	return false
}

// IsMissingModel reports whether err indicates the requested model is not
// installed on the server.
func IsMissingModel(err error) bool {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.MissingModel
	}
	return false
}
