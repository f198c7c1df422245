package embeddings

import (
	"context"
	"fmt"
	"strings"

	"github.com/restaurantlens/restaurantlens/pkg/ollama"
)

// Default embedding model served by Ollama.
const (
	DefaultEmbeddingModel      = "mxbai-embed-large"
	DefaultEmbeddingDimensions = 1024
)

// OllamaProviderConfig configures the Ollama embedding provider.
type OllamaProviderConfig struct {
	Model      string `yaml:"model" env:"EMBEDDING_MODEL" default:"mxbai-embed-large"`
	Dimensions int    `yaml:"dimensions" env:"EMBEDDING_DIMENSIONS" default:"1024"`
}

// OllamaProvider generates embeddings through a local Ollama server.
type OllamaProvider struct {
	client     *ollama.Client
	model      string
	dimensions int
}

// NewOllamaProvider creates an embedding provider backed by the given client.
func NewOllamaProvider(client *ollama.Client, config *OllamaProviderConfig) (*OllamaProvider, error) {
	if client == nil {
		return nil, &Error{Op: "provider", Message: "ollama client is required"}
	}
	if config == nil {
		config = &OllamaProviderConfig{}
	}
	if config.Model == "" {
		config.Model = DefaultEmbeddingModel
	}
	if config.Dimensions <= 0 {
		config.Dimensions = DefaultEmbeddingDimensions
	}

	return &OllamaProvider{
		client:     client,
		model:      config.Model,
		dimensions: config.Dimensions,
	}, nil
}

// GenerateEmbedding implements Provider
func (p *OllamaProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.GenerateBatchEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, &Error{Op: "embed", Message: "no embedding returned"}
	}
	return vectors[0], nil
}

// GenerateBatchEmbeddings implements Provider. Empty texts are rejected
// up front; the embedding model produces garbage for them.
func (p *OllamaProvider) GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, &Error{Op: "embed", Message: fmt.Sprintf("text at index %d is empty", i)}
		}
	}

	vectors, err := p.client.Embed(ctx, p.model, texts)
	if err != nil {
		return nil, &Error{Op: "embed", Message: "embedding request failed", Cause: err}
	}

	for i, vec := range vectors {
		if len(vec) == 0 {
			return nil, &Error{Op: "embed", Message: fmt.Sprintf("empty embedding at index %d", i)}
		}
	}

	return vectors, nil
}

// GetDimensions implements Provider
func (p *OllamaProvider) GetDimensions() int { return p.dimensions }

// GetModelName implements Provider
func (p *OllamaProvider) GetModelName() string { return p.model }

// GetProviderName implements Provider
func (p *OllamaProvider) GetProviderName() string { return "ollama" }
