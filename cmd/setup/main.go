// Command setup verifies that the local Ollama install has the models the
// service needs, pulling any that are missing.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/restaurantlens/restaurantlens/pkg/embeddings"
	"github.com/restaurantlens/restaurantlens/pkg/ollama"
)

const defaultModels = "mxbai-embed-large,mistral"

func main() {
	var (
		baseURL = flag.String("ollama", "http://localhost:11434", "Ollama base URL")
		models  = flag.String("models", defaultModels, "Comma-separated models to verify")
		pull    = flag.Bool("pull", true, "Pull missing models")
		probe   = flag.Bool("probe", true, "Generate a test embedding after setup")
		timeout = flag.Duration("timeout", 30*time.Minute, "Overall timeout")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, *baseURL, strings.Split(*models, ","), *pull, *probe); err != nil {
		fmt.Fprintf(os.Stderr, "setup failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Setup complete. Start the server with restaurantlens-server.")
}

func run(ctx context.Context, baseURL string, models []string, pull, probe bool) error {
	client, err := ollama.NewClient(&ollama.Config{BaseURL: baseURL})
	if err != nil {
		return err
	}

	fmt.Printf("Checking Ollama at %s...\n", baseURL)
	if err := client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("Ollama is not reachable: %w\nInstall it from https://ollama.com and start it with 'ollama serve'", err)
	}

	for _, model := range models {
		model = strings.TrimSpace(model)
		if model == "" {
			continue
		}

		ok, err := client.HasModel(ctx, model)
		if err != nil {
			return fmt.Errorf("failed to list models: %w", err)
		}
		if ok {
			fmt.Printf("  %-20s already installed\n", model)
			continue
		}

		if !pull {
			return fmt.Errorf("model %s is missing; run 'ollama pull %s' or rerun with -pull", model, model)
		}

		fmt.Printf("  %-20s pulling (this can take a while)...\n", model)
		if err := client.PullModel(ctx, model); err != nil {
			return fmt.Errorf("failed to pull %s: %w", model, err)
		}
		fmt.Printf("  %-20s pulled\n", model)
	}

	if probe {
		fmt.Println("Generating a test embedding...")
		provider, err := embeddings.NewOllamaProvider(client, nil)
		if err != nil {
			return err
		}
		vec, err := provider.GenerateEmbedding(ctx, "The pizza was excellent.")
		if err != nil {
			return fmt.Errorf("embedding probe failed: %w", err)
		}
		fmt.Printf("Embedding OK (%d dimensions).\n", len(vec))
	}

	return nil
}
