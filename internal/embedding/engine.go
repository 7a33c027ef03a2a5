// Package embedding generates vector embeddings for index documents
// and search queries. Three backends are supported: Ollama (local),
// Google GenAI and OpenAI.
package embedding

import (
	"context"
	"fmt"

	"github.com/BaliLove/chat-langchain-sub001/internal/config"
)

// Engine generates vector embeddings for text.
type Engine interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the dimensionality of produced embeddings.
	Dimensions() int

	// Name identifies the engine for logs and reports.
	Name() string
}

// HealthChecker is an optional interface for engines that can verify
// availability before a batch run.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// NewEngine builds an engine from configuration.
func NewEngine(cfg config.EmbeddingConfig) (Engine, error) {
	switch cfg.Provider {
	case "ollama":
		return NewOllamaEngine(cfg.OllamaEndpoint, cfg.OllamaModel), nil
	case "genai":
		return NewGenAIEngine(cfg.GenAIAPIKey, cfg.GenAIModel)
	case "openai":
		return NewOpenAIEngine(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", cfg.Provider)
	}
}
