// Package embedder provides text embedding providers for knowledge search.
package embedder

import (
	"context"
	"fmt"
	"time"

	"github.com/quiverhq/quiver/pkg/backend"
	"github.com/quiverhq/quiver/pkg/config"
)

// Provider generates vector embeddings for text.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	GetDimension() int
	GetModelName() string
	Close() error
}

// Config holds the decoded settings shared by all embedding providers.
type Config struct {
	Provider   string        `yaml:"provider"`
	APIKey     string        `yaml:"api_key"`
	Host       string        `yaml:"host"`
	Model      string        `yaml:"model"`
	Dimension  int           `yaml:"dimension"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// New constructs an embedding provider from resolved category settings.
func New(category config.Category, settings config.Settings) (Provider, error) {
	var cfg Config
	if err := settings.Decode(&cfg); err != nil {
		return nil, config.NewConfigurationError(category, fmt.Sprintf("invalid embedding settings: %v", err))
	}

	switch cfg.Provider {
	case "openai":
		return NewOpenAIEmbedder(category, cfg)
	case "cohere":
		return NewCohereEmbedder(category, cfg)
	case "ollama":
		return NewOllamaEmbedder(category, cfg)
	default:
		return nil, &backend.UnsupportedProviderError{Kind: config.KindEmbedding, Provider: cfg.Provider}
	}
}
