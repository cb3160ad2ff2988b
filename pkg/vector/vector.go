// Package vector provides vector store clients for similarity search.
package vector

import (
	"context"
	"fmt"
	"time"

	"github.com/quiverhq/quiver/pkg/backend"
	"github.com/quiverhq/quiver/pkg/config"
)

// SearchResult is one scored match from a vector store.
type SearchResult struct {
	ID       string
	Content  string
	Score    float32
	Metadata map[string]any
}

// Store is the interface all vector store providers implement.
type Store interface {
	Upsert(ctx context.Context, collection string, id string, vector []float32, metadata map[string]any) error
	Search(ctx context.Context, collection string, queryVector []float32, topK int) ([]SearchResult, error)
	Delete(ctx context.Context, collection string, id string) error
	Close() error
}

// Config holds the decoded settings shared by all vector store providers.
type Config struct {
	Provider   string        `yaml:"provider"`
	Host       string        `yaml:"host"`
	Port       int           `yaml:"port"`
	APIKey     string        `yaml:"api_key"`
	UseTLS     bool          `yaml:"use_tls"`
	IndexName  string        `yaml:"index_name"`
	Path       string        `yaml:"path"`
	Timeout    time.Duration `yaml:"timeout"`
	Dimension  int           `yaml:"dimension"`
	Collection string        `yaml:"collection"`
}

// New constructs a vector store from resolved category settings.
func New(category config.Category, settings config.Settings) (Store, error) {
	var cfg Config
	if err := settings.Decode(&cfg); err != nil {
		return nil, config.NewConfigurationError(category, fmt.Sprintf("invalid vector settings: %v", err))
	}

	switch cfg.Provider {
	case "qdrant":
		return NewQdrantStore(category, cfg)
	case "pinecone":
		return NewPineconeStore(category, cfg)
	case "chromem":
		return NewChromemStore(category, cfg)
	default:
		return nil, &backend.UnsupportedProviderError{Kind: config.KindVector, Provider: cfg.Provider}
	}
}
