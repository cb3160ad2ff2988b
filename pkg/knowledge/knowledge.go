// Package knowledge provides the knowledge_search tool: embed the query,
// search a vector store, return scored snippets.
package knowledge

import (
	"context"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/quiverhq/quiver/pkg/backend"
	"github.com/quiverhq/quiver/pkg/config"
	"github.com/quiverhq/quiver/pkg/embedder"
	"github.com/quiverhq/quiver/pkg/tools"
	"github.com/quiverhq/quiver/pkg/vector"
)

const ToolSearch = "knowledge_search"

// Config names the backend instances a knowledge category composes.
type Config struct {
	Embedder   string `yaml:"embedder"`
	Vector     string `yaml:"vector"`
	Collection string `yaml:"collection"`
}

type searchArgs struct {
	Query      string `json:"query" jsonschema:"description=Natural language search query"`
	Collection string `json:"collection,omitempty" jsonschema:"description=Override the configured collection"`
	Limit      int    `json:"limit,omitempty" jsonschema:"description=Maximum number of results"`
}

// Descriptor declares the knowledge tools for one configured instance.
func Descriptor(name string, embedders *backend.Manager[embedder.Provider], stores *backend.Manager[vector.Store]) tools.Descriptor {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	return tools.Descriptor{
		Category: config.NewCategory(config.KindKnowledge, name),
		Tools: []tools.Definition{
			{
				Name:        ToolSearch,
				Description: "Search the knowledge base for passages relevant to a query",
				InputSchema: reflector.Reflect(&searchArgs{}),
			},
		},
		Build: func(ctx context.Context, category config.Category, settings config.Settings) (tools.Invoker, error) {
			var cfg Config
			if err := settings.Decode(&cfg); err != nil {
				return nil, config.NewConfigurationError(category, fmt.Sprintf("invalid knowledge settings: %v", err))
			}
			if cfg.Embedder == "" {
				cfg.Embedder = "default"
			}
			if cfg.Vector == "" {
				cfg.Vector = "default"
			}
			if cfg.Collection == "" {
				cfg.Collection = "knowledge"
			}
			return &Provider{
				category:  category,
				cfg:       cfg,
				embedders: embedders,
				stores:    stores,
			}, nil
		},
	}
}

// Provider invokes knowledge tools against the configured backends.
type Provider struct {
	category  config.Category
	cfg       Config
	embedders *backend.Manager[embedder.Provider]
	stores    *backend.Manager[vector.Store]
}

func (p *Provider) Invoke(ctx context.Context, tool string, args map[string]any) (tools.Result, error) {
	switch tool {
	case ToolSearch:
		return p.search(ctx, args)
	default:
		return tools.Result{}, fmt.Errorf("unknown knowledge tool %q", tool)
	}
}

func (p *Provider) search(ctx context.Context, args map[string]any) (tools.Result, error) {
	params := config.Settings(args)

	query := params.String("query", "")
	if query == "" {
		return tools.Result{}, fmt.Errorf("query is required")
	}

	collection := params.String("collection", p.cfg.Collection)
	limit := params.Int("limit", 0)

	emb, err := p.embedders.Client(ctx, p.cfg.Embedder)
	if err != nil {
		return tools.Result{}, err
	}

	queryVector, err := emb.Embed(ctx, query)
	if err != nil {
		return tools.Result{}, fmt.Errorf("failed to embed query: %w", err)
	}

	store, err := p.stores.Client(ctx, p.cfg.Vector)
	if err != nil {
		return tools.Result{}, err
	}

	results, err := store.Search(ctx, collection, queryVector, limit)
	if err != nil {
		return tools.Result{}, fmt.Errorf("knowledge search failed: %w", err)
	}

	return tools.SuccessResult(formatResults(results), results), nil
}

func formatResults(results []vector.SearchResult) string {
	if len(results) == 0 {
		return "No matching passages found."
	}

	var sb strings.Builder
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. [%.3f] %s\n", i+1, r.Score, r.Content)
	}
	return sb.String()
}
