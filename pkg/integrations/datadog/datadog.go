// Package datadog exposes Datadog logs, metrics, and monitors as tools.
package datadog

import (
	"context"
	"fmt"
	"time"

	"github.com/invopop/jsonschema"

	"github.com/quiverhq/quiver/pkg/config"
	"github.com/quiverhq/quiver/pkg/tools"
)

const (
	ToolSearchLogs   = "datadog_search_logs"
	ToolQueryMetrics = "datadog_query_metrics"
	ToolListMonitors = "datadog_list_monitors"
)

// Config holds the decoded external.datadog settings. Both keys are
// validated before any request leaves the process.
type Config struct {
	APIKey  string        `yaml:"api_key"`
	AppKey  string        `yaml:"app_key"`
	Site    string        `yaml:"site"`
	Timeout time.Duration `yaml:"timeout"`
}

type searchLogsArgs struct {
	Query string `json:"query" jsonschema:"description=Datadog log search query"`
	From  string `json:"from,omitempty" jsonschema:"description=Start of the time range, e.g. now-15m"`
	To    string `json:"to,omitempty" jsonschema:"description=End of the time range, e.g. now"`
	Limit int    `json:"limit,omitempty" jsonschema:"description=Maximum number of log events"`
}

type queryMetricsArgs struct {
	Query string `json:"query" jsonschema:"description=Datadog metrics query, e.g. avg:system.cpu.user{*}"`
	From  string `json:"from,omitempty" jsonschema:"description=Start as unix seconds; defaults to one hour ago"`
	To    string `json:"to,omitempty" jsonschema:"description=End as unix seconds; defaults to now"`
}

type listMonitorsArgs struct {
	Limit int `json:"limit,omitempty" jsonschema:"description=Maximum number of monitors"`
}

// Descriptor declares the Datadog tools.
func Descriptor(name string) tools.Descriptor {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	return tools.Descriptor{
		Category: config.NewCategory(config.KindExternal, name),
		Tools: []tools.Definition{
			{
				Name:        ToolSearchLogs,
				Description: "Search Datadog log events, most recent first",
				InputSchema: reflector.Reflect(&searchLogsArgs{}),
			},
			{
				Name:        ToolQueryMetrics,
				Description: "Query Datadog timeseries metrics",
				InputSchema: reflector.Reflect(&queryMetricsArgs{}),
			},
			{
				Name:        ToolListMonitors,
				Description: "List Datadog monitors with their current state",
				InputSchema: reflector.Reflect(&listMonitorsArgs{}),
			},
		},
		Build: func(ctx context.Context, category config.Category, settings config.Settings) (tools.Invoker, error) {
			var cfg Config
			if err := settings.Decode(&cfg); err != nil {
				return nil, config.NewConfigurationError(category, fmt.Sprintf("invalid datadog settings: %v", err))
			}
			if cfg.APIKey == "" {
				return nil, config.MissingKeyError(category, "api_key")
			}
			if cfg.AppKey == "" {
				return nil, config.MissingKeyError(category, "app_key")
			}
			return newClient(cfg), nil
		},
	}
}
