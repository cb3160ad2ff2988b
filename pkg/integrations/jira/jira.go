// Package jira exposes Jira issue search and fetch as tools.
package jira

import (
	"context"
	"fmt"
	"time"

	"github.com/invopop/jsonschema"

	"github.com/quiverhq/quiver/pkg/config"
	"github.com/quiverhq/quiver/pkg/tools"
)

const (
	ToolSearchIssues = "jira_search_issues"
	ToolGetIssue     = "jira_get_issue"
)

// Config holds the decoded external.jira settings.
type Config struct {
	BaseURL  string        `yaml:"base_url"`
	Email    string        `yaml:"email"`
	APIToken string        `yaml:"api_token"`
	Timeout  time.Duration `yaml:"timeout"`
}

type searchIssuesArgs struct {
	JQL   string `json:"jql" jsonschema:"description=JQL query, e.g. project = OPS AND status = Open"`
	Limit int    `json:"limit,omitempty" jsonschema:"description=Maximum number of issues"`
}

type getIssueArgs struct {
	Key string `json:"key" jsonschema:"description=Issue key, e.g. OPS-123"`
}

// Descriptor declares the Jira tools.
func Descriptor(name string) tools.Descriptor {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	return tools.Descriptor{
		Category: config.NewCategory(config.KindExternal, name),
		Tools: []tools.Definition{
			{
				Name:        ToolSearchIssues,
				Description: "Search Jira issues with a JQL query",
				InputSchema: reflector.Reflect(&searchIssuesArgs{}),
			},
			{
				Name:        ToolGetIssue,
				Description: "Fetch a single Jira issue by key",
				InputSchema: reflector.Reflect(&getIssueArgs{}),
			},
		},
		Build: func(ctx context.Context, category config.Category, settings config.Settings) (tools.Invoker, error) {
			var cfg Config
			if err := settings.Decode(&cfg); err != nil {
				return nil, config.NewConfigurationError(category, fmt.Sprintf("invalid jira settings: %v", err))
			}
			if cfg.BaseURL == "" {
				return nil, config.MissingKeyError(category, "base_url")
			}
			if cfg.Email == "" {
				return nil, config.MissingKeyError(category, "email")
			}
			if cfg.APIToken == "" {
				return nil, config.MissingKeyError(category, "api_token")
			}
			return newClient(cfg), nil
		},
	}
}
