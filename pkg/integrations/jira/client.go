package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/quiverhq/quiver/pkg/config"
	"github.com/quiverhq/quiver/pkg/httpclient"
	"github.com/quiverhq/quiver/pkg/tools"
)

// client invokes the Jira REST API with basic auth. Retries are disabled.
type client struct {
	http    *httpclient.Client
	baseURL string
	email   string
	token   string
}

func newClient(cfg Config) *client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &client{
		http: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{Timeout: timeout}),
			httpclient.WithMaxRetries(0),
		),
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		email:   cfg.Email,
		token:   cfg.APIToken,
	}
}

func (c *client) Invoke(ctx context.Context, tool string, args map[string]any) (tools.Result, error) {
	params := config.Settings(args)

	switch tool {
	case ToolSearchIssues:
		return c.searchIssues(ctx, params)
	case ToolGetIssue:
		return c.getIssue(ctx, params)
	default:
		return tools.Result{}, fmt.Errorf("unknown jira tool %q", tool)
	}
}

type issue struct {
	Key    string `json:"key"`
	Fields struct {
		Summary string `json:"summary"`
		Status  struct {
			Name string `json:"name"`
		} `json:"status"`
		Assignee *struct {
			DisplayName string `json:"displayName"`
		} `json:"assignee"`
		Priority *struct {
			Name string `json:"name"`
		} `json:"priority"`
		Updated string `json:"updated"`
	} `json:"fields"`
}

type searchResponse struct {
	Total  int     `json:"total"`
	Issues []issue `json:"issues"`
}

func (c *client) searchIssues(ctx context.Context, params config.Settings) (tools.Result, error) {
	jql := params.String("jql", "")
	if jql == "" {
		return tools.Result{}, fmt.Errorf("jql is required")
	}
	limit := params.Int("limit", 0)

	values := url.Values{}
	values.Set("jql", jql)
	if limit > 0 {
		values.Set("maxResults", fmt.Sprintf("%d", limit))
	}

	var response searchResponse
	if err := c.get(ctx, "/rest/api/2/search?"+values.Encode(), &response); err != nil {
		return tools.Result{}, err
	}

	issues := response.Issues
	dropped := 0
	if limit > 0 && len(issues) > limit {
		dropped = len(issues) - limit
		issues = issues[:limit]
	}
	if dropped == 0 && limit > 0 && response.Total > len(issues) {
		dropped = response.Total - len(issues)
	}

	var sb strings.Builder
	for _, is := range issues {
		fmt.Fprintf(&sb, "%s [%s] %s\n", is.Key, is.Fields.Status.Name, is.Fields.Summary)
	}
	if len(issues) == 0 {
		sb.WriteString("No issues matched the query.")
	}

	if dropped > 0 {
		return tools.TruncatedResult(sb.String(), issues, dropped), nil
	}
	return tools.SuccessResult(sb.String(), issues), nil
}

func (c *client) getIssue(ctx context.Context, params config.Settings) (tools.Result, error) {
	key := params.String("key", "")
	if key == "" {
		return tools.Result{}, fmt.Errorf("key is required")
	}

	var is issue
	if err := c.get(ctx, "/rest/api/2/issue/"+url.PathEscape(key), &is); err != nil {
		return tools.Result{}, err
	}

	assignee := "unassigned"
	if is.Fields.Assignee != nil {
		assignee = is.Fields.Assignee.DisplayName
	}
	priority := ""
	if is.Fields.Priority != nil {
		priority = is.Fields.Priority.Name
	}

	content := fmt.Sprintf("%s [%s] %s\nassignee: %s priority: %s updated: %s",
		is.Key, is.Fields.Status.Name, is.Fields.Summary, assignee, priority, is.Fields.Updated)

	return tools.SuccessResult(content, is), nil
}

func (c *client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.email, c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode jira response: %w", err)
	}
	return nil
}
