package datadog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/quiverhq/quiver/pkg/config"
	"github.com/quiverhq/quiver/pkg/httpclient"
	"github.com/quiverhq/quiver/pkg/tools"
)

// client invokes the Datadog HTTP API. Retries are disabled; retry policy
// belongs to the caller of the tool, not the tool itself.
type client struct {
	http    *httpclient.Client
	baseURL string
	apiKey  string
	appKey  string
}

func newClient(cfg Config) *client {
	site := cfg.Site
	if site == "" {
		site = "datadoghq.com"
	}
	baseURL := site
	if !strings.HasPrefix(baseURL, "http") {
		baseURL = "https://api." + site
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &client{
		http: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{Timeout: timeout}),
			httpclient.WithMaxRetries(0),
		),
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		appKey:  cfg.AppKey,
	}
}

func (c *client) Invoke(ctx context.Context, tool string, args map[string]any) (tools.Result, error) {
	params := config.Settings(args)

	switch tool {
	case ToolSearchLogs:
		return c.searchLogs(ctx, params)
	case ToolQueryMetrics:
		return c.queryMetrics(ctx, params)
	case ToolListMonitors:
		return c.listMonitors(ctx, params)
	default:
		return tools.Result{}, fmt.Errorf("unknown datadog tool %q", tool)
	}
}

type logEvent struct {
	ID         string `json:"id"`
	Attributes struct {
		Timestamp time.Time      `json:"timestamp"`
		Status    string         `json:"status"`
		Service   string         `json:"service"`
		Message   string         `json:"message"`
		Tags      []string       `json:"tags"`
		Extra     map[string]any `json:"attributes"`
	} `json:"attributes"`
}

type logsSearchResponse struct {
	Data []logEvent `json:"data"`
}

func (c *client) searchLogs(ctx context.Context, params config.Settings) (tools.Result, error) {
	query := params.String("query", "*")
	from := params.String("from", "now-15m")
	to := params.String("to", "now")
	limit := params.Int("limit", 0)

	body := map[string]any{
		"filter": map[string]any{
			"query": query,
			"from":  from,
			"to":    to,
		},
		"sort": "-timestamp",
	}
	// Without an explicit page size the API serves its own default (10),
	// which would silently undercut the requested limit.
	if limit > 0 {
		body["page"] = map[string]any{"limit": limit}
	}

	var response logsSearchResponse
	if err := c.post(ctx, "/api/v2/logs/events/search", body, &response); err != nil {
		return tools.Result{}, err
	}

	events := response.Data
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Attributes.Timestamp.After(events[j].Attributes.Timestamp)
	})

	dropped := 0
	if limit > 0 && len(events) > limit {
		dropped = len(events) - limit
		events = events[:limit]
	}

	var sb strings.Builder
	for _, e := range events {
		fmt.Fprintf(&sb, "[%s] %s %s: %s\n",
			e.Attributes.Timestamp.Format(time.RFC3339),
			strings.ToUpper(e.Attributes.Status),
			e.Attributes.Service,
			e.Attributes.Message)
	}
	if len(events) == 0 {
		sb.WriteString("No log events matched the query.")
	}

	if dropped > 0 {
		return tools.TruncatedResult(sb.String(), events, dropped), nil
	}
	return tools.SuccessResult(sb.String(), events), nil
}

type metricsResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
	Series []struct {
		Metric    string      `json:"metric"`
		Scope     string      `json:"scope"`
		PointList [][]float64 `json:"pointlist"`
	} `json:"series"`
}

func (c *client) queryMetrics(ctx context.Context, params config.Settings) (tools.Result, error) {
	query := params.String("query", "")
	if query == "" {
		return tools.Result{}, fmt.Errorf("query is required")
	}

	now := time.Now().Unix()
	from := params.String("from", fmt.Sprintf("%d", now-3600))
	to := params.String("to", fmt.Sprintf("%d", now))

	values := url.Values{}
	values.Set("query", query)
	values.Set("from", from)
	values.Set("to", to)

	var response metricsResponse
	if err := c.get(ctx, "/api/v1/query?"+values.Encode(), &response); err != nil {
		return tools.Result{}, err
	}
	if response.Error != "" {
		return tools.Result{}, fmt.Errorf("datadog metrics query failed: %s", response.Error)
	}

	var sb strings.Builder
	for _, series := range response.Series {
		last := "n/a"
		if n := len(series.PointList); n > 0 && len(series.PointList[n-1]) == 2 {
			last = fmt.Sprintf("%.4f", series.PointList[n-1][1])
		}
		fmt.Fprintf(&sb, "%s{%s}: %d points, latest %s\n", series.Metric, series.Scope, len(series.PointList), last)
	}
	if len(response.Series) == 0 {
		sb.WriteString("Query returned no series.")
	}

	return tools.SuccessResult(sb.String(), response.Series), nil
}

type monitor struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	Query        string `json:"query"`
	Message      string `json:"message"`
	OverallState string `json:"overall_state"`
}

func (c *client) listMonitors(ctx context.Context, params config.Settings) (tools.Result, error) {
	limit := params.Int("limit", 0)

	var monitors []monitor
	if err := c.get(ctx, "/api/v1/monitor", &monitors); err != nil {
		return tools.Result{}, err
	}

	dropped := 0
	if limit > 0 && len(monitors) > limit {
		dropped = len(monitors) - limit
		monitors = monitors[:limit]
	}

	var sb strings.Builder
	for _, m := range monitors {
		fmt.Fprintf(&sb, "#%d [%s] %s (%s)\n", m.ID, m.OverallState, m.Name, m.Type)
	}
	if len(monitors) == 0 {
		sb.WriteString("No monitors found.")
	}

	if dropped > 0 {
		return tools.TruncatedResult(sb.String(), monitors, dropped), nil
	}
	return tools.SuccessResult(sb.String(), monitors), nil
}

func (c *client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, out)
}

func (c *client) do(req *http.Request, out any) error {
	req.Header.Set("DD-API-KEY", c.apiKey)
	req.Header.Set("DD-APPLICATION-KEY", c.appKey)

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
		return fmt.Errorf("failed to decode datadog response: %w", err)
	}
	return nil
}
