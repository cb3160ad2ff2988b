package datadog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/quiverhq/quiver/pkg/config"
	"github.com/quiverhq/quiver/pkg/tools"
)

func TestBuildRequiresKeys(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer server.Close()

	descriptor := Descriptor("main")

	tests := []struct {
		name     string
		settings config.Settings
	}{
		{"missing api_key", config.Settings{"app_key": "app", "site": server.URL}},
		{"missing app_key", config.Settings{"api_key": "api", "site": server.URL}},
		{"missing both", config.Settings{"site": server.URL}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := descriptor.Build(context.Background(), descriptor.Category, tt.settings)
			if err == nil {
				t.Fatal("expected build to fail")
			}
			var cfgErr *config.ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("error = %v, want *config.ConfigurationError", err)
			}
		})
	}

	if requests.Load() != 0 {
		t.Errorf("build made %d network calls, want 0", requests.Load())
	}
}

func TestDescriptorTools(t *testing.T) {
	descriptor := Descriptor("main")

	if descriptor.Category != "external.main" {
		t.Errorf("category = %s, want external.main", descriptor.Category)
	}
	if len(descriptor.Tools) != 3 {
		t.Fatalf("descriptor declares %d tools, want 3", len(descriptor.Tools))
	}
	for _, definition := range descriptor.Tools {
		if definition.InputSchema == nil {
			t.Errorf("tool %s has no input schema", definition.Name)
		}
	}
}

func newTestInvoker(t *testing.T, handler http.HandlerFunc) tools.Invoker {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	descriptor := Descriptor("main")
	invoker, err := descriptor.Build(context.Background(), descriptor.Category, config.Settings{
		"api_key": "test-api",
		"app_key": "test-app",
		"site":    server.URL,
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return invoker
}

func logsResponse(timestamps ...time.Time) []byte {
	events := make([]map[string]any, 0, len(timestamps))
	for i, ts := range timestamps {
		events = append(events, map[string]any{
			"id": fmt.Sprintf("evt-%d", i),
			"attributes": map[string]any{
				"timestamp": ts.Format(time.RFC3339),
				"status":    "error",
				"service":   "checkout",
				"message":   fmt.Sprintf("event %d", i),
			},
		})
	}
	data, _ := json.Marshal(map[string]any{"data": events})
	return data
}

func TestSearchLogsNewestFirst(t *testing.T) {
	base := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

	invoker := newTestInvoker(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/logs/events/search" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("DD-API-KEY") != "test-api" || r.Header.Get("DD-APPLICATION-KEY") != "test-app" {
			t.Error("auth headers missing")
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("invalid request body: %v", err)
		}
		w.Write(logsResponse(base.Add(-2*time.Minute), base, base.Add(-time.Minute)))
	})

	result, err := invoker.Invoke(context.Background(), ToolSearchLogs, map[string]any{
		"query": "status:error",
	})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if result.Status != tools.StatusSucceeded {
		t.Fatalf("result status = %s", result.Status)
	}

	events, ok := result.Payload.([]logEvent)
	if !ok {
		t.Fatalf("payload type = %T", result.Payload)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i].Attributes.Timestamp.After(events[i-1].Attributes.Timestamp) {
			t.Errorf("events not ordered newest first at index %d", i)
		}
	}
}

func TestSearchLogsTruncation(t *testing.T) {
	base := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

	invoker := newTestInvoker(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(logsResponse(
			base,
			base.Add(-time.Minute),
			base.Add(-2*time.Minute),
			base.Add(-3*time.Minute),
			base.Add(-4*time.Minute),
		))
	})

	result, err := invoker.Invoke(context.Background(), ToolSearchLogs, map[string]any{
		"limit": 2,
	})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if result.Status != tools.StatusTruncated {
		t.Fatalf("result status = %s, want truncated", result.Status)
	}
	if result.Dropped != 3 {
		t.Errorf("dropped = %d, want 3", result.Dropped)
	}
	events := result.Payload.([]logEvent)
	if len(events) != 2 {
		t.Fatalf("kept %d events, want 2", len(events))
	}
	if !events[0].Attributes.Timestamp.Equal(base) {
		t.Error("truncation must keep the newest events")
	}
}

func TestSearchLogsForwardsPageLimit(t *testing.T) {
	var body map[string]any
	invoker := newTestInvoker(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("invalid request body: %v", err)
		}
		w.Write(logsResponse(time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)))
	})

	_, err := invoker.Invoke(context.Background(), ToolSearchLogs, map[string]any{
		"query": "status:error",
		"limit": 200,
	})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}

	page, ok := body["page"].(map[string]any)
	if !ok {
		t.Fatalf("request body carries no page object: %v", body)
	}
	if limit, _ := page["limit"].(float64); limit != 200 {
		t.Errorf("page.limit = %v, want 200", page["limit"])
	}
}

func TestQueryMetrics(t *testing.T) {
	invoker := newTestInvoker(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/query" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("query") != "avg:system.cpu.user{*}" {
			t.Errorf("query param = %s", r.URL.Query().Get("query"))
		}
		w.Write([]byte(`{"status":"ok","series":[{"metric":"system.cpu.user","scope":"*","pointlist":[[1756200000000,12.5],[1756200060000,13.1]]}]}`))
	})

	result, err := invoker.Invoke(context.Background(), ToolQueryMetrics, map[string]any{
		"query": "avg:system.cpu.user{*}",
	})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if result.Status != tools.StatusSucceeded {
		t.Fatalf("result status = %s", result.Status)
	}
}

func TestQueryMetricsRequiresQuery(t *testing.T) {
	invoker := newTestInvoker(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := invoker.Invoke(context.Background(), ToolQueryMetrics, nil)
	if err == nil {
		t.Fatal("expected error for missing query")
	}
}

func TestListMonitorsTruncation(t *testing.T) {
	invoker := newTestInvoker(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/monitor" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`[
			{"id":1,"name":"cpu high","type":"metric alert","overall_state":"OK"},
			{"id":2,"name":"disk full","type":"metric alert","overall_state":"Alert"},
			{"id":3,"name":"latency","type":"metric alert","overall_state":"Warn"}
		]`))
	})

	result, err := invoker.Invoke(context.Background(), ToolListMonitors, map[string]any{"limit": 2})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if result.Status != tools.StatusTruncated {
		t.Fatalf("result status = %s, want truncated", result.Status)
	}
	if result.Dropped != 1 {
		t.Errorf("dropped = %d, want 1", result.Dropped)
	}
}

func TestUnknownTool(t *testing.T) {
	invoker := newTestInvoker(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := invoker.Invoke(context.Background(), "datadog_delete_everything", nil)
	if err == nil {
		t.Fatal("expected error for unknown tool")
	}
}
