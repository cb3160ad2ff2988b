package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

func InitMetrics(ctx context.Context, cfg MetricsConfig) (*PrometheusMetrics, error) {
	if !cfg.Enabled {
		return &PrometheusMetrics{}, nil
	}

	promExporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(promExporter),
	)

	meter := meterProvider.Meter("quiver")

	toolDuration, err := meter.Float64Histogram(
		"quiver_tool_invocation_duration_seconds",
		metric.WithDescription("Tool invocation duration in seconds"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool duration histogram: %w", err)
	}

	toolInvocations, err := meter.Int64Counter(
		"quiver_tool_invocations_total",
		metric.WithDescription("Total tool invocations"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool invocations counter: %w", err)
	}

	toolTruncations, err := meter.Int64Counter(
		"quiver_tool_truncations_total",
		metric.WithDescription("Total tool invocations whose results were truncated"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool truncations counter: %w", err)
	}

	toolErrors, err := meter.Int64Counter(
		"quiver_tool_errors_total",
		metric.WithDescription("Total tool invocation errors"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool errors counter: %w", err)
	}

	backendConnections, err := meter.Int64Counter(
		"quiver_backend_connections_total",
		metric.WithDescription("Total backend client constructions"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend connections counter: %w", err)
	}

	backendErrors, err := meter.Int64Counter(
		"quiver_backend_errors_total",
		metric.WithDescription("Total backend connection failures"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend errors counter: %w", err)
	}

	return NewPrometheusMetrics(
		toolDuration,
		toolInvocations,
		toolTruncations,
		toolErrors,
		backendConnections,
		backendErrors,
	), nil
}

// ServeMetrics exposes the prometheus scrape endpoint. Blocks until the
// listener fails, so call it from its own goroutine.
func ServeMetrics(cfg MetricsConfig) error {
	if !cfg.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return server.ListenAndServe()
}
