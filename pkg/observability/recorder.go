package observability

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	globalMetrics Metrics
	metricsMu     sync.RWMutex
)

type Metrics interface {
	RecordToolInvocation(ctx context.Context, tool, status string, duration time.Duration)
	RecordBackendConnection(ctx context.Context, kind, name string, err error)
}

type PrometheusMetrics struct {
	toolDuration         metric.Float64Histogram
	toolInvocationsTotal metric.Int64Counter
	toolTruncationsTotal metric.Int64Counter
	toolErrorsTotal      metric.Int64Counter

	backendConnectionsTotal metric.Int64Counter
	backendErrorsTotal      metric.Int64Counter
}

func NewPrometheusMetrics(
	toolDuration metric.Float64Histogram,
	toolInvocationsTotal metric.Int64Counter,
	toolTruncationsTotal metric.Int64Counter,
	toolErrorsTotal metric.Int64Counter,
	backendConnectionsTotal metric.Int64Counter,
	backendErrorsTotal metric.Int64Counter,
) *PrometheusMetrics {
	return &PrometheusMetrics{
		toolDuration:            toolDuration,
		toolInvocationsTotal:    toolInvocationsTotal,
		toolTruncationsTotal:    toolTruncationsTotal,
		toolErrorsTotal:         toolErrorsTotal,
		backendConnectionsTotal: backendConnectionsTotal,
		backendErrorsTotal:      backendErrorsTotal,
	}
}

func (m *PrometheusMetrics) RecordToolInvocation(ctx context.Context, tool, status string, duration time.Duration) {
	if m == nil || m.toolDuration == nil || m.toolInvocationsTotal == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("tool", tool),
		attribute.String("status", status),
	}

	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))

	switch status {
	case "truncated":
		if m.toolTruncationsTotal != nil {
			m.toolTruncationsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("tool", tool)))
		}
	case "failed":
		if m.toolErrorsTotal != nil {
			m.toolErrorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("tool", tool)))
		}
	}
}

func (m *PrometheusMetrics) RecordBackendConnection(ctx context.Context, kind, name string, err error) {
	if m == nil || m.backendConnectionsTotal == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("kind", kind),
		attribute.String("name", name),
	}

	m.backendConnectionsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))

	if err != nil && m.backendErrorsTotal != nil {
		m.backendErrorsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func SetGlobalMetrics(m Metrics) {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	globalMetrics = m
}

func GetGlobalMetrics() Metrics {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return globalMetrics
}
