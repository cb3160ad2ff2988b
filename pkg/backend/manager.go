// Package backend provides the per-kind connection manager. A manager owns
// the clients it constructs: they are built lazily on first request, cached
// for the process lifetime, and closed on shutdown.
package backend

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/quiverhq/quiver/pkg/config"
	"github.com/quiverhq/quiver/pkg/observability"
)

// BuildFunc constructs one client from a category's resolved settings.
type BuildFunc[T any] func(ctx context.Context, category config.Category, settings config.Settings) (T, error)

// Manager lazily constructs and caches clients of one backend kind, keyed by
// instance name. Concurrent first requests for the same instance collapse
// into a single construction; the losers wait for the winner's result.
type Manager[T any] struct {
	kind     config.Kind
	resolver config.Resolver
	build    BuildFunc[T]

	group   singleflight.Group
	mu      sync.RWMutex
	clients map[string]T
}

// NewManager creates a manager for one backend kind.
func NewManager[T any](kind config.Kind, resolver config.Resolver, build BuildFunc[T]) *Manager[T] {
	return &Manager[T]{
		kind:     kind,
		resolver: resolver,
		build:    build,
		clients:  make(map[string]T),
	}
}

// Kind returns the backend kind this manager serves.
func (m *Manager[T]) Kind() config.Kind {
	return m.kind
}

// Category declares which configuration category an instance name resolves
// to, so callers never hardcode the mapping.
func (m *Manager[T]) Category(name string) config.Category {
	return config.NewCategory(m.kind, name)
}

// Client returns the client for an instance, constructing it on first use.
// Resolution failures surface as *config.ConfigurationError, construction
// failures as *ConnectionError; neither is cached.
func (m *Manager[T]) Client(ctx context.Context, name string) (T, error) {
	m.mu.RLock()
	client, ok := m.clients[name]
	m.mu.RUnlock()
	if ok {
		return client, nil
	}

	v, err, _ := m.group.Do(name, func() (any, error) {
		// Re-check under the flight: another caller may have populated the
		// cache between the read above and entering the group.
		m.mu.RLock()
		client, ok := m.clients[name]
		m.mu.RUnlock()
		if ok {
			return client, nil
		}

		category := m.Category(name)
		settings, err := m.resolver.Resolve(category)
		if err != nil {
			return nil, err
		}

		tracer := observability.GetTracer("quiver.backend")
		ctx, span := tracer.Start(ctx, observability.SpanBackendConnect,
			trace.WithAttributes(
				attribute.String(observability.AttrBackendKind, string(m.kind)),
				attribute.String(observability.AttrBackendName, name),
			),
		)
		defer span.End()

		built, err := m.build(ctx, category, settings)
		if metrics := observability.GetGlobalMetrics(); metrics != nil {
			metrics.RecordBackendConnection(ctx, string(m.kind), name, err)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "backend construction failed")
			return nil, &ConnectionError{Category: category, Err: err}
		}
		span.SetStatus(codes.Ok, "connected")

		m.mu.Lock()
		m.clients[name] = built
		m.mu.Unlock()

		slog.Debug("Constructed backend client", "category", category.String())
		return built, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Reset drops a cached client, closing it if it implements io.Closer. The
// next request reconstructs it.
func (m *Manager[T]) Reset(name string) {
	m.mu.Lock()
	client, ok := m.clients[name]
	delete(m.clients, name)
	m.mu.Unlock()

	if ok {
		closeClient(m.Category(name), client)
	}
}

// Names returns the instance names with a constructed client.
func (m *Manager[T]) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.clients))
	for name := range m.clients {
		names = append(names, name)
	}
	return names
}

// Close tears down every cached client.
func (m *Manager[T]) Close() error {
	m.mu.Lock()
	clients := m.clients
	m.clients = make(map[string]T)
	m.mu.Unlock()

	var firstErr error
	for name, client := range clients {
		if err := closeClient(m.Category(name), client); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func closeClient(category config.Category, client any) error {
	closer, ok := client.(io.Closer)
	if !ok {
		return nil
	}
	if err := closer.Close(); err != nil {
		slog.Warn("Failed to close backend client", "category", category.String(), "error", err)
		return err
	}
	return nil
}
