package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/quiverhq/quiver/pkg/audit"
	"github.com/quiverhq/quiver/pkg/backend"
	"github.com/quiverhq/quiver/pkg/config"
	"github.com/quiverhq/quiver/pkg/embedder"
	"github.com/quiverhq/quiver/pkg/integrations/datadog"
	"github.com/quiverhq/quiver/pkg/integrations/jira"
	"github.com/quiverhq/quiver/pkg/integrations/mcp"
	"github.com/quiverhq/quiver/pkg/knowledge"
	"github.com/quiverhq/quiver/pkg/observability"
	"github.com/quiverhq/quiver/pkg/store"
	"github.com/quiverhq/quiver/pkg/tools"
	"github.com/quiverhq/quiver/pkg/vector"
)

// runtime wires the resolver, backend managers, and tool registry together
// for one loaded configuration.
type runtime struct {
	cfg       *config.Config
	resolver  config.Resolver
	embedders *backend.Manager[embedder.Provider]
	vectors   *backend.Manager[vector.Store]
	databases *backend.Manager[*sql.DB]
	registry  *tools.Registry
	closers   []io.Closer
}

func newRuntime(ctx context.Context, cfg *config.Config) (*runtime, error) {
	if err := initTelemetry(ctx, cfg); err != nil {
		return nil, err
	}

	resolver := config.NewLiveResolver(cfg)

	embedders := backend.NewManager(config.KindEmbedding, resolver,
		func(ctx context.Context, category config.Category, settings config.Settings) (embedder.Provider, error) {
			return embedder.New(category, settings)
		})
	vectors := backend.NewManager(config.KindVector, resolver,
		func(ctx context.Context, category config.Category, settings config.Settings) (vector.Store, error) {
			return vector.New(category, settings)
		})
	databases := backend.NewManager(config.KindDatabase, resolver,
		func(ctx context.Context, category config.Category, settings config.Settings) (*sql.DB, error) {
			return store.New(category, settings)
		})

	descriptors, closers, err := buildDescriptors(ctx, cfg, embedders, vectors)
	if err != nil {
		return nil, err
	}

	var opts []tools.Option
	if _, ok := cfg.Database["audit"]; ok {
		db, err := databases.Client(ctx, "audit")
		if err != nil {
			return nil, fmt.Errorf("failed to open audit database: %w", err)
		}
		recorder, err := audit.NewRecorder(ctx, db)
		if err != nil {
			return nil, err
		}
		opts = append(opts, tools.WithObserver(auditObserver(recorder)))
	}

	registry, err := tools.BuildRegistry(resolver, descriptors, opts...)
	if err != nil {
		return nil, err
	}

	return &runtime{
		cfg:       cfg,
		resolver:  resolver,
		embedders: embedders,
		vectors:   vectors,
		databases: databases,
		registry:  registry,
		closers:   closers,
	}, nil
}

func buildDescriptors(ctx context.Context, cfg *config.Config, embedders *backend.Manager[embedder.Provider], vectors *backend.Manager[vector.Store]) ([]tools.Descriptor, []io.Closer, error) {
	var descriptors []tools.Descriptor
	var closers []io.Closer

	for _, name := range sortedNames(cfg.Knowledge) {
		descriptors = append(descriptors, knowledge.Descriptor(name, embedders, vectors))
	}

	for _, name := range sortedNames(cfg.External) {
		settings := cfg.External[name]
		provider := settings.String("provider", name)
		switch provider {
		case "datadog":
			descriptors = append(descriptors, datadog.Descriptor(name))
		case "jira":
			descriptors = append(descriptors, jira.Descriptor(name))
		case "mcp":
			// Discovery spawns the server, so skip disabled categories
			// instead of leaving that to the registry.
			if !settings.Bool("enabled", true) {
				continue
			}
			descriptor, invoker, err := mcp.Descriptor(ctx, name, settings)
			if err != nil {
				closeAll(closers)
				return nil, nil, err
			}
			descriptors = append(descriptors, descriptor)
			closers = append(closers, invoker)
		default:
			closeAll(closers)
			return nil, nil, &backend.UnsupportedProviderError{Kind: config.KindExternal, Provider: provider}
		}
	}

	return descriptors, closers, nil
}

func closeAll(closers []io.Closer) {
	for _, closer := range closers {
		if err := closer.Close(); err != nil {
			slog.Warn("Failed to close tool connection", "error", err)
		}
	}
}

func sortedNames(section map[string]config.Settings) []string {
	names := make([]string, 0, len(section))
	for name := range section {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func auditObserver(recorder *audit.Recorder) tools.Observer {
	return func(ctx context.Context, definition tools.Definition, result tools.Result) {
		rec := audit.Record{
			ID:          uuid.NewString(),
			ToolName:    result.ToolName,
			Category:    definition.Category.String(),
			Status:      string(result.Status),
			ErrorKind:   string(result.ErrorKind),
			Duration:    result.ExecutionTime,
			RequestedAt: time.Now().Add(-result.ExecutionTime),
		}
		if err := recorder.Write(ctx, rec); err != nil {
			slog.Warn("Failed to record tool invocation", "tool", rec.ToolName, "error", err)
		}
	}
}

func initTelemetry(ctx context.Context, cfg *config.Config) error {
	tracing := cfg.Global.Telemetry.Tracing
	if _, err := observability.InitGlobalTracer(ctx, observability.TracerConfig{
		Enabled:      tracing.Enabled,
		ExporterType: tracing.Exporter,
		EndpointURL:  tracing.Endpoint,
		SamplingRate: tracing.SamplingRate,
		ServiceName:  tracing.ServiceName,
	}); err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	metricsCfg := observability.MetricsConfig{
		Enabled: cfg.Global.Telemetry.Metrics.Enabled,
		Port:    cfg.Global.Telemetry.Metrics.Port,
	}
	metrics, err := observability.InitMetrics(ctx, metricsCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	observability.SetGlobalMetrics(metrics)

	if metricsCfg.Enabled {
		go func() {
			if err := observability.ServeMetrics(metricsCfg); err != nil {
				slog.Error("Metrics listener failed", "error", err)
			}
		}()
	}

	return nil
}

func (r *runtime) Close() error {
	var firstErr error
	for _, closer := range []interface{ Close() error }{r.embedders, r.vectors, r.databases} {
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, closer := range r.closers {
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
