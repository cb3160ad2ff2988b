package tools

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/quiverhq/quiver/pkg/config"
	"github.com/quiverhq/quiver/pkg/guardrail"
	"github.com/quiverhq/quiver/pkg/observability"
	"github.com/quiverhq/quiver/pkg/registry"
)

// invokerSource lazily builds a category's invoker. The first invocation of
// any tool in the category triggers construction; a failure is returned but
// not remembered, so the next invocation tries again.
type invokerSource struct {
	category config.Category
	resolver config.Resolver
	build    BuildFunc

	mu      sync.Mutex
	invoker Invoker
}

func (s *invokerSource) get(ctx context.Context) (Invoker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.invoker != nil {
		return s.invoker, nil
	}

	settings, err := s.resolver.Resolve(s.category)
	if err != nil {
		return nil, err
	}

	invoker, err := s.build(ctx, s.category, settings)
	if err != nil {
		return nil, err
	}

	s.invoker = invoker
	return invoker, nil
}

type toolEntry struct {
	definition Definition
	guard      Guard
	source     *invokerSource
}

// Observer is called with every finished invocation, e.g. to feed an audit
// trail. It must not block.
type Observer func(ctx context.Context, definition Definition, result Result)

// Registry is the immutable post-build tool catalog. Configuration changes
// take effect by building a new registry, never by mutating a live one.
type Registry struct {
	tools    *registry.BaseRegistry[toolEntry]
	observer Observer
}

// Option configures a registry at build time.
type Option func(*Registry)

// WithObserver attaches an invocation observer.
func WithObserver(observer Observer) Option {
	return func(r *Registry) {
		r.observer = observer
	}
}

// BuildRegistry assembles the registry from descriptors. Enablement and
// guardrail policies are resolved once, here; invokers are not constructed.
// Duplicate tool names across descriptors fail the build.
func BuildRegistry(resolver config.Resolver, descriptors []Descriptor, opts ...Option) (*Registry, error) {
	r := &Registry{
		tools: registry.NewBaseRegistry[toolEntry](),
	}
	for _, opt := range opts {
		opt(r)
	}

	owners := make(map[string]config.Category)

	for _, descriptor := range descriptors {
		if err := descriptor.Category.Validate(); err != nil {
			return nil, err
		}

		// Resolution failures are not fatal here: the category's tools stay
		// registered with default bounds and surface a configuration error
		// on invocation.
		settings, err := resolver.Resolve(descriptor.Category)
		var cfgErr *config.ConfigurationError
		if err != nil && !errors.As(err, &cfgErr) {
			return nil, err
		}

		if !settings.Bool("enabled", true) {
			continue
		}

		policy, perr := guardrail.FromSettings(settings)
		if perr != nil {
			return nil, config.NewConfigurationError(descriptor.Category, perr.Error())
		}

		source := &invokerSource{
			category: descriptor.Category,
			resolver: resolver,
			build:    descriptor.Build,
		}
		guard := NewGuard(descriptor.Category, policy)

		toolSettings := settings.Sub("tools")

		for _, definition := range descriptor.Tools {
			if !toolEnabled(toolSettings, definition.Name) {
				continue
			}

			if first, taken := owners[definition.Name]; taken {
				return nil, &DuplicateToolNameError{
					Name:   definition.Name,
					First:  first,
					Second: descriptor.Category,
				}
			}
			owners[definition.Name] = descriptor.Category

			definition.Category = descriptor.Category
			definition.Policy = policy

			entry := toolEntry{
				definition: definition,
				guard:      guard,
				source:     source,
			}
			if err := r.tools.Register(definition.Name, entry); err != nil {
				return nil, err
			}
		}
	}

	return r, nil
}

func toolEnabled(toolSettings config.Settings, name string) bool {
	if toolSettings == nil {
		return true
	}
	sub := toolSettings.Sub(name)
	if sub == nil {
		return true
	}
	return sub.Bool("enabled", true)
}

// Catalog returns the enabled tool definitions sorted by name.
func (r *Registry) Catalog() []Definition {
	entries := r.tools.List()
	definitions := make([]Definition, 0, len(entries))
	for _, entry := range entries {
		definitions = append(definitions, entry.definition)
	}
	return definitions
}

// Names returns the enabled tool names sorted.
func (r *Registry) Names() []string {
	return r.tools.Names()
}

// Get returns the definition of an enabled tool.
func (r *Registry) Get(name string) (Definition, bool) {
	entry, ok := r.tools.Get(name)
	if !ok {
		return Definition{}, false
	}
	return entry.definition, true
}

// Invoke runs a tool by name. The returned error is non-nil only when the
// tool is not in the catalog; every other failure is carried in the result.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (Result, error) {
	startTime := time.Now()

	tracer := observability.GetTracer("quiver.tools")
	ctx, span := tracer.Start(ctx, observability.SpanToolInvocation,
		trace.WithAttributes(
			attribute.String(observability.AttrToolName, name),
		),
	)
	defer span.End()

	entry, ok := r.tools.Get(name)
	if !ok {
		err := &NotFoundError{Name: name}
		span.RecordError(err)
		span.SetStatus(codes.Error, "tool not found")
		return Result{}, err
	}

	span.SetAttributes(attribute.String(observability.AttrToolCategory, entry.definition.Category.String()))

	var result Result
	invoker, err := entry.source.get(ctx)
	if err != nil {
		result = ErrorResult(classify(err), err)
		result.ToolName = name
		result.ExecutionTime = time.Since(startTime)
	} else {
		result = entry.guard.Invoke(ctx, invoker, name, args)
	}

	if result.Failed() {
		span.RecordError(fmt.Errorf("%s: %s", result.ErrorKind, result.Error))
		span.SetStatus(codes.Error, string(result.ErrorKind))
		span.SetAttributes(attribute.String(observability.AttrErrorKind, string(result.ErrorKind)))
	} else {
		span.SetStatus(codes.Ok, "success")
	}
	span.SetAttributes(
		attribute.String(observability.AttrToolStatus, string(result.Status)),
		attribute.Int64("tool.duration_ms", result.ExecutionTime.Milliseconds()),
	)

	if metrics := observability.GetGlobalMetrics(); metrics != nil {
		metrics.RecordToolInvocation(ctx, name, string(result.Status), result.ExecutionTime)
	}

	if r.observer != nil {
		r.observer(ctx, entry.definition, result)
	}

	return result, nil
}
