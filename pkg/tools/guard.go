package tools

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/quiverhq/quiver/pkg/backend"
	"github.com/quiverhq/quiver/pkg/config"
	"github.com/quiverhq/quiver/pkg/guardrail"
)

// Guard wraps every invocation of one category: it clamps the requested
// limit, enforces the policy timeout, and normalizes errors into result
// kinds. Log lines carry category and tool, never argument values.
type Guard struct {
	category config.Category
	policy   guardrail.Policy
}

// NewGuard builds a guard for one category.
func NewGuard(category config.Category, policy guardrail.Policy) Guard {
	return Guard{category: category, policy: policy}
}

// Policy returns the guard's policy.
func (g Guard) Policy() guardrail.Policy {
	return g.policy
}

// Invoke runs one tool call under the guard. The caller's argument map is
// not mutated; the clamped limit goes into a copy.
func (g Guard) Invoke(ctx context.Context, invoker Invoker, tool string, args map[string]any) Result {
	invocationID := uuid.NewString()
	start := time.Now()

	bounded := make(map[string]any, len(args)+1)
	for k, v := range args {
		bounded[k] = v
	}
	requested := config.Settings(args).Int("limit", 0)
	bounded["limit"] = g.policy.Limit(requested)

	ctx, cancel := context.WithTimeout(ctx, g.policy.Timeout())
	defer cancel()

	result, err := invoker.Invoke(ctx, tool, bounded)
	elapsed := time.Since(start)

	if err != nil {
		result = ErrorResult(classify(err), err)
	}
	result.ToolName = tool
	result.ExecutionTime = elapsed

	if result.Failed() {
		slog.Warn("Tool invocation failed",
			"invocation_id", invocationID,
			"category", g.category.String(),
			"tool", tool,
			"error_kind", string(result.ErrorKind),
			"duration", elapsed)
	} else {
		slog.Debug("Tool invocation completed",
			"invocation_id", invocationID,
			"category", g.category.String(),
			"tool", tool,
			"status", string(result.Status),
			"duration", elapsed)
	}

	return result
}

// classify maps an error to its result kind. Wrapped causes are honored, so
// a connection error wrapping a configuration error reports as configuration.
func classify(err error) ErrorKind {
	var cfgErr *config.ConfigurationError
	var unsupported *backend.UnsupportedProviderError
	var connErr *backend.ConnectionError

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorKindUpstreamTimeout
	case errors.As(err, &cfgErr):
		return ErrorKindConfiguration
	case errors.As(err, &unsupported):
		return ErrorKindUnsupportedProvider
	case errors.As(err, &connErr):
		return ErrorKindConnection
	default:
		return ErrorKindUpstream
	}
}
