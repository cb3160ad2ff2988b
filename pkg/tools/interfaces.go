// Package tools provides the guarded tool registry. Tools are declared by
// descriptors, bounded by guardrail policies, and invoked through a single
// entry point that never leaks raw upstream errors.
package tools

import (
	"context"

	"github.com/invopop/jsonschema"

	"github.com/quiverhq/quiver/pkg/config"
	"github.com/quiverhq/quiver/pkg/guardrail"
)

// Definition describes one tool as exposed in the catalog.
type Definition struct {
	Name        string
	Category    config.Category
	Description string
	InputSchema *jsonschema.Schema
	Policy      guardrail.Policy
}

// Invoker executes the tools of one category. Implementations return
// ordinary Go errors; the guard turns them into failed results.
type Invoker interface {
	Invoke(ctx context.Context, tool string, args map[string]any) (Result, error)
}

// BuildFunc constructs a category's invoker from its resolved settings.
// It runs on the first invocation of any tool in the category, never at
// registry build.
type BuildFunc func(ctx context.Context, category config.Category, settings config.Settings) (Invoker, error)

// Descriptor declares one category's tools and how to build their invoker.
type Descriptor struct {
	Category config.Category
	Tools    []Definition
	Build    BuildFunc
}
