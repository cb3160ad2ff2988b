package tools

import (
	"fmt"

	"github.com/quiverhq/quiver/pkg/config"
)

// DuplicateToolNameError reports two descriptors claiming the same tool name.
type DuplicateToolNameError struct {
	Name   string
	First  config.Category
	Second config.Category
}

func (e *DuplicateToolNameError) Error() string {
	return fmt.Sprintf("duplicate tool name %q: declared by %s and %s", e.Name, e.First, e.Second)
}

// NotFoundError reports an invocation of a tool absent from the catalog,
// whether never registered or disabled.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("tool %q not found", e.Name)
}
