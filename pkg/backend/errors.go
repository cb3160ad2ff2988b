package backend

import (
	"fmt"

	"github.com/quiverhq/quiver/pkg/config"
)

// ConnectionError reports a failed backend construction. The failure is not
// cached; a later request for the same category retries construction.
type ConnectionError struct {
	Category config.Category
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect backend for %s: %v", e.Category, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// UnsupportedProviderError reports an unknown provider name for a kind.
// There is no fallback provider.
type UnsupportedProviderError struct {
	Kind     config.Kind
	Provider string
}

func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("unsupported %s provider: %q", e.Kind, e.Provider)
}
