// Package guardrail defines the bounds applied to every outbound tool call:
// result-size limits and a per-call timeout. Bounds clamp, they never reject;
// a caller asking for too much simply gets the maximum.
package guardrail

import (
	"fmt"
	"time"

	"github.com/quiverhq/quiver/pkg/config"
)

const (
	// DefaultLimit applies when a category configures no default_limit.
	DefaultLimit = 25

	// DefaultMaxLimit applies when a category configures no max_limit.
	DefaultMaxLimit = 100

	// DefaultTimeout applies when a category configures no timeout.
	DefaultTimeout = 30 * time.Second
)

// Policy bounds one integration's operations. Policies are immutable after
// registry build and safe for concurrent use.
type Policy struct {
	defaultLimit int
	maxLimit     int
	timeout      time.Duration
}

// NewPolicy validates and builds a policy. The default limit may never
// exceed the maximum.
func NewPolicy(defaultLimit, maxLimit int, timeout time.Duration) (Policy, error) {
	if defaultLimit <= 0 {
		return Policy{}, fmt.Errorf("default limit must be positive, got %d", defaultLimit)
	}
	if maxLimit <= 0 {
		return Policy{}, fmt.Errorf("max limit must be positive, got %d", maxLimit)
	}
	if defaultLimit > maxLimit {
		return Policy{}, fmt.Errorf("default limit %d exceeds max limit %d", defaultLimit, maxLimit)
	}
	if timeout <= 0 {
		return Policy{}, fmt.Errorf("timeout must be positive, got %v", timeout)
	}
	return Policy{
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
		timeout:      timeout,
	}, nil
}

// FromSettings reads default_limit, max_limit, and timeout keys from a
// category's settings, falling back to package defaults.
func FromSettings(settings config.Settings) (Policy, error) {
	return NewPolicy(
		settings.Int("default_limit", DefaultLimit),
		settings.Int("max_limit", DefaultMaxLimit),
		settings.Duration("timeout", DefaultTimeout),
	)
}

// Limit clamps a caller-requested limit into [1, max]. A zero or negative
// request is treated as absent and gets the default.
func (p Policy) Limit(requested int) int {
	if requested <= 0 {
		return p.defaultLimit
	}
	if requested > p.maxLimit {
		return p.maxLimit
	}
	return requested
}

// DefaultLimit returns the limit applied when the caller supplies none.
func (p Policy) DefaultLimit() int {
	return p.defaultLimit
}

// MaxLimit returns the hard ceiling on any caller-supplied limit.
func (p Policy) MaxLimit() int {
	return p.maxLimit
}

// Timeout returns the per-call deadline.
func (p Policy) Timeout() time.Duration {
	return p.timeout
}
