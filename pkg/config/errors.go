package config

import "fmt"

// ConfigurationError reports a missing or invalid piece of category
// configuration. It is raised before any network I/O happens.
type ConfigurationError struct {
	Category Category
	Key      string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	switch {
	case e.Key != "" && e.Reason != "":
		return fmt.Sprintf("configuration error for %s: key %q: %s", e.Category, e.Key, e.Reason)
	case e.Key != "":
		return fmt.Sprintf("configuration error for %s: missing required key %q", e.Category, e.Key)
	default:
		return fmt.Sprintf("configuration error for %s: %s", e.Category, e.Reason)
	}
}

// NewConfigurationError reports a category-level configuration problem.
func NewConfigurationError(category Category, reason string) *ConfigurationError {
	return &ConfigurationError{Category: category, Reason: reason}
}

// MissingKeyError reports a required key absent from a category's settings.
func MissingKeyError(category Category, key string) *ConfigurationError {
	return &ConfigurationError{Category: category, Key: key}
}
