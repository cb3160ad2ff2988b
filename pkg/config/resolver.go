package config

import "sort"

// Resolver produces a category's settings regardless of where they live.
// Exactly one resolver is active per process; components receive it at
// construction and never reach into process-wide state.
type Resolver interface {
	// Resolve returns the plain settings for a category. Unknown categories
	// fail with a *ConfigurationError.
	Resolve(category Category) (Settings, error)
}

// LiveResolver serves categories out of a loaded configuration tree. It is
// the production resolver; environment expansion already happened at load
// time, so resolution itself is pure.
type LiveResolver struct {
	cfg *Config
}

// NewLiveResolver wraps a loaded config.
func NewLiveResolver(cfg *Config) *LiveResolver {
	return &LiveResolver{cfg: cfg}
}

func (r *LiveResolver) Resolve(category Category) (Settings, error) {
	if err := category.Validate(); err != nil {
		return nil, NewConfigurationError(category, err.Error())
	}

	kind, name := category.Split()
	section := r.cfg.Section(kind)
	if section == nil {
		return nil, NewConfigurationError(category, "unknown category kind")
	}

	settings, ok := section[name]
	if !ok {
		return nil, NewConfigurationError(category, "category not configured")
	}
	return settings.Clone(), nil
}

// StaticResolver serves categories from a caller-supplied mapping. It does
// no I/O and reads no environment, which makes downstream components
// deterministic under test.
type StaticResolver struct {
	categories map[Category]Settings
}

// NewStaticResolver copies the supplied mapping.
func NewStaticResolver(categories map[Category]Settings) *StaticResolver {
	copied := make(map[Category]Settings, len(categories))
	for category, settings := range categories {
		copied[category] = settings.Clone()
	}
	return &StaticResolver{categories: copied}
}

func (r *StaticResolver) Resolve(category Category) (Settings, error) {
	settings, ok := r.categories[category]
	if !ok {
		return nil, NewConfigurationError(category, "category not configured")
	}
	return settings.Clone(), nil
}

// Categories returns the configured categories in sorted order.
func (r *StaticResolver) Categories() []Category {
	out := make([]Category, 0, len(r.categories))
	for category := range r.categories {
		out = append(out, category)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
