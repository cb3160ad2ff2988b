// Package config provides the configuration tree, the category resolution
// contract, and the loading pipeline for quiver.
package config

import (
	"fmt"
	"sort"
)

// Config is the complete configuration document. Category sections are kept
// in plain Settings form; typed backend configs are decoded lazily by the
// component that owns the category.
type Config struct {
	Version string `yaml:"version,omitempty" json:"version,omitempty"`
	Name    string `yaml:"name,omitempty" json:"name,omitempty"`

	Global GlobalSettings `yaml:"global,omitempty" json:"global,omitempty"`

	// Category sections, keyed by instance name. The full category of an
	// entry is "<section>.<name>", e.g. vector.main or external.datadog.
	Vector    map[string]Settings `yaml:"vector,omitempty" json:"vector,omitempty"`
	Embedding map[string]Settings `yaml:"embedding,omitempty" json:"embedding,omitempty"`
	Database  map[string]Settings `yaml:"database,omitempty" json:"database,omitempty"`
	Knowledge map[string]Settings `yaml:"knowledge,omitempty" json:"knowledge,omitempty"`
	External  map[string]Settings `yaml:"external,omitempty" json:"external,omitempty"`
}

// GlobalSettings carries the ambient, non-category configuration.
type GlobalSettings struct {
	Logging   LoggerConfig    `yaml:"logging,omitempty" json:"logging,omitempty"`
	Telemetry TelemetryConfig `yaml:"telemetry,omitempty" json:"telemetry,omitempty"`
}

// LoggerConfig configures the process logger.
type LoggerConfig struct {
	Level  string `yaml:"level,omitempty" json:"level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	File   string `yaml:"file,omitempty" json:"file,omitempty"`
	Format string `yaml:"format,omitempty" json:"format,omitempty" jsonschema:"enum=simple,enum=text,enum=json"`
}

// TelemetryConfig configures tracing and metrics export.
type TelemetryConfig struct {
	Tracing TracingConfig `yaml:"tracing,omitempty" json:"tracing,omitempty"`
	Metrics MetricsConfig `yaml:"metrics,omitempty" json:"metrics,omitempty"`
}

// TracingConfig configures the OTLP trace exporter.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	Exporter     string  `yaml:"exporter,omitempty" json:"exporter,omitempty" jsonschema:"enum=otlp,enum=stdout"`
	Endpoint     string  `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	SamplingRate float64 `yaml:"sampling_rate,omitempty" json:"sampling_rate,omitempty"`
	ServiceName  string  `yaml:"service_name,omitempty" json:"service_name,omitempty"`
}

// MetricsConfig configures the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	Port    int  `yaml:"port,omitempty" json:"port,omitempty"`
}

// SetDefaults fills in defaults for absent values.
func (c *Config) SetDefaults() {
	if c.Global.Logging.Level == "" {
		c.Global.Logging.Level = "info"
	}
	if c.Global.Logging.Format == "" {
		c.Global.Logging.Format = "simple"
	}
	if c.Global.Telemetry.Tracing.Exporter == "" {
		c.Global.Telemetry.Tracing.Exporter = "otlp"
	}
	if c.Global.Telemetry.Tracing.SamplingRate == 0 {
		c.Global.Telemetry.Tracing.SamplingRate = 1.0
	}
	if c.Global.Telemetry.Tracing.ServiceName == "" {
		c.Global.Telemetry.Tracing.ServiceName = "quiver"
	}
	if c.Global.Telemetry.Metrics.Port == 0 {
		c.Global.Telemetry.Metrics.Port = 9464
	}
}

// Validate checks structural invariants of the config tree.
func (c *Config) Validate() error {
	for kind, section := range c.sections() {
		for name := range section {
			if name == "" {
				return fmt.Errorf("%s: instance name cannot be empty", kind)
			}
			if err := NewCategory(kind, name).Validate(); err != nil {
				return fmt.Errorf("%s.%s: %w", kind, name, err)
			}
		}
	}
	switch c.Global.Telemetry.Tracing.Exporter {
	case "", "otlp", "stdout":
	default:
		return fmt.Errorf("invalid tracing exporter %q (valid: otlp, stdout)", c.Global.Telemetry.Tracing.Exporter)
	}
	return nil
}

// Section returns the category section for a kind, or nil for unknown kinds.
func (c *Config) Section(kind Kind) map[string]Settings {
	return c.sections()[kind]
}

func (c *Config) sections() map[Kind]map[string]Settings {
	return map[Kind]map[string]Settings{
		KindVector:    c.Vector,
		KindEmbedding: c.Embedding,
		KindDatabase:  c.Database,
		KindKnowledge: c.Knowledge,
		KindExternal:  c.External,
	}
}

// Categories lists every category present in the config, section by
// section, instance names sorted.
func (c *Config) Categories() []Category {
	var out []Category
	for _, kind := range []Kind{KindVector, KindEmbedding, KindDatabase, KindKnowledge, KindExternal} {
		section := c.sections()[kind]
		names := make([]string, 0, len(section))
		for name := range section {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			out = append(out, NewCategory(kind, name))
		}
	}
	return out
}
