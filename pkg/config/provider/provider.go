// Package provider defines the raw config source abstraction.
//
// Providers load configuration bytes from a source and can watch for
// changes. The config package turns those bytes into a typed tree.
package provider

import (
	"context"
	"fmt"
)

// Type identifies the config source type.
type Type string

const (
	TypeFile      Type = "file"
	TypeConsul    Type = "consul"
	TypeEtcd      Type = "etcd"
	TypeZookeeper Type = "zookeeper"
)

// ParseType converts a string to a provider Type.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeFile, TypeConsul, TypeEtcd, TypeZookeeper:
		return Type(s), nil
	case "":
		return TypeFile, nil
	default:
		return "", fmt.Errorf("unknown provider type: %s", s)
	}
}

// Provider abstracts config sources.
//
// Implementations must be safe for concurrent use.
type Provider interface {
	// Type returns the provider type for logging/debugging.
	Type() Type

	// Load reads raw config bytes from the source.
	Load(ctx context.Context) ([]byte, error)

	// Watch starts watching for changes and signals via the returned channel.
	// Cancel the context to stop watching. Returns a nil channel if watching
	// is not supported.
	Watch(ctx context.Context) (<-chan struct{}, error)

	// Close releases any resources held by the provider.
	Close() error
}

// Options configures provider creation.
type Options struct {
	// Type specifies the provider type ("file", "consul", "etcd",
	// "zookeeper").
	Type Type

	// Path is the config path: a file path for the file provider, a key or
	// node path for the remote providers.
	Path string

	// Endpoints lists the remote store addresses. Unused by the file
	// provider; each remote provider falls back to its conventional local
	// address when empty.
	Endpoints []string
}

// New creates a Provider for the given options.
func New(opts Options) (Provider, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("config path is required")
	}

	switch opts.Type {
	case TypeFile, "":
		return NewFileProvider(opts.Path)
	case TypeConsul:
		return NewConsulProvider(opts.Endpoints, opts.Path)
	case TypeEtcd:
		return NewEtcdProvider(opts.Endpoints, opts.Path)
	case TypeZookeeper:
		return NewZookeeperProvider(opts.Endpoints, opts.Path)
	default:
		return nil, fmt.Errorf("unknown provider type: %s", opts.Type)
	}
}
