package config

import (
	"fmt"
	"strings"
)

// Kind groups categories by the capability they configure.
type Kind string

const (
	KindVector    Kind = "vector"
	KindEmbedding Kind = "embedding"
	KindDatabase  Kind = "database"
	KindKnowledge Kind = "knowledge"
	KindExternal  Kind = "external"
)

// Category names one logical configuration domain, e.g. "vector.main",
// "embedding.default" or "external.datadog". The part before the first dot
// is the kind, the rest is the instance name.
type Category string

// NewCategory builds a category from a kind and an instance name.
func NewCategory(kind Kind, name string) Category {
	return Category(string(kind) + "." + name)
}

// Split returns the kind and instance name of the category.
func (c Category) Split() (Kind, string) {
	s := string(c)
	idx := strings.Index(s, ".")
	if idx < 0 {
		return Kind(s), ""
	}
	return Kind(s[:idx]), s[idx+1:]
}

// Kind returns the category kind.
func (c Category) Kind() Kind {
	kind, _ := c.Split()
	return kind
}

// Name returns the instance name within the kind.
func (c Category) Name() string {
	_, name := c.Split()
	return name
}

// Validate checks that the category has the kind.name form.
func (c Category) Validate() error {
	kind, name := c.Split()
	if kind == "" || name == "" {
		return fmt.Errorf("invalid category %q: want <kind>.<name>", string(c))
	}
	return nil
}

func (c Category) String() string {
	return string(c)
}
