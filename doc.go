// Package quiver provides a configuration-driven provider and tool registry
// for conversational agents.
//
// Quiver turns a single YAML file into a catalog of guarded tools: vector
// stores, embedding providers, relational databases, knowledge search, and
// external integrations such as Datadog and Jira. Backends are constructed
// lazily and shared across tools; every invocation is bounded by a per-category
// guardrail policy that clamps result limits and enforces timeouts.
//
// # Quick Start
//
// Install Quiver:
//
//	go install github.com/quiverhq/quiver/cmd/quiver@latest
//
// Create a configuration:
//
//	external:
//	  datadog:
//	    api_key: "${DD_API_KEY}"
//	    app_key: "${DD_APP_KEY}"
//	    max_limit: 200
//
//	knowledge:
//	  runbooks:
//	    embedder: default
//	    vector: default
//
//	embedding:
//	  default:
//	    provider: openai
//	    api_key: "${OPENAI_API_KEY}"
//
//	vector:
//	  default:
//	    provider: chromem
//	    path: ./data
//
// Inspect and invoke tools:
//
//	quiver tools --config quiver.yaml
//	quiver invoke datadog_search_logs --args '{"query":"status:error"}'
//
// # Using as Go Library
//
// Import specific packages:
//
//	import (
//	    "github.com/quiverhq/quiver/pkg/config"
//	    "github.com/quiverhq/quiver/pkg/backend"
//	    "github.com/quiverhq/quiver/pkg/tools"
//	)
package quiver
