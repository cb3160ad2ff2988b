// Package mcp exposes the tools of a Model Context Protocol server.
//
// Unlike the fixed-catalog integrations, the tool list is discovered from
// the server when the descriptor is built, so a misconfigured or unreachable
// server surfaces at startup instead of at first invocation. The server
// subprocess stays connected for the life of the process.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/mark3labs/mcp-go/client"
	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"github.com/quiverhq/quiver"
	"github.com/quiverhq/quiver/pkg/config"
	"github.com/quiverhq/quiver/pkg/tools"
)

const protocolVersion = "2024-11-05"

// Config holds the decoded external MCP category settings.
type Config struct {
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args"`
	Env     map[string]string `yaml:"env"`
	Filter  []string          `yaml:"filter"`
}

// Descriptor spawns the configured MCP server over stdio, discovers its
// tools, and declares them under the category. The returned invoker keeps
// the connection; Close it when the process shuts down.
func Descriptor(ctx context.Context, name string, settings config.Settings) (tools.Descriptor, *Invoker, error) {
	category := config.NewCategory(config.KindExternal, name)

	var cfg Config
	if err := settings.Decode(&cfg); err != nil {
		return tools.Descriptor{}, nil, config.NewConfigurationError(category, fmt.Sprintf("invalid mcp settings: %v", err))
	}
	if cfg.Command == "" {
		return tools.Descriptor{}, nil, config.MissingKeyError(category, "command")
	}

	cli, err := client.NewStdioMCPClient(cfg.Command, convertEnv(cfg.Env), cfg.Args...)
	if err != nil {
		return tools.Descriptor{}, nil, fmt.Errorf("failed to create mcp client: %w", err)
	}

	return describe(ctx, category, cfg, cli)
}

// describe runs the MCP handshake on an already constructed client and
// turns the server's tool list into a descriptor.
func describe(ctx context.Context, category config.Category, cfg Config, cli *client.Client) (tools.Descriptor, *Invoker, error) {
	if err := cli.Start(ctx); err != nil {
		cli.Close()
		return tools.Descriptor{}, nil, fmt.Errorf("failed to start mcp client: %w", err)
	}

	initReq := mcpgo.InitializeRequest{}
	initReq.Params.ClientInfo = mcpgo.Implementation{
		Name:    "quiver",
		Version: quiver.Version,
	}
	initReq.Params.ProtocolVersion = protocolVersion

	if _, err := cli.Initialize(ctx, initReq); err != nil {
		cli.Close()
		return tools.Descriptor{}, nil, fmt.Errorf("failed to initialize mcp session: %w", err)
	}

	listResp, err := cli.ListTools(ctx, mcpgo.ListToolsRequest{})
	if err != nil {
		cli.Close()
		return tools.Descriptor{}, nil, fmt.Errorf("failed to list mcp tools: %w", err)
	}

	filterSet := make(map[string]bool, len(cfg.Filter))
	for _, toolName := range cfg.Filter {
		filterSet[toolName] = true
	}

	var definitions []tools.Definition
	for _, remote := range listResp.Tools {
		if len(filterSet) > 0 && !filterSet[remote.Name] {
			continue
		}
		definitions = append(definitions, tools.Definition{
			Name:        remote.Name,
			Description: remote.Description,
			InputSchema: convertSchema(remote.InputSchema),
		})
	}

	slog.Info("Discovered MCP tools", "category", category.String(), "tools", len(definitions))

	invoker := &Invoker{client: cli}
	return tools.Descriptor{
		Category: category,
		Tools:    definitions,
		Build: func(ctx context.Context, category config.Category, settings config.Settings) (tools.Invoker, error) {
			return invoker, nil
		},
	}, invoker, nil
}

// Invoker forwards invocations to the connected MCP server.
type Invoker struct {
	client *client.Client
}

func (i *Invoker) Invoke(ctx context.Context, tool string, args map[string]any) (tools.Result, error) {
	req := mcpgo.CallToolRequest{}
	req.Params.Name = tool
	req.Params.Arguments = args

	resp, err := i.client.CallTool(ctx, req)
	if err != nil {
		return tools.Result{}, fmt.Errorf("mcp call failed: %w", err)
	}

	texts := textContents(resp.Content)
	if resp.IsError {
		message := "mcp tool reported an error"
		if len(texts) > 0 {
			message = texts[0]
		}
		return tools.Result{}, fmt.Errorf("mcp tool %s: %s", tool, message)
	}

	return tools.SuccessResult(strings.Join(texts, "\n"), texts), nil
}

// Close shuts down the MCP server connection.
func (i *Invoker) Close() error {
	return i.client.Close()
}

func textContents(content []mcpgo.Content) []string {
	var texts []string
	for _, item := range content {
		if text, ok := item.(mcpgo.TextContent); ok {
			texts = append(texts, text.Text)
		}
	}
	return texts
}

// convertSchema translates the wire schema through JSON. A schema that does
// not survive the round trip is dropped rather than failing discovery.
func convertSchema(schema mcpgo.ToolInputSchema) *jsonschema.Schema {
	data, err := json.Marshal(schema)
	if err != nil {
		return nil
	}

	var result jsonschema.Schema
	if err := json.Unmarshal(data, &result); err != nil {
		return nil
	}
	return &result
}

func convertEnv(env map[string]string) []string {
	converted := make([]string, 0, len(env))
	for key, value := range env {
		converted = append(converted, fmt.Sprintf("%s=%s", key, value))
	}
	return converted
}

var _ tools.Invoker = (*Invoker)(nil)
