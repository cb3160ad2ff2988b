package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/client"
	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/quiverhq/quiver/pkg/config"
	"github.com/quiverhq/quiver/pkg/tools"
)

func fixtureServer() *server.MCPServer {
	srv := server.NewMCPServer("fixture", "1.0.0")
	srv.AddTool(
		mcpgo.NewTool("fixture_echo",
			mcpgo.WithDescription("Echo a message back"),
			mcpgo.WithString("message", mcpgo.Description("Message to echo")),
		),
		func(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
			return mcpgo.NewToolResultText(req.GetString("message", "")), nil
		},
	)
	srv.AddTool(
		mcpgo.NewTool("fixture_fail", mcpgo.WithDescription("Always fails")),
		func(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
			return mcpgo.NewToolResultError("upstream exploded"), nil
		},
	)
	return srv
}

func fixtureDescriptor(t *testing.T, cfg Config) (tools.Descriptor, *Invoker) {
	t.Helper()

	cli, err := client.NewInProcessClient(fixtureServer())
	if err != nil {
		t.Fatalf("NewInProcessClient() error = %v", err)
	}

	descriptor, invoker, err := describe(context.Background(), "external.helper", cfg, cli)
	if err != nil {
		t.Fatalf("describe() error = %v", err)
	}
	t.Cleanup(func() { invoker.Close() })
	return descriptor, invoker
}

func TestDescribeDiscoversTools(t *testing.T) {
	descriptor, invoker := fixtureDescriptor(t, Config{})

	if descriptor.Category != "external.helper" {
		t.Errorf("category = %s, want external.helper", descriptor.Category)
	}
	if len(descriptor.Tools) != 2 {
		t.Fatalf("discovered %d tools, want 2", len(descriptor.Tools))
	}

	byName := make(map[string]tools.Definition, len(descriptor.Tools))
	for _, definition := range descriptor.Tools {
		byName[definition.Name] = definition
	}

	echo, ok := byName["fixture_echo"]
	if !ok {
		t.Fatal("fixture_echo was not discovered")
	}
	if echo.Description != "Echo a message back" {
		t.Errorf("description = %q", echo.Description)
	}
	if echo.InputSchema == nil {
		t.Error("fixture_echo has no input schema")
	}

	built, err := descriptor.Build(context.Background(), descriptor.Category, config.Settings{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if built != tools.Invoker(invoker) {
		t.Error("Build must hand out the discovered connection")
	}
}

func TestDescribeFilter(t *testing.T) {
	descriptor, _ := fixtureDescriptor(t, Config{Filter: []string{"fixture_echo"}})

	if len(descriptor.Tools) != 1 {
		t.Fatalf("discovered %d tools, want 1", len(descriptor.Tools))
	}
	if descriptor.Tools[0].Name != "fixture_echo" {
		t.Errorf("tool = %s, want fixture_echo", descriptor.Tools[0].Name)
	}
}

func TestInvokeEcho(t *testing.T) {
	_, invoker := fixtureDescriptor(t, Config{})

	result, err := invoker.Invoke(context.Background(), "fixture_echo", map[string]any{
		"message": "hello",
	})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if result.Status != tools.StatusSucceeded {
		t.Errorf("status = %s", result.Status)
	}
	if result.Content != "hello" {
		t.Errorf("content = %q, want %q", result.Content, "hello")
	}
}

func TestInvokeServerError(t *testing.T) {
	_, invoker := fixtureDescriptor(t, Config{})

	_, err := invoker.Invoke(context.Background(), "fixture_fail", nil)
	if err == nil {
		t.Fatal("expected error for failing tool")
	}
}

func TestDescriptorRequiresCommand(t *testing.T) {
	_, _, err := Descriptor(context.Background(), "helper", config.Settings{})
	if err == nil {
		t.Fatal("expected error without a command")
	}
	var cfgErr *config.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error = %v, want *config.ConfigurationError", err)
	}
}
