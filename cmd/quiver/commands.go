package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/quiverhq/quiver/pkg/config"
	"github.com/quiverhq/quiver/pkg/config/provider"
)

// loadConfig loads configuration from the source selected on the command
// line: a local file by default, or a consul/etcd/zookeeper key.
func loadConfig(ctx context.Context, cli *CLI) (*config.Config, *config.Loader, error) {
	sourceType, err := provider.ParseType(cli.ConfigSource)
	if err != nil {
		return nil, nil, err
	}

	return config.LoadConfig(ctx, provider.Options{
		Type:      sourceType,
		Path:      cli.Config,
		Endpoints: cli.ConfigEndpoints,
	})
}

// ValidateCmd loads and validates the configuration file.
type ValidateCmd struct{}

func (c *ValidateCmd) Run(cli *CLI) error {
	ctx := context.Background()

	cfg, loader, err := loadConfig(ctx, cli)
	if err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}
	defer loader.Close()

	fmt.Printf("Configuration OK: %s\n", cli.Config)
	for _, category := range cfg.Categories() {
		fmt.Printf("  %s\n", category)
	}
	return nil
}

// ToolsCmd prints the enabled tool catalog.
type ToolsCmd struct{}

func (c *ToolsCmd) Run(cli *CLI) error {
	ctx := context.Background()

	cfg, loader, err := loadConfig(ctx, cli)
	if err != nil {
		return err
	}
	defer loader.Close()

	rt, err := newRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	catalog := rt.registry.Catalog()
	if len(catalog) == 0 {
		fmt.Println("No tools enabled.")
		return nil
	}

	for _, definition := range catalog {
		fmt.Printf("%-24s %-20s limit %d/%d timeout %s\n  %s\n",
			definition.Name,
			definition.Category,
			definition.Policy.DefaultLimit(),
			definition.Policy.MaxLimit(),
			definition.Policy.Timeout(),
			definition.Description)
	}
	return nil
}

// InvokeCmd runs a single tool and prints the result.
type InvokeCmd struct {
	Name string `arg:"" help:"Tool name, e.g. knowledge_search."`
	Args string `short:"a" help:"Tool arguments as a JSON object." default:"{}"`
	JSON bool   `help:"Print the full result as JSON."`
}

func (c *InvokeCmd) Run(cli *CLI) error {
	ctx := context.Background()

	cfg, loader, err := loadConfig(ctx, cli)
	if err != nil {
		return err
	}
	defer loader.Close()

	rt, err := newRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	var args map[string]any
	if err := json.Unmarshal([]byte(c.Args), &args); err != nil {
		return fmt.Errorf("invalid --args JSON: %w", err)
	}

	result, err := rt.registry.Invoke(ctx, c.Name, args)
	if err != nil {
		return err
	}

	if c.JSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	fmt.Printf("status: %s (%s)\n", result.Status, result.ExecutionTime)
	if result.Dropped > 0 {
		fmt.Printf("dropped: %d results over the limit\n", result.Dropped)
	}
	if result.Failed() {
		fmt.Printf("error [%s]: %s\n", result.ErrorKind, result.Error)
		os.Exit(1)
	}
	fmt.Println(result.Content)
	return nil
}
