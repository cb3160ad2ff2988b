// Command quiver is the CLI for the quiver tool registry.
//
// Usage:
//
//	quiver validate --config quiver.yaml
//	quiver tools --config quiver.yaml
//	quiver invoke knowledge_search --config quiver.yaml --args '{"query":"timeouts"}'
package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/alecthomas/kong"

	"github.com/quiverhq/quiver/pkg/config"
)

// CLI defines the command-line interface.
type CLI struct {
	Version  VersionCmd  `cmd:"" help:"Show version information."`
	Validate ValidateCmd `cmd:"" help:"Validate configuration file."`
	Schema   SchemaCmd   `cmd:"" help:"Generate JSON Schema for the configuration."`
	Tools    ToolsCmd    `cmd:"" help:"List the enabled tool catalog."`
	Invoke   InvokeCmd   `cmd:"" help:"Invoke a single tool."`

	Config          string   `short:"c" help:"Config path: a file path, or a key/node path for remote sources." default:"quiver.yaml"`
	ConfigSource    string   `help:"Config source (file, consul, etcd, zookeeper)." default:"file"`
	ConfigEndpoints []string `help:"Remote config store endpoints." placeholder:"HOST:PORT"`
	LogLevel        string   `help:"Log level (debug, info, warn, error)." default:"info"`
	LogFile         string   `help:"Log file path (empty = stderr)."`
	LogFormat       string   `help:"Log format (simple, text, json)." default:"simple"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("quiver version %s\n", version)
	return nil
}

func main() {
	_ = config.LoadEnvFiles()

	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("quiver"),
		kong.Description("quiver - configuration-driven provider and tool registry"),
		kong.UsageOnError(),
	)

	cleanup, err := initLoggerFromCLI(cli.LogLevel, cli.LogFile, cli.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	if cleanup != nil {
		defer cleanup()
	}

	err = ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
