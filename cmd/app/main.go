package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/logpress/internal"
	pkgconfig "github.com/starford/logpress/pkg/config"
)

var version = "dev"

// loadConfig reads the config file when present and applies flag overrides.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	configPath := cmd.String("config")
	if err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cmd.IsSet("graph") {
		cfg.Graph.Path = cmd.String("graph")
	}
	if cmd.IsSet("output") {
		cfg.Output.Path = cmd.String("output")
	}
	if cmd.IsSet("catalog") {
		cfg.Catalog.Path = cmd.String("catalog")
	}
	if cmd.IsSet("include-private") {
		cfg.Convert.IncludePrivate = cmd.Bool("include-private")
	}
	if cmd.IsSet("stubs") {
		cfg.Convert.CreateStubs = cmd.Bool("stubs")
	}
	if cmd.IsSet("git-dates") {
		cfg.Convert.GitDates = cmd.Bool("git-dates")
	}
	if cmd.IsSet("workers") {
		cfg.Convert.Workers = int(cmd.Int("workers"))
	}
	if cmd.IsSet("port") {
		cfg.App.HTTP.Port = int(cmd.Int("port"))
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func runMode(mode internal.Mode) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		opts := []internal.Option{
			internal.WithConfig(cfg),
			internal.WithMode(mode),
			internal.WithWatch(cmd.Bool("watch")),
			internal.WithVersion(version),
		}
		if mode == internal.ModeMCP {
			// stdout carries the protocol
			opts = append(opts, internal.WithLogOutput(os.Stderr))
		}
		if err := internal.Run(ctx, opts...); err != nil {
			return fmt.Errorf("app run error: %w", err)
		}
		return nil
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "logpress",
		Usage:   "Convert an outline graph into a flat markdown site",
		Version: version,
		Action:  runMode(internal.ModeConvert),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{Name: "graph", Aliases: []string{"g"}, Usage: "Graph root directory", Sources: cli.EnvVars("LOGPRESS_GRAPH")},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output directory", Sources: cli.EnvVars("LOGPRESS_OUTPUT")},
			&cli.StringFlag{Name: "catalog", Usage: "SQLite catalog path"},
			&cli.BoolFlag{Name: "include-private", Usage: "Publish pages marked private"},
			&cli.BoolFlag{Name: "stubs", Usage: "Write stub pages for unresolved references", Value: true},
			&cli.BoolFlag{Name: "git-dates", Usage: "Take created/modified dates from git history"},
			&cli.IntFlag{Name: "workers", Usage: "Worker goroutines (0 means GOMAXPROCS)"},
			&cli.IntFlag{Name: "port", Usage: "HTTP port for serve"},
			&cli.BoolFlag{Name: "watch", Aliases: []string{"w"}, Usage: "Rebuild when the graph changes"},
		},
		Commands: []*cli.Command{
			{
				Name:   "convert",
				Usage:  "Convert the graph once, or keep converting with --watch",
				Action: runMode(internal.ModeConvert),
			},
			{
				Name:   "serve",
				Usage:  "Convert, watch, and serve the inspection API",
				Action: runMode(internal.ModeServe),
			},
			{
				Name:   "mcp",
				Usage:  "Convert, then serve MCP over stdio",
				Action: runMode(internal.ModeMCP),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
