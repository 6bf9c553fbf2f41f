package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/shihwesley/chronicler-sub000/internal"
	"github.com/shihwesley/chronicler-sub000/internal/docindex"
	"github.com/shihwesley/chronicler-sub000/internal/docservice"
	"github.com/shihwesley/chronicler-sub000/internal/mcpserver"
	"github.com/shihwesley/chronicler-sub000/internal/resolver"
	"github.com/shihwesley/chronicler-sub000/internal/search"
	"github.com/shihwesley/chronicler-sub000/internal/storage"
	pkgconfig "github.com/shihwesley/chronicler-sub000/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

// runMCP serves the MCP tools over stdio. Logs go to stderr so stdout
// stays clean for the protocol stream.
func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	store, err := storage.NewFS(cfg.Workspace.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	mirror, err := search.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init search mirror: %w", err)
	}
	defer mirror.Close()

	idx := docindex.NewStore()
	svc := docservice.New(store, idx, mirror, resolver.New(idx, cfg.Remote.Resolver()), logger)
	if err := svc.LoadWorkspace(ctx); err != nil {
		return fmt.Errorf("load workspace: %w", err)
	}

	return mcpserver.New(svc).ServeStdio()
}

func main() {
	cmd := &cli.Command{
		Name:   "chronicler",
		Usage:  "Live document graph index with link resolution, full-text search, and an MCP surface",
		Action: runServe,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP API, file watcher, and SSE broker",
				Action: runServe,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: runMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
