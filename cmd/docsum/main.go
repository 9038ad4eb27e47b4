// Package main implements docsum, a command line front end to the document
// summarization pipeline. It summarizes a single document synchronously or
// serves the start/poll protocol as MCP tools over stdio.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/scry-summarizer/internal/app"
	"github.com/phrazzld/scry-summarizer/internal/config"
	"github.com/phrazzld/scry-summarizer/internal/platform/logger"
	"github.com/urfave/cli/v2"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newCLI().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newCLI() *cli.App {
	return &cli.App{
		Name:    "docsum",
		Usage:   "summarize documents with a generative model",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML config file",
				EnvVars: []string{"SCRY_CONFIG_FILE"},
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "only log errors",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "summarize",
				Usage:     "summarize one document and print the result",
				ArgsUsage: "<file-url>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "declared file type, e.g. pdf or docx"},
					&cli.BoolFlag{Name: "full", Usage: "run a full analysis instead of a quick summary"},
					&cli.StringFlag{Name: "existing-summary", Usage: "summary to extend in full analysis mode"},
					&cli.BoolFlag{Name: "json", Usage: "print the result as JSON"},
				},
				Action: summarizeAction,
			},
			{
				Name:   "mcp",
				Usage:  "serve startAnalysis and checkResult as MCP tools over stdio",
				Action: mcpAction,
			},
		},
	}
}

// buildApp loads configuration and wires the pipeline. Logs go to stderr so
// stdout stays free for results and the MCP transport.
func buildApp(c *cli.Context) (*app.Application, error) {
	cfg, err := config.LoadFile(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	level := cfg.Server.LogLevel
	if c.Bool("quiet") {
		level = "error"
	}
	l, err := logger.Setup(logger.LoggerConfig{Level: level, Output: os.Stderr})
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	slog.Debug("configuration loaded", "provider", cfg.LLM.Provider)

	return app.New(c.Context, cfg, l)
}
