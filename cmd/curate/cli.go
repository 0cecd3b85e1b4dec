package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v2"

	"github.com/hpungsan/curate/internal/config"
	"github.com/hpungsan/curate/internal/db"
	"github.com/hpungsan/curate/internal/errors"
	"github.com/hpungsan/curate/internal/mcp"
	"github.com/hpungsan/curate/internal/ops"
	"github.com/hpungsan/curate/internal/web"
)

// newCLIApp creates the CLI application with all commands. Global flags are
// applied onto cfg before any command runs.
func newCLIApp(cfg *config.Config, logger *log.Logger) *cli.App {
	app := &cli.App{
		Name:    "curate",
		Usage:   "Regenerate the curated package list, its data snapshot and history",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "repo", Usage: "Extensions repository checkout (corpus is <repo>/extensions)"},
			&cli.StringFlag{Name: "corpus", Usage: "Corpus directory, overrides --repo"},
			&cli.StringFlag{Name: "readme", Usage: "Document to regenerate"},
			&cli.StringFlag{Name: "database", Usage: "SQLite catalog mirror path"},
			&cli.StringFlag{Name: "log-level", Usage: "debug|info|warn|error"},
		},
		Before: func(c *cli.Context) error {
			applyFlags(c, cfg)
			level, err := log.ParseLevel(cfg.LogLevel)
			if err != nil {
				return outputError(errors.NewInvalidRequest(fmt.Sprintf("invalid log level %q", cfg.LogLevel)))
			}
			logger.SetLevel(level)
			return nil
		},
		Action: generateAction(cfg, logger),
		Commands: []*cli.Command{
			generateCmd(cfg, logger),
			cleanCmd(cfg, logger),
			statsCmd(cfg, logger),
			apiVersionsCmd(cfg, logger),
			dbCmd(cfg, logger),
			mcpCmd(cfg, logger),
			serveCmd(cfg, logger),
			previewCmd(cfg, logger),
		},
	}
	app.Flags = append(app.Flags, generateFlags()...)
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// applyFlags overlays global flags that were set explicitly.
func applyFlags(c *cli.Context, cfg *config.Config) {
	overlay := &config.Config{
		RepoPath:     c.String("repo"),
		CorpusDir:    c.String("corpus"),
		ReadmePath:   c.String("readme"),
		DatabasePath: c.String("database"),
		LogLevel:     c.String("log-level"),
	}
	*cfg = *config.Merge(cfg, overlay)
}

func generateFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "Write every artifact even when nothing changed"},
		&cli.BoolFlag{Name: "no-icons", Usage: "Skip badge regeneration"},
	}
}

// generateCmd creates the generate command. It is also the default action.
func generateCmd(cfg *config.Config, logger *log.Logger) *cli.Command {
	return &cli.Command{
		Name:   "generate",
		Usage:  "Scan the corpus and regenerate the document and data files (default)",
		Flags:  generateFlags(),
		Action: generateAction(cfg, logger),
	}
}

func generateAction(cfg *config.Config, logger *log.Logger) cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.NArg() > 0 {
			return outputError(errors.NewInvalidRequest(fmt.Sprintf("unknown command %q", c.Args().First())))
		}

		output, err := ops.Generate(c.Context, ops.GenerateInput{
			Config:  cfg,
			Logger:  logger,
			Force:   c.Bool("force"),
			NoIcons: c.Bool("no-icons"),
		})
		if err != nil {
			return outputError(err)
		}

		return outputJSON(output)
	}
}

// cleanCmd creates the clean command.
func cleanCmd(cfg *config.Config, logger *log.Logger) *cli.Command {
	return &cli.Command{
		Name:  "clean",
		Usage: "Empty the generated document regions and the badge directory",
		Action: func(c *cli.Context) error {
			output, err := ops.Clean(ops.CleanInput{Config: cfg, Logger: logger})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// statsCmd creates the stats command.
func statsCmd(cfg *config.Config, logger *log.Logger) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Print corpus statistics without writing files",
		Action: func(c *cli.Context) error {
			output, err := ops.Stats(c.Context, ops.InspectInput{Config: cfg, Logger: logger})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// apiVersionsCmd creates the api-versions command.
func apiVersionsCmd(cfg *config.Config, logger *log.Logger) *cli.Command {
	return &cli.Command{
		Name:  "api-versions",
		Usage: "Print the API-version histogram without writing files",
		Action: func(c *cli.Context) error {
			output, err := ops.APIVersions(c.Context, ops.InspectInput{Config: cfg, Logger: logger})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// dbCmd groups catalog mirror commands.
func dbCmd(cfg *config.Config, logger *log.Logger) *cli.Command {
	return &cli.Command{
		Name:  "db",
		Usage: "Manage the SQLite catalog mirror",
		Subcommands: []*cli.Command{
			{
				Name:  "export",
				Usage: "Scan the corpus and write only the catalog mirror",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Mirror path (.db, .sqlite, .sqlite3); defaults to database_path"},
				},
				Action: func(c *cli.Context) error {
					output, err := ops.ExportCatalog(c.Context, ops.ExportCatalogInput{
						Config: cfg,
						Logger: logger,
						Path:   c.String("path"),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
		},
	}
}

// mcpCmd creates the mcp command.
func mcpCmd(cfg *config.Config, logger *log.Logger) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the catalog mirror as MCP tools over stdio",
		Action: func(c *cli.Context) error {
			if strings.TrimSpace(cfg.DatabasePath) == "" {
				return outputError(errors.NewInvalidRequest("database_path is not configured; run 'curate db export --path <file>' first"))
			}
			if _, err := os.Stat(cfg.DatabasePath); err != nil {
				return outputError(errors.NewInvalidRequest(fmt.Sprintf("catalog mirror %s does not exist; run 'curate db export' first", cfg.DatabasePath)))
			}

			database, err := db.Init(cfg.DatabasePath)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			defer database.Close()

			if err := mcp.Run(database, cfg, logger, Version); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(cfg *config.Config, logger *log.Logger) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Preview the generated document in a browser",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			port := c.Int("port")
			if port < 1 || port > 65535 {
				return outputError(errors.NewInvalidRequest(fmt.Sprintf("port must be between 1 and 65535, got %d", port)))
			}

			srv, err := web.NewServer(cfg, logger, Version, c.String("bind"), port)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			if err := web.Run(srv, logger); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if cErr, ok := errors.As(err); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", cErr.Code, cErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
