package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v2"

	"github.com/hpungsan/curate/internal/config"
	"github.com/hpungsan/curate/internal/errors"
	"github.com/hpungsan/curate/internal/ops"
)

// previewWidth is the default word-wrap column for terminal previews.
const previewWidth = 100

// previewCmd creates the preview command.
func previewCmd(cfg *config.Config, logger *log.Logger) *cli.Command {
	return &cli.Command{
		Name:  "preview",
		Usage: "Render the statistics block, or the whole document, in the terminal",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "document", Aliases: []string{"d"}, Usage: "Render the current document file instead of fresh statistics"},
			&cli.StringFlag{Name: "style", Usage: "glamour style (dark, light, notty, ascii); auto-detected when empty"},
			&cli.IntFlag{Name: "width", Value: previewWidth, Usage: "Word-wrap width, 0 disables wrapping"},
		},
		Action: func(c *cli.Context) error {
			var md string
			if c.Bool("document") {
				data, err := os.ReadFile(cfg.ReadmePath)
				if err != nil {
					return outputError(errors.NewFileNotFound(cfg.ReadmePath))
				}
				md = string(data)
			} else {
				scan, err := ops.Scan(c.Context, ops.ScanInput{Config: cfg, Logger: logger})
				if err != nil {
					return outputError(err)
				}
				md = "## Statistics\n" + scan.Statistics
			}

			out, err := renderTerminal(md, c.String("style"), c.Int("width"))
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			_, err = fmt.Fprint(os.Stdout, out)
			return err
		},
	}
}

// renderTerminal renders markdown for a terminal.
func renderTerminal(md, style string, width int) (string, error) {
	var opts []glamour.TermRendererOption
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}

	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", err
	}
	return renderer.Render(md)
}
