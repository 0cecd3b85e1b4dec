package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/hpungsan/curate/internal/config"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// envFile is loaded from the working directory when present.
const envFile = ".env"

// newLogger builds the process logger. Its level is set from config once flags are parsed.
func newLogger() *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "curate",
		ReportTimestamp: true,
	})
}

// loadConfig layers defaults, ~/.curate/config.json, the nearest repo
// .curate/config.json and the environment.
func loadConfig() (*config.Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("could not determine home directory: %w", err)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("could not determine working directory: %w", err)
	}

	cfg, err := config.LoadWithRepo(filepath.Join(homeDir, ".curate"), wd)
	if err != nil {
		return nil, err
	}
	return config.ApplyEnv(cfg, envFile)
}

func main() {
	logger := newLogger()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	app := newCLIApp(cfg, logger)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
