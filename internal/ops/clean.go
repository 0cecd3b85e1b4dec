package ops

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/hpungsan/curate/internal/badge"
	"github.com/hpungsan/curate/internal/config"
	"github.com/hpungsan/curate/internal/document"
	"github.com/hpungsan/curate/internal/errors"
)

// CleanInput contains parameters for the Clean operation.
type CleanInput struct {
	Config *config.Config
	Logger *log.Logger
}

// CleanOutput contains the result of the Clean operation.
type CleanOutput struct {
	ReadmePath string `json:"readme_path"`
	IconsDir   string `json:"icons_dir"`
}

// Clean empties every generated region of the document and the badge directory.
func Clean(input CleanInput) (*CleanOutput, error) {
	cfg := input.Config
	if cfg == nil {
		return nil, errors.NewInvalidRequest("config is required")
	}
	logger := loggerOrDiscard(input.Logger)

	readme, err := os.ReadFile(cfg.ReadmePath)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("read document: %w", err))
	}

	reset, err := document.Reset(string(readme))
	if err != nil {
		return nil, err
	}
	if err := writeFileAtomic(cfg.ReadmePath, []byte(reset)); err != nil {
		return nil, err
	}
	logger.Info("Document regions reset", "path", cfg.ReadmePath)

	if err := badge.Reset(cfg.IconsDir); err != nil {
		return nil, errors.NewInternal(err)
	}
	logger.Info("Badge directory emptied", "dir", cfg.IconsDir)

	return &CleanOutput{ReadmePath: cfg.ReadmePath, IconsDir: cfg.IconsDir}, nil
}
