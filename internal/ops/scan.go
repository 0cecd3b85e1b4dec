package ops

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hpungsan/curate/internal/config"
	"github.com/hpungsan/curate/internal/document"
	"github.com/hpungsan/curate/internal/errors"
	"github.com/hpungsan/curate/internal/manifest"
	"github.com/hpungsan/curate/internal/stats"
)

// timeNow is the clock used when an input does not supply one.
var timeNow = time.Now

// ScanInput contains parameters for the Scan operation.
type ScanInput struct {
	Config *config.Config
	Logger *log.Logger
}

// ScanOutput is everything derived from the corpus in one pass.
type ScanOutput struct {
	Corpus     *manifest.Corpus
	Packages   []manifest.Normalized
	Snapshot   stats.Snapshot
	Categories []string
	Rendered   document.Output
	Statistics string
}

// Scan discovers, reads and aggregates the corpus, then renders sections and
// statistics text. It writes nothing.
func Scan(ctx context.Context, input ScanInput) (*ScanOutput, error) {
	cfg := input.Config
	if cfg == nil {
		return nil, errors.NewInvalidRequest("config is required")
	}
	logger := loggerOrDiscard(input.Logger)

	root := cfg.Corpus()
	corpus, err := manifest.Discover(root)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	logger.Info("Packages found", "count", len(corpus.Manifests()), "corpus", root)

	pkgs, err := manifest.Load(ctx, corpus, cfg.ReadConcurrency)
	if err != nil {
		return nil, err
	}

	snapshot := stats.Aggregate(pkgs)
	// Swift markers are counted per directory, with or without a manifest.
	snapshot.SwiftCount = len(corpus.SwiftPackages())
	if snapshot.Commands.Unknown > 0 {
		logger.Warn("Commands with unknown mode", "count", snapshot.Commands.Unknown)
	}

	categories := snapshot.SortedCategories()
	for _, c := range categories {
		logger.Debug("Processing category", "category", c, "packages", len(snapshot.Groups[c]))
	}

	rendered := document.Render(snapshot.Groups, categories, document.Options{
		StoreURL:  cfg.StoreURL,
		RepoURL:   cfg.RepoURL,
		TopAnchor: cfg.TopAnchor,
	})

	text := stats.RenderText(snapshot, len(pkgs), snapshot.SwiftCount, stats.TextOptions{
		ProfileURL: cfg.StoreURL,
	})

	return &ScanOutput{
		Corpus:     corpus,
		Packages:   pkgs,
		Snapshot:   snapshot,
		Categories: categories,
		Rendered:   rendered,
		Statistics: text,
	}, nil
}
