package ops

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/hpungsan/curate/internal/config"
	"github.com/hpungsan/curate/internal/stats"
)

// InspectInput contains parameters for the Stats and APIVersions operations.
type InspectInput struct {
	Config *config.Config
	Logger *log.Logger
}

// StatsOutput summarizes the corpus snapshot.
type StatsOutput struct {
	Packages         int                   `json:"packages"`
	Categories       []string              `json:"categories"`
	SwiftPackages    int                   `json:"swift_packages"`
	Authors          int                   `json:"authors"`
	Contributors     int                   `json:"contributors"`
	OnlyContributors int                   `json:"only_contributors"`
	Platforms        stats.Platforms       `json:"platforms"`
	Commands         stats.Commands        `json:"commands"`
	AIToolCount      int                   `json:"ai_tools"`
	TopAuthors       []stats.Rank          `json:"top_authors"`
	TopContributors  []stats.Rank          `json:"top_contributors"`
	APIVersions      []stats.VersionBucket `json:"api_versions"`
}

// Stats scans the corpus and reports the snapshot without writing files.
func Stats(ctx context.Context, input InspectInput) (*StatsOutput, error) {
	scan, err := Scan(ctx, ScanInput(input))
	if err != nil {
		return nil, err
	}
	s := scan.Snapshot

	return &StatsOutput{
		Packages:         s.Packages,
		Categories:       nonNil(s.Categories),
		SwiftPackages:    s.SwiftCount,
		Authors:          len(s.Authors),
		Contributors:     len(s.Contributors),
		OnlyContributors: len(s.OnlyContributors()),
		Platforms:        s.Platforms,
		Commands:         s.Commands,
		AIToolCount:      s.AIToolCount,
		TopAuthors:       stats.Leaderboard(s.Authors, stats.TopN),
		TopContributors:  stats.Leaderboard(s.Contributors, stats.TopN),
		APIVersions:      s.APIVersions,
	}, nil
}

// APIVersions scans the corpus and returns the API-version histogram.
func APIVersions(ctx context.Context, input InspectInput) ([]stats.VersionBucket, error) {
	scan, err := Scan(ctx, ScanInput(input))
	if err != nil {
		return nil, err
	}
	return scan.Snapshot.APIVersions, nil
}
