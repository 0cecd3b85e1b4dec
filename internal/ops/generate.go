package ops

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hpungsan/curate/internal/badge"
	"github.com/hpungsan/curate/internal/config"
	"github.com/hpungsan/curate/internal/document"
	"github.com/hpungsan/curate/internal/errors"
	"github.com/hpungsan/curate/internal/history"
	"github.com/hpungsan/curate/internal/stats"
)

// LicenseTOCEntry is appended to the rendered table of contents.
const LicenseTOCEntry = "\n- [License](#license)"

// UpdateTimeLayout formats the timestamp badge message.
const UpdateTimeLayout = "2006-01-02 15:04:05"

// GenerateInput contains parameters for the Generate operation.
type GenerateInput struct {
	Config *config.Config
	Logger *log.Logger

	// Force writes every artifact even when no region changed.
	Force bool

	// NoIcons skips badge regeneration.
	NoIcons bool

	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time

	// Token overrides the per-run badge token. Defaults to a fresh one.
	Token string
}

// GenerateOutput contains the result of the Generate operation.
type GenerateOutput struct {
	Changed         bool     `json:"changed"`
	Forced          bool     `json:"forced"`
	Packages        int      `json:"packages"`
	Token           string   `json:"token,omitempty"`
	HistoryAppended bool     `json:"history_appended"`
	Written         []string `json:"written"`
}

// Generate runs the full pipeline: scan, merge the document in memory, and,
// when something changed or Force is set, record history and write every
// artifact. The document is written last.
func Generate(ctx context.Context, input GenerateInput) (*GenerateOutput, error) {
	cfg := input.Config
	if cfg == nil {
		return nil, errors.NewInvalidRequest("config is required")
	}
	logger := loggerOrDiscard(input.Logger)
	now := input.Now
	if now == nil {
		now = timeNow
	}

	scan, err := Scan(ctx, ScanInput{Config: cfg, Logger: logger})
	if err != nil {
		return nil, err
	}

	readme, err := os.ReadFile(cfg.ReadmePath)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("read document: %w", err))
	}

	content := document.Content{
		Sections:        scan.Rendered.Sections,
		TableOfContents: scan.Rendered.TableOfContents + LicenseTOCEntry,
		Statistics:      scan.Statistics,
	}
	token := input.Token
	if token == "" {
		token = document.NewToken()
	}
	result, err := document.ApplyWithToken(string(readme), content, token)
	if err != nil {
		return nil, err
	}

	out := &GenerateOutput{
		Changed:  result.Changed,
		Forced:   input.Force,
		Packages: len(scan.Packages),
		Written:  []string{},
	}

	if !result.Changed && !input.Force {
		logger.Info("No changes detected")
		return out, nil
	}
	out.Token = result.Token
	stamp := now()

	appended, err := history.Record(cfg.HistoryPath, historyEntry(scan.Snapshot, stamp), writeFileAtomic)
	if err != nil {
		return nil, err
	}
	out.HistoryAppended = appended
	if appended {
		out.Written = append(out.Written, cfg.HistoryPath)
		logger.Info("History entry appended", "path", cfg.HistoryPath)
	}

	entries := slices.Clone(scan.Rendered.Entries)
	document.SortByName(entries)
	if err := writeJSON(cfg.DataPath, nonNil(entries)); err != nil {
		return nil, err
	}
	out.Written = append(out.Written, cfg.DataPath)
	logger.Info("Data snapshot written", "path", cfg.DataPath, "packages", len(entries))

	if err := writeJSON(cfg.APIVersionsPath, scan.Snapshot.APIVersions); err != nil {
		return nil, err
	}
	out.Written = append(out.Written, cfg.APIVersionsPath)
	logger.Info("API versions written", "path", cfg.APIVersionsPath, "versions", len(scan.Snapshot.APIVersions))

	if cfg.DatabasePath != "" {
		if err := writeMirror(ctx, cfg.DatabasePath, scan, stamp.UnixMilli()); err != nil {
			return nil, err
		}
		out.Written = append(out.Written, cfg.DatabasePath)
		logger.Info("Catalog mirror written", "path", cfg.DatabasePath)
	}

	if !input.NoIcons {
		badges := runBadges(result.Token, stamp, scan.Snapshot)
		if err := badge.Generate(cfg.IconsDir, badges); err != nil {
			logger.Warn("Badge generation failed", "dir", cfg.IconsDir, "error", err)
		} else {
			out.Written = append(out.Written, cfg.IconsDir)
			logger.Info("Badges written", "dir", cfg.IconsDir, "count", len(badges))
		}
	}

	if err := writeFileAtomic(cfg.ReadmePath, []byte(result.Document)); err != nil {
		return nil, err
	}
	out.Written = append(out.Written, cfg.ReadmePath)
	logger.Info("Document written", "path", cfg.ReadmePath)

	return out, nil
}

// historyEntry builds the rollup recorded for snapshot at t.
func historyEntry(s stats.Snapshot, t time.Time) history.Entry {
	return history.Entry{
		Timestamp:          t.UnixMilli(),
		Packages:           s.Packages,
		Authors:            len(s.Authors),
		Contributors:       len(s.Contributors),
		OnlyContributors:   len(s.OnlyContributors()),
		NoPlatformSelected: s.Platforms.NoPlatformSelected,
		MacOnly:            s.Platforms.MacOnly,
		WithWindows:        s.Platforms.WithWindows,
		WindowsOnly:        s.Platforms.WindowsOnly,
	}
}

// runBadges lists the badges written on every artifact run.
func runBadges(token string, t time.Time, s stats.Snapshot) []badge.Badge {
	return []badge.Badge{
		{
			FileName: document.UpdateTimeBadge(token),
			Label:    "Last update",
			Message:  t.Format(UpdateTimeLayout),
			Color:    "blue",
		},
		{
			FileName: "packages.svg",
			Label:    "Extensions",
			Message:  strconv.Itoa(s.Packages),
			Color:    "brightgreen",
		},
		{
			FileName: "authors.svg",
			Label:    "Authors",
			Message:  strconv.Itoa(len(s.Authors)),
			Color:    "blue",
		},
	}
}

// encodeJSON renders v compactly without HTML escaping and without a trailing newline.
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, errors.NewInternal(err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func writeJSON(path string, v any) error {
	data, err := encodeJSON(v)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

// nonNil keeps an empty corpus encoding as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
