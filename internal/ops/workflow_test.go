package ops

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/curate/internal/errors"
	"github.com/hpungsan/curate/internal/history"
)

// TestGenerateWorkflow exercises a full run, an unchanged rerun and a forced rerun.
func TestGenerateWorkflow(t *testing.T) {
	cfg := setupWorkspace(t)
	ctx := context.Background()

	// 1. First run writes everything
	out, err := Generate(ctx, GenerateInput{Config: cfg, Now: func() time.Time { return fixedNow }, Token: "tok1"})
	require.NoError(t, err)
	require.True(t, out.Changed)
	require.True(t, out.HistoryAppended)
	require.Equal(t, 3, out.Packages)
	require.Equal(t, "tok1", out.Token)
	require.Equal(t, []string{
		cfg.HistoryPath, cfg.DataPath, cfg.APIVersionsPath, cfg.IconsDir, cfg.ReadmePath,
	}, out.Written)

	readme := readTestFile(t, cfg.ReadmePath)
	require.Contains(t, readme, "<!-- START UPDATETIME -->\n![Last update](/icons/tok1_update-time.svg)\n<!-- END UPDATETIME -->")
	require.Contains(t, readme, "- **3** packages in **1** categories, **1** packages use Swift")
	require.Contains(t, readme, "- **3** total commands (1 view, 1 no-view, 1 menu-bar)")
	require.Contains(t, readme, "  - [Tools](#tools)\n  - [Uncategorized](#uncategorized)\n- [License](#license)")
	require.Contains(t, readme, "### Tools\n\n")
	require.Contains(t, readme, "## Uncategorized\n\n")
	require.True(t, strings.HasPrefix(readme, "# Awesome Raycast\n"))
	require.True(t, strings.HasSuffix(readme, "## License\n\nMIT\n"))

	// Data snapshot is sorted by name, not render order.
	wantData := `[` +
		`{"name":"alpha","title":"Alpha","description":"First <b>letter</b>","author":"alice","contributors":[],"api":"1.48.8","utils":null,"hasAi":false,"hasTools":false,"win":true,"mac":true,"deps":{}},` +
		`{"name":"mid","title":"Mid","description":"Middle","author":"bob","contributors":[],"api":null,"utils":null,"swift":true,"hasAi":false,"hasTools":false,"win":true,"mac":false,"deps":{}},` +
		`{"name":"zeta-tool","title":"Zeta","description":"Last","author":"alice","contributors":["carol"],"api":"^1.50.0","utils":null,"hasAi":false,"hasTools":true,"win":false,"mac":true,"deps":{"lodash":"^4.17.21"},"dev_deps":{"typescript":"^5.0.0"},"updated":"2024-02-03"}` +
		`]`
	require.Equal(t, wantData, readTestFile(t, cfg.DataPath))

	require.Equal(t,
		`[{"version":"^1.50.0","packages":["zeta-tool"]},{"version":"1.48.8","packages":["alpha"]}]`,
		readTestFile(t, cfg.APIVersionsPath))

	hist, err := history.Load(cfg.HistoryPath)
	require.NoError(t, err)
	entries, err := hist.Entries()
	require.NoError(t, err)
	require.Equal(t, []history.Entry{{
		Timestamp:          1709528767000,
		Packages:           3,
		Authors:            2,
		Contributors:       1,
		OnlyContributors:   1,
		NoPlatformSelected: 1,
		MacOnly:            0,
		WithWindows:        2,
		WindowsOnly:        1,
	}}, entries)

	icons, err := os.ReadDir(cfg.IconsDir)
	require.NoError(t, err)
	var names []string
	for _, e := range icons {
		names = append(names, e.Name())
	}
	require.Equal(t, []string{".gitkeep", "authors.svg", "packages.svg", "tok1_update-time.svg"}, names)
	require.Contains(t, readTestFile(t, filepath.Join(cfg.IconsDir, "tok1_update-time.svg")), "2024-03-04 05:06:07")

	// 2. Rerun with identical corpus is a no-op
	var logBuf bytes.Buffer
	historyBefore := readTestFile(t, cfg.HistoryPath)
	out, err = Generate(ctx, GenerateInput{Config: cfg, Logger: log.New(&logBuf), Token: "tok2"})
	require.NoError(t, err)
	require.False(t, out.Changed)
	require.Empty(t, out.Written)
	require.Empty(t, out.Token)
	require.Contains(t, logBuf.String(), "No changes detected")
	require.Equal(t, readme, readTestFile(t, cfg.ReadmePath))
	require.Equal(t, historyBefore, readTestFile(t, cfg.HistoryPath))

	// 3. Forced rerun rewrites artifacts but history dedups
	out, err = Generate(ctx, GenerateInput{Config: cfg, Force: true, NoIcons: true, Token: "tok3"})
	require.NoError(t, err)
	require.False(t, out.Changed)
	require.True(t, out.Forced)
	require.False(t, out.HistoryAppended)
	require.NotContains(t, out.Written, cfg.IconsDir)
	require.Contains(t, readTestFile(t, cfg.ReadmePath), "tok3_update-time.svg")
	require.Equal(t, historyBefore, readTestFile(t, cfg.HistoryPath))

	// NoIcons leaves the previous badges alone.
	_, err = os.Stat(filepath.Join(cfg.IconsDir, "tok1_update-time.svg"))
	require.NoError(t, err)

	// 4. A corpus change is detected and appended
	writeTestFile(t, filepath.Join(cfg.Corpus(), "new-one", "package.json"),
		`{"name":"new-one","title":"New","description":"d","author":"dave","categories":["Tools"]}`)
	out, err = Generate(ctx, GenerateInput{Config: cfg, Token: "tok4"})
	require.NoError(t, err)
	require.True(t, out.Changed)
	require.True(t, out.HistoryAppended)

	hist, err = history.Load(cfg.HistoryPath)
	require.NoError(t, err)
	require.Equal(t, 2, hist.Len())
}

func TestGenerate_MalformedManifestAborts(t *testing.T) {
	cfg := setupWorkspace(t)
	writeTestFile(t, filepath.Join(cfg.Corpus(), "broken", "package.json"), `{"name": "broken",`)

	_, err := Generate(context.Background(), GenerateInput{Config: cfg})
	require.True(t, errors.Is(err, errors.ErrMalformedManifest), "got %v", err)

	require.Equal(t, readmeTemplate, readTestFile(t, cfg.ReadmePath))
	require.Equal(t, "[]", readTestFile(t, cfg.HistoryPath))
	_, statErr := os.Stat(cfg.DataPath)
	require.True(t, os.IsNotExist(statErr))
}

func TestGenerate_MissingHistoryIsFatal(t *testing.T) {
	cfg := setupWorkspace(t)
	require.NoError(t, os.Remove(cfg.HistoryPath))

	_, err := Generate(context.Background(), GenerateInput{Config: cfg})
	require.True(t, errors.Is(err, errors.ErrHistoryNotFound), "got %v", err)
	require.Equal(t, readmeTemplate, readTestFile(t, cfg.ReadmePath))
}

func TestGenerate_MissingRegionIsFatal(t *testing.T) {
	cfg := setupWorkspace(t)
	writeTestFile(t, cfg.ReadmePath, "# no markers\n")

	_, err := Generate(context.Background(), GenerateInput{Config: cfg})
	require.True(t, errors.Is(err, errors.ErrMissingRegion), "got %v", err)
	require.Equal(t, "[]", readTestFile(t, cfg.HistoryPath))
}

func TestGenerate_BadgeFailureIsSwallowed(t *testing.T) {
	cfg := setupWorkspace(t)
	// A regular file where the badge directory should be.
	writeTestFile(t, cfg.IconsDir, "not a directory")

	var logBuf bytes.Buffer
	out, err := Generate(context.Background(), GenerateInput{Config: cfg, Logger: log.New(&logBuf), Token: "tok"})
	require.NoError(t, err)
	require.True(t, out.Changed)
	require.NotContains(t, out.Written, cfg.IconsDir)
	require.Contains(t, out.Written, cfg.ReadmePath)
	require.Contains(t, logBuf.String(), "Badge generation failed")
}

func TestGenerate_WritesMirror(t *testing.T) {
	cfg := setupWorkspace(t)
	cfg.DatabasePath = filepath.Join(t.TempDir(), "catalog.db")

	out, err := Generate(context.Background(), GenerateInput{Config: cfg, NoIcons: true})
	require.NoError(t, err)
	require.Contains(t, out.Written, cfg.DatabasePath)

	database := openCatalog(t, cfg.DatabasePath)
	summary, err := CatalogSummary(context.Background(), database)
	require.NoError(t, err)
	require.Equal(t, 3, summary.Packages)
}

func TestGenerate_MirrorToleratesDuplicateNames(t *testing.T) {
	cfg := setupWorkspace(t)
	cfg.DatabasePath = filepath.Join(t.TempDir(), "catalog.db")
	writeTestFile(t, filepath.Join(cfg.Corpus(), "mid-fork", "package.json"),
		`{"name": "mid", "title": "Mid Fork", "description": "Fork", "author": "dan", "categories": ["Tools"]}`)

	out, err := Generate(context.Background(), GenerateInput{Config: cfg, NoIcons: true})
	require.NoError(t, err)
	require.Contains(t, out.Written, cfg.DatabasePath)
	require.Contains(t, out.Written, cfg.ReadmePath)

	database := openCatalog(t, cfg.DatabasePath)
	summary, err := CatalogSummary(context.Background(), database)
	require.NoError(t, err)
	require.Equal(t, 3, summary.Packages)
}

func TestClean(t *testing.T) {
	cfg := setupWorkspace(t)
	ctx := context.Background()

	_, err := Generate(ctx, GenerateInput{Config: cfg, Token: "tok"})
	require.NoError(t, err)

	out, err := Clean(CleanInput{Config: cfg})
	require.NoError(t, err)
	require.Equal(t, cfg.ReadmePath, out.ReadmePath)

	readme := readTestFile(t, cfg.ReadmePath)
	require.Contains(t, readme, "<!-- START SECTIONS -->\n\n\n<!-- END SECTIONS -->")
	require.Contains(t, readme, "<!-- START STATISTICS -->\n\n<!-- END STATISTICS -->")
	require.Contains(t, readme, "<!-- START TABLE_OF_CONTENTS -->\n\n<!-- END TABLE_OF_CONTENTS -->")
	require.Contains(t, readme, "<!-- START UPDATETIME -->\n\n<!-- END UPDATETIME -->")
	require.NotContains(t, readme, "alice")

	icons, err := os.ReadDir(cfg.IconsDir)
	require.NoError(t, err)
	require.Len(t, icons, 1)
	require.Equal(t, ".gitkeep", icons[0].Name())

	// A cleaned document regenerates as changed.
	gen, err := Generate(ctx, GenerateInput{Config: cfg, NoIcons: true})
	require.NoError(t, err)
	require.True(t, gen.Changed)
}

func TestStats(t *testing.T) {
	cfg := setupWorkspace(t)

	out, err := Stats(context.Background(), InspectInput{Config: cfg})
	require.NoError(t, err)
	require.Equal(t, 3, out.Packages)
	require.Equal(t, []string{"Tools"}, out.Categories)
	require.Equal(t, 1, out.SwiftPackages)
	require.Equal(t, 2, out.Authors)
	require.Equal(t, 1, out.OnlyContributors)
	require.Equal(t, 1, out.AIToolCount)
	require.Equal(t, "alice", out.TopAuthors[0].Name)
	require.Equal(t, 2, out.TopAuthors[0].Count)
	require.Len(t, out.APIVersions, 2)

	// Inspection writes nothing.
	_, statErr := os.Stat(cfg.DataPath)
	require.True(t, os.IsNotExist(statErr))
}

func TestStats_CountsSwiftDirsWithoutManifest(t *testing.T) {
	cfg := setupWorkspace(t)
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.Corpus(), "native-only", "swift"), 0755))

	out, err := Stats(context.Background(), InspectInput{Config: cfg})
	require.NoError(t, err)
	require.Equal(t, 3, out.Packages)
	require.Equal(t, 2, out.SwiftPackages)

	scan, err := Scan(context.Background(), ScanInput{Config: cfg})
	require.NoError(t, err)
	require.Contains(t, scan.Statistics, "- **3** packages in **1** categories, **2** packages use Swift")
}

func TestAPIVersions(t *testing.T) {
	cfg := setupWorkspace(t)

	versions, err := APIVersions(context.Background(), InspectInput{Config: cfg})
	require.NoError(t, err)
	require.Len(t, versions, 2)
	require.Equal(t, "^1.50.0", versions[0].Version)
	require.Equal(t, []string{"alpha"}, versions[1].Packages)
}

func TestGenerate_RequiresConfig(t *testing.T) {
	_, err := Generate(context.Background(), GenerateInput{})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
}
