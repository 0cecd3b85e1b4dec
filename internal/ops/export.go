package ops

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/hpungsan/curate/internal/config"
	"github.com/hpungsan/curate/internal/db"
	"github.com/hpungsan/curate/internal/errors"
)

// writeFileAtomic writes data to a temp file next to path and renames it into
// place, so a failed write leaves the previous file intact.
func writeFileAtomic(path string, data []byte) error {
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest(fmt.Sprintf("refusing to replace symlink %s", path))
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create directory: %w", err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"

	file, err := os.OpenFile(tempPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create temp file: %w", err))
	}

	// Clean up temp file on failure (original file is preserved)
	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if _, err := file.Write(data); err != nil {
		return errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return errors.NewInternal(err)
	}

	// Close before rename (required on Windows; fine elsewhere).
	if err := file.Close(); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to close temp file: %w", err))
	}
	file = nil

	if err := os.Rename(tempPath, path); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(path); statErr == nil {
				// Replace is not atomic on Windows; remove and retry once.
				if rmErr := os.Remove(path); rmErr == nil {
					err = os.Rename(tempPath, path)
				}
			}
		}
		if err != nil {
			return errors.NewInternal(fmt.Errorf("failed to finalize %s: %w", path, err))
		}
	}

	success = true
	return nil
}

// databaseExtensions are accepted for an explicit mirror export path.
var databaseExtensions = []string{".db", ".sqlite", ".sqlite3"}

// validateDatabasePath rejects traversal and non-database file names.
func validateDatabasePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.NewInvalidRequest("path is required")
	}
	for _, part := range strings.FieldsFunc(filepath.ToSlash(path), func(r rune) bool { return r == '/' }) {
		if part == ".." {
			return errors.NewInvalidRequest("path must not contain directory traversal (..)")
		}
	}
	if !slices.Contains(databaseExtensions, strings.ToLower(filepath.Ext(path))) {
		return errors.NewInvalidRequest(fmt.Sprintf("path must have one of the extensions %v", databaseExtensions))
	}
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest("path must not be a symlink")
	}
	return nil
}

// ExportCatalogInput contains parameters for the ExportCatalog operation.
type ExportCatalogInput struct {
	Config *config.Config
	Logger *log.Logger

	// Path overrides Config.DatabasePath.
	Path string
}

// ExportCatalogOutput contains the result of the ExportCatalog operation.
type ExportCatalogOutput struct {
	Path        string `json:"path"`
	Packages    int    `json:"packages"`
	APIVersions int    `json:"api_versions"`
	GeneratedAt int64  `json:"generated_at"`
}

// ExportCatalog scans the corpus and writes only the SQLite mirror. No other
// artifact is touched.
func ExportCatalog(ctx context.Context, input ExportCatalogInput) (*ExportCatalogOutput, error) {
	if input.Config == nil {
		return nil, errors.NewInvalidRequest("config is required")
	}
	logger := loggerOrDiscard(input.Logger)

	path := input.Path
	if path == "" {
		path = input.Config.DatabasePath
	}
	if err := validateDatabasePath(path); err != nil {
		return nil, err
	}

	scan, err := Scan(ctx, ScanInput{Config: input.Config, Logger: logger})
	if err != nil {
		return nil, err
	}

	generatedAt := timeNow().UnixMilli()
	if err := writeMirror(ctx, path, scan, generatedAt); err != nil {
		return nil, err
	}
	logger.Info("Catalog mirror written", "path", path, "packages", len(scan.Rendered.Entries))

	return &ExportCatalogOutput{
		Path:        path,
		Packages:    len(scan.Rendered.Entries),
		APIVersions: len(scan.Snapshot.APIVersions),
		GeneratedAt: generatedAt,
	}, nil
}

// writeMirror replaces the mirror at path with the scan result.
func writeMirror(ctx context.Context, path string, scan *ScanOutput, generatedAt int64) error {
	database, err := db.Init(path)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer database.Close()

	return db.ReplaceCatalog(ctx, database, db.Catalog{
		Entries:     scan.Rendered.Entries,
		APIVersions: scan.Snapshot.APIVersions,
		GeneratedAt: generatedAt,
	})
}
