package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/curate/internal/db"
	"github.com/hpungsan/curate/internal/document"
	"github.com/hpungsan/curate/internal/errors"
	"github.com/hpungsan/curate/internal/stats"
)

// CatalogItem is a mirrored package with its category and path exposed.
type CatalogItem struct {
	document.Entry
	Category string `json:"category"`
	Path     string `json:"path"`
}

func newCatalogItem(e document.Entry) CatalogItem {
	return CatalogItem{Entry: e, Category: e.Category, Path: e.Path}
}

// CatalogSearchInput contains parameters for the CatalogSearch operation.
type CatalogSearchInput struct {
	Query    *string // optional substring over name, title, description
	Category *string // optional exact category
	Author   *string // optional exact author
	Platform *string // optional: windows|macos
	Limit    int     // default: 20, max: 100
	Offset   int     // default: 0
}

// CatalogSearchOutput contains the result of the CatalogSearch operation.
type CatalogSearchOutput struct {
	Items      []CatalogItem `json:"items"`
	Pagination Pagination    `json:"pagination"`
}

// CatalogSearch lists mirrored packages matching the filters, ordered by name.
func CatalogSearch(ctx context.Context, database *sql.DB, input CatalogSearchInput) (*CatalogSearchOutput, error) {
	filters := db.SearchFilters{
		Query:    cleanOptionalString(input.Query),
		Category: cleanOptionalString(input.Category),
		Author:   cleanOptionalString(input.Author),
		Platform: strings.ToLower(cleanOptionalString(input.Platform)),
	}

	// Apply limit defaults and bounds
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}
	offset := max(input.Offset, 0)

	entries, total, err := db.SearchPackages(ctx, database, filters, limit, offset)
	if err != nil {
		return nil, err
	}

	items := make([]CatalogItem, len(entries))
	for i, e := range entries {
		items[i] = newCatalogItem(e)
	}

	return &CatalogSearchOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(items) < total,
			Total:   total,
		},
	}, nil
}

// CatalogPackageInput contains parameters for the CatalogPackage operation.
type CatalogPackageInput struct {
	Name string // required
}

// CatalogPackage fetches one mirrored package by name.
func CatalogPackage(ctx context.Context, database *sql.DB, input CatalogPackageInput) (*CatalogItem, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.NewInvalidRequest("name is required")
	}
	e, err := db.GetPackage(ctx, database, name)
	if err != nil {
		return nil, err
	}
	item := newCatalogItem(*e)
	return &item, nil
}

// CatalogSummary returns the rollup computed from the mirror.
func CatalogSummary(ctx context.Context, database *sql.DB) (*db.CatalogSummary, error) {
	return db.Summary(ctx, database)
}

// CatalogAPIVersionsOutput contains the result of the CatalogAPIVersions operation.
type CatalogAPIVersionsOutput struct {
	Versions []stats.VersionBucket `json:"versions"`
}

// CatalogAPIVersions returns the mirrored API-version histogram, newest first.
func CatalogAPIVersions(ctx context.Context, database *sql.DB) (*CatalogAPIVersionsOutput, error) {
	versions, err := db.ListAPIVersions(ctx, database)
	if err != nil {
		return nil, err
	}
	return &CatalogAPIVersionsOutput{Versions: nonNil(versions)}, nil
}
