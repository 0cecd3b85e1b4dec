package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/hpungsan/curate/internal/document"
	"github.com/hpungsan/curate/internal/errors"
	"github.com/hpungsan/curate/internal/stats"
	"github.com/hpungsan/curate/internal/version"
)

// MetaGeneratedAt is the meta key holding the unix-millisecond time of the last mirror write.
const MetaGeneratedAt = "generated_at"

// Catalog is the full mirror content for one run.
type Catalog struct {
	// Entries in render order; their index becomes the row position.
	Entries     []document.Entry
	APIVersions []stats.VersionBucket
	GeneratedAt int64
}

// ReplaceCatalog swaps the mirror content for c in a single transaction.
func ReplaceCatalog(ctx context.Context, db *sql.DB, c Catalog) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, table := range []string{"contributors", "api_versions", "packages", "meta"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return errors.NewInternal(fmt.Errorf("clear %s: %w", table, err))
		}
	}

	pkgStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO packages (
			name, position, title, description, author, category, path,
			api, utils, swift, has_ai, has_tools, win, mac, updated,
			deps_json, dev_deps_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			position = excluded.position, title = excluded.title,
			description = excluded.description, author = excluded.author,
			category = excluded.category, path = excluded.path,
			api = excluded.api, utils = excluded.utils, swift = excluded.swift,
			has_ai = excluded.has_ai, has_tools = excluded.has_tools,
			win = excluded.win, mac = excluded.mac, updated = excluded.updated,
			deps_json = excluded.deps_json, dev_deps_json = excluded.dev_deps_json
	`)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer pkgStmt.Close()

	contribStmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO contributors (package_name, contributor) VALUES (?, ?)`)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer contribStmt.Close()

	for i, e := range c.Entries {
		depsJSON, mErr := json.Marshal(e.Deps)
		if mErr != nil {
			return errors.NewInternal(mErr)
		}
		var devDeps sql.NullString
		if e.DevDeps != nil {
			data, mErr := json.Marshal(e.DevDeps)
			if mErr != nil {
				return errors.NewInternal(mErr)
			}
			devDeps = sql.NullString{String: string(data), Valid: true}
		}

		_, err = pkgStmt.ExecContext(ctx,
			e.Name, i, e.Title, e.Description, e.Author, e.Category, e.Path,
			toNullString(e.API), toNullString(e.Utils),
			e.Swift, e.HasAI, e.HasTools, e.Win, e.Mac,
			sql.NullString{String: e.Updated, Valid: e.Updated != ""},
			string(depsJSON), devDeps,
		)
		if err != nil {
			return errors.NewInternal(fmt.Errorf("insert package %s: %w", e.Name, err))
		}

		// A later manifest with the same name replaces the earlier row.
		if _, err = tx.ExecContext(ctx, `DELETE FROM contributors WHERE package_name = ?`, e.Name); err != nil {
			return errors.NewInternal(err)
		}
		for _, contributor := range e.Contributors {
			if _, err = contribStmt.ExecContext(ctx, e.Name, contributor); err != nil {
				return errors.NewInternal(err)
			}
		}
	}

	for _, bucket := range c.APIVersions {
		for _, name := range bucket.Packages {
			if _, err = tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO api_versions (version, package_name) VALUES (?, ?)`,
				bucket.Version, name); err != nil {
				return errors.NewInternal(err)
			}
		}
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES (?, ?)`,
		MetaGeneratedAt, strconv.FormatInt(c.GeneratedAt, 10)); err != nil {
		return errors.NewInternal(err)
	}

	if err = tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

const packageColumns = `
	name, title, description, author, category, path,
	api, utils, swift, has_ai, has_tools, win, mac, updated,
	deps_json, dev_deps_json`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*document.Entry, error) {
	var (
		e           document.Entry
		api, utils  sql.NullString
		updated     sql.NullString
		depsJSON    string
		devDepsJSON sql.NullString
	)
	if err := row.Scan(
		&e.Name, &e.Title, &e.Description, &e.Author, &e.Category, &e.Path,
		&api, &utils, &e.Swift, &e.HasAI, &e.HasTools, &e.Win, &e.Mac, &updated,
		&depsJSON, &devDepsJSON,
	); err != nil {
		return nil, err
	}

	e.API = fromNullString(api)
	e.Utils = fromNullString(utils)
	e.Updated = updated.String

	if err := json.Unmarshal([]byte(depsJSON), &e.Deps); err != nil {
		return nil, fmt.Errorf("decode deps for %s: %w", e.Name, err)
	}
	if devDepsJSON.Valid {
		if err := json.Unmarshal([]byte(devDepsJSON.String), &e.DevDeps); err != nil {
			return nil, fmt.Errorf("decode dev deps for %s: %w", e.Name, err)
		}
	}
	return &e, nil
}

// loadContributors fills Contributors for entries, keyed by name.
func loadContributors(ctx context.Context, db *sql.DB, entries []*document.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	byName := make(map[string]*document.Entry, len(entries))
	args := make([]any, len(entries))
	for i, e := range entries {
		e.Contributors = []string{}
		byName[e.Name] = e
		args[i] = e.Name
	}

	query := `SELECT package_name, contributor FROM contributors WHERE package_name IN (?` +
		strings.Repeat(",?", len(entries)-1) + `) ORDER BY package_name, contributor`
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var pkg, contributor string
		if err := rows.Scan(&pkg, &contributor); err != nil {
			return err
		}
		if e, ok := byName[pkg]; ok {
			e.Contributors = append(e.Contributors, contributor)
		}
	}
	return rows.Err()
}

// GetPackage retrieves one package by exact name.
func GetPackage(ctx context.Context, db *sql.DB, name string) (*document.Entry, error) {
	row := db.QueryRowContext(ctx, `SELECT `+packageColumns+` FROM packages WHERE name = ?`, name)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(name)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	if err := loadContributors(ctx, db, []*document.Entry{e}); err != nil {
		return nil, errors.NewInternal(err)
	}
	return e, nil
}

// Platform filter values.
const (
	PlatformWindows = "windows"
	PlatformMacOS   = "macos"
)

// SearchFilters narrows SearchPackages. Empty fields do not filter.
type SearchFilters struct {
	// Query is a case-insensitive substring matched against name, title and description.
	Query    string
	Category string
	Author   string
	Platform string
}

// escapeLike escapes LIKE wildcards for use with ESCAPE '\'.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// SearchPackages returns one page of matching packages ordered by name, plus
// the total number of matches.
func SearchPackages(ctx context.Context, db *sql.DB, f SearchFilters, limit, offset int) ([]document.Entry, int, error) {
	var (
		where []string
		args  []any
	)
	if q := strings.TrimSpace(f.Query); q != "" {
		pattern := "%" + escapeLike(q) + "%"
		where = append(where, `(name LIKE ? ESCAPE '\' OR title LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern)
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.Author != "" {
		where = append(where, "author = ?")
		args = append(args, f.Author)
	}
	switch f.Platform {
	case "":
	case PlatformWindows:
		where = append(where, "win = 1")
	case PlatformMacOS:
		where = append(where, "mac = 1")
	default:
		return nil, 0, errors.NewInvalidRequest(fmt.Sprintf("unknown platform %q", f.Platform))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM packages`+clause, args...).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT `+packageColumns+` FROM packages`+clause+` ORDER BY name LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	var found []*document.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		found = append(found, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	rows.Close()

	if err := loadContributors(ctx, db, found); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	out := make([]document.Entry, len(found))
	for i, e := range found {
		out[i] = *e
	}
	return out, total, nil
}

// ListAPIVersions returns the mirrored histogram, newest version first.
func ListAPIVersions(ctx context.Context, db *sql.DB) ([]stats.VersionBucket, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT version, package_name FROM api_versions ORDER BY version, package_name`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []stats.VersionBucket
	for rows.Next() {
		var v, name string
		if err := rows.Scan(&v, &name); err != nil {
			return nil, errors.NewInternal(err)
		}
		if n := len(out); n > 0 && out[n-1].Version == v {
			out[n-1].Packages = append(out[n-1].Packages, name)
			continue
		}
		out = append(out, stats.VersionBucket{Version: v, Packages: []string{name}})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	// SQL orders lexically; re-sort by parsed version.
	sort.SliceStable(out, func(i, j int) bool {
		if c := version.Compare(out[i].Version, out[j].Version); c != 0 {
			return c > 0
		}
		return out[i].Version < out[j].Version
	})
	return out, nil
}

// CatalogSummary is the rollup computed from the mirror.
type CatalogSummary struct {
	Packages         int   `json:"packages"`
	Categories       int   `json:"categories"`
	Authors          int   `json:"authors"`
	Contributors     int   `json:"contributors"`
	OnlyContributors int   `json:"only_contributors"`
	Swift            int   `json:"swift"`
	WithWindows      int   `json:"with_windows"`
	WindowsOnly      int   `json:"windows_only"`
	MacWithout       int   `json:"mac_without_windows"`
	APIVersions      int   `json:"api_versions"`
	GeneratedAt      int64 `json:"generated_at"`
}

// Summary computes counts over the mirror.
func Summary(ctx context.Context, db *sql.DB) (*CatalogSummary, error) {
	var s CatalogSummary
	err := db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(DISTINCT CASE WHEN category <> '' THEN category END),
			COUNT(DISTINCT author),
			COALESCE(SUM(swift), 0),
			COALESCE(SUM(win), 0),
			COALESCE(SUM(CASE WHEN win = 1 AND mac = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN mac = 1 AND win = 0 THEN 1 ELSE 0 END), 0)
		FROM packages
	`).Scan(&s.Packages, &s.Categories, &s.Authors, &s.Swift, &s.WithWindows, &s.WindowsOnly, &s.MacWithout)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	err = db.QueryRowContext(ctx, `
		SELECT
			COUNT(DISTINCT contributor),
			COUNT(DISTINCT CASE WHEN contributor NOT IN (SELECT author FROM packages) THEN contributor END)
		FROM contributors
	`).Scan(&s.Contributors, &s.OnlyContributors)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	if err := db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT version) FROM api_versions`).Scan(&s.APIVersions); err != nil {
		return nil, errors.NewInternal(err)
	}

	var generated sql.NullString
	err = db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, MetaGeneratedAt).Scan(&generated)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.NewInternal(err)
	}
	if generated.Valid {
		s.GeneratedAt, _ = strconv.ParseInt(generated.String, 10, 64)
	}

	return &s, nil
}

func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
