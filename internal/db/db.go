package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// Init opens (creating if needed) the catalog mirror at path.
func Init(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Pragmas in the DSN apply to every pooled connection.
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: catalog tables
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS packages (
		  name          TEXT PRIMARY KEY,
		  position      INTEGER NOT NULL,
		  title         TEXT NOT NULL,
		  description   TEXT NOT NULL,
		  author        TEXT NOT NULL,
		  category      TEXT NOT NULL,
		  path          TEXT NOT NULL,
		  api           TEXT,
		  utils         TEXT,
		  swift         INTEGER NOT NULL DEFAULT 0,
		  has_ai        INTEGER NOT NULL DEFAULT 0,
		  has_tools     INTEGER NOT NULL DEFAULT 0,
		  win           INTEGER NOT NULL DEFAULT 0,
		  mac           INTEGER NOT NULL DEFAULT 0,
		  updated       TEXT,
		  deps_json     TEXT NOT NULL,
		  dev_deps_json TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_packages_category ON packages(category, position);
		CREATE INDEX IF NOT EXISTS idx_packages_author ON packages(author);

		CREATE TABLE IF NOT EXISTS contributors (
		  package_name TEXT NOT NULL REFERENCES packages(name) ON DELETE CASCADE,
		  contributor  TEXT NOT NULL,
		  PRIMARY KEY (package_name, contributor)
		);

		CREATE INDEX IF NOT EXISTS idx_contributors_contributor ON contributors(contributor);

		CREATE TABLE IF NOT EXISTS api_versions (
		  version      TEXT NOT NULL,
		  package_name TEXT NOT NULL,
		  PRIMARY KEY (version, package_name)
		);

		CREATE TABLE IF NOT EXISTS meta (
		  key   TEXT PRIMARY KEY,
		  value TEXT NOT NULL
		);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
	}

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
