// Package sqlite provides the modernc.org/sqlite-backed persistence layer
// for the catalog and conjunction stores, with golang-migrate managing
// schema evolution.
package sqlite

import (
	"database/sql"
	"embed"
	"fmt"
	"log"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

//go:embed migrations/*.sql
var MigrationsFS embed.FS

// DB wraps a *sql.DB opened against a satellite-conjunction database file.
type DB struct {
	*sql.DB
}

// applyPragmas sets the PRAGMAs every connection in the pool needs for
// acceptable concurrent read/write behavior under WAL mode.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("sqlite: exec %q: %w", p, err)
		}
	}
	return nil
}

// NewDB opens (or creates) the database at path, applies PRAGMAs, and
// brings the schema up to the latest migration. A brand-new file is
// initialized from schema.sql and baselined at the latest version; an
// existing file with pending migrations is migrated up in place.
func NewDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}

	db := &DB{sqlDB}
	if err := applyPragmas(sqlDB); err != nil {
		return nil, err
	}

	var tableCount int
	err = sqlDB.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'`).Scan(&tableCount)
	if err != nil {
		return nil, fmt.Errorf("sqlite: count tables: %w", err)
	}

	if tableCount == 0 {
		if _, err := sqlDB.Exec(schemaSQL); err != nil {
			return nil, fmt.Errorf("sqlite: initialize schema: %w", err)
		}
		log.Printf("sqlite: initialized fresh database at %s", path)
		if err := db.baselineAndMigrate(); err != nil {
			return nil, err
		}
		return db, nil
	}

	if err := db.MigrateUp(); err != nil {
		return nil, err
	}
	return db, nil
}

// baselineAndMigrate marks a freshly-created database (already matching
// schema.sql) as being at the latest migration version, then runs any
// migrations newer than schema.sql in case the two have drifted.
func (db *DB) baselineAndMigrate() error {
	m, err := db.newMigrate()
	if err != nil {
		return err
	}
	latest, err := latestVersion()
	if err != nil {
		return err
	}
	if latest == 0 {
		return nil
	}
	if err := m.Force(int(latest)); err != nil {
		return fmt.Errorf("sqlite: baseline at version %d: %w", latest, err)
	}
	return db.MigrateUp()
}
