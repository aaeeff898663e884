package sqlite

import (
	"errors"
	"fmt"
	"io/fs"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// latestVersion returns the highest migration version embedded in
// migrations/*.sql.
func latestVersion() (uint, error) {
	sub, err := fs.Sub(MigrationsFS, "migrations")
	if err != nil {
		return 0, fmt.Errorf("sqlite: sub-filesystem for migrations: %w", err)
	}
	src, err := iofs.New(sub, ".")
	if err != nil {
		return 0, fmt.Errorf("sqlite: iofs source: %w", err)
	}
	var max uint
	version, err := src.First()
	if err != nil {
		return 0, nil // no migrations embedded
	}
	max = version
	for {
		next, err := src.Next(version)
		if err != nil {
			break
		}
		version = next
		if version > max {
			max = version
		}
	}
	return max, nil
}

// newMigrate builds a migrate.Migrate instance bound to this DB's
// connection and the embedded migrations/*.sql source.
func (db *DB) newMigrate() (*migrate.Migrate, error) {
	sub, err := fs.Sub(MigrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("sqlite: sub-filesystem for migrations: %w", err)
	}
	sourceDriver, err := iofs.New(sub, ".")
	if err != nil {
		return nil, fmt.Errorf("sqlite: iofs source driver: %w", err)
	}
	dbDriver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("sqlite: database driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	if err != nil {
		return nil, fmt.Errorf("sqlite: migrate instance: %w", err)
	}
	m.Log = &migrateLogger{}
	return m, nil
}

// MigrateUp applies every pending migration. A no-op database (already at
// the latest version) is not an error.
func (db *DB) MigrateUp() error {
	m, err := db.newMigrate()
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("sqlite: migrate up: %w", err)
	}
	return nil
}

// Version returns the current migration version and dirty state. A
// database with no migrations applied yet returns (0, false, nil).
func (db *DB) Version() (version uint, dirty bool, err error) {
	m, err := db.newMigrate()
	if err != nil {
		return 0, false, err
	}
	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

type migrateLogger struct{}

func (l *migrateLogger) Printf(format string, v ...interface{}) { log.Printf("[migrate] "+format, v...) }
func (l *migrateLogger) Verbose() bool                          { return false }
