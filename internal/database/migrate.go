// internal/database/migrate.go
//
// Schema migrations, embedded per backend under migrations/<dialect>/ and
// applied with golang-migrate. Applying is idempotent; a database that is
// already current is not an error.

package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*/*.sql
var migrationFS embed.FS

func (db *DB) migrator() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationFS, "migrations/"+db.Dialect.MigrationsDir())
	if err != nil {
		return nil, fmt.Errorf("migration source: %w", err)
	}
	drv, err := db.Dialect.MigrationDriver(db.DB)
	if err != nil {
		return nil, fmt.Errorf("migration driver: %w", err)
	}
	// Close is never called on the returned Migrate: it would close db.DB.
	return migrate.NewWithInstance("iofs", src, db.Dialect.Name(), drv)
}

// Migrate applies every pending up migration.
func (db *DB) Migrate() error {
	m, err := db.migrator()
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Debug().Msg("schema up to date")
			return nil
		}
		return fmt.Errorf("migrate up: %w", err)
	}
	v, _, _ := m.Version()
	log.Info().Uint("version", v).Msg("schema migrated")
	return nil
}

// MigrationVersion reports the applied schema version. ok is false on an
// empty database.
func (db *DB) MigrationVersion() (version uint, dirty, ok bool, err error) {
	m, err := db.migrator()
	if err != nil {
		return 0, false, false, err
	}
	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, false, nil
	}
	if err != nil {
		return 0, false, false, err
	}
	return version, dirty, true, nil
}
