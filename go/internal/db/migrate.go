// Package db embeds the schema migrations.
package db

import (
	"embed"

	"github.com/cockroachdb/errors"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrations embed.FS

// NewMigrator returns a migrator for the embedded schema against dsn.
// Callers must Close it.
func NewMigrator(dsn string) (*migrate.Migrate, error) {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return nil, errors.Wrap(err, "open embedded migrations")
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "create migrator")
	}
	return m, nil
}

// Up applies every pending migration.
func Up(dsn string) error {
	m, err := NewMigrator(dsn)
	if err != nil {
		return err
	}
	defer Close(m)

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		log.Info().Msg("schema up to date")
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "apply migrations")
	}
	version, _, _ := m.Version()
	log.Info().Uint("version", version).Msg("migrations applied")
	return nil
}

// Close releases the migrator's source and database handles.
func Close(m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		log.Warn().Err(srcErr).Msg("close migration source")
	}
	if dbErr != nil {
		log.Warn().Err(dbErr).Msg("close migration db")
	}
}
