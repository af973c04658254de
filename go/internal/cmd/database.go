package main

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/mcdev12/matchboard/go/internal/db"
	"github.com/mcdev12/matchboard/go/internal/dbconfig"
	"github.com/rs/zerolog/log"
)

// setupDatabase migrates the schema and opens the two handles the server
// needs: a pgx pool for the stores and a database/sql handle for the
// change relay.
func setupDatabase(ctx context.Context, cfg dbconfig.Config) (*pgxpool.Pool, *sql.DB, error) {
	if err := db.Up(cfg.DSN()); err != nil {
		return nil, nil, err
	}

	pool, err := cfg.NewPool(ctx)
	if err != nil {
		return nil, nil, err
	}

	sqlDB, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		pool.Close()
		return nil, nil, errors.Wrap(err, "failed to open relay connection")
	}

	log.Info().
		Str("user", cfg.User).
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Msg("connected to database")
	return pool, sqlDB, nil
}
