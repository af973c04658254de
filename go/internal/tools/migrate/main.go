package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"
	"github.com/mcdev12/matchboard/go/internal/db"
	"github.com/mcdev12/matchboard/go/internal/dbconfig"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}
	_ = godotenv.Load()

	m, err := db.NewMigrator(dbconfig.NewConfigFromEnv().DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("create migrator")
	}
	defer db.Close(m)

	switch cmd := strings.ToLower(strings.TrimSpace(os.Args[1])); cmd {
	case "up":
		handleMigrationErr(m.Up())
		log.Info().Msg("migrations applied")
	case "down":
		steps, err := parseSteps(os.Args[2:])
		if err != nil {
			log.Fatal().Err(err).Msg("parse steps")
		}
		handleMigrationErr(m.Steps(-steps))
		log.Info().Int("steps", steps).Msg("rolled back")
	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Println("version: none")
			fmt.Println("dirty: false")
			return
		}
		if err != nil {
			log.Fatal().Err(err).Msg("read version")
		}
		fmt.Printf("version: %d\n", version)
		fmt.Printf("dirty: %t\n", dirty)
	case "force":
		if len(os.Args) < 3 {
			log.Fatal().Msg("force requires a version argument")
		}
		version, err := parseVersion(os.Args[2])
		if err != nil {
			log.Fatal().Err(err).Msg("parse version")
		}
		if err := m.Force(version); err != nil {
			log.Fatal().Err(err).Int("version", version).Msg("force version")
		}
		log.Info().Int("version", version).Msg("forced version")
	default:
		printUsage()
		os.Exit(2)
	}
}

func parseSteps(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}
	steps, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return 0, errors.Wrapf(err, "invalid down steps %q", args[0])
	}
	if steps <= 0 {
		return 0, errors.New("down steps must be > 0")
	}
	return steps, nil
}

func parseVersion(raw string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, errors.Wrapf(err, "invalid version %q", raw)
	}
	if value < 0 {
		return 0, errors.New("version must be >= 0")
	}
	return value, nil
}

func handleMigrationErr(err error) {
	if err == nil {
		return
	}
	if errors.Is(err, migrate.ErrNoChange) {
		log.Info().Msg("no migration changes")
		return
	}
	log.Fatal().Err(err).Msg("migration failed")
}

func printUsage() {
	name := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "usage: %s <up|down|version|force> [args]\n", name)
	fmt.Fprintln(os.Stderr, "examples:")
	fmt.Fprintf(os.Stderr, "  %s up\n", name)
	fmt.Fprintf(os.Stderr, "  %s down 1\n", name)
	fmt.Fprintf(os.Stderr, "  %s force 3\n", name)
}
