package main

import (
	"os"

	"github.com/mcdev12/matchboard/go/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func setupLogging(cfg config.Config) {
	zerolog.SetGlobalLevel(cfg.Level())
	if os.Getenv("LOG_FORMAT") != "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
