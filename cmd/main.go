// Package main is the entry point for the rekordbox-analyzer CLI.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Fatal().Err(err).Msg("loading .env file")
	}

	if err := newApp().Run(os.Args); err != nil {
		logger.Fatal().Err(err).Msg("rekordbox-analyzer")
	}
}
