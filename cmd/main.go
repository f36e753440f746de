package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/aero/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:    "aero",
		Usage:   "Shuffle player for Spotify in the terminal",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Override the configured log level (debug, info, warn, error)",
			},
		},
		Before:   runner.load,
		After:    runner.close,
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		switch {
		case errors.Is(err, shared.ErrNotAuthenticated):
			logger.Error("not signed in, run `aero login` first")
			os.Exit(1)
		case errors.Is(err, shared.ErrMissingCredentials):
			logger.Error("missing Spotify client id, run `aero setup` and edit config.toml", "error", err)
			os.Exit(1)
		case errors.Is(err, shared.ErrPremiumRequired):
			logger.Error("a Spotify Premium account is required for playback")
			os.Exit(1)
		default:
			logger.Fatalf("application error: %v", err)
		}
	}
}
