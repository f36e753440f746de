// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand writes a starter config and prepares the database
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml and the token database",
		Action: r.Setup,
	}
}

// loginCommand runs the browser sign-in
func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in to Spotify in the browser",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-browser",
				Usage: "Print the sign-in URL instead of opening it",
			},
		},
		Action: r.Login,
	}
}

func logoutCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Forget the stored Spotify token",
		Action: r.Logout,
	}
}

// statusCommand reports the signed-in account and token freshness
func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show the signed-in account",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print JSON output",
				Value: true,
			},
		},
		Action: r.Status,
	}
}

// contextFlags select the collection to queue
var contextFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "playlist",
		Usage: "Playlist ID or URI to shuffle",
	},
	&cli.StringFlag{
		Name:  "album",
		Usage: "Album ID or URI to play",
	},
	&cli.StringFlag{
		Name:  "artist",
		Usage: "Artist ID or URI whose top tracks to shuffle",
	},
	&cli.StringFlag{
		Name:  "track",
		Usage: "Track ID or URI to play",
	},
	&cli.BoolFlag{
		Name:  "liked",
		Usage: "Shuffle your liked songs",
	},
}

// playCommand opens the player with a queue
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "play",
		Usage:  "Open the player and queue a playlist, album, artist, track or liked songs",
		Flags:  contextFlags,
		Action: r.Play,
	}
}

// playerCommand opens the player without a queue
func playerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "player",
		Aliases: []string{"tui"},
		Usage:   "Open the player and follow whatever the device is playing",
		Action:  r.Player,
	}
}
