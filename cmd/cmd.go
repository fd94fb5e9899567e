// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// Flags carry parse state, so every command gets its own instance.

func localFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "local",
		Usage: "Run an agent in process instead of connecting to the agent service",
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: text, csv, markdown or json",
		Value:   "text",
	}
}

// setupCommand handles first-run setup.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize the database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Revert the most recent migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write an example config.toml",
				Description: "Every value can also come from the environment: SPOTIFY_CLIENT_ID, SPOTIFY_CLIENT_SECRET,\n" +
					"SPOTIFY_REDIRECT_URI, PORT, TRACKLIFT_DEFAULT_PLAYLIST, TRACKLIFT_DB and TRACKLIFT_AGENT_PORT.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Usage: "Where to write the file (default: the user config directory)",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// serveCommand starts the backend.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the backend: OAuth session, track matching and the HTTP API",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (overrides server.port)",
			},
		},
		Action: r.Serve,
	}
}

// agentCommand starts the agent.
func agentCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "agent",
		Usage:  "Run the agent: settings and the message bus for scanners and the popup",
		Action: r.Agent,
	}
}

// scanCommand scans a page once.
func scanCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "scan",
		Usage:     "List the songs found on a page, optionally adding some",
		ArgsUsage: "<file or URL>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "source"},
		},
		Flags: []cli.Flag{
			formatFlag(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the listing to a file",
			},
			&cli.IntSliceFlag{
				Name:  "add",
				Usage: "Add the numbered entries to the playlist (repeatable)",
			},
			localFlag(),
		},
		Action: r.Scan,
	}
}

// watchCommand keeps a file scanned.
func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Rescan a file whenever it changes; type an entry number to add it",
		ArgsUsage: "<file>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "source"},
		},
		Flags:  []cli.Flag{localFlag()},
		Action: r.Watch,
	}
}

// settingsCommand reads and writes agent settings.
func settingsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Show or change the agent's settings",
		Commands: []*cli.Command{
			{
				Name:   "get",
				Usage:  "Print the settings",
				Flags:  []cli.Flag{localFlag(), &cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}},
				Action: r.SettingsGet,
			},
			{
				Name:  "set",
				Usage: "Change one or both settings",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "backend-url", Usage: "Backend base URL"},
					&cli.StringFlag{Name: "playlist", Usage: "Target playlist ID"},
					localFlag(),
				},
				Action: r.SettingsSet,
			},
		},
	}
}

// sessionCommand inspects and starts the backend session.
func sessionCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "session",
		Usage: "Manage the Spotify session",
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show whether the backend holds a session",
				Flags:  []cli.Flag{localFlag(), &cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}},
				Action: r.SessionStatus,
			},
			{
				Name:   "login",
				Usage:  "Open the Spotify login page",
				Flags:  []cli.Flag{localFlag()},
				Action: r.SessionLogin,
			},
		},
	}
}

// popupCommand returns the top-level TUI command.
func popupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "popup",
		Aliases: []string{"ui"},
		Usage:   "Interactive settings and session status",
		Flags:   []cli.Flag{localFlag()},
		Action:  r.Popup,
	}
}

// historyCommand reads and records station plays.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Station play history",
		Commands: []*cli.Command{
			{
				Name:      "list",
				Usage:     "List the plays on a day",
				ArgsUsage: "<YYYY-MM-DD>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "date"}},
				Flags:     []cli.Flag{formatFlag()},
				Action:    r.HistoryList,
			},
			{
				Name:  "add",
				Usage: "Record a play",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "artist", Required: true},
					&cli.StringFlag{Name: "title", Required: true},
					&cli.StringFlag{Name: "album"},
					&cli.StringFlag{Name: "image-url"},
					&cli.StringFlag{Name: "at", Usage: "Play time, RFC 3339 (default: now)"},
				},
				Action: r.HistoryAdd,
			},
		},
	}
}
