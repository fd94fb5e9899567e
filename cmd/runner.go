package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tracklift/internal/agent"
	"github.com/desertthunder/tracklift/internal/bus"
	"github.com/desertthunder/tracklift/internal/repositories"
	"github.com/desertthunder/tracklift/internal/services"
	"github.com/desertthunder/tracklift/internal/settings"
	"github.com/desertthunder/tracklift/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
	openURL    func(string) error
	spotifyAPI string
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config // Skips loading --config when set
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader          // Read by watch for attachment numbers (default: [os.Stdin])
	OpenURL    func(string) error // Used by an in-process agent (default: [shared.OpenBrowser])
	SpotifyAPI string             // Web API base URL (default: the public API)
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
		openURL:    opts.OpenURL,
		spotifyAPI: opts.SpotifyAPI,
	}
}

// App builds the root command.
func (r *Runner) App() *cli.Command {
	return &cli.Command{
		Name:    "tracklift",
		Usage:   "Find songs on web pages and add them to a Spotify playlist",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file (default: ./config.toml, then the user config directory)",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log debug output",
			},
		},
		Before:   r.before,
		Commands: r.register(),
	}
}

func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	if r.config != nil {
		return ctx, nil
	}

	path := cmd.String("config")
	if path == "" {
		path = "config.toml"
		if _, err := os.Stat(path); err != nil {
			path = shared.ConfigSearchPath()
		}
	}

	config, err := shared.ResolveConfig(path)
	if err != nil {
		return ctx, err
	}
	r.config = config
	r.configPath = path
	r.logger.Debug("configuration loaded", "path", path)
	return ctx, nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, agentCommand, scanCommand, watchCommand,
		settingsCommand, sessionCommand, popupCommand, historyCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger, e.g. with a file logger while a TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// openDatabase opens the configured database and brings its schema up to date.
func (r *Runner) openDatabase() (*sql.DB, error) {
	db, path, err := r.connect()
	if err != nil {
		return nil, err
	}
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Debug("database ready", "path", path)
	return db, nil
}

// connect opens the configured database without touching its schema.
func (r *Runner) connect() (*sql.DB, string, error) {
	path, err := r.config.Database.ResolvedPath()
	if err != nil {
		return nil, "", err
	}

	db, err := shared.NewDatabase(path)
	if err != nil {
		return nil, "", err
	}
	if path != ":memory:" {
		shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	}
	return db, path, nil
}

// newAgent builds an agent whose settings live in db.
func (r *Runner) newAgent(db *sql.DB) *agent.Agent {
	store := settings.NewStore(repositories.NewSettingsRepository(db))
	return agent.New(store, services.NewBackendClient(store, r.httpClient), agent.Options{
		OpenURL: r.openURL,
		Logger:  r.logger,
	})
}

// agentClient connects to the running agent, or with local set runs one in process over a pipe.
//
// The returned function releases everything the client holds.
func (r *Runner) agentClient(ctx context.Context, local bool) (*bus.Client, func(), error) {
	if !local {
		client, err := bus.DialWebSocket(ctx, r.config.Agent.BusURL(), r.logger)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: is `tracklift agent` running? %v", shared.ErrServiceUnavailable, err)
		}
		return client, func() { client.Close() }, nil
	}

	db, err := r.openDatabase()
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	clientEnd, serverEnd := bus.Pipe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		bus.Serve(ctx, serverEnd, r.newAgent(db), r.logger)
	}()

	client := bus.NewClient(clientEnd, r.logger)
	return client, func() {
		client.Close()
		cancel()
		<-done
		db.Close()
	}, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
