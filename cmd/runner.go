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
	"github.com/desertthunder/aero/internal/auth"
	"github.com/desertthunder/aero/internal/models"
	"github.com/desertthunder/aero/internal/repositories"
	"github.com/desertthunder/aero/internal/services"
	"github.com/desertthunder/aero/internal/session"
	"github.com/desertthunder/aero/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	store      models.TokenStore
	db         *sql.DB
	openURL    func(string) error
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Store      models.TokenStore
	Opener     func(string) error
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Opener == nil {
		opts.Opener = shared.OpenBrowser
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		store:      opts.Store,
		openURL:    opts.Opener,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, loginCommand, logoutCommand, statusCommand, playCommand, playerCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// load reads the configuration named by --config unless one was injected.
func (r *Runner) load(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if r.configPath == "" {
		r.configPath = cmd.String("config")
	}
	if r.config == nil {
		config, err := shared.LoadConfigOrDefault(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
	}

	level := r.config.Log.Level
	if override := cmd.String("log-level"); override != "" {
		level = override
	}
	if err := shared.ParseLogLevel(r.logger, level); err != nil {
		return ctx, err
	}
	return ctx, nil
}

func (r *Runner) close(ctx context.Context, cmd *cli.Command) error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db, r.store = nil, nil
	return err
}

// SetLogger replaces the logger, e.g. with a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// tokenStore opens the database on first use.
func (r *Runner) tokenStore() (models.TokenStore, error) {
	if r.store != nil {
		return r.store, nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	r.db = db
	r.store = repositories.NewSessionRepository(db)
	return r.store, nil
}

// stack bundles what every signed-in command needs.
type stack struct {
	session    *session.Session
	supervisor *session.Supervisor
	auth       *auth.Authenticator
	catalog    *services.Catalog
	api        *services.Client
	store      models.TokenStore
}

// newStack wires the session, authenticator and API clients without loading any token.
func (r *Runner) newStack(opts ...session.SupervisorOption) (*stack, error) {
	if err := r.config.Validate(); err != nil {
		return nil, err
	}
	store, err := r.tokenStore()
	if err != nil {
		return nil, err
	}

	spotifyConfig := r.config.Credentials.Spotify
	authenticator := auth.New(spotifyConfig, store,
		auth.WithHTTPClient(r.httpClient),
		auth.WithLogger(shared.WithLogger(r.logger, "component", "auth")),
	)

	sess := session.New()
	limiter := services.NewRateLimiter(r.config.Player.RateLimit, r.config.Player.RateBurst)
	httpClient := services.NewHTTPClient(sess, limiter)
	catalog := services.NewCatalog(httpClient, spotifyConfig.APIURL)

	opts = append([]session.SupervisorOption{
		session.WithProfileLoader(catalog),
		session.WithCheckInterval(r.config.Session.CheckInterval()),
		session.WithRefreshLookahead(r.config.Session.RefreshLookahead()),
		session.WithLogger(r.logger),
	}, opts...)

	return &stack{
		session:    sess,
		supervisor: session.NewSupervisor(sess, store, authenticator, opts...),
		auth:       authenticator,
		catalog:    catalog,
		api:        services.NewClient(spotifyConfig.APIURL, httpClient),
		store:      store,
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

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
