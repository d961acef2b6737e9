package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/aux-cli/internal/services"
	"github.com/desertthunder/aux-cli/internal/session"
	"github.com/desertthunder/aux-cli/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger swaps the runner's logger, used when a command redirects logs to a file.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, authCommand, playerCommand, songsCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig resolves the effective config for a command, preferring the
// --config flag's file over the runner's startup config.
func (r *Runner) loadConfig(cmd *cli.Command) *shared.Config {
	configPath := cmd.String("config")
	if configPath == "" {
		return r.config
	}

	if _, err := os.Stat(configPath); err != nil {
		return r.config
	}

	config, err := shared.LoadConfig(configPath)
	if err != nil {
		r.logger.Warnf("failed to load config, using defaults %v", err)
		return r.config
	}

	return config
}

// openStore builds the session store. A configured database path gets the
// sqlite-backed store so tokens survive process restarts, otherwise sessions
// live in memory.
func (r *Runner) openStore(config *shared.Config) (session.Store, *sql.DB, error) {
	if config.Database.Path == "" {
		return session.NewMemoryStore(), nil, nil
	}

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return session.NewSQLiteStore(db), db, nil
}

// newManager wires credentials and the session store into a session manager.
func (r *Runner) newManager(config *shared.Config, store session.Store) (*session.Manager, error) {
	if err := config.Credentials.Spotify.Validate(); err != nil {
		return nil, err
	}

	manager, err := session.NewManager(config.Credentials.Spotify.Map(), store, r.logger)
	if err != nil {
		return nil, err
	}

	if len(config.Credentials.Spotify.Scopes) > 0 {
		manager.SetScopes(config.Credentials.Spotify.Scopes)
	}

	return manager, nil
}

// newSpotifyClient builds the Web API client over the runner's HTTP client,
// pulling bearer tokens from the session manager.
func (r *Runner) newSpotifyClient(manager *session.Manager) *services.SpotifyClient {
	return services.NewSpotifyClient(manager.AccessToken, r.httpClient)
}

// loadSongs reads the static song list when one is configured.
func (r *Runner) loadSongs(config *shared.Config) []services.Song {
	if config.Server.SongsPath == "" {
		return nil
	}

	songs, err := services.LoadSongs(config.Server.SongsPath)
	if err != nil {
		r.logger.Warn("failed to load songs file", "path", config.Server.SongsPath, "error", err)
		return nil
	}

	return songs
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
