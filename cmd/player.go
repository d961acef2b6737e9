package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/aux-cli/internal/player"
	"github.com/desertthunder/aux-cli/internal/shared"
	"github.com/desertthunder/aux-cli/internal/ui"
	"github.com/urfave/cli/v3"
)

// Player launches the interactive terminal player.
func (r *Runner) Player(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	store, db, err := r.openStore(config)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	manager, err := r.newManager(config, store)
	if err != nil {
		return err
	}

	if _, ok, err := manager.Tokens(); err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	} else if !ok {
		return fmt.Errorf("%w: run 'aux auth login' first", shared.ErrNoSession)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/aux-player.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	client := r.newSpotifyClient(manager)
	provider := player.NewSpotifyProvider(client, config.Player.DeviceName)
	controller := player.NewController(provider, fileLogger, config.Player.PollInterval())

	refresh := func(ctx context.Context) error {
		_, err := manager.Refresh(ctx)
		return err
	}

	model := ui.NewModel(ctx, client, controller, refresh, config.Player.PollInterval())
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running player: %w", err)
	}

	return nil
}
