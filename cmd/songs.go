package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/aux-cli/internal/services"
	"github.com/desertthunder/aux-cli/internal/shared"
	"github.com/urfave/cli/v3"
)

// Songs lists the configured static song catalog.
func (r *Runner) Songs(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	if config.Server.SongsPath == "" {
		return fmt.Errorf("%w: server.songs_path not set", shared.ErrMissingConfig)
	}

	songs, err := services.LoadSongs(config.Server.SongsPath)
	if err != nil {
		return fmt.Errorf("failed to load songs: %w", err)
	}

	if useJSON {
		return r.writeJSON(songs, pretty)
	}

	r.writePlain("Found %d songs:\n\n", len(songs))
	for i, song := range songs {
		r.writePlain("%d. %s - %s\n", i+1, song.Artist, song.Title)
		if song.Album != "" {
			r.writePlain("   Album: %s\n", song.Album)
		}
		r.writePlain("   URI: %s\n", song.URI)
	}

	return nil
}
