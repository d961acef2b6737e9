package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/aux-cli/internal/services"
)

var _ list.Item = songItem{}

// songItem wraps [services.Song] to implement [list.Item].
type songItem struct {
	song services.Song
}

func (i songItem) FilterValue() string { return i.song.Title }
func (i songItem) Title() string       { return i.song.Title }
func (i songItem) Description() string {
	desc := i.song.Artist
	if i.song.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.song.Album)
	}
	return fmt.Sprintf("%s • %s", desc, formatDuration(i.song.DurationSeconds))
}

// formatDuration renders seconds as m:ss.
func formatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
