// Package ui implements the interactive terminal player using bubbletea's Elm architecture.
//
// The TUI provides a two-view workflow:
//  1. [SongListView] : Browse the user's liked songs
//  2. [PlayerView] : Transport controls and playback progress
//
// The [Model] implements bubbletea's standard Init/Update/View pattern. Once
// connected, the controller's Run loop polls the provider and drains push
// events in the background, while a tick message on the same interval
// re-reads the merged snapshot into the view.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) plus
// transport keys (space, n, p, left/right) with contextual help displayed
// via charmbracelet/bubbles/help.
package ui
