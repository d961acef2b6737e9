package ui

import (
	"time"

	"github.com/desertthunder/aux-cli/internal/player"
	"github.com/desertthunder/aux-cli/internal/services"
)

// songsFetchedMsg delivers the liked-songs list or the fetch error.
type songsFetchedMsg struct {
	songs []services.Song
	err   error
}

// connectedMsg delivers the result of device registration.
type connectedMsg struct {
	device player.Device
	err    error
}

// stateMsg delivers a merged playback snapshot after a poll.
type stateMsg struct {
	state *player.PlaybackState
	err   error
}

// commandErrMsg surfaces a failed transport command without leaving the view.
type commandErrMsg struct {
	err error
}

// tickMsg drives the poll loop while a session is connected.
type tickMsg time.Time
