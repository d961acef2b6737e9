// package services defines clients for the upstream music provider.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// TokenFunc supplies a currently valid bearer token for an outgoing request.
//
// Wiring this to the session manager means every call carries a fresh token
// and expiry is handled in one place.
type TokenFunc func(ctx context.Context) (string, error)

// StaticToken returns a [TokenFunc] that always yields the given token.
func StaticToken(token string) TokenFunc {
	return func(context.Context) (string, error) {
		return token, nil
	}
}

// Song is the normalized track shape served to the UI.
type Song struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Artist          string `json:"artist"`
	Album           string `json:"album,omitempty"`
	DurationSeconds int    `json:"durationSeconds"`
	URI             string `json:"uri"`
	CoverURL        string `json:"coverUrl,omitempty"`
}

// LoadSongs reads a static song list from a JSON file.
//
// Accepts either a bare array or the {"songs": [...]} envelope the API
// serves.
func LoadSongs(path string) ([]Song, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read songs file: %w", err)
	}

	var envelope struct {
		Songs []Song `json:"songs"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Songs != nil {
		return envelope.Songs, nil
	}

	var songs []Song
	if err := json.Unmarshal(data, &songs); err != nil {
		return nil, fmt.Errorf("failed to parse songs file: %w", err)
	}

	return songs, nil
}

// Device is a provider-side playback target.
type Device struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	IsActive bool   `json:"is_active"`
}

// Library is the read-only catalog surface consumed by the HTTP API and the terminal player.
type Library interface {
	// SavedTracks retrieves the user's saved tracks, normalized to [Song].
	SavedTracks(ctx context.Context, limit, offset int) ([]Song, error)
}

// Connect is the remote playback surface consumed by the player controller.
type Connect interface {
	// Devices lists the user's available playback devices.
	Devices(ctx context.Context) ([]Device, error)

	// PlayerState returns the current playback snapshot, or nil when nothing is active.
	PlayerState(ctx context.Context) (*PlayerStateResponse, error)

	// TransferPlayback makes the given device the active playback target.
	TransferPlayback(ctx context.Context, deviceID string, play bool) error

	// Play starts playback of the given track URIs on the device.
	Play(ctx context.Context, deviceID string, uris []string, positionMs int) error

	// Pause pauses playback on the active device.
	Pause(ctx context.Context) error

	// Resume resumes playback on the active device.
	Resume(ctx context.Context) error

	// SeekTo moves the playhead of the current track.
	SeekTo(ctx context.Context, positionMs int) error

	// Next skips to the next track in the provider queue.
	Next(ctx context.Context) error

	// Previous skips to the previous track.
	Previous(ctx context.Context) error
}
