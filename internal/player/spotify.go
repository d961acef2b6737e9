package player

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/aux-cli/internal/services"
	"github.com/desertthunder/aux-cli/internal/shared"
)

// SpotifyProvider realizes [Provider] over the Spotify Connect surface of
// the Web API.
//
// Connect does not create a device: it selects one the user already runs
// (preferring the configured name, then the active device). Poll-only, so
// Events returns nil.
type SpotifyProvider struct {
	client     services.Connect
	deviceName string
}

// NewSpotifyProvider creates a provider over the given client, preferring
// the device with the given name when selecting a playback target.
func NewSpotifyProvider(client services.Connect, deviceName string) *SpotifyProvider {
	return &SpotifyProvider{client: client, deviceName: deviceName}
}

// Connect selects a playback device.
//
// Failure classification: an auth rejection passes through as
// [shared.ErrAuthentication] (caller refreshes and retries once), a
// free-tier rejection as [shared.ErrAccount], and an empty device list maps
// to [shared.ErrInitialization].
func (p *SpotifyProvider) Connect(ctx context.Context) (Device, error) {
	devices, err := p.client.Devices(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrAuthentication) || errors.Is(err, shared.ErrAccount) {
			return Device{}, err
		}
		return Device{}, fmt.Errorf("%w: %v", shared.ErrInitialization, err)
	}

	if len(devices) == 0 {
		return Device{}, fmt.Errorf("%w: no playback devices available", shared.ErrInitialization)
	}

	chosen := devices[0]
	for _, d := range devices {
		if p.deviceName != "" && strings.EqualFold(d.Name, p.deviceName) {
			chosen = d
			break
		}
		if d.IsActive {
			chosen = d
		}
	}

	return Device{ID: chosen.ID, Name: chosen.Name, RegisteredAt: time.Now()}, nil
}

// Disconnect is a no-op: Connect devices live outside this process.
func (p *SpotifyProvider) Disconnect(ctx context.Context) error {
	return nil
}

// Transfer makes the device the active playback target.
func (p *SpotifyProvider) Transfer(ctx context.Context, device Device) error {
	return p.client.TransferPlayback(ctx, device.ID, false)
}

// Play starts playback of the given URIs on the device.
func (p *SpotifyProvider) Play(ctx context.Context, device Device, uris []string) error {
	return p.client.Play(ctx, device.ID, uris, 0)
}

// Pause pauses playback.
func (p *SpotifyProvider) Pause(ctx context.Context) error {
	return p.client.Pause(ctx)
}

// Resume resumes playback.
func (p *SpotifyProvider) Resume(ctx context.Context) error {
	return p.client.Resume(ctx)
}

// Seek moves the playhead.
func (p *SpotifyProvider) Seek(ctx context.Context, positionMs int) error {
	return p.client.SeekTo(ctx, positionMs)
}

// Next skips forward.
func (p *SpotifyProvider) Next(ctx context.Context) error {
	return p.client.Next(ctx)
}

// Previous skips backward.
func (p *SpotifyProvider) Previous(ctx context.Context) error {
	return p.client.Previous(ctx)
}

// State fetches the current remote snapshot.
func (p *SpotifyProvider) State(ctx context.Context) (*Snapshot, error) {
	resp, err := p.client.PlayerState(ctx)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}

	snap := &Snapshot{
		PositionMS: resp.ProgressMS,
		Paused:     !resp.IsPlaying,
		Timestamp:  time.UnixMilli(resp.Timestamp),
	}

	if resp.Item != nil {
		snap.TrackID = resp.Item.ID
		snap.TrackURI = resp.Item.URI
		snap.Title = resp.Item.Name
		snap.DurationMS = resp.Item.DurationMS
		if len(resp.Item.Artists) > 0 {
			names := make([]string, 0, len(resp.Item.Artists))
			for _, a := range resp.Item.Artists {
				names = append(names, a.Name)
			}
			snap.Artist = strings.Join(names, ", ")
		}
	}

	return snap, nil
}

// Events returns nil: the Web API has no push channel.
func (p *SpotifyProvider) Events() <-chan Event {
	return nil
}
