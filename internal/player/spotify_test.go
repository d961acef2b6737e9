package player

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/aux-cli/internal/services"
	"github.com/desertthunder/aux-cli/internal/shared"
)

// fakeConnect is a scriptable [services.Connect].
type fakeConnect struct {
	devices    []services.Device
	devicesErr error
	state      *services.PlayerStateResponse
	stateErr   error
}

func (f *fakeConnect) Devices(ctx context.Context) ([]services.Device, error) {
	return f.devices, f.devicesErr
}

func (f *fakeConnect) PlayerState(ctx context.Context) (*services.PlayerStateResponse, error) {
	return f.state, f.stateErr
}

func (f *fakeConnect) TransferPlayback(ctx context.Context, deviceID string, play bool) error {
	return nil
}

func (f *fakeConnect) Play(ctx context.Context, deviceID string, uris []string, positionMs int) error {
	return nil
}

func (f *fakeConnect) Pause(ctx context.Context) error                { return nil }
func (f *fakeConnect) Resume(ctx context.Context) error               { return nil }
func (f *fakeConnect) SeekTo(ctx context.Context, positionMs int) error { return nil }
func (f *fakeConnect) Next(ctx context.Context) error                 { return nil }
func (f *fakeConnect) Previous(ctx context.Context) error             { return nil }

func TestSpotifyProviderConnect(t *testing.T) {
	ctx := context.Background()

	t.Run("Prefers Configured Name", func(t *testing.T) {
		client := &fakeConnect{devices: []services.Device{
			{ID: "a", Name: "Kitchen", IsActive: true},
			{ID: "b", Name: "aux"},
		}}
		provider := NewSpotifyProvider(client, "aux")

		device, err := provider.Connect(ctx)
		if err != nil {
			t.Fatalf("failed to connect: %v", err)
		}
		if device.ID != "b" {
			t.Errorf("expected the named device, got %+v", device)
		}
	})

	t.Run("Falls Back To Active Device", func(t *testing.T) {
		client := &fakeConnect{devices: []services.Device{
			{ID: "a", Name: "Kitchen"},
			{ID: "b", Name: "Office", IsActive: true},
		}}
		provider := NewSpotifyProvider(client, "missing")

		device, err := provider.Connect(ctx)
		if err != nil {
			t.Fatalf("failed to connect: %v", err)
		}
		if device.ID != "b" {
			t.Errorf("expected the active device, got %+v", device)
		}
	})

	t.Run("Falls Back To First Device", func(t *testing.T) {
		client := &fakeConnect{devices: []services.Device{
			{ID: "a", Name: "Kitchen"},
			{ID: "b", Name: "Office"},
		}}
		provider := NewSpotifyProvider(client, "")

		device, err := provider.Connect(ctx)
		if err != nil {
			t.Fatalf("failed to connect: %v", err)
		}
		if device.ID != "a" {
			t.Errorf("expected the first device, got %+v", device)
		}
	})

	t.Run("No Devices", func(t *testing.T) {
		provider := NewSpotifyProvider(&fakeConnect{}, "aux")

		_, err := provider.Connect(ctx)
		if !errors.Is(err, shared.ErrInitialization) {
			t.Errorf("expected ErrInitialization, got %v", err)
		}
	})

	t.Run("Auth Rejection Passes Through", func(t *testing.T) {
		client := &fakeConnect{devicesErr: shared.ErrAuthentication}
		provider := NewSpotifyProvider(client, "aux")

		_, err := provider.Connect(ctx)
		if !errors.Is(err, shared.ErrAuthentication) {
			t.Errorf("expected ErrAuthentication, got %v", err)
		}
	})
}

func TestSpotifyProviderState(t *testing.T) {
	ctx := context.Background()

	t.Run("Nothing Active", func(t *testing.T) {
		provider := NewSpotifyProvider(&fakeConnect{}, "aux")

		snap, err := provider.State(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if snap != nil {
			t.Errorf("expected nil snapshot, got %+v", snap)
		}
	})

	t.Run("Maps Snapshot", func(t *testing.T) {
		client := &fakeConnect{state: &services.PlayerStateResponse{
			Timestamp:  1_700_000_000_000,
			ProgressMS: 30_000,
			IsPlaying:  true,
			Item: &services.SpotifyTrack{
				ID:         "track1",
				Name:       "Song",
				URI:        "spotify:track:track1",
				DurationMS: 180_000,
				Artists: []services.SpotifyArtist{
					{Name: "First"}, {Name: "Second"},
				},
			},
		}}
		provider := NewSpotifyProvider(client, "aux")

		snap, err := provider.State(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if snap == nil {
			t.Fatal("expected a snapshot")
		}
		if snap.Paused {
			t.Error("playing state should not be paused")
		}
		if snap.TrackURI != "spotify:track:track1" || snap.Title != "Song" {
			t.Errorf("unexpected snapshot %+v", snap)
		}
		if snap.Artist != "First, Second" {
			t.Errorf("expected joined artists, got %s", snap.Artist)
		}
		if snap.Timestamp.UnixMilli() != 1_700_000_000_000 {
			t.Errorf("unexpected timestamp %v", snap.Timestamp)
		}
	})
}
