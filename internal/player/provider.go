// package player manages one active remote playback session.
//
// The [Provider] capability interface isolates the controller from any
// specific delivery mechanism: the Spotify Connect implementation polls the
// Web API, while push-style providers deliver the same updates through
// [Provider.Events]. Both feed the controller's single [PlaybackState]
// snapshot, where the more recent timestamp wins.
package player

import (
	"context"
	"time"
)

// Device is a provider-side registration identifying this client as a
// playback target.
type Device struct {
	ID           string
	Name         string
	RegisteredAt time.Time
}

// Snapshot is a provider-reported view of remote playback.
type Snapshot struct {
	TrackID    string
	TrackURI   string
	Title      string
	Artist     string
	PositionMS int
	DurationMS int
	Paused     bool
	Timestamp  time.Time
}

// EventType classifies provider push events.
type EventType string

const (
	EventReady    EventType = "ready"
	EventNotReady EventType = "not_ready"
	EventState    EventType = "state"
)

// Event is a push-style notification from the provider.
type Event struct {
	Type     EventType
	Device   Device
	Snapshot *Snapshot
}

// Provider is the capability interface over a remote playback backend.
//
// Implementations own their token plumbing (the Spotify realization takes a
// token callback, mirroring the Web Playback SDK's getOAuthToken contract).
type Provider interface {
	// Connect establishes the playback connection and returns the device.
	Connect(ctx context.Context) (Device, error)

	// Disconnect releases the connection.
	Disconnect(ctx context.Context) error

	// Transfer makes the device the active playback target. Idempotent.
	Transfer(ctx context.Context, device Device) error

	// Transport commands.
	Play(ctx context.Context, device Device, uris []string) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Seek(ctx context.Context, positionMs int) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error

	// State fetches the latest remote snapshot; nil when nothing is active.
	State(ctx context.Context) (*Snapshot, error)

	// Events returns the push event stream, or nil for poll-only providers.
	Events() <-chan Event
}
