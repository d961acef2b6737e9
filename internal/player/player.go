package player

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/aux-cli/internal/shared"
)

// Status represents the controller's position in the session state machine.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusReady        Status = "ready"
	StatusPlaying      Status = "playing"
	StatusPaused       Status = "paused"
)

// PlaybackState is the UI-facing playback snapshot.
//
// Mutated only by provider updates (poll or push) and explicit transport
// commands. Not persisted; rebuilt fresh each session.
type PlaybackState struct {
	TrackID    string
	TrackURI   string
	Title      string
	Artist     string
	PositionMS int
	DurationMS int
	Paused     bool
	QueueIndex int
	UpdatedAt  time.Time
}

// Controller manages one active remote playback session.
//
// A generation counter increments on every connect and disconnect; provider
// responses are tagged with the generation they were issued under and
// discarded on mismatch, so a poll that lands after Disconnect can never
// repopulate a cleared session.
type Controller struct {
	mu         sync.Mutex
	provider   Provider
	logger     *log.Logger
	interval   time.Duration
	status     Status
	device     Device
	state      *PlaybackState
	queue      []string
	queueIndex int
	generation uint64
	now        func() time.Time
}

// NewController creates a [Controller] over the given provider.
func NewController(provider Provider, logger *log.Logger, pollInterval time.Duration) *Controller {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if pollInterval <= 0 {
		pollInterval = time.Second
	}

	return &Controller{
		provider: provider,
		logger:   logger,
		interval: pollInterval,
		status:   StatusDisconnected,
		now:      time.Now,
	}
}

// Status returns the current session status.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Device returns the registered playback device.
func (c *Controller) Device() Device {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.device
}

// State returns a copy of the latest playback snapshot, or nil when none exists.
func (c *Controller) State() *PlaybackState {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == nil {
		return nil
	}
	snapshot := *c.state
	return &snapshot
}

// Connect establishes the playback connection and registers the device.
//
// Disconnect must be called before connecting again for the same session.
// Provider-reported causes pass through as [shared.ErrInitialization],
// [shared.ErrAuthentication], or [shared.ErrAccount]; see [Establish] for
// the refresh-and-retry-once policy on authentication failures.
func (c *Controller) Connect(ctx context.Context) (Device, error) {
	c.mu.Lock()
	if c.status != StatusDisconnected {
		c.mu.Unlock()
		return Device{}, fmt.Errorf("%w: already connected, disconnect first", shared.ErrInvalidInput)
	}
	c.generation++
	gen := c.generation
	c.status = StatusConnecting
	c.mu.Unlock()

	device, err := c.provider.Connect(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		// Session torn down while connecting.
		return Device{}, shared.ErrNotConnected
	}

	if err != nil {
		c.status = StatusDisconnected
		return Device{}, err
	}

	c.device = device
	c.status = StatusReady

	c.logger.Info("playback device registered", "device", device.Name, "id", device.ID)

	return device, nil
}

// Transfer makes the registered device the active playback target.
//
// Idempotent: transferring to the device that is already active is a no-op
// from the provider's perspective.
func (c *Controller) Transfer(ctx context.Context) error {
	c.mu.Lock()
	if c.status == StatusDisconnected || c.status == StatusConnecting {
		c.mu.Unlock()
		return shared.ErrNotConnected
	}
	device := c.device
	c.mu.Unlock()

	if err := c.provider.Transfer(ctx, device); err != nil {
		return fmt.Errorf("%w: transfer: %v", shared.ErrPlaybackCmd, err)
	}

	return nil
}

// Play starts playback of the given track URIs, replacing the session queue.
func (c *Controller) Play(ctx context.Context, uris []string) error {
	if len(uris) == 0 {
		return fmt.Errorf("%w: no track URIs", shared.ErrInvalidInput)
	}

	c.mu.Lock()
	if c.status == StatusDisconnected || c.status == StatusConnecting {
		c.mu.Unlock()
		return shared.ErrNotConnected
	}
	gen := c.generation
	device := c.device
	c.mu.Unlock()

	if err := c.provider.Play(ctx, device, uris); err != nil {
		return fmt.Errorf("%w: play: %v", shared.ErrPlaybackCmd, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		return shared.ErrNotConnected
	}

	c.queue = append([]string(nil), uris...)
	c.queueIndex = 0
	c.status = StatusPlaying
	c.state = &PlaybackState{
		TrackURI:   uris[0],
		Paused:     false,
		QueueIndex: 0,
		UpdatedAt:  c.now(),
	}

	return nil
}

// Pause pauses playback.
func (c *Controller) Pause(ctx context.Context) error {
	return c.transport(ctx, "pause", c.provider.Pause, func(s *PlaybackState) {
		s.Paused = true
	}, StatusPaused)
}

// Resume resumes playback.
func (c *Controller) Resume(ctx context.Context) error {
	return c.transport(ctx, "resume", c.provider.Resume, func(s *PlaybackState) {
		s.Paused = false
	}, StatusPlaying)
}

// Seek moves the playhead of the current track.
func (c *Controller) Seek(ctx context.Context, positionMs int) error {
	return c.transport(ctx, "seek", func(ctx context.Context) error {
		return c.provider.Seek(ctx, positionMs)
	}, func(s *PlaybackState) {
		s.PositionMS = positionMs
	}, "")
}

// SkipNext advances to the next queue entry.
func (c *Controller) SkipNext(ctx context.Context) error {
	err := c.transport(ctx, "next", c.provider.Next, nil, "")
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.queueIndex < len(c.queue)-1 {
		c.queueIndex++
		c.retarget()
	}
	return nil
}

// SkipPrevious moves back to the previous queue entry.
func (c *Controller) SkipPrevious(ctx context.Context) error {
	err := c.transport(ctx, "previous", c.provider.Previous, nil, "")
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.queueIndex > 0 {
		c.queueIndex--
		c.retarget()
	}
	return nil
}

// retarget points the local snapshot at the current queue entry.
// Caller holds the lock.
func (c *Controller) retarget() {
	if c.state == nil || c.queueIndex >= len(c.queue) {
		return
	}
	c.state.TrackURI = c.queue[c.queueIndex]
	c.state.TrackID = ""
	c.state.PositionMS = 0
	c.state.QueueIndex = c.queueIndex
	c.state.UpdatedAt = c.now()
}

// transport issues a provider command and applies a local state mutation.
//
// Command failures are surfaced, not retried; the user can re-issue.
func (c *Controller) transport(ctx context.Context, name string, cmd func(context.Context) error, mutate func(*PlaybackState), next Status) error {
	c.mu.Lock()
	if c.status == StatusDisconnected || c.status == StatusConnecting {
		c.mu.Unlock()
		return shared.ErrNotConnected
	}
	gen := c.generation
	c.mu.Unlock()

	if err := cmd(ctx); err != nil {
		c.logger.Warn("transport command failed", "command", name, "error", err)
		return fmt.Errorf("%w: %s: %v", shared.ErrPlaybackCmd, name, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		return shared.ErrNotConnected
	}

	if mutate != nil && c.state != nil {
		mutate(c.state)
		c.state.UpdatedAt = c.now()
	}
	if next != "" && (c.status == StatusPlaying || c.status == StatusPaused || c.status == StatusReady) {
		c.status = next
	}

	return nil
}

// Poll fetches the latest remote snapshot and merges it into the session.
//
// Returns the merged state, which may be nil when nothing is playing.
func (c *Controller) Poll(ctx context.Context) (*PlaybackState, error) {
	c.mu.Lock()
	if c.status == StatusDisconnected || c.status == StatusConnecting {
		c.mu.Unlock()
		return nil, shared.ErrNotConnected
	}
	gen := c.generation
	c.mu.Unlock()

	snap, err := c.provider.State(ctx)
	if err != nil {
		return nil, err
	}

	c.apply(gen, snap)

	return c.State(), nil
}

// HandleEvent merges a push-style provider event into the session.
func (c *Controller) HandleEvent(ctx context.Context, ev Event) {
	switch ev.Type {
	case EventReady:
		c.mu.Lock()
		if c.status == StatusConnecting || c.status == StatusDisconnected {
			c.device = ev.Device
			c.status = StatusReady
		}
		c.mu.Unlock()
	case EventNotReady:
		// Underlying connection dropped; the device registration is gone.
		c.teardown()
	case EventState:
		c.mu.Lock()
		gen := c.generation
		c.mu.Unlock()
		c.apply(gen, ev.Snapshot)
	}
}

// apply merges a snapshot tagged with the generation it was requested under.
//
// Stale generations are discarded; between racing poll and push updates the
// more recent provider timestamp wins.
func (c *Controller) apply(gen uint64, snap *Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation || c.status == StatusDisconnected {
		c.logger.Debug("discarding stale playback update", "generation", gen)
		return
	}

	if snap == nil {
		return
	}

	if c.state != nil && snap.Timestamp.Before(c.state.UpdatedAt) {
		return
	}

	queueIndex := c.queueIndex
	for i, uri := range c.queue {
		if uri == snap.TrackURI {
			queueIndex = i
			break
		}
	}
	c.queueIndex = queueIndex

	c.state = &PlaybackState{
		TrackID:    snap.TrackID,
		TrackURI:   snap.TrackURI,
		Title:      snap.Title,
		Artist:     snap.Artist,
		PositionMS: snap.PositionMS,
		DurationMS: snap.DurationMS,
		Paused:     snap.Paused,
		QueueIndex: queueIndex,
		UpdatedAt:  snap.Timestamp,
	}

	if snap.Paused {
		c.status = StatusPaused
	} else {
		c.status = StatusPlaying
	}

	c.advanceIfEnded()
}

// advanceIfEnded handles track-end: with remaining queue entries the session
// auto-advances and stays playing; on the last entry it parks paused at the
// head of the queue. Caller holds the lock.
func (c *Controller) advanceIfEnded() {
	if c.state == nil || c.status != StatusPlaying {
		return
	}
	if c.state.DurationMS <= 0 || c.state.PositionMS < c.state.DurationMS {
		return
	}

	if c.queueIndex < len(c.queue)-1 {
		c.queueIndex++
		c.state.TrackURI = c.queue[c.queueIndex]
		c.state.TrackID = ""
		c.state.PositionMS = 0
		c.state.QueueIndex = c.queueIndex
		c.state.Paused = false
		c.state.UpdatedAt = c.now()
		return
	}

	c.queueIndex = 0
	c.state.QueueIndex = 0
	if len(c.queue) > 0 {
		c.state.TrackURI = c.queue[0]
		c.state.TrackID = ""
	}
	c.state.PositionMS = 0
	c.state.Paused = true
	c.state.UpdatedAt = c.now()
	c.status = StatusPaused
}

// Disconnect releases the device and clears the playback state.
//
// Any in-flight poll or command response arriving afterward is discarded.
func (c *Controller) Disconnect(ctx context.Context) error {
	c.teardown()
	return c.provider.Disconnect(ctx)
}

// teardown bumps the generation and clears session state.
func (c *Controller) teardown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.status = StatusDisconnected
	c.device = Device{}
	c.state = nil
	c.queue = nil
	c.queueIndex = 0
}

// Run polls the provider on the configured interval and drains push events
// until the context is cancelled or the session disconnects.
func (c *Controller) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	events := c.provider.Events()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			c.HandleEvent(ctx, ev)
		case <-ticker.C:
			if c.Status() == StatusDisconnected {
				return nil
			}
			if _, err := c.Poll(ctx); err != nil && !errors.Is(err, shared.ErrNotConnected) {
				c.logger.Debug("poll failed", "error", err)
			}
		}
	}
}

// Establish connects, refreshing the session and retrying once when the
// provider rejects the bearer token. A second authentication failure is
// terminal for the session.
func Establish(ctx context.Context, c *Controller, refresh func(context.Context) error) (Device, error) {
	device, err := c.Connect(ctx)
	if err == nil || refresh == nil || !errors.Is(err, shared.ErrAuthentication) {
		return device, err
	}

	if rerr := refresh(ctx); rerr != nil {
		return Device{}, rerr
	}

	return c.Connect(ctx)
}
