// Spotify Web API implementation of [Library] and [Connect]
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/aux-cli/internal/shared"
	"golang.org/x/time/rate"
)

const (
	spotifyBaseURL = "https://api.spotify.com/v1"

	// requestTimeout bounds every provider call; a call past this is a
	// failure rather than a pending operation.
	requestTimeout = 10 * time.Second

	// requestsPerSecond is a conservative guardrail; Spotify does not
	// publish a hard budget.
	requestsPerSecond = 5
)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
	URI    string         `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	URI        string          `json:"uri"`
}

// SpotifySavedTrack represents a track saved in the user's library.
type SpotifySavedTrack struct {
	AddedAt string       `json:"added_at"`
	Track   SpotifyTrack `json:"track"`
}

// SpotifyPaginatedTracks represents a paginated response of saved tracks.
type SpotifyPaginatedTracks struct {
	Items  []SpotifySavedTrack `json:"items"`
	Total  int                 `json:"total"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
	Next   *string             `json:"next"`
}

// SpotifyDevice represents a playback device.
type SpotifyDevice struct {
	ID            *string `json:"id"`
	IsActive      bool    `json:"is_active"`
	IsRestricted  bool    `json:"is_restricted"`
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	VolumePercent *int    `json:"volume_percent"`
}

// PlayerStateResponse represents the /me/player snapshot.
type PlayerStateResponse struct {
	Device     *SpotifyDevice `json:"device"`
	Timestamp  int64          `json:"timestamp"`
	ProgressMS int            `json:"progress_ms"`
	IsPlaying  bool           `json:"is_playing"`
	Item       *SpotifyTrack  `json:"item"`
}

// SpotifyClient makes authenticated calls to the Spotify Web API.
//
// Implements [Library] and [Connect]. Every request pulls a bearer token
// from the configured [TokenFunc] and passes through a shared rate limiter.
type SpotifyClient struct {
	baseURL    string
	token      TokenFunc
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewSpotifyClient creates a Spotify Web API client using tokens from fn.
func NewSpotifyClient(fn TokenFunc, client *http.Client) *SpotifyClient {
	if client == nil {
		client = &http.Client{Timeout: requestTimeout}
	}

	return &SpotifyClient{
		baseURL:    spotifyBaseURL,
		token:      fn,
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
	}
}

// doRequest performs an authenticated HTTP request to the Spotify API.
//
// A 401 maps to [shared.ErrAuthentication] so callers can refresh and retry;
// a 403 maps to [shared.ErrAccount] (free-tier accounts cannot use the
// player endpoints).
func (s *SpotifyClient) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: no token source configured", shared.ErrMissingCredentials)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter interrupted: %w", err)
	}

	token, err := s.token(ctx)
	if err != nil {
		return err
	}

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: status 401", shared.ErrAuthentication)
	case resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status 403", shared.ErrAccount)
	case resp.StatusCode == http.StatusNoContent:
		return nil
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// classifyTransportError maps timeouts onto [shared.ErrTimeout].
func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", shared.ErrTimeout, err)
	}
	return fmt.Errorf("request failed: %w", err)
}

// SavedTracksPage retrieves a page of the user's saved tracks.
func (s *SpotifyClient) SavedTracksPage(ctx context.Context, limit, offset int) (*SpotifyPaginatedTracks, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	endpoint := fmt.Sprintf("/me/tracks?limit=%d&offset=%d", limit, offset)

	var response SpotifyPaginatedTracks
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

// SavedTracks retrieves the user's saved tracks normalized to [Song].
func (s *SpotifyClient) SavedTracks(ctx context.Context, limit, offset int) ([]Song, error) {
	page, err := s.SavedTracksPage(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	songs := make([]Song, 0, len(page.Items))
	for _, item := range page.Items {
		songs = append(songs, normalizeTrack(item.Track))
	}

	return songs, nil
}

// normalizeTrack flattens a Spotify track into the UI-facing [Song] shape.
func normalizeTrack(t SpotifyTrack) Song {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}

	song := Song{
		ID:              t.ID,
		Title:           t.Name,
		Artist:          strings.Join(names, ", "),
		Album:           t.Album.Name,
		DurationSeconds: t.DurationMS / 1000,
		URI:             t.URI,
	}

	if len(t.Album.Images) > 0 {
		song.CoverURL = t.Album.Images[0].URL
	}

	return song
}

// Devices lists the user's available playback devices.
func (s *SpotifyClient) Devices(ctx context.Context) ([]Device, error) {
	var response struct {
		Devices []SpotifyDevice `json:"devices"`
	}

	if err := s.doRequest(ctx, http.MethodGet, "/me/player/devices", nil, &response); err != nil {
		return nil, err
	}

	devices := make([]Device, 0, len(response.Devices))
	for _, d := range response.Devices {
		dev := Device{Name: d.Name, Type: d.Type, IsActive: d.IsActive}
		if d.ID != nil {
			dev.ID = *d.ID
		}
		devices = append(devices, dev)
	}

	return devices, nil
}

// PlayerState returns the current playback snapshot.
//
// Spotify answers 204 when no device is active; that surfaces as (nil, nil).
func (s *SpotifyClient) PlayerState(ctx context.Context) (*PlayerStateResponse, error) {
	var response PlayerStateResponse
	if err := s.doRequest(ctx, http.MethodGet, "/me/player", nil, &response); err != nil {
		return nil, err
	}

	if response.Timestamp == 0 && response.Item == nil {
		return nil, nil
	}

	return &response, nil
}

// TransferPlayback makes the given device the active playback target.
//
// Idempotent from the provider's perspective.
func (s *SpotifyClient) TransferPlayback(ctx context.Context, deviceID string, play bool) error {
	body := map[string]any{
		"device_ids": []string{deviceID},
		"play":       play,
	}

	return s.doRequest(ctx, http.MethodPut, "/me/player", body, nil)
}

// Play starts playback of the given track URIs on the device.
func (s *SpotifyClient) Play(ctx context.Context, deviceID string, uris []string, positionMs int) error {
	endpoint := "/me/player/play"
	if deviceID != "" {
		endpoint = fmt.Sprintf("%s?device_id=%s", endpoint, deviceID)
	}

	body := map[string]any{}
	if len(uris) > 0 {
		body["uris"] = uris
	}
	if positionMs > 0 {
		body["position_ms"] = positionMs
	}

	return s.doRequest(ctx, http.MethodPut, endpoint, body, nil)
}

// Resume resumes playback on the active device.
func (s *SpotifyClient) Resume(ctx context.Context) error {
	return s.doRequest(ctx, http.MethodPut, "/me/player/play", map[string]any{}, nil)
}

// Pause pauses playback on the active device.
func (s *SpotifyClient) Pause(ctx context.Context) error {
	return s.doRequest(ctx, http.MethodPut, "/me/player/pause", nil, nil)
}

// SeekTo moves the playhead of the current track.
func (s *SpotifyClient) SeekTo(ctx context.Context, positionMs int) error {
	endpoint := fmt.Sprintf("/me/player/seek?position_ms=%d", positionMs)
	return s.doRequest(ctx, http.MethodPut, endpoint, nil, nil)
}

// Next skips to the next track in the provider queue.
func (s *SpotifyClient) Next(ctx context.Context) error {
	return s.doRequest(ctx, http.MethodPost, "/me/player/next", nil, nil)
}

// Previous skips to the previous track.
func (s *SpotifyClient) Previous(ctx context.Context) error {
	return s.doRequest(ctx, http.MethodPost, "/me/player/previous", nil, nil)
}
