package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/aux-cli/internal/shared"
	tu "github.com/desertthunder/aux-cli/internal/testing"
)

// newTestClient points a SpotifyClient at a local test server.
func newTestClient(t *testing.T, handler http.HandlerFunc) *SpotifyClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewSpotifyClient(StaticToken("test_token"), nil)
	client.baseURL = srv.URL

	return client
}

// newTransportClient builds a SpotifyClient over a round tripper double so
// no request leaves the process.
func newTransportClient(rt http.RoundTripper) *SpotifyClient {
	return NewSpotifyClient(StaticToken("test_token"), &http.Client{Transport: rt})
}

func TestSpotifyClient(t *testing.T) {
	ctx := context.Background()

	t.Run("Sends Bearer Token", func(t *testing.T) {
		var gotAuth string
		client := newTransportClient(tu.RoundTripFunc(func(r *http.Request) (*http.Response, error) {
			gotAuth = r.Header.Get("Authorization")
			return tu.JSONResponse(http.StatusOK, `{"items":[],"total":0}`), nil
		}))

		if _, err := client.SavedTracks(ctx, 20, 0); err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if gotAuth != "Bearer test_token" {
			t.Errorf("expected bearer header, got %q", gotAuth)
		}
	})

	t.Run("No Token Source", func(t *testing.T) {
		client := NewSpotifyClient(nil, nil)

		_, err := client.SavedTracks(ctx, 20, 0)
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("Status Mapping", func(t *testing.T) {
		cases := map[string]struct {
			status int
			want   error
		}{
			"401 Is Authentication": {http.StatusUnauthorized, shared.ErrAuthentication},
			"403 Is Account":        {http.StatusForbidden, shared.ErrAccount},
			"500 Is API Request":    {http.StatusInternalServerError, shared.ErrAPIRequest},
		}

		for name, tc := range cases {
			t.Run(name, func(t *testing.T) {
				client := newTransportClient(tu.NewMockRoundTripper(tu.JSONResponse(tc.status, `{}`), nil))

				_, err := client.SavedTracks(ctx, 20, 0)
				if !errors.Is(err, tc.want) {
					t.Errorf("expected %v, got %v", tc.want, err)
				}
			})
		}
	})

	t.Run("SavedTracks Normalization", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/me/tracks" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{
				"items": [{
					"added_at": "2025-01-01T00:00:00Z",
					"track": {
						"id": "track1",
						"name": "First Song",
						"artists": [{"name": "Artist A"}, {"name": "Artist B"}],
						"album": {
							"name": "The Album",
							"images": [{"url": "https://img.example/cover.jpg", "height": 640, "width": 640}]
						},
						"duration_ms": 213500,
						"uri": "spotify:track:track1"
					}
				}],
				"total": 1
			}`)
		})

		songs, err := client.SavedTracks(ctx, 20, 0)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if len(songs) != 1 {
			t.Fatalf("expected one song, got %d", len(songs))
		}

		song := songs[0]
		if song.Title != "First Song" {
			t.Errorf("unexpected title %s", song.Title)
		}
		if song.Artist != "Artist A, Artist B" {
			t.Errorf("expected joined artists, got %s", song.Artist)
		}
		if song.DurationSeconds != 213 {
			t.Errorf("expected 213 seconds, got %d", song.DurationSeconds)
		}
		if song.CoverURL != "https://img.example/cover.jpg" {
			t.Errorf("unexpected cover %s", song.CoverURL)
		}
		if song.URI != "spotify:track:track1" {
			t.Errorf("unexpected URI %s", song.URI)
		}
	})

	t.Run("SavedTracksPage Clamps Limit", func(t *testing.T) {
		var gotQuery string
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.RawQuery
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"items":[]}`)
		})

		if _, err := client.SavedTracksPage(ctx, 500, 10); err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if gotQuery != "limit=50&offset=10" {
			t.Errorf("expected clamped limit, got %s", gotQuery)
		}
	})

	t.Run("PlayerState No Active Device", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})

		state, err := client.PlayerState(ctx)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if state != nil {
			t.Errorf("expected nil state for 204, got %+v", state)
		}
	})

	t.Run("PlayerState Snapshot", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{
				"timestamp": 1700000000000,
				"progress_ms": 4200,
				"is_playing": true,
				"item": {"id": "track1", "name": "Playing", "uri": "spotify:track:track1", "duration_ms": 180000}
			}`)
		})

		state, err := client.PlayerState(ctx)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if state == nil {
			t.Fatal("expected a snapshot")
		}
		if !state.IsPlaying || state.ProgressMS != 4200 {
			t.Errorf("unexpected snapshot %+v", state)
		}
		if state.Item == nil || state.Item.Name != "Playing" {
			t.Errorf("unexpected item %+v", state.Item)
		}
	})

	t.Run("Play Request Shape", func(t *testing.T) {
		var gotMethod, gotPath, gotDevice string
		var gotBody map[string]any
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotPath = r.URL.Path
			gotDevice = r.URL.Query().Get("device_id")
			json.NewDecoder(r.Body).Decode(&gotBody)
			w.WriteHeader(http.StatusNoContent)
		})

		err := client.Play(ctx, "dev_1", []string{"spotify:track:a", "spotify:track:b"}, 1500)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}

		if gotMethod != http.MethodPut || gotPath != "/me/player/play" {
			t.Errorf("unexpected request %s %s", gotMethod, gotPath)
		}
		if gotDevice != "dev_1" {
			t.Errorf("expected device_id query, got %q", gotDevice)
		}
		if uris, ok := gotBody["uris"].([]any); !ok || len(uris) != 2 {
			t.Errorf("expected two uris in body, got %v", gotBody["uris"])
		}
		if pos, ok := gotBody["position_ms"].(float64); !ok || pos != 1500 {
			t.Errorf("expected position_ms 1500, got %v", gotBody["position_ms"])
		}
	})

	t.Run("TransferPlayback Request Shape", func(t *testing.T) {
		var gotBody map[string]any
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewDecoder(r.Body).Decode(&gotBody)
			w.WriteHeader(http.StatusNoContent)
		})

		if err := client.TransferPlayback(ctx, "dev_1", false); err != nil {
			t.Fatalf("request failed: %v", err)
		}

		ids, ok := gotBody["device_ids"].([]any)
		if !ok || len(ids) != 1 || ids[0] != "dev_1" {
			t.Errorf("expected device_ids [dev_1], got %v", gotBody["device_ids"])
		}
		if play, ok := gotBody["play"].(bool); !ok || play {
			t.Errorf("expected play false, got %v", gotBody["play"])
		}
	})

	t.Run("Devices Mapping", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"devices":[
				{"id": "dev_1", "is_active": true, "name": "Kitchen", "type": "Speaker"},
				{"id": null, "is_active": false, "name": "Restricted", "type": "Unknown"}
			]}`)
		})

		devices, err := client.Devices(ctx)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if len(devices) != 2 {
			t.Fatalf("expected two devices, got %d", len(devices))
		}
		if devices[0].ID != "dev_1" || !devices[0].IsActive {
			t.Errorf("unexpected first device %+v", devices[0])
		}
		if devices[1].ID != "" {
			t.Errorf("null device id should map to empty string, got %q", devices[1].ID)
		}
	})
}
