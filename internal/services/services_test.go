package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestStaticToken(t *testing.T) {
	fn := StaticToken("fixed")

	token, err := fn(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "fixed" {
		t.Errorf("expected fixed token, got %s", token)
	}
}

func TestLoadSongs(t *testing.T) {
	writeFile := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "songs.json")
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write songs file: %v", err)
		}
		return path
	}

	t.Run("Bare Array", func(t *testing.T) {
		path := writeFile(t, `[
			{"id": "1", "title": "One", "artist": "A", "durationSeconds": 200, "uri": "spotify:track:1"},
			{"id": "2", "title": "Two", "artist": "B", "durationSeconds": 180, "uri": "spotify:track:2"}
		]`)

		songs, err := LoadSongs(path)
		if err != nil {
			t.Fatalf("failed to load songs: %v", err)
		}
		if len(songs) != 2 {
			t.Fatalf("expected two songs, got %d", len(songs))
		}
		if songs[0].Title != "One" || songs[1].URI != "spotify:track:2" {
			t.Errorf("unexpected songs %+v", songs)
		}
	})

	t.Run("Envelope", func(t *testing.T) {
		path := writeFile(t, `{"songs": [
			{"id": "1", "title": "One", "artist": "A", "durationSeconds": 200, "uri": "spotify:track:1"}
		]}`)

		songs, err := LoadSongs(path)
		if err != nil {
			t.Fatalf("failed to load songs: %v", err)
		}
		if len(songs) != 1 || songs[0].ID != "1" {
			t.Errorf("unexpected songs %+v", songs)
		}
	})

	t.Run("Missing File", func(t *testing.T) {
		if _, err := LoadSongs(filepath.Join(t.TempDir(), "absent.json")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("Invalid JSON", func(t *testing.T) {
		path := writeFile(t, `{not json`)
		if _, err := LoadSongs(path); err == nil {
			t.Error("expected error for invalid JSON")
		}
	})
}
