package shared

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	tu "github.com/desertthunder/aux-cli/internal/testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Server.Host != "localhost" || config.Server.Port != 3000 {
		t.Errorf("unexpected server defaults %+v", config.Server)
	}
	if config.Server.Addr() != "localhost:3000" {
		t.Errorf("unexpected addr %s", config.Server.Addr())
	}
	if config.Credentials.Spotify.RedirectURI != "http://localhost:3000/auth/callback" {
		t.Errorf("unexpected redirect URI %s", config.Credentials.Spotify.RedirectURI)
	}
	if config.Database.Path != "aux.db" {
		t.Errorf("unexpected database path %s", config.Database.Path)
	}
	if config.Player.PollInterval() != time.Second {
		t.Errorf("unexpected poll interval %v", config.Player.PollInterval())
	}
}

func TestSpotifyConfig(t *testing.T) {
	t.Run("Validate", func(t *testing.T) {
		cases := map[string]struct {
			config  SpotifyConfig
			wantErr bool
		}{
			"Complete":       {SpotifyConfig{ClientID: "id", ClientSecret: "secret"}, false},
			"Missing ID":     {SpotifyConfig{ClientSecret: "secret"}, true},
			"Missing Secret": {SpotifyConfig{ClientID: "id"}, true},
		}

		for name, tc := range cases {
			t.Run(name, func(t *testing.T) {
				err := tc.config.Validate()
				if tc.wantErr && err == nil {
					t.Error("expected an error")
				}
				if !tc.wantErr && err != nil {
					t.Errorf("unexpected error %v", err)
				}
			})
		}
	})

	t.Run("Map", func(t *testing.T) {
		config := SpotifyConfig{ClientID: "id", ClientSecret: "secret", RedirectURI: "uri"}
		m := config.Map()

		if m["client_id"] != "id" || m["client_secret"] != "secret" || m["redirect_uri"] != "uri" {
			t.Errorf("unexpected map %v", m)
		}
	})
}

func TestPlayerConfig(t *testing.T) {
	t.Run("Configured Interval", func(t *testing.T) {
		config := PlayerConfig{PollIntervalMS: 250}
		if config.PollInterval() != 250*time.Millisecond {
			t.Errorf("unexpected interval %v", config.PollInterval())
		}
	})

	t.Run("Zero Defaults To One Second", func(t *testing.T) {
		config := PlayerConfig{}
		if config.PollInterval() != time.Second {
			t.Errorf("unexpected interval %v", config.PollInterval())
		}
	})
}

func TestConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	original := DefaultConfig()
	original.Credentials.Spotify.ClientID = "round_trip_id"
	original.Server.AllowedOrigins = []string{"http://localhost:3000", "https://example.com"}

	if err := SaveConfig(path, original); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if loaded.Credentials.Spotify.ClientID != "round_trip_id" {
		t.Errorf("unexpected client id %s", loaded.Credentials.Spotify.ClientID)
	}
	if len(loaded.Server.AllowedOrigins) != 2 {
		t.Errorf("unexpected origins %v", loaded.Server.AllowedOrigins)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("Missing File", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("Invalid TOML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		os.WriteFile(path, []byte("not [valid toml"), 0644)

		if _, err := LoadConfig(path); err == nil {
			t.Error("expected error for invalid TOML")
		}
	})
}

func TestCreateConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	if err := CreateConfigFile(path); err != nil {
		t.Fatalf("failed to create config file: %v", err)
	}
	tu.AssertFileExists(t, path)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("created config should parse: %v", err)
	}
	if config.Server.Port != 3000 {
		t.Errorf("unexpected port %d", config.Server.Port)
	}

	t.Run("Refuses To Overwrite", func(t *testing.T) {
		if err := CreateConfigFile(path); err == nil {
			t.Error("expected error when file exists")
		}
	})
}
