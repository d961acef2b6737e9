package shared

import (
	"path/filepath"
	"strings"
	"testing"

	tu "github.com/desertthunder/aux-cli/internal/testing"
)

func TestGenerateID(t *testing.T) {
	id := GenerateID()
	if id == "" {
		t.Fatal("expected a non-empty ID")
	}
	if id == GenerateID() {
		t.Error("expected IDs to be unique")
	}
}

func TestGenerateState(t *testing.T) {
	state, err := GenerateState()
	if err != nil {
		t.Fatalf("failed to generate state: %v", err)
	}

	t.Run("Length", func(t *testing.T) {
		// 32 random bytes in unpadded base64.
		if len(state) != 43 {
			t.Errorf("expected 43 characters, got %d", len(state))
		}
	})

	t.Run("URL Safe", func(t *testing.T) {
		if strings.ContainsAny(state, "+/=") {
			t.Errorf("state should be URL-safe, got %s", state)
		}
	})

	t.Run("Unique", func(t *testing.T) {
		seen := map[string]bool{state: true}
		for i := 0; i < 32; i++ {
			s, err := GenerateState()
			if err != nil {
				t.Fatalf("failed to generate state: %v", err)
			}
			if seen[s] {
				t.Fatalf("state collision after %d draws", i+1)
			}
			seen[s] = true
		}
	})
}

func TestMarshalJSON(t *testing.T) {
	data := map[string]int{"a": 1}

	t.Run("Compact", func(t *testing.T) {
		out, err := MarshalJSON(data, false)
		if err != nil {
			t.Fatalf("failed to marshal: %v", err)
		}
		if string(out) != `{"a":1}` {
			t.Errorf("unexpected output %s", out)
		}
	})

	t.Run("Pretty", func(t *testing.T) {
		out, err := MarshalJSON(data, true)
		if err != nil {
			t.Fatalf("failed to marshal: %v", err)
		}
		if !strings.Contains(string(out), "\n") {
			t.Error("pretty output should be indented")
		}
	})
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "aux.log")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create file logger: %v", err)
	}
	if logger == nil {
		t.Fatal("expected a logger")
	}

	logger.Info("test line")

	tu.AssertFileExists(t, path)
	if content := tu.MustReadFile(t, path); !strings.Contains(content, "test line") {
		t.Errorf("expected log line in file, got %q", content)
	}
}

func TestBrowserCommand(t *testing.T) {
	cases := map[string]struct {
		goos     string
		wantName string
		wantArgs []string
	}{
		"Darwin":  {"darwin", "open", []string{"https://example.test"}},
		"Linux":   {"linux", "xdg-open", []string{"https://example.test"}},
		"Windows": {"windows", "cmd", []string{"/c", "start", "https://example.test"}},
		"Unknown": {"plan9", "", nil},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			gotName, gotArgs := browserCommand(tc.goos, "https://example.test")
			if gotName != tc.wantName {
				t.Errorf("expected launcher %q, got %q", tc.wantName, gotName)
			}
			if len(gotArgs) != len(tc.wantArgs) {
				t.Fatalf("expected args %v, got %v", tc.wantArgs, gotArgs)
			}
			for i := range gotArgs {
				if gotArgs[i] != tc.wantArgs[i] {
					t.Errorf("expected args %v, got %v", tc.wantArgs, gotArgs)
				}
			}
		})
	}
}

func TestOpenBrowserUnsupportedPlatform(t *testing.T) {
	previous := getRuntime
	getRuntime = func() string { return "plan9" }
	defer func() { getRuntime = previous }()

	if err := OpenBrowser("https://example.test"); err == nil {
		t.Error("expected an error on an unsupported platform")
	}
}
