package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

var getRuntime = func() string { return runtime.GOOS }

// OpenBrowser launches the default browser at url, used by the CLI login
// flow to hand the user to Spotify's consent page.
//
// The launcher is started without waiting; the local callback server picks
// up the redirect once the user approves.
func OpenBrowser(url string) error {
	rt := getRuntime()
	name, args := browserCommand(rt, url)
	if name == "" {
		return fmt.Errorf("no browser launcher for %s, open the URL manually", rt)
	}

	if err := exec.Command(name, args...).Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}

// browserCommand maps GOOS to the platform's URL launcher invocation.
func browserCommand(goos, url string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{url}
	case "linux":
		return "xdg-open", []string{url}
	case "windows":
		return "cmd", []string{"/c", "start", url}
	default:
		return "", nil
	}
}
