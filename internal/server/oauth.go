package server

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/desertthunder/aux-cli/internal/session"
)

// OAuthResult contains the result of an OAuth authorization flow.
type OAuthResult struct {
	Tokens session.TokenPair
	err    error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// OAuthHandler handles the authorization-code callback for the CLI flow,
// where aux runs its own short-lived local server instead of the daemon.
//
// Implements the [Handler] interface for registration with a [Router].
// Only processes one callback; replays get a 400.
type OAuthHandler struct {
	manager     *session.Manager
	resultChan  chan OAuthResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewOAuthHandler creates an OAuth callback handler that completes the flow
// through the given session manager.
func NewOAuthHandler(manager *session.Manager) *OAuthHandler {
	return &OAuthHandler{
		manager:    manager,
		resultChan: make(chan OAuthResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{"/auth/callback"}
}

// ServeHTTP handles the OAuth callback request.
//
// State validation and the code exchange run through the session manager,
// so the single-use state invariant holds for the CLI flow too.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	query := r.URL.Query()

	if errParam := query.Get("error"); errParam != "" {
		err := fmt.Errorf("authorization failed: %s - %s", errParam, query.Get("error_description"))
		h.Send(OAuthResult{err: err})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	pair, err := h.manager.CompleteAuthorization(r.Context(), query.Get("code"), query.Get("state"))
	if err != nil {
		h.Send(OAuthResult{err: err})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	h.Send(OAuthResult{Tokens: pair})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `
<!DOCTYPE html>
<html>
<head>
    <title>Authorization Successful</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>✓ Authorization Successful</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`)
}

// Send sends the OAuth result through the channel (only once).
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving OAuth flow completion.
//
// Channel will receive exactly one result and then be closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.resultChan
}
