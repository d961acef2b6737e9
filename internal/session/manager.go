package session

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/aux-cli/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"

	// Per-exchange upper bound; a call past this is a failure, not a hang.
	exchangeTimeout = 10 * time.Second
)

// DefaultScopes covers profile, library, and remote playback control.
var DefaultScopes = []string{
	"user-read-private",
	"user-read-email",
	"user-read-playback-state",
	"user-modify-playback-state",
	"user-read-currently-playing",
	"streaming",
	"playlist-read-private",
	"playlist-read-collaborative",
	"user-library-read",
}

// Manager mediates the OAuth2 authorization-code flow and keeps a valid
// bearer token available.
//
// State machine: Unauthenticated -> AwaitingCallback (BeginAuthorization) ->
// Authenticated (CompleteAuthorization) -> transparent refresh on expiry ->
// Unauthenticated on refresh rejection or Logout.
type Manager struct {
	config     *oauth2.Config
	store      Store
	sessionID  string
	httpClient *http.Client
	logger     *log.Logger

	// sf dedupes concurrent refreshes: the provider may reject parallel
	// exchanges with the same refresh token, which would kill the session.
	sf singleflight.Group

	now func() time.Time
}

// NewManager creates a session [Manager] with the given OAuth2 credentials.
//
// Requires "client_id" and "client_secret"; "redirect_uri" defaults to the
// local callback.
func NewManager(credentials map[string]string, store Store, logger *log.Logger) (*Manager, error) {
	clientID := credentials["client_id"]
	if clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingConfig)
	}

	clientSecret := credentials["client_secret"]
	if clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingConfig)
	}

	redirectURI := credentials["redirect_uri"]
	if redirectURI == "" {
		redirectURI = "http://localhost:3000/auth/callback"
	}

	if store == nil {
		store = NewMemoryStore()
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       DefaultScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &Manager{
		config:     config,
		store:      store,
		sessionID:  "default",
		httpClient: &http.Client{Timeout: exchangeTimeout},
		logger:     logger,
		now:        time.Now,
	}, nil
}

// SetScopes overrides the default authorization scopes.
func (m *Manager) SetScopes(scopes []string) {
	if len(scopes) > 0 {
		m.config.Scopes = scopes
	}
}

// OAuthConfig exposes the underlying [oauth2.Config] for callers that run
// their own callback server (the CLI auth command).
func (m *Manager) OAuthConfig() *oauth2.Config {
	return m.config
}

// BeginAuthorization issues a fresh authorization state and returns the
// provider URL to redirect the user to.
func (m *Manager) BeginAuthorization(ctx context.Context) (authURL, state string, err error) {
	state, err = shared.GenerateState()
	if err != nil {
		return "", "", err
	}

	issued := m.now()
	if err := m.store.SaveState(AuthState{
		Value:     state,
		CreatedAt: issued,
		ExpiresAt: issued.Add(StateTTL),
	}); err != nil {
		return "", "", fmt.Errorf("failed to persist auth state: %w", err)
	}

	m.logger.Debug("issued authorization state", "state", state)

	return m.config.AuthCodeURL(state), state, nil
}

// CompleteAuthorization validates the returned state and exchanges the code
// for a token pair.
//
// The state is consumed whether or not the exchange succeeds; a replay with
// the same state always fails with [shared.ErrInvalidState]. The provider is
// never contacted on a state mismatch, and the exchange is never retried
// since authorization codes are single-use.
func (m *Manager) CompleteAuthorization(ctx context.Context, code, returnedState string) (TokenPair, error) {
	if returnedState == "" {
		return TokenPair{}, fmt.Errorf("%w: empty state", shared.ErrInvalidState)
	}

	_, ok, err := m.store.TakeState(returnedState)
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to read auth state: %w", err)
	}
	if !ok {
		return TokenPair{}, fmt.Errorf("%w: unknown or expired state", shared.ErrInvalidState)
	}

	if code == "" {
		return TokenPair{}, fmt.Errorf("%w: empty authorization code", shared.ErrUpstreamAuth)
	}

	tok, err := m.config.Exchange(m.exchangeContext(ctx), code)
	if err != nil {
		return TokenPair{}, fmt.Errorf("%w: %v", shared.ErrUpstreamAuth, err)
	}

	pair := fromOAuth2(tok, "")
	if err := m.store.SaveTokens(m.sessionID, pair); err != nil {
		return TokenPair{}, fmt.Errorf("failed to persist tokens: %w", err)
	}

	m.logger.Info("authorization complete", "expiry", pair.Expiry)

	return pair, nil
}

// AccessToken returns a currently valid access token, refreshing
// transparently when the stored one has expired.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	pair, ok, err := m.store.Tokens(m.sessionID)
	if err != nil {
		return "", fmt.Errorf("failed to read tokens: %w", err)
	}
	if !ok {
		return "", shared.ErrNoSession
	}

	if pair.Valid(m.now()) {
		return pair.AccessToken, nil
	}

	refreshed, err := m.Refresh(ctx)
	if err != nil {
		return "", err
	}

	return refreshed.AccessToken, nil
}

// Tokens returns the stored token pair, if any.
func (m *Manager) Tokens() (TokenPair, bool, error) {
	return m.store.Tokens(m.sessionID)
}

// SetTokens installs an externally obtained token pair (CLI auth flow,
// cookie-sourced tokens).
func (m *Manager) SetTokens(pair TokenPair) error {
	if pair.AccessToken == "" {
		return fmt.Errorf("%w: empty access token", shared.ErrInvalidInput)
	}
	return m.store.SaveTokens(m.sessionID, pair)
}

// Logout discards the stored session.
func (m *Manager) Logout() error {
	return m.store.DeleteTokens(m.sessionID)
}

// Refresh exchanges the stored refresh token for a new pair and persists it.
//
// Single-flight: concurrent callers share one provider exchange. A
// provider-level rejection is terminal and clears the session; a transport
// failure is retried once and leaves the session intact.
func (m *Manager) Refresh(ctx context.Context) (TokenPair, error) {
	v, err, _ := m.sf.Do("refresh", func() (any, error) {
		pair, ok, err := m.store.Tokens(m.sessionID)
		if err != nil {
			return TokenPair{}, fmt.Errorf("failed to read tokens: %w", err)
		}
		if !ok || pair.RefreshToken == "" {
			return TokenPair{}, shared.ErrNoSession
		}

		refreshed, err := m.RefreshWith(ctx, pair.RefreshToken)
		if err != nil {
			if errors.Is(err, shared.ErrRefreshFailed) {
				if delErr := m.store.DeleteTokens(m.sessionID); delErr != nil {
					m.logger.Warn("failed to clear rejected session", "error", delErr)
				}
			}
			return TokenPair{}, err
		}

		if err := m.store.SaveTokens(m.sessionID, refreshed); err != nil {
			return TokenPair{}, fmt.Errorf("failed to persist tokens: %w", err)
		}

		return refreshed, nil
	})
	if err != nil {
		return TokenPair{}, err
	}

	return v.(TokenPair), nil
}

// RefreshWith exchanges an explicit refresh token for a new pair without
// touching the store. Used by the HTTP refresh endpoint, where tokens live
// in cookies owned by the browser.
func (m *Manager) RefreshWith(ctx context.Context, refreshToken string) (TokenPair, error) {
	if refreshToken == "" {
		return TokenPair{}, shared.ErrNoSession
	}

	tok, err := m.redeemRefreshToken(ctx, refreshToken)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			m.logger.Warn("provider rejected refresh token", "status", retrieveErr.Response.StatusCode)
			return TokenPair{}, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
		}

		m.logger.Debug("refresh transport failure, retrying once", "error", err)

		tok, err = m.redeemRefreshToken(ctx, refreshToken)
		if err != nil {
			if errors.As(err, &retrieveErr) {
				return TokenPair{}, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
			}
			return TokenPair{}, classifyTransportError(err)
		}
	}

	return fromOAuth2(tok, refreshToken), nil
}

// redeemRefreshToken performs a single refresh-grant exchange.
func (m *Manager) redeemRefreshToken(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	src := m.config.TokenSource(m.exchangeContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	return src.Token()
}

// exchangeContext injects the manager's HTTP client so [oauth2] exchanges
// carry the configured timeout.
func (m *Manager) exchangeContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
}

// classifyTransportError maps timeouts onto [shared.ErrTimeout].
func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", shared.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
}
