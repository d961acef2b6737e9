package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/aux-cli/internal/services"
	"github.com/desertthunder/aux-cli/internal/session"
	"github.com/desertthunder/aux-cli/internal/shared"
)

// LibraryFactory builds a catalog client bound to a request-scoped bearer
// token (tokens travel in cookies, so each request carries its own).
type LibraryFactory func(token string) services.Library

// Options configures a [Service].
type Options struct {
	Manager        *session.Manager
	Library        LibraryFactory
	Songs          []services.Song
	Logger         *log.Logger
	BaseURL        string
	AllowedOrigins []string
	Secure         bool
}

// Service exposes the session API consumed by the portfolio frontend.
type Service struct {
	manager *session.Manager
	library LibraryFactory
	songs   []services.Song
	logger  *log.Logger
	baseURL string
	origins []string
	secure  bool
	now     func() time.Time
}

// New creates a [Service] with the given options.
func New(opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Library == nil {
		opts.Library = func(token string) services.Library {
			return services.NewSpotifyClient(services.StaticToken(token), nil)
		}
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "/"
	}

	return &Service{
		manager: opts.Manager,
		library: opts.Library,
		songs:   opts.Songs,
		logger:  opts.Logger,
		baseURL: opts.BaseURL,
		origins: opts.AllowedOrigins,
		secure:  opts.Secure,
		now:     time.Now,
	}
}

// Router builds the service's route table with the standard middleware stack.
func (s *Service) Router() *BasicRouter {
	router := NewBasicRouter()
	router.Use(Recovery(s.logger), Logging(s.logger), CORS(s.origins))

	router.Handle(http.MethodGet, "/auth/start", http.HandlerFunc(s.handleAuthStart))
	router.Handle(http.MethodGet, "/auth/callback", http.HandlerFunc(s.handleAuthCallback))
	router.Handle(http.MethodPost, "/auth/refresh", http.HandlerFunc(s.handleAuthRefresh))
	router.Handle(http.MethodGet, "/liked-songs", http.HandlerFunc(s.handleLikedSongs))
	router.Handle(http.MethodGet, "/songs", http.HandlerFunc(s.handleSongs))
	router.Handle(http.MethodGet, "/health", http.HandlerFunc(s.handleHealth))

	return router
}

func (s *Service) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to encode response", "error", err)
	}
}

// handleAuthStart begins the authorization-code flow: issues a state, parks
// it in a short-lived cookie, and redirects to the provider.
func (s *Service) handleAuthStart(w http.ResponseWriter, r *http.Request) {
	authURL, state, err := s.manager.BeginAuthorization(r.Context())
	if err != nil {
		if errors.Is(err, shared.ErrMissingConfig) {
			http.Error(w, "Client ID not configured", http.StatusInternalServerError)
			return
		}
		s.logger.Error("failed to begin authorization", "error", err)
		http.Error(w, "Failed to begin authorization", http.StatusInternalServerError)
		return
	}

	setStateCookie(w, state, s.secure)
	http.Redirect(w, r, authURL, http.StatusFound)
}

// handleAuthCallback validates the returned state against both the browser
// cookie and the server-side record, then exchanges the code for tokens.
func (s *Service) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	code := query.Get("code")
	state := query.Get("state")

	if cookieState := readStateCookie(r); cookieState == "" || cookieState != state {
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	pair, err := s.manager.CompleteAuthorization(r.Context(), code, state)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidState) {
			http.Error(w, "Invalid state parameter", http.StatusBadRequest)
			return
		}
		s.logger.Error("token exchange failed", "error", err)
		http.Error(w, "Failed to authenticate with provider", http.StatusInternalServerError)
		return
	}

	setTokenCookies(w, pair, s.now(), s.secure)
	clearStateCookie(w, s.secure)
	http.Redirect(w, r, s.baseURL, http.StatusFound)
}

// handleAuthRefresh exchanges the refresh-token cookie for fresh tokens.
func (s *Service) handleAuthRefresh(w http.ResponseWriter, r *http.Request) {
	pair, ok := readTokenPair(r)
	if !ok || pair.RefreshToken == "" {
		http.Error(w, "No refresh token found", http.StatusUnauthorized)
		return
	}

	refreshed, err := s.manager.RefreshWith(r.Context(), pair.RefreshToken)
	if err != nil {
		s.logger.Error("refresh failed", "error", err)
		http.Error(w, "Failed to refresh token", http.StatusInternalServerError)
		return
	}

	setTokenCookies(w, refreshed, s.now(), s.secure)
	s.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleLikedSongs proxies the provider's saved-tracks list, normalized for
// the frontend.
func (s *Service) handleLikedSongs(w http.ResponseWriter, r *http.Request) {
	pair, ok := readTokenPair(r)
	if !ok || pair.AccessToken == "" {
		http.Error(w, "No access token", http.StatusUnauthorized)
		return
	}

	songs, err := s.library(pair.AccessToken).SavedTracks(r.Context(), 50, 0)
	if err != nil {
		if errors.Is(err, shared.ErrAuthentication) {
			http.Error(w, "Access token rejected", http.StatusUnauthorized)
			return
		}
		s.logger.Error("failed to fetch liked songs", "error", err)
		http.Error(w, "Failed to fetch liked songs", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string][]services.Song{"songs": songs})
}

// handleSongs serves the static song list.
func (s *Service) handleSongs(w http.ResponseWriter, r *http.Request) {
	songs := s.songs
	if songs == nil {
		songs = []services.Song{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]services.Song{"songs": songs})
}

// handleHealth reports service liveness and whether a session is stored.
func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	authenticated := false
	if s.manager != nil {
		if _, ok, err := s.manager.Tokens(); err == nil {
			authenticated = ok
		}
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"authenticated": authenticated,
	})
}
