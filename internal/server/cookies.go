package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/desertthunder/aux-cli/internal/session"
)

// Session cookie names.
//
// All cookies are http-only, SameSite=Lax, path=/. The expiry travels in its
// own cookie so a token pair survives the cookie round trip intact.
const (
	stateCookie        = "auth_state"
	accessCookie       = "access_token"
	accessExpiryCookie = "access_token_expiry"
	refreshCookie      = "refresh_token"

	stateMaxAge   = 3600
	refreshMaxAge = 365 * 24 * 3600
)

func baseCookie(name, value string, maxAge int, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// setStateCookie stores the pending authorization state for the callback.
func setStateCookie(w http.ResponseWriter, state string, secure bool) {
	http.SetCookie(w, baseCookie(stateCookie, state, stateMaxAge, secure))
}

// clearStateCookie removes the state cookie once the flow completes.
func clearStateCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, baseCookie(stateCookie, "", -1, secure))
}

// readStateCookie returns the pending state, if the browser sent one.
func readStateCookie(r *http.Request) string {
	c, err := r.Cookie(stateCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

// setTokenCookies writes the token pair to the browser.
//
// The access cookie lives exactly as long as the provider says the token
// does; the refresh cookie is only rotated when a new refresh token exists.
func setTokenCookies(w http.ResponseWriter, pair session.TokenPair, now time.Time, secure bool) {
	accessMaxAge := int(pair.Expiry.Sub(now).Seconds())
	if accessMaxAge < 0 {
		accessMaxAge = 0
	}

	http.SetCookie(w, baseCookie(accessCookie, pair.AccessToken, accessMaxAge, secure))
	http.SetCookie(w, baseCookie(accessExpiryCookie, strconv.FormatInt(pair.Expiry.Unix(), 10), accessMaxAge, secure))

	if pair.RefreshToken != "" {
		http.SetCookie(w, baseCookie(refreshCookie, pair.RefreshToken, refreshMaxAge, secure))
	}
}

// readTokenPair reconstructs a token pair from the request cookies.
func readTokenPair(r *http.Request) (session.TokenPair, bool) {
	var pair session.TokenPair

	if c, err := r.Cookie(accessCookie); err == nil {
		pair.AccessToken = c.Value
	}
	if c, err := r.Cookie(refreshCookie); err == nil {
		pair.RefreshToken = c.Value
	}
	if c, err := r.Cookie(accessExpiryCookie); err == nil {
		if unix, err := strconv.ParseInt(c.Value, 10, 64); err == nil {
			pair.Expiry = time.Unix(unix, 0)
		}
	}

	return pair, pair.AccessToken != "" || pair.RefreshToken != ""
}
