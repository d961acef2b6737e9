// package session owns the OAuth token lifecycle for a listening session.
//
// The [Manager] mediates the three-legged authorization-code flow with the
// provider and keeps a valid bearer token available to callers. Token pairs
// and pending authorization states live in a [Store], so the same logic runs
// against the in-memory store in tests and the SQLite store in the daemon.
package session

import (
	"time"

	"golang.org/x/oauth2"
)

// StateTTL is how long an issued authorization state remains redeemable.
const StateTTL = time.Hour

// expirySkew is subtracted from the recorded expiry so a token on the edge
// of expiring is never presented to the provider.
const expirySkew = 30 * time.Second

// AuthState is an opaque single-use token issued per login attempt and
// matched against the state parameter on the provider callback.
type AuthState struct {
	Value     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the state can no longer be redeemed.
func (s AuthState) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// TokenPair holds the provider-issued access and refresh tokens.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	Expiry       time.Time `json:"expiry"`
}

// Valid reports whether the access token exists and is safely inside its lifetime.
func (t TokenPair) Valid(now time.Time) bool {
	if t.AccessToken == "" {
		return false
	}
	if t.Expiry.IsZero() {
		return true
	}
	return now.Before(t.Expiry.Add(-expirySkew))
}

// fromOAuth2 converts an [oauth2.Token], keeping the previous refresh token
// when the provider does not rotate it.
func fromOAuth2(tok *oauth2.Token, prevRefresh string) TokenPair {
	pair := TokenPair{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}
	if pair.RefreshToken == "" {
		pair.RefreshToken = prevRefresh
	}
	return pair
}

// Store is the persistence adapter for authorization states and token pairs.
//
// TakeState consumes: a successful read removes the state so it can never be
// redeemed twice.
type Store interface {
	SaveState(state AuthState) error
	TakeState(value string) (AuthState, bool, error)
	SaveTokens(sessionID string, pair TokenPair) error
	Tokens(sessionID string) (TokenPair, bool, error)
	DeleteTokens(sessionID string) error
}
