package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authorization flow errors
	ErrInvalidState  = fmt.Errorf("invalid state parameter")
	ErrUpstreamAuth  = fmt.Errorf("provider rejected authorization")
	ErrNoSession     = fmt.Errorf("no session established")
	ErrRefreshFailed = fmt.Errorf("token refresh failed")
	ErrTokenExpired  = fmt.Errorf("access token expired")

	// Playback connection errors
	ErrInitialization = fmt.Errorf("playback initialization failed")
	ErrAuthentication = fmt.Errorf("playback authentication failed")
	ErrAccount        = fmt.Errorf("account not eligible for playback")
	ErrNotConnected   = fmt.Errorf("no active playback connection")
	ErrPlaybackCmd    = fmt.Errorf("playback command failed")

	// API and transport errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrTimeout            = fmt.Errorf("operation timed out")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
