// Package server provides HTTP routing, middleware, and the session API
// consumed by the portfolio frontend.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first),
// following the standard Go pattern. The [BasicRouter] implementation uses
// [http.ServeMux] internally with method filtering.
//
// # Session API
//
// [Service] registers the browser-facing endpoints:
//
//   - GET /auth/start: redirect to the provider's authorization page
//   - GET /auth/callback: state validation and code exchange
//   - POST /auth/refresh: rotate tokens from the refresh cookie
//   - GET /liked-songs: normalized saved-tracks proxy
//   - GET /songs: static song list
//   - GET /health: liveness and session status
//
// Tokens travel in http-only, SameSite=Lax cookies; CORS responses echo
// back only allow-listed origins with credentials enabled.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the authorization-code callback for the CLI
// flow. When the user runs `aux auth`, a temporary HTTP server starts
// locally, handles the callback through the session manager, and delivers
// the result over a channel. It only processes one callback to prevent
// replay.
package server
