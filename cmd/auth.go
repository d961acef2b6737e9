package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/aux-cli/internal/server"
	"github.com/desertthunder/aux-cli/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin performs the OAuth2 authorization flow for Spotify.
//
// Starts a local HTTP server, opens the browser for user authorization, and
// waits for the callback to exchange the code for tokens. Tokens land in the
// configured session store.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	store, db, err := r.openStore(config)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	manager, err := r.newManager(config, store)
	if err != nil {
		return err
	}

	authURL, _, err := manager.BeginAuthorization(ctx)
	if err != nil {
		return fmt.Errorf("failed to start authorization: %w", err)
	}

	oauthHandler := server.NewOAuthHandler(manager)
	router := server.NewBasicRouter()
	router.Handler(oauthHandler)

	serverAddr := config.Server.Addr()
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth callback server at %v", serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return fmt.Errorf("authorization failed: %w", result.Error())
	}

	r.writePlainln("✓ Authorization successful")
	if config.Database.Path != "" {
		r.writePlain("✓ Tokens saved to %s\n\n", config.Database.Path)
	}
	r.writePlain("You can now use: aux player\n")

	return nil
}

// AuthStatus shows whether a session exists and when the access token expires.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	store, db, err := r.openStore(config)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	manager, err := r.newManager(config, store)
	if err != nil {
		return err
	}

	pair, ok, err := manager.Tokens()
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}

	if !ok {
		r.writePlain("Authentication: ✗ Not authenticated\n")
		r.writePlain("Run 'aux auth login' to authorize.\n")
		return nil
	}

	r.writePlain("Authentication: ✓ Authenticated\n")
	if pair.Valid(time.Now()) {
		r.writePlain("Access token: valid until %s\n", pair.Expiry.Format(time.RFC1123))
	} else {
		r.writePlain("Access token: expired, will refresh on next use\n")
	}

	return nil
}

// AuthLogout clears stored session tokens.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	store, db, err := r.openStore(config)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	manager, err := r.newManager(config, store)
	if err != nil {
		return err
	}

	if err := manager.Logout(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	r.writePlain("✓ Session cleared\n")

	return nil
}
