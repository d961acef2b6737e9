package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/desertthunder/aux-cli/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
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

	service := server.New(server.Options{
		Manager:        manager,
		Songs:          r.loadSongs(config),
		Logger:         r.logger,
		BaseURL:        config.Server.BaseURL,
		AllowedOrigins: config.Server.AllowedOrigins,
		Secure:         strings.HasPrefix(config.Server.BaseURL, "https://"),
	})

	addr := cmd.String("addr")
	if addr == "" {
		addr = config.Server.Addr()
	}

	httpServer := &http.Server{
		Addr:    addr,
		Handler: service.Router(),
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Info("starting server", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
	}

	r.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(shutdownCtx)
}
