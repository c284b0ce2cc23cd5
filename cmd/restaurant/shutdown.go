package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vyrodovalexey/restaurant/internal/observability"
)

// defaultShutdownTimeout applies when server.shutdownTimeout is unset.
const defaultShutdownTimeout = 30 * time.Second

// run serves until SIGINT or SIGTERM, or until the server fails, and then
// shuts everything down.
func run(ctx context.Context, app *application, logger observability.Logger) {
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := serve(sigCtx, app, logger); err != nil {
		logger.Error("server failed", observability.Error(err))
		shutdown(app, logger)
		_ = logger.Sync()
		os.Exit(1)
	}
	shutdown(app, logger)
}

// serve runs the HTTP server until ctx is done. It returns the server's
// error if it stops on its own.
func serve(ctx context.Context, app *application, logger observability.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- app.server.Start(ctx)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("received shutdown signal")
		return nil
	}
}

// shutdown drains the HTTP server and releases the store, the cache and the
// tracer within the configured shutdown timeout.
func shutdown(app *application, logger observability.Logger) {
	timeout := app.config.Server.ShutdownTimeout.Duration()
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := app.server.Stop(shutdownCtx); err != nil {
		logger.Error("failed to stop HTTP server gracefully", observability.Error(err))
	}

	if err := app.close(shutdownCtx); err != nil {
		logger.Error("failed to release resources", observability.Error(err))
	}

	logger.Info("restaurant stopped")
}
