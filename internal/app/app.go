// Package app assembles the catalog server's components and manages their
// lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/meridianmaps/catalog-server/internal/config"
	"github.com/meridianmaps/catalog-server/internal/logging"
)

// CatalogApp bundles the HTTP server and the background refresh pipeline
// behind a single Start/Stop lifecycle.
type CatalogApp struct {
	config     *config.Config
	components *AppComponents
	httpServer *http.Server

	ctx        context.Context
	cancelFunc context.CancelFunc
}

// Start launches the refresh coordinator in the background and then serves
// HTTP. It blocks until the server stops or fails to listen.
func (app *CatalogApp) Start() error {
	logger := logging.FromContext(app.ctx)

	go func() {
		if err := app.components.SyncCoordinator.Start(app.ctx); err != nil {
			logger.Error(err, "Refresh coordinator failed")
		}
	}()

	logger.Info("Server listening", "address", app.httpServer.Addr)
	if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}

	return nil
}

// Stop shuts the application down. The refresh coordinator stops first so no
// in-flight load publishes into a service that is being torn down, then the
// HTTP server drains its connections within the given timeout.
func (app *CatalogApp) Stop(timeout time.Duration) error {
	logger := logging.FromContext(app.ctx)
	logger.Info("Shutting down catalog server")

	if err := app.components.SyncCoordinator.Stop(); err != nil {
		logger.Error(err, "Failed to stop refresh coordinator")
	}

	if app.cancelFunc != nil {
		app.cancelFunc()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown not completed within %s: %w", timeout, err)
	}

	logger.Info("Shutdown complete")
	return nil
}

// GetConfig returns the application configuration
func (app *CatalogApp) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer exposes the underlying server, mainly so tests can read the
// bound address
func (app *CatalogApp) GetHTTPServer() *http.Server {
	return app.httpServer
}
