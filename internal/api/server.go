// Package api provides the REST API server for the catalog.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	v1 "github.com/meridianmaps/catalog-server/internal/api/v1"
	"github.com/meridianmaps/catalog-server/internal/logging"
	"github.com/meridianmaps/catalog-server/internal/service"
	"github.com/meridianmaps/catalog-server/internal/sync/state"
)

// ServerOption configures the catalog API server
type ServerOption func(*serverConfig)

// serverConfig holds the server configuration
type serverConfig struct {
	middlewares    []func(http.Handler) http.Handler
	refresher      v1.GroupRefresher
	proxyRelay     http.Handler
	metricsHandler http.Handler
}

// WithMiddlewares adds middleware to the server
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithRefresher enables the on-demand refresh endpoint. Without it,
// POST /api/v1/groups/{groupName}/refresh answers 503.
func WithRefresher(refresher v1.GroupRefresher) ServerOption {
	return func(cfg *serverConfig) {
		cfg.refresher = refresher
	}
}

// WithProxyRelay mounts a caching relay for upstream map services under /proxy.
func WithProxyRelay(relay http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.proxyRelay = relay
	}
}

// WithMetricsHandler exposes a metrics endpoint at /metrics.
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.metricsHandler = h
	}
}

// NewServer creates and configures the HTTP router with the given services and options
func NewServer(svc service.CatalogService, stateSvc state.GroupStateService, opts ...ServerOption) *chi.Mux {
	// Initialize configuration with defaults
	cfg := &serverConfig{
		middlewares: []func(http.Handler) http.Handler{},
	}

	// Apply options
	for _, opt := range opts {
		opt(cfg)
	}

	r := chi.NewRouter()

	// Apply middleware
	for _, mw := range cfg.middlewares {
		r.Use(mw)
	}

	// Mount health check routes directly at root
	r.Mount("/", HealthRouter(svc))

	// Mount catalog API v1 routes
	r.Mount("/api/v1", v1.Router(svc, stateSvc, cfg.refresher))

	if cfg.metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.metricsHandler)
	}

	if cfg.proxyRelay != nil {
		// The relay parses the remainder of the path itself, so strip the
		// mount prefix before handing the request over.
		r.Mount("/proxy", http.StripPrefix("/proxy", cfg.proxyRelay))
	}

	return r
}

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logging.FromContext(r.Context()).V(1).Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
