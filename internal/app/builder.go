package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/meridianmaps/catalog-server/internal/api"
	"github.com/meridianmaps/catalog-server/internal/auth"
	"github.com/meridianmaps/catalog-server/internal/config"
	"github.com/meridianmaps/catalog-server/internal/httpclient"
	"github.com/meridianmaps/catalog-server/internal/logging"
	"github.com/meridianmaps/catalog-server/internal/proxy"
	"github.com/meridianmaps/catalog-server/internal/service"
	"github.com/meridianmaps/catalog-server/internal/service/inmemory"
	"github.com/meridianmaps/catalog-server/internal/sources"
	"github.com/meridianmaps/catalog-server/internal/status"
	pkgsync "github.com/meridianmaps/catalog-server/internal/sync"
	"github.com/meridianmaps/catalog-server/internal/sync/coordinator"
	"github.com/meridianmaps/catalog-server/internal/sync/state"
	"github.com/meridianmaps/catalog-server/internal/sync/writer"
	"github.com/meridianmaps/catalog-server/internal/telemetry"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultReadTimeout    = 10 * time.Second
	defaultWriteTimeout   = 15 * time.Second
	defaultIdleTimeout    = 60 * time.Second

	// defaultFetchTimeout bounds a single upstream request made by a
	// source handler during a group load
	defaultFetchTimeout = 30 * time.Second
)

// defaultPublicPaths are paths that never require authentication
var defaultPublicPaths = []string{"/health", "/readiness", "/version", "/metrics"}

// CatalogAppOptions is a function that configures the catalog app builder
type CatalogAppOptions func(*catalogAppConfig) error

// catalogAppConfig collects everything NewCatalogApp needs before wiring the
// components together. It supports dependency injection for testing while
// providing sensible defaults for production.
type catalogAppConfig struct {
	config *config.Config

	// Optional component overrides (primarily for testing)
	sourceHandlerFactory sources.SourceHandlerFactory
	syncManager          pkgsync.Manager
	storageManager       sources.StorageManager
	statusPersistence    status.StatusPersistence
	authMiddleware       func(http.Handler) http.Handler

	// HTTP server options; empty address falls back to the configured
	// listener address
	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration

	// Data directory override; empty falls back to the configured storage
	// location
	dataDir string

	// Telemetry components (nil disables metrics and tracing)
	telemetry *telemetry.Telemetry
}

func baseConfig(opts ...CatalogAppOptions) (*catalogAppConfig, error) {
	cfg := &catalogAppConfig{
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// NewCatalogApp builds a runnable CatalogApp from the given options.
// Components are wired bottom-up: snapshot storage, then the catalog service
// (warm-restored from the snapshot when one exists), then the refresh
// pipeline, and finally the HTTP server.
func NewCatalogApp(
	ctx context.Context,
	opts ...CatalogAppOptions,
) (*CatalogApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}
	if cfg.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	if cfg.dataDir == "" {
		cfg.dataDir = cfg.config.Storage.GetDataDir()
	}
	if cfg.storageManager == nil {
		cfg.storageManager = sources.NewFileStorageManager(cfg.dataDir)
	}

	// Build the catalog service, warm-restoring from a snapshot if one
	// survives from a previous run
	catalogService, warmRestored := buildServiceComponents(ctx, cfg)

	// The state service caches load statuses in memory, so the coordinator
	// (which writes them) and the API (which reads them) must share one
	// instance
	if cfg.statusPersistence == nil {
		cfg.statusPersistence = status.NewFileStatusPersistence(cfg.dataDir)
	}
	stateService := state.NewFileStateService(cfg.statusPersistence)

	// Build refresh components on top of the service
	syncCoordinator, err := buildSyncComponents(ctx, cfg, catalogService, stateService, warmRestored)
	if err != nil {
		return nil, fmt.Errorf("failed to build refresh components: %w", err)
	}

	// Build auth middleware (if not injected)
	if cfg.authMiddleware == nil {
		cfg.authMiddleware, err = auth.NewMiddleware(cfg.config.Auth)
		if err != nil {
			return nil, fmt.Errorf("failed to build auth middleware: %w", err)
		}
	}

	// Build HTTP server
	httpServer, err := buildHTTPServer(ctx, cfg, catalogService, stateService, syncCoordinator)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	// Create application context
	appCtx, cancel := context.WithCancel(ctx)

	// Request contexts inherit the application context so handlers reach
	// the process logger through r.Context()
	httpServer.BaseContext = func(net.Listener) context.Context { return appCtx }

	return &CatalogApp{
		config: cfg.config,
		components: &AppComponents{
			SyncCoordinator: syncCoordinator,
			CatalogService:  catalogService,
		},
		httpServer: httpServer,
		ctx:        appCtx,
		cancelFunc: cancel,
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) CatalogAppOptions {
	return func(cfg *catalogAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress overrides the HTTP listen address from the configuration
func WithAddress(addr string) CatalogAppOptions {
	return func(cfg *catalogAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		parts := strings.SplitN(addr, ":", 2)
		if len(parts) != 2 {
			return fmt.Errorf("address is not a valid host:port: %s", addr)
		}
		host := parts[0]
		port := parts[1]

		if port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares sets custom HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) CatalogAppOptions {
	return func(cfg *catalogAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithDataDirectory overrides the directory for snapshot and status files
func WithDataDirectory(dir string) CatalogAppOptions {
	return func(cfg *catalogAppConfig) error {
		cfg.dataDir = dir
		return nil
	}
}

// WithSourceHandlerFactory allows injecting a custom source handler factory (for testing)
func WithSourceHandlerFactory(f sources.SourceHandlerFactory) CatalogAppOptions {
	return func(cfg *catalogAppConfig) error {
		cfg.sourceHandlerFactory = f
		return nil
	}
}

// WithSyncManager allows injecting a custom refresh manager (for testing)
func WithSyncManager(sm pkgsync.Manager) CatalogAppOptions {
	return func(cfg *catalogAppConfig) error {
		cfg.syncManager = sm
		return nil
	}
}

// WithStorageManager allows injecting a custom snapshot storage manager (for testing)
func WithStorageManager(sm sources.StorageManager) CatalogAppOptions {
	return func(cfg *catalogAppConfig) error {
		cfg.storageManager = sm
		return nil
	}
}

// WithStatusPersistence allows injecting a custom status persistence layer (for testing)
func WithStatusPersistence(sp status.StatusPersistence) CatalogAppOptions {
	return func(cfg *catalogAppConfig) error {
		cfg.statusPersistence = sp
		return nil
	}
}

// WithAuthMiddleware allows injecting a custom auth middleware (for testing)
func WithAuthMiddleware(mw func(http.Handler) http.Handler) CatalogAppOptions {
	return func(cfg *catalogAppConfig) error {
		cfg.authMiddleware = mw
		return nil
	}
}

// WithTelemetry sets the telemetry providers for metrics and tracing.
// The caller keeps ownership and is responsible for shutdown.
func WithTelemetry(tel *telemetry.Telemetry) CatalogAppOptions {
	return func(cfg *catalogAppConfig) error {
		cfg.telemetry = tel
		return nil
	}
}

// buildServiceComponents builds the catalog service, warm-restoring from the
// stored snapshot when one exists. The returned bool reports whether the
// restore happened; a cold start resets any stored Ready statuses so every
// group loads again.
func buildServiceComponents(
	ctx context.Context,
	b *catalogAppConfig,
) (service.CatalogService, bool) {
	logger := logging.FromContext(ctx)

	snapshot, err := b.storageManager.Get(ctx)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("No catalog snapshot found, starting cold", "dataDir", b.dataDir)
		} else {
			// A corrupt or locked snapshot is not fatal; the groups
			// reload from their sources as if starting fresh
			logger.Error(err, "Failed to restore catalog snapshot, starting cold")
		}
		return inmemory.New(b.config.GetCatalogName()), false
	}

	logger.Info("Catalog restored from snapshot",
		"catalog", snapshot.Name,
		"groups", len(snapshot.Groups),
		"lastUpdated", snapshot.LastUpdated,
	)
	return inmemory.NewFromSnapshot(snapshot), true
}

// buildSyncComponents builds the refresh manager, coordinator, and the
// source-fetching stack underneath them
func buildSyncComponents(
	ctx context.Context,
	b *catalogAppConfig,
	catalogService service.CatalogService,
	stateService state.GroupStateService,
	warmRestored bool,
) (coordinator.Coordinator, error) {
	logger := logging.FromContext(ctx)
	logger.V(1).Info("Initializing refresh components")

	// Build source handler factory (shared fetch client and proxy resolver)
	if b.sourceHandlerFactory == nil {
		fetchClient := httpclient.NewDefaultClient(defaultFetchTimeout)
		resolver := proxy.NewResolver(b.config.Proxy)
		b.sourceHandlerFactory = sources.NewSourceHandlerFactory(fetchClient, resolver, b.config.Support)
	}

	// Build refresh manager writing into the service and the snapshot store
	if b.syncManager == nil {
		catalogWriter := writer.NewServiceWriter(catalogService, b.storageManager)
		b.syncManager = pkgsync.NewDefaultRefreshManager(
			b.sourceHandlerFactory,
			catalogWriter,
			b.config.RefreshPolicy,
		)
	}

	// Create coordinator options for metrics and tracing
	var coordOpts []coordinator.Option
	if b.telemetry != nil {
		refreshMetrics, err := telemetry.NewRefreshMetrics(b.telemetry.MeterProvider())
		if err != nil {
			return nil, fmt.Errorf("failed to create refresh metrics: %w", err)
		}
		if refreshMetrics != nil {
			coordOpts = append(coordOpts, coordinator.WithRefreshMetrics(refreshMetrics))
			logger.V(1).Info("Refresh metrics enabled")
		}

		catalogMetrics, err := telemetry.NewCatalogMetrics(b.telemetry.MeterProvider())
		if err != nil {
			return nil, fmt.Errorf("failed to create catalog metrics: %w", err)
		}
		if catalogMetrics != nil {
			coordOpts = append(coordOpts, coordinator.WithCatalogMetrics(catalogMetrics))
			logger.V(1).Info("Catalog metrics enabled")
		}

		coordOpts = append(coordOpts, coordinator.WithTracer(b.telemetry.Tracer("catalog-refresh")))
	}

	syncCoordinator := coordinator.New(b.syncManager, stateService, b.config, warmRestored, coordOpts...)
	logger.V(1).Info("Refresh components initialized")

	return syncCoordinator, nil
}

// buildHTTPServer builds the HTTP server with router and middleware
func buildHTTPServer(
	ctx context.Context,
	b *catalogAppConfig,
	svc service.CatalogService,
	stateService state.GroupStateService,
	syncCoordinator coordinator.Coordinator,
) (*http.Server, error) {
	logger := logging.FromContext(ctx)
	logger.V(1).Info("Initializing HTTP server")

	// Use default middlewares if not provided
	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	// Add observability middlewares if telemetry is configured.
	// Prepended so they capture all requests including those rejected by auth.
	if b.telemetry != nil {
		metricsMiddleware, err := telemetry.MetricsMiddleware(b.telemetry.MeterProvider())
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
		}
		tracingMiddleware := telemetry.TracingMiddleware(b.telemetry.TracerProvider())
		b.middlewares = append(
			[]func(http.Handler) http.Handler{metricsMiddleware, tracingMiddleware},
			b.middlewares...,
		)
		logger.V(1).Info("HTTP observability middlewares enabled")
	}

	// Create auth middleware that bypasses public paths
	publicPaths := defaultPublicPaths
	if b.config.Auth != nil && len(b.config.Auth.PublicPaths) > 0 {
		publicPaths = append(publicPaths, b.config.Auth.PublicPaths...)
	}
	authMw := auth.WrapWithPublicPaths(b.authMiddleware, publicPaths)
	b.middlewares = append(b.middlewares, authMw)

	serverOpts := []api.ServerOption{
		api.WithMiddlewares(b.middlewares...),
		api.WithRefresher(syncCoordinator),
	}
	if b.config.Proxy != nil {
		serverOpts = append(serverOpts, api.WithProxyRelay(proxy.NewRelay(b.config.Proxy)))
		logger.V(1).Info("Proxy relay enabled", "baseUrl", b.config.Proxy.BaseURL)
	}
	if b.telemetry != nil && b.telemetry.PrometheusHandler() != nil {
		serverOpts = append(serverOpts, api.WithMetricsHandler(b.telemetry.PrometheusHandler()))
		logger.V(1).Info("Prometheus scrape endpoint enabled")
	}

	router := api.NewServer(svc, stateService, serverOpts...)

	address := b.address
	if address == "" {
		address = b.config.Server.GetAddress()
	}

	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	logger.V(1).Info("HTTP server configured", "address", address)
	return server, nil
}
