package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/meridianmaps/catalog-server/internal/logging"
)

// Telemetry owns the OpenTelemetry providers for the catalog server and is
// responsible for flushing them on shutdown.
type Telemetry struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider

	// prometheusHandler serves the scrape endpoint; nil when the
	// Prometheus bridge is disabled
	prometheusHandler http.Handler
}

// Option is a function that configures the telemetry setup
type Option func(*telemetryConfig)

// telemetryConfig holds the configuration for creating telemetry
type telemetryConfig struct {
	config *Config
}

// WithTelemetryConfig sets the telemetry configuration
func WithTelemetryConfig(cfg *Config) Option {
	return func(tc *telemetryConfig) {
		tc.config = cfg
	}
}

// New creates and initializes a new Telemetry instance based on the configuration.
// If telemetry is disabled or configuration is nil, returns a Telemetry with no-op providers.
// The caller is responsible for calling Shutdown when the application exits.
func New(ctx context.Context, opts ...Option) (*Telemetry, error) {
	logger := logging.FromContext(ctx)

	cfg := &telemetryConfig{}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.config == nil || !cfg.config.Enabled {
		logger.V(1).Info("Telemetry disabled")
		return newNoOpTelemetry(ctx)
	}

	if err := cfg.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry configuration: %w", err)
	}

	logger.Info("Initializing telemetry",
		"serviceName", cfg.config.GetServiceName(),
		"serviceVersion", cfg.config.GetServiceVersion(),
	)

	tracerProvider, err := NewTracerProvider(ctx,
		WithTracerServiceName(cfg.config.GetServiceName()),
		WithTracerServiceVersion(cfg.config.GetServiceVersion()),
		WithTracingConfig(cfg.config.Tracing),
		WithTracerEndpoint(cfg.config.GetEndpoint()),
		WithTracerInsecure(cfg.config.GetInsecure()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer provider: %w", err)
	}

	// Bridge to Prometheus when the scrape endpoint is requested: the
	// exporter is a pull-based reader attached to the same provider
	var prometheusHandler http.Handler
	var extraReaders []sdkmetric.Reader
	if cfg.config.Metrics.IsPrometheusEnabled() {
		registry := prometheus.NewRegistry()
		promExporter, promErr := otelprom.New(otelprom.WithRegisterer(registry))
		if promErr != nil {
			shutdownTracerProvider(ctx, tracerProvider)
			return nil, fmt.Errorf("failed to create Prometheus exporter: %w", promErr)
		}
		extraReaders = append(extraReaders, promExporter)
		prometheusHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
		logger.Info("Prometheus scrape endpoint enabled")
	}

	meterProvider, err := NewMeterProvider(ctx,
		WithMeterServiceName(cfg.config.GetServiceName()),
		WithMeterServiceVersion(cfg.config.GetServiceVersion()),
		WithMetricsConfig(cfg.config.Metrics),
		WithMeterEndpoint(cfg.config.GetEndpoint()),
		WithMeterInsecure(cfg.config.GetInsecure()),
		WithMeterReaders(extraReaders...),
	)
	if err != nil {
		shutdownTracerProvider(ctx, tracerProvider)
		return nil, fmt.Errorf("failed to create meter provider: %w", err)
	}

	logger.Info("Telemetry initialized successfully")

	return &Telemetry{
		tracerProvider:    tracerProvider,
		meterProvider:     meterProvider,
		prometheusHandler: prometheusHandler,
	}, nil
}

// newNoOpTelemetry creates a Telemetry instance with no-op providers
func newNoOpTelemetry(ctx context.Context) (*Telemetry, error) {
	tracerProvider, err := NewTracerProvider(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create no-op tracer provider: %w", err)
	}

	meterProvider, err := NewMeterProvider(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create no-op meter provider: %w", err)
	}

	return &Telemetry{
		tracerProvider: tracerProvider,
		meterProvider:  meterProvider,
	}, nil
}

func shutdownTracerProvider(ctx context.Context, tp trace.TracerProvider) {
	if shutdownable, ok := tp.(*sdktrace.TracerProvider); ok {
		_ = shutdownable.Shutdown(ctx)
	}
}

// TracerProvider returns the configured tracer provider
func (t *Telemetry) TracerProvider() trace.TracerProvider {
	return t.tracerProvider
}

// MeterProvider returns the configured meter provider
func (t *Telemetry) MeterProvider() metric.MeterProvider {
	return t.meterProvider
}

// PrometheusHandler returns the handler for the metrics scrape endpoint, or
// nil when the Prometheus bridge is disabled
func (t *Telemetry) PrometheusHandler() http.Handler {
	return t.prometheusHandler
}

// Tracer returns a named tracer from the tracer provider
func (t *Telemetry) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	return t.tracerProvider.Tracer(name, opts...)
}

// Meter returns a named meter from the meter provider
func (t *Telemetry) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	return t.meterProvider.Meter(name, opts...)
}

// Shutdown flushes and stops both providers, joining any errors. No-op
// providers have nothing to flush, so calling Shutdown on disabled telemetry
// is always safe, as is calling it more than once.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	logger.Info("Shutting down telemetry")

	var errs []error

	if tp, ok := t.tracerProvider.(*sdktrace.TracerProvider); ok {
		if err := tp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown tracer provider: %w", err))
		} else {
			logger.V(1).Info("Tracer provider shutdown complete")
		}
	}

	if mp, ok := t.meterProvider.(*sdkmetric.MeterProvider); ok {
		if err := mp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown meter provider: %w", err))
		} else {
			logger.V(1).Info("Meter provider shutdown complete")
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	logger.Info("Telemetry shutdown complete")
	return nil
}
