package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/meridianmaps/catalog-server/internal/logging"
)

const (
	// DefaultMetricsInterval is how often the periodic reader pushes to the collector.
	DefaultMetricsInterval = 60 * time.Second
)

// MeterProviderOption configures NewMeterProvider.
type MeterProviderOption func(*meterProviderConfig)

// meterProviderConfig collects the settings the options apply.
type meterProviderConfig struct {
	serviceName    string
	serviceVersion string
	metricsConfig  *MetricsConfig
	endpoint       string
	insecure       bool
	extraReaders   []sdkmetric.Reader
}

// WithMeterServiceName names the service in exported metrics.
func WithMeterServiceName(name string) MeterProviderOption {
	return func(cfg *meterProviderConfig) {
		cfg.serviceName = name
	}
}

// WithMeterServiceVersion records the service version in exported metrics.
func WithMeterServiceVersion(version string) MeterProviderOption {
	return func(cfg *meterProviderConfig) {
		cfg.serviceVersion = version
	}
}

// WithMetricsConfig supplies the metrics section of the telemetry config.
func WithMetricsConfig(mc *MetricsConfig) MeterProviderOption {
	return func(cfg *meterProviderConfig) {
		cfg.metricsConfig = mc
	}
}

// WithMeterEndpoint points the exporter at an OTLP collector.
func WithMeterEndpoint(endpoint string) MeterProviderOption {
	return func(cfg *meterProviderConfig) {
		cfg.endpoint = endpoint
	}
}

// WithMeterInsecure allows plain-HTTP export to the collector.
func WithMeterInsecure(insecure bool) MeterProviderOption {
	return func(cfg *meterProviderConfig) {
		cfg.insecure = insecure
	}
}

// WithMeterReaders attaches additional metric readers to the provider, such
// as a Prometheus exporter serving the scrape endpoint
func WithMeterReaders(readers ...sdkmetric.Reader) MeterProviderOption {
	return func(cfg *meterProviderConfig) {
		cfg.extraReaders = append(cfg.extraReaders, readers...)
	}
}

// NewMeterProvider builds a MeterProvider exporting over OTLP on a periodic
// reader, or a no-op provider when metrics are disabled. SDK providers must
// be shut down by the caller.
func NewMeterProvider(ctx context.Context, opts ...MeterProviderOption) (metric.MeterProvider, error) {
	logger := logging.FromContext(ctx)

	cfg := &meterProviderConfig{
		serviceName:    DefaultServiceName,
		serviceVersion: "unknown",
		endpoint:       DefaultEndpoint,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.metricsConfig == nil || !cfg.metricsConfig.Enabled {
		logger.V(1).Info("Metrics disabled, using no-op meter provider")
		return noop.NewMeterProvider(), nil
	}

	res, err := newResource(ctx, cfg.serviceName, cfg.serviceVersion)
	if err != nil {
		return nil, err
	}

	exporterOpts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.endpoint)}
	if cfg.insecure {
		exporterOpts = append(exporterOpts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
	}

	// Create meter provider with periodic reader, followed by any extra
	// readers (a Prometheus exporter gathers on scrape instead)
	providerOpts := []sdkmetric.Option{
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(
				exporter,
				sdkmetric.WithInterval(DefaultMetricsInterval),
			),
		),
	}
	for _, reader := range cfg.extraReaders {
		providerOpts = append(providerOpts, sdkmetric.WithReader(reader))
	}

	mp := sdkmetric.NewMeterProvider(providerOpts...)

	// Install globally so instrumented libraries pick the provider up
	otel.SetMeterProvider(mp)

	logger.Info("Metrics initialized",
		"endpoint", cfg.endpoint,
		"insecure", cfg.insecure,
		"extraReaders", len(cfg.extraReaders),
	)

	return mp, nil
}
