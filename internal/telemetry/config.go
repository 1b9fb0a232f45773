// Package telemetry provides OpenTelemetry instrumentation for the catalog server.
// It supports configurable tracing and metrics with OTLP exporters, plus an
// optional Prometheus scrape endpoint.
package telemetry

import (
	"errors"
	"fmt"
)

const (
	// DefaultServiceName identifies this service to the collector when the
	// configuration does not name one.
	DefaultServiceName = "mm-catalog-api"

	// DefaultEndpoint is where an OTLP collector listens by default.
	DefaultEndpoint = "localhost:4318"

	// DefaultSampling keeps 5% of traces, enough to watch refresh behavior
	// without flooding the collector on busy catalogs.
	DefaultSampling = 0.05
)

// Config is the root telemetry configuration. The zero value disables
// telemetry entirely; tracing and metrics are opted into individually.
type Config struct {
	// Enabled is the global switch. When false no providers are built and
	// the per-signal sections are ignored.
	Enabled bool `yaml:"enabled"`

	// ServiceName overrides the service.name resource attribute.
	ServiceName string `yaml:"serviceName,omitempty"`

	// ServiceVersion overrides the service.version resource attribute.
	// The application version is used when empty.
	ServiceVersion string `yaml:"serviceVersion,omitempty"`

	// Endpoint is the OTLP collector address as "host:port". The exporter
	// appends the /v1/traces and /v1/metrics paths itself.
	Endpoint string `yaml:"endpoint,omitempty"`

	// Insecure sends OTLP over plain HTTP. Meant for local collectors only.
	Insecure bool `yaml:"insecure,omitempty"`

	// Tracing holds the trace-signal settings.
	Tracing *TracingConfig `yaml:"tracing,omitempty"`

	// Metrics holds the metric-signal settings.
	Metrics *MetricsConfig `yaml:"metrics,omitempty"`
}

// TracingConfig selects whether and how densely traces are sampled.
type TracingConfig struct {
	// Enabled turns the trace signal on. Ignored when telemetry is
	// disabled globally.
	Enabled bool `yaml:"enabled"`

	// Sampling is the fraction of traces to keep, in (0.0, 1.0]. A nil
	// pointer means unset and falls back to DefaultSampling; a plain
	// float64 could not tell an explicit 0 from an omitted key.
	Sampling *float64 `yaml:"sampling,omitempty"`
}

// MetricsConfig selects how metrics leave the process.
type MetricsConfig struct {
	// Enabled turns the metric signal on. Ignored when telemetry is
	// disabled globally.
	Enabled bool `yaml:"enabled"`

	// Prometheus additionally exposes the collected metrics on the
	// server's /metrics endpoint for scraping.
	Prometheus bool `yaml:"prometheus,omitempty"`
}

// GetServiceName returns the configured service name or DefaultServiceName.
func (c *Config) GetServiceName() string {
	if c.ServiceName == "" {
		return DefaultServiceName
	}
	return c.ServiceName
}

// GetServiceVersion returns the configured service version, or "unknown"
// when the build did not stamp one.
func (c *Config) GetServiceVersion() string {
	if c.ServiceVersion == "" {
		return "unknown"
	}
	return c.ServiceVersion
}

// GetEndpoint returns the configured collector endpoint or DefaultEndpoint.
func (c *Config) GetEndpoint() string {
	if c.Endpoint == "" {
		return DefaultEndpoint
	}
	return c.Endpoint
}

// GetInsecure reports whether OTLP should use plain HTTP.
func (c *Config) GetInsecure() bool {
	return c.Insecure
}

// IsPrometheusEnabled reports whether the Prometheus scrape endpoint should
// be served. It is nil-safe and requires metrics to be enabled.
func (c *MetricsConfig) IsPrometheusEnabled() bool {
	return c != nil && c.Enabled && c.Prometheus
}

// GetSampling returns the sampling ratio, using the default when unset.
// Validation should be performed before calling this method.
func (c *TracingConfig) GetSampling() float64 {
	if c.Sampling == nil {
		return DefaultSampling
	}
	return *c.Sampling
}

// Validate checks the telemetry configuration. A nil or disabled
// configuration is always valid.
func (c *Config) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}

	var errs []error

	if c.Tracing != nil {
		if err := c.Tracing.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("tracing: %w", err))
		}
	}

	if c.Metrics != nil {
		if err := c.Metrics.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("metrics: %w", err))
		}
	}

	return errors.Join(errs...)
}

// Validate checks the tracing configuration.
func (c *TracingConfig) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}

	if c.Sampling != nil {
		sampling := *c.Sampling
		if sampling <= 0 || sampling > 1.0 {
			return fmt.Errorf("sampling must be greater than 0.0 and at most 1.0, got %f", sampling)
		}
	}

	return nil
}

// Validate checks the metrics configuration.
func (c *MetricsConfig) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}

	// Prometheus needs no collector settings of its own; the scrape
	// endpoint rides on the API listener.
	return nil
}
