package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestNewMeterProvider(t *testing.T) {
	t.Parallel()

	t.Run("no config yields a no-op provider", func(t *testing.T) {
		t.Parallel()

		mp, err := NewMeterProvider(context.Background())
		require.NoError(t, err)

		_, ok := mp.(noop.MeterProvider)
		assert.True(t, ok, "expected the no-op meter provider")
	})

	t.Run("disabled metrics yield a no-op provider", func(t *testing.T) {
		t.Parallel()

		mp, err := NewMeterProvider(context.Background(),
			WithMetricsConfig(&MetricsConfig{Enabled: false}))
		require.NoError(t, err)

		_, ok := mp.(noop.MeterProvider)
		assert.True(t, ok, "expected the no-op meter provider")
	})

	t.Run("enabled metrics yield an SDK provider", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()

		mp, err := NewMeterProvider(ctx,
			WithMeterServiceName("mm-catalog-api"),
			WithMetricsConfig(&MetricsConfig{Enabled: true}),
			WithMeterInsecure(true),
		)
		require.NoError(t, err)

		sdkMP, ok := mp.(*sdkmetric.MeterProvider)
		require.True(t, ok, "expected an SDK meter provider")

		// Shutdown flushes to the OTLP endpoint, which is absent in tests,
		// so the error is ignored
		_ = sdkMP.Shutdown(ctx)
	})
}

func TestNewMeterProvider_ExtraReaders(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	reader := sdkmetric.NewManualReader()
	mp, err := NewMeterProvider(ctx,
		WithMetricsConfig(&MetricsConfig{Enabled: true}),
		WithMeterInsecure(true),
		WithMeterReaders(reader),
	)
	require.NoError(t, err)

	sdkMP, ok := mp.(*sdkmetric.MeterProvider)
	require.True(t, ok, "expected SDK meter provider")
	defer func() { _ = sdkMP.Shutdown(ctx) }()

	// Measurements recorded through the provider must reach the extra reader
	meter := mp.Meter("github.com/meridianmaps/catalog-server/test")
	counter, err := meter.Int64Counter("reader_check_total")
	require.NoError(t, err)
	counter.Add(ctx, 3)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.NotEmpty(t, rm.ScopeMetrics, "expected the extra reader to observe recorded metrics")
}

func TestMeterProviderOptions(t *testing.T) {
	t.Parallel()

	cfg := &meterProviderConfig{}
	for _, opt := range []MeterProviderOption{
		WithMeterServiceName("mm-catalog-api"),
		WithMeterServiceVersion("1.4.0"),
		WithMetricsConfig(&MetricsConfig{Enabled: true}),
		WithMeterEndpoint("otel-collector.gis.internal:4318"),
		WithMeterInsecure(true),
		WithMeterReaders(sdkmetric.NewManualReader(), sdkmetric.NewManualReader()),
	} {
		opt(cfg)
	}

	assert.Equal(t, "mm-catalog-api", cfg.serviceName)
	assert.Equal(t, "1.4.0", cfg.serviceVersion)
	require.NotNil(t, cfg.metricsConfig)
	assert.True(t, cfg.metricsConfig.Enabled)
	assert.Equal(t, "otel-collector.gis.internal:4318", cfg.endpoint)
	assert.True(t, cfg.insecure)
	assert.Len(t, cfg.extraReaders, 2)
}
