// Package telemetry provides OpenTelemetry instrumentation for the catalog server.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// CatalogMetricsMeterName is the name used for the catalog metrics meter
	CatalogMetricsMeterName = "github.com/meridianmaps/catalog-server/catalog"

	// RefreshMetricsMeterName is the name used for the refresh metrics meter
	RefreshMetricsMeterName = "github.com/meridianmaps/catalog-server/refresh"
)

// CatalogMetrics holds the OpenTelemetry instruments for catalog metrics
type CatalogMetrics struct {
	membersLoaded   metric.Int64Gauge
	featuresSkipped metric.Int64Counter
}

// NewCatalogMetrics creates a new CatalogMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewCatalogMetrics(provider metric.MeterProvider) (*CatalogMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(CatalogMetricsMeterName)

	membersLoaded, err := meter.Int64Gauge(
		"mm_cat_srv_members_loaded",
		metric.WithDescription("Number of map layers served in each catalog group"),
		metric.WithUnit("{member}"),
	)
	if err != nil {
		return nil, err
	}

	featuresSkipped, err := meter.Int64Counter(
		"mm_cat_srv_features_skipped_total",
		metric.WithDescription("Total number of source features dropped by the denylist"),
		metric.WithUnit("{feature}"),
	)
	if err != nil {
		return nil, err
	}

	return &CatalogMetrics{
		membersLoaded:   membersLoaded,
		featuresSkipped: featuresSkipped,
	}, nil
}

// RecordMembersLoaded records the current number of members served in a group
func (m *CatalogMetrics) RecordMembersLoaded(ctx context.Context, groupName string, count int64) {
	if m == nil || m.membersLoaded == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("group", groupName),
	}

	m.membersLoaded.Record(ctx, count, metric.WithAttributes(attrs...))
}

// RecordFeaturesSkipped adds the number of features the denylist dropped
// during a load of a group
func (m *CatalogMetrics) RecordFeaturesSkipped(ctx context.Context, groupName string, count int64) {
	if m == nil || m.featuresSkipped == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("group", groupName),
	}

	m.featuresSkipped.Add(ctx, count, metric.WithAttributes(attrs...))
}

// RefreshMetrics holds the OpenTelemetry instruments for refresh operation metrics
type RefreshMetrics struct {
	refreshDuration metric.Float64Histogram
	refreshTotal    metric.Int64Counter
}

// NewRefreshMetrics creates a new RefreshMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewRefreshMetrics(provider metric.MeterProvider) (*RefreshMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(RefreshMetricsMeterName)

	refreshDuration, err := meter.Float64Histogram(
		"mm_cat_srv_refresh_duration_seconds",
		metric.WithDescription("Duration of group refresh operations in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300),
	)
	if err != nil {
		return nil, err
	}

	refreshTotal, err := meter.Int64Counter(
		"mm_cat_srv_refresh_total",
		metric.WithDescription("Total number of group refresh attempts"),
		metric.WithUnit("{refresh}"),
	)
	if err != nil {
		return nil, err
	}

	return &RefreshMetrics{
		refreshDuration: refreshDuration,
		refreshTotal:    refreshTotal,
	}, nil
}

// RecordRefreshDuration records the duration and outcome of a refresh
// operation for a group
func (m *RefreshMetrics) RecordRefreshDuration(ctx context.Context, groupName string, duration time.Duration, success bool) {
	if m == nil || m.refreshDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("group", groupName),
		attribute.Bool("success", success),
	}
	m.refreshDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))

	result := "success"
	if !success {
		result = "failure"
	}
	m.refreshTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("group", groupName),
		attribute.String("result", result),
	))
}
