// Package otel provides OpenTelemetry instrumentation utilities for the catalog server.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys shared by every instrumented operation, so the same
// dimension carries the same name in every span.
const (
	AttrCatalogName   = attribute.Key("catalog.name")
	AttrGroupName     = attribute.Key("catalog.group.name")
	AttrSourceType    = attribute.Key("catalog.group.source_type")
	AttrRefreshReason = attribute.Key("catalog.refresh.reason")
	AttrMemberCount   = attribute.Key("catalog.load.member_count")
	AttrSkippedCount  = attribute.Key("catalog.load.skipped_count")
)

// StartSpan starts a span on the given tracer. A nil tracer means tracing is
// disabled; the current span is returned unchanged so callers never need a
// nil check of their own.
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError marks the span as failed and attaches the error as an event.
// Nil spans and nil errors are ignored. The status description stays generic
// to keep upstream URLs and response fragments out of the trace status; the
// full error text is still on the event.
func RecordError(span trace.Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation failed")
	}
}
