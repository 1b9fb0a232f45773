package telemetry

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	// TracerName is the name used for the HTTP tracer
	TracerName = "github.com/meridianmaps/catalog-server/http"

	// MaxUserAgentLength caps the recorded User-Agent attribute.
	// Some clients send very long strings and span attributes should stay bounded.
	MaxUserAgentLength = 256
)

// lowValueEndpoints lists paths that are excluded from tracing.
// Probes hit these every few seconds and would dominate the exported spans.
var lowValueEndpoints = map[string]struct{}{
	"/health":    {},
	"/readiness": {},
}

// TracingMiddleware traces each request as a server span, honoring W3C
// Trace Context headers from the caller. A nil provider yields a
// pass-through middleware.
func TracingMiddleware(provider trace.TracerProvider) func(http.Handler) http.Handler {
	if provider == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	tracer := provider.Tracer(TracerName)
	propagator := otel.GetTextMapPropagator()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, skip := lowValueEndpoints[r.URL.Path]; skip {
				next.ServeHTTP(w, r)
				return
			}

			ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			// The route pattern is only known after chi routes the request,
			// so start with the raw path and rename the span afterwards
			ctx, span := tracer.Start(ctx, fmt.Sprintf("%s %s", r.Method, r.URL.Path),
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.URLPath(r.URL.Path),
					semconv.UserAgentOriginal(truncateUserAgent(r.UserAgent())),
				),
			)
			defer span.End()

			next.ServeHTTP(ww, r.WithContext(ctx))

			finishSpan(span, r, ww.Status())
		})
	}
}

// finishSpan renames the span to the routed pattern and records the outcome.
func finishSpan(span trace.Span, r *http.Request, statusCode int) {
	// Renaming to the pattern keeps span names bounded the same way the
	// metrics route label is
	pattern := routePattern(r)
	span.SetName(fmt.Sprintf("%s %s", r.Method, pattern))
	span.SetAttributes(
		semconv.HTTPRouteKey.String(pattern),
		semconv.HTTPResponseStatusCode(statusCode),
	)

	// Only server errors mark the span as failed. A 404 is a correct
	// answer from the server's point of view, so 4xx stays unset.
	switch {
	case statusCode >= 500:
		span.SetStatus(codes.Error, http.StatusText(statusCode))
	case statusCode >= 200 && statusCode < 300:
		span.SetStatus(codes.Ok, "")
	}
}

// truncateUserAgent bounds the User-Agent string recorded on spans.
func truncateUserAgent(ua string) string {
	if len(ua) > MaxUserAgentLength {
		return ua[:MaxUserAgentLength]
	}
	return ua
}
