package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// newTestTracerProvider creates a tracer provider exporting synchronously to
// an in-memory exporter. The provider is shut down when the test completes.
func newTestTracerProvider(t *testing.T) (*tracetest.InMemoryExporter, *sdktrace.TracerProvider) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter, tp
}

// spanAttrs indexes a recorded span's attributes by key.
func spanAttrs(stub tracetest.SpanStub) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value, len(stub.Attributes))
	for _, kv := range stub.Attributes {
		out[kv.Key] = kv.Value
	}
	return out
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestTracingMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("nil provider passes requests through", func(t *testing.T) {
		t.Parallel()

		called := false
		wrapped := TracingMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			called = true
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte("created"))
		}))

		rr := httptest.NewRecorder()
		wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/refresh/localities", nil))

		assert.True(t, called)
		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, "created", rr.Body.String())
	})

	t.Run("records method, path, and user agent", func(t *testing.T) {
		t.Parallel()

		exporter, tp := newTestTracerProvider(t)

		r := chi.NewRouter()
		r.Use(TracingMiddleware(tp))
		r.Get("/api/v1/groups", okHandler().ServeHTTP)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/groups", nil)
		req.Header.Set("User-Agent", "layer-browser/2.3")
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)

		attrs := spanAttrs(spans[0])
		require.Contains(t, attrs, semconv.HTTPRequestMethodKey)
		assert.Equal(t, http.MethodGet, attrs[semconv.HTTPRequestMethodKey].AsString())
		assert.Equal(t, "/api/v1/groups", attrs[semconv.URLPathKey].AsString())
		assert.Equal(t, "layer-browser/2.3", attrs[semconv.UserAgentOriginalKey].AsString())
		assert.Equal(t, int64(http.StatusOK), attrs[semconv.HTTPResponseStatusCodeKey].AsInt64())
	})

	t.Run("renames the span to the routed pattern", func(t *testing.T) {
		t.Parallel()

		exporter, tp := newTestTracerProvider(t)

		r := chi.NewRouter()
		r.Use(TracingMiddleware(tp))
		r.Get("/api/v1/groups/{name}", okHandler().ServeHTTP)

		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/groups/nsw-flood-extents", nil))
		require.Equal(t, http.StatusOK, rr.Code)

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)

		// Span name and route attribute carry the pattern, not the path
		assert.Equal(t, "GET /api/v1/groups/{name}", spans[0].Name)
		attrs := spanAttrs(spans[0])
		require.Contains(t, attrs, semconv.HTTPRouteKey)
		assert.Equal(t, "/api/v1/groups/{name}", attrs[semconv.HTTPRouteKey].AsString())
	})

	t.Run("unrouted spans collapse to a constant name", func(t *testing.T) {
		t.Parallel()

		exporter, tp := newTestTracerProvider(t)

		// No chi router, so no route context is ever populated
		wrapped := TracingMiddleware(tp)(okHandler())

		rr := httptest.NewRecorder()
		wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/some/path", nil))

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, "GET unknown_route", spans[0].Name)

		attrs := spanAttrs(spans[0])
		assert.Equal(t, "unknown_route", attrs[semconv.HTTPRouteKey].AsString())
	})

	t.Run("skips probe endpoints", func(t *testing.T) {
		t.Parallel()

		for _, path := range []string{"/health", "/readiness"} {
			exporter, tp := newTestTracerProvider(t)

			called := false
			wrapped := TracingMiddleware(tp)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			}))

			rr := httptest.NewRecorder()
			wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))

			assert.True(t, called, "handler should still run for %s", path)
			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Empty(t, exporter.GetSpans(), "no span expected for %s", path)
		}
	})
}

func TestTracingMiddlewareStatusMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		statusCode int
		wantCode   codes.Code
		wantDesc   string
	}{
		{
			name:       "success maps to Ok",
			statusCode: http.StatusOK,
			wantCode:   codes.Ok,
		},
		{
			name:       "client error stays unset",
			statusCode: http.StatusNotFound,
			wantCode:   codes.Unset,
		},
		{
			name:       "server error maps to Error",
			statusCode: http.StatusBadGateway,
			wantCode:   codes.Error,
			wantDesc:   http.StatusText(http.StatusBadGateway),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			exporter, tp := newTestTracerProvider(t)
			wrapped := TracingMiddleware(tp)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.statusCode)
			}))

			rr := httptest.NewRecorder()
			wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/groups", nil))

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, tt.wantCode, spans[0].Status.Code)
			assert.Equal(t, tt.wantDesc, spans[0].Status.Description)

			attrs := spanAttrs(spans[0])
			assert.Equal(t, int64(tt.statusCode), attrs[semconv.HTTPResponseStatusCodeKey].AsInt64())
		})
	}
}

// Not parallel: installs the global propagator.
func TestTracingMiddlewareTraceparent(t *testing.T) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	exporter, tp := newTestTracerProvider(t)
	wrapped := TracingMiddleware(tp)(okHandler())

	// W3C traceparent: version-traceID-parentSpanID-flags
	traceID := "0af7651916cd43dd8448eb211c80319c"
	req := httptest.NewRequest(http.MethodGet, "/api/v1/groups", nil)
	req.Header.Set("traceparent", "00-"+traceID+"-b7ad6b7169203331-01")

	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, req)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, traceID, spans[0].SpanContext.TraceID().String(),
		"span should continue the caller's trace")
}

func TestTruncateUserAgent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "short agent unchanged", input: "layer-browser/2.3", want: "layer-browser/2.3"},
		{
			name:  "exactly the cap unchanged",
			input: strings.Repeat("x", MaxUserAgentLength),
			want:  strings.Repeat("x", MaxUserAgentLength),
		},
		{
			name:  "over the cap truncated",
			input: strings.Repeat("x", MaxUserAgentLength*2),
			want:  strings.Repeat("x", MaxUserAgentLength),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, truncateUserAgent(tt.input))
		})
	}
}
