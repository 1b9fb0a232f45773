package proxy

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianmaps/catalog-server/internal/config"
)

// newTestServer creates a new test server with keep-alives disabled.
// This prevents flaky tests when running in parallel, as closing a server
// with keep-alives enabled can affect other tests sharing the HTTP transport.
func newTestServer(handler http.Handler) *httptest.Server {
	server := httptest.NewServer(handler)
	server.Config.SetKeepAlivesEnabled(false)
	return server
}

// newRelayServer mounts a relay behind the /proxy/ prefix the way the API
// server does.
func newRelayServer(cfg *config.ProxyConfig) *httptest.Server {
	relay := NewRelay(cfg)
	server := httptest.NewServer(http.StripPrefix("/proxy/", relay))
	server.Config.SetKeepAlivesEnabled(false)
	return server
}

func TestRelayForwardsRequest(t *testing.T) {
	t.Parallel()

	var receivedPath string
	var receivedQuery url.Values
	var receivedAuth string

	upstream := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedPath = r.URL.Path
		receivedQuery = r.URL.Query()
		receivedAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"type":"FeatureCollection","features":[]}`))
	}))
	defer upstream.Close()

	relayServer := newRelayServer(&config.ProxyConfig{
		BaseURL:      "proxy/",
		AllowedHosts: []string{"127.0.0.1"},
	})
	defer relayServer.Close()

	target := upstream.URL + "/wfs?service=WFS&request=GetFeature"
	req, err := http.NewRequest(http.MethodGet, relayServer.URL+"/proxy/_30s/"+target, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer secret")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"type":"FeatureCollection","features":[]}`, string(body))
	assert.Equal(t, "/wfs", receivedPath)
	assert.Equal(t, "WFS", receivedQuery.Get("service"))
	assert.Equal(t, "GetFeature", receivedQuery.Get("request"))
	assert.Empty(t, receivedAuth, "credentials must not travel upstream")
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "public, max-age=30", resp.Header.Get("Cache-Control"))
}

func TestRelayWithoutDurationSegment(t *testing.T) {
	t.Parallel()

	upstream := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer upstream.Close()

	relayServer := newRelayServer(&config.ProxyConfig{BaseURL: "proxy/", ProxyAllDomains: true})
	defer relayServer.Close()

	resp, err := http.Get(relayServer.URL + "/proxy/" + upstream.URL + "/data")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Cache-Control"))
}

func TestRelayRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		cfg        *config.ProxyConfig
		path       string
		wantStatus int
	}{
		{
			name:       "host_not_allowed",
			cfg:        &config.ProxyConfig{BaseURL: "proxy/", AllowedHosts: []string{"example.org"}},
			path:       "/proxy/_1d/https://geo.example.com/wfs",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "invalid_cache_duration",
			cfg:        &config.ProxyConfig{BaseURL: "proxy/", ProxyAllDomains: true},
			path:       "/proxy/_soon/https://geo.example.org/wfs",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing_target",
			cfg:        &config.ProxyConfig{BaseURL: "proxy/", ProxyAllDomains: true},
			path:       "/proxy/_1d/",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "duration_with_no_target",
			cfg:        &config.ProxyConfig{BaseURL: "proxy/", ProxyAllDomains: true},
			path:       "/proxy/_1d",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "relative_target",
			cfg:        &config.ProxyConfig{BaseURL: "proxy/", ProxyAllDomains: true},
			path:       "/proxy/_1d/not-a-url",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unsupported_scheme",
			cfg:        &config.ProxyConfig{BaseURL: "proxy/", ProxyAllDomains: true},
			path:       "/proxy/_1d/ftp://example.org/file",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			relayServer := newRelayServer(tt.cfg)
			defer relayServer.Close()

			resp, err := http.Get(relayServer.URL + tt.path)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestRelayMethodHandling(t *testing.T) {
	t.Parallel()

	relayServer := newRelayServer(&config.ProxyConfig{BaseURL: "proxy/", ProxyAllDomains: true})
	// t.Cleanup rather than defer: the parallel subtests resume after this
	// function body returns, so a defer would close the server before they run.
	t.Cleanup(relayServer.Close)

	t.Run("post_not_allowed", func(t *testing.T) {
		t.Parallel()
		resp, err := http.Post(relayServer.URL+"/proxy/_1d/https://geo.example.org/wfs", "text/plain", nil)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})

	t.Run("options_preflight", func(t *testing.T) {
		t.Parallel()
		req, err := http.NewRequest(http.MethodOptions, relayServer.URL+"/proxy/_1d/https://geo.example.org/wfs", nil)
		require.NoError(t, err)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	})
}

func TestRelayUpstreamFailure(t *testing.T) {
	t.Parallel()

	// Point at a server that is already closed
	upstream := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	deadTarget := upstream.URL
	upstream.Close()

	relayServer := newRelayServer(&config.ProxyConfig{BaseURL: "proxy/", ProxyAllDomains: true})
	defer relayServer.Close()

	resp, err := http.Get(relayServer.URL + "/proxy/_1d/" + deadTarget + "/wfs")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestParseCacheDuration(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{name: "seconds", input: "90s", expected: 90 * time.Second},
		{name: "minutes", input: "30m", expected: 30 * time.Minute},
		{name: "hours", input: "2h", expected: 2 * time.Hour},
		{name: "days", input: "1d", expected: 24 * time.Hour},
		{name: "weeks", input: "1w", expected: 7 * 24 * time.Hour},
		{name: "empty", input: "", wantErr: true},
		{name: "no_unit", input: "90", wantErr: true},
		{name: "unknown_unit", input: "3y", wantErr: true},
		{name: "negative", input: "-1d", wantErr: true},
		{name: "not_a_number", input: "soond", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			duration, err := parseCacheDuration(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, duration)
		})
	}
}
