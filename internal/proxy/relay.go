package proxy

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/meridianmaps/catalog-server/internal/config"
	"github.com/meridianmaps/catalog-server/internal/logging"
)

// Relay is the HTTP handler behind rewritten URLs. It forwards GET and HEAD
// requests to the upstream URL embedded in the request path and stamps
// permissive CORS headers on the response.
//
// The handler expects to be mounted behind a prefix strip, so the remaining
// path is "_<duration>/<upstream URL>" with the duration segment optional.
type Relay struct {
	proxyAllDomains bool
	allowedHosts    hostSet
}

// NewRelay creates a relay enforcing the configured host allow-list.
func NewRelay(cfg *config.ProxyConfig) *Relay {
	relay := &Relay{}
	if cfg != nil {
		relay.proxyAllDomains = cfg.ProxyAllDomains
		relay.allowedHosts = newHostSet(cfg.AllowedHosts)
	}
	return relay
}

// ServeHTTP implements http.Handler
func (relay *Relay) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	logger := logging.FromContext(req.Context())

	switch req.Method {
	case http.MethodGet, http.MethodHead:
	case http.MethodOptions:
		setCORSHeaders(w.Header())
		w.WriteHeader(http.StatusNoContent)
		return
	default:
		http.Error(w, "only GET and HEAD requests can be proxied", http.StatusMethodNotAllowed)
		return
	}

	rest := strings.TrimPrefix(req.URL.Path, "/")

	var maxAge time.Duration
	if strings.HasPrefix(rest, "_") {
		segment, remainder, found := strings.Cut(rest, "/")
		if !found {
			http.Error(w, "missing target URL", http.StatusBadRequest)
			return
		}

		duration, err := parseCacheDuration(segment[1:])
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid cache duration %q", segment[1:]), http.StatusBadRequest)
			return
		}
		maxAge = duration
		rest = remainder
	}

	if rest == "" {
		http.Error(w, "missing target URL", http.StatusBadRequest)
		return
	}

	// The upstream URL keeps its own query string; it arrives split off into
	// this request's query component.
	target := rest
	if req.URL.RawQuery != "" {
		target += "?" + req.URL.RawQuery
	}

	targetURL, err := url.Parse(target)
	if err != nil || (targetURL.Scheme != "http" && targetURL.Scheme != "https") || targetURL.Hostname() == "" {
		http.Error(w, "target must be an absolute http or https URL", http.StatusBadRequest)
		return
	}

	if !relay.proxyAllDomains && !relay.allowedHosts.contains(targetURL.Hostname()) {
		http.Error(w, fmt.Sprintf("host %s is not on the proxy allow-list", targetURL.Hostname()), http.StatusForbidden)
		return
	}

	reverseProxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.Out.URL = targetURL
			pr.Out.Host = targetURL.Host
			// Client credentials never travel upstream
			pr.Out.Header.Del("Authorization")
			pr.Out.Header.Del("Cookie")
		},
		ModifyResponse: func(resp *http.Response) error {
			setCORSHeaders(resp.Header)
			if maxAge > 0 {
				resp.Header.Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(maxAge.Seconds())))
			}
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, _ *http.Request, err error) {
			logger.Error(err, "Proxy request failed", "target", targetURL.String())
			http.Error(w, "upstream request failed", http.StatusBadGateway)
		},
	}

	reverseProxy.ServeHTTP(w, req)
}

func setCORSHeaders(header http.Header) {
	header.Set("Access-Control-Allow-Origin", "*")
	header.Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
	header.Set("Access-Control-Allow-Headers", "Accept, Content-Type")
}

// parseCacheDuration parses compact duration literals like "90s", "30m",
// "2h", "1d", or "1w".
func parseCacheDuration(s string) (time.Duration, error) {
	if len(s) < 2 {
		return 0, fmt.Errorf("duration %q is too short", s)
	}

	value, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || value < 0 {
		return 0, fmt.Errorf("invalid duration value %q", s)
	}

	var unit time.Duration
	switch s[len(s)-1] {
	case 's':
		unit = time.Second
	case 'm':
		unit = time.Minute
	case 'h':
		unit = time.Hour
	case 'd':
		unit = 24 * time.Hour
	case 'w':
		unit = 7 * 24 * time.Hour
	default:
		return 0, fmt.Errorf("unknown duration unit %q", s[len(s)-1:])
	}

	return time.Duration(value) * unit, nil
}
