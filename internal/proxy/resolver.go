// Package proxy rewrites upstream request URLs through the server's CORS
// relay and serves the relay endpoint itself.
//
// Upstream geospatial servers frequently lack CORS headers, which blocks
// browser clients from fetching them directly. URLs for such hosts are
// rewritten to the form:
//
//	<baseUrl>_<duration>/<upstream URL>
//
// where the duration segment carries the cache lifetime the relay advertises
// on responses, e.g. "proxy/_1d/https://geo.example.org/wfs".
package proxy

import (
	"net/url"
	"strings"

	"github.com/meridianmaps/catalog-server/internal/config"
)

// Resolver decides whether an upstream URL must be fetched through the CORS
// relay and derives the rewritten URL.
type Resolver interface {
	// ShouldProxy reports whether requests for rawURL go through the relay
	ShouldProxy(rawURL string) bool

	// ProxiedURL rewrites rawURL through the relay with the configured
	// cache duration
	ProxiedURL(rawURL string) string
}

// hostSet matches hosts exactly or as subdomains of an entry.
type hostSet map[string]bool

func newHostSet(hosts []string) hostSet {
	set := make(hostSet, len(hosts))
	for _, host := range hosts {
		set[strings.ToLower(host)] = true
	}
	return set
}

func (s hostSet) contains(host string) bool {
	host = strings.ToLower(host)
	if s[host] {
		return true
	}
	for allowed := range s {
		if strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}

// defaultResolver implements Resolver from the server's proxy configuration
type defaultResolver struct {
	baseURL         string
	duration        string
	proxyAllDomains bool
	allowedHosts    hostSet
}

// NewResolver creates a resolver from the proxy configuration. A nil
// configuration yields a resolver that never proxies.
func NewResolver(cfg *config.ProxyConfig) Resolver {
	if cfg == nil {
		return &defaultResolver{}
	}

	return &defaultResolver{
		baseURL:         cfg.BaseURL,
		duration:        cfg.GetDuration(),
		proxyAllDomains: cfg.ProxyAllDomains,
		allowedHosts:    newHostSet(cfg.AllowedHosts),
	}
}

// ShouldProxy reports whether the host of rawURL is covered by the relay.
// URLs without a resolvable host are never proxied.
func (r *defaultResolver) ShouldProxy(rawURL string) bool {
	if r.baseURL == "" {
		return false
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return false
	}

	if r.proxyAllDomains {
		return true
	}
	return r.allowedHosts.contains(u.Hostname())
}

// ProxiedURL prefixes rawURL with the relay base and cache duration segment.
// The upstream URL is embedded literally, not percent-encoded.
func (r *defaultResolver) ProxiedURL(rawURL string) string {
	base := r.baseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + "_" + r.duration + "/" + rawURL
}
