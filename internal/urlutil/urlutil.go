// Package urlutil provides URL helpers shared by the catalog sources and the
// CORS proxy.
package urlutil

import (
	"net/url"
	"strings"
)

// CleanURL strips any query string from rawURL. Cleaning an already-clean URL
// is a no-op, and a URL that cannot be parsed is returned unchanged.
func CleanURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	u.RawQuery = ""
	u.ForceQuery = false
	return u.String()
}

// EscapeQueryComponent percent-encodes a single query parameter value,
// encoding spaces as %20 rather than '+'.
func EscapeQueryComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
