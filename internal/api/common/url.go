// Package common provides shared HTTP utility functions for API handlers.
package common

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
)

// GetAndValidateURLParam extracts, decodes, and validates a URL parameter
// from the request. The decoded value must be non-empty and free of
// whitespace and path separators, encoded or otherwise.
func GetAndValidateURLParam(r *http.Request, paramName string) (string, error) {
	encodedValue := chi.URLParam(r, paramName)

	decoded, err := url.PathUnescape(encodedValue)
	if err != nil {
		return "", fmt.Errorf("invalid URL encoding in %s", paramName)
	}

	if strings.TrimSpace(decoded) == "" {
		return "", fmt.Errorf("%s cannot be empty", paramName)
	}

	if strings.ContainsAny(decoded, " \t\n\r") {
		return "", fmt.Errorf("%s cannot contain whitespace", paramName)
	}

	// Group names never contain separators, so an encoded slash that survived
	// routing is a traversal attempt rather than a valid lookup.
	if strings.ContainsAny(decoded, `/\`) {
		return "", fmt.Errorf("%s cannot contain path separators", paramName)
	}

	return decoded, nil
}
