// Package auth provides bearer token authentication for the catalog API server.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/meridianmaps/catalog-server/internal/config"
	"github.com/meridianmaps/catalog-server/internal/logging"
)

// RFC 6750 Section 3 error codes
const (
	// errorCodeInvalidRequest indicates the request is missing a required parameter,
	// includes an unsupported parameter or parameter value, or is otherwise malformed.
	errorCodeInvalidRequest = "invalid_request"

	// errorCodeInvalidToken indicates the access token provided is expired, revoked,
	// malformed, or invalid for other reasons.
	errorCodeInvalidToken = "invalid_token"
)

// defaultRealm is the default protection space identifier
const defaultRealm = "mm-catalog"

// claimsContextKey is the context key under which validated claims are stored
type claimsContextKey struct{}

// WithClaims returns a context carrying the validated token claims.
func WithClaims(ctx context.Context, claims jwt.MapClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// ClaimsFromContext returns the claims stored by the middleware. In anonymous
// mode the claims identify the anonymous subject.
func ClaimsFromContext(ctx context.Context) (jwt.MapClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(jwt.MapClaims)
	return claims, ok
}

// NewMiddleware builds the authentication middleware from configuration.
// Anonymous mode (or a nil configuration) yields a middleware that admits
// every request and attaches anonymous claims; jwt mode validates HS256
// bearer tokens against the configured signing key.
func NewMiddleware(cfg *config.AuthConfig) (func(http.Handler) http.Handler, error) {
	if cfg == nil || cfg.Mode != config.AuthModeJWT {
		return anonymousMiddleware, nil
	}

	key, err := cfg.JWT.GetSigningKey()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve signing key: %w", err)
	}

	m := &jwtMiddleware{
		key:      []byte(key),
		issuer:   cfg.JWT.Issuer,
		audience: cfg.JWT.Audience,
		realm:    defaultRealm,
	}
	return m.Middleware, nil
}

// anonymousMiddleware admits every request with anonymous claims so
// downstream handlers can always rely on claims being present.
func anonymousMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := jwt.MapClaims{
			"sub":  "anonymous",
			"name": "Anonymous User",
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// jwtMiddleware validates HMAC-signed bearer tokens.
type jwtMiddleware struct {
	key      []byte
	issuer   string
	audience string
	realm    string
}

// Middleware returns an HTTP middleware function that performs authentication.
func (m *jwtMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.FromContext(r.Context())

		token, err := extractBearerToken(r)
		if err != nil {
			logger.V(1).Info("Token extraction failed",
				"error", err.Error(),
				"remoteAddr", r.RemoteAddr,
				"path", r.URL.Path)
			m.writeError(w, http.StatusUnauthorized, errorCodeInvalidRequest, "missing or malformed authorization header")
			return
		}

		claims, err := m.validateToken(token)
		if err != nil {
			logger.V(1).Info("Token validation failed",
				"error", err.Error(),
				"remoteAddr", r.RemoteAddr,
				"path", r.URL.Path)
			m.writeError(w, http.StatusUnauthorized, errorCodeInvalidToken, "token validation failed")
			return
		}

		logger.V(1).Info("Authentication successful",
			"subject", claims["sub"],
			"path", r.URL.Path)
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// validateToken parses and verifies the token signature and registered claims.
func (m *jwtMiddleware) validateToken(tokenString string) (jwt.MapClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
	}
	if m.audience != "" {
		opts = append(opts, jwt.WithAudience(m.audience))
	}

	claims := jwt.MapClaims{}
	if _, err := jwt.ParseWithClaims(tokenString, claims, m.keyFunc, opts...); err != nil {
		return nil, err
	}
	return claims, nil
}

func (m *jwtMiddleware) keyFunc(*jwt.Token) (any, error) {
	return m.key, nil
}

// extractBearerToken extracts the bearer token from the Authorization header.
func extractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errors.New("authorization header is missing")
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", errors.New("authorization header is not a bearer token")
	}
	return token, nil
}

// sanitizeHeaderValue removes characters that could enable header injection attacks.
// This includes newlines, carriage returns, and unescaped quotes.
func sanitizeHeaderValue(s string) string {
	// Fast path: no sanitization needed
	if !strings.ContainsAny(s, "\r\n\"") {
		return s
	}
	// Remove CR and LF to prevent header injection
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	// Escape quotes for use in quoted-string (RFC 7230)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

// writeError writes a JSON error response with RFC 6750 compliant WWW-Authenticate header.
// The errCode parameter should be one of the RFC 6750 error codes (invalid_request, invalid_token).
func (m *jwtMiddleware) writeError(w http.ResponseWriter, status int, errCode, description string) {
	w.Header().Set("Content-Type", "application/json")

	// Sanitize values to prevent header injection
	realm := sanitizeHeaderValue(m.realm)
	sanitizedDescription := sanitizeHeaderValue(description)

	// Build WWW-Authenticate header with error codes per RFC 6750 Section 3
	wwwAuth := fmt.Sprintf(`Bearer realm="%s", error="%s", error_description="%s"`,
		realm, errCode, sanitizedDescription)
	w.Header().Set("WWW-Authenticate", wwwAuth)
	w.WriteHeader(status)

	resp := struct {
		Error string `json:"error"`
	}{
		Error: description,
	}

	_ = json.NewEncoder(w).Encode(resp)
}
