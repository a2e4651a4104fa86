// ABOUTME: Shared-secret bearer token gate for the MCP HTTP transport.
// ABOUTME: Disabled when no secret is configured; compares tokens in constant time.

package auth

import (
	"crypto/subtle"
	"net/http"
	"regexp"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Header names accepted as credentials, checked in this order.
const (
	HeaderAuthorization = "Authorization"
	HeaderAPIKey        = "X-MCP-API-Key"
	HeaderChallenge     = "WWW-Authenticate"
)

// Messages reported in Result.Error.
const (
	MsgAuthRequired = "Authentication required"
	MsgInvalidToken = "Invalid or expired token"
)

const challengePrefix = `Bearer realm="MCP Server", error="invalid_token", error_description=`

var bearerPattern = regexp.MustCompile(`(?i)^Bearer\s+(.+)$`)

// Result is the outcome of checking one request.
type Result struct {
	Authenticated bool
	Error         string
	Headers       map[string]string
}

func allowed() Result {
	return Result{Authenticated: true, Headers: map[string]string{}}
}

func rejected(message, description string) Result {
	return Result{
		Error: message,
		Headers: map[string]string{
			HeaderChallenge: challengePrefix + `"` + description + `"`,
		},
	}
}

// Gate validates requests against a single shared secret. The secret is fixed
// at construction, so a Gate is safe for concurrent use.
type Gate struct {
	enabled bool
	digest  [blake2b.Size256]byte
}

// NewGate creates a gate for secret. An empty secret disables authentication.
func NewGate(secret string) *Gate {
	g := &Gate{enabled: secret != ""}
	if g.enabled {
		g.digest = blake2b.Sum256([]byte(secret))
	}
	return g
}

// IsEnabled reports whether a secret is configured.
func (g *Gate) IsEnabled() bool {
	return g.enabled
}

// Validate checks the request's credentials. It never fails: every outcome,
// including rejection, is described by the returned Result.
func (g *Gate) Validate(r *http.Request) Result {
	if !g.enabled {
		return allowed()
	}

	token, ok := extractToken(r.Header)
	if !ok {
		return rejected(MsgAuthRequired, "Bearer token required")
	}
	if !g.matches(token) {
		return rejected(MsgInvalidToken, "Invalid bearer token")
	}
	return allowed()
}

// matches compares fixed-size digests so neither the position of the first
// differing byte nor the candidate's length affects timing.
func (g *Gate) matches(token string) bool {
	candidate := blake2b.Sum256([]byte(token))
	return subtle.ConstantTimeCompare(candidate[:], g.digest[:]) == 1
}

// extractToken returns the bearer token from Authorization, falling back to
// X-MCP-API-Key. An Authorization header with another scheme is ignored.
func extractToken(h http.Header) (string, bool) {
	if authHeader := h.Get(HeaderAuthorization); authHeader != "" {
		if m := bearerPattern.FindStringSubmatch(authHeader); m != nil {
			return strings.TrimSpace(m[1]), true
		}
	}
	if values, ok := h[http.CanonicalHeaderKey(HeaderAPIKey)]; ok && len(values) > 0 {
		return strings.TrimSpace(values[0]), true
	}
	return "", false
}
