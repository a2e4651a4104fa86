// ABOUTME: HTTP middleware applying the bearer gate to MCP endpoints
// ABOUTME: Writes the 401 challenge response when a request is rejected

package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// unauthorizedBody is the JSON body of a 401 response.
type unauthorizedBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// SendUnauthorized writes a 401 with every challenge header and a JSON body
// {"error":"Unauthorized","message":message}.
func SendUnauthorized(w http.ResponseWriter, message string, headers map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	for name, value := range headers {
		w.Header().Set(name, value)
	}
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(unauthorizedBody{
		Error:   "Unauthorized",
		Message: message,
	})
}

// Middleware rejects requests that fail g.Validate. When the gate is disabled
// every request passes through untouched.
func (g *Gate) Middleware(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result := g.Validate(r)
			if !result.Authenticated {
				logger.Warn("rejected unauthenticated request",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"reason", result.Error,
				)
				SendUnauthorized(w, result.Error, result.Headers)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
