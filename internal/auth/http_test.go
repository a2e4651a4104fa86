// ABOUTME: Tests for the 401 writer and the gate middleware
// ABOUTME: Uses httptest recorders to inspect headers and JSON bodies

package auth

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSendUnauthorized(t *testing.T) {
	rec := httptest.NewRecorder()
	SendUnauthorized(rec, MsgInvalidToken, map[string]string{
		HeaderChallenge: `Bearer realm="MCP Server"`,
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, `Bearer realm="MCP Server"`, rec.Header().Get("WWW-Authenticate"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, map[string]string{
		"error":   "Unauthorized",
		"message": MsgInvalidToken,
	}, body)
}

func TestMiddleware(t *testing.T) {
	called := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called++
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("rejects missing credentials", func(t *testing.T) {
		called = 0
		handler := NewGate(testSecret).Middleware(discardLogger())(next)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, 0, called)
		assert.Contains(t, rec.Header().Get("WWW-Authenticate"), `error_description="Bearer token required"`)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, MsgAuthRequired, body["message"])
	})

	t.Run("passes valid bearer", func(t *testing.T) {
		called = 0
		handler := NewGate(testSecret).Middleware(discardLogger())(next)
		req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
		req.Header.Set("Authorization", "Bearer "+testSecret)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, 1, called)
		assert.Empty(t, rec.Header().Get("WWW-Authenticate"))
	})

	t.Run("disabled gate passes everything", func(t *testing.T) {
		called = 0
		handler := NewGate("").Middleware(nil)(next)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mcp", nil))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, 1, called)
	})
}
