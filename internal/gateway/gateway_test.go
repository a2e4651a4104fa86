// ABOUTME: Tests for the Gateway orchestrator
// ABOUTME: Exercises health endpoints, MCP over HTTP and stdio, and configured content types

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/cms-mcp/internal/config"
	"github.com/2389/cms-mcp/internal/mcp"
)

// testConfig creates a minimal config with a database in a temp directory.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{
			HTTPAddr:        "127.0.0.1:0",
			Path:            "/mcp",
			ShutdownTimeout: 5 * time.Second,
		},
		Database: config.DatabaseConfig{
			Path: filepath.Join(t.TempDir(), "cms.db"),
		},
		Site: config.SiteConfig{Name: "Gateway Test", URL: "https://gw.test"},
	}
}

// testLogger creates a silent logger for tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newGateway(t *testing.T, cfg *config.Config) *Gateway {
	t.Helper()
	gw, err := New(t.Context(), cfg, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() {
		gw.mcpServer.Close()
		_ = gw.store.Close()
	})
	return gw
}

func TestGatewayNew(t *testing.T) {
	gw := newGateway(t, testConfig(t))

	assert.NotNil(t, gw.mcpServer)
	assert.NotNil(t, gw.executor)
	assert.False(t, gw.executor.SafeMode())
	assert.Len(t, gw.Registry().ListTools(), 17)
}

func TestGatewayNew_SafeMode(t *testing.T) {
	cfg := testConfig(t)
	cfg.SafeMode = true

	gw := newGateway(t, cfg)
	assert.True(t, gw.executor.SafeMode())
}

func TestGatewayNew_StoreError(t *testing.T) {
	cfg := testConfig(t)
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, writeFile(blocker))
	cfg.Database.Path = filepath.Join(blocker, "nested", "cms.db")

	_, err := New(t.Context(), cfg, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "initializing store")
}

func TestGatewayNew_DBPathFromEnv(t *testing.T) {
	envPath := filepath.Join(t.TempDir(), "env.db")
	t.Setenv("CMS_MCP_DB_PATH", envPath)

	gw := newGateway(t, testConfig(t))
	version, err := gw.store.Version(t.Context())
	require.NoError(t, err)
	assert.NotEmpty(t, version)
	assert.FileExists(t, envPath)
}

func TestHealthEndpoints(t *testing.T) {
	gw := newGateway(t, testConfig(t))

	rr := httptest.NewRecorder()
	gw.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())

	rr = httptest.NewRecorder()
	gw.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "17 tools")
}

func TestReady_StoreClosed(t *testing.T) {
	gw := newGateway(t, testConfig(t))
	require.NoError(t, gw.store.Close())

	rr := httptest.NewRecorder()
	gw.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestMCPRouteUsesGate(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.BearerToken = "gateway-secret"
	cfg.Server.Path = "/rpc"
	gw := newGateway(t, cfg)

	initialize := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`

	rr := httptest.NewRecorder()
	gw.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/rpc", strings.NewReader(initialize)))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodPost, "/rpc", strings.NewReader(initialize))
	req.Header.Set("Authorization", "Bearer gateway-secret")
	rr = httptest.NewRecorder()
	gw.Handler().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get(mcp.HeaderSessionID))

	rr = httptest.NewRecorder()
	gw.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code, "health stays open when auth is enabled")
}

func TestConfiguredContentModel(t *testing.T) {
	cfg := testConfig(t)
	private := false
	cfg.ContentTypes = []config.ContentTypeConfig{
		{Name: "product", Label: "Products", SingularLabel: "Product", Public: &private, Supports: []string{"title"}},
	}
	cfg.Taxonomies = []config.TaxonomyConfig{
		{Name: "brand", ObjectTypes: []string{"product"}},
	}
	gw := newGateway(t, cfg)
	ctx := t.Context()

	ok, err := gw.store.TypeExists(ctx, "product")
	require.NoError(t, err)
	assert.True(t, ok)

	tax, err := gw.store.GetTaxonomy(ctx, "brand")
	require.NoError(t, err)
	assert.Equal(t, []string{"product"}, tax.ObjectTypes)
	assert.Equal(t, "Brands", tax.Label)

	taxonomies, err := gw.store.ObjectTaxonomies(ctx, "product")
	require.NoError(t, err)
	assert.Equal(t, []string{"brand"}, taxonomies)
}

func TestConfiguredContentModel_UnknownObjectType(t *testing.T) {
	cfg := testConfig(t)
	cfg.Taxonomies = []config.TaxonomyConfig{
		{Name: "brand", ObjectTypes: []string{"product"}},
	}

	_, err := New(t.Context(), cfg, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `taxonomy brand: unknown content type "product"`)
}

func TestServe(t *testing.T) {
	gw, err := New(t.Context(), testConfig(t), testLogger())
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- gw.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestRun_ListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := testConfig(t)
	cfg.Server.HTTPAddr = ln.Addr().String()
	gw := newGateway(t, cfg)

	err = gw.Run(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listening on")
}

func TestServeStdio(t *testing.T) {
	gw, err := New(t.Context(), testConfig(t), testLogger())
	require.NoError(t, err)

	in := strings.NewReader(strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","id":2,"method":"resources/read","params":{"uri":"site://info"}}`,
	}, "\n"))
	var out bytes.Buffer

	require.NoError(t, gw.ServeStdio(t.Context(), in, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	var resp struct {
		Result mcp.MCPReadResourceResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &resp))
	require.Len(t, resp.Result.Contents, 1)
	assert.Contains(t, resp.Result.Contents[0].Text, `"site_name":"Gateway Test"`)
}

func writeFile(path string) error {
	return os.WriteFile(path, []byte("x"), 0o600)
}
