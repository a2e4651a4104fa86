// ABOUTME: Tests for the MCP Streamable HTTP server against a real SQLite store.
// ABOUTME: Covers sessions, auth, tool listing and calls, resources, and protocol errors.

package mcp

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/cms-mcp/internal/auth"
	"github.com/2389/cms-mcp/internal/cms"
	"github.com/2389/cms-mcp/internal/packs"
	"github.com/2389/cms-mcp/internal/store"
)

const testSecret = "s3cret-token"

var testSite = cms.Site{Name: "Test Site", URL: "https://example.com", AdminEmail: "admin@example.com"}

type testEnv struct {
	server *Server
	mux    *http.ServeMux
	store  *store.SQLiteStore
}

type serverOptions struct {
	secret   string
	safeMode bool
}

func newTestEnv(t *testing.T, opts serverOptions) *testEnv {
	t.Helper()

	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "cms.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := packs.NewRegistry(logger)
	require.NoError(t, cms.Register(registry, st, testSite))

	exec, err := packs.NewExecutor(packs.ExecutorConfig{SafeMode: opts.safeMode})
	require.NoError(t, err)

	server, err := NewServer(Config{
		Registry:  registry,
		Executor:  exec,
		Gate:      auth.NewGate(opts.secret),
		Resources: []Resource{SiteInfoResource(testSite, st)},
		Logger:    logger,
		Version:   "test",
	})
	require.NoError(t, err)
	t.Cleanup(server.Close)

	mux := http.NewServeMux()
	server.RegisterRoutes(mux, "/mcp")
	return &testEnv{server: server, mux: mux, store: st}
}

// rpcResponse keeps the result raw so each test decodes what it expects.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *JSONRPCError   `json:"error"`
}

func (e *testEnv) do(t *testing.T, method, sessionID, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, "/mcp", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for name, values := range header {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	if sessionID != "" {
		req.Header.Set(HeaderSessionID, sessionID)
	}
	rr := httptest.NewRecorder()
	e.mux.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) initialize(t *testing.T) string {
	t.Helper()
	rr := e.do(t, http.MethodPost, "", `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-06-18","clientInfo":{"name":"test","version":"1"}}}`, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	sessionID := rr.Header().Get(HeaderSessionID)
	require.NotEmpty(t, sessionID)
	return sessionID
}

// rpc sends a request on an open session and decodes the JSON-RPC response.
func (e *testEnv) rpc(t *testing.T, sessionID, body string) rpcResponse {
	t.Helper()
	rr := e.do(t, http.MethodPost, sessionID, body, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	return decodeRPC(t, rr.Body.String())
}

func decodeRPC(t *testing.T, body string) rpcResponse {
	t.Helper()
	var resp rpcResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp), body)
	assert.Equal(t, "2.0", resp.JSONRPC)
	return resp
}

// envelope is the tool outcome carried in the text content block.
type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Message string            `json:"message"`
	Error   string            `json:"error"`
	Errors  map[string]string `json:"errors"`
}

func (e *testEnv) callTool(t *testing.T, sessionID, name, args string) (envelope, bool) {
	t.Helper()
	resp := e.rpc(t, sessionID, `{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"`+name+`","arguments":`+args+`}}`)
	require.Nil(t, resp.Error)

	var result MCPCallToolResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	require.Len(t, result.Content, 1)
	assert.Equal(t, "text", result.Content[0].Type)

	var env envelope
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &env))
	return env, result.IsError
}

func TestNewServer(t *testing.T) {
	exec, err := packs.NewExecutor(packs.ExecutorConfig{})
	require.NoError(t, err)
	registry := packs.NewRegistry(nil)

	_, err = NewServer(Config{Executor: exec})
	assert.EqualError(t, err, "registry is required")

	_, err = NewServer(Config{Registry: registry})
	assert.EqualError(t, err, "executor is required")

	server, err := NewServer(Config{Registry: registry, Executor: exec})
	require.NoError(t, err)
	defer server.Close()
	assert.Equal(t, "cms-mcp", server.dispatcher.name)
	assert.False(t, server.gate.IsEnabled())
	assert.Equal(t, DefaultSessionTTL, server.sessions.ttl)
	assert.Equal(t, DefaultMaxSessions, server.sessions.maxSessions)
}

func TestInitialize(t *testing.T) {
	env := newTestEnv(t, serverOptions{})

	rr := env.do(t, http.MethodPost, "", `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-06-18"}}`, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.NotEmpty(t, rr.Header().Get(HeaderSessionID))
	assert.Equal(t, 1, env.server.SessionCount())

	resp := decodeRPC(t, rr.Body.String())
	assert.JSONEq(t, "1", string(resp.ID))

	var result struct {
		ProtocolVersion string         `json:"protocolVersion"`
		Capabilities    map[string]any `json:"capabilities"`
		ServerInfo      struct {
			Name    string `json:"name"`
			Version string `json:"version"`
		} `json:"serverInfo"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	assert.Equal(t, "2025-06-18", result.ProtocolVersion)
	assert.Contains(t, result.Capabilities, "tools")
	assert.Contains(t, result.Capabilities, "resources")
	assert.Equal(t, "cms-mcp", result.ServerInfo.Name)
	assert.Equal(t, "test", result.ServerInfo.Version)

	t.Run("unknown version gets the latest", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "", `{"jsonrpc":"2.0","id":2,"method":"initialize","params":{"protocolVersion":"1999-01-01"}}`, nil)
		resp := decodeRPC(t, rr.Body.String())
		require.NoError(t, json.Unmarshal(resp.Result, &result))
		assert.Equal(t, latestProtocolVersion, result.ProtocolVersion)
	})
}

func TestSessionRequired(t *testing.T) {
	env := newTestEnv(t, serverOptions{})
	ping := `{"jsonrpc":"2.0","id":1,"method":"ping"}`

	rr := env.do(t, http.MethodPost, "", ping, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodPost, "no-such-session", ping, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	sessionID := env.initialize(t)
	resp := env.rpc(t, sessionID, ping)
	assert.Nil(t, resp.Error)
	assert.JSONEq(t, `{}`, string(resp.Result))
}

func TestDeleteSession(t *testing.T) {
	env := newTestEnv(t, serverOptions{})
	sessionID := env.initialize(t)

	rr := env.do(t, http.MethodDelete, "", "", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodDelete, sessionID, "", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Zero(t, env.server.SessionCount())

	rr = env.do(t, http.MethodDelete, sessionID, "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(t, http.MethodPost, sessionID, `{"jsonrpc":"2.0","id":1,"method":"ping"}`, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, serverOptions{})

	rr := env.do(t, http.MethodGet, "", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	rr = env.do(t, http.MethodPut, "", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "POST, GET, DELETE", rr.Header().Get("Allow"))
}

func TestNotificationAccepted(t *testing.T) {
	env := newTestEnv(t, serverOptions{})
	sessionID := env.initialize(t)

	rr := env.do(t, http.MethodPost, sessionID, `{"jsonrpc":"2.0","method":"notifications/initialized"}`, nil)
	assert.Equal(t, http.StatusAccepted, rr.Code)
	assert.Empty(t, rr.Body.String())
}

func TestProtocolErrors(t *testing.T) {
	env := newTestEnv(t, serverOptions{})
	sessionID := env.initialize(t)

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"invalid json", `{not json`, JSONRPCParseError},
		{"batch", `[{"jsonrpc":"2.0","id":1,"method":"ping"}]`, JSONRPCParseError},
		{"wrong version", `{"jsonrpc":"1.0","id":1,"method":"ping"}`, JSONRPCInvalidRequest},
		{"missing method", `{"jsonrpc":"2.0","id":1}`, JSONRPCInvalidRequest},
		{"unknown method", `{"jsonrpc":"2.0","id":1,"method":"prompts/list"}`, JSONRPCMethodNotFound},
		{"tool name missing", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{}}`, JSONRPCInvalidParams},
		{"unknown tool", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"drop_tables"}}`, JSONRPCInvalidParams},
		{"arguments not an object", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"list_content","arguments":[1]}}`, JSONRPCInvalidParams},
		{"unknown resource", `{"jsonrpc":"2.0","id":1,"method":"resources/read","params":{"uri":"site://nope"}}`, JSONRPCInvalidParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.rpc(t, sessionID, tt.body)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestUnknownToolMessage(t *testing.T) {
	env := newTestEnv(t, serverOptions{})
	sessionID := env.initialize(t)

	resp := env.rpc(t, sessionID, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"drop_tables"}}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "tool not found: drop_tables", resp.Error.Message)
}

func TestRequestTooLarge(t *testing.T) {
	env := newTestEnv(t, serverOptions{})
	body := `{"jsonrpc":"2.0","id":1,"method":"ping","params":{"pad":"` + strings.Repeat("x", MaxRequestBodySize) + `"}}`

	rr := env.do(t, http.MethodPost, "", body, nil)
	resp := decodeRPC(t, rr.Body.String())
	require.NotNil(t, resp.Error)
	assert.Equal(t, JSONRPCInvalidRequest, resp.Error.Code)
	assert.Equal(t, "request body too large", resp.Error.Message)
}

func TestUnsupportedProtocolVersionHeader(t *testing.T) {
	env := newTestEnv(t, serverOptions{})
	sessionID := env.initialize(t)

	header := http.Header{}
	header.Set(HeaderProtocolVersion, "1999-01-01")
	rr := env.do(t, http.MethodPost, sessionID, `{"jsonrpc":"2.0","id":1,"method":"ping"}`, header)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	header.Set(HeaderProtocolVersion, "2025-03-26")
	rr = env.do(t, http.MethodPost, sessionID, `{"jsonrpc":"2.0","id":1,"method":"ping"}`, header)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAuthentication(t *testing.T) {
	env := newTestEnv(t, serverOptions{secret: testSecret})
	initialize := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`

	t.Run("missing token", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "", initialize, nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Header().Get(auth.HeaderChallenge), `error="invalid_token"`)
		assert.JSONEq(t, `{"error":"Unauthorized","message":"Authentication required"}`, rr.Body.String())
	})

	t.Run("wrong token", func(t *testing.T) {
		header := http.Header{}
		header.Set("Authorization", "Bearer wrong")
		rr := env.do(t, http.MethodPost, "", initialize, header)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.JSONEq(t, `{"error":"Unauthorized","message":"Invalid or expired token"}`, rr.Body.String())
	})

	t.Run("bearer token", func(t *testing.T) {
		header := http.Header{}
		header.Set("Authorization", "Bearer "+testSecret)
		rr := env.do(t, http.MethodPost, "", initialize, header)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.NotEmpty(t, rr.Header().Get(HeaderSessionID))
	})

	t.Run("api key header", func(t *testing.T) {
		header := http.Header{}
		header.Set(auth.HeaderAPIKey, testSecret)
		rr := env.do(t, http.MethodPost, "", initialize, header)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("session does not bypass auth", func(t *testing.T) {
		header := http.Header{}
		header.Set("Authorization", "Bearer "+testSecret)
		rr := env.do(t, http.MethodPost, "", initialize, header)
		sessionID := rr.Header().Get(HeaderSessionID)

		rr = env.do(t, http.MethodPost, sessionID, `{"jsonrpc":"2.0","id":2,"method":"ping"}`, nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestToolsList(t *testing.T) {
	env := newTestEnv(t, serverOptions{})
	sessionID := env.initialize(t)

	resp := env.rpc(t, sessionID, `{"jsonrpc":"2.0","id":"list","method":"tools/list"}`)
	require.Nil(t, resp.Error)
	assert.JSONEq(t, `"list"`, string(resp.ID))

	var result MCPListToolsResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	require.Len(t, result.Tools, 17)

	byName := map[string]MCPToolInfo{}
	for _, tool := range result.Tools {
		byName[tool.Name] = tool
	}

	deleteContent := byName["delete_content"]
	require.NotNil(t, deleteContent.Annotations)
	assert.True(t, deleteContent.Annotations.DestructiveHint)
	assert.Nil(t, byName["list_content"].Annotations)

	var schemaDoc struct {
		Type     string   `json:"type"`
		Required []string `json:"required"`
	}
	require.NoError(t, json.Unmarshal(byName["get_content"].InputSchema, &schemaDoc))
	assert.Equal(t, "object", schemaDoc.Type)
	assert.Equal(t, []string{"content_id"}, schemaDoc.Required)
}

func TestToolsCall(t *testing.T) {
	env := newTestEnv(t, serverOptions{})
	sessionID := env.initialize(t)

	createOut, isError := env.callTool(t, sessionID, "create_content",
		`{"content_type":"post","title":"Over the wire","content":"<p>Body</p>","status":"publish"}`)
	assert.False(t, isError)
	require.True(t, createOut.Success, createOut.Error)
	assert.Equal(t, "Content created successfully", createOut.Message)

	var created struct {
		ID    int64  `json:"id"`
		Title string `json:"title"`
		Slug  string `json:"slug"`
	}
	require.NoError(t, json.Unmarshal(createOut.Data, &created))
	assert.Equal(t, "Over the wire", created.Title)
	assert.Equal(t, "over-the-wire", created.Slug)

	getOut, isError := env.callTool(t, sessionID, "get_content", `{"content_type":"post","content_id":`+jsonInt(created.ID)+`}`)
	assert.False(t, isError)
	assert.True(t, getOut.Success)
}

func TestToolsCall_ValidationFailure(t *testing.T) {
	env := newTestEnv(t, serverOptions{})
	sessionID := env.initialize(t)

	result, isError := env.callTool(t, sessionID, "create_content", `{"title":"No type"}`)
	assert.True(t, isError)
	assert.False(t, result.Success)
	assert.Equal(t, packs.MsgValidationFailed, result.Error)
	assert.Equal(t, map[string]string{
		"content_type": "Field 'content_type' is required",
		"content":      "Field 'content' is required",
	}, result.Errors)
}

func TestToolsCall_NullArguments(t *testing.T) {
	env := newTestEnv(t, serverOptions{})
	sessionID := env.initialize(t)

	result, isError := env.callTool(t, sessionID, "discover_content_types", `null`)
	assert.False(t, isError)
	assert.True(t, result.Success)
}

func TestToolsCall_SafeMode(t *testing.T) {
	env := newTestEnv(t, serverOptions{safeMode: true})
	sessionID := env.initialize(t)

	post, err := env.store.CreatePost(t.Context(), &store.Post{Type: "post", Title: "Protected"})
	require.NoError(t, err)

	result, isError := env.callTool(t, sessionID, "delete_content",
		`{"content_type":"post","content_id":`+jsonInt(post.ID)+`,"force":true}`)
	assert.True(t, isError)
	assert.Equal(t, "Operation blocked: Safe mode is enabled. Deleting content is not allowed.", result.Error)
	assert.Equal(t, map[string]string{"safe_mode": "enabled"}, result.Errors)

	_, err = env.store.GetPost(t.Context(), post.ID)
	assert.NoError(t, err)
}

func TestToolsCall_DomainError(t *testing.T) {
	env := newTestEnv(t, serverOptions{})
	sessionID := env.initialize(t)

	result, isError := env.callTool(t, sessionID, "get_content", `{"content_type":"post","content_id":424242}`)
	assert.True(t, isError)
	assert.Equal(t, "Store error: Content with ID 424242 not found", result.Error)
	assert.Nil(t, result.Errors)
}

func TestResources(t *testing.T) {
	env := newTestEnv(t, serverOptions{})
	sessionID := env.initialize(t)

	_, err := env.store.CreatePost(t.Context(), &store.Post{Type: "post", Title: "Live", Status: store.StatusPublish})
	require.NoError(t, err)
	_, err = env.store.CreatePost(t.Context(), &store.Post{Type: "post", Title: "Draft"})
	require.NoError(t, err)

	resp := env.rpc(t, sessionID, `{"jsonrpc":"2.0","id":1,"method":"resources/list"}`)
	var list MCPListResourcesResult
	require.NoError(t, json.Unmarshal(resp.Result, &list))
	require.Len(t, list.Resources, 1)
	assert.Equal(t, SiteInfoURI, list.Resources[0].URI)
	assert.Equal(t, "application/json", list.Resources[0].MimeType)

	resp = env.rpc(t, sessionID, `{"jsonrpc":"2.0","id":2,"method":"resources/read","params":{"uri":"site://info"}}`)
	require.Nil(t, resp.Error)
	var read MCPReadResourceResult
	require.NoError(t, json.Unmarshal(resp.Result, &read))
	require.Len(t, read.Contents, 1)
	assert.Equal(t, SiteInfoURI, read.Contents[0].URI)

	var info cms.SiteInfo
	require.NoError(t, json.Unmarshal([]byte(read.Contents[0].Text), &info))
	assert.Equal(t, "Test Site", info.SiteName)
	assert.Equal(t, "https://example.com", info.SiteURL)
	assert.Equal(t, "admin@example.com", info.AdminEmail)
	assert.Equal(t, int64(1), info.PostsCount)
	assert.Zero(t, info.PagesCount)
	assert.True(t, strings.HasPrefix(info.Version, "SQLite 3."), info.Version)
}

func TestDecodeArguments(t *testing.T) {
	args, err := decodeArguments(json.RawMessage(`{"content_id": 9007199254740993}`))
	require.NoError(t, err)
	assert.Equal(t, int64(9007199254740993), args.Int("content_id"))

	args, err = decodeArguments(nil)
	require.NoError(t, err)
	assert.Empty(t, args)

	_, err = decodeArguments(json.RawMessage(`"text"`))
	assert.Error(t, err)
}

func jsonInt(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
