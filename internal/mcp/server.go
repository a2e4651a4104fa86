// ABOUTME: MCP Streamable HTTP server exposing the CMS tools.
// ABOUTME: Sessions are created on initialize and identified by the Mcp-Session-Id header.

package mcp

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/2389/cms-mcp/internal/auth"
	"github.com/2389/cms-mcp/internal/packs"
)

// MaxRequestBodySize is the maximum allowed size for request bodies (1MB).
const MaxRequestBodySize = 1 << 20

// Header names used by the Streamable HTTP transport.
const (
	HeaderSessionID       = "Mcp-Session-Id"
	HeaderProtocolVersion = "Mcp-Protocol-Version"
)

// Config holds configuration for the MCP server.
type Config struct {
	Registry  *packs.Registry
	Executor  *packs.Executor
	Gate      *auth.Gate // nil or disabled gate leaves the endpoint open
	Resources []Resource
	Logger    *slog.Logger

	// Name and Version are reported in serverInfo.
	Name    string
	Version string

	// SessionTTL is how long an idle HTTP session survives. MaxSessions caps
	// open sessions. Zero selects DefaultSessionTTL and DefaultMaxSessions.
	SessionTTL  time.Duration
	MaxSessions int
}

// Server implements the MCP endpoints over HTTP and stdio.
type Server struct {
	dispatcher *dispatcher
	gate       *auth.Gate
	logger     *slog.Logger
	sessions   *sessionStore
}

// NewServer creates a new MCP server with the given configuration.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Registry == nil {
		return nil, errors.New("registry is required")
	}
	if cfg.Executor == nil {
		return nil, errors.New("executor is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gate := cfg.Gate
	if gate == nil {
		gate = auth.NewGate("")
	}
	name := cfg.Name
	if name == "" {
		name = "cms-mcp"
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	maxSessions := cfg.MaxSessions
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}

	resources := make([]Resource, len(cfg.Resources))
	copy(resources, cfg.Resources)

	return &Server{
		dispatcher: &dispatcher{
			registry:  cfg.Registry,
			executor:  cfg.Executor,
			resources: resources,
			name:      name,
			version:   version,
			logger:    logger,
		},
		gate:     gate,
		logger:   logger,
		sessions: newSessionStore(ttl, maxSessions),
	}, nil
}

// Close releases background resources held by the server.
func (s *Server) Close() {
	s.sessions.close()
}

// SessionCount returns the number of open HTTP sessions.
func (s *Server) SessionCount() int {
	return s.sessions.count()
}

// RegisterRoutes registers the MCP endpoint at path on mux, behind the
// bearer gate.
func (s *Server) RegisterRoutes(mux *http.ServeMux, path string) {
	if path == "" {
		path = "/mcp"
	}
	mux.Handle(path, s.gate.Middleware(s.logger)(http.HandlerFunc(s.handleMCP)))
}

// handleMCP is the single MCP endpoint supporting POST, GET, and DELETE.
func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handlePost(w, r)
	case http.MethodGet:
		// We don't support server-initiated SSE streams
		w.Header().Set("Allow", "POST, DELETE")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	case http.MethodDelete:
		s.handleDelete(w, r)
	default:
		w.Header().Set("Allow", "POST, GET, DELETE")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

// handleDelete terminates a session.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(HeaderSessionID)
	if sessionID == "" {
		http.Error(w, "Bad Request: missing Mcp-Session-Id", http.StatusBadRequest)
		return
	}
	if !s.sessions.delete(sessionID) {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	s.logger.Info("MCP session terminated", "session_id", sessionID)
	w.WriteHeader(http.StatusNoContent)
}

// handlePost processes JSON-RPC messages sent via HTTP POST.
func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(HeaderSessionID)
	protoVersion := r.Header.Get(HeaderProtocolVersion)

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBodySize+1))
	if err != nil {
		s.sendJSONRPC(w, errResponse(nil, JSONRPCParseError, "failed to read request body"))
		return
	}
	if int64(len(body)) > MaxRequestBodySize {
		s.sendJSONRPC(w, errResponse(nil, JSONRPCInvalidRequest, "request body too large"))
		return
	}

	req, bad := parseRequest(body)
	if bad != nil {
		s.sendJSONRPC(w, bad)
		return
	}

	isInitialize := req.Method == "initialize"

	// Validate protocol version header (not required on initialize)
	if !isInitialize && protoVersion != "" && !supportedProtocolVersions[protoVersion] {
		http.Error(w, "Bad Request: unsupported MCP-Protocol-Version", http.StatusBadRequest)
		return
	}

	if !isInitialize {
		if sessionID == "" {
			http.Error(w, "Bad Request: missing Mcp-Session-Id", http.StatusBadRequest)
			return
		}
		if _, ok := s.sessions.get(sessionID); !ok {
			// Session expired or invalid - client must re-initialize
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
	}

	s.logger.Debug("MCP request",
		"method", req.Method,
		"is_notification", req.IsNotification(),
		"session_id", sessionID,
	)

	resp := s.dispatcher.dispatch(r.Context(), req)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	if isInitialize && resp.Error == nil {
		var version string
		if result, ok := resp.Result.(map[string]any); ok {
			version, _ = result["protocolVersion"].(string)
		}
		sess := s.sessions.create(version)
		s.logger.Info("MCP session created",
			"session_id", sess.id,
			"protocol_version", sess.protocolVersion,
		)
		w.Header().Set(HeaderSessionID, sess.id)
	}

	s.sendJSONRPC(w, resp)
}

// sendJSONRPC writes a JSON-RPC response.
func (s *Server) sendJSONRPC(w http.ResponseWriter, resp *JSONRPCResponse) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Warn("failed to encode JSON-RPC response", "error", err)
	}
}
