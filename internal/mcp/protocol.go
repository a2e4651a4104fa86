// ABOUTME: JSON-RPC 2.0 message types and the MCP method dispatcher.
// ABOUTME: Shared by the Streamable HTTP and stdio transports.

package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/2389/cms-mcp/internal/packs"
)

// Supported MCP protocol versions
var supportedProtocolVersions = map[string]bool{
	"2024-11-05": true,
	"2025-03-26": true,
	"2025-06-18": true,
	"2025-11-25": true,
}

// latestProtocolVersion is the version we advertise when the client asks for
// one we do not know.
const latestProtocolVersion = "2025-11-25"

// JSON-RPC 2.0 types

// JSONRPCRequest represents a JSON-RPC 2.0 request or notification.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether the request carries no id.
func (r JSONRPCRequest) IsNotification() bool {
	return len(r.ID) == 0 || string(r.ID) == "null"
}

// JSONRPCResponse represents a JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *JSONRPCError   `json:"error,omitempty"`
}

// JSONRPCError represents a JSON-RPC 2.0 error object.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Standard JSON-RPC error codes
const (
	JSONRPCParseError     = -32700
	JSONRPCInvalidRequest = -32600
	JSONRPCMethodNotFound = -32601
	JSONRPCInvalidParams  = -32602
	JSONRPCInternalError  = -32603
)

// MCP-specific types

// MCPInitializeParams are the params for initialize.
type MCPInitializeParams struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities,omitempty"`
	ClientInfo      struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"clientInfo"`
}

// MCPToolInfo represents an MCP tool definition.
type MCPToolInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
	Annotations *MCPAnnotations `json:"annotations,omitempty"`
}

// MCPAnnotations carry behavioural hints for clients.
type MCPAnnotations struct {
	DestructiveHint bool `json:"destructiveHint"`
}

// MCPListToolsResult is the result for tools/list.
type MCPListToolsResult struct {
	Tools []MCPToolInfo `json:"tools"`
}

// MCPCallToolParams are the params for tools/call.
type MCPCallToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// MCPCallToolResult is the result for tools/call.
type MCPCallToolResult struct {
	Content []MCPContent `json:"content"`
	IsError bool         `json:"isError,omitempty"`
}

// MCPContent represents content in a tool result.
type MCPContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// MCPResourceInfo describes a readable resource.
type MCPResourceInfo struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// MCPListResourcesResult is the result for resources/list.
type MCPListResourcesResult struct {
	Resources []MCPResourceInfo `json:"resources"`
}

// MCPReadResourceParams are the params for resources/read.
type MCPReadResourceParams struct {
	URI string `json:"uri"`
}

// MCPResourceContents is one entry of a resources/read result.
type MCPResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text"`
}

// MCPReadResourceResult is the result for resources/read.
type MCPReadResourceResult struct {
	Contents []MCPResourceContents `json:"contents"`
}

// dispatcher answers MCP methods. It owns no transport state.
type dispatcher struct {
	registry  *packs.Registry
	executor  *packs.Executor
	resources []Resource
	name      string
	version   string
	logger    *slog.Logger
}

// errResponse builds an error response for id.
func errResponse(id json.RawMessage, code int, message string) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      nullID(id),
		Error:   &JSONRPCError{Code: code, Message: message},
	}
}

func okResponse(id json.RawMessage, result any) *JSONRPCResponse {
	return &JSONRPCResponse{JSONRPC: "2.0", ID: nullID(id), Result: result}
}

func nullID(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return json.RawMessage("null")
	}
	return id
}

// parseRequest decodes one JSON-RPC message. The returned response is non-nil
// when the message is unusable.
func parseRequest(body []byte) (JSONRPCRequest, *JSONRPCResponse) {
	var req JSONRPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return req, errResponse(nil, JSONRPCParseError, "invalid JSON")
	}
	if req.JSONRPC != "2.0" {
		return req, errResponse(req.ID, JSONRPCInvalidRequest, "invalid JSON-RPC version")
	}
	if req.Method == "" {
		return req, errResponse(req.ID, JSONRPCInvalidRequest, "method is required")
	}
	return req, nil
}

// dispatch handles one request. Notifications yield nil.
func (d *dispatcher) dispatch(ctx context.Context, req JSONRPCRequest) *JSONRPCResponse {
	if req.IsNotification() {
		d.logger.Debug("accepted MCP notification", "method", req.Method)
		return nil
	}

	switch req.Method {
	case "initialize":
		return d.handleInitialize(req)
	case "ping":
		return okResponse(req.ID, struct{}{})
	case "tools/list":
		return d.handleToolsList(req)
	case "tools/call":
		return d.handleToolsCall(ctx, req)
	case "resources/list":
		return d.handleResourcesList(req)
	case "resources/read":
		return d.handleResourcesRead(ctx, req)
	default:
		return errResponse(req.ID, JSONRPCMethodNotFound, "method not found: "+req.Method)
	}
}

// negotiateVersion echoes the client's version when supported.
func negotiateVersion(requested string) string {
	if supportedProtocolVersions[requested] {
		return requested
	}
	return latestProtocolVersion
}

func (d *dispatcher) handleInitialize(req JSONRPCRequest) *JSONRPCResponse {
	var params MCPInitializeParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errResponse(req.ID, JSONRPCInvalidParams, "invalid params")
		}
	}

	capabilities := map[string]any{
		"tools": map[string]any{},
	}
	if len(d.resources) > 0 {
		capabilities["resources"] = map[string]any{}
	}

	return okResponse(req.ID, map[string]any{
		"protocolVersion": negotiateVersion(params.ProtocolVersion),
		"capabilities":    capabilities,
		"serverInfo": map[string]any{
			"name":    d.name,
			"version": d.version,
		},
	})
}

func (d *dispatcher) handleToolsList(req JSONRPCRequest) *JSONRPCResponse {
	tools := d.registry.ListTools()
	result := MCPListToolsResult{Tools: make([]MCPToolInfo, len(tools))}
	for i, tool := range tools {
		result.Tools[i] = MCPToolInfo{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema(),
		}
		if tool.Destructive {
			result.Tools[i].Annotations = &MCPAnnotations{DestructiveHint: true}
		}
	}

	d.logger.Debug("tools/list", "count", len(tools))
	return okResponse(req.ID, result)
}

func (d *dispatcher) handleToolsCall(ctx context.Context, req JSONRPCRequest) *JSONRPCResponse {
	var params MCPCallToolParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errResponse(req.ID, JSONRPCInvalidParams, "invalid params")
		}
	}
	if params.Name == "" {
		return errResponse(req.ID, JSONRPCInvalidParams, "tool name is required")
	}

	tool := d.registry.GetTool(params.Name)
	if tool == nil {
		return errResponse(req.ID, JSONRPCInvalidParams, fmt.Sprintf("%s: %s", packs.ErrToolNotFound, params.Name))
	}

	args, err := decodeArguments(params.Arguments)
	if err != nil {
		return errResponse(req.ID, JSONRPCInvalidParams, "arguments must be an object")
	}

	outcome := d.executor.Execute(ctx, tool, args)
	text, err := json.Marshal(outcome)
	if err != nil {
		d.logger.Error("failed to encode tool outcome", "tool_name", tool.Name, "error", err)
		return errResponse(req.ID, JSONRPCInternalError, "failed to encode tool result")
	}

	d.logger.Debug("tools/call complete",
		"tool_name", tool.Name,
		"success", outcome.Success,
	)

	return okResponse(req.ID, MCPCallToolResult{
		Content: []MCPContent{{Type: "text", Text: string(text)}},
		IsError: !outcome.Success,
	})
}

// decodeArguments turns raw tool arguments into Params, keeping numbers as
// json.Number so integers survive intact.
func decodeArguments(raw json.RawMessage) (packs.Params, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return packs.Params{}, nil
	}

	var args packs.Params
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&args); err != nil {
		return nil, err
	}
	if args == nil {
		return nil, errors.New("arguments must be an object")
	}
	return args, nil
}

func (d *dispatcher) handleResourcesList(req JSONRPCRequest) *JSONRPCResponse {
	result := MCPListResourcesResult{Resources: make([]MCPResourceInfo, len(d.resources))}
	for i, res := range d.resources {
		result.Resources[i] = res.info()
	}
	return okResponse(req.ID, result)
}

func (d *dispatcher) handleResourcesRead(ctx context.Context, req JSONRPCRequest) *JSONRPCResponse {
	var params MCPReadResourceParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errResponse(req.ID, JSONRPCInvalidParams, "invalid params")
		}
	}

	for _, res := range d.resources {
		if res.URI != params.URI {
			continue
		}
		contents, err := res.read(ctx)
		if err != nil {
			d.logger.Warn("resource read failed", "uri", res.URI, "error", err)
			return errResponse(req.ID, JSONRPCInternalError, "failed to read resource")
		}
		return okResponse(req.ID, MCPReadResourceResult{Contents: []MCPResourceContents{contents}})
	}
	return errResponse(req.ID, JSONRPCInvalidParams, "resource not found: "+params.URI)
}
