// Package mcp implements the Model Context Protocol server that exposes the
// CMS tools to AI clients.
//
// # Protocol
//
// Messages are JSON-RPC 2.0. Supported methods:
//
//   - initialize: negotiates the protocol version and opens a session
//   - ping
//   - tools/list: every registered tool with its compiled input schema
//   - tools/call: runs a tool through the executor
//   - resources/list and resources/read: read-only documents such as site://info
//
// Messages without an id are notifications and get no response.
//
// # Transports
//
// Streamable HTTP serves POST on a single endpoint (default /mcp). The
// initialize response carries an Mcp-Session-Id header that every later
// request must echo; DELETE with that header ends the session. Bodies are
// limited to 1MB and server-initiated streams (GET) are not offered.
//
// Sessions idle longer than Config.SessionTTL answer 404 and the client must
// initialize again. At Config.MaxSessions the least recently used session is
// dropped. Call Server.Close to stop the expiry sweep.
//
// The stdio transport reads newline-delimited JSON-RPC from stdin and writes
// one response per line to stdout. It has no sessions and no authentication.
//
// # Authentication
//
// The HTTP endpoint sits behind auth.Gate:
//
//	Authorization: Bearer <token>
//	X-MCP-API-Key: <token>
//
// A gate without a secret lets every request through.
//
// # Tool Results
//
// tools/call always succeeds at the JSON-RPC level once the tool is found.
// The executor's envelope is returned as a single text block:
//
//	{
//	  "content": [{"type": "text", "text": "{\"success\":false,\"error\":\"Validation failed\",\"errors\":{...}}"}],
//	  "isError": true
//	}
//
// # Usage
//
//	server, err := mcp.NewServer(mcp.Config{
//	    Registry:  registry,
//	    Executor:  executor,
//	    Gate:      auth.NewGate(secret),
//	    Resources: []mcp.Resource{mcp.SiteInfoResource(site, st)},
//	})
//	server.RegisterRoutes(mux, "/mcp")
//
// # Integration with Claude Desktop
//
//	{
//	  "mcpServers": {
//	    "cms": {
//	      "command": "cms-mcp",
//	      "args": ["stdio"]
//	    }
//	  }
//	}
package mcp
