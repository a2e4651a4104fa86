// Package gateway orchestrates the cms-mcp server components.
//
// # Overview
//
// The gateway package wires the SQLite content store, the CMS tool packs,
// the tool executor and the MCP server into one process. It owns the HTTP
// server and the lifecycle of the store.
//
// # Startup
//
// New performs these steps in order:
//
//  1. Opens the store at database.path (CMS_MCP_DB_PATH overrides it)
//  2. Registers configured content types, then configured taxonomies
//  3. Registers the CMS tool packs in a packs.Registry
//  4. Creates the executor with the configured safe mode
//  5. Creates the MCP server behind the bearer token gate
//
// A taxonomy that names an unregistered content type fails startup.
//
// # HTTP Routes
//
//	GET  /health        Liveness, always 200 "OK"
//	GET  /health/ready  200 when the store answers, 503 otherwise
//	*    server.path    MCP Streamable HTTP endpoint (default /mcp)
//
// Health routes bypass authentication. The MCP route is wrapped by the
// auth gate, which is a no-op when no bearer_token is configured.
//
// # Transports
//
// Run listens on server.http_addr and serves until the context is
// cancelled, then shuts down within server.shutdown_timeout. ServeStdio
// serves newline-delimited JSON-RPC on the given reader and writer for
// clients that spawn the server as a subprocess. Both paths close the
// store when they return.
package gateway
