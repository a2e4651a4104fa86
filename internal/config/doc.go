// Package config handles configuration loading for cms-mcp.
//
// # Overview
//
// Configuration is loaded from a YAML or TOML file with environment variable
// expansion, then defaulted and validated. The syntax is chosen by extension:
// .toml files are TOML, everything else is YAML.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from CMS_MCP_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/cms-mcp/config.yaml
//  3. ~/.config/cms-mcp/config.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  bearer_token: "${CMS_MCP_TOKEN}"
//
// Only the ${VAR_NAME} form is expanded. Unset variables expand to "".
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	server:
//	  shutdown_timeout: "10s"
//	  session_timeout: "30m"
//
// # Example
//
//	server:
//	  http_addr: "127.0.0.1:8080"
//	  path: "/mcp"
//
//	database:
//	  path: "./cms.db"
//
//	auth:
//	  bearer_token: "${CMS_MCP_TOKEN}"   # empty disables auth
//
//	safe_mode: false
//
//	site:
//	  name: "My Site"
//	  url: "https://example.com"
//	  admin_email: "admin@example.com"
//
//	logging:
//	  level: "info"     # debug, info, warn, error
//	  format: "text"    # text or json
//
//	content_types:
//	  - name: product
//	    label: Products
//	    supports: [title, editor, excerpt]
//
//	taxonomies:
//	  - name: brand
//	    object_types: [product]
//
// # Defaults
//
// server.path is /mcp, server.shutdown_timeout is 5s, idle MCP sessions
// expire after server.session_timeout of 30m, server.max_sessions is 1000,
// site.name is
// "My Site", site.url is derived from server.http_addr, and logging is
// info/text. server.http_addr and database.path are required.
package config
