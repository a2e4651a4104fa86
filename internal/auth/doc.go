// Package auth guards the MCP HTTP transport with a single shared secret.
//
// # Credentials
//
// A request presents the secret in one of two headers, checked in order:
//
//   - Authorization: Bearer <token> (scheme matched case-insensitively)
//   - X-MCP-API-Key: <token>
//
// An Authorization header using any other scheme is ignored and the API key
// header is consulted instead. Tokens are trimmed before comparison.
//
// # Rejection
//
// A rejected request receives 401 with a WWW-Authenticate challenge:
//
//	Bearer realm="MCP Server", error="invalid_token", error_description="..."
//
// and the body {"error":"Unauthorized","message":"..."}.
//
// # Disabled Mode
//
// When no secret is configured the gate admits every request. Stdio
// transports never consult the gate.
//
// # Token Generation
//
//	token, err := GenerateToken(DefaultTokenBytes)
//
// produces a secret suitable for auth.bearer_token in the config file.
package auth
