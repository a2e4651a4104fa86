// ABOUTME: Stdio transport: newline-delimited JSON-RPC over a reader and writer.
// ABOUTME: Used when the server runs as a local subprocess of an MCP client.

package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// ServeStdio reads one JSON-RPC message per line from in and writes each
// response as one line to out. It returns nil when in reaches EOF and
// ctx.Err() when ctx is cancelled. No authentication is applied; the peer is
// the local process that started us.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	lines := make(chan []byte)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), MaxRequestBodySize)
		for scanner.Scan() {
			line := bytes.Clone(scanner.Bytes())
			select {
			case lines <- line:
			case <-ctx.Done():
				scanErr <- ctx.Err()
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	enc := json.NewEncoder(out)
	s.logger.Info("MCP stdio transport ready")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				if err := <-scanErr; err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					return fmt.Errorf("reading stdin: %w", err)
				}
				s.logger.Info("MCP stdio transport closed")
				return nil
			}
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}

			resp := s.handleLine(ctx, line)
			if resp == nil {
				continue
			}
			if err := enc.Encode(resp); err != nil {
				return fmt.Errorf("writing response: %w", err)
			}
		}
	}
}

func (s *Server) handleLine(ctx context.Context, line []byte) *JSONRPCResponse {
	req, bad := parseRequest(line)
	if bad != nil {
		return bad
	}
	s.logger.Debug("MCP stdio request", "method", req.Method, "is_notification", req.IsNotification())
	return s.dispatcher.dispatch(ctx, req)
}
