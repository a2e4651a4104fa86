// ABOUTME: Tool and pack definitions for in-process CMS tools.
// ABOUTME: A tool pairs a declarative schema with the handler it guards.

package packs

import (
	"context"
	"encoding/json"

	"github.com/2389/cms-mcp/internal/schema"
)

// Handler executes a tool after its parameters have been validated and
// safe mode has been checked. Returned errors are classified by the executor.
type Handler func(ctx context.Context, params Params) (Result, error)

// Result is what a handler produces on success.
type Result struct {
	Data    any
	Message string
}

// OK builds a Result with an optional message.
func OK(data any, message string) Result {
	return Result{Data: data, Message: message}
}

// Tool is a named, schema-described operation.
type Tool struct {
	Name        string
	Description string
	Schema      schema.Schema

	// Destructive tools are refused while safe mode is on. Operation names
	// the blocked action in the refusal message, e.g. "Deleting content".
	Destructive bool
	Operation   string

	Handler Handler
}

// InputSchema returns the compiled input-schema document advertised for t.
func (t *Tool) InputSchema() json.RawMessage {
	return schema.Compile(t.Schema).JSON()
}

func (t *Tool) operation() string {
	if t.Operation != "" {
		return t.Operation
	}
	return t.Name
}

// Pack is a collection of tools registered together.
type Pack struct {
	ID    string
	Tools []*Tool
}
