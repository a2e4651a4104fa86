// ABOUTME: Lifecycle events emitted around each tool execution.
// ABOUTME: Provides a no-op implementation and one backed by slog.

package packs

import (
	"errors"
	"log/slog"
)

// Lifecycle receives exactly one Start and then one Success or Failure per
// execution.
type Lifecycle interface {
	Start(tool string, params Params)
	Success(tool string)
	Failure(tool string, kind FailureKind, err error)
}

// NopLifecycle discards every event.
type NopLifecycle struct{}

func (NopLifecycle) Start(string, Params)               {}
func (NopLifecycle) Success(string)                     {}
func (NopLifecycle) Failure(string, FailureKind, error) {}

// SlogLifecycle logs events to a structured logger.
type SlogLifecycle struct {
	Logger *slog.Logger
}

// NewSlogLifecycle returns a SlogLifecycle, defaulting to slog.Default().
func NewSlogLifecycle(logger *slog.Logger) *SlogLifecycle {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLifecycle{Logger: logger}
}

func (l *SlogLifecycle) Start(tool string, params Params) {
	l.Logger.Info("→ executing tool", "tool", tool, "parameters", map[string]any(params))
}

func (l *SlogLifecycle) Success(tool string) {
	l.Logger.Info("← tool executed successfully", "tool", tool)
}

func (l *SlogLifecycle) Failure(tool string, kind FailureKind, err error) {
	attrs := []any{"tool", tool, "kind", string(kind), "error", err.Error()}

	var ve *ValidationError
	var de *DomainError
	switch {
	case errors.As(err, &ve):
		attrs = append(attrs, "errors", ve.Errors)
	case errors.As(err, &de) && de.Code != 0:
		attrs = append(attrs, "code", de.Code)
	}
	l.Logger.Error("tool execution failed", attrs...)
}
