// ABOUTME: Executes tools through validate, safe-mode check, and invoke.
// ABOUTME: Every execution yields an Outcome; handler panics become DomainErrors.

package packs

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/2389/cms-mcp/internal/schema"
)

const instrumentationName = "github.com/2389/cms-mcp/internal/packs"

// Execution states reported on spans and metrics.
const (
	StateSuccess          = "success"
	StateValidationFailed = string(KindValidationFailed)
	StateSafeModeBlocked  = string(KindSafeModeBlocked)
	StateDomainError      = string(KindDomainError)
)

// ExecutorConfig is fixed for the lifetime of an Executor.
type ExecutorConfig struct {
	SafeMode  bool
	Lifecycle Lifecycle

	// Tracer and Meter default to the global OpenTelemetry providers.
	Tracer trace.Tracer
	Meter  metric.Meter
}

// Executor runs tools. It holds no mutable state and is safe for concurrent use.
type Executor struct {
	safeMode    bool
	lifecycle   Lifecycle
	tracer      trace.Tracer
	invocations metric.Int64Counter
}

// NewExecutor creates an Executor from cfg.
func NewExecutor(cfg ExecutorConfig) (*Executor, error) {
	lifecycle := cfg.Lifecycle
	if lifecycle == nil {
		lifecycle = NopLifecycle{}
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer(instrumentationName)
	}
	meter := cfg.Meter
	if meter == nil {
		meter = otel.Meter(instrumentationName)
	}

	invocations, err := meter.Int64Counter(
		"cms.tool.invocations",
		metric.WithDescription("Number of tool executions by final state"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating invocation counter: %w", err)
	}

	return &Executor{
		safeMode:    cfg.SafeMode,
		lifecycle:   lifecycle,
		tracer:      tracer,
		invocations: invocations,
	}, nil
}

// SafeMode reports whether destructive tools are refused.
func (e *Executor) SafeMode() bool {
	return e.safeMode
}

// Execute runs tool with params and returns its Outcome. The handler is only
// called when validation passes and safe mode permits the tool.
func (e *Executor) Execute(ctx context.Context, tool *Tool, params Params) Outcome {
	if params == nil {
		params = Params{}
	}

	ctx, span := e.tracer.Start(ctx, "cms.tool.execute",
		trace.WithAttributes(attribute.String("cms.tool.name", tool.Name)))
	defer span.End()

	e.lifecycle.Start(tool.Name, params)

	var out Outcome
	state := StateSuccess
	result, kind, err := e.run(ctx, tool, params)
	if err != nil {
		out = failureOutcome(kind, err)
		state = string(kind)
		span.SetStatus(codes.Error, out.Error)
		e.lifecycle.Failure(tool.Name, kind, err)
	} else {
		out = successOutcome(result)
		span.SetStatus(codes.Ok, "")
		e.lifecycle.Success(tool.Name)
	}

	span.SetAttributes(attribute.String("cms.tool.state", state))
	e.invocations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool", tool.Name),
		attribute.String("state", state),
	))
	return out
}

func (e *Executor) run(ctx context.Context, tool *Tool, params Params) (Result, FailureKind, error) {
	if report := schema.Validate(params, tool.Schema); !report.Valid() {
		return Result{}, KindValidationFailed, NewValidationError(MsgValidationFailed, report)
	}

	if tool.Destructive && e.safeMode {
		return Result{}, KindSafeModeBlocked, &SafeModeError{Operation: tool.operation()}
	}

	result, err := invoke(ctx, tool, params)
	if err != nil {
		kind, classified := classify(err)
		return Result{}, kind, classified
	}
	return result, "", nil
}

// invoke calls the handler, converting a panic into an error.
func invoke(ctx context.Context, tool *Tool, params Params) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	if tool.Handler == nil {
		return Result{}, fmt.Errorf("tool %q has no handler", tool.Name)
	}
	return tool.Handler(ctx, params)
}
