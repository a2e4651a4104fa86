// Package packs registers CMS tools and executes them.
//
// # Execution
//
// Executor.Execute moves each call through a fixed sequence of states:
//
//	VALIDATE -> SAFE_MODE_CHECK -> INVOKE -> SUCCESS
//
// The first failure is terminal:
//
//   - VALIDATE fails with a ValidationError carrying a field map
//   - SAFE_MODE_CHECK refuses Destructive tools with a SafeModeError
//   - INVOKE converts any handler error or panic into a DomainError
//
// The handler never runs after a validation or safe-mode failure. Every
// execution returns an Outcome, which serializes to the response envelope:
//
//	{"success":true,"data":...,"message":"..."}
//	{"success":false,"error":"...","errors":{...}}
//
// # Lifecycle
//
// A Lifecycle receives one Start event before validation and one Success or
// Failure event when execution ends. SlogLifecycle logs them; NopLifecycle is
// used when none is configured. Executions are also recorded as
// OpenTelemetry spans named cms.tool.execute and counted by
// cms.tool.invocations.
//
// # Registry
//
// Tools are grouped into packs and registered with a Registry. Tool names are
// globally unique and each tool's compiled input schema is checked as JSON
// Schema before it is accepted.
//
//	registry := packs.NewRegistry(logger)
//	_ = registry.RegisterPack(cms.NewContentPack(st, site))
//	out := executor.Execute(ctx, registry.GetTool("get_content"), params)
package packs
