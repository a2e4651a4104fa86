// ABOUTME: Error taxonomy for tool execution failures.
// ABOUTME: Validation and safe-mode errors are local; everything else is a DomainError.

package packs

import (
	"errors"
	"fmt"
)

// MsgValidationFailed is the outcome error for schema violations.
const MsgValidationFailed = "Validation failed"

// DomainErrorPrefix starts every DomainError message.
const DomainErrorPrefix = "Store error: "

// FailureKind names the terminal failure state of an execution.
type FailureKind string

// Failure kinds reported to the lifecycle and metrics.
const (
	KindValidationFailed FailureKind = "validation_failed"
	KindSafeModeBlocked  FailureKind = "safe_mode_blocked"
	KindDomainError      FailureKind = "domain_error"
)

// ValidationError reports parameter problems, keyed by field name.
type ValidationError struct {
	Message string
	Errors  map[string]string
}

// NewValidationError builds a ValidationError. An empty message defaults to
// MsgValidationFailed.
func NewValidationError(message string, errs map[string]string) *ValidationError {
	if message == "" {
		message = MsgValidationFailed
	}
	return &ValidationError{Message: message, Errors: errs}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// SafeModeError reports a destructive operation refused by safe mode.
type SafeModeError struct {
	Operation string
}

func (e *SafeModeError) Error() string {
	return fmt.Sprintf("Operation blocked: Safe mode is enabled. %s is not allowed.", e.Operation)
}

// Errors returns the field map attached to safe-mode refusals.
func (e *SafeModeError) Errors() map[string]string {
	return map[string]string{"safe_mode": "enabled"}
}

// DomainError wraps a failure reported by the store or raised while a
// handler ran. Message already carries DomainErrorPrefix.
type DomainError struct {
	Message string
	Code    int
	Err     error
}

// NewDomainError formats a DomainError with no underlying cause.
func NewDomainError(format string, args ...any) *DomainError {
	return &DomainError{Message: DomainErrorPrefix + fmt.Sprintf(format, args...)}
}

// WrapDomainError converts err into a DomainError, preserving its message and
// any numeric code it exposes through an ErrorCode method.
func WrapDomainError(err error) *DomainError {
	de := &DomainError{Message: DomainErrorPrefix + err.Error(), Err: err}
	var coded interface{ ErrorCode() int }
	if errors.As(err, &coded) {
		de.Code = coded.ErrorCode()
	}
	return de
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// classify maps any handler error onto the taxonomy.
func classify(err error) (FailureKind, error) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return KindValidationFailed, ve
	}
	var se *SafeModeError
	if errors.As(err, &se) {
		return KindSafeModeBlocked, se
	}
	var de *DomainError
	if errors.As(err, &de) {
		return KindDomainError, de
	}
	return KindDomainError, WrapDomainError(err)
}
