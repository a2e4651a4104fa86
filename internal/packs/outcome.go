// ABOUTME: Response envelope produced by every tool execution.
// ABOUTME: Serializes to {success,data,message?} or {success,error,errors?}.

package packs

import (
	"encoding/json"
	"errors"
)

// Outcome is the uniform result of a tool execution.
type Outcome struct {
	Success bool
	Data    any
	Message string

	Error  string
	Errors map[string]string

	// Kind and Code are set on failures only and are not serialized.
	Kind FailureKind
	Code int
}

type successEnvelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

type failureEnvelope struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// MarshalJSON emits the envelope shape matching o.Success.
func (o Outcome) MarshalJSON() ([]byte, error) {
	if o.Success {
		return json.Marshal(successEnvelope{Success: true, Data: o.Data, Message: o.Message})
	}
	return json.Marshal(failureEnvelope{Error: o.Error, Errors: o.Errors})
}

func successOutcome(r Result) Outcome {
	return Outcome{Success: true, Data: r.Data, Message: r.Message}
}

// failureOutcome builds the envelope for a classified error.
func failureOutcome(kind FailureKind, err error) Outcome {
	out := Outcome{Error: err.Error(), Kind: kind}

	var ve *ValidationError
	var se *SafeModeError
	var de *DomainError
	switch {
	case errors.As(err, &ve):
		if len(ve.Errors) > 0 {
			out.Errors = ve.Errors
		}
	case errors.As(err, &se):
		out.Errors = se.Errors()
	case errors.As(err, &de):
		out.Code = de.Code
	}
	return out
}
