// Package bridgeerr declares the error taxonomy shared by the pipeline, the
// resolver, and the sidecar protocol layer (spec §7).
package bridgeerr

import "fmt"

// Code is one of the wire error codes in §6.2.
type Code string

const (
	Unauthorized   Code = "unauthorized"
	Busy           Code = "busy"
	TargetNotFound Code = "target_not_found"
	InvalidValue   Code = "invalid_value"
	InvalidCommand Code = "invalid_command"
	NotReady       Code = "not_ready"
	InternalError  Code = "internal_error"
)

// Error is a structured error carrying a wire Code, serialized directly
// into an `error` envelope by the protocol layer without string re-mapping.
type Error struct {
	Code Code
	Msg  string
	// Index is set when the error names an offending parameter index
	// (InvalidValue, InternalError on write failure).
	Index *int
}

func (e *Error) Error() string {
	if e.Index != nil {
		return fmt.Sprintf("%s: %s (index %d)", e.Code, e.Msg, *e.Index)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// New builds a plain Error with no offending index.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

// WithIndex builds an Error naming the offending parameter index.
func WithIndex(code Code, msg string, index int) *Error {
	return &Error{Code: code, Msg: msg, Index: &index}
}
