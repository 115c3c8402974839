// Package gameerr carries the coded error taxonomy shared by the rules engine,
// the session authority and the ledger mirror.
package gameerr

import "errors"

// Code is a machine-readable error code.
type Code string

const (
	// CodeInvalidAction covers wrong phase, wrong actor and out-of-contract parameters.
	CodeInvalidAction Code = "invalid_action"
	// CodeCapacityExceeded is returned when a room is full or already started.
	CodeCapacityExceeded Code = "capacity_exceeded"
	// CodeNotFound is returned for unknown rooms, seats or sessions.
	CodeNotFound Code = "not_found"
	// CodeExternalTransactionFailure marks a ledger write that failed or was reverted.
	CodeExternalTransactionFailure Code = "external_transaction_failure"
	// CodeTransientDecodeInconsistency marks a ledger snapshot that is momentarily inconsistent.
	CodeTransientDecodeInconsistency Code = "transient_decode_inconsistency"
)

// Error is the domain error type.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates an error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates an error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Sentinels for errors.Is checks against a bare code.
var (
	ErrInvalidAction                = New(CodeInvalidAction, "invalid action")
	ErrCapacityExceeded             = New(CodeCapacityExceeded, "capacity exceeded")
	ErrNotFound                     = New(CodeNotFound, "not found")
	ErrExternalTransactionFailure   = New(CodeExternalTransactionFailure, "external transaction failed")
	ErrTransientDecodeInconsistency = New(CodeTransientDecodeInconsistency, "inconsistent snapshot")
)

// CodeOf extracts the code of the first *Error in the chain.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}

// Transient reports whether the caller may retry the failed operation.
func Transient(err error) bool {
	code, ok := CodeOf(err)
	if !ok {
		return false
	}
	return code == CodeExternalTransactionFailure || code == CodeTransientDecodeInconsistency
}

// Nakama RPC status codes (gRPC numbering).
const (
	StatusInvalidArgument    = 3
	StatusNotFound           = 5
	StatusPermissionDenied   = 7
	StatusFailedPrecondition = 9
	StatusInternal           = 13
	StatusUnavailable        = 14
)

// RuntimeCode maps the error to a gRPC status code number, the form Nakama
// RPC errors expect.
func RuntimeCode(err error) int {
	code, _ := CodeOf(err)
	switch code {
	case CodeInvalidAction:
		return StatusInvalidArgument
	case CodeNotFound:
		return StatusNotFound
	case CodeCapacityExceeded:
		return StatusFailedPrecondition
	case CodeExternalTransactionFailure, CodeTransientDecodeInconsistency:
		return StatusUnavailable
	default:
		return StatusInternal
	}
}
