package service

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced to callers. Codes are stable; messages are not.
const (
	CodeBadRequest      = "BAD_REQUEST"
	CodeScopeUnresolved = "SCOPE_UNRESOLVED"
	CodeUpstreamFailed  = "UPSTREAM_READ_FAILED"
	CodeInternal        = "INTERNAL"
)

// Error is a caller-visible failure with a stable code. On any Error the
// response carries no numeric payload: partial financial figures are worse
// than failing outright.
type Error struct {
	Code    string
	Status  int
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func badRequest(msg string) *Error {
	return &Error{Code: CodeBadRequest, Status: http.StatusBadRequest, Message: msg}
}

func scopeUnresolved(cause error) *Error {
	return &Error{
		Code:    CodeScopeUnresolved,
		Status:  http.StatusForbidden,
		Message: "caller has no resolvable entity scope",
		cause:   cause,
	}
}

func upstreamFailed(cause error) *Error {
	return &Error{
		Code:    CodeUpstreamFailed,
		Status:  http.StatusBadGateway,
		Message: "ledger read failed, aggregation aborted",
		cause:   cause,
	}
}

// AsError extracts a *Error from err, wrapping unknown failures as INTERNAL.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{
		Code:    CodeInternal,
		Status:  http.StatusInternalServerError,
		Message: "internal error",
		cause:   err,
	}
}
