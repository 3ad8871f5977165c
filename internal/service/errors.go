// Package service provides the business logic of the chat relay: history
// assembly and the per-request orchestration sequence.
package service

import (
	"errors"
	"fmt"
)

// Code classifies a service failure. GatewayFailure is not a Code: a failed
// responder call is recovered inside the orchestrator and reported through
// the result, never as an error bubbling up.
type Code string

const (
	CodeValidation    Code = "VALIDATION_FAILURE"
	CodeAuthorization Code = "AUTHORIZATION_FAILURE"
	CodeNotFound      Code = "NOT_FOUND"
	CodeInternal      Code = "INTERNAL_FAILURE"
)

// Error is a classified service failure.
type Error struct {
	Code   Code
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("service: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("service: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code Code, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

// CodeOf extracts the failure code from an error chain, defaulting to
// CodeInternal for unclassified errors.
func CodeOf(err error) Code {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Code
	}
	return CodeInternal
}
