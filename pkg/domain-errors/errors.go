// Package domainerrors defines coded errors that cross service boundaries.
// Services return these; the HTTP layer maps codes to status lines without
// inspecting error strings.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable, machine-readable error identifier.
type Code string

const (
	CodeBadRequest  Code = "bad_request"
	CodeNotFound    Code = "not_found"
	CodeUnavailable Code = "service_unavailable"
	CodeInternal    Code = "internal_error"
)

// DomainError pairs a code with a human-readable description. The description
// is safe to return to callers for client-fault codes; internal details stay
// in logs.
type DomainError struct {
	Code    Code
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// New creates a domain error with the given code and message.
func New(code Code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// Wrap creates a domain error that preserves the underlying cause for
// errors.Is/As chains.
func Wrap(code Code, message string, err error) *DomainError {
	return &DomainError{Code: code, Message: message, Err: err}
}

// CodeOf extracts the code from an error, defaulting to CodeInternal for
// anything that is not a DomainError.
func CodeOf(err error) Code {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to its HTTP status line.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
