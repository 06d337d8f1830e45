// Package apierr defines the closed error taxonomy surfaced by the client.
//
// Every failure returned from a public client operation is an *Error whose
// Code identifies one of the fixed kinds below. Callers match kinds with
// errors.Is against the exported sentinels and extract details with
// errors.As:
//
//	var apiErr *apierr.Error
//	if errors.As(err, &apiErr) && apiErr.Code == apierr.CodeExpiredSession {
//	    // re-export cookies
//	}
package apierr

import (
	"errors"
	"fmt"
)

// Code enumerates the failure kinds.
type Code string

const (
	CodeInvalidCredentials Code = "INVALID_COOKIE"
	CodeInvalidParameter   Code = "INVALID_PARAMETER"
	CodeExpiredSession     Code = "EXPIRED_COOKIE"
	CodeResourceNotFound   Code = "NOT_FOUND"
	CodeTransport          Code = "TRANSPORT_ERROR"
	CodeSignOutFailed      Code = "LOGOUT_FAILURE"
	CodeUnknown            Code = "UNKNOWN_ERROR"
)

// Sentinels usable with errors.Is. They compare by Code only.
var (
	ErrInvalidCredentials = &Error{Code: CodeInvalidCredentials}
	ErrInvalidParameter   = &Error{Code: CodeInvalidParameter}
	ErrExpiredSession     = &Error{Code: CodeExpiredSession}
	ErrResourceNotFound   = &Error{Code: CodeResourceNotFound}
	ErrTransport          = &Error{Code: CodeTransport}
	ErrSignOutFailed      = &Error{Code: CodeSignOutFailed}
	ErrUnknown            = &Error{Code: CodeUnknown}
)

// Error is a classified client failure.
type Error struct {
	Code    Code
	Message string
	// Status is the HTTP status code when the failure carried a response.
	Status int
	// Cause is the underlying failure, if any.
	Cause error
}

// New builds an error of the given kind.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf builds an error of the given kind with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an error of the given kind around cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// WithStatus returns a copy of e carrying the HTTP status.
func (e *Error) WithStatus(status int) *Error {
	clone := *e
	clone.Status = status
	return &clone
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := string(e.Code)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// CodeOf returns the kind of err, or "" when err is not classified.
func CodeOf(err error) Code {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

// StatusOf returns the HTTP status attached to err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
