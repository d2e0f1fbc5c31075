package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed error with HTTP awareness. Status mirrors the
// backend status for backend errors and the console reply status otherwise.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

const (
	CodeTransport = "TRANSPORT_ERROR"
	CodeBackend   = "BACKEND_ERROR"
	CodeDecode    = "DECODE_ERROR"
)

// Predefined errors for common scenarios.
var (
	ErrNotFound   = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrValidation = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrForbidden  = New("FORBIDDEN", http.StatusForbidden, "cross-origin request rejected")
	ErrInternal   = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrTransport  = New(CodeTransport, http.StatusBadGateway, "backend unreachable")
	ErrBackend    = New(CodeBackend, http.StatusBadGateway, "backend rejected request")
	ErrDecode     = New(CodeDecode, http.StatusBadGateway, "backend response malformed")
)

// Transport wraps a failure that happened before any response was obtained.
// The message is the raw reason so it can be shown verbatim.
func Transport(err error) *Error {
	return &Error{Code: CodeTransport, Status: http.StatusBadGateway, Message: err.Error(), Err: err}
}

// Backend reports a non-success response. An empty message falls back to the
// status text.
func Backend(status int, message string) *Error {
	if message == "" {
		message = fmt.Sprintf("unexpected status %d %s", status, http.StatusText(status))
	}
	return &Error{Code: CodeBackend, Status: status, Message: message}
}

// Decode wraps a body that could not be decoded.
func Decode(err error) *Error {
	return &Error{Code: CodeDecode, Status: http.StatusBadGateway, Message: err.Error(), Err: err}
}

// Is reports whether err is an *Error carrying code.
func Is(err error, code string) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// Reason returns the user-facing reason for err: the Message of a typed error
// or the raw error text otherwise.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
