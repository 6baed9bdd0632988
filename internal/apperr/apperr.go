// Package apperr defines the error taxonomy shared by services and the HTTP
// layer. Every known precondition failure is an *Error with a stable numeric
// code; anything else is converted to the generic server error at the
// handler boundary.
package apperr

import (
	"errors"
	"net/http"
)

// Stable numeric error codes returned in the errCode response field.
const (
	CodeOK                 = 0
	CodeValidation         = 1001
	CodeInvalidCredentials = 2001
	CodeUnauthorized       = 2002
	CodeBlocked            = 3001
	CodeNotFound           = 4001
	CodeConflict           = 4002
	CodeServer             = 5001
)

type Error struct {
	Status  int    // HTTP status
	Code    int    // stable numeric code
	Message string // human readable, safe for clients
}

func (e *Error) Error() string { return e.Message }

func Validation(msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: CodeValidation, Message: msg}
}

func InvalidCredentials(msg string) *Error {
	return &Error{Status: http.StatusUnauthorized, Code: CodeInvalidCredentials, Message: msg}
}

func Unauthorized(msg string) *Error {
	return &Error{Status: http.StatusUnauthorized, Code: CodeUnauthorized, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Status: http.StatusForbidden, Code: CodeUnauthorized, Message: msg}
}

func Blocked(msg string) *Error {
	return &Error{Status: http.StatusForbidden, Code: CodeBlocked, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Status: http.StatusNotFound, Code: CodeNotFound, Message: msg}
}

// InvalidToken covers unknown, consumed and expired one-time tokens; the
// three cases are indistinguishable to the caller.
func InvalidToken(msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: CodeValidation, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Status: http.StatusConflict, Code: CodeConflict, Message: msg}
}

func Server(msg string) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: CodeServer, Message: msg}
}

// From extracts an *Error, or wraps err into the generic server error so raw
// storage errors never leak to the client.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Server("internal server error")
}

// Is reports whether err is an *Error with the given code.
func Is(err error, code int) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Code == code
}
