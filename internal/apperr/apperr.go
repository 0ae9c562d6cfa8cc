// Package apperr carries the request-facing error taxonomy. Every error the
// HTTP layer shows to a client is either one of these or gets mapped to an
// internal error; raw wrapped errors never reach a response body.
package apperr

import "net/http"

// Error is an error with an HTTP status and optional per-field details.
type Error struct {
	Status  int
	Message string
	Details []string
}

func (e *Error) Error() string {
	return e.Message
}

func Validation(message string, details ...string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message, Details: details}
}

func Conflict(message string) *Error {
	return &Error{Status: http.StatusConflict, Message: message}
}

func Unauthorized(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Message: message}
}

func Internal(message string) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: message}
}
