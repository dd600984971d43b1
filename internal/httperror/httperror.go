// Package httperror carries an HTTP status and a client-facing message
// from the place an error happens to the central error handler.
package httperror

import (
	"errors"
	"net/http"
)

const DefaultMessage = "An unknown error occurred!"

type Error struct {
	Code    int
	Message string
	Err     error
}

func New(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap keeps the underlying cause for logging; only Message reaches the client.
func Wrap(err error, code int, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status returns the status and message to send for err.
// Anything that is not an *Error becomes a 500 with the default message.
func Status(err error) (int, string) {
	var httpErr *Error
	if !errors.As(err, &httpErr) {
		return http.StatusInternalServerError, DefaultMessage
	}

	code := httpErr.Code
	if code < 400 || code > 599 {
		code = http.StatusInternalServerError
	}
	message := httpErr.Message
	if message == "" {
		message = DefaultMessage
	}
	return code, message
}
