package books

import (
	"errors"
	"fmt"
)

// ErrorCode identifies why a transition was rejected.
// The values match the original error variant names and are stable.
type ErrorCode string

const (
	// CodeTooLong indicates a book id, title, or description exceeded the max length.
	CodeTooLong ErrorCode = "TooLong"

	// CodeBookIDAlreadyExists indicates create_book targeted an existing id.
	CodeBookIDAlreadyExists ErrorCode = "BookIdAlreadyExists"

	// CodeBookNotFound indicates remove_book targeted a missing id.
	CodeBookNotFound ErrorCode = "BookNotFound"
)

// Error is a rejected transition. It is a normal outcome, not a failure of
// the host: state is exactly as it was before the call.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports whether target is an *Error with the same code, so callers can
// match detailed errors against the sentinels with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is matching.
var (
	ErrTooLong             = &Error{Code: CodeTooLong}
	ErrBookIDAlreadyExists = &Error{Code: CodeBookIDAlreadyExists}
	ErrBookNotFound        = &Error{Code: CodeBookNotFound}
)

// CodeOf returns the ErrorCode of a rejected transition.
// Uses errors.As to handle wrapped errors. ok is false for any other error,
// including backend failures.
func CodeOf(err error) (code ErrorCode, ok bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}

// IsRejection reports whether err is a rejected transition rather than a
// backend failure.
func IsRejection(err error) bool {
	_, ok := CodeOf(err)
	return ok
}

func newTooLong(field string, err error) *Error {
	return &Error{Code: CodeTooLong, Message: fmt.Sprintf("%s %v", field, err)}
}
