package runtime

import (
	"errors"
	"fmt"
)

// RuntimeError represents a host-level failure around a dispatch.
//
// Runtime errors include:
//   - Bad origin: the call was not dispatched by a signed account
//   - Backend failure: storage failed and the transaction was discarded
//   - Stopped: the runtime no longer accepts calls
//
// Rejections by the registry itself are *books.Error, not RuntimeError.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// DispatchID identifies the affected dispatch, if one was assigned.
	DispatchID string

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeBadOrigin indicates the origin was not a signed account.
	ErrCodeBadOrigin RuntimeErrorCode = "BAD_ORIGIN"

	// ErrCodeBackend indicates the backend failed during the transaction.
	ErrCodeBackend RuntimeErrorCode = "BACKEND_FAILURE"

	// ErrCodeStopped indicates the runtime has been stopped or closed.
	ErrCodeStopped RuntimeErrorCode = "STOPPED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.DispatchID != "" {
		msg = fmt.Sprintf("%s (dispatch=%s)", msg, e.DispatchID)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsBadOrigin returns true if the error is a bad origin error.
// Uses errors.As to handle wrapped errors.
func IsBadOrigin(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeBadOrigin
	}
	return false
}

// IsBackendError returns true if the error is a backend failure.
func IsBackendError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeBackend
	}
	return false
}

// IsStopped returns true if the error reports a stopped runtime.
func IsStopped(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeStopped
	}
	return false
}

// NewBadOriginError creates a RuntimeError for a rejected origin.
func NewBadOriginError(msg string) *RuntimeError {
	return &RuntimeError{Code: ErrCodeBadOrigin, Message: msg}
}

func newBackendError(dispatchID, msg string, err error) *RuntimeError {
	return &RuntimeError{Code: ErrCodeBackend, Message: msg, DispatchID: dispatchID, Err: err}
}

var errStopped = &RuntimeError{Code: ErrCodeStopped, Message: "runtime stopped"}
