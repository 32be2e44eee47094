package datasource

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnsupportedOperation is returned when a capability the caller asked for
// is not implemented by the active adapter.
var ErrUnsupportedOperation = errors.New("datasource: unsupported operation")

// Code classifies adapter failures independently of the backend.
type Code string

const (
	CodeNetwork      Code = "network"
	CodeNotFound     Code = "not_found"
	CodeUnauthorized Code = "unauthorized"
	CodeInvalid      Code = "invalid"
	CodeInternal     Code = "internal"
)

// Error is the mapped failure returned by adapters.
type Error struct {
	Code    Code
	Adapter string
	Message string
	Err     error
}

// NewError builds an *Error. err may be nil.
func NewError(code Code, adapter, message string, err error) *Error {
	return &Error{Code: code, Adapter: adapter, Message: message, Err: err}
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s adapter: %s: %s", e.Adapter, e.Code, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the Code of the first *Error in err's chain.
// Context errors map to CodeNetwork; anything else to CodeInternal.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var dsErr *Error
	if errors.As(err, &dsErr) {
		return dsErr.Code
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return CodeNetwork
	}
	return CodeInternal
}

// IsRetryable reports whether err is a transient backend failure.
// Cancellation is never retryable.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var dsErr *Error
	return errors.As(err, &dsErr) && dsErr.Code == CodeNetwork
}

// Wrap attributes err to adapter. Errors that are already mapped pass
// through unchanged; anything else is classified with CodeOf.
func Wrap(adapter, op string, err error) error {
	if err == nil {
		return nil
	}
	var dsErr *Error
	if errors.As(err, &dsErr) {
		return err
	}
	return NewError(CodeOf(err), adapter, op, err)
}
