// Package errs defines the closed set of error kinds the core engine can
// return and a small wrap-chain error type in the style used throughout
// this module.
package errs

import "fmt"

// Error is the base type for the engine's sentinel errors. It behaves like
// errors.New's result but additionally supports Wrap/Wrapf so that call
// sites can attach the alias, path, or cause a human message needs without
// resorting to free-form strings.
type Error struct {
	msg string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.msg
}

// Unwrap returns nil; a bare *Error has no further cause.
func (e *Error) Unwrap() error {
	return nil
}

// New creates a new sentinel error.
func New(msg string) *Error {
	return &Error{msg}
}

// Wrap wraps another error with this sentinel. errors.Is matches both the
// sentinel and the wrapped cause; errors.Unwrap and errors.As follow the
// wrapped cause only.
func (e *Error) Wrap(errB error) error {
	return &wrappedError{errA: e, errB: errB}
}

// Wrapf is a shortcut for Wrap(fmt.Errorf(msg, args...)).
func (e *Error) Wrapf(msg string, args ...any) error {
	return &wrappedError{errA: e, errB: fmt.Errorf(msg, args...)} //nolint:goerr113
}

type wrappedError struct {
	errA error
	errB error
}

func (e *wrappedError) Error() string {
	return e.errA.Error() + ": " + e.errB.Error()
}

func (e *wrappedError) Is(err error) bool {
	if err == nil {
		return false
	}
	return e.errA == err //nolint:goerr113
}

func (e *wrappedError) Unwrap() error {
	return e.errB
}
