package middlewares

import (
	"errors"
	"fmt"
	"net/http"
)

// PanicError is returned by Recover in place of a panic.
type PanicError struct {
	Value any    // value passed to panic
	Stack []byte // nil when stack capture is off
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes a panic value that is itself an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// StatusCode makes recovered panics render as 500.
func (e *PanicError) StatusCode() int { return http.StatusInternalServerError }

// IsPanicError reports whether err wraps a *PanicError.
func IsPanicError(err error) bool {
	_, ok := AsPanicError(err)
	return ok
}

// AsPanicError returns the *PanicError wrapped by err.
func AsPanicError(err error) (*PanicError, bool) {
	var pe *PanicError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
