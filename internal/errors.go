package internal

import (
	"errors"
	"net/http"
)

var (
	// ErrConfigMissing is returned when the required config file is absent.
	ErrConfigMissing = errors.New("jetpack: config file not found")

	// ErrInvalidTimezone is returned for an unknown timezone name.
	ErrInvalidTimezone = errors.New("jetpack: invalid timezone")

	// ErrCommandNotFound is returned when the CLI command is not registered.
	ErrCommandNotFound = errors.New("jetpack: command not found")

	// ErrNoDatabase is returned by operations that need a configured database.
	ErrNoDatabase = errors.New("jetpack: database not configured")

	// ErrNoViews is returned when rendering without a configured template engine.
	ErrNoViews = errors.New("jetpack: template engine not configured")

	// ErrUnknownSessionStore is returned for an unsupported session.store value.
	ErrUnknownSessionStore = errors.New("jetpack: unknown session store")
)

// StatusCoder is implemented by errors that map to an HTTP status.
type StatusCoder interface {
	StatusCode() int
}

// HTTPError is an error with an HTTP status and a user-facing message.
type HTTPError struct {
	// Err is the underlying error, logged but never shown.
	Err error
	// Message is shown to the user.
	Message string
	// RequestID is the request tracking ID.
	RequestID string
	// Code is the HTTP status code.
	Code int
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func (e *HTTPError) StatusCode() int {
	return e.Code
}

func (e *HTTPError) StatusText() string {
	return http.StatusText(e.Code)
}

// HTTPErrorOption configures an HTTPError.
type HTTPErrorOption func(*HTTPError)

// NewHTTPError creates an HTTPError. An empty message falls back to the status text.
func NewHTTPError(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	if message == "" {
		message = http.StatusText(code)
	}
	e := &HTTPError{Code: code, Message: message}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func WithRequestID(id string) HTTPErrorOption {
	return func(e *HTTPError) {
		e.RequestID = id
	}
}

func WithError(err error) HTTPErrorOption {
	return func(e *HTTPError) {
		e.Err = err
	}
}

func ErrBadRequest(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, message, opts...)
}

func ErrUnauthorized(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusUnauthorized, message, opts...)
}

func ErrForbidden(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusForbidden, message, opts...)
}

func ErrNotFound(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusNotFound, message, opts...)
}

func ErrInternal(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusInternalServerError, message, opts...)
}

// StatusOf returns the HTTP status carried by err, or 500.
// The outermost error in the chain that implements StatusCoder wins.
func StatusOf(err error) int {
	var sc StatusCoder
	if errors.As(err, &sc) {
		if code := sc.StatusCode(); code >= 400 && code < 600 {
			return code
		}
	}
	return http.StatusInternalServerError
}

// AsHTTPError extracts an HTTPError from the chain, or nil.
func AsHTTPError(err error) *HTTPError {
	var he *HTTPError
	if errors.As(err, &he) {
		return he
	}
	return nil
}
