package session

import "errors"

var (
	// ErrNotConfigured means the app has no session store.
	ErrNotConfigured = errors.New("session: not configured")

	ErrNotFound     = errors.New("session: not found")
	ErrExpired      = errors.New("session: expired")
	ErrTypeMismatch = errors.New("session: value has a different type")

	// ErrEncode and ErrDecode wrap serialization failures in stores that
	// persist sessions outside the process.
	ErrEncode = errors.New("session: failed to encode")
	ErrDecode = errors.New("session: failed to decode")
)
