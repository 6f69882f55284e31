package password

import "errors"

var (
	ErrNoRandomSource   = errors.New("password: secure random source unavailable")
	ErrUnknownAlgorithm = errors.New("password: unknown algorithm")
	ErrMalformedHash    = errors.New("password: malformed hash envelope")
	ErrEmptySeparator   = errors.New("password: empty separator")
	ErrInvalidSeparator = errors.New("password: separator must not contain letters or digits")
)
