package redis

import "errors"

var (
	ErrNoURL       = errors.New("redis: connection url is empty")
	ErrInvalidURL  = errors.New("redis: invalid connection url")
	ErrUnavailable = errors.New("redis: server unavailable")
	ErrPing        = errors.New("redis: ping failed")
)
