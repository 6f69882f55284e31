package loader

import "errors"

var (
	ErrNotFound    = errors.New("loader: file not found")
	ErrInvalidName = errors.New("loader: invalid name")
)
