package config

import "errors"

var (
	ErrReadFile    = errors.New("config: failed to read file")
	ErrInvalidFile = errors.New("config: invalid configuration file")
	ErrNotObject   = errors.New("config: top-level value must be an object")
	ErrMerge       = errors.New("config: failed to merge file")
	ErrDecode      = errors.New("config: failed to decode")
)
