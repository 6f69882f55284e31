package db

import "errors"

var (
	ErrInvalidDSN        = errors.New("db: invalid connection string")
	ErrUnsupportedScheme = errors.New("db: only postgres connection strings are supported")
	ErrConnect           = errors.New("db: could not connect")
	ErrNoWriter          = errors.New("db: no write connection configured")
	ErrPing              = errors.New("db: ping failed")
	ErrMigrate           = errors.New("db: migrations failed")
)
