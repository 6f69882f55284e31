package orm

import "errors"

var (
	ErrNoRecord      = errors.New("orm: no record found")
	ErrTableNotFound = errors.New("orm: table not found")
	ErrNoWriter      = errors.New("orm: no writer configured")
	ErrNoFields      = errors.New("orm: no fields to write")
	ErrQuery         = errors.New("orm: query failed")
)
