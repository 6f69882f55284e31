package view

import "errors"

var (
	ErrNoTemplateDir    = errors.New("view: no template directory configured")
	ErrTemplateNotFound = errors.New("view: template not found")
	ErrUnknownCharset   = errors.New("view: unknown charset")
	ErrParse            = errors.New("view: failed to parse template")
	ErrRender           = errors.New("view: failed to render template")
)
