package view

import "github.com/dmitrymomot/jetpack/pkg/loader"

// Option configures an Engine.
type Option func(*Engine)

// WithDebug enables the dump function.
func WithDebug(debug bool) Option {
	return func(e *Engine) {
		e.debug = debug
	}
}

// WithCharset sets the output encoding. Empty or UTF-8 writes output unchanged.
func WithCharset(charset string) Option {
	return func(e *Engine) {
		e.charset = charset
	}
}

// WithStrictVariables makes a missing map key a render error.
func WithStrictVariables(strict bool) Option {
	return func(e *Engine) {
		e.strict = strict
	}
}

// WithAutoReload re-reads templates from disk on every render.
func WithAutoReload(reload bool) Option {
	return func(e *Engine) {
		e.autoReload = reload
	}
}

// WithAutoescape switches between html/template (true) and text/template (false).
func WithAutoescape(escape bool) Option {
	return func(e *Engine) {
		e.autoescape = escape
	}
}

// WithCache keeps parsed templates between renders. Enabled by default.
func WithCache(cache bool) Option {
	return func(e *Engine) {
		e.cache = cache
	}
}

// WithFuncs adds template functions. They override built-ins of the same name.
func WithFuncs(funcs map[string]any) Option {
	return func(e *Engine) {
		for name, fn := range funcs {
			e.funcs[name] = fn
		}
	}
}

// WithLoader resolves template names through l instead of the directory passed to New.
func WithLoader(l *loader.Loader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}
