package logger

import (
	"io"
	"log/slog"
	"os"
)

// Option configures New.
type Option func(*options)

type options struct {
	out        io.Writer
	level      slog.Level
	text       bool
	extractors []ContextExtractor
	sentry     *SentryConfig
}

// WithWriter sets the log destination. Defaults to stdout.
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		o.out = w
	}
}

// WithLevel sets the minimum level written to the destination.
func WithLevel(level slog.Level) Option {
	return func(o *options) {
		o.level = level
	}
}

// WithDebug switches to human-readable text output at debug level.
func WithDebug(debug bool) Option {
	return func(o *options) {
		if debug {
			o.text = true
			o.level = slog.LevelDebug
		}
	}
}

// WithExtractors adds context extractors applied to every record.
func WithExtractors(extractors ...ContextExtractor) Option {
	return func(o *options) {
		o.extractors = append(o.extractors, extractors...)
	}
}

// WithSentry forwards warnings and errors to Sentry. An empty DSN is ignored.
func WithSentry(cfg SentryConfig) Option {
	return func(o *options) {
		if cfg.DSN != "" {
			o.sentry = &cfg
		}
	}
}

// New creates a logger. Output is JSON unless debug mode is on.
func New(opts ...Option) *slog.Logger {
	o := &options{out: os.Stdout, level: slog.LevelInfo}
	for _, opt := range opts {
		opt(o)
	}

	hopts := &slog.HandlerOptions{Level: o.level}
	var handler slog.Handler
	if o.text {
		handler = slog.NewTextHandler(o.out, hopts)
	} else {
		handler = slog.NewJSONHandler(o.out, hopts)
	}

	if o.sentry != nil {
		sh, err := newSentryHandler(*o.sentry)
		if err != nil {
			slog.New(handler).Error("failed to initialize sentry", slog.String("error", err.Error()))
		} else {
			handler = fanout{handler, sh}
		}
	}

	return slog.New(NewContextHandler(handler, o.extractors...))
}
