// Package logger builds slog loggers for the application.
//
// Output is JSON on stdout by default. Debug mode switches to text output at
// debug level. Context extractors inject request-scoped attributes such as the
// request ID on every record:
//
//	log := logger.New(
//		logger.WithDebug(settings.Debug),
//		logger.WithExtractors(middlewares.RequestIDExtractor()),
//		logger.WithSentry(logger.SentryConfig{DSN: settings.Sentry.DSN}),
//	)
//
// With a Sentry DSN configured, errors become Sentry issues and warnings are
// kept as Sentry logs. Register [FlushSentry] as a shutdown hook so buffered
// events are sent before exit. [NewNope] returns a logger that discards
// everything, for tests and CLI commands that should stay quiet.
package logger
