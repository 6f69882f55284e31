package jetpack

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrymomot/jetpack/internal"
	"github.com/dmitrymomot/jetpack/pkg/config"
	"github.com/dmitrymomot/jetpack/pkg/health"
	"github.com/dmitrymomot/jetpack/pkg/logger"
	"github.com/dmitrymomot/jetpack/pkg/session"
)

// Type aliases - public API
type (
	// App is the application context: configuration, directories, database,
	// template engine and sessions.
	App = internal.App

	// Dirs holds the absolute application directories.
	Dirs = internal.Dirs

	// Router is the interface handlers use to declare routes.
	Router = internal.Router

	// Context provides request/response access and helper methods.
	Context = internal.Context

	// Handler declares routes on a router.
	Handler = internal.Handler

	// HandlerFunc is the signature for route handlers.
	HandlerFunc = internal.HandlerFunc

	// Middleware wraps a HandlerFunc to add cross-cutting concerns.
	Middleware = internal.Middleware

	// ErrorHandler handles errors returned from handlers.
	ErrorHandler = internal.ErrorHandler

	// Task is a CLI command run instead of the HTTP server.
	Task = internal.Task

	// TaskFunc adapts a function to the Task interface.
	TaskFunc = internal.TaskFunc

	// Option configures the application.
	Option = internal.Option

	// Hook runs during bootstrap, before or after the components are configured.
	Hook = internal.Hook

	// Component is the interface for renderable templates.
	Component = internal.Component

	// HTTPError is an error with an HTTP status and a user-facing message.
	HTTPError = internal.HTTPError

	// HTTPErrorOption configures an HTTPError.
	HTTPErrorOption = internal.HTTPErrorOption

	// StatusCoder is implemented by errors that map to an HTTP status.
	StatusCoder = internal.StatusCoder

	// Config is the merged JSON configuration document.
	Config = config.Config

	// Settings is the typed view of the framework's configuration keys.
	Settings = config.Settings

	// ContextExtractor extracts a slog attribute from context.
	// Used with WithLogExtractors to add request-scoped values to logs.
	ContextExtractor = logger.ContextExtractor

	// SessionOption configures the session manager.
	SessionOption = internal.SessionOption

	// SessionManager handles session cookies on top of a SessionStore.
	SessionManager = internal.SessionManager

	// Session represents a user session.
	Session = session.Session

	// SessionStore defines the interface for session persistence.
	SessionStore = session.Store

	// ResponseWriter wraps http.ResponseWriter with before-write hooks.
	ResponseWriter = internal.ResponseWriter
)

// Config file names and built-in paths.
const (
	ConfigFile      = internal.ConfigFile
	LocalConfigFile = internal.LocalConfigFile
	StaticPath      = internal.StaticPath
	LivenessPath    = internal.LivenessPath
	ReadinessPath   = internal.ReadinessPath

	CommandNotFoundMessage = internal.CommandNotFoundMessage
)

// Errors returned by the bootstrap and the dispatcher.
var (
	ErrConfigMissing       = internal.ErrConfigMissing
	ErrInvalidTimezone     = internal.ErrInvalidTimezone
	ErrCommandNotFound     = internal.ErrCommandNotFound
	ErrNoDatabase          = internal.ErrNoDatabase
	ErrNoViews             = internal.ErrNoViews
	ErrUnknownSessionStore = internal.ErrUnknownSessionStore
)

// Session errors for checking return values.
var (
	ErrSessionNotConfigured = session.ErrNotConfigured
	ErrSessionNotFound      = session.ErrNotFound
	ErrSessionExpired       = session.ErrExpired
	ErrSessionTypeMismatch  = session.ErrTypeMismatch
)

// Constructors

// New creates an application with the given options.
// Nothing is loaded until Start (or Configure) is called.
//
// Example:
//
//	app := jetpack.New(
//	    jetpack.WithMiddleware(middlewares.RequestID(), middlewares.Recover()),
//	    jetpack.WithHandlers(handlers.NewAuth(auth)),
//	)
//
//	err := app.Start(ctx, os.Args[1:])
func New(opts ...Option) *App {
	return internal.New(opts...)
}

// Run builds the application and dispatches os.Args: the HTTP server
// without arguments, a CLI command otherwise. It returns when the server
// stops (SIGINT/SIGTERM) or the command finishes.
//
// Example:
//
//	func main() {
//	    if err := jetpack.Run(
//	        jetpack.WithHandlers(handlers.NewPages()),
//	        jetpack.WithTasks(tasks.Cleanup()),
//	    ); err != nil {
//	        log.Fatal(err)
//	    }
//	}
func Run(opts ...Option) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return New(opts...).Start(ctx, os.Args[1:])
}

// App options

// WithRoot sets the application root. Defaults to the executable's directory.
func WithRoot(dir string) Option {
	return internal.WithRoot(dir)
}

// WithConfigFiles replaces the config file names read from the app root.
// The first file is required, the rest are optional.
func WithConfigFiles(names ...string) Option {
	return internal.WithConfigFiles(names...)
}

// WithEnvPrefix enables environment overrides: PREFIX_DB_HOST overrides db.host.
func WithEnvPrefix(prefix string) Option {
	return internal.WithEnvPrefix(prefix)
}

// WithLogger replaces the logger built from configuration.
func WithLogger(l *slog.Logger) Option {
	return internal.WithLogger(l)
}

// WithLogExtractors adds context extractors to the configured logger.
//
// Example:
//
//	jetpack.New(
//	    jetpack.WithLogExtractors(middlewares.RequestIDExtractor()),
//	)
func WithLogExtractors(extractors ...ContextExtractor) Option {
	return internal.WithLogExtractors(extractors...)
}

// WithMiddleware adds global middleware to the application.
// Middleware is applied in the order provided.
func WithMiddleware(mw ...Middleware) Option {
	return internal.WithMiddleware(mw...)
}

// WithHandlers registers handlers that declare routes.
func WithHandlers(h ...Handler) Option {
	return internal.WithHandlers(h...)
}

// WithTasks registers CLI tasks. Each task becomes a command named after it.
func WithTasks(t ...Task) Option {
	return internal.WithTasks(t...)
}

// WithBeforeHook adds a hook that runs before configuration is loaded.
func WithBeforeHook(h Hook) Option {
	return internal.WithBeforeHook(h)
}

// WithAfterHook adds a hook that runs once every component is configured.
//
// Example:
//
//	jetpack.WithAfterHook(func(ctx context.Context, app *jetpack.App) error {
//	    users = orm.NewTable[User](app.DB(), "users")
//	    return nil
//	})
func WithAfterHook(h Hook) Option {
	return internal.WithAfterHook(h)
}

// WithStaticFiles mounts a static file handler at the given pattern.
// Directory listings are disabled. Files are served with default cache headers.
//
// Example:
//
//	//go:embed assets
//	var assets embed.FS
//
//	jetpack.New(
//	    jetpack.WithStaticFiles("/assets/", assets, "assets"),
//	)
func WithStaticFiles(pattern string, fsys fs.FS, subDir string) Option {
	return internal.WithStaticFiles(pattern, fsys, subDir)
}

// WithErrorHandler sets a custom error handler for handler errors.
// It replaces both error_routes and the default plain text response.
func WithErrorHandler(h ErrorHandler) Option {
	return internal.WithErrorHandler(h)
}

// WithNotFoundHandler sets a custom 404 handler.
func WithNotFoundHandler(h HandlerFunc) Option {
	return internal.WithNotFoundHandler(h)
}

// WithMethodNotAllowedHandler sets a custom 405 handler.
func WithMethodNotAllowedHandler(h HandlerFunc) Option {
	return internal.WithMethodNotAllowedHandler(h)
}

// WithSessionStore replaces the store selected by session.store.
func WithSessionStore(store SessionStore) Option {
	return internal.WithSessionStore(store)
}

// WithSessionOptions adds session cookie options, applied after the config values.
//
// Example:
//
//	jetpack.WithSessionOptions(
//	    jetpack.WithSessionSameSite(http.SameSiteStrictMode),
//	)
func WithSessionOptions(opts ...SessionOption) Option {
	return internal.WithSessionOptions(opts...)
}

// WithoutSessions disables sessions.
func WithoutSessions() Option {
	return internal.WithoutSessions()
}

// WithViewFuncs adds template functions to the template engine.
func WithViewFuncs(funcs map[string]any) Option {
	return internal.WithViewFuncs(funcs)
}

// WithMigrations sets the migration files applied by the migrate command.
func WithMigrations(fsys fs.FS) Option {
	return internal.WithMigrations(fsys)
}

// WithReadinessCheck adds a named readiness check.
// Checks run in parallel on /health/ready and in the health command.
func WithReadinessCheck(name string, fn health.CheckFunc) Option {
	return internal.WithReadinessCheck(name, fn)
}

// WithShutdownTimeout sets the timeout for graceful shutdown.
// Defaults to 30 seconds.
func WithShutdownTimeout(d time.Duration) Option {
	return internal.WithShutdownTimeout(d)
}

// WithOutput sets where CLI commands print. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return internal.WithOutput(w)
}

// Session options

// WithSessionCookieName sets the session cookie name.
// Defaults to "__sid".
func WithSessionCookieName(name string) SessionOption {
	return internal.WithSessionCookieName(name)
}

// WithSessionMaxAge sets the session max age in seconds.
// Defaults to 30 days.
func WithSessionMaxAge(seconds int) SessionOption {
	return internal.WithSessionMaxAge(seconds)
}

// WithSessionDomain sets the session cookie domain.
func WithSessionDomain(domain string) SessionOption {
	return internal.WithSessionDomain(domain)
}

// WithSessionPath sets the session cookie path.
// Defaults to "/".
func WithSessionPath(path string) SessionOption {
	return internal.WithSessionPath(path)
}

// WithSessionSecure sets the session cookie Secure flag.
func WithSessionSecure(secure bool) SessionOption {
	return internal.WithSessionSecure(secure)
}

// WithSessionHTTPOnly sets the session cookie HttpOnly flag.
// Defaults to true.
func WithSessionHTTPOnly(httpOnly bool) SessionOption {
	return internal.WithSessionHTTPOnly(httpOnly)
}

// WithSessionSameSite sets the session cookie SameSite attribute.
// Defaults to SameSiteLaxMode.
func WithSessionSameSite(sameSite http.SameSite) SessionOption {
	return internal.WithSessionSameSite(sameSite)
}

// Errors

// NewHTTPError creates an HTTPError. An empty message falls back to the status text.
func NewHTTPError(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.NewHTTPError(code, message, opts...)
}

// ErrBadRequest creates a 400 error.
func ErrBadRequest(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrBadRequest(message, opts...)
}

// ErrUnauthorized creates a 401 error.
func ErrUnauthorized(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrUnauthorized(message, opts...)
}

// ErrForbidden creates a 403 error.
func ErrForbidden(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrForbidden(message, opts...)
}

// ErrNotFound creates a 404 error.
func ErrNotFound(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrNotFound(message, opts...)
}

// ErrInternal creates a 500 error.
func ErrInternal(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrInternal(message, opts...)
}

// WithRequestID sets the request tracking ID of an HTTPError.
func WithRequestID(id string) HTTPErrorOption {
	return internal.WithRequestID(id)
}

// WithError sets the underlying error of an HTTPError.
func WithError(err error) HTTPErrorOption {
	return internal.WithError(err)
}

// StatusOf returns the HTTP status carried by err, or 500.
func StatusOf(err error) int {
	return internal.StatusOf(err)
}

// AsHTTPError extracts an HTTPError from the chain, or nil.
func AsHTTPError(err error) *HTTPError {
	return internal.AsHTTPError(err)
}

// ErrorFrom returns the error that routed the request to an error route,
// or nil for a regular request.
//
// Example:
//
//	func (h *Errors) notFound(c jetpack.Context) error {
//	    return c.View(http.StatusNotFound, "errors/404", jetpack.ErrorFrom(c))
//	}
func ErrorFrom(c Context) error {
	return internal.ErrorFrom(c)
}

// Context helpers

// ContextValue retrieves a typed value from the context.
// Returns the zero value of T if the key is not found or type assertion fails.
//
// Example:
//
//	type tenantKey struct{}
//
//	tenant := jetpack.ContextValue[string](c, tenantKey{})
func ContextValue[T any](c Context, key any) T {
	return internal.ContextValue[T](c, key)
}

// Scalar lists the types request values can be parsed into.
type Scalar = internal.Scalar

// Param retrieves a typed URL parameter. Returns the zero value when it cannot be parsed.
//
// Example:
//
//	id := jetpack.Param[int64](c, "id")
func Param[T Scalar](c Context, name string) T {
	return internal.Param[T](c, name)
}

// Query retrieves a typed query parameter. Returns the zero value when it cannot be parsed.
func Query[T Scalar](c Context, name string) T {
	return internal.Query[T](c, name)
}

// QueryDefault retrieves a typed query parameter with a default value.
func QueryDefault[T Scalar](c Context, name string, defaultValue T) T {
	return internal.QueryDefault[T](c, name, defaultValue)
}

// Form retrieves a typed form field. Returns the zero value when it cannot be parsed.
func Form[T Scalar](c Context, name string) T {
	return internal.Form[T](c, name)
}

// FormDefault retrieves a typed form field with a default value.
//
// Example:
//
//	remember := jetpack.FormDefault(c, "remember", false)
func FormDefault[T Scalar](c Context, name string, defaultValue T) T {
	return internal.FormDefault[T](c, name, defaultValue)
}

// SessionValue is a typed helper to retrieve session values with type safety.
// Returns an error if the key doesn't exist or type assertion fails.
//
// Example:
//
//	theme, err := jetpack.SessionValue[string](sess, "theme")
func SessionValue[T any](sess *Session, key string) (T, error) {
	return session.Value[T](sess, key)
}

// SessionValueOr is a typed helper that returns a default value if the key
// doesn't exist or type assertion fails.
//
// Example:
//
//	theme := jetpack.SessionValueOr(sess, "theme", "light")
func SessionValueOr[T any](sess *Session, key string, defaultVal T) T {
	return session.ValueOr(sess, key, defaultVal)
}
