package internal

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/jetpack/pkg/config"
	"github.com/dmitrymomot/jetpack/pkg/db"
	"github.com/dmitrymomot/jetpack/pkg/health"
	"github.com/dmitrymomot/jetpack/pkg/loader"
	"github.com/dmitrymomot/jetpack/pkg/logger"
	"github.com/dmitrymomot/jetpack/pkg/orm"
	"github.com/dmitrymomot/jetpack/pkg/session"
	"github.com/dmitrymomot/jetpack/pkg/view"
)

// Default server timeouts (hardcoded, opinionated).
const (
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultMaxHeaderBytes    = 1 << 20 // 1MB
	defaultShutdownTimeout   = 30 * time.Second
)

// Config file names read from the app root. The first one is required.
const (
	ConfigFile      = ".config.json"
	LocalConfigFile = ".local.json"
)

// Dirs holds the absolute application directories.
type Dirs struct {
	// Root is the application root (the webroot).
	Root string
	// Includes holds application assets resolved by the loader.
	Includes string
	// Public is served at /static/. Empty when not configured.
	Public string
}

// App is the application context: configuration, directories, database,
// template engine and sessions, built once by Start.
// Nothing is stored in package globals except the process timezone.
type App struct {
	// options
	root                    string
	configFiles             []string
	envPrefix               string
	customLogger            *slog.Logger
	logExtractors           []logger.ContextExtractor
	middlewares             []Middleware
	handlers                []Handler
	tasks                   []Task
	beforeHooks             []Hook
	afterHooks              []Hook
	staticRoutes            []staticRoute
	errorHandler            ErrorHandler
	notFoundHandler         HandlerFunc
	methodNotAllowedHandler HandlerFunc
	sessionStore            session.Store
	sessionOptions          []SessionOption
	viewFuncs               map[string]any
	migrations              fs.FS
	readinessChecks         health.Checks
	stdout                  io.Writer
	shutdownTimeout         time.Duration
	sessionsDisabled        bool

	// state built by Start
	config   *config.Config
	settings config.Settings
	dirs     Dirs
	location *time.Location
	logger   *slog.Logger
	loader   *loader.Loader
	db       *orm.DB
	dbConfig db.Config
	writers  []*pgxpool.Pool
	redis    redis.UniversalClient
	views    *view.Engine
	sessions *SessionManager
	router   chi.Router
	closers  []func(context.Context) error

	configured bool
}

// staticRoute represents a static file handler mount point.
type staticRoute struct {
	fsys    fs.FS
	pattern string
	subDir  string
}

// New creates an application with the given options.
// Nothing is loaded until Start is called.
//
// Example:
//
//	app := jetpack.New(
//	    jetpack.WithMiddleware(middlewares.Recover()),
//	    jetpack.WithHandlers(handlers.NewAuth(auth)),
//	    jetpack.WithTasks(tasks.Cleanup()),
//	)
//	if err := app.Start(ctx, os.Args[1:]); err != nil {
//	    log.Fatal(err)
//	}
func New(opts ...Option) *App {
	a := &App{
		configFiles:     []string{ConfigFile, LocalConfigFile},
		stdout:          os.Stdout,
		shutdownTimeout: defaultShutdownTimeout,
		logger:          logger.NewNope(),
		location:        time.Local,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.customLogger != nil {
		a.logger = a.customLogger
	}
	return a
}

// Start configures the application and dispatches args.
// Without arguments the HTTP server runs until ctx is cancelled or a
// termination signal arrives; otherwise args name a CLI command.
// Resources opened during configuration are closed before Start returns.
func (a *App) Start(ctx context.Context, args []string) error {
	if err := a.Configure(ctx); err != nil {
		return err
	}

	if len(args) == 0 {
		return a.serve(ctx)
	}

	err := a.runCommand(ctx, args)
	return errors.Join(err, a.Close(context.WithoutCancel(ctx)))
}

// Configure runs the bootstrap steps without dispatching.
// Start calls it; tests and embedding programs may call it directly and
// then serve Handler themselves. A second call is a no-op.
// On failure every resource opened so far is closed.
func (a *App) Configure(ctx context.Context) error {
	if a.configured {
		return nil
	}
	if err := a.bootstrap(ctx); err != nil {
		return errors.Join(err, a.Close(context.WithoutCancel(ctx)))
	}
	a.configured = true
	return nil
}

// Config returns the merged configuration document.
func (a *App) Config() *config.Config { return a.config }

// Settings returns the typed framework settings.
func (a *App) Settings() config.Settings { return a.settings }

// Dirs returns the application directories.
func (a *App) Dirs() Dirs { return a.dirs }

// Location returns the configured timezone.
func (a *App) Location() *time.Location { return a.location }

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// Loader returns the includes loader.
func (a *App) Loader() *loader.Loader { return a.loader }

// DB returns the database, or nil when db is not configured.
func (a *App) DB() *orm.DB { return a.db }

// Redis returns the Redis client, or nil when no Redis URL is configured.
func (a *App) Redis() redis.UniversalClient { return a.redis }

// Views returns the template engine, or nil when twig.dir is not set.
func (a *App) Views() *view.Engine { return a.views }

// Sessions returns the session manager, or nil when sessions are disabled.
func (a *App) Sessions() *SessionManager { return a.sessions }

// Debug reports whether debug mode is on.
func (a *App) Debug() bool { return a.settings.Debug }

// Handler returns the HTTP handler. The router is built on first use.
func (a *App) Handler() chi.Router {
	if a.router == nil {
		a.router = a.buildRouter()
	}
	return a.router
}

// OnClose registers fn to run when the application shuts down.
// Functions run in reverse registration order.
func (a *App) OnClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

// Close releases every resource opened during Start.
func (a *App) Close(ctx context.Context) error {
	closers := a.closers
	a.closers = nil

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](ctx); err != nil {
			a.logger.ErrorContext(ctx, "shutdown hook failed", slog.Any("error", err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ReadinessChecks returns the checks run by the readiness endpoint
// and the health command.
func (a *App) ReadinessChecks() health.Checks {
	return a.readinessChecks
}

func (a *App) addReadinessCheck(name string, fn health.CheckFunc) {
	if a.readinessChecks == nil {
		a.readinessChecks = make(health.Checks)
	}
	if _, ok := a.readinessChecks[name]; !ok {
		a.readinessChecks[name] = fn
	}
}

// serve runs the HTTP server until shutdown.
func (a *App) serve(ctx context.Context) error {
	return runServer(runtimeConfig{
		handler:         a.Handler(),
		address:         a.settings.Address,
		logger:          a.logger,
		shutdownTimeout: a.shutdownTimeout,
		shutdownHooks:   []func(context.Context) error{a.Close},
		baseCtx:         ctx,
	})
}
