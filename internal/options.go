package internal

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"time"

	"github.com/dmitrymomot/jetpack/pkg/health"
	"github.com/dmitrymomot/jetpack/pkg/logger"
	"github.com/dmitrymomot/jetpack/pkg/session"
)

// Option configures the application.
type Option func(*App)

// Hook runs during Start. Before hooks see an unconfigured App;
// after hooks run once every component is ready.
type Hook func(ctx context.Context, app *App) error

// WithRoot sets the application root. Config files and relative directories
// are resolved against it. Defaults to the directory of the executable.
func WithRoot(dir string) Option {
	return func(a *App) {
		a.root = dir
	}
}

// WithConfigFiles replaces the config file names read from the app root.
// The first file is required, the rest are optional.
//
// Example:
//
//	jetpack.WithConfigFiles(".config.json", ".local.json", ".env.yaml")
func WithConfigFiles(names ...string) Option {
	return func(a *App) {
		if len(names) > 0 {
			a.configFiles = names
		}
	}
}

// WithEnvPrefix enables environment overrides: PREFIX_DB_HOST overrides db.host.
func WithEnvPrefix(prefix string) Option {
	return func(a *App) {
		a.envPrefix = prefix
	}
}

// WithLogger replaces the logger built from configuration.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.customLogger = l
		}
	}
}

// WithLogExtractors adds context extractors to the configured logger.
//
// Example:
//
//	jetpack.WithLogExtractors(middlewares.RequestIDExtractor())
func WithLogExtractors(extractors ...logger.ContextExtractor) Option {
	return func(a *App) {
		a.logExtractors = append(a.logExtractors, extractors...)
	}
}

// WithMiddleware adds global middleware to the application.
// Middleware is applied in the order provided.
func WithMiddleware(mw ...Middleware) Option {
	return func(a *App) {
		a.middlewares = append(a.middlewares, mw...)
	}
}

// WithHandlers registers handlers that declare routes.
// Each handler's Routes method is called when the HTTP router is built,
// after every component is configured.
func WithHandlers(h ...Handler) Option {
	return func(a *App) {
		a.handlers = append(a.handlers, h...)
	}
}

// WithTasks registers CLI tasks.
func WithTasks(t ...Task) Option {
	return func(a *App) {
		a.tasks = append(a.tasks, t...)
	}
}

// WithBeforeHook adds a hook that runs before configuration is loaded.
func WithBeforeHook(h Hook) Option {
	return func(a *App) {
		a.beforeHooks = append(a.beforeHooks, h)
	}
}

// WithAfterHook adds a hook that runs after every component is configured
// and before the request is dispatched.
func WithAfterHook(h Hook) Option {
	return func(a *App) {
		a.afterHooks = append(a.afterHooks, h)
	}
}

// WithStaticFiles mounts a static file handler at the given pattern.
// Directory listings are disabled. Files are served with default cache headers.
//
// Example:
//
//	//go:embed public
//	var assets embed.FS
//
//	jetpack.New(
//	    jetpack.WithStaticFiles("/assets/", assets, "public"),
//	)
func WithStaticFiles(pattern string, fsys fs.FS, subDir string) Option {
	return func(a *App) {
		a.staticRoutes = append(a.staticRoutes, staticRoute{
			pattern: pattern,
			fsys:    fsys,
			subDir:  subDir,
		})
	}
}

// WithErrorHandler sets a custom error handler for handler errors.
// It replaces both the error_routes dispatch and the default plain text response.
//
// Example:
//
//	jetpack.WithErrorHandler(func(c jetpack.Context, err error) error {
//	    return c.JSON(jetpack.StatusOf(err), map[string]string{
//	        "error": err.Error(),
//	    })
//	})
func WithErrorHandler(h ErrorHandler) Option {
	return func(a *App) {
		a.errorHandler = h
	}
}

// WithNotFoundHandler sets a custom 404 handler.
func WithNotFoundHandler(h HandlerFunc) Option {
	return func(a *App) {
		a.notFoundHandler = h
	}
}

// WithMethodNotAllowedHandler sets a custom 405 handler.
func WithMethodNotAllowedHandler(h HandlerFunc) Option {
	return func(a *App) {
		a.methodNotAllowedHandler = h
	}
}

// WithSessionStore replaces the store selected by session.store.
func WithSessionStore(store session.Store) Option {
	return func(a *App) {
		a.sessionStore = store
	}
}

// WithSessionOptions adds session cookie options.
// They are applied after the values read from configuration.
func WithSessionOptions(opts ...SessionOption) Option {
	return func(a *App) {
		a.sessionOptions = append(a.sessionOptions, opts...)
	}
}

// WithoutSessions disables sessions. Context session methods return
// session.ErrNotConfigured.
func WithoutSessions() Option {
	return func(a *App) {
		a.sessionsDisabled = true
	}
}

// WithViewFuncs adds template functions to the template engine.
func WithViewFuncs(funcs map[string]any) Option {
	return func(a *App) {
		if a.viewFuncs == nil {
			a.viewFuncs = make(map[string]any, len(funcs))
		}
		for k, v := range funcs {
			a.viewFuncs[k] = v
		}
	}
}

// WithMigrations sets the migration files applied by the migrate command.
//
// Example:
//
//	//go:embed migrations/*.sql
//	var migrations embed.FS
//
//	jetpack.WithMigrations(migrations)
func WithMigrations(fsys fs.FS) Option {
	return func(a *App) {
		a.migrations = fsys
	}
}

// WithReadinessCheck adds a named readiness check next to the ones
// registered for configured databases and Redis.
//
// Example:
//
//	jetpack.WithReadinessCheck("mailer", mailer.Ping)
func WithReadinessCheck(name string, fn health.CheckFunc) Option {
	return func(a *App) {
		if a.readinessChecks == nil {
			a.readinessChecks = make(health.Checks)
		}
		a.readinessChecks[name] = fn
	}
}

// WithShutdownTimeout sets the timeout for graceful shutdown.
// Defaults to 30 seconds.
func WithShutdownTimeout(d time.Duration) Option {
	return func(a *App) {
		if d > 0 {
			a.shutdownTimeout = d
		}
	}
}

// WithOutput sets where CLI commands print. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(a *App) {
		if w != nil {
			a.stdout = w
		}
	}
}
