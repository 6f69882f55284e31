package internal

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/jetpack/pkg/health"
)

// Paths of the built-in endpoints.
const (
	StaticPath    = "/static/"
	LivenessPath  = "/health/live"
	ReadinessPath = "/health/ready"
)

// RequestIDKey is the context key holding the request ID.
type RequestIDKey struct{}

type errorDispatchKey struct{}

// ErrorFrom returns the error that caused the request to be re-dispatched
// to an error route, or nil for a regular request.
func ErrorFrom(c Context) error {
	err, _ := c.Get(errorDispatchKey{}).(error)
	return err
}

// buildRouter assembles the chi router: request state, global middleware,
// static files, health endpoints and handler routes.
func (a *App) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(a.requestState)

	notFound := a.notFoundHandler
	if notFound == nil {
		notFound = func(c Context) error { return ErrNotFound("") }
	}
	r.NotFound(a.httpHandler(notFound))

	methodNotAllowed := a.methodNotAllowedHandler
	if methodNotAllowed == nil {
		methodNotAllowed = func(c Context) error {
			return NewHTTPError(http.StatusMethodNotAllowed, "")
		}
	}
	r.MethodNotAllowed(a.httpHandler(methodNotAllowed))

	for _, mw := range a.middlewares {
		r.Use(a.httpMiddleware(mw))
	}

	if a.dirs.Public != "" {
		if info, err := os.Stat(a.dirs.Public); err == nil && info.IsDir() {
			mountStatic(r, StaticPath, os.DirFS(a.dirs.Public))
		} else {
			a.logger.Warn("public directory not found", slog.String("path", a.dirs.Public))
		}
	}
	for _, sr := range a.staticRoutes {
		sub, err := fs.Sub(sr.fsys, sr.subDir)
		if err != nil {
			a.logger.Error("static files not mounted",
				slog.String("pattern", sr.pattern),
				slog.Any("error", err),
			)
			continue
		}
		mountStatic(r, sr.pattern, sub)
	}

	if a.settings.Health {
		r.Get(LivenessPath, health.LivenessHandler())
		r.Get(ReadinessPath, health.ReadinessHandler(a.readinessChecks, health.WithLogger(a.logger)))
	}

	router := &chiRouter{mux: r, app: a}
	for _, h := range a.handlers {
		h.Routes(router)
	}

	return r
}

// requestState installs the per-request state shared by every Context and
// persists a dirty session that was not flushed by a response write.
func (a *App) requestState(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if stateFrom(r) != nil {
			// re-dispatched to an error route
			next.ServeHTTP(w, r)
			return
		}

		st := &requestState{rw: NewResponseWriter(w)}
		ctx := context.WithValue(r.Context(), stateKey{}, st)

		next.ServeHTTP(st.rw, r.WithContext(ctx))

		a.flushSession(ctx, st)
	})
}

// flushSession writes the request's session back to the store if it changed.
// Failures are logged; the response is already on its way.
func (a *App) flushSession(ctx context.Context, st *requestState) {
	if a.sessions == nil || st.session == nil {
		return
	}
	if err := a.sessions.PersistSession(ctx, st.session); err != nil {
		a.logger.ErrorContext(ctx, "failed to save session", slog.Any("error", err))
	}
}

// handleError responds to an error returned by a handler.
// A custom error handler takes over completely. Otherwise a configured
// error route for the status is dispatched internally, and the error
// message is written as plain text when no route exists or it fails.
func (a *App) handleError(c Context, err error) {
	code := StatusOf(err)
	a.logError(c, code, err)

	if c.Written() {
		return
	}

	if a.errorHandler != nil {
		if herr := a.errorHandler(c, err); herr != nil {
			a.logger.ErrorContext(c, "error handler failed", slog.Any("error", herr))
		}
		return
	}

	if original := ErrorFrom(c); original != nil {
		a.logger.ErrorContext(c, "could not route to error route",
			slog.String("path", c.Request().URL.Path),
			slog.Any("error", err),
			slog.Any("original_error", original),
		)
		a.writeError(c, StatusOf(original), original)
		return
	}

	if route, ok := a.settings.ErrorRoute(code); ok {
		a.dispatchError(c, route, err)
		return
	}

	a.writeError(c, code, err)
}

// dispatchError serves route as a GET request carrying err in its context.
// A route that answers 200 keeps the error's status.
func (a *App) dispatchError(c Context, route string, err error) {
	c.ResponseWriter().keepErrorStatus(StatusOf(err))

	r := c.Request()
	ctx := context.WithValue(r.Context(), errorDispatchKey{}, err)
	ctx = context.WithValue(ctx, chi.RouteCtxKey, chi.NewRouteContext())

	er := r.Clone(ctx)
	er.Method = http.MethodGet
	er.URL.Path = route
	er.URL.RawPath = ""
	er.URL.RawQuery = ""
	er.RequestURI = route
	er.Body = http.NoBody
	er.ContentLength = 0

	a.Handler().ServeHTTP(c.Response(), er)
}

// writeError writes the error as plain text. Internal details are shown
// only in debug mode.
func (a *App) writeError(c Context, code int, err error) {
	msg := http.StatusText(code)
	switch he := AsHTTPError(err); {
	case a.settings.Debug:
		msg = err.Error()
	case he != nil && code < http.StatusInternalServerError:
		msg = he.Message
	}
	_ = c.String(code, msg)
}

func (a *App) logError(c Context, code int, err error) {
	attrs := []any{
		slog.Int("status", code),
		slog.String("method", c.Request().Method),
		slog.String("path", c.Request().URL.Path),
		slog.Any("error", err),
	}
	switch {
	case code >= http.StatusInternalServerError:
		a.logger.ErrorContext(c, "request failed", attrs...)
	case errors.Is(err, context.Canceled):
		a.logger.DebugContext(c, "request cancelled", attrs...)
	default:
		a.logger.DebugContext(c, "request error", attrs...)
	}
}

// mountStatic serves fsys under pattern. Directory listings are disabled.
func mountStatic(r chi.Router, pattern string, fsys fs.FS) {
	prefix := strings.TrimSuffix(pattern, "/")
	fileServer := http.StripPrefix(prefix, http.FileServerFS(fsys))

	r.Mount(prefix, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if strings.HasSuffix(req.URL.Path, "/") {
			http.NotFound(w, req)
			return
		}

		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("X-Content-Type-Options", "nosniff")

		fileServer.ServeHTTP(w, req)
	}))
}
