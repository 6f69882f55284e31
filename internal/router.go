package internal

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Router declares routes. Paths use chi patterns such as /users/{id}.
// Route middleware runs after the global middleware, in the order given.
type Router interface {
	GET(path string, h HandlerFunc, mw ...Middleware)
	POST(path string, h HandlerFunc, mw ...Middleware)
	PUT(path string, h HandlerFunc, mw ...Middleware)
	PATCH(path string, h HandlerFunc, mw ...Middleware)
	DELETE(path string, h HandlerFunc, mw ...Middleware)
	HEAD(path string, h HandlerFunc, mw ...Middleware)
	OPTIONS(path string, h HandlerFunc, mw ...Middleware)

	// Group starts an inline group sharing middleware added with Use.
	Group(fn func(r Router))

	// Route starts a group mounted under pattern.
	Route(pattern string, fn func(r Router))

	// Use adds middleware to every route declared after it in this group.
	Use(mw ...Middleware)

	// Mount attaches a plain http.Handler under pattern.
	Mount(pattern string, h http.Handler)
}

// chiRouter implements Router on top of a chi.Router owned by app.
type chiRouter struct {
	mux chi.Router
	app *App
}

func (r *chiRouter) GET(path string, h HandlerFunc, mw ...Middleware) {
	r.handle(http.MethodGet, path, h, mw)
}

func (r *chiRouter) POST(path string, h HandlerFunc, mw ...Middleware) {
	r.handle(http.MethodPost, path, h, mw)
}

func (r *chiRouter) PUT(path string, h HandlerFunc, mw ...Middleware) {
	r.handle(http.MethodPut, path, h, mw)
}

func (r *chiRouter) PATCH(path string, h HandlerFunc, mw ...Middleware) {
	r.handle(http.MethodPatch, path, h, mw)
}

func (r *chiRouter) DELETE(path string, h HandlerFunc, mw ...Middleware) {
	r.handle(http.MethodDelete, path, h, mw)
}

func (r *chiRouter) HEAD(path string, h HandlerFunc, mw ...Middleware) {
	r.handle(http.MethodHead, path, h, mw)
}

func (r *chiRouter) OPTIONS(path string, h HandlerFunc, mw ...Middleware) {
	r.handle(http.MethodOptions, path, h, mw)
}

func (r *chiRouter) Group(fn func(Router)) {
	r.mux.Group(func(sub chi.Router) {
		fn(&chiRouter{mux: sub, app: r.app})
	})
}

func (r *chiRouter) Route(pattern string, fn func(Router)) {
	r.mux.Route(pattern, func(sub chi.Router) {
		fn(&chiRouter{mux: sub, app: r.app})
	})
}

func (r *chiRouter) Use(mw ...Middleware) {
	for _, m := range mw {
		r.mux.Use(r.app.httpMiddleware(m))
	}
}

func (r *chiRouter) Mount(pattern string, h http.Handler) {
	r.mux.Mount(pattern, h)
}

func (r *chiRouter) handle(method, path string, h HandlerFunc, mw []Middleware) {
	r.mux.Method(method, path, r.app.httpHandler(chain(h, mw)))
}

// chain wraps h so that mw[0] is the outermost middleware.
func chain(h HandlerFunc, mw []Middleware) HandlerFunc {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}

// httpHandler runs h with a request Context and routes its error.
func (a *App) httpHandler(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		c := newContext(w, req, a)
		if err := h(c); err != nil {
			a.handleError(c, err)
		}
	}
}

// httpMiddleware turns mw into chi middleware. The next handler sees the
// request and writer as they are after mw ran, so values set with
// Context.Set reach it through the request context.
func (a *App) httpMiddleware(mw Middleware) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return a.httpHandler(mw(func(c Context) error {
			next.ServeHTTP(c.Response(), c.Request())
			return nil
		}))
	}
}
