package internal

import "context"

// Handler declares routes on a router.
//
// Example:
//
//	type AuthHandler struct {
//	    auth *identity.Auth[*User]
//	}
//
//	func (h *AuthHandler) Routes(r jetpack.Router) {
//	    r.GET("/login", h.showLogin)
//	    r.POST("/login", h.handleLogin)
//	}
type Handler interface {
	Routes(r Router)
}

// HandlerFunc is the signature for route handlers.
// Returning a non-nil error hands the request to the error handler.
type HandlerFunc func(c Context) error

// Middleware wraps a HandlerFunc to add cross-cutting concerns.
type Middleware func(next HandlerFunc) HandlerFunc

// ErrorHandler handles errors returned from handlers.
type ErrorHandler func(Context, error) error

// Task is a CLI command run by the application instead of the HTTP server.
//
// Example:
//
//	type CleanupTask struct{ db *orm.DB }
//
//	func (t *CleanupTask) Name() string        { return "cleanup" }
//	func (t *CleanupTask) Description() string { return "Remove stale rows" }
//	func (t *CleanupTask) Run(ctx context.Context, app *jetpack.App, args []string) error { ... }
type Task interface {
	Name() string
	Description() string
	Run(ctx context.Context, app *App, args []string) error
}

// TaskFunc adapts a function to the Task interface.
type TaskFunc struct {
	TaskName        string
	TaskDescription string
	Fn              func(ctx context.Context, app *App, args []string) error
}

func (t TaskFunc) Name() string        { return t.TaskName }
func (t TaskFunc) Description() string { return t.TaskDescription }

func (t TaskFunc) Run(ctx context.Context, app *App, args []string) error {
	return t.Fn(ctx, app, args)
}
