// Package internal provides the core types and implementation for the Jetpack bootstrap.
//
// This package is internal and should not be used directly. Import "github.com/dmitrymomot/jetpack"
// instead, which re-exports the public API.
//
// # Core Types
//
//   - App: loads configuration, opens resources and dispatches the request or CLI command
//   - Context: request/response access, sessions and the current user
//   - Router: interface handlers use to declare routes
//   - Handler: implemented by types that declare routes on a router
//   - Task: a named CLI command run instead of the HTTP server
//   - SessionManager: session cookie handling on top of a session.Store
//
// # Bootstrap
//
// Configure runs a fixed sequence of steps. The first failure stops it and
// every resource opened so far is closed:
//
//  1. before hooks
//  2. configuration: .config.json (required) merged with .local.json
//  3. directories resolved against the app root
//  4. timezone
//  5. logger and error reporting (debug, sentry)
//  6. includes loader, searching includes/submodules first
//  7. database pools, when db is set
//  8. template engine, when twig.dir is set
//  9. session store and cookie
//  10. after hooks
//
// # Dispatch
//
// Start serves HTTP when called without arguments. Otherwise the first
// argument names a command: serve, migrate, health, routes or a registered task.
// Unknown commands print "Command not found!" and fail with ErrCommandNotFound.
//
// # Errors
//
// Handlers return errors. The status comes from StatusOf. When error_routes
// maps the status to a path, that route is served internally as a GET request
// and ErrorFrom returns the original error. If the error route fails too,
// the failure is logged and the original error is written as plain text.
//
// # Context as context.Context
//
// Context implements context.Context and can be passed to any function
// that expects one:
//
//	func (h *Users) show(c jetpack.Context) error {
//	    user, err := h.users.Find(c, jetpack.Param[int64](c, "id"))
//	    if err != nil {
//	        return err
//	    }
//	    return c.View(http.StatusOK, "users/show", user)
//	}
package internal
