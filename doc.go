// Package jetpack bootstraps a web application from a JSON configuration
// file next to the executable.
//
// An application is a set of handlers, tasks and hooks. jetpack loads
// .config.json (and .local.json on top of it), opens the resources the
// configuration asks for and then either serves HTTP or runs a command.
//
// # Quick Start
//
//	func main() {
//	    if err := jetpack.Run(
//	        jetpack.WithHandlers(handlers.NewAuth(users, hasher)),
//	        jetpack.WithMiddleware(middlewares.RequestID(), middlewares.Recover()),
//	    ); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
// A minimal configuration:
//
//	{
//	    "debug": true,
//	    "timezone": "Europe/Berlin",
//	    "directories": {"public": "public"},
//	    "db": {"write": "postgres://localhost/app"},
//	    "twig": {"dir": "views"},
//	    "session": {"store": "redis", "redis_url": "redis://localhost:6379/0"},
//	    "error_routes": {"404": "/errors/not-found"}
//	}
//
// # Handlers
//
// Handlers implement the [Handler] interface to declare routes:
//
//	func (h *Auth) Routes(r jetpack.Router) {
//	    r.POST("/login", h.login)
//	    r.GET("/me", h.me, middlewares.RequireLogin(h.auth))
//	}
//
// Returned errors pick the response status through [StatusOf]. Unhandled
// statuses listed under error_routes are served by the configured route,
// where [ErrorFrom] returns the original error.
//
// # Commands
//
// [Run] passes os.Args to [App.Start]. Without arguments the HTTP server is
// started. Otherwise the first argument is a command: serve, migrate, health,
// routes or the name of a registered [Task]. Anything else prints
// "Command not found!".
//
// # Sessions and users
//
// Context starts sessions lazily and writes them back after the handler
// returns. The pkg/identity package binds the current user to the session and
// pkg/password hashes passwords into algo$salt$hash envelopes.
package jetpack
