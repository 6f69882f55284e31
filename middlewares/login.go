package middlewares

import (
	"net/http"
	"strings"

	"github.com/dmitrymomot/jetpack/internal"
	"github.com/dmitrymomot/jetpack/pkg/identity"
)

// LoginChecker reports whether an account is bound to the request's session.
// *identity.Auth satisfies it.
type LoginChecker interface {
	IsLoggedIn(sp identity.SessionProvider) bool
}

// RequireLoginConfig configures the login guard.
type RequireLoginConfig struct {
	RedirectURL string // Where browsers are sent (empty: respond 401)
}

// RequireLoginOption configures RequireLoginConfig.
type RequireLoginOption func(*RequireLoginConfig)

// WithLoginRedirect redirects requests that accept HTML to url
// instead of failing with 401.
func WithLoginRedirect(url string) RequireLoginOption {
	return func(cfg *RequireLoginConfig) {
		cfg.RedirectURL = url
	}
}

// RequireLogin returns middleware that lets only logged-in sessions through.
// Other requests fail with *identity.AccessDeniedError, rendered as 401
// (or routed to error_routes["401"] when configured).
func RequireLogin(checker LoginChecker, opts ...RequireLoginOption) internal.Middleware {
	cfg := &RequireLoginConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			if checker.IsLoggedIn(c) {
				return next(c)
			}

			if cfg.RedirectURL != "" && acceptsHTML(c.Request()) {
				return c.Redirect(http.StatusSeeOther, cfg.RedirectURL)
			}

			c.LogDebug("login required", "path", c.Request().URL.Path)
			return &identity.AccessDeniedError{Reason: "login required"}
		}
	}
}

func acceptsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
