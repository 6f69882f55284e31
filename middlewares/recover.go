package middlewares

import (
	"net/http"
	"runtime"

	"github.com/dmitrymomot/jetpack/internal"
)

// DefaultStackSize caps the stack trace captured for a panic, in bytes.
const DefaultStackSize = 4 << 10

// RecoverConfig configures Recover.
type RecoverConfig struct {
	StackSize int  // bytes of stack kept, DefaultStackSize when <= 0
	NoStack   bool // skip stack capture entirely
}

// RecoverOption configures RecoverConfig.
type RecoverOption func(*RecoverConfig)

// WithRecoverStackSize sets how many bytes of stack are kept.
func WithRecoverStackSize(size int) RecoverOption {
	return func(cfg *RecoverConfig) {
		cfg.StackSize = size
	}
}

// WithRecoverDisablePrintStack turns off stack capture.
func WithRecoverDisablePrintStack() RecoverOption {
	return func(cfg *RecoverConfig) {
		cfg.NoStack = true
	}
}

// Recover turns a panic in the rest of the chain into a *PanicError, which
// is rendered as 500 (or routed to error_routes["500"]).
// http.ErrAbortHandler is re-raised so the server can drop the connection.
func Recover(opts ...RecoverOption) internal.Middleware {
	cfg := RecoverConfig{StackSize: DefaultStackSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.StackSize <= 0 {
		cfg.StackSize = DefaultStackSize
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if r == http.ErrAbortHandler {
					panic(r)
				}

				perr := &PanicError{Value: r}
				attrs := []any{"panic", r, "method", c.Request().Method, "path", c.Request().URL.Path}
				if !cfg.NoStack {
					buf := make([]byte, cfg.StackSize)
					perr.Stack = buf[:runtime.Stack(buf, false)]
					attrs = append(attrs, "stack", string(perr.Stack))
				}

				c.LogError("panic recovered", attrs...)
				err = perr
			}()

			return next(c)
		}
	}
}
