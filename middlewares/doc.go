// Package middlewares provides HTTP middleware for Jetpack applications.
//
// # Request ID
//
// RequestID assigns a unique ID to each request for tracing. It reuses an
// incoming X-Request-ID (or X-Correlation-ID) header and generates a UUID
// otherwise. Errors built with Context.Error carry the ID.
//
// Use RequestIDExtractor with WithLogExtractors to add request_id to every log entry:
//
//	app := jetpack.New(
//	    jetpack.WithLogExtractors(middlewares.RequestIDExtractor()),
//	    jetpack.WithMiddleware(
//	        middlewares.RequestID(),
//	    ),
//	)
//
// # Recover
//
// Recover converts panics to *PanicError. The error renders as 500 and is
// routed to error_routes["500"] when one is configured.
//
//	app := jetpack.New(
//	    jetpack.WithMiddleware(
//	        middlewares.Recover(),
//	    ),
//	)
//
// # Login guard
//
// RequireLogin protects routes with an *identity.Auth:
//
//	auth := identity.NewAuth(users, hasher)
//
//	r.GET("/account", h.account, middlewares.RequireLogin(auth,
//	    middlewares.WithLoginRedirect("/login"),
//	))
//
// # Recommended Middleware Order
//
//	jetpack.WithMiddleware(
//	    middlewares.RequestID(), // First: assign ID for all subsequent logging
//	    middlewares.Recover(),   // Second: catch panics from handlers
//	)
package middlewares
