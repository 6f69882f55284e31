package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/jetpack/pkg/session"
)

// Component is the interface for renderable templates.
// This is compatible with templ.Component.
type Component interface {
	Render(ctx context.Context, w io.Writer) error
}

// Context provides request/response access and helper methods.
// It also implements context.Context by delegating to the underlying request context.
type Context interface {
	context.Context

	// Request returns the underlying *http.Request.
	Request() *http.Request

	// Response returns the underlying http.ResponseWriter.
	Response() http.ResponseWriter

	// Context returns the request's context.Context.
	Context() context.Context

	// App returns the application serving the request.
	App() *App

	// Param returns the URL parameter value by name.
	// Returns empty string if the parameter doesn't exist.
	Param(name string) string

	// Query returns the query parameter value by name.
	// Returns empty string if the parameter doesn't exist.
	Query(name string) string

	// QueryDefault returns the query parameter value or a default.
	QueryDefault(name, defaultValue string) string

	// Form returns the form value by name.
	Form(name string) string

	// FormFile returns the first file for the provided form key.
	FormFile(name string) (multipart.File, *multipart.FileHeader, error)

	// Header returns the request header value by name.
	Header(name string) string

	// SetHeader sets a response header.
	SetHeader(name, value string)

	// JSON writes v as JSON with the given status code.
	JSON(code int, v any) error

	// String writes a plain text response.
	String(code int, s string) error

	// NoContent writes only the status code.
	NoContent(code int) error

	// Redirect redirects the client to url.
	Redirect(code int, url string) error

	// Error creates an HTTPError carrying the request ID when one is set.
	Error(code int, message string, opts ...HTTPErrorOption) *HTTPError

	// Render writes a component as HTML with the given status code.
	Render(code int, component Component) error

	// View renders a named template from the application's template engine.
	// The template is rendered into a buffer first, so a failing template
	// leaves the response untouched for the error handler.
	View(code int, name string, data any) error

	// Written reports whether the response header has been sent.
	Written() bool

	// Logger returns the application logger.
	Logger() *slog.Logger

	LogDebug(msg string, attrs ...any)
	LogInfo(msg string, attrs ...any)
	LogWarn(msg string, attrs ...any)
	LogError(msg string, attrs ...any)

	// Set stores a value in the request context.
	Set(key, value any)

	// Get returns a value from the request context.
	Get(key any) any

	// Cookie returns the value of a request cookie.
	Cookie(name string) (string, error)

	// SetCookie sets an HttpOnly cookie on the response.
	SetCookie(name, value string, maxAge int)

	// DeleteCookie expires a cookie.
	DeleteCookie(name string)

	// Session returns the session of this request, or nil when there is none.
	// A cookie pointing to an unknown or expired session counts as no session.
	// Returns session.ErrNotConfigured if sessions are disabled.
	Session() (*session.Session, error)

	// StartSession resumes the request's session or creates a new one.
	StartSession() (*session.Session, error)

	// RotateSession issues a new token for the current session.
	RotateSession() error

	// DestroySession removes the session and clears the cookie.
	DestroySession() error

	// DestroyUserSessions ends every session bound to userID. The cookie is
	// cleared too when the current session is one of them.
	DestroyUserSessions(userID string) error

	// SessionValue returns a value from the session, or nil when unset.
	SessionValue(key string) (any, error)

	// SetSessionValue stores a value in the session, starting one if needed.
	SetSessionValue(key string, val any) error

	// DeleteSessionValue removes a value from the session.
	DeleteSessionValue(key string) error

	// UserID returns the ID bound to the session, or empty string.
	UserID() string

	// IsAuthenticated reports whether a user is bound to the session.
	IsAuthenticated() bool

	// IsCurrentUser reports whether id is the authenticated user.
	IsCurrentUser(id string) bool

	// ResponseWriter returns the wrapped response writer.
	ResponseWriter() *ResponseWriter
}

type stateKey struct{}

// requestState is shared by every Context created for one request,
// so middleware and handlers see the same session.
type requestState struct {
	rw      *ResponseWriter
	session *session.Session
	loaded  bool
	hooked  bool
}

func stateFrom(r *http.Request) *requestState {
	if st, ok := r.Context().Value(stateKey{}).(*requestState); ok {
		return st
	}
	return nil
}

// requestContext implements the Context interface.
type requestContext struct {
	app     *App
	request *http.Request
	state   *requestState
}

// newContext creates a context for the request, reusing the request state
// installed by the app's root middleware when present.
func newContext(w http.ResponseWriter, r *http.Request, app *App) *requestContext {
	st := stateFrom(r)
	if st == nil {
		st = &requestState{}
	}
	if st.rw == nil {
		st.rw = NewResponseWriter(w)
	}
	return &requestContext{app: app, request: r, state: st}
}

func (c *requestContext) Request() *http.Request {
	return c.request
}

func (c *requestContext) Response() http.ResponseWriter {
	return c.state.rw
}

func (c *requestContext) Context() context.Context {
	return c.request.Context()
}

func (c *requestContext) App() *App {
	return c.app
}

func (c *requestContext) Param(name string) string {
	return chi.URLParam(c.request, name)
}

func (c *requestContext) Query(name string) string {
	return c.request.URL.Query().Get(name)
}

func (c *requestContext) QueryDefault(name, defaultValue string) string {
	v := c.request.URL.Query().Get(name)
	if v == "" {
		return defaultValue
	}
	return v
}

func (c *requestContext) Form(name string) string {
	return c.request.FormValue(name)
}

func (c *requestContext) FormFile(name string) (multipart.File, *multipart.FileHeader, error) {
	return c.request.FormFile(name)
}

func (c *requestContext) Deadline() (time.Time, bool) {
	return c.request.Context().Deadline()
}

func (c *requestContext) Done() <-chan struct{} {
	return c.request.Context().Done()
}

func (c *requestContext) Err() error {
	return c.request.Context().Err()
}

func (c *requestContext) Value(key any) any {
	return c.request.Context().Value(key)
}

func (c *requestContext) Header(name string) string {
	return c.request.Header.Get(name)
}

func (c *requestContext) SetHeader(name, value string) {
	c.state.rw.Header().Set(name, value)
}

func (c *requestContext) JSON(code int, v any) error {
	c.state.rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	c.state.rw.WriteHeader(code)
	return json.NewEncoder(c.state.rw).Encode(v)
}

func (c *requestContext) String(code int, s string) error {
	c.state.rw.Header().Set("Content-Type", "text/plain; charset=utf-8")
	c.state.rw.WriteHeader(code)
	_, err := c.state.rw.Write([]byte(s))
	return err
}

func (c *requestContext) NoContent(code int) error {
	c.state.rw.WriteHeader(code)
	return nil
}

func (c *requestContext) Redirect(code int, url string) error {
	http.Redirect(c.state.rw, c.request, url, code)
	return nil
}

func (c *requestContext) Error(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	if id, ok := c.request.Context().Value(RequestIDKey{}).(string); ok {
		opts = append([]HTTPErrorOption{WithRequestID(id)}, opts...)
	}
	return NewHTTPError(code, message, opts...)
}

func (c *requestContext) Render(code int, component Component) error {
	c.state.rw.Header().Set("Content-Type", "text/html; charset=utf-8")
	c.state.rw.WriteHeader(code)
	return component.Render(c.request.Context(), c.state.rw)
}

func (c *requestContext) View(code int, name string, data any) error {
	views := c.app.Views()
	if views == nil {
		return ErrNoViews
	}

	var buf bytes.Buffer
	if err := views.Render(c.request.Context(), &buf, name, data); err != nil {
		return err
	}

	c.state.rw.Header().Set("Content-Type", "text/html; charset="+views.Charset())
	c.state.rw.WriteHeader(code)
	_, err := buf.WriteTo(c.state.rw)
	return err
}

func (c *requestContext) Written() bool {
	return c.state.rw.Written()
}

func (c *requestContext) Logger() *slog.Logger {
	return c.app.Logger()
}

func (c *requestContext) LogDebug(msg string, attrs ...any) {
	c.Logger().DebugContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogInfo(msg string, attrs ...any) {
	c.Logger().InfoContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogWarn(msg string, attrs ...any) {
	c.Logger().WarnContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogError(msg string, attrs ...any) {
	c.Logger().ErrorContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) Set(key, value any) {
	ctx := context.WithValue(c.request.Context(), key, value)
	c.request = c.request.WithContext(ctx)
}

func (c *requestContext) Get(key any) any {
	return c.request.Context().Value(key)
}

func (c *requestContext) Cookie(name string) (string, error) {
	ck, err := c.request.Cookie(name)
	if err != nil {
		return "", err
	}
	return ck.Value, nil
}

func (c *requestContext) SetCookie(name, value string, maxAge int) {
	http.SetCookie(c.state.rw, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c *requestContext) DeleteCookie(name string) {
	c.SetCookie(name, "", -1)
}

// registerSessionHook ensures the session flush hook is registered once.
// It runs before the response is written to persist any session changes.
func (c *requestContext) registerSessionHook() {
	if c.state.hooked {
		return
	}
	c.state.hooked = true
	c.state.rw.OnBeforeWrite(func() {
		c.app.flushSession(c.request.Context(), c.state)
	})
}

func (c *requestContext) sessions() (*SessionManager, error) {
	sm := c.app.Sessions()
	if sm == nil {
		return nil, session.ErrNotConfigured
	}
	c.registerSessionHook()
	return sm, nil
}

func (c *requestContext) Session() (*session.Session, error) {
	sm, err := c.sessions()
	if err != nil {
		return nil, err
	}

	if c.state.loaded {
		return c.state.session, nil
	}

	sess, err := sm.LoadSession(c.Context(), c.request)
	switch {
	case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrExpired):
		c.LogDebug("stale session cookie", slog.String("error", err.Error()))
		sess = nil
	case err != nil:
		return nil, err
	}

	c.state.session = sess
	c.state.loaded = true
	return sess, nil
}

func (c *requestContext) StartSession() (*session.Session, error) {
	sess, err := c.Session()
	if err != nil || sess != nil {
		return sess, err
	}

	sm := c.app.Sessions()
	sess, err = sm.CreateSession(c.Context(), c.request)
	if err != nil {
		return nil, err
	}

	c.state.session = sess
	c.state.loaded = true
	sm.SaveSession(c.state.rw, sess)
	return sess, nil
}

func (c *requestContext) RotateSession() error {
	sess, err := c.StartSession()
	if err != nil {
		return err
	}

	sm := c.app.Sessions()
	if err := sm.RotateToken(c.Context(), sess); err != nil {
		return err
	}
	sm.SaveSession(c.state.rw, sess)
	return nil
}

func (c *requestContext) DestroySession() error {
	sess, err := c.Session()
	if err != nil {
		return err
	}

	sm := c.app.Sessions()
	if err := sm.DestroySession(c.Context(), sess); err != nil {
		return err
	}
	sm.DeleteSession(c.state.rw)

	c.state.session = nil
	c.state.loaded = true
	return nil
}

func (c *requestContext) DestroyUserSessions(userID string) error {
	sess, err := c.Session()
	if err != nil {
		return err
	}

	sm := c.app.Sessions()
	if err := sm.DestroyUserSessions(c.Context(), userID); err != nil {
		return err
	}
	if sess != nil && sess.UserID != nil && *sess.UserID == userID {
		sm.DeleteSession(c.state.rw)
		c.state.session = nil
		c.state.loaded = true
	}
	return nil
}

func (c *requestContext) SessionValue(key string) (any, error) {
	sess, err := c.Session()
	if err != nil || sess == nil {
		return nil, err
	}
	val, _ := sess.GetValue(key)
	return val, nil
}

func (c *requestContext) SetSessionValue(key string, val any) error {
	sess, err := c.StartSession()
	if err != nil {
		return err
	}
	sess.SetValue(key, val)
	return nil
}

func (c *requestContext) DeleteSessionValue(key string) error {
	sess, err := c.Session()
	if err != nil || sess == nil {
		return err
	}
	sess.DeleteValue(key)
	return nil
}

func (c *requestContext) UserID() string {
	sess, err := c.Session()
	if err != nil || sess == nil || sess.UserID == nil {
		return ""
	}
	return *sess.UserID
}

func (c *requestContext) IsAuthenticated() bool {
	return c.UserID() != ""
}

func (c *requestContext) IsCurrentUser(id string) bool {
	uid := c.UserID()
	return uid != "" && uid == id
}

func (c *requestContext) ResponseWriter() *ResponseWriter {
	return c.state.rw
}
