package internal

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/jetpack/pkg/session"
)

const (
	defaultSessionCookieName = "__sid"
	defaultSessionMaxAge     = 30 * 24 * 60 * 60
	sessionTokenBytes        = 32

	// touchInterval bounds how often a clean session's activity is written.
	touchInterval = time.Minute
)

// SessionManager ties a session.Store to the session cookie.
// Every cookie it writes is a copy of one template, so the attributes of
// the login cookie and the logout cookie always agree.
type SessionManager struct {
	store  session.Store
	logger *slog.Logger
	cookie http.Cookie
}

// SessionOption adjusts the session cookie.
type SessionOption func(*SessionManager)

func NewSessionManager(store session.Store, opts ...SessionOption) *SessionManager {
	sm := &SessionManager{
		store:  store,
		logger: slog.Default(),
		cookie: http.Cookie{
			Name:     defaultSessionCookieName,
			Path:     "/",
			MaxAge:   defaultSessionMaxAge,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
	}
	for _, opt := range opts {
		opt(sm)
	}
	return sm
}

// WithSessionCookieName ignores empty names.
func WithSessionCookieName(name string) SessionOption {
	return func(sm *SessionManager) {
		if name != "" {
			sm.cookie.Name = name
		}
	}
}

// WithSessionMaxAge sets the lifetime in seconds of both the cookie and
// the stored session. Non-positive values are ignored.
func WithSessionMaxAge(seconds int) SessionOption {
	return func(sm *SessionManager) {
		if seconds > 0 {
			sm.cookie.MaxAge = seconds
		}
	}
}

func WithSessionDomain(domain string) SessionOption {
	return func(sm *SessionManager) { sm.cookie.Domain = domain }
}

// WithSessionPath ignores empty paths.
func WithSessionPath(path string) SessionOption {
	return func(sm *SessionManager) {
		if path != "" {
			sm.cookie.Path = path
		}
	}
}

func WithSessionSecure(secure bool) SessionOption {
	return func(sm *SessionManager) { sm.cookie.Secure = secure }
}

func WithSessionHTTPOnly(httpOnly bool) SessionOption {
	return func(sm *SessionManager) { sm.cookie.HttpOnly = httpOnly }
}

func WithSessionSameSite(sameSite http.SameSite) SessionOption {
	return func(sm *SessionManager) { sm.cookie.SameSite = sameSite }
}

// SetLogger replaces the logger. Nil is ignored.
func (sm *SessionManager) SetLogger(l *slog.Logger) {
	if l != nil {
		sm.logger = l
	}
}

func (sm *SessionManager) CookieName() string { return sm.cookie.Name }

func (sm *SessionManager) Store() session.Store { return sm.store }

// LoadSession returns the session named by the request cookie, or nil
// without an error when the request carries no cookie. Store errors such as
// session.ErrNotFound and session.ErrExpired are returned as is.
func (sm *SessionManager) LoadSession(ctx context.Context, r *http.Request) (*session.Session, error) {
	c, err := r.Cookie(sm.cookie.Name)
	if err != nil || c.Value == "" {
		return nil, nil
	}

	sess, err := sm.store.Get(ctx, c.Value)
	switch {
	case err != nil:
		return nil, err
	case sess.IsExpired():
		return nil, session.ErrExpired
	}
	return sess, nil
}

// CreateSession stores a fresh anonymous session for the client of r.
func (sm *SessionManager) CreateSession(ctx context.Context, r *http.Request) (*session.Session, error) {
	token, err := newSessionToken()
	if err != nil {
		return nil, err
	}

	sess := session.New(uuid.NewString(), token, time.Now().Add(sm.lifetime()))
	sess.IP = remoteIP(r)
	sess.UserAgent = r.UserAgent()

	if err := sm.store.Create(ctx, sess); err != nil {
		return nil, err
	}
	sess.ClearNew()
	sess.ClearDirty()

	sm.logger.DebugContext(ctx, "session created", slog.String("session_id", sess.ID))
	return sess, nil
}

// PersistSession saves sess when it has unsaved changes. A clean session
// only has its activity time refreshed, at most once per touchInterval.
func (sm *SessionManager) PersistSession(ctx context.Context, sess *session.Session) error {
	if sess == nil {
		return nil
	}
	if !sess.IsDirty() {
		return sm.touch(ctx, sess)
	}
	sess.LastActiveAt = time.Now()
	if err := sm.store.Update(ctx, sess); err != nil {
		return err
	}
	sess.ClearDirty()
	return nil
}

func (sm *SessionManager) touch(ctx context.Context, sess *session.Session) error {
	now := time.Now()
	if now.Sub(sess.LastActiveAt) < touchInterval {
		return nil
	}
	err := sm.store.Touch(ctx, sess.ID, now)
	switch {
	case errors.Is(err, session.ErrNotFound):
		// ended elsewhere during the request
		return nil
	case err != nil:
		return err
	}
	sess.LastActiveAt = now
	return nil
}

// RotateToken gives sess a new token so that one captured before login
// stops working. The old token is restored if the store rejects the update.
func (sm *SessionManager) RotateToken(ctx context.Context, sess *session.Session) error {
	token, err := newSessionToken()
	if err != nil {
		return err
	}

	prev := sess.Token
	sess.Token = token
	sess.MarkDirty()
	if err := sm.store.Update(ctx, sess); err != nil {
		sess.Token = prev
		return err
	}
	sess.ClearDirty()
	return nil
}

// DestroySession deletes sess from the store. A nil session is a no-op.
func (sm *SessionManager) DestroySession(ctx context.Context, sess *session.Session) error {
	if sess == nil {
		return nil
	}
	return sm.store.Delete(ctx, sess.ID)
}

// DestroyUserSessions deletes every session bound to userID.
// An empty userID is a no-op.
func (sm *SessionManager) DestroyUserSessions(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	if err := sm.store.DeleteByUserID(ctx, userID); err != nil {
		return err
	}
	sm.logger.DebugContext(ctx, "user sessions destroyed", slog.String("user_id", userID))
	return nil
}

// SaveSession sets the session cookie on w.
func (sm *SessionManager) SaveSession(w http.ResponseWriter, sess *session.Session) {
	c := sm.cookie
	c.Value = sess.Token
	http.SetCookie(w, &c)
}

// DeleteSession expires the session cookie on w.
func (sm *SessionManager) DeleteSession(w http.ResponseWriter) {
	c := sm.cookie
	c.MaxAge = -1
	http.SetCookie(w, &c)
}

func (sm *SessionManager) lifetime() time.Duration {
	return time.Duration(sm.cookie.MaxAge) * time.Second
}

func newSessionToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// remoteIP is the host part of r.RemoteAddr. Proxy headers have already
// been applied by chi's RealIP middleware.
func remoteIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
