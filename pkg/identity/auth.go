package identity

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/jetpack/pkg/orm"
	"github.com/dmitrymomot/jetpack/pkg/password"
)

// DefaultPasswordField is the column holding the password envelope.
const DefaultPasswordField = "password"

// Account is a session-bound model with a write-only password.
type Account interface {
	Model
	PasswordHash() string
	SetPasswordHash(envelope string)
}

// SchemaInspector returns column metadata for a table. *orm.DB satisfies it.
type SchemaInspector interface {
	TableInfo(ctx context.Context, table string) (*orm.TableInfo, error)
}

// SessionRotator issues a new session token while keeping session data.
// Login calls it when the provider supports it.
type SessionRotator interface {
	RotateSession() error
}

// SessionRevoker ends every session bound to a user.
// LogoutEverywhere calls it when the provider supports it.
type SessionRevoker interface {
	DestroyUserSessions(userID string) error
}

type tableInfoer interface {
	Info(ctx context.Context) (*orm.TableInfo, error)
}

// AuthOption configures Auth.
type AuthOption func(*authOptions)

type authOptions struct {
	logger    *slog.Logger
	field     string
	inspector SchemaInspector
}

// WithPasswordField overrides the password column name.
func WithPasswordField(name string) AuthOption {
	return func(o *authOptions) {
		if name != "" {
			o.field = name
		}
	}
}

// WithSchemaInspector sets where the password column is validated.
// By default a repository with an Info method (such as *orm.Table) is used.
func WithSchemaInspector(si SchemaInspector) AuthOption {
	return func(o *authOptions) {
		o.inspector = si
	}
}

// WithLogger sets the logger that reports a skipped password column check.
func WithLogger(l *slog.Logger) AuthOption {
	return func(o *authOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// Auth logs accounts in and out of the session and manages their passwords.
type Auth[T Account] struct {
	*Current[T]

	repo      Repository[T]
	hasher    *password.Hasher
	field     string
	inspector SchemaInspector
	logger    *slog.Logger

	mu      sync.Mutex
	checked bool
}

// NewAuth creates an Auth for accounts found through repo.
//
// The password column is validated against the table schema before the
// first hash or check. The schema comes from WithSchemaInspector, or from
// the repository when it has an Info method like *orm.Table. With neither,
// the check is skipped and a debug record says so.
func NewAuth[T Account](repo Repository[T], hasher *password.Hasher, opts ...AuthOption) *Auth[T] {
	o := authOptions{field: DefaultPasswordField, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}
	return &Auth[T]{
		Current:   NewCurrent(repo),
		repo:      repo,
		hasher:    hasher,
		field:     o.field,
		inspector: o.inspector,
		logger:    o.logger,
	}
}

// Me returns the logged-in account.
// Without a bound account the error is an *AccessDeniedError. A bound account
// that no longer exists logs the session out and the lookup error is returned.
func (a *Auth[T]) Me(ctx context.Context, sp SessionProvider) (T, error) {
	rec, err := a.Get(ctx, sp)
	switch {
	case errors.Is(err, ErrNoCurrent):
		return rec, &AccessDeniedError{Reason: "not logged in"}
	case errors.Is(err, orm.ErrNoRecord):
		a.Logout(sp)
	}
	return rec, err
}

// Login binds rec to the session and marks the session as authenticated.
func (a *Auth[T]) Login(sp SessionProvider, rec T) error {
	if err := a.Set(sp, rec); err != nil {
		return err
	}
	sess, err := sp.StartSession()
	if err != nil {
		return err
	}
	sess.SetUserID(rec.Key())

	if r, ok := sp.(SessionRotator); ok {
		return r.RotateSession()
	}
	return nil
}

// Logout unbinds the account. Calling it on an anonymous session is a no-op.
func (a *Auth[T]) Logout(sp SessionProvider) {
	a.Clear(sp)
	if sess, err := sp.StartSession(); err == nil {
		sess.SetUserID("")
	}
}

// LogoutEverywhere ends every session of the logged-in account, on all
// devices. Without a SessionRevoker only this session is logged out.
func (a *Auth[T]) LogoutEverywhere(sp SessionProvider) error {
	sess, err := sp.StartSession()
	if err != nil {
		return err
	}
	if !sess.IsAuthenticated() {
		return nil
	}
	if r, ok := sp.(SessionRevoker); ok {
		return r.DestroyUserSessions(*sess.UserID)
	}
	a.Logout(sp)
	return nil
}

// IsLoggedIn reports whether an account is bound to the session.
func (a *Auth[T]) IsLoggedIn(sp SessionProvider) bool {
	return a.Has(sp)
}

// SetPassword hashes plain and stores the envelope on rec.
// rec is not persisted. Nothing is stored if the password column is unusable.
func (a *Auth[T]) SetPassword(ctx context.Context, rec T, plain string) error {
	if err := a.checkField(ctx); err != nil {
		return err
	}
	envelope, err := a.hasher.Hash(plain)
	if err != nil {
		return err
	}
	rec.SetPasswordHash(envelope)
	return nil
}

// CheckPassword reports whether candidate matches the stored envelope.
// An account without a password never matches.
func (a *Auth[T]) CheckPassword(ctx context.Context, rec T, candidate string) (bool, error) {
	if err := a.checkField(ctx); err != nil {
		return false, err
	}
	envelope := rec.PasswordHash()
	if envelope == "" {
		return false, nil
	}
	return a.hasher.Check(envelope, candidate)
}

// Password always fails: the stored password is write-only.
func (a *Auth[T]) Password(T) (string, error) {
	return "", &AccessDeniedError{Reason: "password is write-only"}
}

func (a *Auth[T]) checkField(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.checked {
		return nil
	}

	info, err := a.tableInfo(ctx)
	if err != nil {
		return err
	}
	if info == nil {
		a.logger.DebugContext(ctx, "password column check skipped: no schema source",
			slog.String("collection", a.repo.Collection()),
			slog.String("field", a.field),
		)
		a.checked = true
		return nil
	}

	ferr := &FieldError{
		Table:     info.Name,
		Field:     a.field,
		MinLength: a.hasher.MinLength(),
	}
	col, ok := info.Field(a.field)
	switch {
	case !ok:
		ferr.Reason = "column does not exist"
		return ferr
	case !col.IsStringy():
		ferr.Reason = "column type is " + col.DataType
		return ferr
	case col.IsBounded() && col.Length < ferr.MinLength:
		ferr.Reason = "column is too short"
		return ferr
	}

	a.checked = true
	return nil
}

// tableInfo returns nil info when neither an inspector nor a repository
// Info method is available.
func (a *Auth[T]) tableInfo(ctx context.Context) (*orm.TableInfo, error) {
	if a.inspector != nil {
		return a.inspector.TableInfo(ctx, a.repo.Collection())
	}
	if ti, ok := a.repo.(tableInfoer); ok {
		return ti.Info(ctx)
	}
	return nil, nil
}
