package identity

import (
	"context"
	"errors"

	"github.com/dmitrymomot/jetpack/pkg/orm"
	"github.com/dmitrymomot/jetpack/pkg/session"
)

// Model is a persisted record that can be bound to a session.
type Model interface {
	Key() string
}

// Repository finds records of one collection by key.
// *orm.Table satisfies it.
type Repository[T Model] interface {
	Collection() string
	FindByID(ctx context.Context, id string) (T, error)
}

// SessionProvider starts or resumes the session of the current request.
type SessionProvider interface {
	StartSession() (*session.Session, error)
}

// Current binds one record per collection to the session.
// The session stores the record key under the collection name.
type Current[T Model] struct {
	repo Repository[T]
}

// NewCurrent creates a Current for records found through repo.
func NewCurrent[T Model](repo Repository[T]) *Current[T] {
	return &Current[T]{repo: repo}
}

// Set stores the key of rec in the session.
func (c *Current[T]) Set(sp SessionProvider, rec T) error {
	sess, err := sp.StartSession()
	if err != nil {
		return err
	}
	sess.SetValue(c.repo.Collection(), rec.Key())
	return nil
}

// Get loads the record bound to the session.
// A key that no longer resolves to a record is removed before the lookup error is returned.
func (c *Current[T]) Get(ctx context.Context, sp SessionProvider) (T, error) {
	var zero T

	sess, err := sp.StartSession()
	if err != nil {
		return zero, err
	}

	id, ok := c.key(sess)
	if !ok {
		return zero, ErrNoCurrent
	}

	rec, err := c.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, orm.ErrNoRecord) {
			sess.DeleteValue(c.repo.Collection())
		}
		return zero, err
	}
	return rec, nil
}

// Has reports whether a key is bound. It does not check that the record exists.
func (c *Current[T]) Has(sp SessionProvider) bool {
	sess, err := sp.StartSession()
	if err != nil {
		return false
	}
	_, ok := c.key(sess)
	return ok
}

// Clear removes the bound key, if any.
func (c *Current[T]) Clear(sp SessionProvider) {
	sess, err := sp.StartSession()
	if err != nil {
		return
	}
	sess.DeleteValue(c.repo.Collection())
}

func (c *Current[T]) key(sess *session.Session) (string, bool) {
	id := session.ValueOr(sess, c.repo.Collection(), "")
	return id, id != ""
}
