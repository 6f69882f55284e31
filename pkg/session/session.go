package session

import (
	"fmt"
	"maps"
	"time"
)

type state uint8

const (
	stateDirty state = 1 << iota
	stateNew
)

// Session is the server-side record behind a session cookie.
// Bound models are stored in Values under their collection name.
type Session struct {
	CreatedAt    time.Time
	LastActiveAt time.Time
	ExpiresAt    time.Time

	UserID    *string // nil while anonymous
	Values    map[string]any
	ID        string
	Token     string // cookie value; rotated on login
	IP        string
	UserAgent string

	state state
}

// New returns an unsaved session. It starts both new and dirty.
func New(id, token string, expiresAt time.Time) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		Token:        token,
		Values:       map[string]any{},
		CreatedAt:    now,
		LastActiveAt: now,
		ExpiresAt:    expiresAt,
		state:        stateNew | stateDirty,
	}
}

func (s *Session) IsAuthenticated() bool { return s.UserID != nil && *s.UserID != "" }

func (s *Session) IsExpired() bool { return time.Now().After(s.ExpiresAt) }

func (s *Session) IsDirty() bool { return s.state&stateDirty != 0 }
func (s *Session) MarkDirty()    { s.state |= stateDirty }
func (s *Session) ClearDirty()   { s.state &^= stateDirty }

// IsNew reports whether the session has never been saved.
func (s *Session) IsNew() bool { return s.state&stateNew != 0 }
func (s *Session) ClearNew()   { s.state &^= stateNew }

func (s *Session) SetValue(key string, val any) {
	if s.Values == nil {
		s.Values = map[string]any{}
	}
	s.Values[key] = val
	s.MarkDirty()
}

func (s *Session) GetValue(key string) (any, bool) {
	val, ok := s.Values[key]
	return val, ok
}

// DeleteValue removes key. Deleting a missing key leaves the session clean.
func (s *Session) DeleteValue(key string) {
	if _, ok := s.Values[key]; !ok {
		return
	}
	delete(s.Values, key)
	s.MarkDirty()
}

// SetUserID binds the session to id. An empty id makes it anonymous again.
func (s *Session) SetUserID(id string) {
	switch {
	case id == "" && s.UserID == nil:
		return
	case id == "":
		s.UserID = nil
	case s.UserID != nil && *s.UserID == id:
		return
	default:
		s.UserID = &id
	}
	s.MarkDirty()
}

// Clone copies the session deeply enough that Values and UserID can be
// changed without touching s.
func (s *Session) Clone() *Session {
	c := *s
	if s.UserID != nil {
		id := *s.UserID
		c.UserID = &id
	}
	c.Values = maps.Clone(s.Values)
	if c.Values == nil {
		c.Values = map[string]any{}
	}
	return &c
}

// Value returns the value under key as a T. It fails with ErrNotFound for a
// nil session or a missing key and with ErrTypeMismatch otherwise.
func Value[T any](s *Session, key string) (T, error) {
	var zero T
	if s == nil {
		return zero, ErrNotFound
	}
	val, ok := s.GetValue(key)
	if !ok {
		return zero, ErrNotFound
	}
	typed, ok := val.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q holds %T", ErrTypeMismatch, key, val)
	}
	return typed, nil
}

// ValueOr is Value with a fallback for any failure.
func ValueOr[T any](s *Session, key string, fallback T) T {
	if v, err := Value[T](s, key); err == nil {
		return v
	}
	return fallback
}
