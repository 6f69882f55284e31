package session

import (
	"context"
	"time"
)

// Store persists sessions. Tokens identify sessions on the wire; IDs are
// the stable keys used for deletion and activity tracking.
type Store interface {
	Create(ctx context.Context, s *Session) error

	// Get loads the session for token. It fails with ErrNotFound for an
	// unknown token and ErrExpired for one past its expiry.
	Get(ctx context.Context, token string) (*Session, error)

	Update(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error

	// DeleteByUserID ends every session bound to userID.
	DeleteByUserID(ctx context.Context, userID string) error

	// Touch records activity without rewriting the session values.
	Touch(ctx context.Context, id string, lastActiveAt time.Time) error
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*RedisStore)(nil)
)
