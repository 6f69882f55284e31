package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces every key written by RedisStore.
const DefaultRedisPrefix = "session:"

// RedisStore keeps sessions in Redis as JSON documents.
//
// Layout, relative to the prefix:
//
//	t:<token> -> session document (expires with the session)
//	i:<id>    -> token
//	u:<user>  -> set of session IDs bound to the user
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithRedisPrefix overrides the key prefix.
func WithRedisPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// NewRedisStore creates a store backed by client.
func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, prefix: DefaultRedisPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type record struct {
	CreatedAt    time.Time      `json:"created_at"`
	LastActiveAt time.Time      `json:"last_active_at"`
	ExpiresAt    time.Time      `json:"expires_at"`
	UserID       *string        `json:"user_id,omitempty"`
	Values       map[string]any `json:"values,omitempty"`
	ID           string         `json:"id"`
	Token        string         `json:"token"`
	IP           string         `json:"ip,omitempty"`
	UserAgent    string         `json:"user_agent,omitempty"`
}

func encode(sess *Session) ([]byte, error) {
	data, err := json.Marshal(record{
		CreatedAt:    sess.CreatedAt,
		LastActiveAt: sess.LastActiveAt,
		ExpiresAt:    sess.ExpiresAt,
		UserID:       sess.UserID,
		Values:       sess.Values,
		ID:           sess.ID,
		Token:        sess.Token,
		IP:           sess.IP,
		UserAgent:    sess.UserAgent,
	})
	if err != nil {
		return nil, errors.Join(ErrEncode, err)
	}
	return data, nil
}

func decode(data []byte) (*Session, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.Join(ErrDecode, err)
	}
	values := rec.Values
	if values == nil {
		values = make(map[string]any)
	}
	return &Session{
		CreatedAt:    rec.CreatedAt,
		LastActiveAt: rec.LastActiveAt,
		ExpiresAt:    rec.ExpiresAt,
		UserID:       rec.UserID,
		Values:       values,
		ID:           rec.ID,
		Token:        rec.Token,
		IP:           rec.IP,
		UserAgent:    rec.UserAgent,
	}, nil
}

func (s *RedisStore) tokenKey(token string) string { return s.prefix + "t:" + token }
func (s *RedisStore) idKey(id string) string       { return s.prefix + "i:" + id }
func (s *RedisStore) userKey(user string) string   { return s.prefix + "u:" + user }

// Create writes a new session. Sessions that already expired are rejected.
func (s *RedisStore) Create(ctx context.Context, sess *Session) error {
	return s.write(ctx, sess, "", "")
}

// Get loads the session identified by token.
func (s *RedisStore) Get(ctx context.Context, token string) (*Session, error) {
	data, err := s.client.Get(ctx, s.tokenKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session: get: %w", err)
	}

	sess, err := decode(data)
	if err != nil {
		return nil, err
	}
	if sess.IsExpired() {
		return nil, ErrExpired
	}
	return sess, nil
}

// Update rewrites the session. A rotated token replaces the previous one
// and a changed user moves the session between user indexes.
func (s *RedisStore) Update(ctx context.Context, sess *Session) error {
	token, prev, err := s.lookup(ctx, sess.ID)
	if err != nil {
		return err
	}
	return s.write(ctx, sess, token, prev)
}

// lookup returns the current token of session id and the user it is bound
// to, if the document is still readable.
func (s *RedisStore) lookup(ctx context.Context, id string) (token, userID string, err error) {
	token, err = s.client.Get(ctx, s.idKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return "", "", ErrNotFound
	}
	if err != nil {
		return "", "", fmt.Errorf("session: lookup: %w", err)
	}
	if data, err := s.client.Get(ctx, s.tokenKey(token)).Bytes(); err == nil {
		if sess, err := decode(data); err == nil && sess.UserID != nil {
			userID = *sess.UserID
		}
	}
	return token, userID, nil
}

func (s *RedisStore) write(ctx context.Context, sess *Session, oldToken, oldUser string) error {
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return ErrExpired
	}

	data, err := encode(sess)
	if err != nil {
		return err
	}

	var user string
	if sess.UserID != nil {
		user = *sess.UserID
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if oldToken != "" && oldToken != sess.Token {
			pipe.Del(ctx, s.tokenKey(oldToken))
		}
		if oldUser != "" && oldUser != user {
			pipe.SRem(ctx, s.userKey(oldUser), sess.ID)
		}
		pipe.Set(ctx, s.tokenKey(sess.Token), data, ttl)
		pipe.Set(ctx, s.idKey(sess.ID), sess.Token, ttl)
		if user != "" {
			pipe.SAdd(ctx, s.userKey(user), sess.ID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("session: write: %w", err)
	}
	return nil
}

// Delete removes the session with the given ID. Missing sessions are ignored.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	token, userID, err := s.lookup(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.tokenKey(token), s.idKey(id))
		if userID != "" {
			pipe.SRem(ctx, s.userKey(userID), id)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}

// DeleteByUserID removes every session bound to userID. Index entries whose
// session is now bound to someone else, or is gone, are dropped without
// touching the session.
func (s *RedisStore) DeleteByUserID(ctx context.Context, userID string) error {
	ids, err := s.client.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("session: list user sessions: %w", err)
	}
	for _, id := range ids {
		_, owner, err := s.lookup(ctx, id)
		switch {
		case errors.Is(err, ErrNotFound):
			continue
		case err != nil:
			return err
		case owner != userID:
			continue
		}
		if err := s.Delete(ctx, id); err != nil {
			return err
		}
	}
	if err := s.client.Del(ctx, s.userKey(userID)).Err(); err != nil {
		return fmt.Errorf("session: delete user index: %w", err)
	}
	return nil
}

// Touch updates LastActiveAt and keeps the remaining TTL.
func (s *RedisStore) Touch(ctx context.Context, id string, lastActiveAt time.Time) error {
	token, err := s.client.Get(ctx, s.idKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("session: touch: %w", err)
	}

	data, err := s.client.Get(ctx, s.tokenKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("session: touch: %w", err)
	}

	sess, err := decode(data)
	if err != nil {
		return err
	}
	sess.LastActiveAt = lastActiveAt

	data, err = encode(sess)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.tokenKey(token), data, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("session: touch: %w", err)
	}
	return nil
}
