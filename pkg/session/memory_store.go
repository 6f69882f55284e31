package session

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSweepSchedule is the cron spec used to purge expired sessions.
const DefaultSweepSchedule = "@every 5m"

// MemoryStore keeps sessions in process memory.
// Sessions do not survive a restart. Expired entries are purged by a cron job.
type MemoryStore struct {
	mu      sync.RWMutex
	tokens  map[string]string // token -> id
	records map[string]*Session

	schedule string
	cron     *cron.Cron
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithSweepSchedule overrides the cron spec of the expiry sweep.
// An empty spec disables the sweep.
func WithSweepSchedule(spec string) MemoryOption {
	return func(s *MemoryStore) {
		s.schedule = spec
	}
}

// NewMemoryStore creates an in-memory store and starts its sweep job.
// Call Close to stop the job.
func NewMemoryStore(opts ...MemoryOption) (*MemoryStore, error) {
	s := &MemoryStore{
		tokens:   make(map[string]string),
		records:  make(map[string]*Session),
		schedule: DefaultSweepSchedule,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.schedule != "" {
		s.cron = cron.New()
		if _, err := s.cron.AddFunc(s.schedule, func() { s.Sweep() }); err != nil {
			return nil, err
		}
		s.cron.Start()
	}

	return s, nil
}

// Create stores a copy of the session.
func (s *MemoryStore) Create(_ context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.put(sess)
	return nil
}

// Get returns a copy of the session identified by token.
func (s *MemoryStore) Get(_ context.Context, token string) (*Session, error) {
	s.mu.RLock()
	id, ok := s.tokens[token]
	var rec *Session
	if ok {
		rec = s.records[id]
	}
	s.mu.RUnlock()

	if rec == nil {
		return nil, ErrNotFound
	}
	if rec.IsExpired() {
		s.mu.Lock()
		s.remove(id)
		s.mu.Unlock()
		return nil, ErrExpired
	}

	return rec.Clone(), nil
}

// Update replaces the stored session. A changed token invalidates the old one.
func (s *MemoryStore) Update(_ context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[sess.ID]; !ok {
		return ErrNotFound
	}
	s.remove(sess.ID)
	s.put(sess)
	return nil
}

// Delete removes the session with the given ID. Missing sessions are ignored.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.remove(id)
	return nil
}

// DeleteByUserID removes every session bound to userID.
func (s *MemoryStore) DeleteByUserID(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, rec := range s.records {
		if rec.UserID != nil && *rec.UserID == userID {
			s.remove(id)
		}
	}
	return nil
}

// Touch updates LastActiveAt of the session with the given ID.
func (s *MemoryStore) Touch(_ context.Context, id string, lastActiveAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	rec.LastActiveAt = lastActiveAt
	return nil
}

// Sweep removes expired sessions and returns how many were dropped.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, rec := range s.records {
		if rec.IsExpired() {
			s.remove(id)
			n++
		}
	}
	return n
}

// Len returns the number of stored sessions, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close stops the sweep job and waits for a running sweep to finish.
func (s *MemoryStore) Close(ctx context.Context) error {
	if s.cron == nil {
		return nil
	}
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *MemoryStore) put(sess *Session) {
	rec := sess.Clone()
	rec.ClearDirty()
	rec.ClearNew()
	s.records[rec.ID] = rec
	s.tokens[rec.Token] = rec.ID
}

func (s *MemoryStore) remove(id string) {
	rec, ok := s.records[id]
	if !ok {
		return
	}
	delete(s.tokens, rec.Token)
	delete(s.records, id)
}
