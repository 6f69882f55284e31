package redis

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
)

// Option adjusts the client settings parsed from the URL.
type Option func(*settings)

type settings struct {
	client   *redis.Options
	attempts int
	backoff  time.Duration
}

// WithPoolSize caps the number of pooled connections.
func WithPoolSize(n int) Option {
	return func(s *settings) { s.client.PoolSize = n }
}

// WithMinIdleConns keeps n connections open while idle.
func WithMinIdleConns(n int) Option {
	return func(s *settings) { s.client.MinIdleConns = n }
}

// WithRetry makes Open ping up to attempts times, sleeping backoff*n after
// the n-th failure.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(s *settings) {
		s.attempts = attempts
		s.backoff = backoff
	}
}

// WithTimeout applies d to dialing, reads and writes.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		s.client.DialTimeout = d
		s.client.ReadTimeout = d
		s.client.WriteTimeout = d
	}
}

// Open connects to the server named by a redis:// or rediss:// URL and
// returns the client once a ping succeeds.
func Open(ctx context.Context, rawURL string, opts ...Option) (redis.UniversalClient, error) {
	if rawURL == "" {
		return nil, ErrNoURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "redis" && u.Scheme != "rediss") {
		return nil, ErrInvalidURL
	}

	parsed, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, errors.Join(ErrInvalidURL, err)
	}

	s := &settings{client: parsed, attempts: 3, backoff: 2 * time.Second}
	s.client.PoolSize = 10
	s.client.MinIdleConns = 2
	WithTimeout(3 * time.Second)(s)
	for _, opt := range opts {
		opt(s)
	}

	client := redis.NewClient(s.client)
	if err := ping(ctx, client, max(s.attempts, 1), s.backoff); err != nil {
		_ = client.Close()
		return nil, errors.Join(ErrUnavailable, err)
	}
	return client, nil
}

func ping(ctx context.Context, client *redis.Client, attempts int, backoff time.Duration) error {
	var err error
	for n := 1; ; n++ {
		if err = client.Ping(ctx).Err(); err == nil || n == attempts {
			return err
		}
		if werr := wait(ctx, time.Duration(n)*backoff); werr != nil {
			return errors.Join(err, werr)
		}
	}
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
